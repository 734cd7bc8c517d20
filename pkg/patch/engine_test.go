package patch

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const testFile = "/work/file.txt"

func numberedLines(n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "line%d\n", i)
	}
	return b.String()
}

func newTestEngine(content string) (*Engine, *MemoryStorage) {
	storage := NewMemoryStorage(map[string]string{testFile: content})
	return NewEngine(storage), storage
}

func TestEngineIdempotentNoOp(t *testing.T) {
	t.Parallel()

	original := "alpha\nbeta\ngamma\n"
	engine, storage := newTestEngine(original)

	outcome := engine.ApplyFile(context.Background(), FileEditRequest{
		FilePath: testFile,
		Patches: []PatchSpec{{
			OldString: "beta\n",
			NewString: "beta\n",
			Ranges:    []LineRange{Lines(2, 2)},
		}},
	})

	require.True(t, outcome.OK(), FormatOutcome(outcome))
	require.Equal(t, FingerprintString(original), outcome.Hash)
	require.Equal(t, original, storage.Snapshot()[testFile])
	require.Zero(t, storage.Writes())
}

func TestEngineAllOrNothing(t *testing.T) {
	t.Parallel()

	original := "one\ntwo\nthree\n"
	engine, storage := newTestEngine(original)

	outcome := engine.ApplyFile(context.Background(), FileEditRequest{
		FilePath: testFile,
		Patches: []PatchSpec{
			{OldString: "one\n", NewString: "ONE\n", Ranges: []LineRange{Lines(1, 1)}},
			{OldString: "not there\n", NewString: "x\n", Ranges: []LineRange{Lines(3, 3)}},
		},
	})

	require.False(t, outcome.OK())
	require.Equal(t, KindConflict, outcome.Kind)
	require.Equal(t, "content mismatch", outcome.Reason)
	require.Equal(t, SuggestCheckContent, outcome.Suggestion)
	require.Equal(t, HintRefresh, outcome.Hint)
	require.Equal(t, &ResolvedRange{Start: 3, End: 3}, outcome.Range)
	require.Equal(t, original, storage.Snapshot()[testFile])
}

func TestEngineDescendingOrderCorrectness(t *testing.T) {
	t.Parallel()

	engine, storage := newTestEngine(numberedLines(12))

	outcome := engine.ApplyFile(context.Background(), FileEditRequest{
		FilePath: testFile,
		Patches: []PatchSpec{
			{OldString: "line2\nline3\n", NewString: "merged\n", Ranges: []LineRange{Lines(2, 3)}},
			{OldString: "line10\n", NewString: "a\nb\nc\n", Ranges: []LineRange{Lines(10, 10)}},
		},
	})
	require.True(t, outcome.OK(), FormatOutcome(outcome))

	got := SplitLines(storage.Snapshot()[testFile])
	require.Len(t, got, 13)
	require.Equal(t, "merged\n", got[1])
	require.Equal(t, "line4\n", got[2])
	require.Equal(t, []string{"a\n", "b\n", "c\n"}, got[8:11])
	require.Equal(t, "line11\n", got[11])
	require.Equal(t, "line12\n", got[12])
}

func TestEngineWhitespaceTolerantPatch(t *testing.T) {
	t.Parallel()

	engine, storage := newTestEngine("   hello\n   world\n")

	outcome := engine.ApplyFile(context.Background(), FileEditRequest{
		FilePath: testFile,
		Patches: []PatchSpec{{
			OldString: " hello\n  \tworld",
			NewString: "   goodbye\n",
			Ranges:    []LineRange{Lines(1, 2)},
		}},
	})
	require.True(t, outcome.OK(), FormatOutcome(outcome))
	require.Equal(t, "   goodbye\n", storage.Snapshot()[testFile])

	engine, _ = newTestEngine("   hello\n\n   world\n")
	outcome = engine.ApplyFile(context.Background(), FileEditRequest{
		FilePath: testFile,
		Patches: []PatchSpec{{
			OldString: " hello\n  \tworld",
			NewString: "x\n",
			Ranges:    []LineRange{Lines(1, 3)},
		}},
	})
	require.Equal(t, KindConflict, outcome.Kind)
}

func TestEngineEndOfFileSentinel(t *testing.T) {
	t.Parallel()

	engine, storage := newTestEngine(numberedLines(20))
	tail := strings.TrimPrefix(numberedLines(20), numberedLines(14))

	plan, perr := engine.Plan(context.Background(), FileEditRequest{
		FilePath: testFile,
		Patches:  []PatchSpec{{OldString: tail, NewString: "tail\n", Ranges: []LineRange{ToEOF(15)}}},
	})
	require.Nil(t, perr)
	require.Equal(t, []Operation{{Range: ResolvedRange{Start: 15, End: 20}, Content: "tail\n"}}, plan.Operations)
	require.Zero(t, storage.Writes())

	outcome := engine.ApplyFile(context.Background(), FileEditRequest{
		FilePath: testFile,
		Patches:  []PatchSpec{{OldString: tail, NewString: "tail\n", Ranges: []LineRange{ToEOF(15)}}},
	})
	require.True(t, outcome.OK(), FormatOutcome(outcome))
	require.Equal(t, numberedLines(14)+"tail\n", storage.Snapshot()[testFile])
}

func TestEngineRepeatedSubstitution(t *testing.T) {
	t.Parallel()

	engine, storage := newTestEngine("x = 1\ny = 2\nx = 1\n")

	outcome := engine.ApplyFile(context.Background(), FileEditRequest{
		FilePath:          testFile,
		RequireExactMatch: true,
		Patches: []PatchSpec{{
			OldString: "x = 1\n",
			NewString: "x = 3\n",
			Ranges:    []LineRange{Lines(1, 1), Lines(3, 3)},
		}},
	})
	require.True(t, outcome.OK(), FormatOutcome(outcome))
	require.Equal(t, "x = 3\ny = 2\nx = 3\n", storage.Snapshot()[testFile])
}

func TestEngineInsertionAtEndOfFile(t *testing.T) {
	t.Parallel()

	engine, storage := newTestEngine("a\nb\n")

	outcome := engine.ApplyFile(context.Background(), FileEditRequest{
		FilePath: testFile,
		Patches:  []PatchSpec{{NewString: "c\n", Ranges: []LineRange{ToEOF(3)}}},
	})
	require.True(t, outcome.OK(), FormatOutcome(outcome))
	require.Equal(t, "a\nb\nc\n", storage.Snapshot()[testFile])
}

func TestEngineRejectsInvalidRequests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		req        FileEditRequest
		suggestion string
		reason     string
	}{
		{
			name:       "missing path",
			req:        FileEditRequest{Patches: []PatchSpec{{Ranges: []LineRange{Lines(1, 1)}}}},
			suggestion: SuggestFixRequest,
			reason:     "file_path is required",
		},
		{
			name:       "no patches",
			req:        FileEditRequest{FilePath: testFile},
			suggestion: SuggestFixRequest,
			reason:     "patches must be a non-empty list",
		},
		{
			name:       "zero start",
			req:        FileEditRequest{FilePath: testFile, Patches: []PatchSpec{{Ranges: []LineRange{Lines(0, 1)}}}},
			suggestion: SuggestFixRequest,
			reason:     "Invalid start line 0: line numbers are 1-based",
		},
		{
			name:       "end before start",
			req:        FileEditRequest{FilePath: testFile, Patches: []PatchSpec{{Ranges: []LineRange{Lines(3, 2)}}}},
			suggestion: SuggestFixRequest,
			reason:     "Invalid range 3-2: end line is before start line",
		},
		{
			name:       "start out of range",
			req:        FileEditRequest{FilePath: testFile, Patches: []PatchSpec{{OldString: "x", Ranges: []LineRange{Lines(9, 9)}}}},
			suggestion: SuggestFixRanges,
			reason:     "Invalid start line 9: out of range",
		},
		{
			name:       "end out of range",
			req:        FileEditRequest{FilePath: testFile, Patches: []PatchSpec{{OldString: "x", Ranges: []LineRange{Lines(2, 9)}}}},
			suggestion: SuggestFixRanges,
			reason:     "Invalid end line 9: out of range",
		},
		{
			name: "overlap",
			req: FileEditRequest{FilePath: testFile, Patches: []PatchSpec{
				{OldString: "a\nb\n", Ranges: []LineRange{Lines(1, 2)}},
				{OldString: "b\nc\n", Ranges: []LineRange{Lines(2, 3)}},
			}},
			suggestion: SuggestFixRanges,
			reason:     "overlapping ranges",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			engine, storage := newTestEngine("a\nb\nc\n")
			outcome := engine.ApplyFile(context.Background(), tc.req)
			require.Equal(t, KindInvalid, outcome.Kind)
			require.Equal(t, tc.suggestion, outcome.Suggestion)
			require.Equal(t, tc.reason, outcome.Reason)
			require.Equal(t, "a\nb\nc\n", storage.Snapshot()[testFile])
		})
	}
}

func TestEngineApplyProcessesFilesIndependently(t *testing.T) {
	t.Parallel()

	storage := NewMemoryStorage(map[string]string{
		"/work/a.txt": "a\n",
		"/work/b.txt": "b\n",
	})
	engine := NewEngine(storage)

	results := engine.Apply(context.Background(), []FileEditRequest{
		{FilePath: "/work/missing.txt", Patches: []PatchSpec{{OldString: "x\n", Ranges: []LineRange{Lines(1, 1)}}}},
		{FilePath: "/work/a.txt", Patches: []PatchSpec{{OldString: "a\n", NewString: "A\n", Ranges: []LineRange{Lines(1, 1)}}}},
		{FilePath: "/work/b.txt", Patches: []PatchSpec{{OldString: "nope\n", NewString: "B\n", Ranges: []LineRange{Lines(1, 1)}}}},
	})

	require.Len(t, results, 3)
	require.Equal(t, "/work/missing.txt", results[0].FilePath)
	require.Equal(t, KindIO, results[0].Outcome.Kind)
	require.Equal(t, SuggestCheckFile, results[0].Outcome.Suggestion)
	require.True(t, results[1].Outcome.OK())
	require.Equal(t, KindConflict, results[2].Outcome.Kind)

	snapshot := storage.Snapshot()
	require.Equal(t, "A\n", snapshot["/work/a.txt"])
	require.Equal(t, "b\n", snapshot["/work/b.txt"])
}

func TestEngineApplyHonoursCancellation(t *testing.T) {
	t.Parallel()

	engine, storage := newTestEngine("a\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := engine.Apply(ctx, []FileEditRequest{{
		FilePath: testFile,
		Patches:  []PatchSpec{{OldString: "a\n", NewString: "b\n", Ranges: []LineRange{Lines(1, 1)}}},
	}})

	require.Len(t, results, 1)
	require.Equal(t, KindIO, results[0].Outcome.Kind)
	require.Equal(t, "a\n", storage.Snapshot()[testFile])
}

func TestFormatOutcome(t *testing.T) {
	t.Parallel()

	err := invalid(SuggestFixRanges, "overlapping ranges", "Ranges within a single patch cannot overlap")
	err.Range = rangePtr(ResolvedRange{Start: 1, End: 2})
	err.OtherRange = rangePtr(ResolvedRange{Start: 2, End: 3})

	msg := FormatError(err)
	require.Equal(t, "overlapping ranges\nRanges: 1-2 and 2-3\nHint: Ranges within a single patch cannot overlap", msg)
	require.Equal(t, "ok", FormatOutcome(success("abc")))
	require.Equal(t, "Unknown error occurred.", FormatError(nil))
}
