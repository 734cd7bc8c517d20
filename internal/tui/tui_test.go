package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/asynkron/textedit/pkg/patch"
)

func intPtr(v int) *int { return &v }

func reviewFixture(t *testing.T) (*patch.Engine, *patch.MemoryStorage, []Entry) {
	t.Helper()
	storage := patch.NewMemoryStorage(map[string]string{
		"/work/a.txt": "one\ntwo\nthree\n",
		"/work/b.txt": "alpha\n",
	})
	engine := patch.NewEngine(storage)
	requests := []patch.FileEditRequest{
		{
			FilePath: "/work/a.txt",
			Patches: []patch.PatchSpec{{
				OldString: "two\n",
				NewString: "TWO\n",
				Ranges:    []patch.LineRange{{Start: 2, End: intPtr(2)}},
			}},
		},
		{
			FilePath: "/work/b.txt",
			Patches: []patch.PatchSpec{{
				OldString: "beta\n",
				NewString: "gamma\n",
				Ranges:    []patch.LineRange{{Start: 1, End: intPtr(1)}},
			}},
		},
	}
	return engine, storage, Prepare(context.Background(), engine, requests)
}

func TestPrepareSeparatesReadyAndFailed(t *testing.T) {
	t.Parallel()

	_, storage, entries := reviewFixture(t)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if !entries[0].Ready() {
		t.Fatalf("expected first entry to be ready, got %+v", entries[0].Outcome)
	}
	if entries[1].Ready() || entries[1].Outcome.Kind != patch.KindConflict {
		t.Fatalf("expected conflict for second entry, got %+v", entries[1].Outcome)
	}
	if storage.Writes() != 0 {
		t.Fatalf("prepare must not write, got %d writes", storage.Writes())
	}
}

func TestRenderPlanShowsRemovedAndAddedLines(t *testing.T) {
	t.Parallel()

	_, _, entries := reviewFixture(t)
	out := RenderPlan(*entries[0].Plan)
	for _, want := range []string{"/work/a.txt", "@@ 2-2 @@", "-two", "+TWO"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in rendered plan:\n%s", want, out)
		}
	}
	if strings.Contains(out, "-one") {
		t.Fatalf("untouched lines must not be rendered:\n%s", out)
	}
}

func TestRenderEntriesIncludesFailureReason(t *testing.T) {
	t.Parallel()

	_, _, entries := reviewFixture(t)
	out := RenderEntries(entries)
	if !strings.Contains(out, "content mismatch") {
		t.Fatalf("expected mismatch reason in output:\n%s", out)
	}
}

func TestModelAbortLeavesFilesUntouched(t *testing.T) {
	t.Parallel()

	engine, storage, entries := reviewFixture(t)
	m := newModel(context.Background(), engine, entries)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if m.decision != DecisionAborted {
		t.Fatalf("expected aborted, got %s", m.decision)
	}
	if storage.Writes() != 0 {
		t.Fatalf("abort must not write")
	}
}

func TestModelApplyWritesReadyEntries(t *testing.T) {
	t.Parallel()

	engine, storage, entries := reviewFixture(t)
	m := newModel(context.Background(), engine, entries)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	if !m.applying {
		t.Fatalf("expected model to be applying")
	}
	if !strings.Contains(m.View(), "applying") {
		t.Fatalf("expected spinner footer, got %q", m.View())
	}

	m.Update(m.applyCmd()())
	if m.decision != DecisionApplied {
		t.Fatalf("expected applied, got %s", m.decision)
	}
	if len(m.results) != 2 || !m.results[0].Outcome.OK() || m.results[1].Outcome.OK() {
		t.Fatalf("unexpected results: %+v", m.results)
	}
	if got := storage.Snapshot()["/work/a.txt"]; got != "one\nTWO\nthree\n" {
		t.Fatalf("unexpected content %q", got)
	}
	got := RenderResults(m.results)
	if !strings.Contains(got, "/work/a.txt") || !strings.Contains(got, "content mismatch") {
		t.Fatalf("unexpected results rendering %q", got)
	}
}

func TestRenderMarkdownFallsBackToText(t *testing.T) {
	t.Parallel()

	out := RenderMarkdown("# Tools\n\n- patch\n", 40)
	if !strings.Contains(out, "Tools") || !strings.Contains(out, "patch") {
		t.Fatalf("expected rendered markdown to keep text, got %q", out)
	}
}
