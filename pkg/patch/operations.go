package patch

import (
	"context"
	"fmt"
	"strings"
)

// ReadFileRanges names the ranges to read from one file.
type ReadFileRanges struct {
	FilePath string      `json:"file_path"`
	Ranges   []LineRange `json:"ranges"`
}

// ReadRequest reads ranges from one or more files.
type ReadRequest struct {
	Files    []ReadFileRanges `json:"files"`
	Encoding string           `json:"encoding,omitempty"`
}

// RangeContent is the content of one requested range.
type RangeContent struct {
	Content     string `json:"content"`
	Start       int    `json:"start"`
	End         int    `json:"end"`
	TotalLines  int    `json:"total_lines"`
	ContentSize int    `json:"content_size"`
	RangeHash   string `json:"range_hash"`
}

// ReadResult carries the ranges read from one file and its fingerprint.
type ReadResult struct {
	FilePath string         `json:"file_path"`
	FileHash string         `json:"file_hash"`
	Ranges   []RangeContent `json:"ranges"`
}

// Read returns the requested ranges. Ends past the last line are clamped and a
// start past the last line yields an empty range. The first failing file stops
// the read and is named in Error.FilePath.
func (e *Engine) Read(ctx context.Context, req ReadRequest) ([]ReadResult, *Error) {
	if len(req.Files) == 0 {
		return nil, invalid(SuggestFixRequest, "files must be a non-empty list", "Provide at least one file with ranges")
	}
	enc := e.encodingFor(req.Encoding)
	results := make([]ReadResult, 0, len(req.Files))
	for _, file := range req.Files {
		if strings.TrimSpace(file.FilePath) == "" {
			return nil, invalid(SuggestFixRequest, "file_path is required", "Provide the absolute path of the file to read")
		}
		doc, err := e.storage.Read(ctx, file.FilePath, enc)
		if err != nil {
			perr := storageError(err, "")
			perr.FilePath = file.FilePath
			return nil, perr
		}
		ranges := file.Ranges
		if len(ranges) == 0 {
			ranges = []LineRange{ToEOF(1)}
		}
		result := ReadResult{FilePath: file.FilePath, FileHash: doc.Hash()}
		for _, rng := range ranges {
			content, perr := readRange(doc.Lines, rng, enc)
			if perr != nil {
				perr.FilePath = file.FilePath
				return nil, perr
			}
			result.Ranges = append(result.Ranges, content)
		}
		results = append(results, result)
	}
	return results, nil
}

func readRange(lines []string, rng LineRange, enc string) (RangeContent, *Error) {
	if rng.End != nil && *rng.End < rng.Start {
		return RangeContent{}, invalid(SuggestFixRequest,
			"End line must be greater than or equal to start line",
			fmt.Sprintf("Requested range %s", rng))
	}
	total := len(lines)
	start := rng.Start
	if start < 1 {
		start = 1
	}
	if start > total {
		return RangeContent{Start: start, End: start, TotalLines: total, RangeHash: FingerprintString("")}, nil
	}
	end := total
	if rng.End != nil && *rng.End < total {
		end = *rng.End
	}
	content := JoinLines(lines[start-1 : end])
	size := len(content)
	if encoded, err := Encode(content, enc); err == nil {
		size = len(encoded)
	}
	return RangeContent{
		Content:     content,
		Start:       start,
		End:         end,
		TotalLines:  total,
		ContentSize: size,
		RangeHash:   FingerprintString(content),
	}, nil
}

// CreateRequest creates a new file.
type CreateRequest struct {
	FilePath string `json:"file_path"`
	Content  string `json:"contents"`
	Encoding string `json:"encoding,omitempty"`
}

// Create writes a file that must not already exist.
func (e *Engine) Create(ctx context.Context, req CreateRequest) Outcome {
	if strings.TrimSpace(req.FilePath) == "" {
		return invalid(SuggestFixRequest, "file_path is required", "Provide the absolute path of the file to create").Outcome()
	}
	exists, err := e.storage.Exists(ctx, req.FilePath)
	if err != nil {
		return storageError(err, "").Outcome()
	}
	if exists {
		perr := invalid(SuggestUsePatch, "File already exists", "Use patch_text_file_contents to edit an existing file")
		perr.Err = ErrExists
		return perr.Outcome()
	}
	if err := e.storage.WriteAtomic(ctx, req.FilePath, e.encodingFor(req.Encoding), req.Content); err != nil {
		return storageError(err, "Check the parent directory and permissions").Outcome()
	}
	return success(FingerprintString(req.Content))
}

// AppendRequest appends content to the end of an existing file. FileHash,
// ExpectedFileEnding, or both must be supplied.
type AppendRequest struct {
	FilePath           string  `json:"file_path"`
	Content            string  `json:"contents"`
	FileHash           string  `json:"file_hash,omitempty"`
	ExpectedFileEnding *string `json:"expected_file_ending,omitempty"`
	Encoding           string  `json:"encoding,omitempty"`
	RequireExactMatch  bool    `json:"require_exact_match,omitempty"`
}

// Append adds content after the final line.
func (e *Engine) Append(ctx context.Context, req AppendRequest) Outcome {
	if strings.TrimSpace(req.FilePath) == "" {
		return invalid(SuggestFixRequest, "file_path is required", "Provide the absolute path of the file to append to").Outcome()
	}
	if req.FileHash == "" && req.ExpectedFileEnding == nil {
		return invalid(SuggestFixRequest, "file_hash or expected_file_ending is required",
			"Read the file first and pass its hash or its final line").Outcome()
	}
	enc := e.encodingFor(req.Encoding)
	doc, err := e.storage.Read(ctx, req.FilePath, enc)
	if err != nil {
		return storageError(err, "File must exist before appending content").Outcome()
	}
	if perr := checkFingerprint(req.FileHash, doc.Hash(), "File hash"); perr != nil {
		return perr.Outcome()
	}
	if req.ExpectedFileEnding != nil && len(doc.Lines) > 0 {
		last := doc.Lines[len(doc.Lines)-1]
		expected := *req.ExpectedFileEnding
		if !hasTerminator(expected) {
			expected += terminator(last)
		}
		if !ContentMatches(expected, []string{last}, req.RequireExactMatch) {
			perr := conflict(SuggestCheckContent, "Final line does not match expected content", HintRefresh)
			perr.Range = rangePtr(ResolvedRange{Start: len(doc.Lines), End: len(doc.Lines)})
			perr.Detail = matchModeHint(req.RequireExactMatch)
			return perr.Outcome()
		}
	}
	if req.Content == "" {
		return success(doc.Hash())
	}

	content := terminated(req.Content, doc.Lines)
	eof := ResolvedRange{Start: len(doc.Lines) + 1, End: len(doc.Lines)}
	ops := []Operation{{Range: eof, Content: content}}
	return e.commit(ctx, Plan{
		FilePath:     req.FilePath,
		Encoding:     enc,
		Original:     doc.Lines,
		Updated:      ApplyOperations(doc.Lines, ops),
		Operations:   ops,
		OriginalHash: doc.Hash(),
	})
}

// Insertion positions.
const (
	PositionBefore = "before"
	PositionAfter  = "after"
)

// Insertion inserts Content before or after the reference line LineNumber.
// ContextLine and RangeHash, when set, must describe that reference line.
type Insertion struct {
	LineNumber  int     `json:"line_number"`
	Position    string  `json:"position"`
	ContextLine *string `json:"context_line,omitempty"`
	RangeHash   string  `json:"range_hash,omitempty"`
	Content     string  `json:"content_to_insert"`
}

// InsertRequest inserts content at one or more reference lines.
type InsertRequest struct {
	FilePath          string      `json:"file_path"`
	FileHash          string      `json:"file_hash,omitempty"`
	Encoding          string      `json:"encoding,omitempty"`
	RequireExactMatch bool        `json:"require_exact_match,omitempty"`
	Insertions        []Insertion `json:"insertions"`
}

// Insert applies every insertion or none of them.
func (e *Engine) Insert(ctx context.Context, req InsertRequest) Outcome {
	if strings.TrimSpace(req.FilePath) == "" {
		return invalid(SuggestFixRequest, "file_path is required", "Provide the absolute path of the file to insert into").Outcome()
	}
	if len(req.Insertions) == 0 {
		return invalid(SuggestFixRequest, "insertions must be a non-empty list", "Provide at least one insertion").Outcome()
	}
	for i, ins := range req.Insertions {
		if ins.Position != PositionBefore && ins.Position != PositionAfter {
			perr := invalid(SuggestFixRequest,
				fmt.Sprintf("Invalid position %q", ins.Position), "Position must be 'before' or 'after'")
			perr.Detail = fmt.Sprintf("insertion %d", i+1)
			return perr.Outcome()
		}
		if req.FileHash == "" && ins.ContextLine == nil && ins.RangeHash == "" {
			perr := invalid(SuggestFixRequest, "insertion has no guard",
				"Pass file_hash, or context_line or range_hash for every insertion")
			perr.Detail = fmt.Sprintf("insertion %d", i+1)
			return perr.Outcome()
		}
	}

	enc := e.encodingFor(req.Encoding)
	doc, err := e.storage.Read(ctx, req.FilePath, enc)
	if err != nil {
		return storageError(err, "File must exist before inserting content").Outcome()
	}
	if perr := checkFingerprint(req.FileHash, doc.Hash(), "File hash"); perr != nil {
		return perr.Outcome()
	}

	total := len(doc.Lines)
	points := make([]IndexedRange, 0, len(req.Insertions))
	ops := make([]Operation, 0, len(req.Insertions))
	for i, ins := range req.Insertions {
		if ins.LineNumber < 1 || ins.LineNumber > total {
			perr := invalid(SuggestFixRanges,
				fmt.Sprintf("Line number %d is out of range", ins.LineNumber),
				fmt.Sprintf("File has %d lines", total))
			perr.Detail = fmt.Sprintf("insertion %d", i+1)
			return perr.Outcome()
		}
		reference := doc.Lines[ins.LineNumber-1]
		target := ResolvedRange{Start: ins.LineNumber, End: ins.LineNumber}
		if ins.ContextLine != nil {
			expected := *ins.ContextLine
			if !hasTerminator(expected) {
				expected += terminator(reference)
			}
			if !ContentMatches(expected, []string{reference}, req.RequireExactMatch) {
				perr := conflict(SuggestCheckContent, "Content at reference line does not match context_line", HintRefresh)
				perr.Range = rangePtr(target)
				perr.Detail = matchModeHint(req.RequireExactMatch)
				return perr.Outcome()
			}
		}
		if perr := checkFingerprint(ins.RangeHash, FingerprintString(reference), "Range hash"); perr != nil {
			perr.Range = rangePtr(target)
			return perr.Outcome()
		}

		point := ResolvedRange{Start: ins.LineNumber, End: ins.LineNumber - 1}
		if ins.Position == PositionAfter {
			point = ResolvedRange{Start: ins.LineNumber + 1, End: ins.LineNumber}
		}
		points = append(points, IndexedRange{Patch: i, Range: point})
		ops = append(ops, Operation{Range: point, Content: terminated(ins.Content, doc.Lines)})
	}
	if perr := ValidateRanges(points); perr != nil {
		perr.Hint = "Two insertions cannot target the same position"
		perr.Detail = insertionOverlapDetail(points, perr)
		return perr.Outcome()
	}

	return e.commit(ctx, Plan{
		FilePath:     req.FilePath,
		Encoding:     enc,
		Original:     doc.Lines,
		Updated:      ApplyOperations(doc.Lines, ops),
		Operations:   ops,
		OriginalHash: doc.Hash(),
	})
}

// Deletion removes ExpectedContent from every listed range.
type Deletion struct {
	ExpectedContent string      `json:"expected_content"`
	Ranges          []LineRange `json:"ranges"`
}

// DeleteRequest deletes one or more ranges from a file.
type DeleteRequest struct {
	FilePath          string     `json:"file_path"`
	FileHash          string     `json:"file_hash,omitempty"`
	Encoding          string     `json:"encoding,omitempty"`
	RequireExactMatch bool       `json:"require_exact_match,omitempty"`
	Deletions         []Deletion `json:"deletions"`
}

// Delete removes every deletion range or none of them. It is a patch whose
// replacement is empty.
func (e *Engine) Delete(ctx context.Context, req DeleteRequest) Outcome {
	edit := FileEditRequest{
		FilePath:          req.FilePath,
		Encoding:          req.Encoding,
		RequireExactMatch: req.RequireExactMatch,
	}
	for _, d := range req.Deletions {
		edit.Patches = append(edit.Patches, PatchSpec{OldString: d.ExpectedContent, Ranges: d.Ranges})
	}
	if perr := edit.Validate(); perr != nil {
		return perr.Outcome()
	}

	enc := e.encodingFor(req.Encoding)
	doc, err := e.storage.Read(ctx, req.FilePath, enc)
	if err != nil {
		return storageError(err, "File must exist before deleting content").Outcome()
	}
	if perr := checkFingerprint(req.FileHash, doc.Hash(), "File hash"); perr != nil {
		return perr.Outcome()
	}
	plan, perr := planDocument(edit, enc, doc)
	if perr != nil {
		return perr.Outcome()
	}
	return e.commit(ctx, plan)
}

// checkFingerprint compares a caller supplied fingerprint with the current one.
// An empty expectation is not checked.
func checkFingerprint(expected, actual, what string) *Error {
	if expected == "" || expected == actual {
		return nil
	}
	perr := conflict(SuggestRefreshHash, what+" mismatch - Please use get_text_file_contents tool to get current content and hash", HintRefresh)
	perr.Detail = fmt.Sprintf("expected %s, found %s", shortHash(expected), shortHash(actual))
	return perr
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// terminated ends content with the file's line terminator when it has none.
func terminated(content string, lines []string) string {
	if content == "" || hasTerminator(content) {
		return content
	}
	return content + defaultTerminator(lines)
}

// insertionOverlapDetail names the clashing insertions by their position in the
// request.
func insertionOverlapDetail(points []IndexedRange, perr *Error) string {
	var clashing []int
	for _, p := range points {
		if (perr.Range != nil && p.Range == *perr.Range) || (perr.OtherRange != nil && p.Range == *perr.OtherRange) {
			clashing = append(clashing, p.Patch+1)
		}
	}
	if len(clashing) < 2 {
		return "insertions target the same position"
	}
	return fmt.Sprintf("insertion %d and insertion %d target %s", clashing[0], clashing[1], perr.Range)
}
