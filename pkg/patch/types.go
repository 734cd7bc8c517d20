package patch

import (
	"fmt"
	"strings"
)

// LineRange is an inclusive, 1-based line interval. A nil End extends the
// range to the last line of the file.
type LineRange struct {
	Start int  `json:"start"`
	End   *int `json:"end"`
}

// Lines builds a LineRange with a concrete end line.
func Lines(start, end int) LineRange {
	return LineRange{Start: start, End: &end}
}

// ToEOF builds a LineRange that runs from start to the end of the file.
func ToEOF(start int) LineRange {
	return LineRange{Start: start}
}

// String renders the range the way it appears in error messages.
func (r LineRange) String() string {
	if r.End == nil {
		return fmt.Sprintf("%d-EOF", r.Start)
	}
	return fmt.Sprintf("%d-%d", r.Start, *r.End)
}

// Resolve replaces the end-of-file sentinel with totalLines.
func (r LineRange) Resolve(totalLines int) ResolvedRange {
	end := totalLines
	if r.End != nil {
		end = *r.End
	}
	return ResolvedRange{Start: r.Start, End: end}
}

// ResolvedRange is a LineRange with concrete bounds. End == Start-1 marks an
// empty insertion point in front of line Start.
type ResolvedRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Empty reports whether the range covers no lines.
func (r ResolvedRange) Empty() bool {
	return r.End < r.Start
}

// Len returns the number of lines covered by the range.
func (r ResolvedRange) Len() int {
	if r.Empty() {
		return 0
	}
	return r.End - r.Start + 1
}

func (r ResolvedRange) String() string {
	if r.Empty() {
		return fmt.Sprintf("insertion point before line %d", r.Start)
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// PatchSpec replaces OldString with NewString in every listed range. Each range
// is an independent occurrence of the same substitution.
type PatchSpec struct {
	OldString string      `json:"old_string"`
	NewString string      `json:"new_string"`
	Ranges    []LineRange `json:"ranges"`
}

// FileEditRequest groups every patch aimed at one file.
type FileEditRequest struct {
	FilePath          string      `json:"file_path"`
	Encoding          string      `json:"encoding,omitempty"`
	RequireExactMatch bool        `json:"require_exact_match,omitempty"`
	Patches           []PatchSpec `json:"patches"`
}

// Validate checks the request shape. It does not touch storage.
func (r FileEditRequest) Validate() *Error {
	if strings.TrimSpace(r.FilePath) == "" {
		return invalid(SuggestFixRequest, "file_path is required", "Provide the absolute path of the file to patch")
	}
	if len(r.Patches) == 0 {
		return invalid(SuggestFixRequest, "patches must be a non-empty list", "Provide at least one patch")
	}
	for i, p := range r.Patches {
		if len(p.Ranges) == 0 {
			return invalid(SuggestFixRequest,
				fmt.Sprintf("patch %d has no ranges", i+1),
				"Every patch needs at least one line range")
		}
		for j, rng := range p.Ranges {
			if err := validateRangeShape(rng); err != nil {
				err.Detail = fmt.Sprintf("patch %d, range %d", i+1, j+1)
				return err
			}
		}
	}
	return nil
}

func validateRangeShape(r LineRange) *Error {
	if r.Start < 1 {
		return invalid(SuggestFixRequest,
			fmt.Sprintf("Invalid start line %d: line numbers are 1-based", r.Start),
			"Line numbers must be positive")
	}
	if r.End != nil && *r.End < r.Start {
		return invalid(SuggestFixRequest,
			fmt.Sprintf("Invalid range %s: end line is before start line", r),
			"End line must be greater than or equal to start line")
	}
	return nil
}

// FileResult pairs a file path with the outcome of editing it.
type FileResult struct {
	FilePath string  `json:"file_path"`
	Outcome  Outcome `json:"result"`
}
