package patch

import "fmt"

// IndexedRange is a resolved range tagged with its position in the request.
type IndexedRange struct {
	Patch int
	Index int
	Range ResolvedRange
}

func (r IndexedRange) label() string {
	return fmt.Sprintf("patch %d range %d (lines %s)", r.Patch+1, r.Index+1, r.Range)
}

// Overlaps reports whether two resolved ranges share a line. Two empty
// insertion points overlap when they sit at the same position.
func Overlaps(a, b ResolvedRange) bool {
	if a.Empty() && b.Empty() {
		return a.Start == b.Start
	}
	return a.Start <= b.End && b.Start <= a.End
}

// ValidateRanges proves that no two ranges intersect. Ranges must be supplied in
// ascending (Patch, Index) order. Pairs inside one patch are checked before
// pairs across patches, and the first overlapping pair is reported.
func ValidateRanges(ranges []IndexedRange) *Error {
	start := 0
	for start < len(ranges) {
		end := start
		for end < len(ranges) && ranges[end].Patch == ranges[start].Patch {
			end++
		}
		if err := firstOverlap(ranges[start:end], "Ranges within a single patch cannot overlap"); err != nil {
			return err
		}
		start = end
	}
	return firstOverlap(ranges, "Ranges across different patches cannot overlap")
}

func firstOverlap(ranges []IndexedRange, hint string) *Error {
	for i := 0; i < len(ranges); i++ {
		for j := i + 1; j < len(ranges); j++ {
			if !Overlaps(ranges[i].Range, ranges[j].Range) {
				continue
			}
			err := invalid(SuggestFixRanges, "overlapping ranges", hint)
			err.Range = rangePtr(ranges[i].Range)
			err.OtherRange = rangePtr(ranges[j].Range)
			err.Detail = fmt.Sprintf("%s overlaps %s", ranges[i].label(), ranges[j].label())
			return err
		}
	}
	return nil
}
