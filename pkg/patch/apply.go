package patch

import "sort"

// Operation replaces the lines of Range with Content. An empty range inserts
// Content in front of Range.Start without removing anything.
type Operation struct {
	Range   ResolvedRange
	Content string
}

// ApplyOperations rewrites lines with every operation and returns the new line
// sequence. The operations must not overlap. They are applied in descending
// start-line order so each target is still addressed by its original line
// numbers when it is spliced. On equal starts a replacement goes before an
// insertion point, so the inserted lines land in front of the replacement.
// The input slice is left unchanged.
func ApplyOperations(lines []string, ops []Operation) []string {
	ordered := append([]Operation(nil), ops...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i].Range, ordered[j].Range
		if a.Start != b.Start {
			return a.Start > b.Start
		}
		return a.End > b.End
	})

	result := append([]string(nil), lines...)
	for _, op := range ordered {
		index := op.Range.Start - 1
		replacement := replacementLines(result, op)
		if len(replacement) > 0 && op.Range.Empty() && index == len(result) && index > 0 && !hasTerminator(result[index-1]) {
			// Appending after an unterminated final line: end that line first.
			result[index-1] += defaultTerminator(result)
		}
		result = splice(result, index, op.Range.Len(), replacement)
	}
	return result
}

// replacementLines splits op.Content into lines. Content that does not end in a
// terminator inherits the ending of the last replaced line so the following
// line is never joined onto it.
func replacementLines(lines []string, op Operation) []string {
	if op.Content == "" {
		return nil
	}
	replacement := SplitLines(op.Content)
	last := len(replacement) - 1
	if hasTerminator(replacement[last]) {
		return replacement
	}

	var ending string
	switch {
	case !op.Range.Empty():
		ending = terminator(lines[op.Range.End-1])
	case op.Range.Start-1 < len(lines):
		ending = defaultTerminator(lines)
	case len(lines) > 0:
		// Insertion at end of file keeps whatever the old last line ended with.
		ending = terminator(lines[len(lines)-1])
	}
	replacement[last] += ending
	return replacement
}

func splice(target []string, index, deleteCount int, replacement []string) []string {
	if deleteCount == 0 && len(replacement) == 0 {
		return target
	}
	result := make([]string, 0, len(target)-deleteCount+len(replacement))
	result = append(result, target[:index]...)
	result = append(result, replacement...)
	result = append(result, target[index+deleteCount:]...)
	return result
}
