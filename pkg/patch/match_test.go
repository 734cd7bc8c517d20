package patch

import "testing"

func TestContentMatchesWhitespaceTolerance(t *testing.T) {
	t.Parallel()

	expected := " hello\n  \tworld"
	actual := []string{"   hello\n", "   world\n"}
	if !ContentMatches(expected, actual, false) {
		t.Fatalf("expected tolerant match")
	}
	if ContentMatches(expected, actual, true) {
		t.Fatalf("exact mode must not ignore indentation")
	}

	withBlank := []string{"   hello\n", "\n", "   world\n"}
	if ContentMatches(expected, withBlank, false) {
		t.Fatalf("extra blank line must not match in tolerant mode")
	}
	if ContentMatches(expected, withBlank, true) {
		t.Fatalf("extra blank line must not match in exact mode")
	}
}

func TestContentMatchesExactIncludesTerminator(t *testing.T) {
	t.Parallel()

	if !ContentMatches("a\nb\n", []string{"a\n", "b\n"}, true) {
		t.Fatalf("identical content should match")
	}
	if ContentMatches("a\nb", []string{"a\n", "b\n"}, true) {
		t.Fatalf("missing terminator should not match exactly")
	}
	if !ContentMatches("a\nb", []string{"a\n", "b\n"}, false) {
		t.Fatalf("missing terminator should match tolerantly")
	}
	if ContentMatches("a b\n", []string{"a  b\n"}, false) {
		t.Fatalf("inner whitespace must still match")
	}
}

func TestContentMatchesEmpty(t *testing.T) {
	t.Parallel()

	if !ContentMatches("", nil, true) {
		t.Fatalf("empty expectation should match an empty slice")
	}
	if ContentMatches("", []string{"x\n"}, false) {
		t.Fatalf("empty expectation should not match content")
	}
}
