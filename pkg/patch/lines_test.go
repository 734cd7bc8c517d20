package patch

import (
	"reflect"
	"testing"
)

func TestSplitLinesKeepsTerminators(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "empty", input: "", want: []string{}},
		{name: "single unterminated", input: "a", want: []string{"a"}},
		{name: "lf", input: "a\nb\n", want: []string{"a\n", "b\n"}},
		{name: "crlf", input: "a\r\nb", want: []string{"a\r\n", "b"}},
		{name: "lone cr", input: "a\rb\r", want: []string{"a\r", "b\r"}},
		{name: "blank lines", input: "\n\n", want: []string{"\n", "\n"}},
		{name: "form feed is content", input: "a\fb\n\v\n", want: []string{"a\fb\n", "\v\n"}},
		{name: "unicode separators are content", input: "a\u2028b\u0085c\n", want: []string{"a\u2028b\u0085c\n"}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := SplitLines(tc.input)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("SplitLines(%q) = %#v, want %#v", tc.input, got, tc.want)
			}
			if joined := JoinLines(got); joined != tc.input {
				t.Fatalf("JoinLines round trip = %q, want %q", joined, tc.input)
			}
		})
	}
}

func TestDefaultTerminatorPrefersFileStyle(t *testing.T) {
	t.Parallel()

	if got := defaultTerminator([]string{"a\r\n", "b\n"}); got != "\r\n" {
		t.Fatalf("expected CRLF, got %q", got)
	}
	if got := defaultTerminator([]string{"a"}); got != "\n" {
		t.Fatalf("expected LF fallback, got %q", got)
	}
}
