package patch

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies the outcome of an edit.
type Kind string

const (
	// KindOK marks a successful edit.
	KindOK Kind = "ok"
	// KindInvalid marks a malformed request; nothing was matched or written.
	KindInvalid Kind = "invalid"
	// KindConflict marks content that no longer matches the caller's view.
	KindConflict Kind = "conflict"
	// KindIO marks a read, decode, or write failure.
	KindIO Kind = "io_error"
)

// Stable suggestion codes returned alongside failures.
const (
	SuggestFixRequest   = "fix_request"
	SuggestFixRanges    = "fix_ranges"
	SuggestCheckContent = "check_content"
	SuggestRefreshHash  = "refresh_hash"
	SuggestCheckFile    = "check_file"
	SuggestUsePatch     = "use_patch"
)

// HintRefresh is the remediation attached to every content conflict.
const HintRefresh = "refresh content and retry"

var (
	// ErrNotFound is wrapped by storage implementations when a file is missing.
	ErrNotFound = errors.New("file not found")
	// ErrExists is returned when creating a file that is already present.
	ErrExists = errors.New("file already exists")
	// ErrDecode is wrapped when file bytes cannot be decoded with the requested encoding.
	ErrDecode = errors.New("failed to decode file")
	// ErrEncode is wrapped when content cannot be represented in the requested encoding.
	ErrEncode = errors.New("failed to encode content")
	// ErrUnknownEncoding is wrapped when an encoding name is not recognised.
	ErrUnknownEncoding = errors.New("unknown encoding")
)

// Error represents a structured failure while validating or applying an edit.
// It satisfies the error interface so it can be returned directly and inspected
// with errors.As.
type Error struct {
	Kind       Kind
	Message    string
	Suggestion string
	Hint       string
	Detail     string
	Range      *ResolvedRange
	OtherRange *ResolvedRange
	// FilePath names the file that failed in multi-file requests.
	FilePath string
	Err      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "patch error"
}

// Unwrap exposes the underlying storage error, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Outcome converts the error into its wire representation.
func (e *Error) Outcome() Outcome {
	if e == nil {
		return Outcome{Result: resultOK, Kind: KindOK}
	}
	return Outcome{
		Result:     resultError,
		Kind:       e.Kind,
		Reason:     e.Error(),
		Suggestion: e.Suggestion,
		Hint:       e.Hint,
		Detail:     e.Detail,
		Range:      e.Range,
		OtherRange: e.OtherRange,
	}
}

const (
	resultOK    = "ok"
	resultError = "error"
)

// Outcome is the per-file record returned to callers.
type Outcome struct {
	Result     string         `json:"result"`
	Kind       Kind           `json:"kind"`
	Reason     string         `json:"reason,omitempty"`
	Suggestion string         `json:"suggestion,omitempty"`
	Hint       string         `json:"hint,omitempty"`
	Detail     string         `json:"detail,omitempty"`
	Range      *ResolvedRange `json:"range,omitempty"`
	OtherRange *ResolvedRange `json:"other_range,omitempty"`
	Hash       string         `json:"hash,omitempty"`
}

// OK reports whether the edit succeeded.
func (o Outcome) OK() bool {
	return o.Result == resultOK
}

func success(hash string) Outcome {
	return Outcome{Result: resultOK, Kind: KindOK, Hash: hash}
}

func invalid(suggestion, message, hint string) *Error {
	return &Error{Kind: KindInvalid, Message: message, Suggestion: suggestion, Hint: hint}
}

func conflict(suggestion, message, hint string) *Error {
	return &Error{Kind: KindConflict, Message: message, Suggestion: suggestion, Hint: hint}
}

// storageError maps a storage failure onto the error taxonomy.
func storageError(err error, hint string) *Error {
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	e := &Error{Kind: KindIO, Message: err.Error(), Suggestion: SuggestCheckFile, Hint: hint, Err: err}
	switch {
	case errors.Is(err, ErrNotFound):
		e.Hint = "File must exist before it can be edited"
	case errors.Is(err, ErrDecode), errors.Is(err, ErrUnknownEncoding):
		e.Hint = "Check the encoding parameter"
	}
	return e
}

func rangePtr(r ResolvedRange) *ResolvedRange {
	return &r
}

// FormatError renders Error values into a human readable message suitable for
// surfacing to end users.
func FormatError(err *Error) string {
	if err == nil {
		return "Unknown error occurred."
	}
	return FormatOutcome(err.Outcome())
}

// FormatOutcome renders a failed outcome as text. Successful outcomes render as "ok".
func FormatOutcome(o Outcome) string {
	if o.OK() {
		return resultOK
	}
	message := o.Reason
	if message == "" {
		message = "Unknown error occurred."
	}
	parts := []string{message}
	switch {
	case o.Range != nil && o.OtherRange != nil:
		parts = append(parts, fmt.Sprintf("Ranges: %s and %s", o.Range, o.OtherRange))
	case o.Range != nil:
		parts = append(parts, fmt.Sprintf("Range: %s", o.Range))
	}
	if o.Detail != "" {
		parts = append(parts, o.Detail)
	}
	if o.Hint != "" {
		parts = append(parts, "Hint: "+o.Hint)
	}
	return strings.Join(parts, "\n")
}
