package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ArgumentError reports arguments that passed the schema but could not be
// decoded into request types.
type ArgumentError struct {
	Tool string
	Err  error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: invalid arguments: %v", e.Tool, e.Err)
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}

// decode converts loosely typed tool arguments into out by round tripping
// through JSON, so field names follow the json tags of the request types.
func decode(tool string, args map[string]any, out any) error {
	if args == nil {
		args = map[string]any{}
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return &ArgumentError{Tool: tool, Err: err}
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(out); err != nil {
		return &ArgumentError{Tool: tool, Err: err}
	}
	return nil
}
