package schema

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// ValidationError lists the schema violations of one tool call.
type ValidationError struct {
	Tool   string
	Issues []string
}

func (e ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return fmt.Sprintf("%s arguments failed schema validation", e.Tool)
	}
	return fmt.Sprintf("%s arguments failed schema validation: %s", e.Tool, strings.Join(e.Issues, "; "))
}

var loaders sync.Map // tool name -> gojsonschema.JSONLoader

func loaderFor(name string) (gojsonschema.JSONLoader, error) {
	if cached, ok := loaders.Load(name); ok {
		return cached.(gojsonschema.JSONLoader), nil
	}
	schemaMap, err := InputSchema(name)
	if err != nil {
		return nil, err
	}
	loader := gojsonschema.NewGoLoader(schemaMap)
	actual, _ := loaders.LoadOrStore(name, loader)
	return actual.(gojsonschema.JSONLoader), nil
}

// Validate checks args against the input schema of the named tool. Schema
// violations are reported as ValidationError.
func Validate(name string, args any) error {
	loader, err := loaderFor(name)
	if err != nil {
		return err
	}
	if args == nil {
		args = map[string]any{}
	}
	result, err := gojsonschema.Validate(loader, gojsonschema.NewGoLoader(args))
	if err != nil {
		return fmt.Errorf("schema: validate %s: %w", name, err)
	}
	if result.Valid() {
		return nil
	}
	issues := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		issues = append(issues, desc.String())
	}
	return ValidationError{Tool: name, Issues: issues}
}
