// Package schema holds the tool definitions advertised to MCP clients and
// validates tool arguments against their JSON schemas.
package schema

import (
	"encoding/json"
	"fmt"
)

// Tool names.
const (
	ToolGetContents = "get_text_file_contents"
	ToolCreate      = "create_text_file"
	ToolAppend      = "append_text_file_contents"
	ToolDelete      = "delete_text_file_contents"
	ToolInsert      = "insert_text_file_contents"
	ToolPatch       = "patch_text_file_contents"
)

// Definition describes one tool.
type Definition struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

const rangeSchema = `{
  "type": "object",
  "properties": {
    "start": {"type": "integer", "minimum": 1, "description": "Starting line number (1-based)"},
    "end": {"type": ["integer", "null"], "minimum": 1, "description": "Ending line number (null for end of file)"}
  },
  "required": ["start"]
}`

const encodingProperty = `"encoding": {
  "type": "string",
  "description": "Text encoding (default: 'utf-8')",
  "default": "utf-8"
}`

const exactMatchProperty = `"require_exact_match": {
  "type": "boolean",
  "description": "Whether to require exact whitespace matching. Default is false, which ignores leading and trailing whitespace on each line. If true, the number and type of whitespace on each line must match the file exactly.",
  "default": false
}`

const filePathProperty = `"file_path": {
  "type": "string",
  "minLength": 1,
  "description": "Path to the text file. File path must be absolute."
}`

const fileHashProperty = `"file_hash": {
  "type": "string",
  "description": "Hash of the whole file as returned by get_text_file_contents"
}`

var definitions = []Definition{
	{
		Name:        ToolGetContents,
		Description: "Read text file contents from multiple files and line ranges. Returns file contents with hashes for concurrency control and line numbers for reference. The hashes are used to detect conflicts when modifying the files. File paths must be absolute.",
		InputSchema: json.RawMessage(`{
  "type": "object",
  "properties": {
    "files": {
      "type": "array",
      "minItems": 1,
      "description": "List of files and their line ranges to read",
      "items": {
        "type": "object",
        "properties": {
          ` + filePathProperty + `,
          "ranges": {"type": "array", "description": "List of line ranges to read from the file", "items": ` + rangeSchema + `}
        },
        "required": ["file_path", "ranges"]
      }
    },
    ` + encodingProperty + `
  },
  "required": ["files"]
}`),
	},
	{
		Name:        ToolCreate,
		Description: "Create a new text file with given content. The file must not exist already. File paths must be absolute.",
		InputSchema: json.RawMessage(`{
  "type": "object",
  "properties": {
    ` + filePathProperty + `,
    "contents": {"type": "string", "description": "Content to write to the file"},
    ` + encodingProperty + `
  },
  "required": ["file_path", "contents"]
}`),
	},
	{
		Name:        ToolAppend,
		Description: "Append content to an existing text file. Pass file_hash, expected_file_ending, or both so the change is only applied to the content you last read. File paths must be absolute.",
		InputSchema: json.RawMessage(`{
  "type": "object",
  "properties": {
    ` + filePathProperty + `,
    "contents": {"type": "string", "description": "Content to append to the file"},
    ` + fileHashProperty + `,
    "expected_file_ending": {"type": "string", "description": "Expected content of the final line of the file"},
    ` + encodingProperty + `,
    ` + exactMatchProperty + `
  },
  "required": ["file_path", "contents"]
}`),
	},
	{
		Name:        ToolDelete,
		Description: "Delete content from a text file. Each deletion names the expected content and the line ranges that hold it. File paths must be absolute.",
		InputSchema: json.RawMessage(`{
  "type": "object",
  "properties": {
    ` + filePathProperty + `,
    ` + fileHashProperty + `,
    "deletions": {
      "type": "array",
      "minItems": 1,
      "description": "List of deletion operations",
      "items": {
        "type": "object",
        "properties": {
          "expected_content": {"type": "string", "description": "Expected content to be deleted"},
          "ranges": {"type": "array", "minItems": 1, "description": "Line ranges where this content should be deleted", "items": ` + rangeSchema + `}
        },
        "required": ["expected_content", "ranges"]
      }
    },
    ` + encodingProperty + `,
    ` + exactMatchProperty + `
  },
  "required": ["file_path", "deletions"]
}`),
	},
	{
		Name:        ToolInsert,
		Description: "Insert content before or after a specific line in a text file with context validation. Supports batch insertions. File paths must be absolute.",
		InputSchema: json.RawMessage(`{
  "type": "object",
  "properties": {
    ` + filePathProperty + `,
    ` + fileHashProperty + `,
    "insertions": {
      "type": "array",
      "minItems": 1,
      "description": "List of insertion operations",
      "items": {
        "type": "object",
        "properties": {
          "content_to_insert": {"type": "string", "description": "Content to insert"},
          "position": {"type": "string", "enum": ["before", "after"], "description": "Position relative to reference line"},
          "context_line": {"type": "string", "description": "Expected content of the reference line"},
          "range_hash": {"type": "string", "description": "Hash of the reference line as returned by get_text_file_contents"},
          "line_number": {"type": "integer", "minimum": 1, "description": "Line number of the reference line"}
        },
        "required": ["content_to_insert", "position", "line_number"]
      }
    },
    ` + encodingProperty + `,
    ` + exactMatchProperty + `
  },
  "required": ["file_path", "insertions"]
}`),
	},
	{
		Name:        ToolPatch,
		Description: "Apply patches to text files with string-based validation. Use old_string to specify exact content to replace and new_string for replacement. Supports multi-range patches: every range of a patch must hold old_string and is replaced with new_string. File paths must be absolute.",
		InputSchema: json.RawMessage(`{
  "type": "object",
  "properties": {
    "files": {
      "type": "array",
      "minItems": 1,
      "description": "List of file operations",
      "items": {
        "type": "object",
        "properties": {
          ` + filePathProperty + `,
          ` + encodingProperty + `,
          ` + exactMatchProperty + `,
          "patches": {
            "type": "array",
            "minItems": 1,
            "description": "Patches to apply",
            "items": {
              "type": "object",
              "properties": {
                "old_string": {"type": "string", "description": "Expected content to be replaced"},
                "new_string": {"type": "string", "description": "New content to replace with"},
                "ranges": {"type": "array", "minItems": 1, "description": "Line ranges where this patch applies", "items": ` + rangeSchema + `}
              },
              "required": ["old_string", "new_string", "ranges"]
            }
          }
        },
        "required": ["file_path", "patches"]
      }
    }
  },
  "required": ["files"]
}`),
	},
}

// Definitions returns every tool definition in advertisement order.
func Definitions() []Definition {
	return append([]Definition(nil), definitions...)
}

// Lookup finds the definition for name.
func Lookup(name string) (Definition, bool) {
	for _, def := range definitions {
		if def.Name == name {
			return def, true
		}
	}
	return Definition{}, false
}

// InputSchema decodes the input schema of the named tool into a generic map.
func InputSchema(name string) (map[string]any, error) {
	def, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("schema: unknown tool %q", name)
	}
	var out map[string]any
	if err := json.Unmarshal(def.InputSchema, &out); err != nil {
		return nil, fmt.Errorf("schema: decode %s: %w", name, err)
	}
	return out, nil
}
