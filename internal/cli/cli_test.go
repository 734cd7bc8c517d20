package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/asynkron/textedit/pkg/patch"
)

type cliEnv struct {
	dir    string
	config string
}

func newCLIEnv(t *testing.T, configYAML string) cliEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(configYAML), 0o644))
	return cliEnv{dir: dir, config: cfg}
}

func (e cliEnv) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (e cliEnv) run(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	full := append([]string{"--config", e.config}, args...)
	code := Run(context.Background(), full, strings.NewReader(""), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestCallReadsFileAsJSON(t *testing.T) {
	t.Parallel()

	env := newCLIEnv(t, "log_level: error\n")
	target := env.write(t, "notes.txt", "a\nb\nc\n")
	payload := env.write(t, "read.yaml", "files:\n  - file_path: "+target+"\n    ranges:\n      - start: 2\n        end: 3\n")

	code, stdout, stderr := env.run("call", "--name", "get_text_file_contents", "--payload-file", payload, "--json")
	require.Equal(t, 0, code, stderr)

	var results []patch.ReadResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	require.Len(t, results, 1)
	require.Equal(t, patch.FingerprintString("a\nb\nc\n"), results[0].FileHash)
	require.Equal(t, "b\nc\n", results[0].Ranges[0].Content)
}

func TestCallPatchWritesFile(t *testing.T) {
	t.Parallel()

	env := newCLIEnv(t, "log_level: error\n")
	target := env.write(t, "app.conf", "host=a\nport=1\n")
	payload := env.write(t, "patch.json", `{"files":[{"file_path":"`+target+`","patches":[{"old_string":"port=1\n","new_string":"port=2\n","ranges":[{"start":2,"end":2}]}]}]}`)

	code, stdout, stderr := env.run("call", "--name", "patch_text_file_contents", "--payload-file", payload)
	require.Equal(t, 0, code, stderr)
	require.Contains(t, stdout, target)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "host=a\nport=2\n", string(data))
}

func TestCallFailedOutcomeExitsOne(t *testing.T) {
	t.Parallel()

	env := newCLIEnv(t, "log_level: error\n")
	target := env.write(t, "app.conf", "host=a\n")
	payload := env.write(t, "patch.json", `{"files":[{"file_path":"`+target+`","patches":[{"old_string":"host=b\n","new_string":"host=c\n","ranges":[{"start":1,"end":1}]}]}]}`)

	code, stdout, _ := env.run("call", "--name", "patch_text_file_contents", "--payload-file", payload, "--json")
	require.Equal(t, 1, code)
	require.Contains(t, stdout, `"kind": "conflict"`)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "host=a\n", string(data))
}

func TestCallHiddenToolInClaudeCodeMode(t *testing.T) {
	t.Parallel()

	env := newCLIEnv(t, "mode: claude-code\nlog_level: error\n")
	payload := env.write(t, "read.json", `{"files":[]}`)

	code, _, stderr := env.run("call", "--name", "get_text_file_contents", "--payload-file", payload)
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "unknown tool")
}

func TestToolsListsModeTools(t *testing.T) {
	t.Parallel()

	env := newCLIEnv(t, "log_level: error\n")
	code, stdout, stderr := env.run("--mode", "claude-code", "tools", "--plain")
	require.Equal(t, 0, code, stderr)
	require.Contains(t, stdout, "## patch_text_file_contents")
	require.NotContains(t, stdout, "create_text_file")
	require.Contains(t, stdout, "Mode: `claude-code`")
}

func TestReviewDryRunDoesNotWrite(t *testing.T) {
	t.Parallel()

	env := newCLIEnv(t, "log_level: error\n")
	target := env.write(t, "list.txt", "one\ntwo\n")
	payload := env.write(t, "patch.yaml", `files:
  - file_path: `+target+`
    patches:
      - old_string: "two\n"
        new_string: "TWO\n"
        ranges:
          - start: 2
            end: 2
  - file_path: relative.txt
    patches:
      - old_string: "x"
        new_string: "y"
        ranges:
          - start: 1
`)

	code, stdout, stderr := env.run("review", "--payload-file", payload, "--dry-run")
	require.Equal(t, 0, code, stderr)
	require.Contains(t, stdout, "-two")
	require.Contains(t, stdout, "+TWO")
	require.Contains(t, stdout, "relative.txt")
	require.Contains(t, stdout, "[invalid]")

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "one\ntwo\n", string(data))
}

func TestUsageErrorsExitTwo(t *testing.T) {
	t.Parallel()

	env := newCLIEnv(t, "log_level: error\n")
	code, _, _ := env.run("tools", "--no-such-flag")
	require.Equal(t, 2, code)

	bad := newCLIEnv(t, "mode: vim\n")
	code, _, stderr := bad.run("tools")
	require.Equal(t, 2, code)
	require.Contains(t, stderr, "unknown mode")
}

func TestReadPayloadFromStdin(t *testing.T) {
	t.Parallel()

	args, err := readPayload("-", strings.NewReader(`{"name": "x", "files": [{"file_path": "/a"}]}`))
	require.NoError(t, err)
	require.Equal(t, "x", args["name"])
	require.Len(t, args["files"], 1)
}
