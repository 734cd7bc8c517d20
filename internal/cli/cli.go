// Package cli implements the textedit command line: the MCP server, one-shot
// tool calls, the tool listing and the interactive patch review.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/asynkron/textedit/internal/config"
	"github.com/asynkron/textedit/internal/logging"
	"github.com/asynkron/textedit/internal/metrics"
	"github.com/asynkron/textedit/internal/tools"
	"github.com/asynkron/textedit/pkg/patch"
)

// Version is set during build.
var Version = "dev"

// exitError carries a specific exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// app is the state shared by every subcommand once setup has run.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	cfg      *config.Config
	logger   logging.Logger
	metrics  *metrics.InMemoryMetrics
	registry *tools.Registry
	closers  []io.Closer
}

// Run executes the textedit command line and returns a POSIX-style exit code:
// 0 on success, 1 when the command or a file edit failed, 2 on usage errors.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if stdin == nil {
		stdin = os.Stdin
	}
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	defer a.close()

	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintln(stderr, "error:", ee.err)
		}
		return ee.code
	}
	fmt.Fprintln(stderr, "error:", err)
	return 1
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "textedit",
		Short: "Line-range text editing tools served over MCP",
		Long: `textedit edits text files by line range. Every edit names the lines it
replaces together with their expected content, so stale edits are refused
instead of corrupting the file.

Examples:
  textedit serve
  textedit serve --mode claude-code --transport sse --addr :8080
  textedit call --name get_text_file_contents --payload-file read.yaml
  textedit review --payload-file patch.json`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		_ = cmd.Usage()
		return &exitError{code: 2, err: err}
	})

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default: ~/.textedit/config.yaml)")
	flags.String("mode", config.ModeDefault, "server mode: empty for every tool, or claude-code for the patch tool only")
	flags.String("log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	flags.String("log-format", config.DefaultLogFormat, "log format (text or json)")
	flags.String("log-file", "", "append logs to this file instead of stderr")
	flags.String("default-encoding", config.DefaultEncoding, "encoding used when a request does not name one")

	root.AddCommand(
		newServeCommand(a),
		newCallCommand(a),
		newToolsCommand(a),
		newReviewCommand(a),
	)
	return root
}

// setup loads configuration and wires the engine behind the registry.
func (a *app) setup(cmd *cobra.Command) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(config.Options{ConfigFile: configFile, Flags: cmd.Flags()})
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	a.cfg = cfg

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	logWriter := a.stderr
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		a.closers = append(a.closers, f)
		logWriter = f
	}
	a.logger = logging.NewLogrusLogger(logging.Options{
		Level:  level,
		Format: logging.Format(cfg.LogFormat),
		Writer: logWriter,
	})

	storage, err := patch.NewFilesystemStorage(patch.FilesystemOptions{})
	if err != nil {
		return err
	}
	engine := patch.NewEngine(storage, patch.WithDefaultEncoding(cfg.DefaultEncoding))
	a.metrics = metrics.NewInMemoryMetrics()
	a.registry = tools.NewRegistry(engine,
		tools.WithLogger(a.logger),
		tools.WithMetrics(a.metrics),
		tools.WithMode(cfg.Mode),
	)
	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
}
