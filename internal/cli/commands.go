package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/asynkron/textedit/internal/config"
	"github.com/asynkron/textedit/internal/logging"
	"github.com/asynkron/textedit/internal/server"
	"github.com/asynkron/textedit/internal/tools"
	"github.com/asynkron/textedit/internal/tui"
	"github.com/asynkron/textedit/pkg/patch"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the editing tools over MCP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv := server.New(a.registry, a.logger, Version)
			err := srv.Serve(cmd.Context(), a.cfg, a.stdin, a.stdout)
			snap := a.metrics.Snapshot()
			a.logger.Info(cmd.Context(), "server stopped",
				logging.Field("tools_called", len(snap.Tools)),
				logging.Field("outcomes", snap.Outcomes))
			return err
		},
	}
	cmd.Flags().String("transport", config.TransportStdio, "transport to serve (stdio or sse)")
	cmd.Flags().String("addr", config.DefaultAddr, "listen address for the sse transport")
	cmd.Flags().String("base-url", "", "public base URL advertised by the sse transport")
	return cmd
}

func newCallCommand(a *app) *cobra.Command {
	var (
		name        string
		payloadFile string
		asJSON      bool
	)
	cmd := &cobra.Command{
		Use:   "call",
		Short: "Run one tool in-process with arguments from a JSON or YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			args, err := readPayload(payloadFile, a.stdin)
			if err != nil {
				return &exitError{code: 2, err: err}
			}
			result, err := a.registry.Call(cmd.Context(), name, args)
			if err != nil {
				return err
			}
			if err := writeResult(a.stdout, result, asJSON); err != nil {
				return err
			}
			if result.Failed() {
				return &exitError{code: 1}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "tool to call")
	cmd.Flags().StringVar(&payloadFile, "payload-file", "", "file holding the tool arguments (.json, .yaml or - for stdin)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw JSON result")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("payload-file")
	return cmd
}

func newToolsCommand(a *app) *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools available in the configured mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			md := toolsMarkdown(a.registry)
			if plain {
				_, err := io.WriteString(a.stdout, md)
				return err
			}
			_, err := io.WriteString(a.stdout, tui.RenderMarkdown(md, 80))
			return err
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print markdown without terminal styling")
	return cmd
}

func newReviewCommand(a *app) *cobra.Command {
	var (
		payloadFile string
		dryRun      bool
	)
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Preview a patch payload and apply it after confirmation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			args, err := readPayload(payloadFile, a.stdin)
			if err != nil {
				return &exitError{code: 2, err: err}
			}
			requests, err := tools.DecodePatchRequests(args)
			if err != nil {
				return &exitError{code: 2, err: err}
			}
			entries := prepareReview(cmd, a, requests)

			if dryRun {
				_, err := io.WriteString(a.stdout, tui.RenderEntries(entries))
				return err
			}

			decision, results, err := tui.Review(cmd.Context(), a.registry.Engine(), entries, tui.Options{
				Input:     a.stdin,
				Output:    a.stdout,
				AltScreen: true,
			})
			if err != nil {
				return err
			}
			a.logger.Info(cmd.Context(), "review finished",
				logging.Field("decision", decision.String()),
				logging.Field("files", len(entries)))
			if decision != tui.DecisionApplied {
				fmt.Fprintln(a.stdout, "aborted, no files were changed")
				return nil
			}
			fmt.Fprint(a.stdout, tui.RenderResults(results))
			for _, r := range results {
				if !r.Outcome.OK() {
					return &exitError{code: 1}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&payloadFile, "payload-file", "", "patch_text_file_contents arguments (.json, .yaml or - for stdin)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the planned edits and exit without prompting")
	_ = cmd.MarkFlagRequired("payload-file")
	return cmd
}

// prepareReview plans every request, rejecting bad paths the same way the
// patch tool does.
func prepareReview(cmd *cobra.Command, a *app, requests []patch.FileEditRequest) []tui.Entry {
	entries := make([]tui.Entry, len(requests))
	var accepted []patch.FileEditRequest
	var positions []int
	for i, req := range requests {
		if err := tools.ValidatePath(req.FilePath); err != nil {
			entries[i] = tui.Entry{Request: req, Outcome: tools.PathOutcome(err)}
			continue
		}
		accepted = append(accepted, req)
		positions = append(positions, i)
	}
	for i, e := range tui.Prepare(cmd.Context(), a.registry.Engine(), accepted) {
		entries[positions[i]] = e
	}
	return entries
}

// readPayload loads tool arguments from path. Files ending in .json are
// decoded as JSON; anything else, including stdin, as YAML, which also
// accepts JSON documents.
func readPayload(path string, stdin io.Reader) (map[string]any, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}

	args := map[string]any{}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, &args); err != nil {
			return nil, fmt.Errorf("failed to parse JSON payload: %w", err)
		}
		return args, nil
	}
	if err := yaml.Unmarshal(data, &args); err != nil {
		return nil, fmt.Errorf("failed to parse YAML payload: %w", err)
	}
	return args, nil
}

func writeResult(w io.Writer, result tools.Result, asJSON bool) error {
	if results, ok := result.Payload.([]patch.FileResult); ok && !asJSON {
		_, err := io.WriteString(w, tui.RenderResults(results))
		return err
	}
	body, err := result.JSON()
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	_, err = fmt.Fprintln(w, string(body))
	return err
}

func toolsMarkdown(registry *tools.Registry) string {
	var b strings.Builder
	b.WriteString("# textedit tools\n\n")
	if mode := registry.Mode(); mode != "" {
		fmt.Fprintf(&b, "Mode: `%s`\n\n", mode)
	}
	for _, def := range registry.Definitions() {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", def.Name, def.Description)
	}
	return b.String()
}
