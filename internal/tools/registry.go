// Package tools exposes the patch engine as named tools with validated
// arguments. The MCP server and the CLI both dispatch through a Registry.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/asynkron/textedit/internal/config"
	"github.com/asynkron/textedit/internal/logging"
	"github.com/asynkron/textedit/internal/metrics"
	"github.com/asynkron/textedit/internal/schema"
	"github.com/asynkron/textedit/pkg/patch"
)

// ErrUnknownTool is returned for tools that are not registered or hidden by
// the active mode.
var ErrUnknownTool = errors.New("unknown tool")

// Result is the payload of a successful dispatch. Individual file outcomes may
// still be failures.
type Result struct {
	Tool     string
	Payload  any
	Outcomes []patch.Outcome
}

// JSON renders the payload the way it is returned to clients.
func (r Result) JSON() ([]byte, error) {
	return json.MarshalIndent(r.Payload, "", "  ")
}

// Failed reports whether any file outcome is not ok.
func (r Result) Failed() bool {
	for _, o := range r.Outcomes {
		if !o.OK() {
			return true
		}
	}
	return false
}

type handlerFunc func(ctx context.Context, args map[string]any) (Result, error)

// Registry dispatches tool calls to the engine.
type Registry struct {
	engine   *patch.Engine
	logger   logging.Logger
	metrics  metrics.Metrics
	mode     string
	handlers map[string]handlerFunc
}

// Option customises a Registry.
type Option func(*Registry)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger logging.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m metrics.Metrics) Option {
	return func(r *Registry) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithMode restricts the advertised tools. config.ModeClaudeCode exposes only
// the patch tool.
func WithMode(mode string) Option {
	return func(r *Registry) {
		r.mode = mode
	}
}

// NewRegistry registers every tool against engine.
func NewRegistry(engine *patch.Engine, opts ...Option) *Registry {
	r := &Registry{
		engine:  engine,
		logger:  &logging.NoOpLogger{},
		metrics: &metrics.NoOpMetrics{},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.handlers = map[string]handlerFunc{
		schema.ToolGetContents: r.getContents,
		schema.ToolCreate:      r.create,
		schema.ToolAppend:      r.appendContents,
		schema.ToolDelete:      r.deleteContents,
		schema.ToolInsert:      r.insertContents,
		schema.ToolPatch:       r.patchContents,
	}
	return r
}

// Mode returns the active mode.
func (r *Registry) Mode() string {
	return r.mode
}

// Engine exposes the engine behind the registry.
func (r *Registry) Engine() *patch.Engine {
	return r.engine
}

// Definitions lists the tools available in the active mode.
func (r *Registry) Definitions() []schema.Definition {
	var out []schema.Definition
	for _, def := range schema.Definitions() {
		if r.available(def.Name) {
			out = append(out, def)
		}
	}
	return out
}

func (r *Registry) available(name string) bool {
	if _, ok := r.handlers[name]; !ok {
		return false
	}
	if r.mode == config.ModeClaudeCode {
		return name == schema.ToolPatch
	}
	return true
}

// Call validates args against the tool schema and runs the tool. Errors are
// reserved for problems with the call itself; file level failures are
// reported in the Result.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) (Result, error) {
	ctx, traceID := logging.EnsureTraceID(ctx)
	logger := r.logger.WithFields(logging.Field("tool", name), logging.Field("trace_id", traceID))
	start := time.Now()

	result, err := r.dispatch(ctx, name, args)
	elapsed := time.Since(start)
	r.metrics.RecordToolCall(name, elapsed, err == nil && !result.Failed())

	if err != nil {
		logger.Warn(ctx, "tool call rejected", logging.Field("error", err.Error()), logging.Field("duration_ms", elapsed.Milliseconds()))
		return Result{}, err
	}

	kinds := make([]string, 0, len(result.Outcomes))
	for _, o := range result.Outcomes {
		kinds = append(kinds, string(o.Kind))
		r.metrics.RecordOutcome(name, string(o.Kind))
	}
	logger.Info(ctx, "tool call finished",
		logging.Field("files", len(result.Outcomes)),
		logging.Field("kinds", kinds),
		logging.Field("duration_ms", elapsed.Milliseconds()))
	return result, nil
}

func (r *Registry) dispatch(ctx context.Context, name string, args map[string]any) (Result, error) {
	if !r.available(name) {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if err := schema.Validate(name, args); err != nil {
		return Result{}, err
	}
	return r.handlers[name](ctx, args)
}
