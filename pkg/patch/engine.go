package patch

import (
	"context"
	"fmt"
)

// Engine validates and applies multi-range edits against a Storage. It holds no
// per-request state and may be shared between goroutines.
type Engine struct {
	storage         Storage
	defaultEncoding string
}

// EngineOption customises an Engine.
type EngineOption func(*Engine)

// WithDefaultEncoding sets the encoding used when a request does not name one.
func WithDefaultEncoding(name string) EngineOption {
	return func(e *Engine) {
		if name != "" {
			e.defaultEncoding = name
		}
	}
}

// NewEngine builds an Engine on top of storage.
func NewEngine(storage Storage, opts ...EngineOption) *Engine {
	e := &Engine{storage: storage, defaultEncoding: DefaultEncoding}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Storage exposes the backing storage.
func (e *Engine) Storage() Storage {
	return e.storage
}

func (e *Engine) encodingFor(name string) string {
	if name == "" {
		return e.defaultEncoding
	}
	return name
}

// Plan is the result of validating a FileEditRequest without writing it.
type Plan struct {
	FilePath     string
	Encoding     string
	Original     []string
	Updated      []string
	Operations   []Operation
	OriginalHash string
}

// Content joins the updated lines.
func (p Plan) Content() string {
	return JoinLines(p.Updated)
}

// Changed reports whether applying the plan alters the file.
func (p Plan) Changed() bool {
	return JoinLines(p.Original) != JoinLines(p.Updated)
}

// Apply processes every request independently and returns one result per
// request, in request order. A failure in one file never prevents the others
// from being applied.
func (e *Engine) Apply(ctx context.Context, requests []FileEditRequest) []FileResult {
	results := make([]FileResult, 0, len(requests))
	for _, req := range requests {
		if err := ctx.Err(); err != nil {
			results = append(results, FileResult{
				FilePath: req.FilePath,
				Outcome:  storageError(err, "Request was cancelled before this file was edited").Outcome(),
			})
			continue
		}
		results = append(results, FileResult{FilePath: req.FilePath, Outcome: e.ApplyFile(ctx, req)})
	}
	return results
}

// ApplyFile applies every patch of req or none of them.
func (e *Engine) ApplyFile(ctx context.Context, req FileEditRequest) Outcome {
	plan, perr := e.Plan(ctx, req)
	if perr != nil {
		return perr.Outcome()
	}
	return e.commit(ctx, plan)
}

// commit writes a plan that changes the file and reports the new fingerprint.
func (e *Engine) commit(ctx context.Context, plan Plan) Outcome {
	if !plan.Changed() {
		return success(plan.OriginalHash)
	}
	content := plan.Content()
	if err := e.storage.WriteAtomic(ctx, plan.FilePath, plan.Encoding, content); err != nil {
		return storageError(err, "Check file permissions and encoding").Outcome()
	}
	return success(FingerprintString(content))
}

// Plan reads the file and runs every check of ApplyFile, returning the edit it
// would perform.
func (e *Engine) Plan(ctx context.Context, req FileEditRequest) (Plan, *Error) {
	if err := req.Validate(); err != nil {
		return Plan{}, err
	}
	enc := e.encodingFor(req.Encoding)
	doc, err := e.storage.Read(ctx, req.FilePath, enc)
	if err != nil {
		return Plan{}, storageError(err, "")
	}
	return planDocument(req, enc, doc)
}

// planDocument runs bounds, overlap and content checks of req against doc.
func planDocument(req FileEditRequest, enc string, doc Document) (Plan, *Error) {
	ranges, perr := resolvePatchRanges(req.Patches, len(doc.Lines))
	if perr != nil {
		return Plan{}, perr
	}
	if perr := ValidateRanges(ranges); perr != nil {
		return Plan{}, perr
	}

	ops := make([]Operation, 0, len(ranges))
	for _, ir := range ranges {
		p := req.Patches[ir.Patch]
		if !ContentMatches(p.OldString, slice(doc.Lines, ir.Range), req.RequireExactMatch) {
			err := conflict(SuggestCheckContent, "content mismatch", HintRefresh)
			err.Range = rangePtr(ir.Range)
			err.Detail = fmt.Sprintf("patch %d range %d does not match old_string (%s)",
				ir.Patch+1, ir.Index+1, matchModeHint(req.RequireExactMatch))
			return Plan{}, err
		}
		if p.OldString == p.NewString {
			continue
		}
		ops = append(ops, Operation{Range: ir.Range, Content: p.NewString})
	}

	return Plan{
		FilePath:     req.FilePath,
		Encoding:     enc,
		Original:     doc.Lines,
		Updated:      ApplyOperations(doc.Lines, ops),
		Operations:   ops,
		OriginalHash: doc.Hash(),
	}, nil
}

// resolvePatchRanges flattens the ranges of every patch in (patch, range)
// order, resolving end-of-file sentinels and checking bounds against total.
func resolvePatchRanges(patches []PatchSpec, total int) ([]IndexedRange, *Error) {
	var out []IndexedRange
	for i, p := range patches {
		for j, rng := range p.Ranges {
			resolved, err := resolveRange(rng, total)
			if err != nil {
				err.Detail = fmt.Sprintf("patch %d, range %d", i+1, j+1)
				return nil, err
			}
			out = append(out, IndexedRange{Patch: i, Index: j, Range: resolved})
		}
	}
	return out, nil
}

// resolveRange resolves rng against a file of total lines. An end-of-file range
// starting one past the last line resolves to an empty insertion point.
func resolveRange(rng LineRange, total int) (ResolvedRange, *Error) {
	if err := validateRangeShape(rng); err != nil {
		return ResolvedRange{}, err
	}
	if rng.Start > total && !(rng.End == nil && rng.Start == total+1) {
		err := invalid(SuggestFixRanges,
			fmt.Sprintf("Invalid start line %d: out of range", rng.Start),
			fmt.Sprintf("File has %d lines", total))
		return ResolvedRange{}, err
	}
	if rng.End != nil && *rng.End > total {
		err := invalid(SuggestFixRanges,
			fmt.Sprintf("Invalid end line %d: out of range", *rng.End),
			fmt.Sprintf("File has %d lines", total))
		return ResolvedRange{}, err
	}
	return rng.Resolve(total), nil
}

// slice returns the lines covered by r. r must already be bounds checked.
func slice(lines []string, r ResolvedRange) []string {
	if r.Empty() {
		return nil
	}
	return lines[r.Start-1 : r.End]
}
