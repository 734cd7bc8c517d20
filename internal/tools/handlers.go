package tools

import (
	"context"

	"github.com/asynkron/textedit/internal/schema"
	"github.com/asynkron/textedit/pkg/patch"
)

// PathOutcome turns a rejected path into an invalid file outcome.
func PathOutcome(err error) patch.Outcome {
	return (&patch.Error{
		Kind:       patch.KindInvalid,
		Message:    err.Error(),
		Suggestion: patch.SuggestFixRequest,
		Hint:       "Use an absolute path without '..' segments",
		Err:        err,
	}).Outcome()
}

func single(tool, path string, outcome patch.Outcome) Result {
	return Result{
		Tool:     tool,
		Payload:  []patch.FileResult{{FilePath: path, Outcome: outcome}},
		Outcomes: []patch.Outcome{outcome},
	}
}

func (r *Registry) getContents(ctx context.Context, args map[string]any) (Result, error) {
	var req patch.ReadRequest
	if err := decode(schema.ToolGetContents, args, &req); err != nil {
		return Result{}, err
	}
	for _, file := range req.Files {
		if err := ValidatePath(file.FilePath); err != nil {
			return single(schema.ToolGetContents, file.FilePath, PathOutcome(err)), nil
		}
	}
	results, perr := r.engine.Read(ctx, req)
	if perr != nil {
		return single(schema.ToolGetContents, perr.FilePath, perr.Outcome()), nil
	}
	outcomes := make([]patch.Outcome, len(results))
	for i, res := range results {
		outcomes[i] = patch.Outcome{Result: "ok", Kind: patch.KindOK, Hash: res.FileHash}
	}
	return Result{Tool: schema.ToolGetContents, Payload: results, Outcomes: outcomes}, nil
}

func (r *Registry) create(ctx context.Context, args map[string]any) (Result, error) {
	var req patch.CreateRequest
	if err := decode(schema.ToolCreate, args, &req); err != nil {
		return Result{}, err
	}
	if err := ValidatePath(req.FilePath); err != nil {
		return single(schema.ToolCreate, req.FilePath, PathOutcome(err)), nil
	}
	return single(schema.ToolCreate, req.FilePath, r.engine.Create(ctx, req)), nil
}

func (r *Registry) appendContents(ctx context.Context, args map[string]any) (Result, error) {
	var req patch.AppendRequest
	if err := decode(schema.ToolAppend, args, &req); err != nil {
		return Result{}, err
	}
	if err := ValidatePath(req.FilePath); err != nil {
		return single(schema.ToolAppend, req.FilePath, PathOutcome(err)), nil
	}
	return single(schema.ToolAppend, req.FilePath, r.engine.Append(ctx, req)), nil
}

func (r *Registry) deleteContents(ctx context.Context, args map[string]any) (Result, error) {
	var req patch.DeleteRequest
	if err := decode(schema.ToolDelete, args, &req); err != nil {
		return Result{}, err
	}
	if err := ValidatePath(req.FilePath); err != nil {
		return single(schema.ToolDelete, req.FilePath, PathOutcome(err)), nil
	}
	return single(schema.ToolDelete, req.FilePath, r.engine.Delete(ctx, req)), nil
}

func (r *Registry) insertContents(ctx context.Context, args map[string]any) (Result, error) {
	var req patch.InsertRequest
	if err := decode(schema.ToolInsert, args, &req); err != nil {
		return Result{}, err
	}
	if err := ValidatePath(req.FilePath); err != nil {
		return single(schema.ToolInsert, req.FilePath, PathOutcome(err)), nil
	}
	return single(schema.ToolInsert, req.FilePath, r.engine.Insert(ctx, req)), nil
}

type patchArgs struct {
	Files []patch.FileEditRequest `json:"files"`
}

// DecodePatchRequests decodes patch_text_file_contents arguments.
func DecodePatchRequests(args map[string]any) ([]patch.FileEditRequest, error) {
	if err := schema.Validate(schema.ToolPatch, args); err != nil {
		return nil, err
	}
	var req patchArgs
	if err := decode(schema.ToolPatch, args, &req); err != nil {
		return nil, err
	}
	return req.Files, nil
}

// patchContents applies every file independently. Files with rejected paths
// get an invalid outcome and never reach the engine.
func (r *Registry) patchContents(ctx context.Context, args map[string]any) (Result, error) {
	var req patchArgs
	if err := decode(schema.ToolPatch, args, &req); err != nil {
		return Result{}, err
	}

	results := make([]patch.FileResult, len(req.Files))
	var accepted []patch.FileEditRequest
	var positions []int
	for i, file := range req.Files {
		if err := ValidatePath(file.FilePath); err != nil {
			results[i] = patch.FileResult{FilePath: file.FilePath, Outcome: PathOutcome(err)}
			continue
		}
		accepted = append(accepted, file)
		positions = append(positions, i)
	}
	for i, res := range r.engine.Apply(ctx, accepted) {
		results[positions[i]] = res
	}

	outcomes := make([]patch.Outcome, len(results))
	for i, res := range results {
		outcomes[i] = res.Outcome
	}
	return Result{Tool: schema.ToolPatch, Payload: results, Outcomes: outcomes}, nil
}
