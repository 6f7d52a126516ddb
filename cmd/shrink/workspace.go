package main

import (
	"context"
	"fmt"
	"strings"

	"shrinker/internal/config"
	"shrinker/internal/diag"
	"shrinker/internal/graph"
	"shrinker/internal/lens"
	"shrinker/internal/model"
	"shrinker/internal/pipeline"
	"shrinker/internal/resolve"
	"shrinker/internal/trace"
	"shrinker/internal/types"
)

// workspace is a loaded program model plus the steps to apply to it.
type workspace struct {
	in    *types.Interner
	graph *graph.Graph
	steps []*lens.Step
	bag   *diag.Bag
}

// modelPath picks the model from the first argument or the config file.
func modelPath(args []string) (string, []string, error) {
	if len(args) > 0 && strings.HasSuffix(args[0], ".toml") {
		return args[0], args[1:], nil
	}
	if current != nil && current.Program.Model != "" {
		return current.Resolve(current.Program.Model), args, nil
	}
	return "", nil, fmt.Errorf("no program model: pass a .toml model or set [program].model in %s", config.FileName)
}

// loadWorkspace reads the model at path and, when withSteps is set, the
// step files named on the command line or in the config.
func loadWorkspace(path string, stepFiles []string, withSteps bool) (*workspace, error) {
	ws := &workspace{in: types.NewInterner(), bag: diag.NewBag(maxDiagnostics())}
	p, err := model.LoadProgram(ws.in, path)
	if err != nil {
		return nil, err
	}
	ws.graph = p.Build(diag.BagReporter{Bag: ws.bag})
	if !withSteps {
		return ws, nil
	}
	if len(stepFiles) == 0 && current != nil {
		for _, f := range current.Program.Steps {
			stepFiles = append(stepFiles, current.Resolve(f))
		}
	}
	for _, f := range stepFiles {
		steps, err := model.LoadSteps(ws.in, f)
		if err != nil {
			return nil, err
		}
		ws.steps = append(ws.steps, steps...)
	}
	return ws, nil
}

func (ws *workspace) snapshot(ctx context.Context) *pipeline.Snapshot {
	return pipeline.NewSnapshot(ws.graph, lens.Identity(), trace.FromContext(ctx))
}

func (ws *workspace) chain() *lens.Chain {
	c := lens.Identity()
	for _, s := range ws.steps {
		c = c.Append(s)
	}
	return c
}

// parseContext reads a --context value: a class descriptor or a method
// reference whose holder is used.
func parseContext(in *types.Interner, s string) (resolve.Context, error) {
	if s == "" {
		return resolve.Context{}, nil
	}
	if strings.Contains(s, "->") {
		m, err := in.ParseMethodRef(s)
		if err != nil {
			return resolve.Context{}, err
		}
		return resolve.From(m.Holder), nil
	}
	t, err := in.ParseType(s)
	if err != nil {
		return resolve.Context{}, err
	}
	return resolve.From(t), nil
}

// isFieldRef distinguishes "LA;->f:I" from "LA;->m()V".
func isFieldRef(s string) bool {
	_, member, ok := strings.Cut(s, "->")
	return ok && !strings.Contains(member, "(")
}

func maxDiagnostics() int {
	if current == nil {
		return 0
	}
	return current.MaxDiagnostics
}

func jobs() int {
	if current == nil {
		return 0
	}
	return current.Jobs
}
