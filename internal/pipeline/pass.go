package pipeline

import (
	"context"

	"shrinker/internal/graph"
	"shrinker/internal/lens"
)

// Pass is one whole-program transformation.
type Pass interface {
	Name() string
	// Run computes the pass's changes against s. It must not modify s.
	Run(ctx context.Context, s *Snapshot) (Result, error)
}

// Result is what a pass hands to the coordinator. A nil or empty Step
// means the pass changed nothing. Graph, when set, is the pass's own
// rewrite of the program; otherwise the coordinator derives it from the
// step.
type Result struct {
	Step  *lens.Step
	Graph *graph.Graph
}

// StepPass applies a step computed from the snapshot by Build.
type StepPass struct {
	PassName string
	Build    func(s *Snapshot) *lens.Step
}

func (p StepPass) Name() string { return p.PassName }

func (p StepPass) Run(_ context.Context, s *Snapshot) (Result, error) {
	return Result{Step: p.Build(s)}, nil
}
