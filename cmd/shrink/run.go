package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"shrinker/internal/diag"
	"shrinker/internal/graph"
	"shrinker/internal/lens"
	"shrinker/internal/pipeline"
	"shrinker/internal/trace"
)

var runUI string

func init() {
	runCmd.Flags().StringVar(&runUI, "ui", "auto", "progress UI (auto|on|off)")
}

var runCmd = &cobra.Command{
	Use:   "run [model.toml] [steps.toml...]",
	Short: "Analyze a program model and apply lens steps to it",
	Long: `run collects whole-program facts, applies every step in order and
reports the facts as seen after the last step`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := readUIMode(runUI)
		if err != nil {
			return err
		}
		path, rest, err := modelPath(args)
		if err != nil {
			return err
		}
		ws, err := loadWorkspace(path, rest, true)
		if err != nil {
			return err
		}

		var analysis *pipeline.Analysis
		analyze := analyzePass{jobs: jobs(), reporter: diag.NewDedupReporter(diag.BagReporter{Bag: ws.bag}), out: &analysis}
		passes := []pipeline.Pass{analyze}
		for _, s := range ws.steps {
			passes = append(passes, stepPass(s))
		}

		var coord *pipeline.Coordinator
		run := func(sink pipeline.ProgressSink) error {
			coord = newCoordinator(cmd, ws, sink)
			return coord.Run(cmd.Context(), passes...)
		}
		if shouldUseTUI(mode) {
			err = runWithUI("shrink "+path, run)
		} else {
			err = run(nil)
		}
		out := cmd.OutOrStdout()
		if err != nil {
			printDiagnostics(cmd.ErrOrStderr(), ws.bag)
			return err
		}

		final := coord.Current()
		if current == nil || !current.Quiet {
			printFacts(out, ws, final, analysis)
		}
		if current != nil && current.Timings {
			fmt.Fprint(out, coord.Timer().Summary())
		}
		printDiagnostics(cmd.ErrOrStderr(), ws.bag)
		return nil
	},
}

// applySteps runs the workspace steps without analysis and returns the
// final graph.
func applySteps(cmd *cobra.Command, ws *workspace) (*graph.Graph, error) {
	coord := newCoordinator(cmd, ws, nil)
	passes := make([]pipeline.Pass, 0, len(ws.steps))
	for _, s := range ws.steps {
		passes = append(passes, stepPass(s))
	}
	if err := coord.Run(cmd.Context(), passes...); err != nil {
		return nil, err
	}
	return coord.Current().Graph, nil
}

func newCoordinator(cmd *cobra.Command, ws *workspace, sink pipeline.ProgressSink) *pipeline.Coordinator {
	return pipeline.NewCoordinator(ws.snapshot(cmd.Context()), pipeline.Options{
		Jobs:      jobs(),
		Tracer:    trace.FromContext(cmd.Context()),
		Reporter:  diag.BagReporter{Bag: ws.bag},
		CrashDump: os.Stderr,
		Progress:  sink,
	})
}

// stepPass applies a step read from a file.
func stepPass(s *lens.Step) pipeline.Pass {
	return pipeline.StepPass{PassName: s.Name(), Build: func(*pipeline.Snapshot) *lens.Step { return s }}
}

// analyzePass collects facts and changes nothing.
type analyzePass struct {
	jobs     int
	reporter diag.Reporter
	out      **pipeline.Analysis
}

func (analyzePass) Name() string { return "analyze" }

func (p analyzePass) Run(ctx context.Context, s *pipeline.Snapshot) (pipeline.Result, error) {
	a, err := pipeline.Analyze(ctx, s, p.jobs, p.reporter)
	if err != nil {
		return pipeline.Result{}, err
	}
	*p.out = a
	return pipeline.Result{}, nil
}

func printFacts(out io.Writer, ws *workspace, final *pipeline.Snapshot, a *pipeline.Analysis) {
	if a == nil {
		return
	}
	in := ws.in
	alloc := a.Allocations.Get(final.Chain)
	access := a.FieldAccess.Get(final.Chain)
	summaries := a.FieldSummaries.Get(final.Chain)

	fmt.Fprintln(out, labelColor.Sprint("instantiated"))
	var inst table
	for _, t := range alloc.Types() {
		inst.add("  "+in.Descriptor(t), counts.Sprintf("%d site(s)", len(alloc.Contexts(t))))
	}
	inst.write(out)
	if lambdas := alloc.AllLambdas(); len(lambdas) > 0 {
		counts.Fprintf(out, "  %d lambda(s)\n", len(lambdas))
	}

	fmt.Fprintln(out, labelColor.Sprint("fields"))
	var fields table
	for _, info := range access.All() {
		state := "unused"
		switch {
		case info.IsRead() && info.IsWritten():
			state = "read/write"
		case info.IsRead():
			state = "read only"
		case info.IsWritten():
			state = "write only"
		}
		if sum, ok := summaries.Get(info.Field); ok && sum.Writers > 0 && sum.WrittenOnlyInInitializers {
			state += ", initializer writes"
		}
		fields.add("  "+in.FieldString(info.Field), state)
	}
	fields.write(out)

	counts.Fprintf(out, "%d invoke(s) collected at version 0, final version %d (%d classes)\n",
		len(a.Invokes), final.Version(), final.Graph.Len())
}
