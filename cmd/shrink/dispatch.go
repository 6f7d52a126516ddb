package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shrinker/internal/dispatch"
	"shrinker/internal/pipeline"
)

var (
	dispatchReceiver string
	dispatchExact    bool
	dispatchAll      bool
)

func init() {
	dispatchCmd.Flags().StringVar(&dispatchReceiver, "receiver", "", "static receiver type narrower than the holder")
	dispatchCmd.Flags().BoolVar(&dispatchExact, "exact", false, "the receiver's dynamic type is exactly --receiver")
	dispatchCmd.Flags().BoolVar(&dispatchAll, "all", false, "list every possible target instead of the single one")
}

var dispatchCmd = &cobra.Command{
	Use:   "dispatch [model.toml] REF...",
	Short: "Find the runtime targets of virtual and interface calls",
	Long: `dispatch resolves each method reference and looks up its targets
among the types the program instantiates`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, refs, err := modelPath(args)
		if err != nil {
			return err
		}
		if len(refs) == 0 {
			return fmt.Errorf("no references given")
		}
		ws, err := loadWorkspace(path, nil, false)
		if err != nil {
			return err
		}
		kind, ctx, err := queryKindAndContext(ws.in)
		if err != nil {
			return err
		}
		var recv dispatch.Receiver
		if dispatchReceiver != "" {
			if recv.Type, err = ws.in.ParseType(dispatchReceiver); err != nil {
				return fmt.Errorf("--receiver: %w", err)
			}
			recv.Exact = dispatchExact
		}

		s := ws.snapshot(cmd.Context())
		analysis, err := pipeline.Analyze(cmd.Context(), s, jobs(), nil)
		if err != nil {
			return err
		}
		alloc := analysis.Allocations.At(s.Chain)

		out := cmd.OutOrStdout()
		in := ws.in
		for _, ref := range refs {
			if isFieldRef(ref) {
				return fmt.Errorf("%s: dispatch needs a method reference", ref)
			}
			o, err := resolveRef(s.Engine, in, ref, ctx, kind)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, ref)
			printOutcome(out, ws, o)
			if !o.IsSuccess() {
				continue
			}

			if dispatchAll {
				set := s.Dispatch.LookupVirtualTargets(o, alloc)
				for _, m := range set.Methods {
					fmt.Fprintf(out, "  %s %s\n", labelColor.Sprint("target "), in.MethodString(m.Ref))
				}
				for _, l := range set.Lambdas {
					fmt.Fprintf(out, "  %s lambda %s\n", labelColor.Sprint("target "), in.MethodString(l.Impl))
				}
				if !set.Complete {
					fmt.Fprintf(out, "  %s\n", warnColor.Sprint("incomplete: receivers outside the program"))
				}
				continue
			}

			var res dispatch.Result
			if recv.Type != 0 {
				res = s.Dispatch.LookupDispatchTargetsForReceiver(o, alloc, recv)
			} else {
				res = s.Dispatch.LookupDispatchTargets(o, alloc)
			}
			printDispatch(cmd, ws, res)
		}
		printDiagnostics(cmd.ErrOrStderr(), ws.bag)
		return nil
	},
}

func printDispatch(cmd *cobra.Command, ws *workspace, res dispatch.Result) {
	out := cmd.OutOrStdout()
	in := ws.in
	line := res.Tag.String()
	switch res.Tag {
	case dispatch.SingleTarget:
		if res.Method != nil {
			line += " " + in.MethodString(res.Method.Ref)
		} else {
			line += " (no instantiated receiver)"
		}
	case dispatch.LambdaTarget:
		line += " " + in.MethodString(res.Lambda.Impl)
	}
	fmt.Fprintf(out, "  %s %s\n", labelColor.Sprint("target "), dispatchColor(res.Tag).Sprint(line))
}
