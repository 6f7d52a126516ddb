package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"shrinker/internal/lens"
	"shrinker/internal/types"
)

var (
	lensSteps    []string
	lensFrom     int
	lensOriginal bool
	lensKind     string
)

func init() {
	lensCmd.Flags().StringArrayVar(&lensSteps, "steps", nil, "step file to apply (repeatable; default from config)")
	lensCmd.Flags().IntVar(&lensFrom, "from", 0, "version the references are expressed in")
	lensCmd.Flags().BoolVar(&lensOriginal, "original", false, "map references at the final version back to version 0")
	lensCmd.Flags().StringVar(&lensKind, "kind", "virtual", "invoke kind for method references")
}

var lensCmd = &cobra.Command{
	Use:   "lens [model.toml] REF...",
	Short: "Rewrite type, method or field references through the lens chain",
	Long: `lens reads steps and prints what each reference becomes after the last
step. A reference is a type descriptor ('La/A;'), a method ('La/A;->m()V')
or a field ('La/A;->f:I')`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, refs, err := modelPath(args)
		if err != nil {
			return err
		}
		if len(refs) == 0 {
			return fmt.Errorf("no references given")
		}
		ws, err := loadWorkspace(path, lensSteps, true)
		if err != nil {
			return err
		}
		kind, ok := types.ParseInvokeKind(lensKind)
		if !ok {
			return fmt.Errorf("invalid --kind %q", lensKind)
		}
		chain := ws.chain()
		if lensFrom < 0 || lensFrom > chain.Version() {
			return fmt.Errorf("--from %d outside the chain (0..%d)", lensFrom, chain.Version())
		}

		out := cmd.OutOrStdout()
		for i := 1; i <= chain.Version(); i++ {
			printStep(out, ws.in, i, chain.Step(i))
		}
		for _, ref := range refs {
			var err error
			if lensOriginal {
				err = printOriginal(out, ws.in, chain, ref)
			} else {
				err = printLookup(out, ws.in, chain, ref, kind)
			}
			if err != nil {
				return err
			}
		}
		return nil
	},
}

func printLookup(out io.Writer, in *types.Interner, chain *lens.Chain, ref string, kind types.InvokeKind) error {
	removed := errColor.Sprint("removed")
	switch {
	case !strings.Contains(ref, "->"):
		t, err := in.ParseType(ref)
		if err != nil {
			return err
		}
		l := chain.LookupType(t, lensFrom)
		if l.Removed {
			fmt.Fprintf(out, "%s => %s%s\n", ref, removed, removedBy(chain, t))
			return nil
		}
		fmt.Fprintf(out, "%s => %s\n", ref, in.Descriptor(l.Value))
	case isFieldRef(ref):
		f, err := in.ParseFieldRef(ref)
		if err != nil {
			return err
		}
		l := chain.LookupField(f, lensFrom)
		if l.Removed {
			fmt.Fprintf(out, "%s => %s\n", ref, removed)
			return nil
		}
		fmt.Fprintf(out, "%s => %s\n", ref, in.FieldString(l.Value))
	default:
		m, err := in.ParseMethodRef(ref)
		if err != nil {
			return err
		}
		l := chain.LookupMethod(m, kind, lensFrom)
		if l.Removed {
			fmt.Fprintf(out, "%s => %s\n", ref, removed)
			return nil
		}
		fmt.Fprintf(out, "%s => %s (%s)\n", ref, in.MethodString(l.Method), l.Kind)
		for _, c := range l.Changes {
			fmt.Fprintf(out, "    %s removed params %v, %d extra\n", dimColor.Sprint("proto"), c.RemovedParams, len(c.ExtraParams))
		}
	}
	return nil
}

// printStep lists the step and the types it renames or merges.
func printStep(out io.Writer, in *types.Interner, v int, step *lens.Step) {
	fmt.Fprintf(out, "%s %d %s\n", dimColor.Sprint("step"), v, step.Name())
	mapped := step.MappedTypes()
	froms := slices.SortedFunc(maps.Keys(mapped), func(a, b types.TypeID) int {
		return strings.Compare(in.Descriptor(a), in.Descriptor(b))
	})
	for _, from := range froms {
		fmt.Fprintf(out, "    %s -> %s\n", in.Descriptor(from), in.Descriptor(mapped[from]))
	}
}

// removedBy names the step that removed t, following t through the steps
// before it.
func removedBy(chain *lens.Chain, t types.TypeID) string {
	for v := lensFrom + 1; v <= chain.Version(); v++ {
		cur := chain.Between(lensFrom, v-1).LookupType(t)
		if !cur.Removed && chain.Step(v).RemovedType(cur.Value) {
			return fmt.Sprintf(" (step %d %s)", v, chain.Step(v).Name())
		}
	}
	return ""
}

func printOriginal(out io.Writer, in *types.Interner, chain *lens.Chain, ref string) error {
	at := chain.Version()
	switch {
	case !strings.Contains(ref, "->"):
		t, err := in.ParseType(ref)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s <= %s\n", ref, in.Descriptor(chain.OriginalType(t, at)))
	case isFieldRef(ref):
		f, err := in.ParseFieldRef(ref)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s <= %s\n", ref, in.FieldString(chain.OriginalField(f, at)))
	default:
		m, err := in.ParseMethodRef(ref)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s <= %s\n", ref, in.MethodString(chain.OriginalMethod(m, at)))
	}
	return nil
}
