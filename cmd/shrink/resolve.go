package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"shrinker/internal/resolve"
	"shrinker/internal/types"
)

var (
	resolveKind    string
	resolveContext string
)

func init() {
	for _, c := range []*cobra.Command{resolveCmd, dispatchCmd} {
		c.Flags().StringVar(&resolveKind, "kind", "virtual", "reference kind (static|direct|virtual|interface|super)")
		c.Flags().StringVar(&resolveContext, "context", "", "class or method the reference appears in (default: no access checks)")
	}
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [model.toml] REF...",
	Short: "Resolve method or field references",
	Long: `resolve prints the outcome of resolving each reference, e.g.

  shrink resolve app.toml 'La/B;->m()V' --kind interface --context 'La/Main;'
  shrink resolve app.toml 'La/B;->count:I' --kind static`,
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
		s := ws.snapshot(cmd.Context())
		out := cmd.OutOrStdout()
		for _, ref := range refs {
			o, err := resolveRef(s.Engine, ws.in, ref, ctx, kind)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, ref)
			printOutcome(out, ws, o)
		}
		printDiagnostics(cmd.ErrOrStderr(), ws.bag)
		return nil
	},
}

func queryKindAndContext(in *types.Interner) (types.InvokeKind, resolve.Context, error) {
	kind, ok := types.ParseInvokeKind(resolveKind)
	if !ok {
		return 0, resolve.Context{}, fmt.Errorf("invalid --kind %q", resolveKind)
	}
	ctx, err := parseContext(in, resolveContext)
	if err != nil {
		return 0, resolve.Context{}, fmt.Errorf("--context: %w", err)
	}
	return kind, ctx, nil
}

func resolveRef(e *resolve.Engine, in *types.Interner, ref string, ctx resolve.Context, kind types.InvokeKind) (resolve.Outcome, error) {
	if isFieldRef(ref) {
		f, err := in.ParseFieldRef(ref)
		if err != nil {
			return resolve.Outcome{}, err
		}
		return e.ResolveField(f, ctx, kind), nil
	}
	m, err := in.ParseMethodRef(ref)
	if err != nil {
		return resolve.Outcome{}, err
	}
	return e.ResolveMethod(m, ctx, kind), nil
}

func printOutcome(out io.Writer, ws *workspace, o resolve.Outcome) {
	in := ws.in
	line := o.Tag.String()
	if o.Reason != resolve.ReasonNone {
		line += " (" + o.Reason.String() + ")"
	}
	fmt.Fprintf(out, "  %s %s\n", labelColor.Sprint("outcome"), outcomeColor(o.Tag).Sprint(line))
	switch {
	case o.ArrayClone:
		fmt.Fprintf(out, "  %s array clone()\n", labelColor.Sprint("member "))
	case o.Method != nil:
		fmt.Fprintf(out, "  %s %s [%s]\n", labelColor.Sprint("member "), in.MethodString(o.Method.Ref), o.Method.Flags)
	case o.Field != nil:
		fmt.Fprintf(out, "  %s %s [%s]\n", labelColor.Sprint("member "), in.FieldString(o.Field.Ref), o.Field.Flags)
	}
	if o.Initial != nil {
		fmt.Fprintf(out, "  %s %s\n", labelColor.Sprint("initial"), describeClass(ws, o.Initial))
	}
	if len(o.Path) > 1 {
		hops := make([]string, len(o.Path))
		for i, t := range o.Path {
			hops[i] = in.Descriptor(t)
		}
		fmt.Fprintf(out, "  %s %s\n", labelColor.Sprint("path   "), strings.Join(hops, " -> "))
	}
	for _, c := range o.Candidates {
		fmt.Fprintf(out, "  %s %s\n", labelColor.Sprint("default"), in.MethodString(c.Ref))
	}
}
