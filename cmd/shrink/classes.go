package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"shrinker/internal/graph"
)

var (
	classesProgramOnly bool
	classesApply       bool
)

func init() {
	classesCmd.Flags().BoolVar(&classesProgramOnly, "program", false, "list program classes only")
	classesCmd.Flags().BoolVar(&classesApply, "apply", false, "apply the configured steps before listing")
}

var classesCmd = &cobra.Command{
	Use:   "classes [model.toml] [steps.toml...]",
	Short: "List the classes of a program model",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, rest, err := modelPath(args)
		if err != nil {
			return err
		}
		ws, err := loadWorkspace(path, rest, classesApply)
		if err != nil {
			return err
		}
		g := ws.graph
		if classesApply && len(ws.steps) > 0 {
			if g, err = applySteps(cmd, ws); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		classes := g.Classes()
		if classesProgramOnly {
			classes = g.ProgramClasses()
		}
		var t table
		t.add("CLASS", "PROVENANCE", "SUPER", "METHODS", "FIELDS", "FLAGS")
		for _, c := range classes {
			super := "-"
			if sup := c.Super; sup != 0 {
				super = ws.in.Descriptor(sup)
			}
			t.add(ws.in.Descriptor(c.Type), c.Provenance().String(), super,
				strconv.Itoa(len(c.Methods)), strconv.Itoa(len(c.Fields)), c.Flags.String())
		}
		t.write(out)

		if current == nil || !current.Quiet {
			fp, err := g.Fingerprint()
			if err != nil {
				return fmt.Errorf("fingerprint: %w", err)
			}
			counts.Fprintf(out, "\n%d classes (%d program), version %d, fingerprint %s\n",
				g.Len(), len(g.ProgramClasses()), g.Version(), dimColor.Sprint(fp[:16]))
		}
		printDiagnostics(cmd.ErrOrStderr(), ws.bag)
		return nil
	},
}

// describeClass renders the header line of c the way the model file
// declares it.
func describeClass(ws *workspace, c *graph.ClassDef) string {
	var sb strings.Builder
	sb.WriteString(ws.in.Descriptor(c.Type))
	if c.Super != 0 {
		sb.WriteString(" extends " + ws.in.Descriptor(c.Super))
	}
	if len(c.Interfaces) > 0 {
		names := make([]string, len(c.Interfaces))
		for i, t := range c.Interfaces {
			names[i] = ws.in.Descriptor(t)
		}
		sb.WriteString(" implements " + strings.Join(names, ", "))
	}
	return sb.String()
}
