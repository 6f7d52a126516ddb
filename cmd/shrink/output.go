package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"shrinker/internal/diag"
	"shrinker/internal/dispatch"
	"shrinker/internal/resolve"
	"shrinker/internal/ui"
)

var (
	okColor    = color.New(color.FgGreen, color.Bold)
	warnColor  = color.New(color.FgYellow, color.Bold)
	errColor   = color.New(color.FgRed, color.Bold)
	dimColor   = color.New(color.Faint)
	labelColor = color.New(color.FgCyan)
)

// counts renders numbers with digit grouping ("12,480 classes").
var counts = message.NewPrinter(language.English)

func outcomeColor(tag resolve.Tag) *color.Color {
	switch tag {
	case resolve.Success:
		return okColor
	case resolve.AmbiguousDefaultMethod, resolve.IllegalAccess:
		return warnColor
	default:
		return errColor
	}
}

func dispatchColor(tag dispatch.ResultTag) *color.Color {
	switch tag {
	case dispatch.SingleTarget, dispatch.LambdaTarget:
		return okColor
	default:
		return warnColor
	}
}

func severityColor(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return errColor
	case diag.SevWarning:
		return warnColor
	default:
		return labelColor
	}
}

// printDiagnostics writes bag sorted, one line per diagnostic followed by
// its notes.
func printDiagnostics(out io.Writer, bag *diag.Bag) {
	bag.Sort()
	items := bag.Items()
	for _, d := range items {
		fmt.Fprintf(out, "%s %s %s: %s\n",
			severityColor(d.Severity).Sprint(d.Severity),
			dimColor.Sprint(d.Code.ID()),
			d.Primary,
			d.Message)
		for _, n := range d.Notes {
			if n.Location.Subject != "" {
				fmt.Fprintf(out, "    note: %s: %s\n", n.Location, n.Msg)
			} else {
				fmt.Fprintf(out, "    note: %s\n", n.Msg)
			}
		}
	}
	if dropped := bag.Dropped(); dropped > 0 {
		counts.Fprintf(out, "%d more diagnostics not shown (--max-diagnostics)\n", dropped)
	}
}

// table accumulates rows and writes them with columns padded to the
// widest cell. Cells may contain wide runes.
type table struct {
	rows [][]string
}

func (t *table) add(cells ...string) { t.rows = append(t.rows, cells) }

func (t *table) write(out io.Writer) {
	var widths []int
	for _, r := range t.rows {
		for i, c := range r {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], ui.Width(c))
		}
	}
	for _, r := range t.rows {
		for i, c := range r {
			if i == len(r)-1 {
				fmt.Fprintln(out, c)
				break
			}
			fmt.Fprint(out, ui.Pad(c, widths[i]), "  ")
		}
	}
}
