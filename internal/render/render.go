// Package render prints a driver.Report to the terminal (spec §6): a
// header, a "Changed expressions:" list or a "no changes" notice, one
// coloured line per changed entry.
//
// Grounded on the teacher's cmd/agent.go status-line printing, enriched
// with github.com/fatih/color for the ANSI highlighting the spec calls
// for (line numbers dim, values green, errors red) since the teacher
// itself only ever wrote plain fmt.Println status lines.
package render

import (
	"fmt"
	"io"

	"github.com/agentic-research/garden/internal/driver"
	"github.com/fatih/color"
)

// Printer renders cycle reports to Out. NoColor disables ANSI escapes
// (the --no-color flag), matching fatih/color's own NoColor convention.
type Printer struct {
	Out     io.Writer
	NoColor bool
}

// New returns a Printer writing to out with colour enabled.
func New(out io.Writer) *Printer {
	return &Printer{Out: out}
}

func (p *Printer) colors() (line, value, errText *color.Color) {
	line = color.New(color.FgHiBlack)
	value = color.New(color.FgGreen)
	errText = color.New(color.FgRed)
	if p.NoColor {
		line.DisableColor()
		value.DisableColor()
		errText.DisableColor()
	}
	return
}

// Header prints the "Revaluating expressions in …" banner (spec §6).
func (p *Printer) Header(path string) {
	fmt.Fprintf(p.Out, "Revaluating expressions in %s\n", path)
}

// Report prints one cycle's change list.
func (p *Printer) Report(r *driver.Report) {
	if len(r.Changed) == 0 {
		fmt.Fprintln(p.Out, "No expressions changed in this evaluation.")
		return
	}

	lineColor, valueColor, errColor := p.colors()
	fmt.Fprintln(p.Out, "Changed expressions:")
	for _, rec := range r.Changed {
		lineStr := lineColor.Sprintf("%3d", rec.Line)
		var rendered string
		if rec.Outcome.Err != nil {
			rendered = errColor.Sprintf("Error: %s", rec.Outcome.Err.Message)
		} else {
			rendered = valueColor.Sprint(rec.Outcome.Value.Repr())
		}
		fmt.Fprintf(p.Out, "%s| %s [%s] => %s\n", lineStr, rec.Snippet, rec.IDPrefix, rendered)
	}
}
