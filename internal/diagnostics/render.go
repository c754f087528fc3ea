package diagnostics

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Renderer formats diagnostics for human consumption. Colorizing is only
// attempted when the destination is a real terminal — piping compiler
// output to a file or another process should never embed ANSI escapes.
type Renderer struct {
	Out   io.Writer
	Color bool
}

// NewRenderer builds a Renderer targeting w, auto-detecting color support
// when w is os.Stdout/os.Stderr attached to a TTY.
func NewRenderer(w io.Writer) *Renderer {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Renderer{Out: w, Color: color}
}

const (
	ansiRed   = "\x1b[31m"
	ansiBold  = "\x1b[1m"
	ansiReset = "\x1b[0m"
)

// Render writes one line per diagnostic to r.Out.
func (r *Renderer) Render(diags []*DiagnosticError) {
	for _, d := range diags {
		r.renderOne(d)
	}
}

func (r *Renderer) renderOne(d *DiagnosticError) {
	if !r.Color {
		fmt.Fprintf(r.Out, "error[%s]: %s\n  --> %s\n", d.Code, d.Message, d.Span)
		return
	}
	fmt.Fprintf(r.Out, "%s%serror[%s]%s: %s%s\n  --> %s\n",
		ansiBold, ansiRed, d.Code, ansiReset, d.Message, ansiReset, d.Span)
}
