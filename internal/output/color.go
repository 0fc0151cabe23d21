package output

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/aryankumar/mermaidfleet/internal/executor"
	"github.com/aryankumar/mermaidfleet/internal/render"
)

// Painter formats its arguments like fmt.Sprintf and wraps the result in color codes
type Painter func(format string, a ...interface{}) string

// ColorScheme holds one Painter per kind of table cell
type ColorScheme struct {
	ID       Painter
	Success  Painter
	Error    Painter
	Warning  Painter
	Header   Painter
	Duration Painter

	// Disabled is set when every Painter emits plain text
	Disabled bool
}

// NewColorScheme creates the color scheme for w.
// Colors are off when noColor is set or w is not a terminal.
func NewColorScheme(w io.Writer, noColor bool) *ColorScheme {
	enabled := !noColor && isTTY(w)

	paint := func(attrs ...color.Attribute) Painter {
		c := color.New(attrs...)
		// The decision is made per writer, not from the global color.NoColor
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.Sprintf
	}

	return &ColorScheme{
		ID:       paint(color.FgCyan, color.Bold),
		Success:  paint(color.FgGreen),
		Error:    paint(color.FgRed, color.Bold),
		Warning:  paint(color.FgYellow),
		Header:   paint(color.FgWhite, color.Bold),
		Duration: paint(color.FgBlue),
		Disabled: !enabled,
	}
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// StatusColor picks Error for failed results and Success otherwise
func (cs *ColorScheme) StatusColor(hasError bool) Painter {
	if hasError {
		return cs.Error
	}
	return cs.Success
}

// KindColor returns the Painter for a result kind.
// Timeouts and cancellations are shown as warnings.
func (cs *ColorScheme) KindColor(kind render.Kind) Painter {
	switch kind {
	case executor.KindSuccess:
		return cs.Success
	case render.KindTimeout, render.KindCancelled:
		return cs.Warning
	default:
		return cs.Error
	}
}
