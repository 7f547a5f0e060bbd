package stats

import (
	"io"
	"os"

	"golang.org/x/term"
)

const (
	minCurveWidth       = 10
	terminalWidthBackup = 80
)

// CurveWidthFor returns the sparkline width for a writer, falling back to a
// fixed width when the writer is not a terminal.
func CurveWidthFor(w io.Writer) int {
	width := terminalWidthBackup
	if file, ok := w.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		if tw, _, err := term.GetSize(int(file.Fd())); err == nil && tw > 0 {
			width = tw
		}
	}
	width -= len("WPM trend: ")
	if width < minCurveWidth {
		width = minCurveWidth
	}
	return width
}
