package ui

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// Progress is a progress bar that only draws on an interactive terminal.
// On anything else every method is a no-op.
type Progress struct {
	bar *progressbar.ProgressBar
}

// NewProgress creates a bar of max steps on w.
func NewProgress(w io.Writer, max int, description string) *Progress {
	if max <= 0 || !IsTerminal(w) {
		return &Progress{}
	}
	bar := progressbar.NewOptions(max,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionEnableColorCodes(ColorEnabled()),
		progressbar.OptionOnCompletion(func() { fmt.Fprint(w, "\r") }),
	)
	return &Progress{bar: bar}
}

// Enabled reports whether the bar is drawn.
func (p *Progress) Enabled() bool { return p.bar != nil }

// Step advances the bar by one and shows label.
func (p *Progress) Step(label string) {
	if p.bar == nil {
		return
	}
	p.bar.Describe(label)
	_ = p.bar.Add(1)
}

// Finish completes and clears the bar.
func (p *Progress) Finish() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
