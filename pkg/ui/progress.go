package ui

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// Progress renders download progress as a single bar with the current file label
type Progress struct {
	mu    sync.Mutex
	out   io.Writer
	bar   *progressbar.ProgressBar
	total int
	width int
}

// IsTerminal reports whether w is an interactive terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// NewProgress returns a bar on out when enabled and out is a terminal, nil otherwise.
// A nil *Progress is valid and renders nothing.
func NewProgress(out io.Writer, enabled bool) *Progress {
	if !enabled || !IsTerminal(out) {
		return nil
	}
	return NewProgressWriter(out)
}

// NewProgressWriter returns a bar that always renders to out
func NewProgressWriter(out io.Writer) *Progress {
	return &Progress{out: out, width: DefaultLabelWidth}
}

// Start sizes the bar for total jobs
func (p *Progress) Start(total int) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionSetDescription("Downloading..."+TaskLabel("...", p.width)),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			_, _ = io.WriteString(p.out, "\n")
		}),
	)
}

// Update moves the bar to completed and shows the most recent file
func (p *Progress) Update(completed int, filename string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil {
		return
	}
	if completed >= p.total {
		p.bar.Describe("Completed")
	} else {
		p.bar.Describe("Downloading..." + TaskLabel(filename, p.width))
	}
	_ = p.bar.Set(completed)
}

// Finish marks the bar completed and clears the file label
func (p *Progress) Finish() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil || p.bar.IsFinished() {
		return
	}
	p.bar.Describe("Completed")
	_ = p.bar.Finish()
}

// Abort stops drawing without completing the bar
func (p *Progress) Abort() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar != nil {
		_ = p.bar.Exit()
		_, _ = io.WriteString(p.out, "\n")
	}
}
