package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// Console prints the handful of styled one-line messages a run produces.
// Styles are resolved per writer, so redirected output carries no escape codes.
type Console struct {
	out    io.Writer
	errOut io.Writer
	quiet  bool

	info    lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	value   lipgloss.Style
}

// NewConsole creates a console writing to out and errors to errOut.
// A quiet console only prints errors.
func NewConsole(out, errOut io.Writer, quiet bool) *Console {
	outRenderer := lipgloss.NewRenderer(out)
	errRenderer := lipgloss.NewRenderer(errOut)

	return &Console{
		out:     out,
		errOut:  errOut,
		quiet:   quiet,
		info:    outRenderer.NewStyle().Foreground(lipgloss.Color("6")),
		success: outRenderer.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		warning: outRenderer.NewStyle().Foreground(lipgloss.Color("3")),
		failure: errRenderer.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		value:   outRenderer.NewStyle().Foreground(lipgloss.Color("2")),
	}
}

// Stdio returns a console on the process's standard streams
func Stdio(quiet bool) *Console {
	return NewConsole(os.Stdout, os.Stderr, quiet)
}

// Out returns the writer regular output goes to
func (c *Console) Out() io.Writer {
	return c.out
}

// Info prints a neutral notice
func (c *Console) Info(format string, args ...interface{}) {
	if c.quiet {
		return
	}
	fmt.Fprintln(c.out, c.info.Render(fmt.Sprintf(format, args...)))
}

// Warning prints a notice about skipped or degraded work
func (c *Console) Warning(format string, args ...interface{}) {
	if c.quiet {
		return
	}
	fmt.Fprintln(c.out, c.warning.Render(fmt.Sprintf(format, args...)))
}

// Success prints a completion message
func (c *Console) Success(format string, args ...interface{}) {
	if c.quiet {
		return
	}
	fmt.Fprintln(c.out, c.success.Render(fmt.Sprintf(format, args...)))
}

// Error prints err as a single line on the error stream, even when quiet.
// Joined errors are separated by "; ".
func (c *Console) Error(err error) {
	lines := strings.FieldsFunc(err.Error(), func(r rune) bool { return r == '\n' || r == '\r' })
	fmt.Fprintln(c.errOut, c.failure.Render("Error: "+strings.Join(lines, "; ")))
}

// Totals prints how much work the job list contains
func (c *Console) Totals(images, albums int) {
	if c.quiet {
		return
	}
	fmt.Fprintf(c.out, "Found total %s %s in %s %s.\n",
		c.value.Render(fmt.Sprint(images)), plural(images, "image"),
		c.value.Render(fmt.Sprint(albums)), plural(albums, "album"))
}

// Summary prints the final line of a successful run
func (c *Console) Summary(images, albums int, bytes int64, elapsed time.Duration, destination string) {
	if c.quiet {
		return
	}
	c.Success("Downloaded %d %s (%s) from %d %s in %s to %s",
		images, plural(images, "image"), humanize.Bytes(uint64(bytes)),
		albums, plural(albums, "album"), elapsed.Round(time.Millisecond), destination)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
