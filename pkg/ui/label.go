package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// DefaultLabelWidth is the width of the file label shown next to the bar
const DefaultLabelWidth = 20

// TaskLabel renders filename for the progress line: the index prefix is
// dropped, long names are cut to width with a trailing "...", and the
// result is centered in width columns plus one space of margin per side.
// Odd widths are rounded up so the closing bracket does not jitter.
func TaskLabel(filename string, width int) string {
	if width < 4 {
		width = 4
	}
	if width%2 != 0 {
		width++
	}

	if _, name, ok := strings.Cut(filename, "__"); ok {
		filename = name
	}

	if runewidth.StringWidth(filename) >= width {
		filename = runewidth.Truncate(filename, width-3, "") + "..."
	}

	w := runewidth.StringWidth(filename)
	left := (width - w) / 2
	right := width - w - left
	return " " + strings.Repeat(" ", left) + filename + strings.Repeat(" ", right) + " "
}
