package help

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// sgr matches the color sequences fatih/color emits.
var sgr = regexp.MustCompile("\x1b\\[[0-9;]*m")

// Box draws the banner and status panels at a fixed inner width.
type Box struct {
	Width int
}

// NewBox creates a Box with the given inner width.
func NewBox(width int) *Box {
	return &Box{Width: width}
}

// Top returns ╭───╮.
func (b *Box) Top() string { return b.edge(BoxTopLeft, BoxTopRight) }

// Mid returns ├───┤.
func (b *Box) Mid() string { return b.edge(BoxTeeLeft, BoxTeeRight) }

// Bottom returns ╰───╯.
func (b *Box) Bottom() string { return b.edge(BoxBottomLeft, BoxBottomRight) }

func (b *Box) edge(left, right string) string {
	return left + strings.Repeat(BoxHorizontal, b.Width) + right
}

// Row returns a left-aligned content row. Content wider than the box loses
// its styling and is cut to fit.
func (b *Box) Row(content string) string {
	if w := displayWidth(content); w <= b.Width {
		return BoxVertical + content + strings.Repeat(" ", b.Width-w) + BoxVertical
	}
	return BoxVertical + clip(stripStyle(content), b.Width) + BoxVertical
}

// KeyValue returns a status row with the label dimmed and padded to
// labelWidth.
func (b *Box) KeyValue(label, value string, labelWidth int) string {
	return b.Row(" " + PadRight(Dim(label), labelWidth) + " " + value)
}

// stripStyle removes terminal color sequences.
func stripStyle(s string) string {
	return sgr.ReplaceAllString(s, "")
}

// displayWidth counts the runes a terminal shows for s.
func displayWidth(s string) int {
	return utf8.RuneCountInString(stripStyle(s))
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// PadRight pads s with spaces to the given display width.
func PadRight(s string, width int) string {
	if w := displayWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// Truncate shortens message text to max runes, marking the cut with "...".
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= 3 {
		return clip(s, max)
	}
	return clip(s, max-3) + "..."
}
