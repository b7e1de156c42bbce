// Package help provides formatted help output for the noesis shell.
//
// Output is grouped by category, drawn with rounded box characters and
// colored with fatih/color. When stdout is not a terminal, color is
// disabled and the text degrades to plain output.
//
//	renderer := help.NewRenderer(os.Stdout)
//	renderer.RenderFull()
//	renderer.RenderCommand("merge")
//
// Command metadata is available through the registry:
//
//	cmd, found := help.GetCommand("branch")
//	cmds := help.GetCommandsByCategory(help.CategoryBranching)
package help

import "io"

// Box drawing characters. Corners are rounded.
const (
	BoxTopLeft     = "╭"
	BoxTopRight    = "╮"
	BoxBottomLeft  = "╰"
	BoxBottomRight = "╯"

	BoxHorizontal = "─"
	BoxVertical   = "│"

	BoxTeeLeft  = "├"
	BoxTeeRight = "┤"
)

// Renderer formats and writes help output.
type Renderer struct {
	w io.Writer
}

// NewRenderer creates a new help renderer that writes to w.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w}
}
