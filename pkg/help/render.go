package help

import (
	"fmt"
	"strings"
)

// Listing layout, sized for 80 columns.
const (
	nameColumn = 22
	ruleWidth  = nameColumn + 20

	// inlineExamples caps the examples shown per command in RenderFull.
	inlineExamples = 2
)

var (
	margin = strings.Repeat(" ", 2)
	nested = strings.Repeat(" ", 4)
)

// RenderFull renders every category followed by shortcuts and tips.
func (r *Renderer) RenderFull() {
	r.line("")
	r.line(Header(margin + "NOESIS Commands"))
	r.line("")
	for _, cat := range CategoryOrder {
		cmds := GetCommandsByCategory(cat)
		if len(cmds) == 0 {
			continue
		}
		r.section(cat.Icon() + " " + cat.DisplayName())
		for _, cmd := range cmds {
			r.listing(cmd)
		}
		r.line("")
	}
	r.RenderShortcuts()
}

// RenderCommand renders usage and every example for one command. It
// returns false if name is not a known command or shortcut.
func (r *Renderer) RenderCommand(name string) bool {
	cmd, found := GetCommand(name)
	if !found {
		r.line(fmt.Sprintf("%sCommand '%s' not found. Use /help to see all commands.", margin, name))
		return false
	}

	r.line("")
	r.line(margin + CommandWithShortcut(cmd.Name, cmd.Shortcut) + Dim("  "+cmd.Category.DisplayName()))
	r.line(margin + Dim(cmd.Description))
	r.line("")
	r.line(margin + Bold("Usage:") + " " + StyleExample(cmd.Usage))
	r.line("")
	if len(cmd.Examples) == 0 {
		return true
	}
	r.line(margin + Bold("Examples:"))
	for _, ex := range cmd.Examples {
		r.line(nested + ExampleLine(ex.Command, ex.Description))
	}
	r.line("")
	return true
}

// RenderShortcuts renders the alias table and the input hints.
func (r *Renderer) RenderShortcuts() {
	r.line("")
	r.section("💡 Shortcuts & Tips")

	var aliases []string
	for _, cmd := range Commands {
		if cmd.Shortcut != "" {
			aliases = append(aliases, Shortcut(cmd.Shortcut)+Dim("→"+strings.TrimPrefix(cmd.Name, "/")))
		}
	}
	tips := [][2]string{
		{"Aliases: ", strings.Join(aliases, "  ")},
		{"Message: ", StyleExample("text") + Dim(" (recorded as a user turn on the active branch)")},
		{"Keys:    ", Shortcut("Tab") + Dim(" complete  ") + Shortcut("Ctrl+D") + Dim(" exit  ") + Shortcut("↑↓") + Dim(" history")},
	}
	for _, tip := range tips {
		r.line(nested + gutter() + Dim(tip[0]) + tip[1])
	}
	r.line("")
}

// section writes a category title over a ├──── rule.
func (r *Renderer) section(title string) {
	r.line(margin + StyleCategory(title))
	r.line(margin + Dim(BoxTeeLeft+strings.Repeat(BoxHorizontal, ruleWidth)))
}

// listing writes one command row and up to inlineExamples examples.
func (r *Renderer) listing(cmd Command) {
	r.line(nested + gutter() + PadRight(CommandWithShortcut(cmd.Name, cmd.Shortcut), nameColumn) + Dim(cmd.Description))

	examples := cmd.Examples
	if len(examples) > inlineExamples {
		examples = examples[:inlineExamples]
	}
	for _, ex := range examples {
		r.line(nested + "  " + Dim(BoxVertical+"   e.g. ") + HighlightExampleCommand(ex.Command))
	}
}

func gutter() string { return Dim(BoxVertical + " ") }

func (r *Renderer) line(s string) {
	fmt.Fprintln(r.w, s)
}
