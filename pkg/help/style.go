package help

import (
	"strings"

	"github.com/fatih/color"
)

// Styles honor color.NoColor, so output is plain when stdout is not a
// terminal or NO_COLOR is set.
var (
	headerStyle   = color.New(color.Bold, color.FgCyan)
	categoryStyle = color.New(color.Bold, color.FgGreen)
	commandStyle  = color.New(color.FgCyan)
	exampleStyle  = color.New(color.FgYellow)
	shortcutStyle = color.New(color.Bold, color.FgYellow)
	dimStyle      = color.New(color.FgHiBlack)
	boldStyle     = color.New(color.Bold)
)

// Header styles a section title.
func Header(text string) string { return headerStyle.Sprint(text) }

// StyleCategory styles a category label.
func StyleCategory(text string) string { return categoryStyle.Sprint(text) }

// StyleCommand styles a command name.
func StyleCommand(text string) string { return commandStyle.Sprint(text) }

// StyleExample styles example syntax and arguments.
func StyleExample(text string) string { return exampleStyle.Sprint(text) }

// Shortcut styles a key or alias.
func Shortcut(text string) string { return shortcutStyle.Sprint(text) }

// Dim styles secondary text.
func Dim(text string) string { return dimStyle.Sprint(text) }

// Bold styles emphasized text.
func Bold(text string) string { return boldStyle.Sprint(text) }

// Arrow returns a dim " -> " separator.
func Arrow() string { return Dim(" -> ") }

// CommandWithShortcut formats "/help (or /h)".
func CommandWithShortcut(cmd, shortcut string) string {
	if shortcut == "" {
		return StyleCommand(cmd)
	}
	return StyleCommand(cmd) + Dim(" (or ") + Shortcut(shortcut) + Dim(")")
}

// HighlightExampleCommand shows the command word in command style and the
// arguments in example style.
func HighlightExampleCommand(example string) string {
	name, args, _ := strings.Cut(example, " ")
	if name == "" {
		return ""
	}
	if args = strings.TrimLeft(args, " "); args == "" {
		return StyleCommand(name)
	}
	return StyleCommand(name) + StyleExample(" "+args)
}

// ExampleLine formats an example with its description.
func ExampleLine(cmd, desc string) string {
	return "  " + HighlightExampleCommand(cmd) + Arrow() + Dim(desc)
}
