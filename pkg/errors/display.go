package errors

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Formatter renders errors for terminal display.
type Formatter struct {
	// UseColor enables ANSI colors. When false output is plain text.
	UseColor bool

	// Writer is the output destination. Defaults to os.Stderr.
	Writer io.Writer

	// Indent is the prefix for context and suggestion lines.
	Indent string
}

// DefaultFormatter returns a Formatter for stderr, colored when stderr is a TTY.
func DefaultFormatter() *Formatter {
	return &Formatter{
		UseColor: IsTTY(os.Stderr),
		Writer:   os.Stderr,
		Indent:   "  ",
	}
}

// IsTTY returns true if the given file is a terminal.
func IsTTY(f *os.File) bool {
	if f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func (f *Formatter) paint(attrs ...color.Attribute) func(a ...interface{}) string {
	c := color.New(attrs...)
	if f.UseColor {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.SprintFunc()
}

// Format renders err. NoesisErrors show code, message, context, cause and
// suggestions; other errors get a plain "Error:" prefix.
func (f *Formatter) Format(err error) string {
	if err == nil {
		return ""
	}

	ne, ok := As(err)
	if !ok {
		return f.paint(color.FgRed)("Error: ") + err.Error()
	}

	red := f.paint(color.FgRed, color.Bold)
	yellow := f.paint(color.FgYellow)
	dim := f.paint(color.FgHiBlack)
	cyan := f.paint(color.FgCyan)

	var sb strings.Builder
	sb.WriteString(red("ERROR [" + ne.Code + "]:"))
	sb.WriteString(" ")
	sb.WriteString(ne.Message)
	sb.WriteString("\n")

	keys := make([]string, 0, len(ne.Context))
	for k := range ne.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(f.Indent + yellow(k+":") + " " + ne.Context[k] + "\n")
	}

	if ne.Cause != nil {
		sb.WriteString(f.Indent + dim("cause: "+ne.Cause.Error()) + "\n")
	}

	if ne.HasSuggestions() {
		if ne.HasContext() || ne.Cause != nil {
			sb.WriteString("\n")
		}
		for i, s := range ne.Suggestions {
			sb.WriteString(f.Indent + cyan("→ "+s))
			if i < len(ne.Suggestions)-1 {
				sb.WriteString("\n")
			}
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

// Display writes a formatted error to the formatter's writer.
func (f *Formatter) Display(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(f.Writer, f.Format(err))
}

// Sprint returns a formatted error string without colors.
func Sprint(err error) string {
	f := &Formatter{Writer: io.Discard, Indent: "  "}
	return f.Format(err)
}

// CategoryLabel returns a human-readable label for an error category.
func CategoryLabel(cat Category) string {
	switch cat {
	case CategoryBranch:
		return "Branch Error"
	case CategoryCheckpoint:
		return "Checkpoint Error"
	case CategorySession:
		return "Session Error"
	case CategoryCommand:
		return "Command Error"
	case CategoryConfig:
		return "Configuration Error"
	case CategoryStorage:
		return "Storage Error"
	case CategoryValidation:
		return "Validation Error"
	case CategoryInternal:
		return "Internal Error"
	default:
		return "Error"
	}
}
