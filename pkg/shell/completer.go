package shell

import (
	"strings"

	"github.com/chzyer/readline"

	"github.com/genecyber/NOESIS-sub002/pkg/help"
)

// branchCommands take branch names as arguments and trigger branch name
// completion.
var branchCommands = []string{
	"switch",
	"compare",
	"merge",
	"archive",
	"unarchive",
	"delete",
	"travel",
}

// commandNames returns every command and alias without the / prefix.
func commandNames() []string {
	names := []string{}
	for _, n := range help.Names() {
		names = append(names, strings.TrimPrefix(n, "/"))
	}
	return append(names, "exit")
}

// ShellCompleter completes command names and branch names.
// It implements readline.AutoCompleter.
type ShellCompleter struct {
	branches func() []string
}

// NewShellCompleter creates a completer. branches is called on every
// completion so new branches are offered immediately; it may be nil.
func NewShellCompleter(branches func() []string) *ShellCompleter {
	return &ShellCompleter{branches: branches}
}

var _ readline.AutoCompleter = (*ShellCompleter)(nil)

// Do implements readline.AutoCompleter. It returns the candidate suffixes
// and the length of the word being completed.
func (c *ShellCompleter) Do(line []rune, pos int) (newLine [][]rune, length int) {
	if len(line) == 0 || pos <= 0 {
		return nil, 0
	}
	if pos > len(line) {
		pos = len(line)
	}

	lineStr := string(line[:pos])
	wordStart := findWordStart(lineStr)
	currentWord := lineStr[wordStart:]
	if currentWord == "" {
		return nil, 0
	}

	if wordStart == 0 && strings.HasPrefix(currentWord, "/") {
		return c.completeCommand(currentWord)
	}
	if c.isBranchCommandContext(lineStr, wordStart) {
		return c.completeBranch(currentWord)
	}
	return nil, 0
}

// findWordStart returns the index just past the last space or tab.
func findWordStart(s string) int {
	lastSpace := strings.LastIndex(s, " ")
	lastTab := strings.LastIndex(s, "\t")
	if lastTab > lastSpace {
		lastSpace = lastTab
	}
	return lastSpace + 1
}

// isBranchCommandContext reports whether the line starts with a command
// that takes branch names.
func (c *ShellCompleter) isBranchCommandContext(line string, wordStart int) bool {
	before := strings.TrimSpace(line[:wordStart])
	if !strings.HasPrefix(before, "/") {
		return false
	}
	name := strings.TrimPrefix(before, "/")
	if i := strings.IndexAny(name, " \t"); i != -1 {
		name = name[:i]
	}
	for _, bc := range branchCommands {
		if name == bc {
			return true
		}
	}
	return false
}

func (c *ShellCompleter) completeCommand(prefix string) ([][]rune, int) {
	cmdPrefix := strings.TrimPrefix(prefix, "/")

	var matches [][]rune
	for _, cmd := range commandNames() {
		if strings.HasPrefix(cmd, cmdPrefix) {
			matches = append(matches, []rune(cmd[len(cmdPrefix):]+" "))
		}
	}
	return matches, len([]rune(prefix))
}

func (c *ShellCompleter) completeBranch(prefix string) ([][]rune, int) {
	if c.branches == nil {
		return nil, 0
	}

	var matches [][]rune
	for _, name := range c.branches() {
		if strings.HasPrefix(name, prefix) {
			matches = append(matches, []rune(name[len(prefix):]+" "))
		}
	}
	return matches, len([]rune(prefix))
}
