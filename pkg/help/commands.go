package help

import "strings"

// Category groups commands in help output.
type Category string

const (
	// CategoryConversation: /stance, /set, /frame, /history, /diff
	CategoryConversation Category = "conversation"

	// CategoryBranching: /branch, /branches, /switch, /compare, /merge,
	// /archive, /unarchive, /delete, /tree
	CategoryBranching Category = "branching"

	// CategoryTimeTravel: /travel, /rewind, /forget
	CategoryTimeTravel Category = "timetravel"

	// CategoryIdentity: /checkpoint, /timeline, /rollback, /fingerprint,
	// /values, /value
	CategoryIdentity Category = "identity"

	// CategorySession: /status, /save, /export
	CategorySession Category = "session"

	// CategoryGeneral: /help, /quit
	CategoryGeneral Category = "general"
)

// CategoryInfo provides display metadata for a command category.
type CategoryInfo struct {
	DisplayName string
	Icon        string
}

// CategoryOrder defines the order in which categories appear in help output.
var CategoryOrder = []Category{
	CategoryConversation,
	CategoryBranching,
	CategoryTimeTravel,
	CategoryIdentity,
	CategorySession,
	CategoryGeneral,
}

// Categories maps each Category to its display information.
var Categories = map[Category]CategoryInfo{
	CategoryConversation: {DisplayName: "Conversation & Stance", Icon: "💬"},
	CategoryBranching:    {DisplayName: "Branching", Icon: "🌿"},
	CategoryTimeTravel:   {DisplayName: "Time Travel", Icon: "⏪"},
	CategoryIdentity:     {DisplayName: "Identity Checkpoints", Icon: "🧭"},
	CategorySession:      {DisplayName: "Session", Icon: "📋"},
	CategoryGeneral:      {DisplayName: "General", Icon: "ℹ️"},
}

// DisplayName returns the human-readable display name for the category.
func (c Category) DisplayName() string {
	if info, ok := Categories[c]; ok {
		return info.DisplayName
	}
	return string(c)
}

// Icon returns the icon for the category.
func (c Category) Icon() string {
	if info, ok := Categories[c]; ok {
		return info.Icon
	}
	return ""
}

// Command is a shell command with its help metadata.
type Command struct {
	// Name includes the leading slash, e.g. "/help".
	Name string

	// Shortcut is an optional short alias, e.g. "/h".
	Shortcut string

	Category    Category
	Description string

	// Usage shows the syntax, e.g. "/branch <name> [index] [reason...]".
	Usage string

	Examples []Example
}

// Example is a concrete invocation of a command.
type Example struct {
	Command     string
	Description string
}

// Commands is the registry of shell commands. The shell dispatches on
// these names and the completer offers them.
var Commands = []Command{
	{
		Name:        "/stance",
		Category:    CategoryConversation,
		Description: "Show the active branch's stance",
		Usage:       "/stance",
	},
	{
		Name:        "/set",
		Category:    CategoryConversation,
		Description: "Set a value dimension (0-100)",
		Usage:       "/set <dimension> <value>",
		Examples: []Example{
			{Command: "/set curiosity 85", Description: "Raise curiosity to 85"},
			{Command: "/set pr 10", Description: "Two-letter keys work too"},
		},
	},
	{
		Name:        "/frame",
		Category:    CategoryConversation,
		Description: "Switch the thinking frame",
		Usage:       "/frame <frame>",
		Examples: []Example{
			{Command: "/frame mythic", Description: "Reason through archetypes"},
		},
	},
	{
		Name:        "/history",
		Category:    CategoryConversation,
		Description: "Show recent messages on the active branch",
		Usage:       "/history [n]",
		Examples: []Example{
			{Command: "/history 5", Description: "Show the last 5 messages"},
		},
	},
	{
		Name:        "/diff",
		Category:    CategoryConversation,
		Description: "Diff the current stance against the last checkpoint",
		Usage:       "/diff",
	},

	{
		Name:        "/branch",
		Shortcut:    "/b",
		Category:    CategoryBranching,
		Description: "Fork the active branch",
		Usage:       "/branch <name> [index] [reason...]",
		Examples: []Example{
			{Command: "/branch skeptic", Description: "Fork at the latest message"},
			{Command: "/branch retry 3 wrong turn", Description: "Fork at message 3 with a reason"},
		},
	},
	{
		Name:        "/branches",
		Shortcut:    "/br",
		Category:    CategoryBranching,
		Description: "List branches, including archived ones",
		Usage:       "/branches",
	},
	{
		Name:        "/switch",
		Category:    CategoryBranching,
		Description: "Make a branch active",
		Usage:       "/switch <branch>",
		Examples: []Example{
			{Command: "/switch main", Description: "Go back to the root branch"},
		},
	},
	{
		Name:        "/compare",
		Category:    CategoryBranching,
		Description: "Compare two branches",
		Usage:       "/compare <a> <b>",
		Examples: []Example{
			{Command: "/compare main skeptic", Description: "Show divergence and stance delta"},
		},
	},
	{
		Name:        "/merge",
		Category:    CategoryBranching,
		Description: "Merge a branch into the active branch",
		Usage:       "/merge <source> [frame=target|source|manual] [selfmodel=...]",
		Examples: []Example{
			{Command: "/merge skeptic", Description: "Keep the active branch's stance"},
			{Command: "/merge skeptic frame=source", Description: "Take the source frame"},
		},
	},
	{
		Name:        "/archive",
		Category:    CategoryBranching,
		Description: "Archive a branch",
		Usage:       "/archive <branch>",
	},
	{
		Name:        "/unarchive",
		Category:    CategoryBranching,
		Description: "Restore an archived branch",
		Usage:       "/unarchive <branch>",
	},
	{
		Name:        "/delete",
		Category:    CategoryBranching,
		Description: "Delete an archived branch",
		Usage:       "/delete <branch>",
	},
	{
		Name:        "/tree",
		Category:    CategoryBranching,
		Description: "Show the branch tree",
		Usage:       "/tree",
	},

	{
		Name:        "/travel",
		Category:    CategoryTimeTravel,
		Description: "Snapshot a branch at a past message",
		Usage:       "/travel <branch> <index>",
		Examples: []Example{
			{Command: "/travel main 2", Description: "Inspect main as of message 2"},
		},
	},
	{
		Name:        "/rewind",
		Category:    CategoryTimeTravel,
		Description: "Fork a new branch from a snapshot",
		Usage:       "/rewind <snapshot> <name>",
		Examples: []Example{
			{Command: "/rewind 1f3a retry", Description: "Branch from snapshot 1f3a"},
		},
	},
	{
		Name:        "/forget",
		Category:    CategoryTimeTravel,
		Description: "Drop a snapshot that is no longer needed",
		Usage:       "/forget <snapshot>",
	},

	{
		Name:        "/checkpoint",
		Shortcut:    "/cp",
		Category:    CategoryIdentity,
		Description: "Record an identity checkpoint",
		Usage:       "/checkpoint <name> [--milestone label]",
		Examples: []Example{
			{Command: "/checkpoint calm", Description: "Plain checkpoint"},
			{Command: "/checkpoint shift --milestone awakening", Description: "Milestone, never pruned"},
		},
	},
	{
		Name:        "/timeline",
		Shortcut:    "/tl",
		Category:    CategoryIdentity,
		Description: "Show the checkpoint timeline",
		Usage:       "/timeline",
	},
	{
		Name:        "/rollback",
		Category:    CategoryIdentity,
		Description: "Restore the stance stored in a checkpoint",
		Usage:       "/rollback <checkpoint>",
		Examples: []Example{
			{Command: "/rollback 4c1e", Description: "Id prefixes from /timeline work"},
		},
	},
	{
		Name:        "/fingerprint",
		Category:    CategoryIdentity,
		Description: "Show the current identity fingerprint",
		Usage:       "/fingerprint",
	},
	{
		Name:        "/values",
		Category:    CategoryIdentity,
		Description: "List core values",
		Usage:       "/values",
	},
	{
		Name:        "/value",
		Category:    CategoryIdentity,
		Description: "Add or reinforce a core value",
		Usage:       "/value <name> <strength> <description...>",
		Examples: []Example{
			{Command: "/value candor 60 Say the true thing", Description: "Add candor at strength 60"},
		},
	},
	{
		Name:        "/decay",
		Category:    CategoryIdentity,
		Description: "Weaken every core value, dropping those that fall away",
		Usage:       "/decay <amount>",
		Examples: []Example{
			{Command: "/decay 10", Description: "Values below the threshold with fewer than 3 reinforcements are dropped"},
		},
	},

	{
		Name:        "/status",
		Shortcut:    "/st",
		Category:    CategorySession,
		Description: "Show session status",
		Usage:       "/status",
	},
	{
		Name:        "/save",
		Category:    CategorySession,
		Description: "Save the session to the configured store",
		Usage:       "/save",
	},
	{
		Name:        "/export",
		Category:    CategorySession,
		Description: "Write timeline and branch CSVs",
		Usage:       "/export <dir>",
		Examples: []Example{
			{Command: "/export ./out", Description: "Write out/timeline.csv and out/branches.csv"},
		},
	},

	{
		Name:        "/help",
		Shortcut:    "/h",
		Category:    CategoryGeneral,
		Description: "Show this help message",
		Usage:       "/help [command]",
		Examples: []Example{
			{Command: "/help", Description: "Show all commands"},
			{Command: "/help merge", Description: "Show detailed /merge help"},
		},
	},
	{
		Name:        "/quit",
		Shortcut:    "/q",
		Category:    CategoryGeneral,
		Description: "Exit noesis",
		Usage:       "/quit",
	},
}

// GetCommandsByCategory returns all commands in a given category.
func GetCommandsByCategory(cat Category) []Command {
	var result []Command
	for _, cmd := range Commands {
		if cmd.Category == cat {
			result = append(result, cmd)
		}
	}
	return result
}

// GetCommand returns a command by name or shortcut, with or without the
// leading slash.
func GetCommand(name string) (Command, bool) {
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	for _, cmd := range Commands {
		if cmd.Name == name || (cmd.Shortcut != "" && cmd.Shortcut == name) {
			return cmd, true
		}
	}
	return Command{}, false
}

// Names returns every command name and shortcut.
func Names() []string {
	names := make([]string, 0, len(Commands)*2)
	for _, cmd := range Commands {
		names = append(names, cmd.Name)
		if cmd.Shortcut != "" {
			names = append(names, cmd.Shortcut)
		}
	}
	return names
}
