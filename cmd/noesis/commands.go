package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	configPath string
	logLevel   string
	noColor    bool

	// shell
	sessionName string
	resumeID    string

	// serve
	serveHost string
	servePort int

	// export
	exportDir string

	// sessions history
	historyLimit int

	rootCmd = &cobra.Command{
		Use:   "noesis",
		Short: "Version control for an evolving persona stance",
		Long: `NOESIS records how a persona's stance evolves across a conversation.
Conversations branch, merge and travel back in time; identity checkpoints
fingerprint the stance so drift can be measured and rolled back.

Run without a command to start the interactive shell.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runShell,
	}

	shellCmd = &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive shell",
		Args:  cobra.NoArgs,
		RunE:  runShell,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API, WebSocket events and metrics",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	}

	exportCmd = &cobra.Command{
		Use:   "export <session-id>",
		Short: "Export a saved session's timeline and branches as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  runExport,
	}

	sessionsCmd = &cobra.Command{
		Use:   "sessions",
		Short: "List saved sessions",
		Args:  cobra.NoArgs,
		RunE:  runListSessions,
	}

	deleteSessionCmd = &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a saved session",
		Args:  cobra.ExactArgs(1),
		RunE:  runDeleteSession,
	}

	historySessionCmd = &cobra.Command{
		Use:   "history <session-id>",
		Short: "Show the save history of a session (git storage only)",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionHistory,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "NOESIS %s\n", version)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Config file path (default: ./noesis.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override logging.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	for _, cmd := range []*cobra.Command{rootCmd, shellCmd} {
		cmd.Flags().StringVarP(&sessionName, "session", "s", "", "Session name (default: session.name)")
		cmd.Flags().StringVar(&resumeID, "resume", "", "Resume a saved session by id")
	}
	rootCmd.AddCommand(shellCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "Override server.host")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Override server.port")
	rootCmd.AddCommand(serveCmd)

	rootCmd.AddCommand(initCmd)

	exportCmd.Flags().StringVarP(&exportDir, "out", "o", "", "Output directory (default: session.export_path/<id>)")
	rootCmd.AddCommand(exportCmd)

	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(deleteSessionCmd)
	historySessionCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum revisions to show (0 for all)")
	sessionsCmd.AddCommand(historySessionCmd)

	rootCmd.AddCommand(versionCmd)
}
