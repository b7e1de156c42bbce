package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/genecyber/NOESIS-sub002/pkg/shell"
)

func runShell(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := loadApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if err := a.openStore(ctx); err != nil {
		a.logger.Warn("store unavailable", zap.Error(err))
		fmt.Fprintf(out, "Warning: %v (saving disabled)\n", err)
	}

	sess, err := a.openSession(ctx, sessionName, resumeID)
	if err != nil {
		return err
	}

	printBanner(out, a, "Stance Versioning Shell")
	fmt.Fprintf(out, "Session: %s (%s)\n\n", sess.Name, shortID(sess.ID))

	historyFile := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".noesis_history")
	}

	sh := shell.New(sess, shell.Config{
		HistoryFile: historyFile,
		UseColor:    !noColor,
		ExportDir:   a.cfg.Session.ExportPath,
	}, shell.WithStore(a.store), shell.WithLogger(a.logger), shell.WithOutput(out))

	if err := sh.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if a.cfg.Session.AutoSave && a.saveSessions(context.Background(), sess) > 0 {
		fmt.Fprintf(out, "Session saved (%s)\n", sess.ID)
	}
	fmt.Fprintln(out, "Goodbye!")
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
