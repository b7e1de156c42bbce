package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/genecyber/NOESIS-sub002/pkg/config"
	nerrors "github.com/genecyber/NOESIS-sub002/pkg/errors"
	"github.com/genecyber/NOESIS-sub002/pkg/export"
	"github.com/genecyber/NOESIS-sub002/pkg/session"
	"github.com/genecyber/NOESIS-sub002/pkg/store"
)

func runInit(cmd *cobra.Command, args []string) error {
	path := resolveConfigPath()
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Config already exists: %s\n", path)
		return nil
	}
	if err := config.InitConfig(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created config: %s\n", path)
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := loadApp(false)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireStore(ctx); err != nil {
		return err
	}

	id := args[0]
	rec, err := a.store.Load(ctx, id)
	if err != nil {
		return err
	}
	sess, err := session.FromRecord(rec, a.cfg, session.WithLogger(a.logger))
	if err != nil {
		return err
	}

	dir := exportDir
	if dir == "" {
		dir = filepath.Join(a.cfg.Session.ExportPath, sess.ID)
	}
	files, err := export.WriteFiles(dir, sess.Identity.Timeline(), sess.Branches.List(true), export.DefaultCSVConfig())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %s\n  %s\n  %s\n", sess.Name, files.Timeline, files.Branches)
	return nil
}

func runListSessions(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := loadApp(false)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireStore(ctx); err != nil {
		return err
	}

	summaries, err := a.store.List(ctx)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No saved sessions.")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tUPDATED")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.ID, s.Name, s.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func runDeleteSession(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := loadApp(false)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireStore(ctx); err != nil {
		return err
	}

	if err := a.store.Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", args[0])
	return nil
}

// revisionLister is implemented by stores that keep per-session history.
type revisionLister interface {
	History(ctx context.Context, id string, limit int) ([]store.Revision, error)
}

func runSessionHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := loadApp(false)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireStore(ctx); err != nil {
		return err
	}

	hs, ok := a.store.(revisionLister)
	if !ok {
		return nerrors.Newf(nerrors.ErrConfigInvalid, nerrors.CategoryConfig,
			"storage backend %q keeps no history", a.cfg.Storage.Backend).
			WithSuggestion("Set storage.backend to git to record every save")
	}
	revs, err := hs.History(ctx, args[0], historyLimit)
	if err != nil {
		return err
	}
	if len(revs) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No history for %s\n", args[0])
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, r := range revs {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Hash, r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Message)
	}
	return tw.Flush()
}
