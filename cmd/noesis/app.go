package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/genecyber/NOESIS-sub002/pkg/config"
	nerrors "github.com/genecyber/NOESIS-sub002/pkg/errors"
	"github.com/genecyber/NOESIS-sub002/pkg/help"
	"github.com/genecyber/NOESIS-sub002/pkg/logging"
	"github.com/genecyber/NOESIS-sub002/pkg/session"
	"github.com/genecyber/NOESIS-sub002/pkg/store"
)

// app holds what every command needs: configuration, a logger and an
// optional session store.
type app struct {
	cfg     *config.Config
	cfgPath string
	logger  *zap.Logger
	store   store.Store
}

func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

// loadApp reads the config and builds the logger. Interactive commands never
// log to the console, which belongs to the shell.
func loadApp(interactive bool) (*app, error) {
	if noColor {
		color.NoColor = true
	}

	path := resolveConfigPath()
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	lc := cfg.Logging
	if interactive {
		lc.Console = false
	}
	logger, err := logging.New(lc)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, cfgPath: path, logger: logger}, nil
}

// openStore opens the configured store.
func (a *app) openStore(ctx context.Context) error {
	st, err := store.Open(ctx, a.cfg.Storage, a.logger)
	if err != nil {
		return err
	}
	a.store = st
	return nil
}

// requireStore opens the store or fails with a config error.
func (a *app) requireStore(ctx context.Context) error {
	if err := a.openStore(ctx); err != nil {
		return nerrors.Wrap(err, nerrors.ErrConfigInvalid, nerrors.CategoryConfig, "session store is unavailable").
			WithContext("backend", a.cfg.Storage.Backend).
			WithSuggestion("Check storage settings in " + a.cfgPath)
	}
	return nil
}

// openSession resumes id from the store, or starts a new session.
func (a *app) openSession(ctx context.Context, name, id string) (*session.Session, error) {
	opts := []session.Option{session.WithLogger(a.logger)}
	if id == "" {
		if name == "" {
			name = a.cfg.Session.Name
		}
		return session.New(name, a.cfg, opts...)
	}

	if a.store == nil {
		return nil, nerrors.New(nerrors.ErrConfigInvalid, nerrors.CategoryConfig, "cannot resume without a session store").
			WithContext("session", id)
	}
	rec, err := a.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return session.FromRecord(rec, a.cfg, opts...)
}

// saveSessions writes every session to the store, logging failures.
func (a *app) saveSessions(ctx context.Context, sessions ...*session.Session) int {
	if a.store == nil {
		return 0
	}
	saved := 0
	for _, s := range sessions {
		if err := a.store.Save(ctx, s.Record()); err != nil {
			a.logger.Error("session save failed", zap.String("session", s.ID), zap.Error(err))
			continue
		}
		saved++
	}
	return saved
}

func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("store close failed", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

// printBanner writes the startup box.
func printBanner(w io.Writer, a *app, title string) {
	box := help.NewBox(59)
	fmt.Fprintln(w, box.Top())
	fmt.Fprintln(w, box.Row(fmt.Sprintf("  NOESIS %s - %s", version, title)))
	fmt.Fprintln(w, box.Bottom())
	fmt.Fprintln(w)

	if _, err := os.Stat(a.cfgPath); err == nil {
		fmt.Fprintf(w, "Config:  %s\n", a.cfgPath)
	} else {
		fmt.Fprintf(w, "Config:  (using defaults, run 'noesis init' to create)\n")
	}
	storage := "disabled"
	if a.store != nil {
		storage = a.cfg.Storage.Backend
	}
	fmt.Fprintf(w, "Storage: %s\n", storage)
}
