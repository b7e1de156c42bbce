// Package store persists session records.
//
// Four backends share one interface:
//
//	memory  in-process map, for tests and throwaway sessions
//	badger  embedded key-value store, the default local backend
//	redis   shared store with optional expiry
//	git     one commit per save, giving an auditable history
package store

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/genecyber/NOESIS-sub002/pkg/config"
	nerrors "github.com/genecyber/NOESIS-sub002/pkg/errors"
	"github.com/genecyber/NOESIS-sub002/pkg/session"
)

// Store saves and loads session records by id.
type Store interface {
	Save(ctx context.Context, rec *session.Record) error
	Load(ctx context.Context, id string) (*session.Record, error)
	List(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// Summary identifies a stored session without loading it.
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
}

func summarize(rec *session.Record) Summary {
	return Summary{ID: rec.ID, Name: rec.Name, UpdatedAt: rec.UpdatedAt}
}

func sortSummaries(s []Summary) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].UpdatedAt.Equal(s[j].UpdatedAt) {
			return s[i].ID < s[j].ID
		}
		return s[i].UpdatedAt.After(s[j].UpdatedAt)
	})
}

// Open creates the store selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case config.BackendMemory:
		s = NewMemoryStore()
	case config.BackendBadger:
		s, err = openBadger(BadgerConfig{Path: cfg.Path, SyncWrites: true, Logger: logger})
	case config.BackendRedis:
		s, err = openRedis(ctx, cfg.RedisURL, time.Duration(cfg.TTLHours)*time.Hour)
	case config.BackendGit:
		s, err = openGit(cfg.Path)
	default:
		return nil, nerrors.Newf(nerrors.ErrStorageOpenFailed, nerrors.CategoryStorage, "unknown storage backend %q", cfg.Backend).
			WithSuggestion("Use one of: memory, badger, redis, git")
	}
	if err != nil {
		return nil, err
	}
	logger.Info("store opened", zap.String("backend", cfg.Backend))
	return s, nil
}

func openBadger(cfg BadgerConfig) (Store, error) {
	s, err := OpenBadger(cfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func openRedis(ctx context.Context, url string, ttl time.Duration) (Store, error) {
	s, err := NewRedisStore(ctx, url, ttl)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func openGit(path string) (Store, error) {
	s, err := OpenGitStore(path)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func notFound(id string) error {
	return nerrors.New(nerrors.ErrStorageNotFound, nerrors.CategoryStorage, "session not found in store").
		WithContext("session", id).
		WithSuggestion("Use 'noesis sessions' to list saved sessions")
}

func readFailed(err error, id string) error {
	return nerrors.Wrap(err, nerrors.ErrStorageReadFailed, nerrors.CategoryStorage, "failed to read session").
		WithContext("session", id)
}

func writeFailed(err error, id string) error {
	return nerrors.Wrap(err, nerrors.ErrStorageWriteFailed, nerrors.CategoryStorage, "failed to write session").
		WithContext("session", id)
}
