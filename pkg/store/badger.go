package store

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	nerrors "github.com/genecyber/NOESIS-sub002/pkg/errors"
	"github.com/genecyber/NOESIS-sub002/pkg/session"
)

const badgerPrefix = "session:"

// BadgerConfig holds settings for a BadgerStore.
type BadgerConfig struct {
	// Path is the database directory. Ignored when InMemory is true.
	Path string

	// InMemory keeps everything in RAM. Useful for tests.
	InMemory bool

	// SyncWrites fsyncs every write.
	SyncWrites bool

	// Logger receives Badger's internal log output. Nil disables it.
	Logger *zap.Logger
}

// badgerLogger adapts zap to Badger's Logger interface.
type badgerLogger struct {
	logger *zap.SugaredLogger
}

func (l *badgerLogger) Errorf(format string, args ...interface{})   { l.logger.Errorf(format, args...) }
func (l *badgerLogger) Warningf(format string, args ...interface{}) { l.logger.Warnf(format, args...) }
func (l *badgerLogger) Infof(format string, args ...interface{})    { l.logger.Infof(format, args...) }
func (l *badgerLogger) Debugf(format string, args ...interface{})   { l.logger.Debugf(format, args...) }

// BadgerStore keeps session records in an embedded BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens or creates a Badger database.
func OpenBadger(cfg BadgerConfig) (*BadgerStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, nerrors.New(nerrors.ErrStorageOpenFailed, nerrors.CategoryStorage, "path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, nerrors.Wrap(err, nerrors.ErrStorageOpenFailed, nerrors.CategoryStorage, "failed to create database directory").
				WithContext("path", cfg.Path)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger.Named("badger").Sugar()})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, nerrors.Wrap(err, nerrors.ErrStorageOpenFailed, nerrors.CategoryStorage, "failed to open badger database").
			WithContext("path", cfg.Path).
			WithSuggestion("Check that no other noesis process holds the database")
	}
	return &BadgerStore{db: db}, nil
}

func badgerKey(id string) []byte {
	return []byte(badgerPrefix + id)
}

// Save implements Store.
func (s *BadgerStore) Save(_ context.Context, rec *session.Record) error {
	data, err := rec.Marshal()
	if err != nil {
		return writeFailed(err, rec.ID)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(rec.ID), data)
	})
	if err != nil {
		return writeFailed(err, rec.ID)
	}
	return nil
}

// Load implements Store.
func (s *BadgerStore) Load(_ context.Context, id string) (*session.Record, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(id))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, readFailed(err, id)
	}
	rec, err := session.UnmarshalRecord(data)
	if err != nil {
		return nil, readFailed(err, id)
	}
	return rec, nil
}

// List implements Store.
func (s *BadgerStore) List(_ context.Context) ([]Summary, error) {
	var out []Summary
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(badgerPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			data, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			rec, err := session.UnmarshalRecord(data)
			if err != nil {
				return fmt.Errorf("key %s: %w", item.Key(), err)
			}
			out = append(out, summarize(rec))
		}
		return nil
	})
	if err != nil {
		return nil, nerrors.Wrap(err, nerrors.ErrStorageReadFailed, nerrors.CategoryStorage, "failed to list sessions")
	}
	sortSummaries(out)
	return out, nil
}

// Delete implements Store.
func (s *BadgerStore) Delete(_ context.Context, id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(badgerKey(id)); err != nil {
			return err
		}
		return txn.Delete(badgerKey(id))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return notFound(id)
	}
	if err != nil {
		return writeFailed(err, id)
	}
	return nil
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
