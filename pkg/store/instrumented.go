package store

import (
	"context"

	nerrors "github.com/genecyber/NOESIS-sub002/pkg/errors"
	"github.com/genecyber/NOESIS-sub002/pkg/metrics"
	"github.com/genecyber/NOESIS-sub002/pkg/session"
)

// WithMetrics wraps st so that every failed operation is counted in m.
// A missing session is not a failure.
func WithMetrics(st Store, m *metrics.Metrics) Store {
	if st == nil || m == nil {
		return st
	}
	return &instrumented{Store: st, m: m}
}

type instrumented struct {
	Store
	m *metrics.Metrics
}

func (s *instrumented) observe(op string, err error) error {
	if err != nil && !nerrors.IsCode(err, nerrors.ErrStorageNotFound) {
		s.m.StorageError(op)
	}
	return err
}

func (s *instrumented) Save(ctx context.Context, rec *session.Record) error {
	return s.observe("save", s.Store.Save(ctx, rec))
}

func (s *instrumented) Load(ctx context.Context, id string) (*session.Record, error) {
	rec, err := s.Store.Load(ctx, id)
	return rec, s.observe("load", err)
}

func (s *instrumented) List(ctx context.Context) ([]Summary, error) {
	out, err := s.Store.List(ctx)
	return out, s.observe("list", err)
}

func (s *instrumented) Delete(ctx context.Context, id string) error {
	return s.observe("delete", s.Store.Delete(ctx, id))
}
