package session

import (
	"sort"
	"sync"

	"github.com/genecyber/NOESIS-sub002/pkg/config"
	nerrors "github.com/genecyber/NOESIS-sub002/pkg/errors"
	"github.com/genecyber/NOESIS-sub002/pkg/metrics"
)

// Registry manages multiple sessions with thread-safe access.
type Registry struct {
	sessions map[string]*Session
	cfg      *config.Config
	opts     []Option
	metrics  *metrics.Metrics

	mu sync.RWMutex
}

// NewRegistry creates a registry. cfg and opts are applied to sessions it
// creates or loads.
func NewRegistry(cfg *config.Config, m *metrics.Metrics, opts ...Option) *Registry {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Registry{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		opts:     append(append([]Option(nil), opts...), WithMetrics(m)),
		metrics:  m,
	}
}

// Register adds a session to the registry.
func (r *Registry) Register(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[s.ID]; exists {
		return nerrors.New(nerrors.ErrSessionAlreadyExists, nerrors.CategorySession, "session already registered").
			WithContext("session", s.ID)
	}
	r.sessions[s.ID] = s
	r.metrics.SessionOpened()
	return nil
}

// Get retrieves a session by id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Lookup retrieves a session by id, returning a structured error if absent.
func (r *Registry) Lookup(id string) (*Session, error) {
	s, ok := r.Get(id)
	if !ok {
		return nil, nerrors.New(nerrors.ErrSessionNotFound, nerrors.CategorySession, "session not found").
			WithContext("session", id).
			WithSuggestion("List sessions with GET /api/sessions")
	}
	return s, nil
}

// List returns all sessions ordered by creation time.
func (r *Registry) List() []*Session {
	r.mu.RLock()
	result := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		result = append(result, s)
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Unregister removes a session from the registry.
func (r *Registry) Unregister(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[id]; !exists {
		return nerrors.New(nerrors.ErrSessionNotFound, nerrors.CategorySession, "session not registered").
			WithContext("session", id)
	}
	delete(r.sessions, id)
	r.metrics.SessionClosed()
	return nil
}

// Create creates a new session and registers it in one operation.
func (r *Registry) Create(name string) (*Session, error) {
	if name == "" {
		name = r.cfg.Session.Name
	}
	s, err := New(name, r.cfg, r.opts...)
	if err != nil {
		return nil, err
	}
	if err := r.Register(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Load rebuilds a session from a record and registers it.
func (r *Registry) Load(rec *Record) (*Session, error) {
	s, err := FromRecord(rec, r.cfg, r.opts...)
	if err != nil {
		return nil, err
	}
	if err := r.Register(s); err != nil {
		return nil, err
	}
	return s, nil
}
