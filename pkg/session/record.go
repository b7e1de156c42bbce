package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/genecyber/NOESIS-sub002/branch"
	"github.com/genecyber/NOESIS-sub002/identity"
	"github.com/genecyber/NOESIS-sub002/pkg/config"
)

// Record is the serializable form of a whole session. Travel snapshots are
// not part of it; they only live until they are turned into branches.
type Record struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	IdentityConfig identity.Config `json:"identity_config"`
	Branches       branch.State    `json:"branches"`
	Identity       identity.State  `json:"identity"`
}

// Record captures the session's current state.
func (s *Session) Record() *Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &Record{
		ID:             s.ID,
		Name:           s.Name,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.updatedAt,
		IdentityConfig: s.Identity.Config(),
		Branches:       s.Branches.Export(),
		Identity:       s.Identity.Export(),
	}
}

// FromRecord rebuilds a session from rec. The record's identity settings
// win over cfg; cfg supplies everything else.
func FromRecord(rec *Record, cfg *config.Config, opts ...Option) (*Session, error) {
	if rec == nil || rec.ID == "" {
		return nil, fmt.Errorf("session: record has no id")
	}
	if cfg == nil {
		cfg = config.Default()
	}
	merged := *cfg
	if rec.IdentityConfig.Validate() == nil {
		merged.Identity = rec.IdentityConfig
	}

	s, err := newSession(rec.ID, rec.Name, &merged, opts)
	if err != nil {
		return nil, err
	}
	if err := s.Branches.Import(rec.Branches); err != nil {
		return nil, fmt.Errorf("session %s: %w", rec.ID, err)
	}
	if err := s.Identity.Import(rec.Identity); err != nil {
		return nil, fmt.Errorf("session %s: %w", rec.ID, err)
	}
	s.CreatedAt = rec.CreatedAt
	s.updatedAt = rec.UpdatedAt
	return s, nil
}

// Marshal encodes a record as indented JSON.
func (r *Record) Marshal() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// UnmarshalRecord decodes a record produced by Marshal.
func UnmarshalRecord(data []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("session: decode record: %w", err)
	}
	return &r, nil
}
