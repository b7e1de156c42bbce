package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	nerrors "github.com/genecyber/NOESIS-sub002/pkg/errors"
	"github.com/genecyber/NOESIS-sub002/pkg/session"
)

const (
	gitSessionsDir = "sessions"
	gitAuthor      = "noesis"
	gitEmail       = "noesis@localhost"
)

// Revision is one commit touching a session file.
type Revision struct {
	Hash      string    `json:"hash"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// GitStore writes each session to sessions/<id>.json inside a git
// repository and commits every save.
type GitStore struct {
	repo *git.Repository
	root string
	now  func() time.Time

	mu sync.Mutex
}

// OpenGitStore opens the repository at path, initializing it if needed.
func OpenGitStore(path string) (*GitStore, error) {
	if path == "" {
		return nil, nerrors.New(nerrors.ErrStorageOpenFailed, nerrors.CategoryStorage, "path is required for git store")
	}
	repo, err := git.PlainOpen(path)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, nerrors.Wrap(err, nerrors.ErrStorageOpenFailed, nerrors.CategoryStorage, "failed to create repository directory").
				WithContext("path", path)
		}
		repo, err = git.PlainInit(path, false)
	}
	if err != nil {
		return nil, nerrors.Wrap(err, nerrors.ErrStorageOpenFailed, nerrors.CategoryStorage, "failed to open git repository").
			WithContext("path", path)
	}
	if err := os.MkdirAll(filepath.Join(path, gitSessionsDir), 0o755); err != nil {
		return nil, nerrors.Wrap(err, nerrors.ErrStorageOpenFailed, nerrors.CategoryStorage, "failed to create sessions directory")
	}
	return &GitStore{repo: repo, root: path, now: time.Now}, nil
}

func gitFile(id string) string {
	return gitSessionsDir + "/" + id + ".json"
}

func (s *GitStore) commit(message string) error {
	worktree, err := s.repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}
	status, err := worktree.Status()
	if err != nil {
		return fmt.Errorf("worktree status: %w", err)
	}
	if status.IsClean() {
		return nil
	}
	_, err = worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  gitAuthor,
			Email: gitEmail,
			When:  s.now(),
		},
	})
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Save implements Store.
func (s *GitStore) Save(_ context.Context, rec *session.Record) error {
	data, err := rec.Marshal()
	if err != nil {
		return writeFailed(err, rec.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := gitFile(rec.ID)
	if err := os.WriteFile(filepath.Join(s.root, name), append(data, '\n'), 0o644); err != nil {
		return writeFailed(err, rec.ID)
	}
	worktree, err := s.repo.Worktree()
	if err != nil {
		return writeFailed(err, rec.ID)
	}
	if _, err := worktree.Add(name); err != nil {
		return writeFailed(fmt.Errorf("git add: %w", err), rec.ID)
	}
	if err := s.commit(fmt.Sprintf("Save session %s (%s)", rec.Name, rec.ID)); err != nil {
		return writeFailed(err, rec.ID)
	}
	return nil
}

// Load implements Store. It reads the working tree copy, which always
// matches the latest commit.
func (s *GitStore) Load(_ context.Context, id string) (*session.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.root, gitFile(id)))
	if errors.Is(err, os.ErrNotExist) {
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
func (s *GitStore) List(ctx context.Context) ([]Summary, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, gitSessionsDir))
	if err != nil {
		return nil, nerrors.Wrap(err, nerrors.ErrStorageReadFailed, nerrors.CategoryStorage, "failed to list sessions")
	}

	out := make([]Summary, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		rec, err := s.Load(ctx, strings.TrimSuffix(e.Name(), ".json"))
		if err != nil {
			return nil, err
		}
		out = append(out, summarize(rec))
	}
	sortSummaries(out)
	return out, nil
}

// Delete implements Store. The file is removed in a new commit; earlier
// revisions stay in history.
func (s *GitStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := gitFile(id)
	if _, err := os.Stat(filepath.Join(s.root, name)); errors.Is(err, os.ErrNotExist) {
		return notFound(id)
	}
	worktree, err := s.repo.Worktree()
	if err != nil {
		return writeFailed(err, id)
	}
	if _, err := worktree.Remove(name); err != nil {
		return writeFailed(fmt.Errorf("git rm: %w", err), id)
	}
	if err := s.commit("Delete session " + id); err != nil {
		return writeFailed(err, id)
	}
	return nil
}

// History returns the commits that touched a session, newest first. A
// limit of zero returns all of them.
func (s *GitStore) History(_ context.Context, id string, limit int) ([]Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := gitFile(id)
	iter, err := s.repo.Log(&git.LogOptions{FileName: &name})
	if err != nil {
		return nil, readFailed(fmt.Errorf("read log: %w", err), id)
	}
	defer iter.Close()

	var out []Revision
	err = iter.ForEach(func(c *object.Commit) error {
		out = append(out, Revision{
			Hash:      c.Hash.String()[:7],
			Message:   strings.TrimSpace(c.Message),
			CreatedAt: c.Author.When,
		})
		if limit > 0 && len(out) >= limit {
			return io.EOF
		}
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, readFailed(fmt.Errorf("iterate log: %w", err), id)
	}
	return out, nil
}

// Close implements Store.
func (s *GitStore) Close() error { return nil }
