// Package fakeapi is an in-memory stand-in for the tracker's REST backend.
//
// It implements every track remote interface with real server semantics —
// id assignment, display-key allocation, updatedAt bumping — plus
// scriptable latency and failure injection. The REPL runs against it by
// default and the store tests use it as a high-fidelity collaborator.
package fakeapi

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mbirch/trackle/internal/track"
)

// Sentinel errors returned by fakeapi remotes.
var (
	// ErrNotFound indicates the target id does not exist server-side.
	ErrNotFound = errors.New("fakeapi: not found")

	// ErrUnknownUser indicates an assignee id with no user record.
	ErrUnknownUser = errors.New("fakeapi: unknown user")
)

// Server holds the authoritative state for one workspace.
type Server struct {
	mu sync.Mutex

	teamKey string
	actor   track.User
	now     func() time.Time
	latency time.Duration

	seq      int
	users    map[string]track.User
	issues   map[string]track.Issue
	tasks    map[string]track.Task
	comments map[string]track.Comment
	filters  map[string]track.SavedFilter

	// failNext maps an op name ("issues.update", "tasks.setNotes", ...) to
	// an error consumed by the next matching call.
	failNext map[string]error
}

// Option configures a Server.
type Option func(*Server)

// WithClock injects a deterministic time source.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithLatency makes every call sleep before answering.
func WithLatency(d time.Duration) Option {
	return func(s *Server) { s.latency = d }
}

// WithActor sets the user all writes are attributed to.
func WithActor(u track.User) Option {
	return func(s *Server) { s.actor = u }
}

// New creates a Server for one workspace. teamKey prefixes every allocated
// display key.
func New(teamKey string, opts ...Option) *Server {
	s := &Server{
		teamKey:  teamKey,
		actor:    track.User{ID: "u-demo", Name: "Demo User"},
		now:      time.Now,
		users:    make(map[string]track.User),
		issues:   make(map[string]track.Issue),
		tasks:    make(map[string]track.Task),
		comments: make(map[string]track.Comment),
		filters:  make(map[string]track.SavedFilter),
		failNext: make(map[string]error),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.users[s.actor.ID] = s.actor

	return s
}

// AddUser registers a resolvable user record.
func (s *Server) AddUser(u track.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[u.ID] = u
}

// FailNext makes the next call of the given op fail with err. Op names are
// "<domain>.<verb>", e.g. "issues.update", "comments.create".
func (s *Server) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failNext[op] = err
}

// gate applies injected latency and a pending failure for op. Called with
// the lock NOT held.
func (s *Server) gate(op string) error {
	if s.latency > 0 {
		time.Sleep(s.latency)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.failNext[op]; ok {
		delete(s.failNext, op)
		return err
	}

	return nil
}

// nextDisplayKey allocates "<teamKey>-<n>". Caller holds the lock.
func (s *Server) nextDisplayKey() string {
	s.seq++
	return fmt.Sprintf("%s-%d", s.teamKey, s.seq)
}

func newID() string {
	return uuid.NewString()
}

// SeedIssue inserts an issue directly, filling in server-owned fields when
// empty. Returns the stored record.
func (s *Server) SeedIssue(in track.Issue) track.Issue {
	s.mu.Lock()
	defer s.mu.Unlock()

	if in.ID == "" {
		in.ID = newID()
	}

	if in.DisplayKey == "" {
		in.DisplayKey = s.nextDisplayKey()
	}

	if in.Status == "" {
		in.Status = track.StatusBacklog
	}

	if in.CreatorName == "" {
		in.CreatorName = s.actor.Name
	}

	if in.CreatedAt.IsZero() {
		in.CreatedAt = s.now()
		in.UpdatedAt = in.CreatedAt
	}

	s.issues[in.ID] = in

	return in.Clone()
}

// SeedTask inserts a task directly. See SeedIssue.
func (s *Server) SeedTask(in track.Task) track.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	if in.ID == "" {
		in.ID = newID()
	}

	if in.DisplayKey == "" {
		in.DisplayKey = s.nextDisplayKey()
	}

	if in.Status == "" {
		in.Status = track.StatusTodo
	}

	if in.CreatedAt.IsZero() {
		in.CreatedAt = s.now()
		in.UpdatedAt = in.CreatedAt
	}

	s.tasks[in.ID] = in

	return in.Clone()
}

// SeedComment inserts a comment directly.
func (s *Server) SeedComment(in track.Comment) track.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()

	if in.ID == "" {
		in.ID = newID()
	}

	if in.AuthorName == "" {
		in.AuthorName = s.actor.Name
	}

	if in.CreatedAt.IsZero() {
		in.CreatedAt = s.now()
		in.UpdatedAt = in.CreatedAt
	}

	s.comments[in.ID] = in

	return in
}

// SeedFilter inserts a saved filter directly.
func (s *Server) SeedFilter(in track.SavedFilter) track.SavedFilter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if in.ID == "" {
		in.ID = newID()
	}

	s.filters[in.ID] = in

	return in
}

// resolveUsers maps ids to full user records. Caller holds the lock.
func (s *Server) resolveUsers(ids []string) ([]track.User, error) {
	out := make([]track.User, 0, len(ids))

	for _, id := range ids {
		u, ok := s.users[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownUser, id)
		}

		out = append(out, u)
	}

	return out, nil
}
