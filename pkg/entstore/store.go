package entstore

import (
	"context"
	"fmt"
	"sync"
)

// Config wires a Store to one entity domain.
type Config[R Record[R]] struct {
	// Entity is the singular type name used in operation keys, e.g. "Issue"
	// (yielding keys like "updateIssue_<id>" and "fetchIssues").
	Entity string

	// Label is the human name used in notifications, e.g. "saved filter".
	// Defaults to Entity lowercased.
	Label string

	// Remote is the server-side collaborator for this domain.
	Remote Remote[R]

	// Policy classifies which patch fields may be applied optimistically.
	Policy Policy

	// Apply merges a patch into a record for the optimistic local write.
	// It must not mutate its input.
	Apply func(R, Patch) R

	// Merge reconciles a pessimistic server response into the local record,
	// preserving sub-collections the response does not echo. Nil means the
	// server record replaces the local one verbatim.
	Merge func(local, server R) R
}

// Store holds one entity domain's normalized table, operation ledger and
// selection pointer, and coordinates optimistic/pessimistic mutations
// against the domain's Remote. Construct with [New]; the zero value is not
// usable.
type Store[R Record[R]] struct {
	cfg      Config[R]
	notifier Notifier
	logf     func(format string, args ...any)

	mu       sync.RWMutex
	tbl      *table[R]
	ldg      *ledger
	selected string

	subMu   sync.Mutex
	subs    map[int]func()
	nextSub int

	inflight sync.WaitGroup
}

// New creates a Store for one entity domain.
func New[R Record[R]](cfg Config[R], opts ...Option) *Store[R] {
	if cfg.Label == "" {
		cfg.Label = lowerFirst(cfg.Entity)
	}

	s := &Store[R]{
		cfg:      cfg,
		notifier: NopNotifier{},
		logf:     func(string, ...any) {},
		tbl:      newTable[R](),
		ldg:      newLedger(),
		subs:     make(map[int]func()),
	}

	for _, opt := range opts {
		opt.apply(&s.notifier, &s.logf)
	}

	return s
}

// Fetch hydrates the table from the server, replacing local content and
// mirroring the server's order. Progress and errors live under [Store.FetchKey].
func (s *Store[R]) Fetch(ctx context.Context, parentID string) {
	key := s.FetchKey()

	s.begin(key)

	s.spawn(func() {
		recs, err := s.cfg.Remote.List(ctx, parentID)

		s.mu.Lock()
		s.ldg.end(key)

		if err != nil {
			s.ldg.fail(key, err.Error())
			s.mu.Unlock()

			s.logf("%s: %v", key, err)
			s.notifier.Failure(fmt.Sprintf("Couldn't load %ss", s.cfg.Label))
			s.publish()

			return
		}

		s.tbl.reset(recs)

		if _, ok := s.tbl.get(s.selected); !ok {
			s.selected = ""
		}

		s.mu.Unlock()
		s.publish()
	})
}

// Create asks the server for a new record and prepends it to the table
// (newest first). Never optimistic: the id is server-assigned and unknown
// beforehand.
func (s *Store[R]) Create(ctx context.Context, payload Patch) {
	key := s.CreateKey()

	s.begin(key)

	s.spawn(func() {
		rec, err := s.cfg.Remote.Create(ctx, payload.compact())

		s.mu.Lock()
		s.ldg.end(key)

		if err != nil {
			s.ldg.fail(key, err.Error())
			s.mu.Unlock()

			s.logf("%s: %v", key, err)
			s.notifier.Failure(fmt.Sprintf("Couldn't create %s", s.cfg.Label))
			s.publish()

			return
		}

		s.tbl.prepend(rec)
		s.mu.Unlock()

		s.notifier.Success(fmt.Sprintf("Created %s", s.cfg.Label))
		s.publish()
	})
}

// Update applies a generic field patch. Empty/nil values mean "do not
// change" and are dropped; a patch whose remaining fields are all
// optimistic-safe takes the optimistic path, anything else waits for the
// server. A patch that compacts to nothing is a no-op.
func (s *Store[R]) Update(ctx context.Context, id string, patch Patch) {
	patch = patch.compact()
	if len(patch) == 0 {
		return
	}

	verb := "update" + s.cfg.Entity
	call := func(ctx context.Context) (R, bool, error) {
		rec, err := s.cfg.Remote.Update(ctx, id, patch)
		return rec, err == nil, err
	}

	if s.cfg.Policy.AllowsOptimistic(patch) {
		s.Optimistic(ctx, verb, id, func(rec R) R {
			return s.cfg.Apply(rec, patch)
		}, call)

		return
	}

	s.Pessimistic(ctx, verb, id, call)
}

// Delete removes the record server-side, then drops it from both the table
// and the id order atomically. Deleting the selected record clears the
// selection. Never optimistic.
func (s *Store[R]) Delete(ctx context.Context, id string) {
	key := OpKey("delete"+s.cfg.Entity, id)

	s.begin(key)

	s.spawn(func() {
		err := s.cfg.Remote.Delete(ctx, id)

		s.mu.Lock()
		s.ldg.end(key)

		if err != nil {
			s.ldg.fail(key, err.Error())
			s.mu.Unlock()

			s.logf("%s: %v", key, err)
			s.notifier.Failure(fmt.Sprintf("Couldn't delete %s", s.cfg.Label))
			s.publish()

			return
		}

		s.tbl.remove(id)

		if s.selected == id {
			s.selected = ""
		}

		s.mu.Unlock()

		s.notifier.Success(fmt.Sprintf("Deleted %s", s.cfg.Label))
		s.publish()
	})
}

// Optimistic runs one mutation on the optimistic path: snapshot, mutate the
// table synchronously before any network I/O, call the server, then
// reconcile with the server record (when the call yields one) or roll the
// snapshot back. A missing target is a silent no-op. Entity-specific verbs
// (assign, set-due-date, ...) build on this.
func (s *Store[R]) Optimistic(ctx context.Context, verb, id string, apply func(R) R, call RemoteCall[R]) {
	key := OpKey(verb, id)

	s.mu.Lock()

	cur, ok := s.tbl.get(id)
	if !ok {
		s.mu.Unlock()
		return
	}

	// The snapshot lives in this closure. A second mutation against the
	// same target captures its own; a late rollback here restores this one
	// regardless (last resolver wins on the table entry).
	snap := cur.Clone()

	s.tbl.replace(id, apply(cur.Clone()))
	s.ldg.clearError(key)
	s.mu.Unlock()
	s.publish()

	s.spawn(func() {
		rec, hasRec, err := call(ctx)

		s.mu.Lock()

		if err != nil {
			s.tbl.replace(id, snap)
			s.ldg.fail(key, err.Error())
			s.mu.Unlock()

			s.logf("%s: %v", key, err)
			s.notifier.Failure(fmt.Sprintf("Couldn't update %s", s.cfg.Label))
			s.publish()

			return
		}

		if hasRec {
			s.tbl.replace(id, rec)
		}

		s.mu.Unlock()
		s.publish()
	})
}

// Pessimistic runs one mutation on the pessimistic path: mark the key in
// flight, wait for the server, then merge the response into the table. The
// table is untouched until the server confirms, so failure needs no
// rollback.
func (s *Store[R]) Pessimistic(ctx context.Context, verb, id string, call RemoteCall[R]) {
	key := OpKey(verb, id)

	s.begin(key)

	s.spawn(func() {
		rec, hasRec, err := call(ctx)

		s.mu.Lock()
		s.ldg.end(key)

		if err != nil {
			s.ldg.fail(key, err.Error())
			s.mu.Unlock()

			s.logf("%s: %v", key, err)
			s.notifier.Failure(fmt.Sprintf("Couldn't update %s", s.cfg.Label))
			s.publish()

			return
		}

		if hasRec {
			if cur, ok := s.tbl.get(id); ok && s.cfg.Merge != nil {
				s.tbl.replace(id, s.cfg.Merge(cur, rec))
			} else {
				s.tbl.replace(id, rec)
			}
		}

		s.mu.Unlock()
		s.publish()
	})
}

// Quiesce blocks until every in-flight remote phase has settled. Intended
// for shutdown and tests; new mutations started while waiting are included.
func (s *Store[R]) Quiesce() {
	s.inflight.Wait()
}

func (s *Store[R]) begin(key string) {
	s.mu.Lock()
	s.ldg.begin(key)
	s.mu.Unlock()
	s.publish()
}

func (s *Store[R]) spawn(fn func()) {
	s.inflight.Add(1)

	go func() {
		defer s.inflight.Done()
		fn()
	}()
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}

	return string(s[0]|0x20) + s[1:]
}
