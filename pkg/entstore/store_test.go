package entstore_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbirch/trackle/pkg/entstore"
)

// card is a minimal record for exercising the store: two optimistic-safe
// scalars, one pessimistic field and one local-only sub-collection.
type card struct {
	ID        string
	Title     string
	Priority  int
	Notes     string
	Tags      []string
	UpdatedAt string
}

func (c card) RecordID() string { return c.ID }

func (c card) Clone() card {
	out := c
	out.Tags = slices.Clone(c.Tags)

	return out
}

func applyCard(c card, p entstore.Patch) card {
	out := c

	for field, v := range p {
		switch field {
		case "title":
			if s, ok := v.(string); ok {
				out.Title = s
			}
		case "priority":
			if n, ok := v.(int); ok {
				out.Priority = n
			}
		case "notes":
			if s, ok := v.(string); ok {
				out.Notes = s
			}
		}
	}

	return out
}

func mergeCard(local, server card) card {
	out := server.Clone()
	if len(server.Tags) == 0 {
		out.Tags = slices.Clone(local.Tags)
	}

	return out
}

// fakeRemote scripts per-verb behavior. Function fields may block (on a
// gate channel) to hold a mutation in its in-flight window.
type fakeRemote struct {
	mu      sync.Mutex
	listFn  func(parentID string) ([]card, error)
	creatFn func(payload entstore.Patch) (card, error)
	updatFn func(id string, patch entstore.Patch) (card, error)
	delFn   func(id string) error

	updates atomic.Int64
}

func (f *fakeRemote) fn() (func(string) ([]card, error), func(entstore.Patch) (card, error), func(string, entstore.Patch) (card, error), func(string) error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.listFn, f.creatFn, f.updatFn, f.delFn
}

func (f *fakeRemote) List(_ context.Context, parentID string) ([]card, error) {
	fn, _, _, _ := f.fn()
	if fn == nil {
		return nil, nil
	}

	return fn(parentID)
}

func (f *fakeRemote) Create(_ context.Context, payload entstore.Patch) (card, error) {
	_, fn, _, _ := f.fn()
	if fn == nil {
		return card{}, errors.New("create not scripted")
	}

	return fn(payload)
}

func (f *fakeRemote) Update(_ context.Context, id string, patch entstore.Patch) (card, error) {
	f.updates.Add(1)

	_, _, fn, _ := f.fn()
	if fn == nil {
		return card{}, errors.New("update not scripted")
	}

	return fn(id, patch)
}

func (f *fakeRemote) Delete(_ context.Context, id string) error {
	_, _, _, fn := f.fn()
	if fn == nil {
		return nil
	}

	return fn(id)
}

// recordingNotifier captures both notification channels.
type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	failures  []string
}

func (n *recordingNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, msg)
}

func (n *recordingNotifier) Failure(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, msg)
}

func (n *recordingNotifier) failureCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return len(n.failures)
}

func newCardStore(remote *fakeRemote, opts ...entstore.Option) *entstore.Store[card] {
	return entstore.New(entstore.Config[card]{
		Entity: "Card",
		Remote: remote,
		Policy: entstore.NewPolicy("title", "priority"),
		Apply:  applyCard,
		Merge:  mergeCard,
	}, opts...)
}

// seedStore fetches the given cards into a fresh store.
func seedStore(t *testing.T, remote *fakeRemote, seed []card, opts ...entstore.Option) *entstore.Store[card] {
	t.Helper()

	remote.mu.Lock()
	remote.listFn = func(string) ([]card, error) { return seed, nil }
	remote.mu.Unlock()

	s := newCardStore(remote, opts...)
	s.Fetch(context.Background(), "ws-1")
	s.Quiesce()

	require.Equal(t, len(seed), s.Len(), "seed fetch should hydrate the table")

	return s
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}

		time.Sleep(time.Millisecond)
	}

	t.Fatal("condition not reached within deadline")
}

func Test_Fetch_Yields_Identical_Output_When_Repeated(t *testing.T) {
	t.Parallel()

	seed := []card{
		{ID: "a", Title: "A", Priority: 1, Tags: []string{"x"}},
		{ID: "b", Title: "B", Priority: 3},
	}

	remote := &fakeRemote{}
	s := seedStore(t, remote, seed)

	first := s.List()

	s.Fetch(context.Background(), "ws-1")
	s.Quiesce()

	second := s.List()

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("fetch not idempotent (-first +second):\n%s", diff)
	}

	if diff := cmp.Diff(seed, second); diff != "" {
		t.Fatalf("fetch should mirror server order (-want +got):\n%s", diff)
	}
}

func Test_Update_Rolls_Back_When_Remote_Fails(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{}
	notifier := &recordingNotifier{}
	s := seedStore(t, remote, []card{{ID: "a", Title: "A", Priority: 2}}, entstore.WithNotifier(notifier))

	gate := make(chan struct{})

	remote.mu.Lock()
	remote.updatFn = func(string, entstore.Patch) (card, error) {
		<-gate
		return card{}, errors.New("boom")
	}
	remote.mu.Unlock()

	s.Update(context.Background(), "a", entstore.Patch{"priority": 1})

	// The local write lands before the round-trip settles.
	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, got.Priority, "optimistic write should be visible immediately")

	close(gate)
	s.Quiesce()

	got, ok = s.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, got.Priority, "failed update should roll back to the snapshot")
	assert.NotEmpty(t, s.ErrorFor(s.UpdateKey("a")), "ledger should record the failure")
	assert.Equal(t, 1, notifier.failureCount(), "failure notification should fire once")
}

func Test_Update_Adopts_Server_Record_When_Remote_Succeeds(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{}
	s := seedStore(t, remote, []card{{ID: "a", Title: "A", Priority: 2, UpdatedAt: "T1"}})

	server := card{ID: "a", Title: "A (edited)", Priority: 1, UpdatedAt: "T2"}

	remote.mu.Lock()
	remote.updatFn = func(string, entstore.Patch) (card, error) { return server, nil }
	remote.mu.Unlock()

	s.Update(context.Background(), "a", entstore.Patch{"priority": 1})
	s.Quiesce()

	got, ok := s.Get("a")
	require.True(t, ok)

	// Exactly the server record, not a client-side merge guess.
	if diff := cmp.Diff(server, got); diff != "" {
		t.Fatalf("reconciled record mismatch (-server +got):\n%s", diff)
	}

	assert.Empty(t, s.ErrorFor(s.UpdateKey("a")))
}

func Test_Update_Waits_For_Server_When_Field_Not_Safe(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{}
	s := seedStore(t, remote, []card{{ID: "a", Notes: "old", Tags: []string{"keep"}}})

	gate := make(chan struct{})

	remote.mu.Lock()
	remote.updatFn = func(id string, patch entstore.Patch) (card, error) {
		<-gate
		// Server response does not echo the local-only Tags collection.
		return card{ID: "a", Notes: "new", UpdatedAt: "T2"}, nil
	}
	remote.mu.Unlock()

	s.Update(context.Background(), "a", entstore.Patch{"notes": "new"})

	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "old", got.Notes, "pessimistic path must not touch the table before the server confirms")
	assert.True(t, s.Loading(s.UpdateKey("a")), "in-flight flag should be set")

	close(gate)
	s.Quiesce()

	got, ok = s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "new", got.Notes)
	assert.Equal(t, []string{"keep"}, got.Tags, "merge should preserve local-only sub-collections")
	assert.False(t, s.Loading(s.UpdateKey("a")), "in-flight flag should always clear")
}

func Test_Ledger_Entries_Stay_Independent_When_Two_Targets_Fail(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{}
	s := seedStore(t, remote, []card{{ID: "a", Priority: 1}, {ID: "b", Priority: 2}})

	remote.mu.Lock()
	remote.updatFn = func(id string, _ entstore.Patch) (card, error) {
		return card{}, errors.New("fail " + id)
	}
	remote.mu.Unlock()

	s.Update(context.Background(), "a", entstore.Patch{"priority": 9})
	s.Update(context.Background(), "b", entstore.Patch{"priority": 9})
	s.Quiesce()

	require.NotEmpty(t, s.ErrorFor(s.UpdateKey("a")))
	require.NotEmpty(t, s.ErrorFor(s.UpdateKey("b")))

	s.ClearError(s.UpdateKey("a"))

	assert.Empty(t, s.ErrorFor(s.UpdateKey("a")))
	assert.NotEmpty(t, s.ErrorFor(s.UpdateKey("b")), "clearing one key must not affect another")
}

func Test_Create_Prepends_When_Succeeding(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{}
	s := seedStore(t, remote, []card{{ID: "seed", Title: "S"}})

	var nextID atomic.Int64
	nextID.Store(0)

	remote.mu.Lock()
	remote.creatFn = func(payload entstore.Patch) (card, error) {
		title, _ := payload["title"].(string)
		ids := []string{"x", "y"}

		return card{ID: ids[nextID.Add(1)-1], Title: title}, nil
	}
	remote.mu.Unlock()

	s.Create(context.Background(), entstore.Patch{"title": "X"})
	s.Quiesce()
	s.Create(context.Background(), entstore.Patch{"title": "Y"})
	s.Quiesce()

	var gotOrder []string
	for _, c := range s.List() {
		gotOrder = append(gotOrder, c.ID)
	}

	assert.Equal(t, []string{"y", "x", "seed"}, gotOrder, "newest first")
}

func Test_Table_Stays_Referentially_Complete_When_Operations_Interleave(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{}
	s := seedStore(t, remote, []card{{ID: "a"}, {ID: "b"}, {ID: "c"}})

	remote.mu.Lock()
	remote.creatFn = func(entstore.Patch) (card, error) { return card{ID: "d"}, nil }
	remote.updatFn = func(id string, _ entstore.Patch) (card, error) { return card{ID: id, Priority: 7}, nil }
	remote.delFn = func(string) error { return nil }
	remote.mu.Unlock()

	s.Create(context.Background(), entstore.Patch{"title": "D"})
	s.Update(context.Background(), "a", entstore.Patch{"priority": 7})
	s.Delete(context.Background(), "b")
	s.Quiesce()

	list := s.List()
	require.Equal(t, s.Len(), len(list), "every ordered id must resolve to a table entry")

	seen := map[string]bool{}
	for _, c := range list {
		require.False(t, seen[c.ID], "duplicate id %q in order", c.ID)
		seen[c.ID] = true

		_, ok := s.Get(c.ID)
		require.True(t, ok)
	}

	_, ok := s.Get("b")
	assert.False(t, ok, "deleted id must leave the table")
}

// Pins the documented hazard: a late rollback restores its own snapshot,
// stomping a newer write against the same target and verb.
func Test_Late_Rollback_Stomps_Newer_Write_When_Same_Target_Races(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{}
	s := seedStore(t, remote, []card{{ID: "a", Priority: 2}})

	gate := make(chan struct{})

	var call atomic.Int64

	remote.mu.Lock()
	remote.updatFn = func(id string, patch entstore.Patch) (card, error) {
		if call.Add(1) == 1 {
			<-gate
			return card{}, errors.New("slow failure")
		}

		return card{ID: "a", Priority: 5}, nil
	}
	remote.mu.Unlock()

	// First mutation: snapshot is priority 2, held in flight.
	s.Update(context.Background(), "a", entstore.Patch{"priority": 3})

	// Second mutation against the same target lands and reconciles.
	s.Update(context.Background(), "a", entstore.Patch{"priority": 5})
	waitFor(t, func() bool {
		c, ok := s.Get("a")
		return ok && c.Priority == 5
	})

	// Now the first resolves with a failure and rolls back to ITS snapshot.
	close(gate)
	s.Quiesce()

	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, got.Priority, "rollback restores the first mutation's snapshot")
}

func Test_Delete_Clears_Selection_When_Selected_Record_Deleted(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{}
	s := seedStore(t, remote, []card{{ID: "a"}, {ID: "b"}})

	remote.mu.Lock()
	remote.delFn = func(string) error { return nil }
	remote.mu.Unlock()

	s.Select("a")
	s.Delete(context.Background(), "a")
	s.Quiesce()

	assert.Empty(t, s.SelectedID(), "deleting the focused record clears the pointer")

	s.Select("b")
	_, ok := s.Selected()
	assert.True(t, ok)
}

func Test_Update_Is_Silent_NoOp_When_Target_Missing(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{}
	notifier := &recordingNotifier{}
	s := seedStore(t, remote, []card{{ID: "a"}}, entstore.WithNotifier(notifier))

	s.Update(context.Background(), "ghost", entstore.Patch{"priority": 1})
	s.Quiesce()

	assert.Zero(t, remote.updates.Load(), "no remote call for a missing target")
	assert.Empty(t, s.ErrorFor(s.UpdateKey("ghost")))
	assert.Zero(t, notifier.failureCount())
}

func Test_Update_Drops_Empty_Fields_But_Keeps_Due_Clear_When_Patched(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{}
	s := seedStore(t, remote, []card{{ID: "a", Title: "A"}})

	// All values mean "do not change": the update never leaves the client.
	s.Update(context.Background(), "a", entstore.Patch{"title": "", "notes": nil})
	s.Quiesce()

	require.Zero(t, remote.updates.Load(), "fully compacted patch is a no-op")

	var seen entstore.Patch

	remote.mu.Lock()
	remote.updatFn = func(_ string, patch entstore.Patch) (card, error) {
		seen = patch
		return card{ID: "a"}, nil
	}
	remote.mu.Unlock()

	// The tagged clear value must survive empty-value filtering.
	s.Update(context.Background(), "a", entstore.Patch{"title": "", "dueDate": entstore.NoDue()})
	s.Quiesce()

	require.EqualValues(t, 1, remote.updates.Load())
	_, hasDue := seen["dueDate"]
	assert.True(t, hasDue, "due-date clear must reach the remote")
	_, hasTitle := seen["title"]
	assert.False(t, hasTitle, "empty title means do-not-change")
}

func Test_Subscribers_Fire_When_State_Commits(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{}
	s := seedStore(t, remote, []card{{ID: "a", Priority: 2}})

	remote.mu.Lock()
	remote.updatFn = func(string, entstore.Patch) (card, error) { return card{ID: "a", Priority: 1}, nil }
	remote.mu.Unlock()

	var fired atomic.Int64

	unsubscribe := s.Subscribe(func() { fired.Add(1) })

	s.Update(context.Background(), "a", entstore.Patch{"priority": 1})
	s.Quiesce()

	// Optimistic apply plus reconciliation: at least two commits.
	require.GreaterOrEqual(t, fired.Load(), int64(2))

	before := fired.Load()

	unsubscribe()
	s.Select("a")

	assert.Equal(t, before, fired.Load(), "unsubscribed callback must not fire")
}

// The end-to-end shape: create, optimistic bump, delayed failure, rollback.
func Test_Store_Converges_When_Create_Then_Failed_Optimistic_Update(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{}
	s := newCardStore(remote)

	require.Zero(t, s.Len())

	remote.mu.Lock()
	remote.creatFn = func(payload entstore.Patch) (card, error) {
		title, _ := payload["title"].(string)
		return card{ID: "1", Title: title, Priority: 0}, nil
	}
	remote.mu.Unlock()

	s.Create(context.Background(), entstore.Patch{"title": "A", "priority": 0})
	s.Quiesce()

	got, ok := s.Get("1")
	require.True(t, ok)
	require.Equal(t, 0, got.Priority)
	require.Equal(t, 1, s.Len())

	gate := make(chan struct{})

	remote.mu.Lock()
	remote.updatFn = func(string, entstore.Patch) (card, error) {
		<-gate
		return card{}, errors.New("503 service unavailable")
	}
	remote.mu.Unlock()

	s.Update(context.Background(), "1", entstore.Patch{"priority": 3})

	got, ok = s.Get("1")
	require.True(t, ok)
	require.Equal(t, 3, got.Priority, "visible before the round-trip settles")

	close(gate)
	s.Quiesce()

	got, ok = s.Get("1")
	require.True(t, ok)
	assert.Equal(t, 0, got.Priority)
	assert.Equal(t, "updateCard_1", s.UpdateKey("1"))
	assert.NotEmpty(t, s.ErrorFor("updateCard_1"))
}
