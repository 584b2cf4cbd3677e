package entstore

import (
	"context"
	"encoding/json"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

// Record is implemented by every entity type held in a [Store].
//
// RecordID returns the server-assigned, immutable id. Clone returns a copy
// deep enough that mutating the clone's sub-collections never aliases the
// original; snapshots taken for rollback rely on this.
type Record[R any] interface {
	RecordID() string
	Clone() R
}

// Patch is a set of field changes keyed by wire field name.
//
// A nil or empty-string value means "do not change" and is dropped before
// the patch is classified or sent. The one exception is [DueDate], whose
// clear form deliberately survives filtering.
type Patch map[string]any

// compact returns a copy of the patch with "do not change" values dropped.
func (p Patch) compact() Patch {
	out := make(Patch, len(p))

	for field, v := range p {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			if val == "" {
				continue
			}
		}

		out[field] = v
	}

	return out
}

// DueDate is a tagged due-date change: either clear or set to a day.
//
// The zero value clears the date. On the wire a cleared date is always the
// empty string; both upstream sentinel conventions collapse into this one.
type DueDate struct {
	set  bool
	when time.Time
}

// DueOn returns a DueDate set to the given day.
func DueOn(t time.Time) DueDate {
	return DueDate{set: true, when: t}
}

// NoDue returns a DueDate that clears the due date.
func NoDue() DueDate {
	return DueDate{}
}

// IsClear reports whether the change clears the due date.
func (d DueDate) IsClear() bool {
	return !d.set
}

// Wire returns the wire encoding: an ISO date, or "" for clear.
func (d DueDate) Wire() string {
	if !d.set {
		return ""
	}

	return d.when.UTC().Format("2006-01-02")
}

// MarshalJSON encodes the wire form so a DueDate can sit inside a [Patch]
// that is serialized as-is.
func (d DueDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Wire())
}

// Policy is the per-entity classification of which patch fields are safe to
// apply optimistically. Fields outside the set force the pessimistic path.
type Policy struct {
	safe mapset.Set[string]
}

// NewPolicy builds a Policy from the optimistic-safe field names.
func NewPolicy(fields ...string) Policy {
	return Policy{safe: mapset.NewThreadUnsafeSet(fields...)}
}

// AllowsOptimistic reports whether every field in the patch is safe to apply
// before the server confirms it.
func (p Policy) AllowsOptimistic(patch Patch) bool {
	if p.safe == nil {
		return false
	}

	for field := range patch {
		if !p.safe.Contains(field) {
			return false
		}
	}

	return true
}

// Remote is the server-side collaborator for one entity domain. Every
// method returns an error for any non-2xx outcome; the store treats any
// error as rollback/notify.
type Remote[R any] interface {
	List(ctx context.Context, parentID string) ([]R, error)
	Create(ctx context.Context, payload Patch) (R, error)
	Update(ctx context.Context, id string, patch Patch) (R, error)
	Delete(ctx context.Context, id string) error
}

// RemoteCall performs one remote verb. The bool reports whether the server
// returned an authoritative record to reconcile against; verbs like
// remove-assignee return none.
type RemoteCall[R any] func(ctx context.Context) (R, bool, error)

// Notifier receives user-visible success/failure signals. Fire-and-forget;
// the store never inspects a result.
type Notifier interface {
	Success(msg string)
	Failure(msg string)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

// Success implements [Notifier].
func (NopNotifier) Success(string) {}

// Failure implements [Notifier].
func (NopNotifier) Failure(string) {}

// OpKey builds the ledger key for a verb against one target. Verbs that do
// not target a single entity use the verb alone.
func OpKey(verb, id string) string {
	if id == "" {
		return verb
	}

	return verb + "_" + id
}
