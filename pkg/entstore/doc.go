// Package entstore provides a client-held, normalized store of server-owned
// records with optimistic updates.
//
// A [Store] caches one entity domain (issues, tasks, comments, ...) as an
// id-keyed table plus an ordered id list. User edits are applied locally
// before the server round-trip completes, then reconciled against the
// server's authoritative response, or rolled back to a pre-mutation snapshot
// when the round-trip fails. Per-operation progress and error state is kept
// in an operation ledger keyed by verb and target id, so concurrent
// mutations against different targets never clobber each other's
// bookkeeping.
//
// # Basic Usage
//
//	store := entstore.New(entstore.Config[Issue]{
//	    Entity: "Issue",
//	    Remote: remote,
//	    Policy: entstore.NewPolicy("title", "status", "priority", "dueDate"),
//	    Apply:  applyIssuePatch,
//	}, entstore.WithNotifier(toasts))
//
//	store.Fetch(ctx, workspaceID)
//	store.Update(ctx, id, entstore.Patch{"priority": 1})
//
//	for _, issue := range store.List() {
//	    // render
//	}
//
// # Concurrency
//
// All table and ledger mutation happens synchronously under one lock; the
// only suspension point of a mutation is the remote call, which runs on its
// own goroutine. Reads never block writes for longer than a map lookup.
// Mutations against different target ids are fully independent. Two
// mutations against the same target and verb are NOT serialized: the second
// overwrites the first's ledger entry, and a late rollback of the first
// restores the first's snapshot even if the second has already applied. That
// hazard is a documented property of the store, not a bug to fix here.
//
// # Error Handling
//
// Failures never escape the store. Callers observe them through
// [Store.ErrorFor] and through the injected [Notifier]; both channels are
// written on every failed mutation.
package entstore
