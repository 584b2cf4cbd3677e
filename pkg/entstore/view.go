package entstore

// Read-side surface: pure selectors over the table, ledger inspection,
// selection pointer, and change subscription.

// List returns all records in id-order (newest created first, fetch order
// otherwise). Records are cloned; callers can mutate them freely.
func (s *Store[R]) List() []R {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := s.tbl.list()
	for i := range recs {
		recs[i] = recs[i].Clone()
	}

	return recs
}

// Get returns the record for id.
func (s *Store[R]) Get(id string) (R, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.tbl.get(id)
	if !ok {
		var zero R
		return zero, false
	}

	return rec.Clone(), true
}

// Where returns the records matching pred, in id-order. A linear scan:
// per-workspace entity counts are bounded, so no secondary index.
func (s *Store[R]) Where(pred func(R) bool) []R {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []R

	for _, rec := range s.tbl.list() {
		if pred(rec) {
			out = append(out, rec.Clone())
		}
	}

	return out
}

// Len returns the number of records in the table.
func (s *Store[R]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.tbl.len()
}

// Select sets the focus pointer held alongside the table. An empty id
// clears it. The pointer is also cleared when the selected record is
// deleted or vanishes from a fetch.
func (s *Store[R]) Select(id string) {
	s.mu.Lock()
	s.selected = id
	s.mu.Unlock()
	s.publish()
}

// SelectedID returns the focus pointer, or "" when nothing is selected.
func (s *Store[R]) SelectedID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.selected
}

// Selected returns the focused record, if the pointer is set and present.
func (s *Store[R]) Selected() (R, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.selected == "" {
		var zero R
		return zero, false
	}

	rec, ok := s.tbl.get(s.selected)
	if !ok {
		var zero R
		return zero, false
	}

	return rec.Clone(), true
}

// Loading reports whether the operation key is in flight.
func (s *Store[R]) Loading(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.ldg.loading(key)
}

// ErrorFor returns the recorded error message for the operation key, or ""
// when the last attempt succeeded (or none was made).
func (s *Store[R]) ErrorFor(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.ldg.errorFor(key)
}

// ClearError drops the error recorded under one key, leaving every other
// key's entry untouched.
func (s *Store[R]) ClearError(key string) {
	s.mu.Lock()
	s.ldg.clearError(key)
	s.mu.Unlock()
	s.publish()
}

// ClearErrors drops all recorded errors.
func (s *Store[R]) ClearErrors() {
	s.mu.Lock()
	s.ldg.clearAllErrors()
	s.mu.Unlock()
	s.publish()
}

// FetchKey is the fixed operation key of [Store.Fetch].
func (s *Store[R]) FetchKey() string {
	return "fetch" + s.cfg.Entity + "s"
}

// CreateKey is the fixed operation key of [Store.Create].
func (s *Store[R]) CreateKey() string {
	return "create" + s.cfg.Entity
}

// UpdateKey is the operation key of [Store.Update] against one id.
func (s *Store[R]) UpdateKey(id string) string {
	return OpKey("update"+s.cfg.Entity, id)
}

// DeleteKey is the operation key of [Store.Delete] against one id.
func (s *Store[R]) DeleteKey(id string) string {
	return OpKey("delete"+s.cfg.Entity, id)
}

// Subscribe registers a callback invoked after every committed change
// (table, ledger or selection). The returned func unsubscribes. Callbacks
// run synchronously on the mutating goroutine and must not block.
func (s *Store[R]) Subscribe(fn func()) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store[R]) publish() {
	s.subMu.Lock()
	fns := make([]func(), 0, len(s.subs))

	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
