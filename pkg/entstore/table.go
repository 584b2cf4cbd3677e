package entstore

import "slices"

// table is the normalized entity table: an id-keyed map of records plus an
// ordered id list that defines iteration order independent of map order.
//
// Invariants: every id in order has a map entry, every map entry's id is in
// order, and order holds no duplicates. table is not safe for concurrent
// use; the Store's lock guards it.
type table[R Record[R]] struct {
	byID  map[string]R
	order []string
}

func newTable[R Record[R]]() *table[R] {
	return &table[R]{byID: make(map[string]R)}
}

// get returns the record for id.
func (t *table[R]) get(id string) (R, bool) {
	rec, ok := t.byID[id]
	return rec, ok
}

// replace swaps the record for an id that is already present. Absent ids
// are ignored so a late reconciliation cannot resurrect a deleted entity
// into the map without an order entry.
func (t *table[R]) replace(id string, rec R) {
	if _, ok := t.byID[id]; !ok {
		return
	}

	t.byID[id] = rec
}

// prepend inserts a freshly created record at the head of the order
// (newest first). If the id is already present only the record is swapped.
func (t *table[R]) prepend(rec R) {
	id := rec.RecordID()

	if _, ok := t.byID[id]; ok {
		t.byID[id] = rec
		return
	}

	t.byID[id] = rec
	t.order = append([]string{id}, t.order...)
}

// remove deletes both the map entry and the order entry.
func (t *table[R]) remove(id string) {
	if _, ok := t.byID[id]; !ok {
		return
	}

	delete(t.byID, id)

	if idx := slices.Index(t.order, id); idx >= 0 {
		t.order = slices.Delete(t.order, idx, idx+1)
	}
}

// reset replaces the whole table with the given records, mirroring their
// order. Duplicate ids keep the first occurrence's position with the last
// occurrence's record.
func (t *table[R]) reset(recs []R) {
	t.byID = make(map[string]R, len(recs))
	t.order = t.order[:0]

	for _, rec := range recs {
		id := rec.RecordID()

		if _, ok := t.byID[id]; !ok {
			t.order = append(t.order, id)
		}

		t.byID[id] = rec
	}
}

// list returns records in order. Ids without a map entry are skipped; the
// invariants make this unreachable.
func (t *table[R]) list() []R {
	out := make([]R, 0, len(t.order))

	for _, id := range t.order {
		if rec, ok := t.byID[id]; ok {
			out = append(out, rec)
		}
	}

	return out
}

func (t *table[R]) len() int {
	return len(t.byID)
}
