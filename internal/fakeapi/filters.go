package fakeapi

import (
	"context"
	"fmt"
	"sort"

	"github.com/mbirch/trackle/internal/track"
	"github.com/mbirch/trackle/pkg/entstore"
)

// Filters returns the saved-filter remote backed by this server.
func (s *Server) Filters() track.FilterRemote {
	return filterRemote{s: s}
}

type filterRemote struct {
	s *Server
}

func (r filterRemote) List(_ context.Context, _ string) ([]track.SavedFilter, error) {
	if err := r.s.gate("filters.list"); err != nil {
		return nil, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]track.SavedFilter, 0, len(r.s.filters))
	for _, rec := range r.s.filters {
		out = append(out, rec)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out, nil
}

func (r filterRemote) Create(_ context.Context, payload entstore.Patch) (track.SavedFilter, error) {
	if err := r.s.gate("filters.create"); err != nil {
		return track.SavedFilter{}, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec := track.ApplyFilterPatch(track.SavedFilter{ID: newID()}, payload)
	r.s.filters[rec.ID] = rec

	return rec, nil
}

func (r filterRemote) Update(_ context.Context, id string, patch entstore.Patch) (track.SavedFilter, error) {
	if err := r.s.gate("filters.update"); err != nil {
		return track.SavedFilter{}, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.filters[id]
	if !ok {
		return track.SavedFilter{}, fmt.Errorf("%w: filter %s", ErrNotFound, id)
	}

	rec := track.ApplyFilterPatch(cur, patch)
	r.s.filters[id] = rec

	return rec, nil
}

func (r filterRemote) Delete(_ context.Context, id string) error {
	if err := r.s.gate("filters.delete"); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.filters[id]; !ok {
		return fmt.Errorf("%w: filter %s", ErrNotFound, id)
	}

	delete(r.s.filters, id)

	return nil
}
