package track

import (
	"context"

	"github.com/mbirch/trackle/pkg/entstore"
)

// Filters is the saved-filter store. Fetch takes the workspace id.
type Filters struct {
	*entstore.Store[SavedFilter]
}

// NewFilters builds the saved-filter store. Every field is a client-owned
// scalar, so the whole surface is optimistic.
func NewFilters(remote FilterRemote, opts ...entstore.Option) *Filters {
	store := entstore.New(entstore.Config[SavedFilter]{
		Entity: "SavedFilter",
		Label:  "saved filter",
		Remote: remote,
		Policy: entstore.NewPolicy("name", "query", "shared"),
		Apply:  ApplyFilterPatch,
	}, opts...)

	return &Filters{Store: store}
}

// Rename optimistically renames the filter.
func (s *Filters) Rename(ctx context.Context, id, name string) {
	s.Update(ctx, id, entstore.Patch{"name": name})
}

// SetQuery optimistically replaces the filter criteria.
func (s *Filters) SetQuery(ctx context.Context, id, query string) {
	s.Update(ctx, id, entstore.Patch{"query": query})
}

// SetShared optimistically flips workspace visibility.
func (s *Filters) SetShared(ctx context.Context, id string, shared bool) {
	s.Update(ctx, id, entstore.Patch{"shared": shared})
}
