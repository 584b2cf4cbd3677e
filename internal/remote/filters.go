package remote

import (
	"context"
	"net/http"

	"github.com/mbirch/trackle/internal/track"
	"github.com/mbirch/trackle/pkg/entstore"
)

// Filters returns the saved-filter remote backed by this client.
func (c *Client) Filters() track.FilterRemote {
	return filterClient{c}
}

type filterClient struct {
	c *Client
}

func (r filterClient) List(ctx context.Context, workspaceID string) ([]track.SavedFilter, error) {
	var out []track.SavedFilter

	err := r.c.do(ctx, http.MethodGet, "/workspaces/"+escape(workspaceID)+"/filters", nil, &out)

	return out, err
}

func (r filterClient) Create(ctx context.Context, patch entstore.Patch) (track.SavedFilter, error) {
	var out track.SavedFilter

	err := r.c.do(ctx, http.MethodPost, "/filters", patch, &out)

	return out, err
}

func (r filterClient) Update(ctx context.Context, id string, patch entstore.Patch) (track.SavedFilter, error) {
	var out track.SavedFilter

	err := r.c.do(ctx, http.MethodPatch, "/filters/"+escape(id), patch, &out)

	return out, err
}

func (r filterClient) Delete(ctx context.Context, id string) error {
	return r.c.do(ctx, http.MethodDelete, "/filters/"+escape(id), nil, nil)
}
