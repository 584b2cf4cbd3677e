package remote

import (
	"context"
	"net/http"

	"github.com/mbirch/trackle/internal/track"
	"github.com/mbirch/trackle/pkg/entstore"
)

// Comments returns the comment remote backed by this client.
func (c *Client) Comments() track.CommentRemote {
	return commentClient{c}
}

type commentClient struct {
	c *Client
}

func (r commentClient) List(ctx context.Context, issueID string) ([]track.Comment, error) {
	var out []track.Comment

	err := r.c.do(ctx, http.MethodGet, "/issues/"+escape(issueID)+"/comments", nil, &out)

	return out, err
}

func (r commentClient) Create(ctx context.Context, patch entstore.Patch) (track.Comment, error) {
	var out track.Comment

	err := r.c.do(ctx, http.MethodPost, "/comments", patch, &out)

	return out, err
}

func (r commentClient) Update(ctx context.Context, id string, patch entstore.Patch) (track.Comment, error) {
	var out track.Comment

	err := r.c.do(ctx, http.MethodPatch, "/comments/"+escape(id), patch, &out)

	return out, err
}

func (r commentClient) Delete(ctx context.Context, id string) error {
	return r.c.do(ctx, http.MethodDelete, "/comments/"+escape(id), nil, nil)
}
