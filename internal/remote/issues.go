package remote

import (
	"context"
	"net/http"

	"github.com/mbirch/trackle/internal/track"
	"github.com/mbirch/trackle/pkg/entstore"
)

// Issues returns the issue remote backed by this client.
func (c *Client) Issues() track.IssueRemote {
	return issueClient{c}
}

type issueClient struct {
	c *Client
}

func (r issueClient) List(ctx context.Context, workspaceID string) ([]track.Issue, error) {
	var out []track.Issue

	err := r.c.do(ctx, http.MethodGet, "/workspaces/"+escape(workspaceID)+"/issues", nil, &out)

	return out, err
}

func (r issueClient) Create(ctx context.Context, patch entstore.Patch) (track.Issue, error) {
	var out track.Issue

	err := r.c.do(ctx, http.MethodPost, "/issues", patch, &out)

	return out, err
}

func (r issueClient) Update(ctx context.Context, id string, patch entstore.Patch) (track.Issue, error) {
	var out track.Issue

	err := r.c.do(ctx, http.MethodPatch, "/issues/"+escape(id), patch, &out)

	return out, err
}

func (r issueClient) Delete(ctx context.Context, id string) error {
	return r.c.do(ctx, http.MethodDelete, "/issues/"+escape(id), nil, nil)
}

func (r issueClient) Assign(ctx context.Context, id string, userIDs []string) (track.Issue, error) {
	var out track.Issue

	body := map[string]any{"userIds": userIDs}
	err := r.c.do(ctx, http.MethodPost, "/issues/"+escape(id)+"/assignees", body, &out)

	return out, err
}

func (r issueClient) RemoveAssignee(ctx context.Context, id, userID string) error {
	return r.c.do(ctx, http.MethodDelete,
		"/issues/"+escape(id)+"/assignees/"+escape(userID), nil, nil)
}

func (r issueClient) SetDescription(ctx context.Context, id, html string) (track.Issue, error) {
	var out track.Issue

	body := map[string]any{"description": html}
	err := r.c.do(ctx, http.MethodPut, "/issues/"+escape(id)+"/description", body, &out)

	return out, err
}

func (r issueClient) SetDueDate(ctx context.Context, id string, due entstore.DueDate) (track.Issue, error) {
	var out track.Issue

	body := map[string]any{"dueDate": due}
	err := r.c.do(ctx, http.MethodPut, "/issues/"+escape(id)+"/due-date", body, &out)

	return out, err
}
