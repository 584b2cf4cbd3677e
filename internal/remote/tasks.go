package remote

import (
	"context"
	"net/http"

	"github.com/mbirch/trackle/internal/track"
	"github.com/mbirch/trackle/pkg/entstore"
)

// Tasks returns the task remote backed by this client.
func (c *Client) Tasks() track.TaskRemote {
	return taskClient{c}
}

type taskClient struct {
	c *Client
}

func (r taskClient) List(ctx context.Context, workspaceID string) ([]track.Task, error) {
	var out []track.Task

	err := r.c.do(ctx, http.MethodGet, "/workspaces/"+escape(workspaceID)+"/tasks", nil, &out)

	return out, err
}

func (r taskClient) Create(ctx context.Context, patch entstore.Patch) (track.Task, error) {
	var out track.Task

	err := r.c.do(ctx, http.MethodPost, "/tasks", patch, &out)

	return out, err
}

func (r taskClient) Update(ctx context.Context, id string, patch entstore.Patch) (track.Task, error) {
	var out track.Task

	err := r.c.do(ctx, http.MethodPatch, "/tasks/"+escape(id), patch, &out)

	return out, err
}

func (r taskClient) Delete(ctx context.Context, id string) error {
	return r.c.do(ctx, http.MethodDelete, "/tasks/"+escape(id), nil, nil)
}

func (r taskClient) Assign(ctx context.Context, id string, userIDs []string) (track.Task, error) {
	var out track.Task

	body := map[string]any{"userIds": userIDs}
	err := r.c.do(ctx, http.MethodPost, "/tasks/"+escape(id)+"/assignees", body, &out)

	return out, err
}

func (r taskClient) RemoveAssignee(ctx context.Context, id, userID string) error {
	return r.c.do(ctx, http.MethodDelete,
		"/tasks/"+escape(id)+"/assignees/"+escape(userID), nil, nil)
}

func (r taskClient) SetNotes(ctx context.Context, id, html string) (track.Task, error) {
	var out track.Task

	body := map[string]any{"notes": html}
	err := r.c.do(ctx, http.MethodPut, "/tasks/"+escape(id)+"/notes", body, &out)

	return out, err
}

func (r taskClient) SetDueDate(ctx context.Context, id string, due entstore.DueDate) (track.Task, error) {
	var out track.Task

	body := map[string]any{"dueDate": due}
	err := r.c.do(ctx, http.MethodPut, "/tasks/"+escape(id)+"/due-date", body, &out)

	return out, err
}
