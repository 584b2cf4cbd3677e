package track

import (
	"context"

	"github.com/mbirch/trackle/pkg/entstore"
)

// IssueRemote is the server-side collaborator for the issue domain. List
// takes the workspace id. Implementations return an error for any non-2xx
// outcome.
type IssueRemote interface {
	entstore.Remote[Issue]

	// Assign adds assignees; the response carries the fully resolved
	// assignee records.
	Assign(ctx context.Context, id string, userIDs []string) (Issue, error)

	// RemoveAssignee detaches one assignee. No record is echoed back.
	RemoveAssignee(ctx context.Context, id, userID string) error

	// SetDescription stores server-normalized rich text and echoes the
	// authoritative record.
	SetDescription(ctx context.Context, id, html string) (Issue, error)

	// SetDueDate sets or clears the due date.
	SetDueDate(ctx context.Context, id string, due entstore.DueDate) (Issue, error)
}

// TaskRemote is the server-side collaborator for the task domain.
type TaskRemote interface {
	entstore.Remote[Task]

	Assign(ctx context.Context, id string, userIDs []string) (Task, error)
	RemoveAssignee(ctx context.Context, id, userID string) error
	SetNotes(ctx context.Context, id, html string) (Task, error)
	SetDueDate(ctx context.Context, id string, due entstore.DueDate) (Task, error)
}

// CommentRemote is the server-side collaborator for the comment domain.
// List takes the parent issue id.
type CommentRemote interface {
	entstore.Remote[Comment]
}

// FilterRemote is the server-side collaborator for saved filters. List
// takes the workspace id.
type FilterRemote interface {
	entstore.Remote[SavedFilter]
}
