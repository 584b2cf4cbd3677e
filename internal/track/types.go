// Package track defines the tracker's entity records and the per-domain
// store specializations built on entstore.
package track

import (
	"slices"
	"time"

	"github.com/mbirch/trackle/pkg/entstore"
)

// Status values shared by issues and tasks.
const (
	StatusBacklog    = "backlog"
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
	StatusCanceled   = "canceled"
)

// Priority bounds. 0 means no priority, 1 is most urgent.
const (
	PriorityNone = 0
	MinPriority  = 0
	MaxPriority  = 4
)

// PlaceholderName is shown for an assignee whose user record has not been
// resolved yet.
const PlaceholderName = "Loading…"

// validStatuses are the allowed status values.
var validStatuses = []string{StatusBacklog, StatusTodo, StatusInProgress, StatusDone, StatusCanceled}

// ValidStatus reports whether s is an allowed status value.
func ValidStatus(s string) bool {
	return slices.Contains(validStatuses, s)
}

// User is a relation summary: the resolved (or placeholder) form of an
// assignee or creator.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Issue is one tracked issue. DisplayKey is the human-visible identifier
// "<teamKey>-<sequenceNumber>"; the client treats it as an opaque
// server-provided string and never computes it.
type Issue struct {
	ID          string    `json:"id"`
	DisplayKey  string    `json:"displayKey"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
	Priority    int       `json:"priority"`
	DueDate     string    `json:"dueDate"` // ISO date, "" when unset
	Description string    `json:"description"`
	Assignees   []User    `json:"assignees"`
	CreatorName string    `json:"creatorName"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RecordID implements entstore.Record.
func (i Issue) RecordID() string { return i.ID }

// Clone implements entstore.Record.
func (i Issue) Clone() Issue {
	out := i
	out.Assignees = slices.Clone(i.Assignees)

	return out
}

// Task is one tracked task. Same shape as Issue except free-text Notes.
type Task struct {
	ID         string    `json:"id"`
	DisplayKey string    `json:"displayKey"`
	Title      string    `json:"title"`
	Status     string    `json:"status"`
	Priority   int       `json:"priority"`
	DueDate    string    `json:"dueDate"`
	Notes      string    `json:"notes"`
	Assignees  []User    `json:"assignees"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// RecordID implements entstore.Record.
func (t Task) RecordID() string { return t.ID }

// Clone implements entstore.Record.
func (t Task) Clone() Task {
	out := t
	out.Assignees = slices.Clone(t.Assignees)

	return out
}

// Comment is one comment on an issue.
type Comment struct {
	ID         string    `json:"id"`
	IssueID    string    `json:"issueId"`
	Body       string    `json:"body"`
	Resolved   bool      `json:"resolved"`
	AuthorName string    `json:"authorName"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// RecordID implements entstore.Record.
func (c Comment) RecordID() string { return c.ID }

// Clone implements entstore.Record.
func (c Comment) Clone() Comment { return c }

// SavedFilter is a saved issue filter. Every field is client-owned, so all
// of its updates are optimistic.
type SavedFilter struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Query  string `json:"query"`
	Shared bool   `json:"shared"`
}

// RecordID implements entstore.Record.
func (f SavedFilter) RecordID() string { return f.ID }

// Clone implements entstore.Record.
func (f SavedFilter) Clone() SavedFilter { return f }

// ApplyIssuePatch merges user-editable fields into an issue. Unknown fields
// and wrong-typed values are ignored. Shared with fakeapi, which uses it as
// the server-side merge too.
func ApplyIssuePatch(in Issue, p entstore.Patch) Issue {
	out := in

	for field, v := range p {
		switch field {
		case "title":
			if s, ok := v.(string); ok {
				out.Title = s
			}
		case "status":
			if s, ok := v.(string); ok {
				out.Status = s
			}
		case "priority":
			if n, ok := v.(int); ok {
				out.Priority = n
			}
		case "dueDate":
			if d, ok := v.(entstore.DueDate); ok {
				out.DueDate = d.Wire()
			}
		case "description":
			if s, ok := v.(string); ok {
				out.Description = s
			}
		}
	}

	return out
}

// ApplyTaskPatch merges user-editable fields into a task.
func ApplyTaskPatch(in Task, p entstore.Patch) Task {
	out := in

	for field, v := range p {
		switch field {
		case "title":
			if s, ok := v.(string); ok {
				out.Title = s
			}
		case "status":
			if s, ok := v.(string); ok {
				out.Status = s
			}
		case "priority":
			if n, ok := v.(int); ok {
				out.Priority = n
			}
		case "dueDate":
			if d, ok := v.(entstore.DueDate); ok {
				out.DueDate = d.Wire()
			}
		case "notes":
			if s, ok := v.(string); ok {
				out.Notes = s
			}
		}
	}

	return out
}

// ApplyCommentPatch merges user-editable fields into a comment.
func ApplyCommentPatch(in Comment, p entstore.Patch) Comment {
	out := in

	for field, v := range p {
		switch field {
		case "body":
			if s, ok := v.(string); ok {
				out.Body = s
			}
		case "resolved":
			if b, ok := v.(bool); ok {
				out.Resolved = b
			}
		}
	}

	return out
}

// ApplyFilterPatch merges user-editable fields into a saved filter.
func ApplyFilterPatch(in SavedFilter, p entstore.Patch) SavedFilter {
	out := in

	for field, v := range p {
		switch field {
		case "name":
			if s, ok := v.(string); ok {
				out.Name = s
			}
		case "query":
			if s, ok := v.(string); ok {
				out.Query = s
			}
		case "shared":
			if b, ok := v.(bool); ok {
				out.Shared = b
			}
		}
	}

	return out
}
