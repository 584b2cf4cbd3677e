package track

import (
	"context"
	"slices"

	"github.com/mbirch/trackle/pkg/entstore"
)

// Issues is the issue-domain store: the generic optimistic store plus the
// issue-specific verbs.
type Issues struct {
	*entstore.Store[Issue]

	remote IssueRemote
}

// NewIssues builds the issue store. Title, status, priority and due date
// are known completely on the client before the server is asked, so they
// apply optimistically; description (server-normalized rich text) and the
// assignee relation wait for the server.
func NewIssues(remote IssueRemote, opts ...entstore.Option) *Issues {
	store := entstore.New(entstore.Config[Issue]{
		Entity: "Issue",
		Remote: remote,
		Policy: entstore.NewPolicy("title", "status", "priority", "dueDate"),
		Apply:  ApplyIssuePatch,
		Merge:  mergeIssue,
	}, opts...)

	return &Issues{Store: store, remote: remote}
}

// mergeIssue adopts the server record but keeps the locally held assignee
// collection when the response does not echo one (set-description and
// plain updates don't).
func mergeIssue(local, server Issue) Issue {
	out := server.Clone()
	if len(server.Assignees) == 0 {
		out.Assignees = slices.Clone(local.Assignees)
	}

	return out
}

// Assign optimistically attaches the given users, using each user's known
// name or a placeholder until the server resolves the relation. On failure
// the snapshot restore filters the placeholders back out.
func (s *Issues) Assign(ctx context.Context, id string, users []User) {
	if len(users) == 0 {
		return
	}

	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}

	s.Optimistic(ctx, "assignIssue", id, func(in Issue) Issue {
		out := in
		out.Assignees = appendAssignees(in.Assignees, users)

		return out
	}, func(ctx context.Context) (Issue, bool, error) {
		rec, err := s.remote.Assign(ctx, id, ids)
		return rec, err == nil, err
	})
}

// RemoveAssignee optimistically filters the user out of the local
// collection; a failed round-trip restores the pre-mutation collection.
func (s *Issues) RemoveAssignee(ctx context.Context, id, userID string) {
	s.Optimistic(ctx, "unassignIssue", id, func(in Issue) Issue {
		out := in
		out.Assignees = slices.DeleteFunc(slices.Clone(in.Assignees), func(u User) bool {
			return u.ID == userID
		})

		return out
	}, func(ctx context.Context) (Issue, bool, error) {
		err := s.remote.RemoveAssignee(ctx, id, userID)
		return Issue{}, false, err
	})
}

// SetDescription is pessimistic: the body is normalized server-side, so
// correctness requires waiting for the authoritative echo.
func (s *Issues) SetDescription(ctx context.Context, id, html string) {
	s.Pessimistic(ctx, "setIssueDescription", id, func(ctx context.Context) (Issue, bool, error) {
		rec, err := s.remote.SetDescription(ctx, id, html)
		return rec, err == nil, err
	})
}

// SetDueDate optimistically sets or clears the due date.
func (s *Issues) SetDueDate(ctx context.Context, id string, due entstore.DueDate) {
	s.Optimistic(ctx, "setIssueDueDate", id, func(in Issue) Issue {
		out := in
		out.DueDate = due.Wire()

		return out
	}, func(ctx context.Context) (Issue, bool, error) {
		rec, err := s.remote.SetDueDate(ctx, id, due)
		return rec, err == nil, err
	})
}

// ByStatus returns issues with the given status, in list order.
func (s *Issues) ByStatus(status string) []Issue {
	return s.Where(func(i Issue) bool { return i.Status == status })
}

// ByAssignee returns issues assigned to the given user, in list order.
func (s *Issues) ByAssignee(userID string) []Issue {
	return s.Where(func(i Issue) bool {
		return slices.ContainsFunc(i.Assignees, func(u User) bool { return u.ID == userID })
	})
}

// appendAssignees appends users to an assignee collection, skipping
// already-attached ids and substituting the placeholder name for
// unresolved users. Shared with the task store.
func appendAssignees(current []User, users []User) []User {
	out := slices.Clone(current)

	for _, u := range users {
		if slices.ContainsFunc(out, func(a User) bool { return a.ID == u.ID }) {
			continue
		}

		name := u.Name
		if name == "" {
			name = PlaceholderName
		}

		out = append(out, User{ID: u.ID, Name: name})
	}

	return out
}
