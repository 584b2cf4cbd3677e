package track

import (
	"context"
	"slices"

	"github.com/mbirch/trackle/pkg/entstore"
)

// Tasks is the task-domain store.
type Tasks struct {
	*entstore.Store[Task]

	remote TaskRemote
}

// NewTasks builds the task store. The safe set matches the issue store;
// notes are rich text and always pessimistic.
func NewTasks(remote TaskRemote, opts ...entstore.Option) *Tasks {
	store := entstore.New(entstore.Config[Task]{
		Entity: "Task",
		Remote: remote,
		Policy: entstore.NewPolicy("title", "status", "priority", "dueDate"),
		Apply:  ApplyTaskPatch,
		Merge:  mergeTask,
	}, opts...)

	return &Tasks{Store: store, remote: remote}
}

func mergeTask(local, server Task) Task {
	out := server.Clone()
	if len(server.Assignees) == 0 {
		out.Assignees = slices.Clone(local.Assignees)
	}

	return out
}

// Assign optimistically attaches the given users. See Issues.Assign.
func (s *Tasks) Assign(ctx context.Context, id string, users []User) {
	if len(users) == 0 {
		return
	}

	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}

	s.Optimistic(ctx, "assignTask", id, func(in Task) Task {
		out := in
		out.Assignees = appendAssignees(in.Assignees, users)

		return out
	}, func(ctx context.Context) (Task, bool, error) {
		rec, err := s.remote.Assign(ctx, id, ids)
		return rec, err == nil, err
	})
}

// RemoveAssignee optimistically filters the user out of the local
// collection.
func (s *Tasks) RemoveAssignee(ctx context.Context, id, userID string) {
	s.Optimistic(ctx, "unassignTask", id, func(in Task) Task {
		out := in
		out.Assignees = slices.DeleteFunc(slices.Clone(in.Assignees), func(u User) bool {
			return u.ID == userID
		})

		return out
	}, func(ctx context.Context) (Task, bool, error) {
		err := s.remote.RemoveAssignee(ctx, id, userID)
		return Task{}, false, err
	})
}

// SetNotes is pessimistic: notes come from a debounced rich-text editor and
// are normalized server-side.
func (s *Tasks) SetNotes(ctx context.Context, id, html string) {
	s.Pessimistic(ctx, "setTaskNotes", id, func(ctx context.Context) (Task, bool, error) {
		rec, err := s.remote.SetNotes(ctx, id, html)
		return rec, err == nil, err
	})
}

// SetDueDate optimistically sets or clears the due date. Both set and clear
// travel as one tagged value; the wire sentinel for clear is always the
// empty string.
func (s *Tasks) SetDueDate(ctx context.Context, id string, due entstore.DueDate) {
	s.Optimistic(ctx, "setTaskDueDate", id, func(in Task) Task {
		out := in
		out.DueDate = due.Wire()

		return out
	}, func(ctx context.Context) (Task, bool, error) {
		rec, err := s.remote.SetDueDate(ctx, id, due)
		return rec, err == nil, err
	})
}

// ByStatus returns tasks with the given status, in list order.
func (s *Tasks) ByStatus(status string) []Task {
	return s.Where(func(t Task) bool { return t.Status == status })
}

// ByAssignee returns tasks assigned to the given user, in list order.
func (s *Tasks) ByAssignee(userID string) []Task {
	return s.Where(func(t Task) bool {
		return slices.ContainsFunc(t.Assignees, func(u User) bool { return u.ID == userID })
	})
}
