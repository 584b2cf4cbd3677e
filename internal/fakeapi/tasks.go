package fakeapi

import (
	"context"
	"fmt"
	"sort"

	"github.com/mbirch/trackle/internal/track"
	"github.com/mbirch/trackle/pkg/entstore"
)

// Tasks returns the task-domain remote backed by this server.
func (s *Server) Tasks() track.TaskRemote {
	return taskRemote{s: s}
}

type taskRemote struct {
	s *Server
}

func (r taskRemote) List(_ context.Context, _ string) ([]track.Task, error) {
	if err := r.s.gate("tasks.list"); err != nil {
		return nil, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]track.Task, 0, len(r.s.tasks))
	for _, rec := range r.s.tasks {
		out = append(out, rec.Clone())
	}

	sort.SliceStable(out, func(i, j int) bool {
		return lessWork(out[i].Priority, out[i].CreatedAt, out[j].Priority, out[j].CreatedAt)
	})

	return out, nil
}

func (r taskRemote) Create(_ context.Context, payload entstore.Patch) (track.Task, error) {
	if err := r.s.gate("tasks.create"); err != nil {
		return track.Task{}, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	base := track.Task{
		ID:         newID(),
		DisplayKey: r.s.nextDisplayKey(),
		Status:     track.StatusTodo,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	rec := track.ApplyTaskPatch(base, payload)
	r.s.tasks[rec.ID] = rec

	return rec.Clone(), nil
}

func (r taskRemote) Update(_ context.Context, id string, patch entstore.Patch) (track.Task, error) {
	if err := r.s.gate("tasks.update"); err != nil {
		return track.Task{}, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.tasks[id]
	if !ok {
		return track.Task{}, fmt.Errorf("%w: task %s", ErrNotFound, id)
	}

	rec := track.ApplyTaskPatch(cur, patch)
	rec.UpdatedAt = r.s.now()
	r.s.tasks[id] = rec

	return rec.Clone(), nil
}

func (r taskRemote) Delete(_ context.Context, id string) error {
	if err := r.s.gate("tasks.delete"); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tasks[id]; !ok {
		return fmt.Errorf("%w: task %s", ErrNotFound, id)
	}

	delete(r.s.tasks, id)

	return nil
}

func (r taskRemote) Assign(_ context.Context, id string, userIDs []string) (track.Task, error) {
	if err := r.s.gate("tasks.assign"); err != nil {
		return track.Task{}, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.tasks[id]
	if !ok {
		return track.Task{}, fmt.Errorf("%w: task %s", ErrNotFound, id)
	}

	users, err := r.s.resolveUsers(userIDs)
	if err != nil {
		return track.Task{}, err
	}

	rec := cur.Clone()
	rec.Assignees = mergeAssignees(rec.Assignees, users)
	rec.UpdatedAt = r.s.now()
	r.s.tasks[id] = rec

	return rec.Clone(), nil
}

func (r taskRemote) RemoveAssignee(_ context.Context, id, userID string) error {
	if err := r.s.gate("tasks.unassign"); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.tasks[id]
	if !ok {
		return fmt.Errorf("%w: task %s", ErrNotFound, id)
	}

	rec := cur.Clone()
	rec.Assignees = dropAssignee(rec.Assignees, userID)
	rec.UpdatedAt = r.s.now()
	r.s.tasks[id] = rec

	return nil
}

func (r taskRemote) SetNotes(_ context.Context, id, html string) (track.Task, error) {
	if err := r.s.gate("tasks.setNotes"); err != nil {
		return track.Task{}, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.tasks[id]
	if !ok {
		return track.Task{}, fmt.Errorf("%w: task %s", ErrNotFound, id)
	}

	rec := cur.Clone()
	rec.Notes = normalizeRichText(html)
	rec.UpdatedAt = r.s.now()
	r.s.tasks[id] = rec

	return rec.Clone(), nil
}

func (r taskRemote) SetDueDate(_ context.Context, id string, due entstore.DueDate) (track.Task, error) {
	if err := r.s.gate("tasks.due"); err != nil {
		return track.Task{}, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.tasks[id]
	if !ok {
		return track.Task{}, fmt.Errorf("%w: task %s", ErrNotFound, id)
	}

	rec := cur.Clone()
	rec.DueDate = due.Wire()
	rec.UpdatedAt = r.s.now()
	r.s.tasks[id] = rec

	return rec.Clone(), nil
}
