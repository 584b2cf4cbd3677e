package fakeapi

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mbirch/trackle/internal/track"
	"github.com/mbirch/trackle/pkg/entstore"
)

// Issues returns the issue-domain remote backed by this server.
func (s *Server) Issues() track.IssueRemote {
	return issueRemote{s: s}
}

type issueRemote struct {
	s *Server
}

func (r issueRemote) List(_ context.Context, _ string) ([]track.Issue, error) {
	if err := r.s.gate("issues.list"); err != nil {
		return nil, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]track.Issue, 0, len(r.s.issues))
	for _, rec := range r.s.issues {
		out = append(out, rec.Clone())
	}

	sort.SliceStable(out, func(i, j int) bool {
		return lessWork(out[i].Priority, out[i].CreatedAt, out[j].Priority, out[j].CreatedAt)
	})

	return out, nil
}

func (r issueRemote) Create(_ context.Context, payload entstore.Patch) (track.Issue, error) {
	if err := r.s.gate("issues.create"); err != nil {
		return track.Issue{}, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	base := track.Issue{
		ID:          newID(),
		DisplayKey:  r.s.nextDisplayKey(),
		Status:      track.StatusBacklog,
		CreatorName: r.s.actor.Name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	rec := track.ApplyIssuePatch(base, payload)
	r.s.issues[rec.ID] = rec

	return rec.Clone(), nil
}

func (r issueRemote) Update(_ context.Context, id string, patch entstore.Patch) (track.Issue, error) {
	if err := r.s.gate("issues.update"); err != nil {
		return track.Issue{}, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.issues[id]
	if !ok {
		return track.Issue{}, fmt.Errorf("%w: issue %s", ErrNotFound, id)
	}

	rec := track.ApplyIssuePatch(cur, patch)
	rec.UpdatedAt = r.s.now()
	r.s.issues[id] = rec

	return rec.Clone(), nil
}

func (r issueRemote) Delete(_ context.Context, id string) error {
	if err := r.s.gate("issues.delete"); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.issues[id]; !ok {
		return fmt.Errorf("%w: issue %s", ErrNotFound, id)
	}

	delete(r.s.issues, id)

	return nil
}

func (r issueRemote) Assign(_ context.Context, id string, userIDs []string) (track.Issue, error) {
	if err := r.s.gate("issues.assign"); err != nil {
		return track.Issue{}, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.issues[id]
	if !ok {
		return track.Issue{}, fmt.Errorf("%w: issue %s", ErrNotFound, id)
	}

	users, err := r.s.resolveUsers(userIDs)
	if err != nil {
		return track.Issue{}, err
	}

	rec := cur.Clone()
	rec.Assignees = mergeAssignees(rec.Assignees, users)
	rec.UpdatedAt = r.s.now()
	r.s.issues[id] = rec

	return rec.Clone(), nil
}

func (r issueRemote) RemoveAssignee(_ context.Context, id, userID string) error {
	if err := r.s.gate("issues.unassign"); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.issues[id]
	if !ok {
		return fmt.Errorf("%w: issue %s", ErrNotFound, id)
	}

	rec := cur.Clone()
	rec.Assignees = dropAssignee(rec.Assignees, userID)
	rec.UpdatedAt = r.s.now()
	r.s.issues[id] = rec

	return nil
}

func (r issueRemote) SetDescription(_ context.Context, id, html string) (track.Issue, error) {
	if err := r.s.gate("issues.describe"); err != nil {
		return track.Issue{}, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.issues[id]
	if !ok {
		return track.Issue{}, fmt.Errorf("%w: issue %s", ErrNotFound, id)
	}

	rec := cur.Clone()
	rec.Description = normalizeRichText(html)
	rec.UpdatedAt = r.s.now()
	r.s.issues[id] = rec

	return rec.Clone(), nil
}

func (r issueRemote) SetDueDate(_ context.Context, id string, due entstore.DueDate) (track.Issue, error) {
	if err := r.s.gate("issues.due"); err != nil {
		return track.Issue{}, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.issues[id]
	if !ok {
		return track.Issue{}, fmt.Errorf("%w: issue %s", ErrNotFound, id)
	}

	rec := cur.Clone()
	rec.DueDate = due.Wire()
	rec.UpdatedAt = r.s.now()
	r.s.issues[id] = rec

	return rec.Clone(), nil
}

// lessWork orders by priority (1 most urgent, none last), then recency.
func lessWork(pa int, ca time.Time, pb int, cb time.Time) bool {
	ra, rb := priorityRank(pa), priorityRank(pb)
	if ra != rb {
		return ra < rb
	}

	return ca.After(cb)
}

func priorityRank(p int) int {
	if p == track.PriorityNone {
		return track.MaxPriority + 1
	}

	return p
}

// mergeAssignees appends resolved users, replacing any placeholder entry
// with the same id.
func mergeAssignees(current []track.User, users []track.User) []track.User {
	out := make([]track.User, 0, len(current)+len(users))
	out = append(out, current...)

	for _, u := range users {
		replaced := false

		for i, a := range out {
			if a.ID == u.ID {
				out[i] = u
				replaced = true

				break
			}
		}

		if !replaced {
			out = append(out, u)
		}
	}

	return out
}

func dropAssignee(current []track.User, userID string) []track.User {
	out := current[:0]

	for _, a := range current {
		if a.ID != userID {
			out = append(out, a)
		}
	}

	return out
}

// normalizeRichText is the server-side cleanup clients cannot predict.
func normalizeRichText(html string) string {
	return strings.TrimSpace(html)
}
