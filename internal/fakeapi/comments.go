package fakeapi

import (
	"context"
	"fmt"
	"sort"

	"github.com/mbirch/trackle/internal/track"
	"github.com/mbirch/trackle/pkg/entstore"
)

// Comments returns the comment-domain remote backed by this server.
func (s *Server) Comments() track.CommentRemote {
	return commentRemote{s: s}
}

type commentRemote struct {
	s *Server
}

// List returns the thread of one issue, oldest first.
func (r commentRemote) List(_ context.Context, issueID string) ([]track.Comment, error) {
	if err := r.s.gate("comments.list"); err != nil {
		return nil, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []track.Comment

	for _, rec := range r.s.comments {
		if rec.IssueID == issueID {
			out = append(out, rec)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}

func (r commentRemote) Create(_ context.Context, payload entstore.Patch) (track.Comment, error) {
	if err := r.s.gate("comments.create"); err != nil {
		return track.Comment{}, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	issueID, _ := payload["issueId"].(string)
	if _, ok := r.s.issues[issueID]; !ok {
		return track.Comment{}, fmt.Errorf("%w: issue %s", ErrNotFound, issueID)
	}

	now := r.s.now()
	base := track.Comment{
		ID:         newID(),
		IssueID:    issueID,
		AuthorName: r.s.actor.Name,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	rec := track.ApplyCommentPatch(base, payload)
	rec.Body = normalizeRichText(rec.Body)
	r.s.comments[rec.ID] = rec

	return rec, nil
}

func (r commentRemote) Update(_ context.Context, id string, patch entstore.Patch) (track.Comment, error) {
	if err := r.s.gate("comments.update"); err != nil {
		return track.Comment{}, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.comments[id]
	if !ok {
		return track.Comment{}, fmt.Errorf("%w: comment %s", ErrNotFound, id)
	}

	rec := track.ApplyCommentPatch(cur, patch)
	rec.Body = normalizeRichText(rec.Body)
	rec.UpdatedAt = r.s.now()
	r.s.comments[id] = rec

	return rec, nil
}

func (r commentRemote) Delete(_ context.Context, id string) error {
	if err := r.s.gate("comments.delete"); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.comments[id]; !ok {
		return fmt.Errorf("%w: comment %s", ErrNotFound, id)
	}

	delete(r.s.comments, id)

	return nil
}
