package track

import (
	"context"

	"github.com/mbirch/trackle/pkg/entstore"
)

// Comments is the comment-domain store for one issue's thread. Fetch takes
// the parent issue id.
type Comments struct {
	*entstore.Store[Comment]
}

// NewComments builds the comment store. The body is rich text and always
// waits for the server; only the resolved flag flips optimistically.
func NewComments(remote CommentRemote, opts ...entstore.Option) *Comments {
	store := entstore.New(entstore.Config[Comment]{
		Entity: "Comment",
		Remote: remote,
		Policy: entstore.NewPolicy("resolved"),
		Apply:  ApplyCommentPatch,
	}, opts...)

	return &Comments{Store: store}
}

// SetBody updates the comment text (pessimistic, via the unsafe "body"
// field).
func (s *Comments) SetBody(ctx context.Context, id, html string) {
	s.Update(ctx, id, entstore.Patch{"body": html})
}

// Resolve optimistically flips the resolved flag.
func (s *Comments) Resolve(ctx context.Context, id string, resolved bool) {
	s.Update(ctx, id, entstore.Patch{"resolved": resolved})
}

// Unresolved returns the unresolved comments, in list order.
func (s *Comments) Unresolved() []Comment {
	return s.Where(func(c Comment) bool { return !c.Resolved })
}
