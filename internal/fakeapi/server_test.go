package fakeapi_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbirch/trackle/internal/fakeapi"
	"github.com/mbirch/trackle/internal/track"
	"github.com/mbirch/trackle/pkg/entstore"
)

// tick returns a deterministic clock advancing one second per call.
func tick() func() time.Time {
	current := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func Test_Create_Allocates_Sequential_Display_Keys_When_Called(t *testing.T) {
	t.Parallel()

	srv := fakeapi.New("ENG", fakeapi.WithClock(tick()))
	remote := srv.Issues()
	ctx := context.Background()

	first, err := remote.Create(ctx, entstore.Patch{"title": "one"})
	require.NoError(t, err)

	second, err := remote.Create(ctx, entstore.Patch{"title": "two"})
	require.NoError(t, err)

	assert.Equal(t, "ENG-1", first.DisplayKey)
	assert.Equal(t, "ENG-2", second.DisplayKey)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, track.StatusBacklog, first.Status)
	assert.Equal(t, first.CreatedAt, first.UpdatedAt)
}

func Test_List_Orders_By_Priority_Then_Recency_When_Called(t *testing.T) {
	t.Parallel()

	clock := tick()
	srv := fakeapi.New("ENG", fakeapi.WithClock(clock))

	old := srv.SeedIssue(track.Issue{Title: "old urgent", Priority: 1, CreatedAt: clock()})
	newer := srv.SeedIssue(track.Issue{Title: "new urgent", Priority: 1, CreatedAt: clock()})
	low := srv.SeedIssue(track.Issue{Title: "low", Priority: 4, CreatedAt: clock()})
	none := srv.SeedIssue(track.Issue{Title: "none", Priority: track.PriorityNone, CreatedAt: clock()})

	got, err := srv.Issues().List(context.Background(), "ws-1")
	require.NoError(t, err)
	require.Len(t, got, 4)

	var ids []string
	for _, rec := range got {
		ids = append(ids, rec.ID)
	}

	assert.Equal(t, []string{newer.ID, old.ID, low.ID, none.ID}, ids)
}

func Test_FailNext_Fails_Exactly_Once_When_Armed(t *testing.T) {
	t.Parallel()

	srv := fakeapi.New("ENG")
	seeded := srv.SeedIssue(track.Issue{Title: "x"})
	remote := srv.Issues()
	ctx := context.Background()

	boom := errors.New("injected outage")
	srv.FailNext("issues.update", boom)

	_, err := remote.Update(ctx, seeded.ID, entstore.Patch{"title": "y"})
	require.ErrorIs(t, err, boom)

	got, err := remote.Update(ctx, seeded.ID, entstore.Patch{"title": "y"})
	require.NoError(t, err, "injection is consumed by the first call")
	assert.Equal(t, "y", got.Title)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt) || got.UpdatedAt.Equal(got.CreatedAt))
}

func Test_Assign_Resolves_Users_When_Known(t *testing.T) {
	t.Parallel()

	srv := fakeapi.New("ENG")
	srv.AddUser(track.User{ID: "u-1", Name: "Ada"})

	seeded := srv.SeedIssue(track.Issue{Title: "x"})
	remote := srv.Issues()
	ctx := context.Background()

	got, err := remote.Assign(ctx, seeded.ID, []string{"u-1"})
	require.NoError(t, err)
	require.Len(t, got.Assignees, 1)
	assert.Equal(t, "Ada", got.Assignees[0].Name)

	_, err = remote.Assign(ctx, seeded.ID, []string{"u-ghost"})
	assert.ErrorIs(t, err, fakeapi.ErrUnknownUser)

	err = remote.RemoveAssignee(ctx, seeded.ID, "u-1")
	require.NoError(t, err)

	fetched, err := remote.Update(ctx, seeded.ID, entstore.Patch{})
	require.NoError(t, err)
	assert.Empty(t, fetched.Assignees)
}

func Test_Comment_Create_Requires_Existing_Issue_When_Called(t *testing.T) {
	t.Parallel()

	srv := fakeapi.New("ENG", fakeapi.WithClock(tick()))
	issue := srv.SeedIssue(track.Issue{Title: "x"})
	remote := srv.Comments()
	ctx := context.Background()

	_, err := remote.Create(ctx, entstore.Patch{"issueId": "ghost", "body": "hi"})
	require.ErrorIs(t, err, fakeapi.ErrNotFound)

	first, err := remote.Create(ctx, entstore.Patch{"issueId": issue.ID, "body": "  first  "})
	require.NoError(t, err)
	assert.Equal(t, "first", first.Body, "server normalizes rich text")

	second, err := remote.Create(ctx, entstore.Patch{"issueId": issue.ID, "body": "second"})
	require.NoError(t, err)

	thread, err := remote.List(ctx, issue.ID)
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, first.ID, thread[0].ID, "oldest first")
	assert.Equal(t, second.ID, thread[1].ID)
}

func Test_Delete_Returns_NotFound_When_Missing(t *testing.T) {
	t.Parallel()

	srv := fakeapi.New("ENG")

	err := srv.Issues().Delete(context.Background(), "ghost")
	assert.ErrorIs(t, err, fakeapi.ErrNotFound)

	err = srv.Filters().Delete(context.Background(), "ghost")
	assert.ErrorIs(t, err, fakeapi.ErrNotFound)
}
