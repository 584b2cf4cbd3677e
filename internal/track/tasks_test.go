package track_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbirch/trackle/internal/fakeapi"
	"github.com/mbirch/trackle/internal/track"
	"github.com/mbirch/trackle/pkg/entstore"
)

// thinTaskRemote mimics a backend whose set-notes response does not echo
// the assignee relation, the case the pessimistic merge exists for.
type thinTaskRemote struct {
	track.TaskRemote
}

func (r thinTaskRemote) SetNotes(ctx context.Context, id, html string) (track.Task, error) {
	rec, err := r.TaskRemote.SetNotes(ctx, id, html)
	rec.Assignees = nil

	return rec, err
}

func Test_SetNotes_Preserves_Local_Assignees_When_Response_Omits_Them(t *testing.T) {
	t.Parallel()

	srv := fakeapi.New("OPS")
	srv.AddUser(track.User{ID: "u-1", Name: "Ada"})

	seeded := srv.SeedTask(track.Task{
		Title:     "rotate keys",
		Assignees: []track.User{{ID: "u-1", Name: "Ada"}},
	})

	tasks := track.NewTasks(thinTaskRemote{TaskRemote: srv.Tasks()})
	tasks.Fetch(context.Background(), "ws-1")
	tasks.Quiesce()

	tasks.SetNotes(context.Background(), seeded.ID, "  checklist  ")
	tasks.Quiesce()

	got, ok := tasks.Get(seeded.ID)
	require.True(t, ok)
	assert.Equal(t, "checklist", got.Notes, "normalized echo adopted")
	require.Len(t, got.Assignees, 1, "local assignee collection survives the merge")
	assert.Equal(t, "Ada", got.Assignees[0].Name)
}

func Test_SetNotes_Leaves_Table_Untouched_When_Remote_Fails(t *testing.T) {
	t.Parallel()

	srv := fakeapi.New("OPS")
	seeded := srv.SeedTask(track.Task{Title: "rotate keys", Notes: "old"})

	tasks := track.NewTasks(srv.Tasks())
	tasks.Fetch(context.Background(), "ws-1")
	tasks.Quiesce()

	srv.FailNext("tasks.setNotes", errors.New("503"))

	tasks.SetNotes(context.Background(), seeded.ID, "new")
	tasks.Quiesce()

	got, _ := tasks.Get(seeded.ID)
	assert.Equal(t, "old", got.Notes, "pessimistic failure needs no rollback")
	assert.NotEmpty(t, tasks.ErrorFor(entstore.OpKey("setTaskNotes", seeded.ID)))
	assert.False(t, tasks.Loading(entstore.OpKey("setTaskNotes", seeded.ID)))
}

func Test_Task_DueDate_Round_Trips_Set_And_Clear_When_Patched(t *testing.T) {
	t.Parallel()

	srv := fakeapi.New("OPS")
	seeded := srv.SeedTask(track.Task{Title: "ship"})

	tasks := track.NewTasks(srv.Tasks())
	ctx := context.Background()
	tasks.Fetch(ctx, "ws-1")
	tasks.Quiesce()

	tasks.Update(ctx, seeded.ID, entstore.Patch{"dueDate": entstore.DueOn(mustDay(t, "2026-05-01"))})
	tasks.Quiesce()

	got, _ := tasks.Get(seeded.ID)
	require.Equal(t, "2026-05-01", got.DueDate)

	// The clear travels through the generic update path too.
	tasks.Update(ctx, seeded.ID, entstore.Patch{"dueDate": entstore.NoDue()})
	tasks.Quiesce()

	got, _ = tasks.Get(seeded.ID)
	assert.Empty(t, got.DueDate)
}

func Test_Task_Assign_And_Unassign_Converge_When_Succeeding(t *testing.T) {
	t.Parallel()

	srv := fakeapi.New("OPS")
	srv.AddUser(track.User{ID: "u-1", Name: "Ada"})
	srv.AddUser(track.User{ID: "u-2", Name: "Grace"})

	seeded := srv.SeedTask(track.Task{Title: "ship"})

	tasks := track.NewTasks(srv.Tasks())
	ctx := context.Background()
	tasks.Fetch(ctx, "ws-1")
	tasks.Quiesce()

	tasks.Assign(ctx, seeded.ID, []track.User{{ID: "u-1"}, {ID: "u-2", Name: "Grace"}})
	tasks.Quiesce()

	got, _ := tasks.Get(seeded.ID)
	require.Len(t, got.Assignees, 2)
	assert.Equal(t, "Ada", got.Assignees[0].Name, "placeholder replaced by resolved record")

	tasks.RemoveAssignee(ctx, seeded.ID, "u-1")
	tasks.Quiesce()

	got, _ = tasks.Get(seeded.ID)
	require.Len(t, got.Assignees, 1)
	assert.Equal(t, "u-2", got.Assignees[0].ID)

	byAssignee := tasks.ByAssignee("u-2")
	require.Len(t, byAssignee, 1)
	assert.Empty(t, tasks.ByAssignee("u-1"))
}
