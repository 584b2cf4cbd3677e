package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mbirch/trackle/internal/fakeapi"
	"github.com/mbirch/trackle/internal/remote"
	"github.com/mbirch/trackle/internal/track"
	"github.com/mbirch/trackle/pkg/entstore"
)

// App bundles everything a command needs: output, config and the four
// domain stores, all backed by the same remote.
type App struct {
	IO  *IO
	Cfg Config

	Issues   *track.Issues
	Tasks    *track.Tasks
	Comments *track.Comments
	Filters  *track.Filters

	// Stats is nil when running against the embedded demo backend.
	Stats func() remote.Stats
}

// newApp wires the stores against the configured backend. An empty
// APIBaseURL selects the embedded in-memory backend with demo data, so the
// CLI works out of the box.
func newApp(cfg Config, o *IO, notifier entstore.Notifier) *App {
	app := &App{IO: o, Cfg: cfg}

	opts := []entstore.Option{entstore.WithNotifier(notifier)}

	if cfg.APIBaseURL == "" {
		srv := fakeapi.New(cfg.TeamKey)
		seedDemo(srv)

		app.Issues = track.NewIssues(srv.Issues(), opts...)
		app.Tasks = track.NewTasks(srv.Tasks(), opts...)
		app.Comments = track.NewComments(srv.Comments(), opts...)
		app.Filters = track.NewFilters(srv.Filters(), opts...)

		return app
	}

	client := remote.NewClient(cfg.APIBaseURL)

	app.Issues = track.NewIssues(client.Issues(), opts...)
	app.Tasks = track.NewTasks(client.Tasks(), opts...)
	app.Comments = track.NewComments(client.Comments(), opts...)
	app.Filters = track.NewFilters(client.Filters(), opts...)
	app.Stats = client.Monitor().Stats

	return app
}

// Quiesce waits for every in-flight remote call across all stores.
func (a *App) Quiesce() {
	a.Issues.Quiesce()
	a.Tasks.Quiesce()
	a.Comments.Quiesce()
	a.Filters.Quiesce()
}

// loadIssues fetches the workspace issue list and waits for it.
func (a *App) loadIssues(ctx context.Context) error {
	a.Issues.Fetch(ctx, a.Cfg.WorkspaceID)
	a.Issues.Quiesce()

	if msg := a.Issues.ErrorFor(a.Issues.FetchKey()); msg != "" {
		return errors.New(msg)
	}

	return nil
}

// findIssue resolves an issue by id or display key after a fetch.
func (a *App) findIssue(ctx context.Context, idOrKey string) (track.Issue, error) {
	if err := a.loadIssues(ctx); err != nil {
		return track.Issue{}, err
	}

	for _, issue := range a.Issues.List() {
		if issue.ID == idOrKey || issue.DisplayKey == idOrKey {
			return issue, nil
		}
	}

	return track.Issue{}, fmt.Errorf("no issue %q in workspace %s", idOrKey, a.Cfg.WorkspaceID)
}

// mutationErr surfaces a ledger error recorded under key, if any. Call
// after Quiesce.
func mutationErr(errorFor func(string) string, key string) error {
	if msg := errorFor(key); msg != "" {
		return errors.New(msg)
	}

	return nil
}

// seedDemo gives the embedded backend enough data for the CLI to be
// explorable without a server.
func seedDemo(srv *fakeapi.Server) {
	ada := track.User{ID: "u-ada", Name: "Ada Lovelace"}
	grace := track.User{ID: "u-grace", Name: "Grace Hopper"}

	srv.AddUser(ada)
	srv.AddUser(grace)

	day := 24 * time.Hour
	base := time.Now().Add(-14 * day).Truncate(time.Minute)

	login := srv.SeedIssue(track.Issue{
		Title:       "Login fails with expired refresh token",
		Status:      track.StatusInProgress,
		Priority:    1,
		Description: "<p>Session silently drops after token refresh.</p>",
		Assignees:   []track.User{ada},
		CreatedAt:   base,
	})

	srv.SeedIssue(track.Issue{
		Title:     "Dark mode for the board view",
		Status:    track.StatusBacklog,
		Priority:  3,
		CreatedAt: base.Add(2 * day),
	})

	srv.SeedIssue(track.Issue{
		Title:     "Flaky export on large workspaces",
		Status:    track.StatusTodo,
		Priority:  2,
		DueDate:   time.Now().Add(7 * day).Format("2006-01-02"),
		Assignees: []track.User{grace},
		CreatedAt: base.Add(4 * day),
	})

	srv.SeedTask(track.Task{
		Title:     "Rotate staging API keys",
		Status:    track.StatusTodo,
		Priority:  2,
		Assignees: []track.User{grace},
		CreatedAt: base.Add(day),
	})

	srv.SeedComment(track.Comment{
		IssueID:   login.ID,
		Body:      "Reproduced on the mobile client as well.",
		CreatedAt: base.Add(3 * day),
	})

	srv.SeedFilter(track.SavedFilter{Name: "My open work", Query: "status:todo assignee:me"})
}
