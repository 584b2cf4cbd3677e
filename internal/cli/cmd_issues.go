package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/mbirch/trackle/internal/track"
	"github.com/mbirch/trackle/pkg/entstore"
)

const defaultLimit = 50

var errTitleRequired = errors.New("--title is required")

func lsCommand() *Command {
	fs := flag.NewFlagSet("ls", flag.ContinueOnError)
	status := fs.String("status", "", "Filter by status")
	assignee := fs.String("assignee", "", "Filter by assignee user id")
	limit := fs.Int("limit", defaultLimit, "Maximum records to show")
	tasks := fs.Bool("tasks", false, "List tasks instead of issues")

	return &Command{
		Flags: fs,
		Usage: "ls [flags]",
		Short: "List issues (or tasks) in the workspace",
		Long:  "List workspace issues, highest priority first. Use --tasks for the task list.",
		Exec: func(ctx context.Context, app *App, _ []string) error {
			if *status != "" && !track.ValidStatus(*status) {
				return fmt.Errorf("invalid status: %s", *status)
			}

			if *limit < 0 {
				return errors.New("--limit must be non-negative")
			}

			if *tasks {
				return lsTasks(ctx, app, *status, *assignee, *limit)
			}

			if err := app.loadIssues(ctx); err != nil {
				return err
			}

			shown := 0

			for _, issue := range app.Issues.List() {
				if *status != "" && issue.Status != *status {
					continue
				}

				if *assignee != "" && !hasAssignee(issue.Assignees, *assignee) {
					continue
				}

				if shown >= *limit {
					break
				}

				app.IO.Println(formatIssueLine(issue))
				shown++
			}

			return nil
		},
	}
}

func lsTasks(ctx context.Context, app *App, status, assignee string, limit int) error {
	app.Tasks.Fetch(ctx, app.Cfg.WorkspaceID)
	app.Tasks.Quiesce()

	if err := mutationErr(app.Tasks.ErrorFor, app.Tasks.FetchKey()); err != nil {
		return err
	}

	shown := 0

	for _, task := range app.Tasks.List() {
		if status != "" && task.Status != status {
			continue
		}

		if assignee != "" && !hasAssignee(task.Assignees, assignee) {
			continue
		}

		if shown >= limit {
			break
		}

		app.IO.Println(formatTaskLine(task))
		shown++
	}

	return nil
}

func showCommand() *Command {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)

	return &Command{
		Flags: fs,
		Usage: "show <id|key>",
		Short: "Show one issue with its comment thread",
		Exec: func(ctx context.Context, app *App, args []string) error {
			if len(args) != 1 {
				return errors.New("show takes exactly one issue id or display key")
			}

			issue, err := app.findIssue(ctx, args[0])
			if err != nil {
				return err
			}

			printIssue(app.IO, issue)

			app.Comments.Fetch(ctx, issue.ID)
			app.Comments.Quiesce()

			if err := mutationErr(app.Comments.ErrorFor, app.Comments.FetchKey()); err != nil {
				return err
			}

			thread := app.Comments.List()
			if len(thread) == 0 {
				return nil
			}

			app.IO.Println()
			app.IO.Println("Comments:")

			for _, c := range thread {
				marker := " "
				if c.Resolved {
					marker = "x"
				}

				app.IO.Printf("  [%s] %s (%s): %s\n", marker, c.AuthorName, c.CreatedAt.Format("2006-01-02"), c.Body)
			}

			return nil
		},
	}
}

func createCommand() *Command {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	title := fs.StringP("title", "t", "", "Title (required)")
	priority := fs.IntP("priority", "p", track.PriorityNone, "Priority (1-4, 0 = none)")
	status := fs.String("status", "", "Initial status")
	due := fs.String("due", "", "Due date (YYYY-MM-DD)")
	desc := fs.String("desc", "", "Description")
	task := fs.Bool("task", false, "Create a task instead of an issue")

	return &Command{
		Flags: fs,
		Usage: "create -t <title> [flags]",
		Short: "Create an issue (or task)",
		Exec: func(ctx context.Context, app *App, _ []string) error {
			if *title == "" {
				return errTitleRequired
			}

			if *priority < track.MinPriority || *priority > track.MaxPriority {
				return fmt.Errorf("--priority must be %d-%d", track.MinPriority, track.MaxPriority)
			}

			if *status != "" && !track.ValidStatus(*status) {
				return fmt.Errorf("invalid status: %s", *status)
			}

			patch := entstore.Patch{
				"title":    *title,
				"status":   *status,
				"priority": *priority,
			}

			if *due != "" {
				day, err := parseDay(*due)
				if err != nil {
					return err
				}

				patch["dueDate"] = entstore.DueOn(day)
			}

			if *desc != "" {
				patch["description"] = *desc
			}

			if *task {
				app.Tasks.Create(ctx, patch)
				app.Tasks.Quiesce()

				if err := mutationErr(app.Tasks.ErrorFor, app.Tasks.CreateKey()); err != nil {
					return err
				}

				created := app.Tasks.List()[0]
				app.IO.Println("created", created.DisplayKey+":", created.Title)

				return nil
			}

			app.Issues.Create(ctx, patch)
			app.Issues.Quiesce()

			if err := mutationErr(app.Issues.ErrorFor, app.Issues.CreateKey()); err != nil {
				return err
			}

			created := app.Issues.List()[0]
			app.IO.Println("created", created.DisplayKey+":", created.Title)

			return nil
		},
	}
}

func updateCommand() *Command {
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	title := fs.StringP("title", "t", "", "New title")
	priority := fs.IntP("priority", "p", 0, "New priority (1-4, 0 = none)")
	status := fs.String("status", "", "New status")
	due := fs.String("due", "", "New due date (YYYY-MM-DD)")
	clearDue := fs.Bool("clear-due", false, "Clear the due date")
	desc := fs.String("desc", "", "New description (waits for the server)")

	return &Command{
		Flags: fs,
		Usage: "update <id|key> [flags]",
		Short: "Update issue fields",
		Long: "Update issue fields. Title, status, priority and due date apply " +
			"immediately; the description waits for the server echo.",
		Exec: func(ctx context.Context, app *App, args []string) error {
			if len(args) != 1 {
				return errors.New("update takes exactly one issue id or display key")
			}

			issue, err := app.findIssue(ctx, args[0])
			if err != nil {
				return err
			}

			patch := entstore.Patch{}

			if fs.Changed("title") {
				patch["title"] = *title
			}

			if fs.Changed("status") {
				if !track.ValidStatus(*status) {
					return fmt.Errorf("invalid status: %s", *status)
				}

				patch["status"] = *status
			}

			if fs.Changed("priority") {
				if *priority < track.MinPriority || *priority > track.MaxPriority {
					return fmt.Errorf("--priority must be %d-%d", track.MinPriority, track.MaxPriority)
				}

				patch["priority"] = *priority
			}

			switch {
			case *clearDue:
				patch["dueDate"] = entstore.NoDue()
			case *due != "":
				day, err := parseDay(*due)
				if err != nil {
					return err
				}

				patch["dueDate"] = entstore.DueOn(day)
			}

			if len(patch) > 0 {
				app.Issues.Update(ctx, issue.ID, patch)
			}

			if fs.Changed("desc") {
				app.Issues.SetDescription(ctx, issue.ID, *desc)
			}

			app.Issues.Quiesce()

			if err := mutationErr(app.Issues.ErrorFor, app.Issues.UpdateKey(issue.ID)); err != nil {
				return err
			}

			if err := mutationErr(app.Issues.ErrorFor, entstore.OpKey("setIssueDescription", issue.ID)); err != nil {
				return err
			}

			updated, _ := app.Issues.Get(issue.ID)
			app.IO.Println("updated", updated.DisplayKey+":", updated.Title)

			return nil
		},
	}
}

func assignCommand() *Command {
	fs := flag.NewFlagSet("assign", flag.ContinueOnError)
	remove := fs.Bool("remove", false, "Remove the given assignees instead")

	return &Command{
		Flags: fs,
		Usage: "assign <id|key> <user-id>...",
		Short: "Add or remove issue assignees",
		Exec: func(ctx context.Context, app *App, args []string) error {
			if len(args) < 2 {
				return errors.New("assign takes an issue and at least one user id")
			}

			issue, err := app.findIssue(ctx, args[0])
			if err != nil {
				return err
			}

			if *remove {
				for _, userID := range args[1:] {
					app.Issues.RemoveAssignee(ctx, issue.ID, userID)
					app.Issues.Quiesce()

					if err := mutationErr(app.Issues.ErrorFor, entstore.OpKey("unassignIssue", issue.ID)); err != nil {
						return err
					}
				}
			} else {
				users := make([]track.User, 0, len(args)-1)
				for _, userID := range args[1:] {
					users = append(users, track.User{ID: userID})
				}

				app.Issues.Assign(ctx, issue.ID, users)
				app.Issues.Quiesce()

				if err := mutationErr(app.Issues.ErrorFor, entstore.OpKey("assignIssue", issue.ID)); err != nil {
					return err
				}
			}

			updated, _ := app.Issues.Get(issue.ID)
			app.IO.Println(formatIssueLine(updated))

			return nil
		},
	}
}

func closeCommand() *Command {
	fs := flag.NewFlagSet("close", flag.ContinueOnError)
	cancel := fs.Bool("cancel", false, "Close as canceled instead of done")

	return &Command{
		Flags: fs,
		Usage: "close <id|key>",
		Short: "Close an issue (status done)",
		Exec: func(ctx context.Context, app *App, args []string) error {
			status := track.StatusDone
			if *cancel {
				status = track.StatusCanceled
			}

			return setStatus(ctx, app, args, "close", "closed", status)
		},
	}
}

func reopenCommand() *Command {
	fs := flag.NewFlagSet("reopen", flag.ContinueOnError)

	return &Command{
		Flags: fs,
		Usage: "reopen <id|key>",
		Short: "Reopen a closed issue (status todo)",
		Exec: func(ctx context.Context, app *App, args []string) error {
			return setStatus(ctx, app, args, "reopen", "reopened", track.StatusTodo)
		},
	}
}

func setStatus(ctx context.Context, app *App, args []string, verb, did, status string) error {
	if len(args) != 1 {
		return fmt.Errorf("%s takes exactly one issue id or display key", verb)
	}

	issue, err := app.findIssue(ctx, args[0])
	if err != nil {
		return err
	}

	app.Issues.Update(ctx, issue.ID, entstore.Patch{"status": status})
	app.Issues.Quiesce()

	if err := mutationErr(app.Issues.ErrorFor, app.Issues.UpdateKey(issue.ID)); err != nil {
		return err
	}

	app.IO.Println(did, issue.DisplayKey+":", issue.Title)

	return nil
}

func rmCommand() *Command {
	fs := flag.NewFlagSet("rm", flag.ContinueOnError)

	return &Command{
		Flags: fs,
		Usage: "rm <id|key>",
		Short: "Delete an issue",
		Exec: func(ctx context.Context, app *App, args []string) error {
			if len(args) != 1 {
				return errors.New("rm takes exactly one issue id or display key")
			}

			issue, err := app.findIssue(ctx, args[0])
			if err != nil {
				return err
			}

			app.Issues.Delete(ctx, issue.ID)
			app.Issues.Quiesce()

			if err := mutationErr(app.Issues.ErrorFor, app.Issues.DeleteKey(issue.ID)); err != nil {
				return err
			}

			app.IO.Println("deleted", issue.DisplayKey+":", issue.Title)

			return nil
		},
	}
}

func parseDay(iso string) (time.Time, error) {
	day, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", iso)
	}

	return day, nil
}

func hasAssignee(assignees []track.User, userID string) bool {
	for _, u := range assignees {
		if u.ID == userID {
			return true
		}
	}

	return false
}

func formatIssueLine(issue track.Issue) string {
	var b strings.Builder

	b.WriteString(issue.DisplayKey)
	b.WriteString(" [")
	b.WriteString(issue.Status)
	b.WriteString("]")

	if issue.Priority != track.PriorityNone {
		fmt.Fprintf(&b, " p%d", issue.Priority)
	}

	b.WriteString(" - ")
	b.WriteString(issue.Title)

	if issue.DueDate != "" {
		b.WriteString(" (due ")
		b.WriteString(issue.DueDate)
		b.WriteString(")")
	}

	if len(issue.Assignees) > 0 {
		names := make([]string, 0, len(issue.Assignees))
		for _, u := range issue.Assignees {
			names = append(names, u.Name)
		}

		b.WriteString(" <- ")
		b.WriteString(strings.Join(names, ", "))
	}

	return b.String()
}

func formatTaskLine(task track.Task) string {
	var b strings.Builder

	b.WriteString(task.DisplayKey)
	b.WriteString(" [")
	b.WriteString(task.Status)
	b.WriteString("]")

	if task.Priority != track.PriorityNone {
		fmt.Fprintf(&b, " p%d", task.Priority)
	}

	b.WriteString(" - ")
	b.WriteString(task.Title)

	if task.DueDate != "" {
		b.WriteString(" (due ")
		b.WriteString(task.DueDate)
		b.WriteString(")")
	}

	return b.String()
}

func printIssue(o *IO, issue track.Issue) {
	o.Println(issue.DisplayKey, "-", issue.Title)
	o.Println("  id:      ", issue.ID)
	o.Println("  status:  ", issue.Status)

	if issue.Priority != track.PriorityNone {
		o.Printf("  priority: p%d\n", issue.Priority)
	}

	if issue.DueDate != "" {
		o.Println("  due:     ", issue.DueDate)
	}

	if len(issue.Assignees) > 0 {
		names := make([]string, 0, len(issue.Assignees))
		for _, u := range issue.Assignees {
			names = append(names, u.Name)
		}

		o.Println("  assignees:", strings.Join(names, ", "))
	}

	if issue.CreatorName != "" {
		o.Println("  creator: ", issue.CreatorName)
	}

	if !issue.CreatedAt.IsZero() {
		o.Println("  created: ", issue.CreatedAt.Format(time.RFC3339))
	}

	if issue.Description != "" {
		o.Println()
		o.Println(" ", issue.Description)
	}
}
