package cli

import (
	"context"
	"errors"

	flag "github.com/spf13/pflag"

	"github.com/mbirch/trackle/pkg/entstore"
)

func commentCommand() *Command {
	fs := flag.NewFlagSet("comment", flag.ContinueOnError)
	message := fs.StringP("message", "m", "", "Post a new comment")
	resolve := fs.String("resolve", "", "Mark the given comment id resolved")
	reopen := fs.String("reopen", "", "Mark the given comment id unresolved")

	return &Command{
		Flags: fs,
		Usage: "comment <id|key> [flags]",
		Short: "List, post or resolve comments on an issue",
		Long: "Without flags, prints the issue's comment thread. With -m posts a " +
			"comment; --resolve/--reopen flip a comment's resolved flag.",
		Exec: func(ctx context.Context, app *App, args []string) error {
			if len(args) != 1 {
				return errors.New("comment takes exactly one issue id or display key")
			}

			issue, err := app.findIssue(ctx, args[0])
			if err != nil {
				return err
			}

			app.Comments.Fetch(ctx, issue.ID)
			app.Comments.Quiesce()

			if err := mutationErr(app.Comments.ErrorFor, app.Comments.FetchKey()); err != nil {
				return err
			}

			if *message != "" {
				app.Comments.Create(ctx, entstore.Patch{"issueId": issue.ID, "body": *message})
				app.Comments.Quiesce()

				if err := mutationErr(app.Comments.ErrorFor, app.Comments.CreateKey()); err != nil {
					return err
				}

				app.IO.Println("commented on", issue.DisplayKey)
			}

			if *resolve != "" {
				if err := flipResolved(ctx, app, *resolve, true); err != nil {
					return err
				}
			}

			if *reopen != "" {
				if err := flipResolved(ctx, app, *reopen, false); err != nil {
					return err
				}
			}

			for _, c := range app.Comments.List() {
				marker := " "
				if c.Resolved {
					marker = "x"
				}

				app.IO.Printf("[%s] %s  %s (%s): %s\n",
					marker, c.ID, c.AuthorName, c.CreatedAt.Format("2006-01-02"), c.Body)
			}

			return nil
		},
	}
}

func flipResolved(ctx context.Context, app *App, commentID string, resolved bool) error {
	app.Comments.Resolve(ctx, commentID, resolved)
	app.Comments.Quiesce()

	return mutationErr(app.Comments.ErrorFor, app.Comments.UpdateKey(commentID))
}
