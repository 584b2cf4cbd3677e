package cli

import (
	"context"
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/mbirch/trackle/pkg/entstore"
)

func filterCommand() *Command {
	fs := flag.NewFlagSet("filter", flag.ContinueOnError)
	name := fs.StringP("name", "n", "", "Filter name (add, rename)")
	query := fs.StringP("query", "q", "", "Filter query (add, edit)")
	shared := fs.Bool("shared", false, "Share with the workspace (add)")

	return &Command{
		Flags: fs,
		Usage: "filter <ls|add|rename|edit|rm> [id] [flags]",
		Short: "Manage saved filters",
		Exec: func(ctx context.Context, app *App, args []string) error {
			if len(args) == 0 {
				args = []string{"ls"}
			}

			app.Filters.Fetch(ctx, app.Cfg.WorkspaceID)
			app.Filters.Quiesce()

			if err := mutationErr(app.Filters.ErrorFor, app.Filters.FetchKey()); err != nil {
				return err
			}

			switch verb := args[0]; verb {
			case "ls":
				for _, f := range app.Filters.List() {
					mark := " "
					if f.Shared {
						mark = "*"
					}

					app.IO.Printf("[%s] %s  %s: %s\n", mark, f.ID, f.Name, f.Query)
				}

				return nil

			case "add":
				if *name == "" {
					return errors.New("filter add needs --name")
				}

				app.Filters.Create(ctx, entstore.Patch{
					"name":   *name,
					"query":  *query,
					"shared": *shared,
				})
				app.Filters.Quiesce()

				if err := mutationErr(app.Filters.ErrorFor, app.Filters.CreateKey()); err != nil {
					return err
				}

				app.IO.Println("saved filter", app.Filters.List()[0].ID)

				return nil

			case "rename", "edit":
				if len(args) != 2 {
					return fmt.Errorf("filter %s takes a filter id", verb)
				}

				id := args[1]

				if verb == "rename" {
					if *name == "" {
						return errors.New("filter rename needs --name")
					}

					app.Filters.Rename(ctx, id, *name)
				} else {
					if *query == "" {
						return errors.New("filter edit needs --query")
					}

					app.Filters.SetQuery(ctx, id, *query)
				}

				if fs.Changed("shared") {
					app.Filters.Quiesce()
					app.Filters.SetShared(ctx, id, *shared)
				}

				app.Filters.Quiesce()

				return mutationErr(app.Filters.ErrorFor, app.Filters.UpdateKey(id))

			case "rm":
				if len(args) != 2 {
					return errors.New("filter rm takes a filter id")
				}

				app.Filters.Delete(ctx, args[1])
				app.Filters.Quiesce()

				return mutationErr(app.Filters.ErrorFor, app.Filters.DeleteKey(args[1]))

			default:
				return fmt.Errorf("unknown filter verb: %s", verb)
			}
		},
	}
}
