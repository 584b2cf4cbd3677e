package cli

import (
	"context"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/sanity-io/litter"
	flag "github.com/spf13/pflag"

	"github.com/mbirch/trackle/internal/track"
	"github.com/mbirch/trackle/pkg/entstore"
)

func replCommand() *Command {
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)

	return &Command{
		Flags: fs,
		Usage: "repl",
		Short: "Interactive session against the configured backend",
		Long: "Interactive session. Mutations return immediately; completions and " +
			"failures are reported asynchronously as the server answers.",
		Exec: runRepl,
	}
}

var replVerbs = []string{
	"ls", "fetch", "select", "show", "set", "due", "assign", "unassign",
	"comment", "dump", "stats", "help", "exit",
}

func runRepl(ctx context.Context, app *App, _ []string) error {
	// Rebuild the stores with the IO notifier: in the REPL, mutations
	// complete in the background and their outcomes must reach the
	// terminal.
	app = newApp(app.Cfg, app.IO, app.IO)

	if err := app.loadIssues(ctx); err != nil {
		return err
	}

	app.IO.Printf("%d issues in %s. Type \"help\" for commands.\n",
		app.Issues.Len(), app.Cfg.WorkspaceID)

	prompt := liner.NewLiner()
	defer func() { _ = prompt.Close() }()

	prompt.SetCtrlCAborts(true)
	prompt.SetCompleter(func(line string) []string {
		var out []string

		for _, verb := range replVerbs {
			if strings.HasPrefix(verb, strings.ToLower(line)) {
				out = append(out, verb)
			}
		}

		return out
	})

	for {
		input, err := prompt.Prompt("trackle> ")
		if err != nil {
			// EOF or Ctrl-C: drain in-flight calls before the terminal
			// state is restored.
			app.Quiesce()

			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		prompt.AppendHistory(input)

		if done := replDispatch(ctx, app, strings.Fields(input)); done {
			app.Quiesce()

			return nil
		}
	}
}

// replDispatch runs one REPL command. Returns true to exit.
func replDispatch(ctx context.Context, app *App, fields []string) bool {
	o := app.IO
	verb, args := fields[0], fields[1:]

	switch verb {
	case "exit", "quit":
		return true

	case "help":
		o.Println(`ls                         list issues (local table)
fetch                      reload the issue list from the server
select <id|key>            focus an issue
show                       print the focused issue
set <field> <value...>     update the focused issue (title|status|priority)
due <YYYY-MM-DD|clear>     set or clear the focused issue's due date
assign <user-id>           assign a user to the focused issue
unassign <user-id>         remove an assignee from the focused issue
comment <text...>          comment on the focused issue
dump                       pretty-print the focused issue record
stats                      remote request statistics
exit                       quiesce and leave`)

	case "ls":
		for _, issue := range app.Issues.List() {
			cursor := "  "
			if issue.ID == app.Issues.SelectedID() {
				cursor = "> "
			}

			o.Println(cursor + formatIssueLine(issue))
		}

	case "fetch":
		app.Issues.Fetch(ctx, app.Cfg.WorkspaceID)

	case "select":
		if len(args) != 1 {
			o.Println("usage: select <id|key>")
			break
		}

		for _, issue := range app.Issues.List() {
			if issue.ID == args[0] || issue.DisplayKey == args[0] {
				app.Issues.Select(issue.ID)
				o.Println("selected", issue.DisplayKey)

				return false
			}
		}

		o.Println("no such issue:", args[0])

	case "show":
		if issue, ok := app.Issues.Selected(); ok {
			printIssue(o, issue)
		} else {
			o.Println("nothing selected")
		}

	case "set":
		replSet(ctx, app, args)

	case "due":
		replDue(ctx, app, args)

	case "assign", "unassign":
		issue, ok := app.Issues.Selected()
		if !ok || len(args) != 1 {
			o.Println("usage: select an issue, then", verb, "<user-id>")
			break
		}

		if verb == "assign" {
			app.Issues.Assign(ctx, issue.ID, []track.User{{ID: args[0]}})
		} else {
			app.Issues.RemoveAssignee(ctx, issue.ID, args[0])
		}

	case "comment":
		issue, ok := app.Issues.Selected()
		if !ok || len(args) == 0 {
			o.Println("usage: select an issue, then comment <text>")
			break
		}

		app.Comments.Create(ctx, entstore.Patch{
			"issueId": issue.ID,
			"body":    strings.Join(args, " "),
		})

	case "dump":
		if issue, ok := app.Issues.Selected(); ok {
			o.Println(litter.Sdump(issue))
		} else {
			o.Println("nothing selected")
		}

	case "stats":
		if app.Stats == nil {
			o.Println("embedded demo backend, no remote statistics")
			break
		}

		s := app.Stats()
		o.Printf("requests: %d, failures: %d, avg latency: %s\n",
			s.Requests, s.Failures, s.AvgLatency)

	default:
		o.Println("unknown command:", verb, `(try "help")`)
	}

	return false
}

func replSet(ctx context.Context, app *App, args []string) {
	o := app.IO

	issue, ok := app.Issues.Selected()
	if !ok || len(args) < 2 {
		o.Println("usage: select an issue, then set <title|status|priority> <value>")

		return
	}

	field, value := args[0], strings.Join(args[1:], " ")

	switch field {
	case "title":
		app.Issues.Update(ctx, issue.ID, entstore.Patch{"title": value})

	case "status":
		if !track.ValidStatus(value) {
			o.Println("invalid status:", value)

			return
		}

		app.Issues.Update(ctx, issue.ID, entstore.Patch{"status": value})

	case "priority":
		n, err := strconv.Atoi(value)
		if err != nil || n < track.MinPriority || n > track.MaxPriority {
			o.Printf("priority must be %d-%d\n", track.MinPriority, track.MaxPriority)

			return
		}

		app.Issues.Update(ctx, issue.ID, entstore.Patch{"priority": n})

	default:
		o.Println("unknown field:", field)
	}
}

func replDue(ctx context.Context, app *App, args []string) {
	o := app.IO

	issue, ok := app.Issues.Selected()
	if !ok || len(args) != 1 {
		o.Println("usage: select an issue, then due <YYYY-MM-DD|clear>")

		return
	}

	if args[0] == "clear" {
		app.Issues.SetDueDate(ctx, issue.ID, entstore.NoDue())

		return
	}

	day, err := parseDay(args[0])
	if err != nil {
		o.Println(err.Error())

		return
	}

	app.Issues.SetDueDate(ctx, issue.ID, entstore.DueOn(day))
}
