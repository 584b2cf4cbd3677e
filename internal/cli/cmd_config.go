package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	flag "github.com/spf13/pflag"
)

func configCommand() *Command {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)

	return &Command{
		Flags: fs,
		Usage: "config [init]",
		Short: "Show resolved configuration, or write a project config file",
		Exec: func(_ context.Context, app *App, args []string) error {
			if len(args) > 0 && args[0] == "init" {
				path, err := WriteProjectConfig(app.Cfg.EffectiveCwd, app.Cfg)
				if err != nil {
					return err
				}

				app.IO.Println("wrote", path)

				return nil
			}

			formatted, err := json.MarshalIndent(app.Cfg, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding config: %w", err)
			}

			app.IO.Println(string(formatted))
			app.IO.Println()
			app.IO.Println("# Sources:")

			if app.Cfg.Sources.Global != "" {
				app.IO.Println("#   global: ", app.Cfg.Sources.Global)
			}

			if app.Cfg.Sources.Project != "" {
				app.IO.Println("#   project:", app.Cfg.Sources.Project)
			}

			if app.Cfg.Sources.Global == "" && app.Cfg.Sources.Project == "" {
				app.IO.Println("#   (using defaults only)")
			}

			return nil
		},
	}
}

func statsCommand() *Command {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)

	return &Command{
		Flags: fs,
		Usage: "stats",
		Short: "Show remote request statistics",
		Exec: func(ctx context.Context, app *App, _ []string) error {
			if app.Stats == nil {
				app.IO.Println("embedded demo backend, no remote statistics")

				return nil
			}

			// Touch the backend so a bare "stats" shows a live number.
			if err := app.loadIssues(ctx); err != nil {
				return err
			}

			s := app.Stats()
			app.IO.Printf("requests: %d\nfailures: %d\navg latency: %s\n",
				s.Requests, s.Failures, s.AvgLatency.Round(time.Microsecond))

			return nil
		},
	}
}
