package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mbirch/trackle/pkg/entstore"
)

const (
	consumedOne  = 1
	consumedTwo  = 2
	consumedNone = 0
	helpFlag     = "--help"
)

// Run is the main entry point. Returns exit code.
func Run(out, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	o := NewIO(out, errOut)

	if len(args) < 2 {
		printUsage(o)

		return 0
	}

	flags, err := parseGlobalFlags(args[1:])
	if err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	if len(flags.remaining) == 0 {
		printUsage(o)

		return 0
	}

	name := flags.remaining[0]
	if name == "-h" || name == helpFlag {
		printUsage(o)

		return 0
	}

	cfg, err := LoadConfig(LoadConfigInput{
		WorkDir:           flags.workDir,
		ConfigPath:        flags.configPath,
		WorkspaceOverride: flags.workspace,
		APIOverride:       flags.api,
		Env:               env,
	})
	if err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sigCh != nil {
		go func() {
			<-sigCh
			cancel()
		}()
	}

	for _, c := range commands() {
		if c.Name() == name {
			// One-shot commands quiesce and read the ledger directly, so
			// no notifier.
			app := newApp(cfg, o, entstore.NopNotifier{})

			return c.Run(ctx, app, flags.remaining[1:])
		}
	}

	o.ErrPrintln("error: unknown command:", name)

	return 1
}

// commands builds the command registry. Fresh per Run: pflag sets carry
// parse state.
func commands() []*Command {
	return []*Command{
		lsCommand(),
		showCommand(),
		createCommand(),
		updateCommand(),
		closeCommand(),
		reopenCommand(),
		assignCommand(),
		rmCommand(),
		commentCommand(),
		filterCommand(),
		statsCommand(),
		configCommand(),
		replCommand(),
	}
}

type globalFlags struct {
	workDir    string
	configPath string
	workspace  string
	api        string
	remaining  []string
}

func parseGlobalFlags(args []string) (globalFlags, error) {
	var flags globalFlags

	idx := 0
	for idx < len(args) {
		consumed, err := parseFlag(args, idx, &flags)
		if err != nil {
			return globalFlags{}, err
		}

		if consumed == 0 {
			// Not a flag, this is the command
			flags.remaining = args[idx:]

			break
		}

		idx += consumed
	}

	return flags, nil
}

// parseFlag tries to parse a global flag at args[idx]. Returns number of
// args consumed (0 if not a flag).
func parseFlag(args []string, idx int, flags *globalFlags) (int, error) {
	arg := args[idx]

	set := func(dst *string, name string) (int, error) {
		if idx+1 >= len(args) {
			return consumedNone, fmt.Errorf("flag requires an argument: %s", name)
		}

		*dst = args[idx+1]

		return consumedTwo, nil
	}

	switch arg {
	case "-C", "--cwd":
		return set(&flags.workDir, arg)
	case "-c", "--config":
		return set(&flags.configPath, arg)
	case "--workspace":
		return set(&flags.workspace, arg)
	case "--api":
		return set(&flags.api, arg)
	case "-h", helpFlag:
		flags.remaining = []string{helpFlag}

		return len(args) - idx, nil
	}

	for _, prefix := range []struct {
		lead string
		dst  *string
	}{
		{"--cwd=", &flags.workDir},
		{"--config=", &flags.configPath},
		{"--workspace=", &flags.workspace},
		{"--api=", &flags.api},
	} {
		if after, ok := strings.CutPrefix(arg, prefix.lead); ok {
			*prefix.dst = after

			return consumedOne, nil
		}
	}

	// Unknown flag
	if strings.HasPrefix(arg, "-") && arg != "-" {
		return consumedNone, fmt.Errorf("unknown flag: %s", arg)
	}

	// Not a flag
	return consumedNone, nil
}

func printUsage(o *IO) {
	o.Println(`trackle - issue tracker client

Usage: trackle [options] <command> [args]

Options:
  -C, --cwd <dir>        Run as if started in <dir>
  -c, --config <file>    Use specified config file
  --workspace <id>       Override the workspace id
  --api <url>            Backend base URL (default: embedded demo backend)

Commands:`)

	for _, c := range commands() {
		o.Println(c.HelpLine())
	}

	o.Println()
	o.Println(`Run "trackle <command> --help" for command details.`)
}
