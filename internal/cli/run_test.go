package cli_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbirch/trackle/internal/cli"
)

// runCLI invokes the CLI against the embedded demo backend with an
// isolated config environment.
func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()

	var out, errOut bytes.Buffer

	env := map[string]string{"XDG_CONFIG_HOME": t.TempDir()}
	argv := append([]string{"trackle", "-C", t.TempDir()}, args...)

	code := cli.Run(&out, &errOut, argv, env, nil)

	return code, out.String(), errOut.String()
}

func Test_Ls_Prints_Demo_Issues_When_No_Backend_Configured(t *testing.T) {
	t.Parallel()

	code, out, errOut := runCLI(t, "ls")

	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "DEMO-")
	assert.Contains(t, out, "Login fails with expired refresh token")
}

func Test_Ls_Filters_By_Status_When_Flag_Set(t *testing.T) {
	t.Parallel()

	code, out, _ := runCLI(t, "ls", "--status", "backlog")

	require.Equal(t, 0, code)
	assert.Contains(t, out, "Dark mode for the board view")
	assert.NotContains(t, out, "Login fails")
}

func Test_Ls_Rejects_Invalid_Status_When_Flag_Set(t *testing.T) {
	t.Parallel()

	code, _, errOut := runCLI(t, "ls", "--status", "bogus")

	require.Equal(t, 1, code)
	assert.Contains(t, errOut, "invalid status")
}

func Test_Show_Resolves_Display_Key_When_Given(t *testing.T) {
	t.Parallel()

	code, out, errOut := runCLI(t, "show", "DEMO-1")

	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Login fails with expired refresh token")
	assert.Contains(t, out, "Comments:")
	assert.Contains(t, out, "Reproduced on the mobile client")
}

func Test_Show_Fails_When_Issue_Unknown(t *testing.T) {
	t.Parallel()

	code, _, errOut := runCLI(t, "show", "DEMO-999")

	require.Equal(t, 1, code)
	assert.Contains(t, errOut, "no issue")
}

func Test_Create_Reports_Allocated_Display_Key_When_Done(t *testing.T) {
	t.Parallel()

	code, out, errOut := runCLI(t, "create", "-t", "New login flow", "-p", "2")

	require.Equal(t, 0, code, errOut)
	assert.True(t, strings.HasPrefix(out, "created DEMO-"), out)
	assert.Contains(t, out, "New login flow")
}

func Test_Create_Fails_When_Title_Missing(t *testing.T) {
	t.Parallel()

	code, _, errOut := runCLI(t, "create", "-p", "2")

	require.Equal(t, 1, code)
	assert.Contains(t, errOut, "--title is required")
}

func Test_Close_Reports_Done_When_Run(t *testing.T) {
	t.Parallel()

	code, out, errOut := runCLI(t, "close", "DEMO-1")

	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "closed DEMO-1")
}

func Test_Unknown_Command_Exits_Nonzero_When_Dispatched(t *testing.T) {
	t.Parallel()

	code, _, errOut := runCLI(t, "frobnicate")

	require.Equal(t, 1, code)
	assert.Contains(t, errOut, "unknown command")
}

func Test_Help_Lists_Commands_When_Requested(t *testing.T) {
	t.Parallel()

	code, out, _ := runCLI(t, "--help")

	require.Equal(t, 0, code)

	for _, name := range []string{"ls", "show", "create", "update", "assign", "comment", "filter", "repl"} {
		assert.Contains(t, out, name)
	}
}

func Test_Config_Init_Writes_Project_File_When_Run(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer

	work := t.TempDir()
	env := map[string]string{"XDG_CONFIG_HOME": t.TempDir()}

	code := cli.Run(&out, &errOut, []string{"trackle", "-C", work, "config", "init"}, env, nil)
	require.Equal(t, 0, code, errOut.String())
	assert.Contains(t, out.String(), cli.ConfigFileName)

	// The written file feeds the next resolution.
	cfg, err := cli.LoadConfig(cli.LoadConfigInput{WorkDir: work, Env: env})
	require.NoError(t, err)
	assert.Equal(t, "ws-demo", cfg.WorkspaceID)
	assert.NotEmpty(t, cfg.Sources.Project)
}

func Test_Stats_Notes_Embedded_Backend_When_No_API(t *testing.T) {
	t.Parallel()

	code, out, _ := runCLI(t, "stats")

	require.Equal(t, 0, code)
	assert.Contains(t, out, "embedded demo backend")
}
