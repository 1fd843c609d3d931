package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestPackageLeaks(t *testing.T) {
	defer goleak.VerifyNone(t,
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"),
	)
}

// execute runs the root command with args and returns captured stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRoot()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

// setupHome points GUSHTER_HOME at a scaffolded temp directory.
func setupHome(t *testing.T) string {
	t.Helper()
	home := filepath.Join(t.TempDir(), ".gushter")
	t.Setenv("GUSHTER_HOME", home)

	_, err := execute(t, "init", "--dir", filepath.Dir(home))
	require.NoError(t, err)
	return home
}

func TestInitCommand_CreatesScaffold(t *testing.T) {
	home := setupHome(t)

	for _, p := range []string{
		filepath.Join(home, "setting.json"),
		filepath.Join(home, "etc", "backlog.yaml"),
		filepath.Join(home, "etc", "checks.yaml"),
		filepath.Join(home, "var"),
	} {
		_, err := os.Stat(p)
		assert.NoError(t, err, p)
	}
}

func TestInitCommand_DoesNotOverwrite(t *testing.T) {
	home := setupHome(t)
	backlogPath := filepath.Join(home, "etc", "backlog.yaml")
	require.NoError(t, os.WriteFile(backlogPath, []byte("version: 1\nbranch: custom\nstories: []\n"), 0644))

	_, err := execute(t, "init", "--dir", filepath.Dir(home))
	require.NoError(t, err)

	data, err := os.ReadFile(backlogPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "custom")
}

func TestBacklogValidateCommand(t *testing.T) {
	setupHome(t)

	out, err := execute(t, "backlog", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "OK")
}

func TestBacklogListCommand(t *testing.T) {
	setupHome(t)

	out, err := execute(t, "backlog", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "STORY-001")
	assert.Contains(t, out, "pending")
}

func TestStatusCommand_JSON(t *testing.T) {
	setupHome(t)

	out, err := execute(t, "status", "--json")
	require.NoError(t, err)

	var parsed StatusOutput
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.True(t, parsed.Ok)
	assert.Equal(t, "main", parsed.Branch)
	assert.Equal(t, 1, parsed.Total)
	assert.Equal(t, 0, parsed.Completed)
}

func TestStatusCommand_JSONWithoutBacklog(t *testing.T) {
	t.Setenv("GUSHTER_HOME", filepath.Join(t.TempDir(), ".gushter"))

	out, err := execute(t, "status", "--json")
	require.NoError(t, err)

	var parsed StatusOutput
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.False(t, parsed.Ok)
	assert.NotEmpty(t, parsed.Error)
}

func TestVersionCommand(t *testing.T) {
	t.Setenv("GUSHTER_HOME", filepath.Join(t.TempDir(), ".gushter"))

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "gushter version")
}

func TestUnblockCommand_UnknownStory(t *testing.T) {
	setupHome(t)

	_, err := execute(t, "unblock", "S-404")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "story not found")
}

func TestResetCommand_Force(t *testing.T) {
	home := setupHome(t)

	statePath := filepath.Join(home, "var", "run_state.json")
	require.NoError(t, os.WriteFile(statePath, []byte("{}"), 0644))

	_, err := execute(t, "reset", "--force")
	require.NoError(t, err)

	_, err = os.Stat(statePath)
	assert.True(t, os.IsNotExist(err))
}
