package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildParser_RegistersCommands(t *testing.T) {
	parser, globals, cmds := buildParser("v1.2.3")
	require.NotNil(t, parser)
	require.NotNil(t, globals)
	require.NotNil(t, cmds)

	for _, name := range []string{"nearby", "detail", "search", "discover", "bookmark", "cache", "locale", "doctor", "init-config"} {
		assert.NotNil(t, parser.Find(name), "command %q should be registered", name)
	}

	bm := parser.Find("bookmark")
	require.NotNil(t, bm)
	assert.NotNil(t, bm.Find("toggle"))
	assert.NotNil(t, bm.Find("list"))

	// every command shares the same globals
	assert.Same(t, globals, cmds.Nearby.globals)
	assert.Same(t, globals, cmds.BookmarkList.globals)
	assert.Equal(t, "v1.2.3", cmds.Detail.version)
}

func TestParse_GlobalFlags(t *testing.T) {
	parser, globals, _ := buildParser("dev")

	// parse only, the commands are exercised elsewhere
	parser.SubcommandsOptional = true
	_, err := parser.ParseArgs([]string{"--locale", "de", "--timeout", "5s"})
	require.NoError(t, err)
	assert.Equal(t, "de", globals.Locale)
	assert.Equal(t, "5s", globals.Timeout)
	assert.Equal(t, "configs/wikiroam.yaml", globals.Config)
}

func TestRunWithArgs_Version(t *testing.T) {
	assert.NoError(t, RunWithArgs("v9.9.9", []string{"--version"}))
}

func TestRunWithArgs_Help(t *testing.T) {
	assert.NoError(t, RunWithArgs("dev", []string{"--help"}))
}

func TestRunWithArgs_UnknownCommand(t *testing.T) {
	assert.Error(t, RunWithArgs("dev", []string{"teleport"}))
}

func TestRunWithArgs_InitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configs", "wikiroam.yaml")

	require.NoError(t, RunWithArgs("dev", []string{"--config", path, "init-config"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "min_zoom:")
	assert.Contains(t, string(data), "locale: en")

	// a second run keeps the existing file
	require.NoError(t, os.WriteFile(path, []byte("wikipedia:\n  locale: de\n"), 0o644))
	require.NoError(t, RunWithArgs("dev", []string{"--config", path, "init-config"}))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "wikipedia:\n  locale: de\n", string(data))
}

func TestRunWithArgs_DetailRequiresID(t *testing.T) {
	err := RunWithArgs("dev", []string{"detail"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--id is required")
}

func TestCommandContext_InvalidTimeout(t *testing.T) {
	_, _, err := commandContext(&GlobalFlags{Timeout: "soon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--timeout")
}
