package cli

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wikiroam/pkg/config"
	"wikiroam/pkg/logging"
)

func writeTestConfig(t *testing.T) (string, *config.Config) {
	t.Helper()
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.DB.Path = filepath.Join(dir, "data", "wikiroam.db")
	cfg.Log.Server.Path = filepath.Join(dir, "logs", "server.log")
	cfg.Log.Requests.Path = filepath.Join(dir, "logs", "requests.log")
	cfg.Discovery.ThemesFile = "themes.yaml"

	path := filepath.Join(dir, "wikiroam.yaml")
	require.NoError(t, config.Save(path, cfg))
	return path, cfg
}

func TestOpenApp(t *testing.T) {
	prevDefault, prevRequests := slog.Default(), logging.RequestLogger
	t.Cleanup(func() {
		slog.SetDefault(prevDefault)
		logging.RequestLogger = prevRequests
	})

	path, cfg := writeTestConfig(t)
	themes := "themes:\n  Volcanoes:\n    - name: Etna\n      lat: 37.751\n      lon: 14.9934\n"
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "themes.yaml"), []byte(themes), 0o644))

	a, err := openApp(&GlobalFlags{Config: path, Locale: "de", Verbose: true})
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, "de", a.cfg.Wikipedia.Locale)
	assert.Equal(t, "DEBUG", a.cfg.Log.Server.Level)
	assert.FileExists(t, cfg.DB.Path)
	assert.FileExists(t, cfg.Log.Server.Path)
	assert.Equal(t, []string{"volcanoes"}, a.themes.Names(), "themes are found next to the config file")

	s := a.newSession(newConsole(a.out, a.errOut))
	defer s.Close()
	assert.Equal(t, "de", s.Locale())
}

func TestOpenApp_InvalidLocale(t *testing.T) {
	path, _ := writeTestConfig(t)

	_, err := openApp(&GlobalFlags{Config: path, Locale: "Deutsch"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--locale")
}

func TestLoadThemes_MissingFileDisablesDiscovery(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Discovery.ThemesFile = filepath.Join(t.TempDir(), "nope.yaml")

	themes := loadThemes(cfg, "configs/wikiroam.yaml")
	require.NotNil(t, themes)
	assert.Empty(t, themes.Names())
}
