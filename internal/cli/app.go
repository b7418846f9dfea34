package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"wikiroam/pkg/config"
	"wikiroam/pkg/db"
	"wikiroam/pkg/db/maintenance"
	"wikiroam/pkg/explorer"
	"wikiroam/pkg/logging"
	"wikiroam/pkg/request"
	"wikiroam/pkg/store"
	"wikiroam/pkg/tracker"
	"wikiroam/pkg/version"
	"wikiroam/pkg/wikipedia"
)

// app is everything a subcommand needs, opened once per invocation.
type app struct {
	cfg      *config.Config
	db       *db.DB
	store    *store.SQLiteStore
	tracker  *tracker.Tracker
	wiki     *wikipedia.Client
	themes   *config.ThemesConfig
	settings *config.UnifiedProvider
	out      io.Writer
	errOut   io.Writer

	cleanup []func()
}

// openApp loads the environment and config, then wires logging, storage
// and the encyclopedia client. The language comes from --locale, then the
// saved setting, then the config file.
func openApp(globals *GlobalFlags) (*app, error) {
	_ = godotenv.Load(".env")

	cfg, err := config.Load(globals.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if globals.Locale != "" {
		if !config.ValidLocale(globals.Locale) {
			return nil, fmt.Errorf("invalid --locale %q", globals.Locale)
		}
		cfg.Wikipedia.Locale = globals.Locale
	}
	if globals.Verbose {
		cfg.Log.Server.Level = "DEBUG"
		cfg.Log.Requests.Level = "DEBUG"
	}

	cleanupLogs, err := logging.Init(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	dbConn, err := db.Init(cfg.DB.Path)
	if err != nil {
		cleanupLogs()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	maintenance.Run(context.Background(), dbConn, cfg.DB.CacheMaxAge.Std())

	a := newApp(cfg, dbConn, loadThemes(cfg, globals.Config))
	a.cleanup = append(a.cleanup, cleanupLogs)
	if globals.Locale == "" {
		cfg.Wikipedia.Locale = a.settings.Locale(context.Background())
	}

	slog.Info("wikiroam started", "version", version.Version, "locale", cfg.Wikipedia.Locale)
	return a, nil
}

// newApp wires an app around an open database.
func newApp(cfg *config.Config, d *db.DB, themes *config.ThemesConfig) *app {
	st := store.NewSQLiteStore(d)
	tr := tracker.New()
	rc := request.New(st, tr, request.NewClientConfig(cfg.Request, cfg.Wikipedia.Contact))
	return &app{
		cfg:      cfg,
		db:       d,
		store:    st,
		tracker:  tr,
		wiki:     wikipedia.NewClient(rc, cfg.Wikipedia, cfg.Images),
		themes:   themes,
		settings: config.NewProvider(cfg, st),
		out:      os.Stdout,
		errOut:   os.Stderr,
	}
}

// loadThemes reads the themes file. A relative path is tried as given and
// then next to the config file. Discovery is simply empty without one.
func loadThemes(cfg *config.Config, configPath string) *config.ThemesConfig {
	path := cfg.Discovery.ThemesFile
	if path == "" {
		return &config.ThemesConfig{}
	}
	candidates := []string{path}
	if !filepath.IsAbs(path) {
		candidates = append(candidates, filepath.Join(filepath.Dir(configPath), filepath.Base(path)))
	}

	var lastErr error
	for _, p := range candidates {
		themes, err := config.LoadThemes(p)
		if err == nil {
			return themes
		}
		lastErr = err
	}
	slog.Warn("Themes unavailable, discovery disabled", "path", path, "error", lastErr)
	return &config.ThemesConfig{}
}

// newSession creates a map session that reports to the console.
func (a *app) newSession(c *console) *explorer.Session {
	return explorer.NewSession(a.cfg, explorer.Deps{
		Encyclopedia: a.wiki,
		State:        a.store,
		Themes:       a.themes,
		Widget:       c,
		Notifier:     c,
	})
}

// Close logs request statistics and releases everything openApp acquired.
func (a *app) Close() {
	a.tracker.LogSummary(slog.Default())
	if err := a.store.Close(); err != nil {
		slog.Warn("Failed to close database", "error", err)
	}
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
}

// commandContext is cancelled on SIGINT/SIGTERM or after --timeout.
func commandContext(globals *GlobalFlags) (context.Context, context.CancelFunc, error) {
	timeout := 30 * time.Second
	if globals.Timeout != "" {
		d, err := config.ParseDuration(globals.Timeout)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid --timeout value %q: %w", globals.Timeout, err)
		}
		timeout = d
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}, nil
}

// withApp opens the app and a command context around fn.
func withApp(globals *GlobalFlags, fn func(ctx context.Context, a *app) error) error {
	ctx, cancel, err := commandContext(globals)
	if err != nil {
		return err
	}
	defer cancel()

	a, err := openApp(globals)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}
