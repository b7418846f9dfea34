package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvContact is consulted when wikipedia.contact is empty in the config file.
const EnvContact = "WIKIROAM_CONTACT"

// Config holds the application configuration.
type Config struct {
	Request   RequestConfig   `yaml:"request"`
	Log       LogConfig       `yaml:"log"`
	DB        DBConfig        `yaml:"db"`
	Wikipedia WikipediaConfig `yaml:"wikipedia"`
	Map       MapConfig       `yaml:"map"`
	Hover     HoverConfig     `yaml:"hover"`
	Bookmarks BookmarksConfig `yaml:"bookmarks"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Images    ImagesConfig    `yaml:"images"`
}

// RequestConfig holds HTTP request settings.
type RequestConfig struct {
	Retries  int           `yaml:"retries"`
	Timeout  Duration      `yaml:"timeout"`
	Backoff  BackoffConfig `yaml:"backoff"`
	CacheTTL Duration      `yaml:"cache_ttl"`
}

// BackoffConfig holds exponential backoff settings.
type BackoffConfig struct {
	BaseDelay Duration `yaml:"base_delay"`
	MaxDelay  Duration `yaml:"max_delay"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path        string   `yaml:"path"`
	CacheMaxAge Duration `yaml:"cache_max_age"`
}

// WikipediaConfig holds encyclopedia API settings.
type WikipediaConfig struct {
	Endpoint    string `yaml:"endpoint"` // %s is replaced by the language code
	Locale      string `yaml:"locale"`   // e.g. "en", "de"
	Contact     string `yaml:"contact"`  // appended to the User-Agent
	SearchLimit int    `yaml:"search_limit"`
}

// MapConfig holds the viewport scan settings.
type MapConfig struct {
	MinZoom      float64  `yaml:"min_zoom"`
	Debounce     Duration `yaml:"debounce"`
	RadiusMin    Distance `yaml:"radius_min"`
	RadiusMax    Distance `yaml:"radius_max"`
	KeyPrecision int      `yaml:"key_precision"` // decimals kept in the fetch key
}

// HoverConfig holds hover preview settings.
type HoverConfig struct {
	Delay    Duration `yaml:"delay"`
	Capacity int      `yaml:"capacity"`
}

// BookmarksConfig holds favorites settings.
type BookmarksConfig struct {
	Max      int    `yaml:"max"`
	StateKey string `yaml:"state_key"`
}

// DiscoveryConfig holds "surprise me" settings.
type DiscoveryConfig struct {
	HistorySize int     `yaml:"history_size"`
	ThemesFile  string  `yaml:"themes_file"`
	Zoom        float64 `yaml:"zoom"` // used when a location has no zoom of its own
}

// ImagesConfig holds gallery filtering settings.
type ImagesConfig struct {
	MinWidth  int `yaml:"min_width"`
	MinHeight int `yaml:"min_height"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Request: RequestConfig{
			Retries: 3,
			Timeout: Duration(30 * time.Second),
			Backoff: BackoffConfig{
				BaseDelay: Duration(500 * time.Millisecond),
				MaxDelay:  Duration(30 * time.Second),
			},
			CacheTTL: Duration(Day),
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "./logs/requests.log",
				Level: "INFO",
			},
		},
		DB: DBConfig{
			Path:        "./data/wikiroam.db",
			CacheMaxAge: Duration(Week),
		},
		Wikipedia: WikipediaConfig{
			Endpoint:    "https://%s.wikipedia.org/w/api.php",
			Locale:      "en",
			SearchLimit: 100,
		},
		Map: MapConfig{
			MinZoom:      11,
			Debounce:     Duration(500 * time.Millisecond),
			RadiusMin:    Distance(8000),
			RadiusMax:    Distance(10000),
			KeyPrecision: 3,
		},
		Hover: HoverConfig{
			Delay:    Duration(300 * time.Millisecond),
			Capacity: 50,
		},
		Bookmarks: BookmarksConfig{
			Max:      100,
			StateKey: KeyBookmarks,
		},
		Discovery: DiscoveryConfig{
			HistorySize: 5,
			ThemesFile:  "configs/themes.yaml",
			Zoom:        13,
		},
		Images: ImagesConfig{
			MinWidth:  100,
			MinHeight: 100,
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it is created with default values.
// An existing file is merged over the defaults but never written back, so user
// formatting and comments survive.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	if cfg.Wikipedia.Contact == "" {
		cfg.Wikipedia.Contact = os.Getenv(EnvContact)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var localePattern = regexp.MustCompile(`^[a-z]{2,3}(-[a-z]+)?$`)

// ValidLocale reports whether l looks like a wiki language code.
func ValidLocale(l string) bool {
	return localePattern.MatchString(l)
}

// Validate rejects settings the map core cannot work with.
func (c *Config) Validate() error {
	if !ValidLocale(c.Wikipedia.Locale) {
		return fmt.Errorf("invalid wikipedia.locale '%s': must be a wiki language code (e.g. 'en', 'de', 'zh-yue')", c.Wikipedia.Locale)
	}
	if c.Map.RadiusMin <= 0 || c.Map.RadiusMax < c.Map.RadiusMin {
		return fmt.Errorf("invalid map radius bounds: min %.0fm, max %.0fm", c.Map.RadiusMin.Meters(), c.Map.RadiusMax.Meters())
	}
	if c.Hover.Capacity < 1 {
		return fmt.Errorf("hover.capacity must be at least 1, got %d", c.Hover.Capacity)
	}
	if c.Bookmarks.Max < 0 {
		return fmt.Errorf("bookmarks.max must not be negative, got %d", c.Bookmarks.Max)
	}
	return nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# wikiroam configuration
# ---------------------
# Supported Units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)
#   Distance: m (meters), km (kilometers), nm (nautical miles), ft (feet)

`)
	data = append(header, data...)

	reZoom := regexp.MustCompile(`(?m)^(\s+)min_zoom:`)
	data = reZoom.ReplaceAll(data, []byte("${1}# Below this zoom level the map stops scanning and clears its markers\n${1}min_zoom:"))

	reEndpoint := regexp.MustCompile(`(?m)^(\s+)endpoint:`)
	data = reEndpoint.ReplaceAll(data, []byte("${1}# %s is replaced by the language code of the active locale\n${1}endpoint:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return Save(path, DefaultConfig())
}
