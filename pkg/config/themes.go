package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ThemesConfig holds the curated "surprise me" destinations, grouped by theme.
type ThemesConfig struct {
	Themes map[string][]ThemeLocation `yaml:"themes"`
}

// ThemeLocation is a single destination inside a theme.
type ThemeLocation struct {
	Name string  `yaml:"name"`
	Lat  float64 `yaml:"lat"`
	Lon  float64 `yaml:"lon"`
	Zoom float64 `yaml:"zoom,omitempty"`
}

// LoadThemes loads the theme catalogue from a YAML file.
// Theme names are normalized to lowercase; empty themes are dropped.
func LoadThemes(path string) (*ThemesConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read themes file: %w", err)
	}

	var raw ThemesConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse themes file: %w", err)
	}

	cfg := &ThemesConfig{Themes: make(map[string][]ThemeLocation, len(raw.Themes))}
	for name, locs := range raw.Themes {
		if len(locs) == 0 {
			continue
		}
		for i, l := range locs {
			if l.Lat < -90 || l.Lat > 90 {
				return nil, fmt.Errorf("theme %q location %d (%s): latitude %.4f out of range", name, i, l.Name, l.Lat)
			}
		}
		key := strings.ToLower(strings.TrimSpace(name))
		cfg.Themes[key] = append(cfg.Themes[key], locs...)
	}
	return cfg, nil
}

// Names returns the theme names in sorted order.
func (c *ThemesConfig) Names() []string {
	names := make([]string, 0, len(c.Themes))
	for n := range c.Themes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
