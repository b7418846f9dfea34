// Package discovery picks "surprise me" destinations without immediate repeats.
package discovery

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"wikiroam/pkg/config"
	"wikiroam/pkg/model"
)

// ErrUnknownTheme is returned for a theme with no locations.
var ErrUnknownTheme = errors.New("unknown theme")

// Picker chooses uniformly among the locations of a theme that were not
// among its last few picks. Once every location is in the history the whole
// list is eligible again.
type Picker struct {
	mu          sync.Mutex
	themes      map[string][]model.Location
	history     map[string][]int
	historySize int
	rng         *rand.Rand
}

// New builds a picker. A nil rng is seeded from the clock. Locations
// without a zoom of their own get cfg.Zoom.
func New(themes *config.ThemesConfig, cfg config.DiscoveryConfig, rng *rand.Rand) *Picker {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	p := &Picker{
		themes:      make(map[string][]model.Location),
		history:     make(map[string][]int),
		historySize: max(cfg.HistorySize, 0),
		rng:         rng,
	}
	if themes == nil {
		return p
	}
	for name, locs := range themes.Themes {
		out := make([]model.Location, 0, len(locs))
		for _, l := range locs {
			zoom := l.Zoom
			if zoom <= 0 {
				zoom = cfg.Zoom
			}
			out = append(out, model.Location{Name: l.Name, Lat: l.Lat, Lon: l.Lon, Zoom: zoom})
		}
		p.themes[strings.ToLower(name)] = out
	}
	return p
}

// Pick returns the next destination for theme.
func (p *Picker) Pick(theme string) (model.Location, error) {
	theme = strings.ToLower(strings.TrimSpace(theme))

	p.mu.Lock()
	defer p.mu.Unlock()

	locs := p.themes[theme]
	if len(locs) == 0 {
		return model.Location{}, fmt.Errorf("%w: %q", ErrUnknownTheme, theme)
	}

	hist := p.history[theme]
	candidates := make([]int, 0, len(locs))
	for i := range locs {
		if !slices.Contains(hist, i) {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		for i := range locs {
			candidates = append(candidates, i)
		}
	}

	idx := candidates[p.rng.Intn(len(candidates))]

	hist = append(hist, idx)
	if len(hist) > p.historySize {
		hist = hist[len(hist)-p.historySize:]
	}
	p.history[theme] = slices.Clip(hist)

	return locs[idx], nil
}

// Themes returns the known theme names, sorted.
func (p *Picker) Themes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.themes))
	for n := range p.themes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Reset forgets the pick history of theme.
func (p *Picker) Reset(theme string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.history, strings.ToLower(strings.TrimSpace(theme)))
}
