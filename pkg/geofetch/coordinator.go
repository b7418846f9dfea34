// Package geofetch turns map viewport changes into nearby article searches.
package geofetch

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"wikiroam/pkg/config"
	"wikiroam/pkg/listeners"
	"wikiroam/pkg/model"
	"wikiroam/pkg/slot"
)

// Searcher finds geotagged articles around a coordinate.
type Searcher interface {
	SearchNearby(ctx context.Context, lat, lon, radius float64, locale string) ([]model.Point, error)
}

// Config tunes the coordinator.
type Config struct {
	MinZoom      float64
	Debounce     time.Duration
	RadiusMin    float64
	RadiusMax    float64
	KeyPrecision int
	Locale       string
}

// NewConfig maps the file configuration onto Config.
func NewConfig(mc config.MapConfig, locale string) Config {
	return Config{
		MinZoom:      mc.MinZoom,
		Debounce:     mc.Debounce.Std(),
		RadiusMin:    mc.RadiusMin.Meters(),
		RadiusMax:    mc.RadiusMax.Meters(),
		KeyPrecision: mc.KeyPrecision,
		Locale:       locale,
	}
}

// State is a snapshot of what the map should show.
type State struct {
	Points         []model.Point
	IsLoading      bool
	IsScanDisabled bool
	VisibleCount   int
	Locale         string
	Revision       uint64 // bumped whenever Points is replaced or cleared
}

// Coordinator debounces viewport changes, deduplicates searches by query key
// and makes sure only the latest search can update the point set.
type Coordinator struct {
	mu     sync.Mutex
	cfg    Config
	search Searcher
	clock  clock.Clock
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	fetch  slot.Slot

	timer    *clock.Timer
	timerGen uint64

	viewport  *model.Viewport
	points    []model.Point
	loading   bool
	disabled  bool
	visible   int
	rev       uint64
	lastKey   string
	closed    bool
	listeners listeners.Set[State]
}

// New creates a coordinator. A nil clock means the wall clock.
func New(s Searcher, cfg Config, clk clock.Clock) *Coordinator {
	if clk == nil {
		clk = clock.New()
	}
	if cfg.KeyPrecision <= 0 {
		cfg.KeyPrecision = model.DefaultKeyPrecision
	}
	if cfg.Locale == "" {
		cfg.Locale = "en"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		cfg:    cfg,
		search: s,
		clock:  clk,
		logger: slog.With("component", "geofetch"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// OnChange registers a listener that receives a snapshot after every state
// change. Listeners run with the coordinator locked and must not call back into
// it. The returned func removes the listener.
func (c *Coordinator) OnChange(fn func(State)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.listeners.Add(fn)
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.listeners.Remove(id)
	}
}

// State returns the current snapshot.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// OnViewportChanged records the new viewport and schedules a search once the
// map has been quiet for the debounce interval. Below the minimum zoom the
// point set is cleared at once and nothing is fetched.
func (c *Coordinator) OnViewportChanged(v model.Viewport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.viewport = &v
	if v.Zoom < c.cfg.MinZoom {
		c.disableScan()
		c.notify()
		return
	}

	c.disabled = false
	c.visible = c.countVisible()
	c.armTimer()
	c.notify()
}

// TriggerImmediateFetch skips the debounce and forgets the last key so the
// current viewport is searched again.
func (c *Coordinator) TriggerImmediateFetch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.fetchNow()
}

// SetLocale switches the search language and refetches immediately.
func (c *Coordinator) SetLocale(locale string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.cfg.Locale = locale
	c.notify()
	c.fetchNow()
}

func (c *Coordinator) fetchNow() {
	c.lastKey = ""
	c.stopTimer()
	c.startFetch()
}

// Close stops the timer and abandons any search in flight.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.stopTimer()
	c.fetch.Cancel()
	c.cancel()
	c.loading = false
}

func (c *Coordinator) disableScan() {
	c.stopTimer()
	c.fetch.Cancel()
	c.disabled = true
	c.loading = false
	if c.points != nil {
		c.points = nil
		c.rev++
	}
	c.visible = 0
	// zooming back in must search again even at the same spot
	c.lastKey = ""
}

func (c *Coordinator) armTimer() {
	c.stopTimer()
	c.timerGen++
	gen := c.timerGen
	c.timer = c.clock.AfterFunc(c.cfg.Debounce, func() { c.onTimer(gen) })
}

func (c *Coordinator) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	// invalidates a callback that already fired but has not taken the lock yet
	c.timerGen++
}

func (c *Coordinator) onTimer(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.timerGen {
		return
	}
	c.timer = nil
	c.startFetch()
}

// startFetch must be called with c.mu held.
func (c *Coordinator) startFetch() {
	v := c.viewport
	if v == nil || v.Zoom < c.cfg.MinZoom {
		return
	}

	q := model.ViewportQuery{
		Lat:    v.Center.Lat,
		Lon:    v.Center.Lon,
		Radius: ComputeRadius(v.Bounds, c.cfg.RadiusMin, c.cfg.RadiusMax),
		Locale: c.cfg.Locale,
	}
	key := q.KeyWithPrecision(c.cfg.KeyPrecision)
	if key == c.lastKey {
		c.logger.Debug("Viewport unchanged, skipping search", "key", key)
		return
	}
	c.lastKey = key

	ticket := c.fetch.Begin(c.ctx)
	c.loading = true
	c.notify()

	c.logger.Debug("Searching nearby", "key", key)
	go c.run(ticket, q, key)
}

func (c *Coordinator) run(ticket *slot.Ticket, q model.ViewportQuery, key string) {
	points, err := c.search.SearchNearby(ticket.Context(), q.Lat, q.Lon, q.Radius, q.Locale)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !ticket.Current() {
		c.logger.Debug("Dropping superseded search result", "key", key)
		return
	}
	ticket.Done()
	c.loading = false

	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.logger.Warn("Nearby search failed, keeping previous points", "key", key, "error", err)
		}
		// allow the same viewport to be retried
		c.lastKey = ""
		c.notify()
		return
	}

	c.points = points
	c.rev++
	c.visible = c.countVisible()
	c.logger.Debug("Points updated", "key", key, "count", len(points), "visible", c.visible)
	c.notify()
}

// countVisible counts markers (not clusters) inside the current bounds.
func (c *Coordinator) countVisible() int {
	if c.viewport == nil {
		return 0
	}
	n := 0
	for _, p := range c.points {
		if c.viewport.Bounds.Contains(p.Lat, p.Lon) {
			n++
		}
	}
	return n
}

func (c *Coordinator) snapshot() State {
	return State{
		Points:         slices.Clone(c.points),
		IsLoading:      c.loading,
		IsScanDisabled: c.disabled,
		VisibleCount:   c.visible,
		Locale:         c.cfg.Locale,
		Revision:       c.rev,
	}
}

func (c *Coordinator) notify() {
	if c.listeners.Len() == 0 {
		return
	}
	c.listeners.Emit(c.snapshot())
}
