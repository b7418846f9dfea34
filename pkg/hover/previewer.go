// Package hover drives the quick-facts popup shown while the cursor rests on a marker.
package hover

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"wikiroam/pkg/cache"
	"wikiroam/pkg/config"
	"wikiroam/pkg/listeners"
	"wikiroam/pkg/model"
	"wikiroam/pkg/slot"
)

// DetailFetcher loads the summary of one article. A nil record means the
// article does not exist.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, id int64, locale string) (*model.DetailRecord, error)
}

// Config tunes the previewer.
type Config struct {
	Delay    time.Duration
	Capacity int
	Locale   string
}

// NewConfig maps the file configuration onto Config.
func NewConfig(hc config.HoverConfig, locale string) Config {
	return Config{Delay: hc.Delay.Std(), Capacity: hc.Capacity, Locale: locale}
}

// Preview is what the popup should display.
type Preview struct {
	Point    *model.Point
	Detail   *model.DetailRecord
	Position *model.ScreenPos
	Loading  bool
}

// Visible reports whether a popup should be on screen.
func (p Preview) Visible() bool {
	return p.Position != nil
}

// Previewer waits for the cursor to linger before fetching, serves repeat
// hovers from a FIFO cache and never lets a superseded fetch reach the screen.
type Previewer struct {
	mu     sync.Mutex
	cfg    Config
	fetch  DetailFetcher
	clock  clock.Clock
	logger *slog.Logger
	cache  *cache.FIFO[string, model.DetailRecord]

	ctx    context.Context
	cancel context.CancelFunc
	detail slot.Slot

	timer    *clock.Timer
	timerGen uint64

	preview   Preview
	closed    bool
	listeners listeners.Set[Preview]
}

// New creates a previewer. A nil clock means the wall clock.
func New(f DetailFetcher, cfg Config, clk clock.Clock) *Previewer {
	if clk == nil {
		clk = clock.New()
	}
	if cfg.Locale == "" {
		cfg.Locale = "en"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Previewer{
		cfg:    cfg,
		fetch:  f,
		clock:  clk,
		logger: slog.With("component", "hover"),
		cache:  cache.NewFIFO[string, model.DetailRecord](cfg.Capacity),
		ctx:    ctx,
		cancel: cancel,
	}
}

func cacheKey(locale string, id int64) string {
	return locale + ":" + strconv.FormatInt(id, 10)
}

// OnChange registers a listener called after every preview change. It runs
// with the previewer locked and must not call back into it. The returned func
// removes the listener.
func (h *Previewer) OnChange(fn func(Preview)) (unsubscribe func()) {
	h.mu.Lock()
	id := h.listeners.Add(fn)
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.listeners.Remove(id)
	}
}

// Preview returns the current popup state.
func (h *Previewer) Preview() Preview {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.preview
}

// CacheLen returns the number of cached records.
func (h *Previewer) CacheLen() int {
	return h.cache.Len()
}

// OnHoverStart shows the popup at pos. A cached record is shown at once;
// otherwise the record is fetched after the hover delay.
func (h *Previewer) OnHoverStart(p model.Point, pos model.ScreenPos) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}

	h.abandon()
	h.preview = Preview{Point: &p, Position: &pos}

	if rec, ok := h.cache.Get(cacheKey(h.cfg.Locale, p.ID)); ok {
		h.preview.Detail = &rec
		h.notify()
		return
	}

	h.timerGen++
	gen := h.timerGen
	h.timer = h.clock.AfterFunc(h.cfg.Delay, func() { h.onTimer(gen, p.ID) })
	h.notify()
}

// OnHoverEnd hides the popup and drops any pending or running fetch.
func (h *Previewer) OnHoverEnd() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.abandon()
	h.preview = Preview{}
	h.notify()
}

// SetLocale empties the cache and drops the current popup.
func (h *Previewer) SetLocale(locale string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.cfg.Locale = locale
	h.cache.Clear()
	h.abandon()
	h.preview = Preview{}
	h.notify()
}

// Close stops the timer, abandons any fetch in flight and hides the popup.
func (h *Previewer) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	h.abandon()
	h.cancel()
	h.preview = Preview{}
}

// abandon stops the delay timer and supersedes the in-flight fetch.
func (h *Previewer) abandon() {
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	h.timerGen++
	h.detail.Cancel()
	h.preview.Loading = false
}

func (h *Previewer) onTimer(gen uint64, id int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || gen != h.timerGen {
		return
	}
	h.timer = nil

	ticket := h.detail.Begin(h.ctx)
	h.preview.Loading = true
	h.notify()

	go h.run(ticket, id, h.cfg.Locale)
}

func (h *Previewer) run(ticket *slot.Ticket, id int64, locale string) {
	rec, err := h.fetch.FetchDetail(ticket.Context(), id, locale)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || !ticket.Current() {
		h.logger.Debug("Dropping superseded preview", "id", id)
		return
	}
	ticket.Done()
	h.preview.Loading = false

	switch {
	case err != nil:
		if !errors.Is(err, context.Canceled) {
			h.logger.Warn("Preview fetch failed", "id", id, "locale", locale, "error", err)
		}
	case rec == nil:
		h.logger.Debug("No article for preview", "id", id, "locale", locale)
	default:
		if evicted, ok := h.cache.Put(cacheKey(locale, id), *rec); ok {
			h.logger.Debug("Preview cache full, evicted oldest", "key", evicted)
		}
		h.preview.Detail = rec
	}
	h.notify()
}

func (h *Previewer) notify() {
	h.listeners.Emit(h.preview)
}
