// Package selection owns the details panel opened by clicking a marker.
package selection

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"wikiroam/pkg/listeners"
	"wikiroam/pkg/model"
	"wikiroam/pkg/slot"
)

// DetailFetcher loads the summary of one article. A nil record means the
// article does not exist.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, id int64, locale string) (*model.DetailRecord, error)
}

// Panel is the state of the details panel.
type Panel struct {
	Open    bool
	Loading bool
	Point   *model.Point
	Detail  *model.DetailRecord
}

// Controller tracks the selected point and its detail fetch.
type Controller struct {
	mu     sync.Mutex
	fetch  DetailFetcher
	locale string
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	detail slot.Slot

	panel     Panel
	closed    bool
	listeners listeners.Set[Panel]
}

// New creates a controller fetching in the given locale.
func New(f DetailFetcher, locale string) *Controller {
	if locale == "" {
		locale = "en"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		fetch:  f,
		locale: locale,
		logger: slog.With("component", "selection"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// OnChange registers a listener called after every panel change. It runs
// with the controller locked and must not call back into it. The returned
// func removes the listener.
func (c *Controller) OnChange(fn func(Panel)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.listeners.Add(fn)
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.listeners.Remove(id)
	}
}

// Panel returns the current panel state.
func (c *Controller) Panel() Panel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.panel
}

// SetLocale changes the language used by later selections.
func (c *Controller) SetLocale(locale string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.locale = locale
}

// Select opens the panel for p in the loading state and fetches its detail,
// superseding any earlier selection. It returns where the map should pan to.
func (c *Controller) Select(p model.Point) model.LatLon {
	target := model.LatLon{Lat: p.Lat, Lon: p.Lon}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return target
	}

	ticket := c.detail.Begin(c.ctx)
	c.panel = Panel{Open: true, Loading: true, Point: &p}
	c.notify()

	go c.run(ticket, p.ID, c.locale)
	return target
}

// Close cancels the fetch and closes the panel.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.detail.Cancel()
	c.panel = Panel{}
	c.notify()
}

// Shutdown releases the controller for good.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.detail.Cancel()
	c.cancel()
	c.panel.Loading = false
}

func (c *Controller) run(ticket *slot.Ticket, id int64, locale string) {
	rec, err := c.fetch.FetchDetail(ticket.Context(), id, locale)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !ticket.Current() {
		c.logger.Debug("Dropping superseded detail", "id", id)
		return
	}
	ticket.Done()
	c.panel.Loading = false

	switch {
	case err != nil:
		if !errors.Is(err, context.Canceled) {
			c.logger.Warn("Detail fetch failed", "id", id, "locale", locale, "error", err)
		}
	case rec == nil:
		c.logger.Debug("No article for selection", "id", id, "locale", locale)
	default:
		c.panel.Detail = rec
	}
	c.notify()
}

func (c *Controller) notify() {
	c.listeners.Emit(c.panel)
}
