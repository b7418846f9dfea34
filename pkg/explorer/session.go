// Package explorer wires the map components to a map widget and a notice sink.
package explorer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"wikiroam/pkg/bookmarks"
	"wikiroam/pkg/config"
	"wikiroam/pkg/discovery"
	"wikiroam/pkg/geofetch"
	"wikiroam/pkg/hover"
	"wikiroam/pkg/model"
	"wikiroam/pkg/selection"
	"wikiroam/pkg/store"
)

// Widget is the map the session drives. Calls may arrive from any goroutine
// and must not re-enter the session synchronously.
type Widget interface {
	RenderPoints(points []model.Point)
	PanTo(target model.LatLon, zoom *float64)
	FlyTo(target model.LatLon, zoom float64)
}

// NoticeLevel grades a user-facing notice.
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarning
	NoticeError
)

func (l NoticeLevel) String() string {
	switch l {
	case NoticeWarning:
		return "warning"
	case NoticeError:
		return "error"
	default:
		return "info"
	}
}

// Notifier shows short messages to the user.
type Notifier interface {
	Notify(level NoticeLevel, msg string)
}

// Encyclopedia is everything the session needs from the article source.
type Encyclopedia interface {
	geofetch.Searcher
	hover.DetailFetcher
	SearchByName(ctx context.Context, text, locale string) (*model.SearchHit, error)
	FetchImages(ctx context.Context, id int64, locale string) ([]model.Image, error)
}

// Deps are the collaborators of a session.
type Deps struct {
	Encyclopedia Encyclopedia
	State        store.StateStore
	Themes       *config.ThemesConfig
	Clock        clock.Clock // nil means wall clock
	Rand         *rand.Rand  // nil means seeded from time
	Widget       Widget
	Notifier     Notifier
}

// Session is one map view with its own caches, histories and slots.
type Session struct {
	id     string
	cfg    *config.Config
	deps   Deps
	logger *slog.Logger

	mu       sync.Mutex
	locale   string
	rendered uint64

	coordinator *geofetch.Coordinator
	hover       *hover.Previewer
	selection   *selection.Controller
	bookmarks   *bookmarks.Store
	discovery   *discovery.Picker
}

// NewSession builds all components from cfg.
func NewSession(cfg *config.Config, deps Deps) *Session {
	locale := cfg.Wikipedia.Locale
	s := &Session{
		id:     uuid.NewString(),
		cfg:    cfg,
		deps:   deps,
		locale: locale,
	}
	s.logger = slog.With("session", s.id)

	s.coordinator = geofetch.New(deps.Encyclopedia, geofetch.NewConfig(cfg.Map, locale), deps.Clock)
	s.hover = hover.New(deps.Encyclopedia, hover.NewConfig(cfg.Hover, locale), deps.Clock)
	s.selection = selection.New(deps.Encyclopedia, locale)
	s.bookmarks = bookmarks.New(deps.State, cfg.Bookmarks)
	s.discovery = discovery.New(deps.Themes, cfg.Discovery, deps.Rand)

	s.coordinator.OnChange(s.onPoints)
	return s
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

func (s *Session) Coordinator() *geofetch.Coordinator { return s.coordinator }
func (s *Session) Hover() *hover.Previewer            { return s.hover }
func (s *Session) Selection() *selection.Controller   { return s.selection }
func (s *Session) Bookmarks() *bookmarks.Store        { return s.bookmarks }
func (s *Session) Discovery() *discovery.Picker       { return s.discovery }

// Locale returns the current language.
func (s *Session) Locale() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locale
}

// Start loads bookmarks and searches the initial viewport, if one is known.
func (s *Session) Start(ctx context.Context) {
	s.bookmarks.Load(ctx)
	s.logger.Info("Session started", "locale", s.Locale(), "bookmarks", s.bookmarks.Count())
	s.coordinator.TriggerImmediateFetch()
}

func (s *Session) onPoints(st geofetch.State) {
	s.mu.Lock()
	if st.Revision == s.rendered {
		s.mu.Unlock()
		return
	}
	s.rendered = st.Revision
	s.mu.Unlock()

	if s.deps.Widget != nil {
		s.deps.Widget.RenderPoints(st.Points)
	}
}

// ViewportChanged is the widget's move/zoom callback.
func (s *Session) ViewportChanged(v model.Viewport) {
	s.coordinator.OnViewportChanged(v)
}

// MarkerHoverStart is the widget's hover callback.
func (s *Session) MarkerHoverStart(p model.Point, pos model.ScreenPos) {
	s.hover.OnHoverStart(p, pos)
}

// MarkerHoverEnd is the widget's hover-out callback.
func (s *Session) MarkerHoverEnd() {
	s.hover.OnHoverEnd()
}

// MarkerClick selects p and pans the map to it.
func (s *Session) MarkerClick(p model.Point) {
	target := s.selection.Select(p)
	if s.deps.Widget != nil {
		s.deps.Widget.PanTo(target, nil)
	}
}

// SetLocale switches every component to a new language.
func (s *Session) SetLocale(locale string) error {
	if !config.ValidLocale(locale) {
		return fmt.Errorf("invalid locale %q", locale)
	}
	s.mu.Lock()
	s.locale = locale
	s.mu.Unlock()

	s.logger.Info("Locale changed", "locale", locale)
	s.hover.SetLocale(locale)
	s.selection.SetLocale(locale)
	s.coordinator.SetLocale(locale)
	return nil
}

// ToggleBookmark adds or removes p and tells the user what happened.
func (s *Session) ToggleBookmark(ctx context.Context, p model.Point) bookmarks.Outcome {
	out, err := s.bookmarks.Toggle(ctx, p)
	switch out {
	case bookmarks.Added:
		s.notify(NoticeInfo, fmt.Sprintf("Saved %q to bookmarks", p.Title))
	case bookmarks.Removed:
		s.notify(NoticeInfo, fmt.Sprintf("Removed %q from bookmarks", p.Title))
	case bookmarks.LimitReached:
		s.notify(NoticeWarning, fmt.Sprintf("Bookmark limit of %d reached", s.cfg.Bookmarks.Max))
	}
	if err != nil {
		s.logger.Error("Failed to persist bookmarks", "error", err)
		s.notify(NoticeError, "Bookmarks could not be saved")
	}
	return out
}

// Discover flies to a random location of theme.
func (s *Session) Discover(theme string) (model.Location, error) {
	loc, err := s.discovery.Pick(theme)
	if err != nil {
		if errors.Is(err, discovery.ErrUnknownTheme) {
			s.notify(NoticeWarning, fmt.Sprintf("No destinations for %q", theme))
		}
		return loc, err
	}
	s.logger.Debug("Discovery pick", "theme", theme, "name", loc.Name)
	if s.deps.Widget != nil {
		s.deps.Widget.FlyTo(model.LatLon{Lat: loc.Lat, Lon: loc.Lon}, loc.Zoom)
	}
	return loc, nil
}

// SearchByName flies to the first geotagged match for text. Misses and
// failures are reported to the user since the search was explicit.
func (s *Session) SearchByName(ctx context.Context, text string) (*model.SearchHit, error) {
	hit, err := s.deps.Encyclopedia.SearchByName(ctx, text, s.Locale())
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Warn("Search failed", "query", text, "error", err)
			s.notify(NoticeError, "Search is unavailable right now")
		}
		return nil, err
	}
	if hit == nil {
		s.notify(NoticeWarning, fmt.Sprintf("No place found for %q", text))
		return nil, nil
	}
	if s.deps.Widget != nil {
		s.deps.Widget.FlyTo(model.LatLon{Lat: hit.Lat, Lon: hit.Lon}, s.cfg.Discovery.Zoom)
	}
	return hit, nil
}

// Images returns the gallery of an article. Failures yield no images.
func (s *Session) Images(ctx context.Context, id int64) []model.Image {
	images, err := s.deps.Encyclopedia.FetchImages(ctx, id, s.Locale())
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Warn("Image fetch failed", "id", id, "error", err)
		}
		return nil
	}
	return images
}

// Close tears down every component.
func (s *Session) Close() {
	s.coordinator.Close()
	s.hover.Close()
	s.selection.Shutdown()
	s.logger.Info("Session closed")
}

func (s *Session) notify(level NoticeLevel, msg string) {
	if s.deps.Notifier != nil {
		s.deps.Notifier.Notify(level, msg)
	}
}
