// Package bookmarks keeps the capped favorites list.
package bookmarks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"wikiroam/pkg/config"
	"wikiroam/pkg/model"
	"wikiroam/pkg/store"
)

// Outcome is the result of a toggle.
type Outcome int

const (
	Added Outcome = iota + 1
	Removed
	LimitReached
)

func (o Outcome) String() string {
	switch o {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case LimitReached:
		return "limit reached"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Store holds the bookmarks in memory and writes the whole list to the
// state store after every change. Memory is authoritative: a failed write is
// reported but not rolled back.
type Store struct {
	mu    sync.Mutex
	state store.StateStore
	key   string
	max   int
	now   func() time.Time
	items []model.Bookmark
}

// New creates an empty store. Call Load to read persisted bookmarks.
func New(st store.StateStore, cfg config.BookmarksConfig) *Store {
	key := cfg.StateKey
	if key == "" {
		key = config.KeyBookmarks
	}
	return &Store{state: st, key: key, max: cfg.Max, now: time.Now}
}

// Load replaces the in-memory list with the persisted one. Missing or
// malformed data yields an empty list.
func (s *Store) Load(ctx context.Context) {
	raw, ok := s.state.GetState(ctx, s.key)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	if !ok || raw == "" {
		return
	}

	var items []model.Bookmark
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		slog.Warn("Ignoring malformed bookmarks", "key", s.key, "error", err)
		return
	}

	// drop duplicate ids a hand-edited database may contain
	seen := make(map[int64]bool, len(items))
	for _, b := range items {
		if seen[b.ID] {
			continue
		}
		seen[b.ID] = true
		s.items = append(s.items, b)
	}
}

// Toggle removes p if it is bookmarked and adds it otherwise, unless the
// list is full. The returned error reports a failed write; the outcome
// has been applied regardless.
func (s *Store) Toggle(ctx context.Context, p model.Point) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(p.ID); i >= 0 {
		s.items = slices.Delete(s.items, i, i+1)
		return Removed, s.persist(ctx)
	}

	if len(s.items) >= s.max {
		return LimitReached, nil
	}

	s.items = append(s.items, model.Bookmark{
		ID:      p.ID,
		Title:   p.Title,
		Lat:     p.Lat,
		Lon:     p.Lon,
		SavedAt: s.now().UTC(),
	})
	return Added, s.persist(ctx)
}

// IsBookmarked reports whether id is in the list.
func (s *Store) IsBookmarked(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(id) >= 0
}

// List returns the bookmarks in insertion order.
func (s *Store) List() []model.Bookmark {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

// Count returns the number of bookmarks.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) indexOf(id int64) int {
	return slices.IndexFunc(s.items, func(b model.Bookmark) bool { return b.ID == id })
}

func (s *Store) persist(ctx context.Context) error {
	items := s.items
	if items == nil {
		items = []model.Bookmark{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode bookmarks: %w", err)
	}
	if err := s.state.SetState(ctx, s.key, string(raw)); err != nil {
		return fmt.Errorf("save bookmarks: %w", err)
	}
	return nil
}
