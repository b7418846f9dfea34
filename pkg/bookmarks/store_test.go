package bookmarks

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wikiroam/pkg/config"
	"wikiroam/pkg/db"
	"wikiroam/pkg/model"
	"wikiroam/pkg/store"
)

// memState is an in-memory StateStore that can be told to fail writes.
type memState struct {
	vals    map[string]string
	failSet bool
	writes  int
}

func newMemState() *memState { return &memState{vals: map[string]string{}} }

func (m *memState) GetState(_ context.Context, key string) (string, bool) {
	v, ok := m.vals[key]
	return v, ok
}

func (m *memState) SetState(_ context.Context, key, val string) error {
	m.writes++
	if m.failSet {
		return errors.New("disk full")
	}
	m.vals[key] = val
	return nil
}

func (m *memState) DeleteState(_ context.Context, key string) error {
	delete(m.vals, key)
	return nil
}

func testConfig(max int) config.BookmarksConfig {
	return config.BookmarksConfig{Max: max, StateKey: "bookmarks"}
}

func point(id int64) model.Point {
	return model.Point{ID: id, Title: "Place", Lat: 52.5, Lon: 13.4}
}

func TestToggleAddRemove(t *testing.T) {
	ctx := context.Background()
	st := newMemState()
	s := New(st, testConfig(100))
	fixed := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	out, err := s.Toggle(ctx, point(1))
	require.NoError(t, err)
	assert.Equal(t, Added, out)
	assert.True(t, s.IsBookmarked(1))
	assert.Equal(t, 1, s.Count())
	assert.Equal(t, fixed, s.List()[0].SavedAt)

	var persisted []model.Bookmark
	require.NoError(t, json.Unmarshal([]byte(st.vals["bookmarks"]), &persisted))
	require.Len(t, persisted, 1)
	assert.Equal(t, int64(1), persisted[0].ID)

	out, err = s.Toggle(ctx, point(1))
	require.NoError(t, err)
	assert.Equal(t, Removed, out)
	assert.False(t, s.IsBookmarked(1))
	assert.Zero(t, s.Count())
	assert.Equal(t, "[]", st.vals["bookmarks"])
}

func TestToggleIsIdempotentPair(t *testing.T) {
	ctx := context.Background()
	s := New(newMemState(), testConfig(100))
	for i := int64(1); i <= 3; i++ {
		_, _ = s.Toggle(ctx, point(i))
	}
	before := s.List()

	_, _ = s.Toggle(ctx, point(2))
	_, _ = s.Toggle(ctx, point(2))

	assert.Equal(t, len(before), s.Count())
	assert.True(t, s.IsBookmarked(2))
}

func TestLimitReached(t *testing.T) {
	ctx := context.Background()
	st := newMemState()
	s := New(st, testConfig(100))

	for i := int64(1); i <= 100; i++ {
		out, err := s.Toggle(ctx, point(i))
		require.NoError(t, err)
		require.Equal(t, Added, out)
	}
	writes := st.writes

	out, err := s.Toggle(ctx, point(101))
	require.NoError(t, err)
	assert.Equal(t, LimitReached, out)
	assert.Equal(t, 100, s.Count())
	assert.False(t, s.IsBookmarked(101))
	assert.Equal(t, writes, st.writes, "rejected toggle must not write")

	// Removing still works at the cap and frees a slot
	out, _ = s.Toggle(ctx, point(50))
	assert.Equal(t, Removed, out)
	out, _ = s.Toggle(ctx, point(101))
	assert.Equal(t, Added, out)
}

func TestWriteFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	st := newMemState()
	st.failSet = true
	s := New(st, testConfig(100))

	out, err := s.Toggle(ctx, point(1))
	assert.Equal(t, Added, out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.True(t, s.IsBookmarked(1), "no rollback on failed write")
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		stored  *string
		wantIDs []int64
	}{
		{"Missing", nil, nil},
		{"Empty string", ptr(""), nil},
		{"Malformed", ptr("{not json"), nil},
		{"Not an array", ptr(`{"pageid":1}`), nil},
		{"Valid", ptr(`[{"pageid":4,"title":"A","lat":1,"lon":2,"saved_at":"2024-01-01T00:00:00Z"},{"pageid":5,"title":"B","lat":3,"lon":4,"saved_at":"2024-01-02T00:00:00Z"}]`), []int64{4, 5}},
		{"Duplicates", ptr(`[{"pageid":4},{"pageid":4},{"pageid":6}]`), []int64{4, 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newMemState()
			if tt.stored != nil {
				st.vals["bookmarks"] = *tt.stored
			}
			s := New(st, testConfig(100))
			s.Load(context.Background())

			var ids []int64
			for _, b := range s.List() {
				ids = append(ids, b.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestPersistsAcrossStores(t *testing.T) {
	ctx := context.Background()
	d, err := db.Init(filepath.Join(t.TempDir(), "bookmarks.db"))
	require.NoError(t, err)
	st := store.NewSQLiteStore(d)
	defer st.Close()

	first := New(st, testConfig(10))
	first.Load(ctx)
	_, err = first.Toggle(ctx, point(11))
	require.NoError(t, err)
	_, err = first.Toggle(ctx, point(12))
	require.NoError(t, err)

	second := New(st, testConfig(10))
	second.Load(ctx)
	assert.Equal(t, 2, second.Count())
	assert.True(t, second.IsBookmarked(11))
	assert.True(t, second.IsBookmarked(12))
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "added", Added.String())
	assert.Equal(t, "removed", Removed.String())
	assert.Equal(t, "limit reached", LimitReached.String())
	assert.Equal(t, "Outcome(0)", Outcome(0).String())
}

func ptr(s string) *string { return &s }
