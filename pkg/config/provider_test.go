package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockStateStore implements store.StateStore for testing.
type MockStateStore struct {
	data map[string]string
}

func NewMockStateStore() *MockStateStore {
	return &MockStateStore{data: make(map[string]string)}
}

func (m *MockStateStore) GetState(ctx context.Context, key string) (string, bool) {
	val, ok := m.data[key]
	return val, ok
}

func (m *MockStateStore) SetState(ctx context.Context, key, val string) error {
	m.data[key] = val
	return nil
}

func (m *MockStateStore) DeleteState(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func TestUnifiedProvider_Locale(t *testing.T) {
	ctx := context.Background()
	base := DefaultConfig()
	base.Wikipedia.Locale = "fr"

	st := NewMockStateStore()
	p := NewProvider(base, st)
	assert.Same(t, base, p.AppConfig())

	t.Run("falls back to the config file", func(t *testing.T) {
		assert.Equal(t, "fr", p.Locale(ctx))
	})

	t.Run("saved value wins", func(t *testing.T) {
		require.NoError(t, p.SetLocale(ctx, "de"))
		assert.Equal(t, "de", st.data[KeyLocale])
		assert.Equal(t, "de", p.Locale(ctx))
	})

	t.Run("invalid value is rejected", func(t *testing.T) {
		assert.Error(t, p.SetLocale(ctx, "German"))
		assert.Equal(t, "de", p.Locale(ctx))
	})

	t.Run("corrupt saved value is ignored", func(t *testing.T) {
		st.data[KeyLocale] = "??"
		assert.Equal(t, "fr", p.Locale(ctx))
	})

	t.Run("reset", func(t *testing.T) {
		require.NoError(t, p.SetLocale(ctx, "ja"))
		require.NoError(t, p.ResetLocale(ctx))
		_, ok := st.data[KeyLocale]
		assert.False(t, ok)
		assert.Equal(t, "fr", p.Locale(ctx))
	})
}

func TestUnifiedProvider_NoStore(t *testing.T) {
	ctx := context.Background()
	p := NewProvider(DefaultConfig(), nil)

	assert.Equal(t, "en", p.Locale(ctx))
	assert.Error(t, p.SetLocale(ctx, "de"))
	assert.NoError(t, p.ResetLocale(ctx))
}
