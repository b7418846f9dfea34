package config

import (
	"context"
	"fmt"

	"wikiroam/pkg/store"
)

// Provider resolves settings the user can change at runtime. Values saved
// in the state store win over the config file.
type Provider interface {
	Locale(ctx context.Context) string
	SetLocale(ctx context.Context, locale string) error
	ResetLocale(ctx context.Context) error

	// Raw access (for components that need deep access)
	AppConfig() *Config
}

// UnifiedProvider implements Provider by bridging static Config and persistent Store.
type UnifiedProvider struct {
	base  *Config
	store store.StateStore
}

// NewProvider creates a new UnifiedProvider.
func NewProvider(base *Config, st store.StateStore) *UnifiedProvider {
	return &UnifiedProvider{
		base:  base,
		store: st,
	}
}

func (p *UnifiedProvider) AppConfig() *Config { return p.base }

// Locale returns the saved language, or the config file's. A saved value
// that is no longer a valid code is ignored.
func (p *UnifiedProvider) Locale(ctx context.Context) string {
	l := p.getString(ctx, KeyLocale, p.base.Wikipedia.Locale)
	if !ValidLocale(l) {
		return p.base.Wikipedia.Locale
	}
	return l
}

// SetLocale saves the language for later runs.
func (p *UnifiedProvider) SetLocale(ctx context.Context, locale string) error {
	if !ValidLocale(locale) {
		return fmt.Errorf("invalid locale %q", locale)
	}
	if p.store == nil {
		return fmt.Errorf("no state store to save locale in")
	}
	return p.store.SetState(ctx, KeyLocale, locale)
}

// ResetLocale forgets the saved language.
func (p *UnifiedProvider) ResetLocale(ctx context.Context) error {
	if p.store == nil {
		return nil
	}
	return p.store.DeleteState(ctx, KeyLocale)
}

// --- Helpers ---

func (p *UnifiedProvider) getString(ctx context.Context, key, fallback string) string {
	if p.store != nil {
		if val, ok := p.store.GetState(ctx, key); ok && val != "" {
			return val
		}
	}
	return fallback
}
