package cli

import (
	"context"
	"fmt"
)

// Execute implements goflags.Commander.
func (c *LocaleCommand) Execute(args []string) error {
	return withApp(c.globals, func(ctx context.Context, a *app) error {
		return c.run(ctx, a, args)
	})
}

func (c *LocaleCommand) run(ctx context.Context, a *app, args []string) error {
	switch {
	case c.Reset:
		if err := a.settings.ResetLocale(ctx); err != nil {
			return fmt.Errorf("reset locale: %w", err)
		}
		fmt.Fprintf(a.out, "Using the configured language %q\n", a.settings.Locale(ctx))
	case len(args) > 0:
		if err := a.settings.SetLocale(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Saved %q as the default language\n", args[0])
	default:
		fmt.Fprintln(a.out, a.cfg.Wikipedia.Locale)
	}
	return nil
}
