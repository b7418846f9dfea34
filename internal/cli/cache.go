package cli

import (
	"context"
	"fmt"

	"wikiroam/pkg/config"
)

// Execute implements goflags.Commander.
func (c *CacheCommand) Execute(args []string) error {
	return withApp(c.globals, func(ctx context.Context, a *app) error {
		return c.run(ctx, a, args)
	})
}

func (c *CacheCommand) run(ctx context.Context, a *app, args []string) error {
	if c.OlderThan != "" {
		age, err := config.ParseDuration(c.OlderThan)
		if err != nil {
			return fmt.Errorf("invalid --prune-older-than value %q: %w", c.OlderThan, err)
		}
		n, err := a.db.PruneCache(ctx, age)
		if err != nil {
			return fmt.Errorf("prune cache: %w", err)
		}
		fmt.Fprintf(a.out, "Removed %d cached responses older than %s\n", n, age)
		return nil
	}

	if len(args) > 0 {
		for _, key := range args {
			ok, err := a.store.HasCache(ctx, key)
			if err != nil {
				return fmt.Errorf("check %q: %w", key, err)
			}
			state := "missing"
			if ok {
				state = "cached"
			}
			fmt.Fprintf(a.out, "%s\t%s\n", state, key)
		}
		return nil
	}

	keys, err := a.store.ListCacheKeys(ctx, c.Prefix)
	if err != nil {
		return fmt.Errorf("list cache: %w", err)
	}
	for _, k := range keys {
		fmt.Fprintln(a.out, k)
	}
	fmt.Fprintf(a.out, "%d cached responses\n", len(keys))
	return nil
}
