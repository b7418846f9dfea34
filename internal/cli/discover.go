package cli

import (
	"context"
	"fmt"
	"strings"
)

// Execute implements goflags.Commander.
func (c *DiscoverCommand) Execute(args []string) error {
	return withApp(c.globals, func(ctx context.Context, a *app) error {
		return c.run(ctx, a, args)
	})
}

func (c *DiscoverCommand) run(_ context.Context, a *app, args []string) error {
	con := newConsole(a.out, a.errOut)
	s := a.newSession(con)
	defer s.Close()

	themes := s.Discovery().Themes()
	if c.List || len(args) == 0 {
		if len(themes) == 0 {
			fmt.Fprintln(a.out, "No themes configured.")
			return nil
		}
		fmt.Fprintln(a.out, "Themes:")
		for _, t := range themes {
			fmt.Fprintf(a.out, "  %s\n", t)
		}
		return nil
	}

	theme := strings.Join(args, " ")
	for i := 0; i < max(c.Count, 1); i++ {
		loc, err := s.Discover(theme)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%d. %s\n", i+1, loc.Name)
	}
	return nil
}
