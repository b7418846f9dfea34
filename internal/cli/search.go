package cli

import (
	"context"
	"fmt"
	"strings"
)

// Execute implements goflags.Commander.
func (c *SearchCommand) Execute(args []string) error {
	if strings.TrimSpace(strings.Join(args, " ")) == "" {
		return fmt.Errorf("a search text is required")
	}
	return withApp(c.globals, func(ctx context.Context, a *app) error {
		return c.run(ctx, a, args)
	})
}

func (c *SearchCommand) run(ctx context.Context, a *app, args []string) error {
	con := newConsole(a.out, a.errOut)
	s := a.newSession(con)
	defer s.Close()

	text := strings.Join(args, " ")
	hit, err := s.SearchByName(ctx, text)
	if err != nil {
		return err
	}
	if hit == nil {
		// the session already told the user
		return nil
	}
	fmt.Fprintf(a.out, "%s (%.5f, %.5f)\n", hit.Title, hit.Lat, hit.Lon)

	if !c.Nearby {
		return nil
	}
	v := viewportAt(hit.Lat, hit.Lon, a.cfg.Discovery.Zoom, 1024, 768)
	if _, err := awaitPoints(ctx, s, v); err != nil {
		return err
	}
	writePoints(a.out, con.Points())
	return nil
}
