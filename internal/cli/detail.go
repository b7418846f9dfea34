package cli

import (
	"context"
	"fmt"
	"strconv"

	"wikiroam/pkg/explorer"
	"wikiroam/pkg/model"
	"wikiroam/pkg/selection"
)

// Execute implements goflags.Commander.
func (c *DetailCommand) Execute(args []string) error {
	if c.ID == 0 && len(args) > 0 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid page ID %q: %w", args[0], err)
		}
		c.ID = id
	}
	if c.ID <= 0 {
		return fmt.Errorf("--id is required")
	}
	return withApp(c.globals, c.run)
}

func (c *DetailCommand) run(ctx context.Context, a *app) error {
	con := newConsole(a.out, a.errOut)
	s := a.newSession(con)
	defer s.Close()

	panel, err := awaitDetail(ctx, s, model.Point{ID: c.ID})
	if err != nil {
		return err
	}
	if panel.Detail == nil {
		return fmt.Errorf("no details for page ID %d in %q, the article is missing or unavailable", c.ID, s.Locale())
	}

	writeDetail(a, panel.Detail)

	if c.Images {
		images := s.Images(ctx, c.ID)
		fmt.Fprintf(a.out, "\nImages (%d):\n", len(images))
		for _, img := range images {
			fmt.Fprintf(a.out, "  %s  %dx%d  %s\n", img.Title, img.Width, img.Height, img.URL)
		}
	}
	return nil
}

// awaitDetail selects p and waits for its details panel to finish loading.
func awaitDetail(ctx context.Context, s *explorer.Session, p model.Point) (selection.Panel, error) {
	done := make(chan selection.Panel, 1)
	// runs under the controller lock
	stop := s.Selection().OnChange(func(panel selection.Panel) {
		if panel.Open && !panel.Loading && panel.Point != nil && panel.Point.ID == p.ID {
			select {
			case done <- panel:
			default:
			}
		}
	})
	defer stop()
	s.Selection().Select(p)

	select {
	case panel := <-done:
		return panel, nil
	case <-ctx.Done():
		return selection.Panel{}, ctx.Err()
	}
}

func writeDetail(a *app, d *model.DetailRecord) {
	fmt.Fprintf(a.out, "%s\n", d.Title)
	if d.URL != "" {
		fmt.Fprintf(a.out, "%s\n", d.URL)
	}
	if d.Coordinates != nil {
		fmt.Fprintf(a.out, "Coordinates: %.5f, %.5f\n", d.Coordinates.Lat, d.Coordinates.Lon)
	}
	if d.Thumbnail != nil {
		fmt.Fprintf(a.out, "Thumbnail: %s (%dx%d)\n", d.Thumbnail.URL, d.Thumbnail.Width, d.Thumbnail.Height)
	}
	if d.Summary != "" {
		fmt.Fprintf(a.out, "\n%s\n", d.Summary)
	}
}
