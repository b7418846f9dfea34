package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	"wikiroam/pkg/bookmarks"
	"wikiroam/pkg/explorer"
	"wikiroam/pkg/model"
)

// Execute implements goflags.Commander.
func (c *BookmarkToggleCommand) Execute(args []string) error {
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

func (c *BookmarkToggleCommand) run(ctx context.Context, a *app) error {
	con := newConsole(a.out, a.errOut)
	s := a.newSession(con)
	defer s.Close()
	s.Start(ctx)

	p, err := bookmarkTarget(ctx, s, c.ID)
	if err != nil {
		return err
	}

	switch s.ToggleBookmark(ctx, p) {
	case bookmarks.LimitReached:
		return fmt.Errorf("bookmark limit of %d reached", a.cfg.Bookmarks.Max)
	default:
		fmt.Fprintf(a.out, "%d bookmarks\n", s.Bookmarks().Count())
		return nil
	}
}

// bookmarkTarget resolves id to a point. Saved bookmarks are used as is so
// they can be removed even when the article is gone.
func bookmarkTarget(ctx context.Context, s *explorer.Session, id int64) (model.Point, error) {
	for _, b := range s.Bookmarks().List() {
		if b.ID == id {
			return model.Point{ID: b.ID, Title: b.Title, Lat: b.Lat, Lon: b.Lon}, nil
		}
	}

	panel, err := awaitDetail(ctx, s, model.Point{ID: id})
	if err != nil {
		return model.Point{}, err
	}
	d := panel.Detail
	if d == nil {
		return model.Point{}, fmt.Errorf("no details for page ID %d, the article is missing or unavailable", id)
	}
	if d.Coordinates == nil {
		return model.Point{}, fmt.Errorf("%q has no coordinates", d.Title)
	}
	return model.Point{ID: d.ID, Title: d.Title, Lat: d.Coordinates.Lat, Lon: d.Coordinates.Lon}, nil
}

// Execute implements goflags.Commander.
func (c *BookmarkListCommand) Execute(args []string) error {
	return withApp(c.globals, c.run)
}

func (c *BookmarkListCommand) run(ctx context.Context, a *app) error {
	store := bookmarks.New(a.store, a.cfg.Bookmarks)
	store.Load(ctx)
	items := store.List()

	if c.JSON {
		if items == nil {
			items = []model.Bookmark{}
		}
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	if len(items) == 0 {
		fmt.Fprintln(a.out, "No bookmarks yet.")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tLAT\tLON\tSAVED")
	for _, b := range items {
		fmt.Fprintf(tw, "%d\t%s\t%.5f\t%.5f\t%s\n", b.ID, truncate(b.Title, 48), b.Lat, b.Lon, b.SavedAt.Local().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
