package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"wikiroam/pkg/explorer"
	"wikiroam/pkg/geo"
	"wikiroam/pkg/geofetch"
	"wikiroam/pkg/model"
)

// errSearchFailed is returned when a nearby search ended without a result.
var errSearchFailed = errors.New("nearby search failed, see the log for details")

// Execute implements goflags.Commander.
func (c *NearbyCommand) Execute(args []string) error {
	return withApp(c.globals, c.run)
}

func (c *NearbyCommand) run(ctx context.Context, a *app) error {
	con := newConsole(a.out, a.errOut)
	s := a.newSession(con)
	defer s.Close()
	s.Start(ctx)

	v := viewportAt(c.Lat, c.Lon, c.Zoom, c.Width, c.Height)
	st, err := awaitPoints(ctx, s, v)
	if err != nil {
		return err
	}
	if st.IsScanDisabled {
		fmt.Fprintf(a.out, "Zoom %g is below the minimum of %g, zoom in to see articles.\n", c.Zoom, a.cfg.Map.MinZoom)
		return nil
	}

	points := con.Points()
	if c.GeoJSON {
		return writeGeoJSON(a.out, points)
	}
	writePoints(a.out, points)
	fmt.Fprintf(a.out, "%d articles, %d in view\n", len(points), st.VisibleCount)
	return nil
}

// viewportAt builds the viewport a widget of the given pixel size would
// report when centered on lat/lon.
func viewportAt(lat, lon, zoom float64, width, height int) model.Viewport {
	return model.Viewport{
		Center: model.LatLon{Lat: lat, Lon: lon},
		Bounds: geo.ViewBounds(lat, lon, zoom, width, height),
		Zoom:   zoom,
	}
}

// awaitPoints moves the session's map to v, skips the debounce and waits
// until the resulting search has settled.
func awaitPoints(ctx context.Context, s *explorer.Session, v model.Viewport) (geofetch.State, error) {
	done := make(chan geofetch.State, 1)
	started := false
	// runs under the coordinator lock
	stop := s.Coordinator().OnChange(func(st geofetch.State) {
		switch {
		case st.IsLoading:
			started = true
			return
		case st.IsScanDisabled, started:
			select {
			case done <- st:
			default:
			}
		}
	})
	defer stop()

	before := s.Coordinator().State().Revision
	s.ViewportChanged(v)
	s.Coordinator().TriggerImmediateFetch()

	select {
	case st := <-done:
		if !st.IsScanDisabled && st.Revision == before {
			return st, errSearchFailed
		}
		return st, nil
	case <-ctx.Done():
		return geofetch.State{}, ctx.Err()
	}
}

func writePoints(w io.Writer, points []model.Point) {
	sorted := make([]model.Point, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return distOf(sorted[i]) < distOf(sorted[j])
	})

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tLAT\tLON\tDIST")
	for _, p := range sorted {
		dist := "-"
		if p.Dist != nil {
			dist = formatDistance(*p.Dist)
		}
		fmt.Fprintf(tw, "%d\t%s\t%.5f\t%.5f\t%s\n", p.ID, truncate(p.Title, 48), p.Lat, p.Lon, dist)
	}
	tw.Flush()
}

func writeGeoJSON(w io.Writer, points []model.Point) error {
	markers := make([]geo.Marker, 0, len(points))
	for _, p := range points {
		m := geo.Marker{ID: p.ID, Title: p.Title, Lat: p.Lat, Lon: p.Lon}
		if p.Dist != nil {
			m.Props = map[string]any{"dist": *p.Dist}
		}
		markers = append(markers, m)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(geo.FeatureCollection(markers))
}

func distOf(p model.Point) float64 {
	if p.Dist == nil {
		return 1e12
	}
	return *p.Dist
}

func formatDistance(m float64) string {
	if m < 1000 {
		return fmt.Sprintf("%.0f m", m)
	}
	return fmt.Sprintf("%.1f km", m/1000)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n-1])) + "…"
}
