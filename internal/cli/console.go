package cli

import (
	"fmt"
	"io"
	"slices"
	"sync"

	"wikiroam/pkg/explorer"
	"wikiroam/pkg/model"
)

// console stands in for the map widget and the notice area on a terminal.
type console struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer

	points []model.Point
}

func newConsole(out, errOut io.Writer) *console {
	return &console{out: out, errOut: errOut}
}

func (c *console) RenderPoints(points []model.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.points = slices.Clone(points)
}

func (c *console) PanTo(target model.LatLon, zoom *float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if zoom != nil {
		fmt.Fprintf(c.out, "Panning to %.5f, %.5f (zoom %g)\n", target.Lat, target.Lon, *zoom)
		return
	}
	fmt.Fprintf(c.out, "Panning to %.5f, %.5f\n", target.Lat, target.Lon)
}

func (c *console) FlyTo(target model.LatLon, zoom float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "Flying to %.5f, %.5f (zoom %g)\n", target.Lat, target.Lon, zoom)
}

func (c *console) Notify(level explorer.NoticeLevel, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.errOut, "[%s] %s\n", level, msg)
}

// Points returns the last rendered point set.
func (c *console) Points() []model.Point {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.points)
}
