// Package geo holds the small amount of spherical geometry the map needs.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/project"
)

// NormalizeLon wraps a longitude into [-180, 180). A map that has been
// panned across the antimeridian reports values like 190 or -200.
func NormalizeLon(lon float64) float64 {
	if lon >= -180 && lon < 180 {
		return lon
	}
	l := math.Mod(lon+180, 360)
	if l < 0 {
		l += 360
	}
	return l - 180
}

// ClampLat limits a latitude to [-90, 90].
func ClampLat(lat float64) float64 {
	return math.Max(-90, math.Min(90, lat))
}

// Distance returns the haversine distance between two coordinates in meters.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	return geo.DistanceHaversine(orb.Point{lon1, lat1}, orb.Point{lon2, lat2})
}

// Bounds is the visible map rectangle as reported by the widget. West and
// East are not normalized; East may exceed 180 when the view straddles the
// antimeridian.
type Bounds struct {
	South float64
	West  float64
	North float64
	East  float64
}

// NewBounds builds Bounds from the south-west and north-east corners.
func NewBounds(south, west, north, east float64) Bounds {
	return Bounds{South: south, West: west, North: north, East: east}
}

// Width returns the longitudinal span in degrees, in (0, 360].
func (b Bounds) Width() float64 {
	w := b.East - b.West
	if w < 0 {
		// normalized corners crossing the antimeridian
		w += 360
	}
	return math.Min(w, 360)
}

// Bound returns the rectangle as an orb.Bound anchored at West, unwrapped.
func (b Bounds) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.West, b.South},
		Max: orb.Point{b.West + b.Width(), b.North},
	}
}

// Center returns the middle of the rectangle with a normalized longitude.
func (b Bounds) Center() (lat, lon float64) {
	c := b.Bound().Center()
	return c.Lat(), NormalizeLon(c.Lon())
}

// Contains reports whether the coordinate is inside the rectangle, matching
// every world copy of the longitude.
func (b Bounds) Contains(lat, lon float64) bool {
	bound := b.Bound()
	if b.Width() >= 360 {
		return lat >= bound.Min.Lat() && lat <= bound.Max.Lat()
	}
	// shift lon into [West, West+360)
	shifted := b.West + math.Mod(math.Mod(lon-b.West, 360)+360, 360)
	return bound.Contains(orb.Point{shifted, lat})
}

// HalfDiagonal returns half the great-circle distance between the south-west
// and north-east corners, in meters.
func (b Bounds) HalfDiagonal() float64 {
	sw := orb.Point{NormalizeLon(b.West), b.South}
	ne := orb.Point{NormalizeLon(b.West + b.Width()), b.North}
	return geo.DistanceHaversine(sw, ne) / 2
}

// tileSize is the edge of a web map tile in pixels.
const tileSize = 256

// ViewBounds returns the rectangle a web-mercator map of width x height
// pixels shows when centered on lat/lon at zoom.
func ViewBounds(lat, lon, zoom float64, width, height int) Bounds {
	// meters per pixel at the equator of the projected plane
	mpp := 2 * math.Pi * orb.EarthRadius / (tileSize * math.Exp2(zoom))
	c := project.WGS84.ToMercator(orb.Point{lon, ClampLat(lat)})
	halfW := float64(width) / 2 * mpp
	halfH := float64(height) / 2 * mpp

	sw := project.Mercator.ToWGS84(orb.Point{c.X() - halfW, c.Y() - halfH})
	ne := project.Mercator.ToWGS84(orb.Point{c.X() + halfW, c.Y() + halfH})
	return NewBounds(sw.Lat(), sw.Lon(), ne.Lat(), ne.Lon())
}
