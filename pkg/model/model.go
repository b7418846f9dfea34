// Package model holds the data shared by the map client components.
package model

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"wikiroam/pkg/geo"
)

// Point is a nearby article with coordinates, as returned by a geosearch.
// Lon may lie outside [-180, 180) when the map has wrapped.
type Point struct {
	ID    int64    `json:"pageid"`
	Title string   `json:"title"`
	Lat   float64  `json:"lat"`
	Lon   float64  `json:"lon"`
	Dist  *float64 `json:"dist,omitempty"` // meters from the query center
}

// LatLon is a bare coordinate pair.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Thumbnail is the lead image of an article.
type Thumbnail struct {
	URL    string `json:"source"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// DetailRecord is the summary shown in hover previews and the details panel.
type DetailRecord struct {
	ID          int64      `json:"pageid"`
	Title       string     `json:"title"`
	Summary     string     `json:"summary"`
	Thumbnail   *Thumbnail `json:"thumbnail,omitempty"`
	Coordinates *LatLon    `json:"coordinates,omitempty"`
	URL         string     `json:"url"`
}

// Viewport is what the map widget reports after a pan or zoom.
type Viewport struct {
	Center LatLon
	Bounds geo.Bounds
	Zoom   float64
}

// DefaultKeyPrecision is the number of decimals kept in a fetch key.
// Three decimals is roughly 100 m of latitude.
const DefaultKeyPrecision = 3

// ViewportQuery is one nearby search request.
type ViewportQuery struct {
	Lat    float64
	Lon    float64
	Radius float64 // meters
	Locale string
}

// Key identifies the query for deduplication.
func (q ViewportQuery) Key() string {
	return q.KeyWithPrecision(DefaultKeyPrecision)
}

// KeyWithPrecision builds the key with the given number of coordinate decimals.
// The longitude is normalized first so world copies of a view share a key.
func (q ViewportQuery) KeyWithPrecision(decimals int) string {
	lon := geo.NormalizeLon(q.Lon)
	return fmt.Sprintf("%s|%s|%d|%s",
		strconv.FormatFloat(roundTo(q.Lat, decimals), 'f', decimals, 64),
		strconv.FormatFloat(roundTo(lon, decimals), 'f', decimals, 64),
		int64(math.Round(q.Radius)),
		q.Locale,
	)
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	r := math.Round(v*p) / p
	if r == 0 {
		return 0 // no "-0.000"
	}
	return r
}

// Bookmark is a saved article.
type Bookmark struct {
	ID      int64     `json:"pageid"`
	Title   string    `json:"title"`
	Lat     float64   `json:"lat"`
	Lon     float64   `json:"lon"`
	SavedAt time.Time `json:"saved_at"`
}

// SearchHit is the first geotagged result of a name search.
type SearchHit struct {
	Title string  `json:"title"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}

// Image is one gallery entry of an article.
type Image struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ScreenPos is the cursor position used to anchor a hover popup.
type ScreenPos struct {
	X float64
	Y float64
}

// Location is a discovery destination.
type Location struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Zoom float64 `json:"zoom"`
}
