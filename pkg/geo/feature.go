package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Marker is anything that can be drawn as a point feature.
type Marker struct {
	ID    int64
	Title string
	Lat   float64
	Lon   float64
	Props map[string]any
}

// FeatureCollection renders markers as GeoJSON points with normalized longitudes.
func FeatureCollection(markers []Marker) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, m := range markers {
		f := geojson.NewFeature(orb.Point{NormalizeLon(m.Lon), m.Lat})
		f.ID = m.ID
		f.Properties["title"] = m.Title
		for k, v := range m.Props {
			f.Properties[k] = v
		}
		fc.Append(f)
	}
	return fc
}
