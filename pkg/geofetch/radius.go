package geofetch

import "wikiroam/pkg/geo"

// ComputeRadius returns the search radius for a viewport: half the
// great-circle diagonal of its bounds, clamped to [minR, maxR] meters.
func ComputeRadius(b geo.Bounds, minR, maxR float64) float64 {
	return ClampRadius(b.HalfDiagonal(), minR, maxR)
}

// ClampRadius limits r to [minR, maxR].
func ClampRadius(r, minR, maxR float64) float64 {
	if r < minR {
		return minR
	}
	if r > maxR {
		return maxR
	}
	return r
}
