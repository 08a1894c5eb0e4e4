// Package geo converts map click coordinates into the plane locations are
// stored in (web mercator, EPSG:3857).
package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"studyspots/internal/model"
)

const (
	WebMercator = "EPSG:3857"
	LonLat      = "EPSG:4326"
)

const earthRadius = 6378137.0

// maxLat is the latitude where web mercator y reaches the square's edge.
const maxLat = 85.05112877980659

// ToNative converts p, expressed in srs, into EPSG:3857. An empty srs is
// treated as already native.
func ToNative(p model.Coordinates, srs string) (model.Coordinates, error) {
	switch strings.ToUpper(strings.TrimSpace(srs)) {
	case "", WebMercator:
		return p, nil
	case LonLat:
		return FromLonLat(p[0], p[1]), nil
	default:
		return model.Coordinates{}, fmt.Errorf("unsupported projection %q", srs)
	}
}

func FromLonLat(lon, lat float64) model.Coordinates {
	lat = math.Max(-maxLat, math.Min(maxLat, lat))
	x := earthRadius * lon * math.Pi / 180
	y := earthRadius * math.Log(math.Tan(math.Pi/4+lat*math.Pi/360))
	return model.Coordinates{x, y}
}

func ToLonLat(p model.Coordinates) (lon, lat float64) {
	lon = p[0] / earthRadius * 180 / math.Pi
	lat = (2*math.Atan(math.Exp(p[1]/earthRadius)) - math.Pi/2) * 180 / math.Pi
	return lon, lat
}

// Format renders coordinates the way the add-location form shows them.
func Format(p model.Coordinates) string {
	return fmt.Sprintf("%.2f, %.2f", p[0], p[1])
}

// Parse reads "x, y". Both parts must be finite numbers.
func Parse(s string) (model.Coordinates, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return model.Coordinates{}, fmt.Errorf("want two comma separated numbers, got %d parts", len(parts))
	}
	var out model.Coordinates
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return model.Coordinates{}, fmt.Errorf("coordinate %d: %w", i+1, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return model.Coordinates{}, fmt.Errorf("coordinate %d is not finite", i+1)
		}
		out[i] = v
	}
	return out, nil
}
