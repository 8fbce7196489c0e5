package geospatial

import "math"

const (
	earthRadiusMeters  = 6371008.8
	metersPerDegreeLat = 110574.0
	metersPerDegreeLon = 111320.0
)

// Haversine returns the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	sinLat, sinLon := math.Sin(dLat/2), math.Sin(dLon/2)
	a := sinLat*sinLat + math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*sinLon*sinLon
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(a)))
}

// MetersToDegrees converts a ground distance to an approximate angular size
// at the given latitude, returning the longitude and latitude spans.
func MetersToDegrees(meters, lat float64) (dLon, dLat float64) {
	return meters / (metersPerDegreeLon * math.Cos(toRad(lat))), meters / metersPerDegreeLat
}

// BoundingBox returns the box of half-width radiusMeters centred on a point.
// It is the footprint of one sample pixel.
func BoundingBox(lat, lon, radiusMeters float64) (minLat, minLon, maxLat, maxLon float64) {
	dLon, dLat := MetersToDegrees(radiusMeters, lat)
	return lat - dLat, lon - dLon, lat + dLat, lon + dLon
}

// GridSize returns how many pixels of scaleMeters cover the box. Sides are
// measured along the middle parallel and the western meridian; each side is
// at least one pixel.
func GridSize(minLat, minLon, maxLat, maxLon, scaleMeters float64) (width, height int) {
	if scaleMeters <= 0 {
		return 0, 0
	}
	midLat := (minLat + maxLat) / 2
	w := Haversine(midLat, minLon, midLat, maxLon) / scaleMeters
	h := Haversine(minLat, minLon, maxLat, minLon) / scaleMeters
	return max(1, int(math.Ceil(w))), max(1, int(math.Ceil(h)))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
