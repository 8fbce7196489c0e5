package domain

import (
	"encoding/json"
	"fmt"

	"github.com/samirrijal/aqtracker/internal/pkg/geospatial"
)

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// GridSize returns the pixel dimensions of the box at scaleMeters resolution.
func (b Bounds) GridSize(scaleMeters float64) (width, height int) {
	return geospatial.GridSize(b.MinLat, b.MinLon, b.MaxLat, b.MaxLon, scaleMeters)
}

// Ring is a closed sequence of coordinates.
type Ring []GeoPoint

// Polygon is an outer ring followed by zero or more holes.
type Polygon []Ring

// Region is a political boundary used to clip rasters. It is loaded once and
// shared read-only.
type Region struct {
	Name     string    `json:"name"`
	Polygons []Polygon `json:"-"`
	Bounds   Bounds    `json:"bounds"`
}

// NewRegion builds a region and computes its bounding box.
func NewRegion(name string, polygons []Polygon) (*Region, error) {
	first := true
	var b Bounds
	for _, poly := range polygons {
		if len(poly) == 0 {
			continue
		}
		for _, p := range poly[0] {
			if first {
				b = Bounds{MinLat: p.Lat, MinLon: p.Lon, MaxLat: p.Lat, MaxLon: p.Lon}
				first = false
				continue
			}
			b.MinLat = min(b.MinLat, p.Lat)
			b.MinLon = min(b.MinLon, p.Lon)
			b.MaxLat = max(b.MaxLat, p.Lat)
			b.MaxLon = max(b.MaxLon, p.Lon)
		}
	}
	if first {
		return nil, fmt.Errorf("region %q has no coordinates", name)
	}
	return &Region{Name: name, Polygons: polygons, Bounds: b}, nil
}

// Contains reports whether p lies inside the region (inside an outer ring and
// outside all of that polygon's holes).
func (r *Region) Contains(p GeoPoint) bool {
	if p.Lat < r.Bounds.MinLat || p.Lat > r.Bounds.MaxLat ||
		p.Lon < r.Bounds.MinLon || p.Lon > r.Bounds.MaxLon {
		return false
	}
	for _, poly := range r.Polygons {
		if len(poly) == 0 || !geospatial.PointInRing(p.Lon, p.Lat, ringCoords(poly[0])) {
			continue
		}
		inHole := false
		for _, hole := range poly[1:] {
			if geospatial.PointInRing(p.Lon, p.Lat, ringCoords(hole)) {
				inHole = true
				break
			}
		}
		if !inHole {
			return true
		}
	}
	return false
}

// Vertices returns the total number of coordinates across all rings.
func (r *Region) Vertices() int {
	n := 0
	for _, poly := range r.Polygons {
		for _, ring := range poly {
			n += len(ring)
		}
	}
	return n
}

func ringCoords(r Ring) [][2]float64 {
	out := make([][2]float64, len(r))
	for i, p := range r {
		out[i] = [2]float64{p.Lon, p.Lat}
	}
	return out
}

type geoJSONGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// GeoJSON encodes the region as a GeoJSON MultiPolygon geometry.
func (r *Region) GeoJSON() ([]byte, error) {
	coords := make([][][][2]float64, len(r.Polygons))
	for i, poly := range r.Polygons {
		rings := make([][][2]float64, len(poly))
		for j, ring := range poly {
			rings[j] = ringCoords(ring)
		}
		coords[i] = rings
	}
	raw, err := json.Marshal(coords)
	if err != nil {
		return nil, err
	}
	return json.Marshal(geoJSONGeometry{Type: "MultiPolygon", Coordinates: raw})
}

// ParseGeoJSONRegion decodes a Polygon or MultiPolygon geometry.
func ParseGeoJSONRegion(name string, data []byte) (*Region, error) {
	var g geoJSONGeometry
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("decode geometry: %w", err)
	}

	var multi [][][][2]float64
	switch g.Type {
	case "Polygon":
		var poly [][][2]float64
		if err := json.Unmarshal(g.Coordinates, &poly); err != nil {
			return nil, fmt.Errorf("decode polygon: %w", err)
		}
		multi = [][][][2]float64{poly}
	case "MultiPolygon":
		if err := json.Unmarshal(g.Coordinates, &multi); err != nil {
			return nil, fmt.Errorf("decode multipolygon: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported geometry type %q", g.Type)
	}

	polygons := make([]Polygon, 0, len(multi))
	for _, poly := range multi {
		p := make(Polygon, 0, len(poly))
		for _, ring := range poly {
			r := make(Ring, len(ring))
			for i, c := range ring {
				r[i] = GeoPoint{Lon: c[0], Lat: c[1]}
			}
			p = append(p, r)
		}
		polygons = append(polygons, p)
	}
	return NewRegion(name, polygons)
}

// BoundaryFilter selects a boundary by attribute, e.g. country_na = Jordan.
type BoundaryFilter struct {
	Attribute string `json:"attribute"`
	Value     string `json:"value"`
}

// SampleLocation is a named point at which regional means are reported.
type SampleLocation struct {
	Name     string   `json:"name"`
	Location GeoPoint `json:"location"`
}

var sampleLocations = []SampleLocation{
	{Name: "Irbid", Location: GeoPoint{Lon: 35.85, Lat: 32.55}},
	{Name: "Amman", Location: GeoPoint{Lon: 35.92, Lat: 31.95}},
	{Name: "Zarqa", Location: GeoPoint{Lon: 36.10, Lat: 32.06}},
	{Name: "Aqaba", Location: GeoPoint{Lon: 35.00, Lat: 29.53}},
	{Name: "Mafraq", Location: GeoPoint{Lon: 36.24, Lat: 32.34}},
}

// SampleLocations returns the fixed city list in reporting order.
func SampleLocations() []SampleLocation {
	out := make([]SampleLocation, len(sampleLocations))
	copy(out, sampleLocations)
	return out
}
