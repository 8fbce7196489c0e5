package domain

import (
	"testing"
)

func square(minLon, minLat, maxLon, maxLat float64) Ring {
	return Ring{
		{Lon: minLon, Lat: minLat},
		{Lon: maxLon, Lat: minLat},
		{Lon: maxLon, Lat: maxLat},
		{Lon: minLon, Lat: maxLat},
		{Lon: minLon, Lat: minLat},
	}
}

func TestNewRegion_Bounds(t *testing.T) {
	r, err := NewRegion("Test", []Polygon{
		{square(35, 29, 36, 30)},
		{square(37, 31, 39, 33)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Bounds{MinLat: 29, MinLon: 35, MaxLat: 33, MaxLon: 39}
	if r.Bounds != want {
		t.Errorf("expected %+v, got %+v", want, r.Bounds)
	}
	if r.Vertices() != 10 {
		t.Errorf("expected 10 vertices, got %d", r.Vertices())
	}
}

func TestNewRegion_Empty(t *testing.T) {
	if _, err := NewRegion("Nowhere", nil); err == nil {
		t.Error("expected error for region without coordinates")
	}
}

func TestRegion_Contains(t *testing.T) {
	r, _ := NewRegion("Donut", []Polygon{
		{square(30, 30, 40, 40), square(34, 34, 36, 36)},
	})

	tests := []struct {
		name string
		p    GeoPoint
		want bool
	}{
		{"inside", GeoPoint{Lat: 31, Lon: 31}, true},
		{"in hole", GeoPoint{Lat: 35, Lon: 35}, false},
		{"outside bbox", GeoPoint{Lat: 45, Lon: 35}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Contains(tt.p); got != tt.want {
				t.Errorf("Contains(%+v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestRegion_ContainsSampleLocations(t *testing.T) {
	r, _ := NewRegion("Jordan", []Polygon{{square(34.9, 29.1, 39.3, 33.4)}})
	for _, loc := range SampleLocations() {
		if !r.Contains(loc.Location) {
			t.Errorf("%s should be inside the Jordan box", loc.Name)
		}
	}
}

func TestParseGeoJSONRegion(t *testing.T) {
	polygon := `{"type":"Polygon","coordinates":[[[35,29],[36,29],[36,30],[35,30],[35,29]]]}`
	r, err := ParseGeoJSONRegion("P", []byte(polygon))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Polygons) != 1 || !r.Contains(GeoPoint{Lat: 29.5, Lon: 35.5}) {
		t.Errorf("unexpected region %+v", r)
	}

	data, err := r.GeoJSON()
	if err != nil {
		t.Fatal(err)
	}
	again, err := ParseGeoJSONRegion("P", data)
	if err != nil {
		t.Fatalf("re-parse MultiPolygon: %v", err)
	}
	if again.Bounds != r.Bounds {
		t.Errorf("bounds changed: %+v vs %+v", again.Bounds, r.Bounds)
	}

	if _, err := ParseGeoJSONRegion("X", []byte(`{"type":"Point","coordinates":[1,2]}`)); err == nil {
		t.Error("expected error for Point geometry")
	}
}

func TestSampleLocations(t *testing.T) {
	want := []string{"Irbid", "Amman", "Zarqa", "Aqaba", "Mafraq"}
	locs := SampleLocations()
	for i, name := range want {
		if locs[i].Name != name {
			t.Errorf("position %d: expected %s, got %s", i, name, locs[i].Name)
		}
	}
	locs[0].Name = "changed"
	if SampleLocations()[0].Name != "Irbid" {
		t.Error("fixed list was mutated")
	}
}
