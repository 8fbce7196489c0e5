package overpass

import (
	"testing"

	"github.com/samirrijal/aqtracker/internal/core/domain"
)

func pt(lon, lat float64) domain.GeoPoint {
	return domain.GeoPoint{Lon: lon, Lat: lat}
}

func TestStitchRings(t *testing.T) {
	// A square split into three ways, the middle one reversed.
	segments := [][]domain.GeoPoint{
		{pt(0, 0), pt(1, 0)},
		{pt(1, 1), pt(1, 0)},
		{pt(1, 1), pt(0, 1), pt(0, 0)},
	}

	rings := StitchRings(segments)
	if len(rings) != 1 {
		t.Fatalf("expected 1 ring, got %d", len(rings))
	}
	r := rings[0]
	if len(r) != 5 || r[0] != r[len(r)-1] {
		t.Errorf("expected closed 5-point ring, got %v", r)
	}
}

func TestStitchRings_DropsOpen(t *testing.T) {
	segments := [][]domain.GeoPoint{
		{pt(0, 0), pt(1, 0)},
		{pt(5, 5), pt(6, 5)},
		{pt(10, 10), pt(11, 10), pt(11, 11), pt(10, 10)},
	}
	rings := StitchRings(segments)
	if len(rings) != 1 {
		t.Fatalf("expected only the closed ring, got %d", len(rings))
	}
	if rings[0][0] != pt(10, 10) {
		t.Errorf("unexpected ring %v", rings[0])
	}
}

func TestAssemblePolygons(t *testing.T) {
	outers := []domain.Ring{
		{pt(0, 0), pt(10, 0), pt(10, 10), pt(0, 10), pt(0, 0)},
		{pt(20, 20), pt(21, 20), pt(21, 21), pt(20, 20)},
	}
	inners := []domain.Ring{
		{pt(4, 4), pt(6, 4), pt(6, 6), pt(4, 6), pt(4, 4)},
	}

	polys := assemblePolygons(outers, inners)
	if len(polys) != 2 {
		t.Fatalf("expected 2 polygons, got %d", len(polys))
	}
	if len(polys[0]) != 2 || len(polys[1]) != 1 {
		t.Errorf("hole attached to the wrong polygon: %d / %d rings", len(polys[0]), len(polys[1]))
	}

	region, err := domain.NewRegion("R", polys)
	if err != nil {
		t.Fatal(err)
	}
	if region.Contains(pt(5, 5)) {
		t.Error("point in hole must be outside")
	}
	if !region.Contains(pt(2, 2)) {
		t.Error("point in outer ring must be inside")
	}
}
