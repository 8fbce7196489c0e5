package overpass

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/serjvanilla/go-overpass"

	"github.com/samirrijal/aqtracker/internal/core/domain"
)

// attributeTags maps boundary attributes used by the vector store onto the
// OSM tags that carry the same information.
var attributeTags = map[string]string{
	"country_na": "name:en",
	"country_co": "ISO3166-1:alpha2",
}

// BoundarySource implements ports.BoundarySource against an Overpass API
// endpoint. Country boundaries are admin_level=2 relations whose outer ways
// are stitched into rings.
type BoundarySource struct {
	client  overpass.Client
	timeout time.Duration
}

// NewBoundarySource creates a new BoundarySource.
func NewBoundarySource(endpoint string, timeout time.Duration) *BoundarySource {
	httpClient := &http.Client{Timeout: timeout}
	return &BoundarySource{
		client:  overpass.NewWithSettings(endpoint, 2, httpClient),
		timeout: timeout,
	}
}

// Boundary fetches the relation matching filter and converts it to a region.
func (s *BoundarySource) Boundary(ctx context.Context, filter domain.BoundaryFilter) (*domain.Region, error) {
	tag, ok := attributeTags[filter.Attribute]
	if !ok {
		tag = filter.Attribute
	}
	query := fmt.Sprintf(`
		[out:json][timeout:%d];
		relation["boundary"="administrative"]["admin_level"="2"][%q=%q];
		out body;
		>;
		out skel qt;
	`, int(s.timeout.Seconds()), tag, filter.Value)

	result, err := s.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("overpass boundary %s: %w", filter.Value, err)
	}

	for _, rel := range result.Relations {
		var outer, inner [][]domain.GeoPoint
		for _, m := range rel.Members {
			if m.Type != overpass.ElementTypeWay || m.Way == nil {
				continue
			}
			line := make([]domain.GeoPoint, 0, len(m.Way.Nodes))
			for _, n := range m.Way.Nodes {
				if n == nil {
					continue
				}
				line = append(line, domain.GeoPoint{Lat: n.Lat, Lon: n.Lon})
			}
			switch m.Role {
			case "inner":
				inner = append(inner, line)
			default:
				outer = append(outer, line)
			}
		}

		polygons := assemblePolygons(StitchRings(outer), StitchRings(inner))
		if len(polygons) == 0 {
			continue
		}
		name := filter.Value
		if n, ok := rel.Tags["name:en"]; ok && n != "" {
			name = n
		}
		slog.InfoContext(ctx, "boundary loaded from overpass",
			"relation", rel.ID, "name", name, "polygons", len(polygons))
		return domain.NewRegion(name, polygons)
	}

	return nil, fmt.Errorf("%w: %s = %s", domain.ErrRegionNotFound, filter.Attribute, filter.Value)
}

func (s *BoundarySource) query(ctx context.Context, q string) (overpass.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type reply struct {
		res overpass.Result
		err error
	}
	ch := make(chan reply, 1)
	go func() {
		res, err := s.client.Query(q)
		ch <- reply{res, err}
	}()

	select {
	case r := <-ch:
		return r.res, r.err
	case <-ctx.Done():
		return overpass.Result{}, ctx.Err()
	}
}

// StitchRings joins way segments sharing endpoints into closed rings.
// Segments that cannot be closed are dropped.
func StitchRings(segments [][]domain.GeoPoint) []domain.Ring {
	pending := make([][]domain.GeoPoint, 0, len(segments))
	for _, s := range segments {
		if len(s) >= 2 {
			pending = append(pending, s)
		}
	}

	var rings []domain.Ring
	for len(pending) > 0 {
		cur := append([]domain.GeoPoint(nil), pending[0]...)
		pending = pending[1:]

		for !closed(cur) {
			tail := cur[len(cur)-1]
			found := false
			for i, seg := range pending {
				switch {
				case seg[0] == tail:
					cur = append(cur, seg[1:]...)
				case seg[len(seg)-1] == tail:
					for j := len(seg) - 2; j >= 0; j-- {
						cur = append(cur, seg[j])
					}
				default:
					continue
				}
				pending = append(pending[:i], pending[i+1:]...)
				found = true
				break
			}
			if !found {
				break
			}
		}

		if closed(cur) && len(cur) >= 4 {
			rings = append(rings, domain.Ring(cur))
		}
	}
	return rings
}

func closed(r []domain.GeoPoint) bool {
	return len(r) > 1 && r[0] == r[len(r)-1]
}

// assemblePolygons attaches each hole to the first outer ring containing it.
func assemblePolygons(outers, inners []domain.Ring) []domain.Polygon {
	polygons := make([]domain.Polygon, len(outers))
	for i, o := range outers {
		polygons[i] = domain.Polygon{o}
	}
	for _, hole := range inners {
		for i, o := range outers {
			single, err := domain.NewRegion("", []domain.Polygon{{o}})
			if err == nil && single.Contains(hole[0]) {
				polygons[i] = append(polygons[i], hole)
				break
			}
		}
	}
	return polygons
}
