package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/aqtracker/internal/core/domain"
	"github.com/samirrijal/aqtracker/internal/pkg/geospatial"
)

// nodata is written into pixels no scene covers.
const nodata = -9999

// RasterEngine implements ports.RasterEngine on PostGIS raster. Composites are
// never stored: a handle carries the query parameters and every sample or
// materialisation re-derives the mean from aq_scenes.
type RasterEngine struct {
	db *DB
}

// NewRasterEngine creates a new RasterEngine.
func NewRasterEngine(db *DB) *RasterEngine {
	return &RasterEngine{db: db}
}

// Composite counts the scenes that would contribute to the composite and
// returns a lazy handle for it.
func (e *RasterEngine) Composite(ctx context.Context, req domain.CompositeRequest) (*domain.RasterHandle, error) {
	if req.Region == nil {
		return nil, errors.New("composite: region is required")
	}
	clip, err := req.Region.GeoJSON()
	if err != nil {
		return nil, fmt.Errorf("encode region: %w", err)
	}

	var count int
	err = e.db.Pool.QueryRow(ctx, `
		SELECT count(*)
		FROM aq_scenes s
		WHERE s.collection = $1 AND s.band = $2
		  AND s.acquired_at >= $3 AND s.acquired_at < $4
		  AND ST_Intersects(ST_ConvexHull(s.rast), ST_SetSRID(ST_GeomFromGeoJSON($5), 4326))
	`, req.Collection, req.Band, req.Window.Start, req.Window.End, string(clip)).Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("count scenes: %w", err)
	}

	return &domain.RasterHandle{
		Key:        req.Key(),
		Collection: req.Collection,
		Band:       req.Band,
		Window:     req.Window,
		Region:     req.Region.Name,
		Bounds:     req.Region.Bounds,
		Clip:       clip,
		Reducer:    req.Reducer,
		SceneCount: count,
	}, nil
}

// SampleMean averages the composite over a scaleMeters square centred on at.
// Only pixels inside the region contribute.
func (e *RasterEngine) SampleMean(ctx context.Context, h *domain.RasterHandle, at domain.GeoPoint, scaleMeters float64) (*float64, error) {
	if h.Empty() {
		return nil, nil
	}
	minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(at.Lat, at.Lon, scaleMeters/2)

	var mean *float64
	err := e.db.Pool.QueryRow(ctx, `
		WITH region AS (
			SELECT ST_SetSRID(ST_GeomFromGeoJSON($5), 4326) AS geom
		), footprint AS (
			SELECT ST_Intersection(ST_MakeEnvelope($6, $7, $8, $9, 4326), region.geom) AS geom
			FROM region
		), clipped AS (
			SELECT ST_Clip(s.rast, 1, footprint.geom, true) AS rast
			FROM aq_scenes s, footprint
			WHERE s.collection = $1 AND s.band = $2
			  AND s.acquired_at >= $3 AND s.acquired_at < $4
			  AND NOT ST_IsEmpty(footprint.geom)
			  AND ST_Intersects(s.rast, footprint.geom)
		)
		SELECT (ST_SummaryStats(ST_Union(rast, 'MEAN'), 1, true)).mean
		FROM clipped
	`, h.Collection, h.Band, h.Window.Start, h.Window.End, string(h.Clip),
		minLon, minLat, maxLon, maxLat).Scan(&mean)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sample mean: %w", err)
	}
	return mean, nil
}

// Materialize renders the clipped composite as a single-band float GeoTIFF
// covering the region bounds. Uncovered pixels carry the nodata value.
func (e *RasterEngine) Materialize(ctx context.Context, h *domain.RasterHandle, scaleMeters float64) ([]byte, error) {
	width, height := h.Bounds.GridSize(scaleMeters)
	dLon := (h.Bounds.MaxLon - h.Bounds.MinLon) / float64(width)
	dLat := (h.Bounds.MaxLat - h.Bounds.MinLat) / float64(height)

	// The grid starts all-nodata, so every pixel is taken from the
	// composite through the nodata1 branch.
	var data []byte
	err := e.db.Pool.QueryRow(ctx, `
		WITH grid AS (
			SELECT ST_AddBand(
				ST_MakeEmptyRaster($6::integer, $7::integer,
					$8::double precision, $9::double precision,
					$10::double precision, $11::double precision, 0, 0, 4326),
				'32BF'::text, $12::double precision, $12::double precision
			) AS rast
		), region AS (
			SELECT ST_SetSRID(ST_GeomFromGeoJSON($5), 4326) AS geom
		), composite AS (
			SELECT ST_Union(ST_Clip(s.rast, 1, region.geom, true), 'MEAN') AS rast
			FROM aq_scenes s, region
			WHERE s.collection = $1 AND s.band = $2
			  AND s.acquired_at >= $3 AND s.acquired_at < $4
			  AND ST_Intersects(s.rast, region.geom)
		)
		SELECT ST_AsTIFF(
			CASE WHEN composite.rast IS NULL THEN grid.rast
			ELSE ST_MapAlgebra(grid.rast, 1, ST_Resample(composite.rast, grid.rast), 1,
				'[rast2]', '32BF', 'FIRST', '[rast2]', NULL, $12::double precision)
			END,
			'DEFLATE'
		)
		FROM grid, composite
	`, h.Collection, h.Band, h.Window.Start, h.Window.End, string(h.Clip),
		width, height, h.Bounds.MinLon, h.Bounds.MaxLat, dLon, -dLat, float64(nodata)).Scan(&data)
	if err != nil {
		return nil, fmt.Errorf("materialize %s: %w", h.Key, err)
	}
	return data, nil
}
