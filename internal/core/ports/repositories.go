package ports

import (
	"context"

	"github.com/samirrijal/aqtracker/internal/core/domain"
)

// RasterEngine is the geospatial engine the pipeline delegates to. Handles it
// returns are lazy; only Materialize produces pixels.
type RasterEngine interface {
	// Composite filters the collection to the window and band, reduces it
	// temporally and clips it to the region. A window with no scenes yields a
	// handle with SceneCount == 0, not an error.
	Composite(ctx context.Context, req domain.CompositeRequest) (*domain.RasterHandle, error)

	// SampleMean reduces the composite over the footprint of one pixel of
	// scaleMeters centred on at. It returns nil when there is no data.
	SampleMean(ctx context.Context, h *domain.RasterHandle, at domain.GeoPoint, scaleMeters float64) (*float64, error)

	// Materialize renders the composite as a GeoTIFF at scaleMeters.
	Materialize(ctx context.Context, h *domain.RasterHandle, scaleMeters float64) ([]byte, error)
}

// BoundarySource looks up a boundary polygon by attribute.
type BoundarySource interface {
	Boundary(ctx context.Context, filter domain.BoundaryFilter) (*domain.Region, error)
}

// BoundaryRepository persists boundaries in the local vector store.
type BoundaryRepository interface {
	BoundarySource
	Upsert(ctx context.Context, filter domain.BoundaryFilter, region *domain.Region) error
}

// SceneRepository persists source rasters.
type SceneRepository interface {
	Insert(ctx context.Context, scene *domain.Scene) error
	CountByCollection(ctx context.Context, collection, band string, window domain.TimeWindow) (int, error)
}

// ExportStore writes finished export files and returns where they went.
type ExportStore interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
}
