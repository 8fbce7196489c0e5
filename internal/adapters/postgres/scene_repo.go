package postgres

import (
	"context"
	"fmt"

	"github.com/samirrijal/aqtracker/internal/core/domain"
)

// SceneRepo implements ports.SceneRepository.
type SceneRepo struct {
	db *DB
}

// NewSceneRepo creates a new SceneRepo.
func NewSceneRepo(db *DB) *SceneRepo {
	return &SceneRepo{db: db}
}

// Insert stores a GeoTIFF scene in-row. Re-ingesting the same acquisition
// replaces its pixels.
func (r *SceneRepo) Insert(ctx context.Context, s *domain.Scene) error {
	if len(s.GeoTIFF) == 0 {
		return fmt.Errorf("scene %s/%s: empty raster", s.Collection, s.Band)
	}
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO aq_scenes (collection, band, acquired_at, source, rast)
		VALUES ($1, $2, $3, $4, ST_SetSRID(ST_FromGDALRaster($5), 4326))
		ON CONFLICT (collection, band, acquired_at, source) DO UPDATE
		SET rast = EXCLUDED.rast
		RETURNING id
	`, s.Collection, s.Band, s.AcquiredAt.UTC(), s.Source, s.GeoTIFF).Scan(&s.ID)
}

// CountByCollection returns how many scenes fall inside window.
func (r *SceneRepo) CountByCollection(ctx context.Context, collection, band string, window domain.TimeWindow) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `
		SELECT count(*) FROM aq_scenes
		WHERE collection = $1 AND band = $2 AND acquired_at >= $3 AND acquired_at < $4
	`, collection, band, window.Start, window.End).Scan(&n)
	return n, err
}
