package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/aqtracker/internal/core/domain"
)

// BoundaryRepo implements ports.BoundaryRepository on the aq_boundaries table.
type BoundaryRepo struct {
	db *DB
}

// NewBoundaryRepo creates a new BoundaryRepo.
func NewBoundaryRepo(db *DB) *BoundaryRepo {
	return &BoundaryRepo{db: db}
}

// Boundary loads the boundary whose attribute equals value.
func (r *BoundaryRepo) Boundary(ctx context.Context, filter domain.BoundaryFilter) (*domain.Region, error) {
	var name, geojson string
	err := r.db.Pool.QueryRow(ctx, `
		SELECT name, ST_AsGeoJSON(geom)
		FROM aq_boundaries
		WHERE attribute = $1 AND value = $2
	`, filter.Attribute, filter.Value).Scan(&name, &geojson)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s = %s", domain.ErrRegionNotFound, filter.Attribute, filter.Value)
	}
	if err != nil {
		return nil, fmt.Errorf("load boundary: %w", err)
	}
	return domain.ParseGeoJSONRegion(name, []byte(geojson))
}

// Upsert stores region under filter, replacing any previous geometry.
func (r *BoundaryRepo) Upsert(ctx context.Context, filter domain.BoundaryFilter, region *domain.Region) error {
	geojson, err := region.GeoJSON()
	if err != nil {
		return fmt.Errorf("encode boundary: %w", err)
	}
	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO aq_boundaries (attribute, value, name, geom)
		VALUES ($1, $2, $3, ST_Multi(ST_MakeValid(ST_SetSRID(ST_GeomFromGeoJSON($4), 4326))))
		ON CONFLICT (attribute, value) DO UPDATE
		SET name = EXCLUDED.name, geom = EXCLUDED.geom, updated_at = now()
	`, filter.Attribute, filter.Value, region.Name, string(geojson))
	return err
}
