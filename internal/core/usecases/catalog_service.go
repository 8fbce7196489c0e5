package usecases

import (
	"github.com/samirrijal/aqtracker/internal/core/domain"
)

// CatalogService exposes the static reference data.
type CatalogService struct {
	region *domain.Region
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(region *domain.Region) *CatalogService {
	return &CatalogService{region: region}
}

// Pollutants returns all supported pollutants in selector order.
func (s *CatalogService) Pollutants() []domain.PollutantConfig {
	return domain.Pollutants()
}

// Pollutant returns one pollutant by ID or display name.
func (s *CatalogService) Pollutant(id string) (domain.PollutantConfig, error) {
	return domain.LookupPollutant(id)
}

// Locations returns the sample locations in reporting order.
func (s *CatalogService) Locations() []domain.SampleLocation {
	return domain.SampleLocations()
}

// Region returns the loaded region of interest.
func (s *CatalogService) Region() *domain.Region {
	return s.region
}
