package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/samirrijal/aqtracker/internal/core/domain"
	"github.com/samirrijal/aqtracker/internal/core/ports"
	"github.com/samirrijal/aqtracker/internal/pkg/metrics"
)

// AnalysisService runs the pipeline for a selection and decorates the result
// for presentation. Cached results are only as fresh as the TTL allows; the
// source archive can be reprocessed retroactively.
type AnalysisService struct {
	pipeline  *Pipeline
	cache     ports.CacheService
	publisher ports.EventPublisher
	cacheTTL  int
	now       func() time.Time
}

// NewAnalysisService creates a new AnalysisService. cache and publisher may
// be nil. A cacheTTLSeconds of zero disables caching.
func NewAnalysisService(pipeline *Pipeline, cache ports.CacheService, publisher ports.EventPublisher, cacheTTLSeconds int) *AnalysisService {
	return &AnalysisService{
		pipeline:  pipeline,
		cache:     cache,
		publisher: publisher,
		cacheTTL:  cacheTTLSeconds,
		now:       time.Now,
	}
}

// Analyze computes (or loads from cache) the analysis for sel.
func (s *AnalysisService) Analyze(ctx context.Context, sel domain.SelectionState) (*domain.Analysis, error) {
	cfg, err := domain.LookupPollutant(string(sel.Pollutant))
	if err != nil {
		return nil, err
	}
	sel.Pollutant = cfg.ID

	cacheKey := "analysis:" + sel.String()
	if s.cache != nil && s.cacheTTL > 0 {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var a domain.Analysis
			if err := json.Unmarshal(data, &a); err == nil {
				metrics.CacheHits.WithLabelValues("analysis").Inc()
				return &a, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("analysis").Inc()
	}

	start := time.Now()
	handle, result, err := s.pipeline.Compute(ctx, sel)
	if err != nil {
		if errors.Is(err, domain.ErrEngineUnavailable) {
			metrics.EngineErrors.WithLabelValues(string(cfg.ID)).Inc()
		}
		return nil, err
	}
	metrics.AnalysesComputed.WithLabelValues(string(cfg.ID)).Inc()
	metrics.PipelineDuration.WithLabelValues(string(cfg.ID)).Observe(time.Since(start).Seconds())
	for _, e := range result.Entries {
		if e.MeanValue == nil {
			metrics.NullSamples.WithLabelValues(string(cfg.ID), e.Location).Inc()
		}
	}

	a := &domain.Analysis{
		Selection:  sel,
		Pollutant:  cfg,
		Raster:     *handle,
		Result:     result,
		ChartTitle: domain.ChartTitle(cfg.Unit),
		Insight:    cfg.Insight,
		ComputedAt: s.now().UTC(),
	}

	if s.cache != nil && s.cacheTTL > 0 {
		if data, err := json.Marshal(a); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.cacheTTL)
		}
	}

	// Best-effort; subscribers are observers only.
	if s.publisher != nil {
		_ = s.publisher.PublishAnalysis(ctx, a)
	}

	return a, nil
}

// Raster materialises the composite for sel as a GeoTIFF at the export scale.
func (s *AnalysisService) Raster(ctx context.Context, sel domain.SelectionState) ([]byte, *domain.RasterHandle, error) {
	handle, _, err := s.pipeline.Composite(ctx, sel)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.pipeline.Materialize(ctx, handle, domain.ExportScaleMeters)
	if err != nil {
		return nil, nil, fmt.Errorf("raster %s: %w", sel, err)
	}
	return data, handle, nil
}
