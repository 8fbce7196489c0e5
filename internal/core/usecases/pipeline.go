package usecases

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/aqtracker/internal/core/domain"
	"github.com/samirrijal/aqtracker/internal/core/ports"
)

// DefaultSampleScaleMeters is the ground sample distance used for city means
// when none is configured.
const DefaultSampleScaleMeters = 7000.0

var tracer = otel.Tracer("github.com/samirrijal/aqtracker/internal/core/usecases")

// Pipeline turns a selection into a clipped monthly composite and per-city
// means. All raster work is delegated to the engine; the pipeline holds only
// read-only state and may be shared between goroutines.
type Pipeline struct {
	engine      ports.RasterEngine
	region      *domain.Region
	locations   []domain.SampleLocation
	sampleScale float64
}

// NewPipeline creates a Pipeline clipped to region.
func NewPipeline(engine ports.RasterEngine, region *domain.Region, sampleScaleMeters float64) *Pipeline {
	if sampleScaleMeters <= 0 {
		sampleScaleMeters = DefaultSampleScaleMeters
	}
	return &Pipeline{
		engine:      engine,
		region:      region,
		locations:   domain.SampleLocations(),
		sampleScale: sampleScaleMeters,
	}
}

// Region returns the region every composite is clipped to.
func (p *Pipeline) Region() *domain.Region {
	return p.region
}

// SampleScale returns the ground sample distance used for city means.
func (p *Pipeline) SampleScale() float64 {
	return p.sampleScale
}

// Compute resolves the selection, requests the composite and samples every
// city. Cities without data get a nil mean; that is not an error.
func (p *Pipeline) Compute(ctx context.Context, sel domain.SelectionState) (*domain.RasterHandle, domain.AggregationResult, error) {
	ctx, span := tracer.Start(ctx, "pipeline.compute")
	defer span.End()
	span.SetAttributes(
		attribute.String("pollutant", string(sel.Pollutant)),
		attribute.Int("year", sel.Year),
		attribute.Int("month", sel.Month),
	)

	handle, cfg, err := p.Composite(ctx, sel)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, domain.AggregationResult{}, err
	}

	result := domain.AggregationResult{
		Unit:    cfg.Unit,
		Entries: make([]domain.CityMean, 0, len(p.locations)),
	}
	for _, loc := range p.locations {
		mean, err := p.sample(ctx, handle, loc)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, domain.AggregationResult{}, err
		}
		result.Entries = append(result.Entries, domain.CityMean{Location: loc.Name, MeanValue: mean})
	}

	span.SetAttributes(attribute.Int("scene_count", handle.SceneCount))
	return handle, result, nil
}

// Composite performs steps 1-3 of Compute: resolve the pollutant, build the
// monthly window and request the clipped mean composite.
func (p *Pipeline) Composite(ctx context.Context, sel domain.SelectionState) (*domain.RasterHandle, domain.PollutantConfig, error) {
	cfg, err := domain.LookupPollutant(string(sel.Pollutant))
	if err != nil {
		return nil, domain.PollutantConfig{}, err
	}
	window, err := domain.NewTimeWindow(sel.Year, sel.Month)
	if err != nil {
		return nil, domain.PollutantConfig{}, err
	}

	ctx, span := tracer.Start(ctx, "engine.composite",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("collection", cfg.Collection)),
	)
	defer span.End()

	handle, err := p.engine.Composite(ctx, domain.CompositeRequest{
		Collection: cfg.Collection,
		Band:       cfg.Band,
		Window:     window,
		Region:     p.region,
		Reducer:    domain.ReducerMean,
	})
	if err != nil {
		return nil, domain.PollutantConfig{}, engineError("composite", err)
	}
	return handle, cfg, nil
}

// Materialize renders a handle produced by this pipeline.
func (p *Pipeline) Materialize(ctx context.Context, h *domain.RasterHandle, scaleMeters float64) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "engine.materialize", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	data, err := p.engine.Materialize(ctx, h, scaleMeters)
	if err != nil {
		return nil, engineError("materialize", err)
	}
	return data, nil
}

func (p *Pipeline) sample(ctx context.Context, h *domain.RasterHandle, loc domain.SampleLocation) (*float64, error) {
	// Masked out by the clip: no engine round trip needed.
	if !p.region.Contains(loc.Location) {
		return nil, nil
	}
	if h.Empty() {
		return nil, nil
	}

	ctx, span := tracer.Start(ctx, "engine.sample_mean",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("location", loc.Name)),
	)
	defer span.End()

	mean, err := p.engine.SampleMean(ctx, h, loc.Location, p.sampleScale)
	if err != nil {
		return nil, engineError("sample "+loc.Name, err)
	}
	return mean, nil
}

// engineError tags an engine failure with ErrEngineUnavailable. Cancellation
// is passed through untouched so superseded work is not reported as an
// outage.
func engineError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, domain.ErrEngineUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrEngineUnavailable, err)
}
