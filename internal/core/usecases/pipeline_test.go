package usecases_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/samirrijal/aqtracker/internal/core/domain"
	"github.com/samirrijal/aqtracker/internal/core/usecases"
)

var cityOrder = []string{"Irbid", "Amman", "Zarqa", "Aqaba", "Mafraq"}

func TestPipeline_Compute_FixedCityOrder(t *testing.T) {
	p := usecases.NewPipeline(&mockEngine{}, testRegion(), 0)

	for _, pol := range domain.Pollutants() {
		t.Run(string(pol.ID), func(t *testing.T) {
			handle, result, err := p.Compute(context.Background(), domain.SelectionState{Pollutant: pol.ID, Year: 2024, Month: 6})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if handle == nil {
				t.Fatal("expected a raster handle")
			}
			if len(result.Entries) != 5 {
				t.Fatalf("expected 5 entries, got %d", len(result.Entries))
			}
			for i, e := range result.Entries {
				if e.Location != cityOrder[i] {
					t.Errorf("entry %d: expected %s, got %s", i, cityOrder[i], e.Location)
				}
				if e.MeanValue == nil {
					t.Errorf("entry %d: expected a value", i)
				}
			}
			if result.Unit != pol.Unit {
				t.Errorf("expected unit %q, got %q", pol.Unit, result.Unit)
			}
		})
	}
}

func TestPipeline_Compute_CompositeRequest(t *testing.T) {
	var got domain.CompositeRequest
	engine := &mockEngine{}
	engine.compositeFn = func(ctx context.Context, req domain.CompositeRequest) (*domain.RasterHandle, error) {
		got = req
		return &domain.RasterHandle{Key: req.Key(), SceneCount: 1}, nil
	}
	p := usecases.NewPipeline(engine, testRegion(), 0)

	if _, _, err := p.Compute(context.Background(), domain.SelectionState{Pollutant: domain.SO2, Year: 2023, Month: 12}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Collection != "COPERNICUS/S5P/OFFL/L3_SO2" {
		t.Errorf("unexpected collection %s", got.Collection)
	}
	if got.Band != "SO2_column_number_density" {
		t.Errorf("unexpected band %s", got.Band)
	}
	if got.Reducer != domain.ReducerMean {
		t.Errorf("expected mean reducer, got %s", got.Reducer)
	}
	wantStart := time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !got.Window.Start.Equal(wantStart) || !got.Window.End.Equal(wantEnd) {
		t.Errorf("expected window [%s, %s), got [%s, %s)", wantStart, wantEnd, got.Window.Start, got.Window.End)
	}
	if got.Region == nil || got.Region.Name != "Jordan" {
		t.Error("expected composite to be clipped to Jordan")
	}
}

func TestPipeline_Compute_UnknownPollutant(t *testing.T) {
	engine := &mockEngine{}
	p := usecases.NewPipeline(engine, testRegion(), 0)

	_, _, err := p.Compute(context.Background(), domain.SelectionState{Pollutant: "O3", Year: 2024, Month: 1})
	if !errors.Is(err, domain.ErrUnknownPollutant) {
		t.Fatalf("expected ErrUnknownPollutant, got %v", err)
	}
	if engine.composites != 0 {
		t.Errorf("engine should not be called, got %d composite calls", engine.composites)
	}
}

func TestPipeline_Compute_EmptyWindow(t *testing.T) {
	engine := &mockEngine{}
	engine.compositeFn = func(ctx context.Context, req domain.CompositeRequest) (*domain.RasterHandle, error) {
		return &domain.RasterHandle{Key: req.Key(), Window: req.Window, SceneCount: 0}, nil
	}
	p := usecases.NewPipeline(engine, testRegion(), 0)

	handle, result, err := p.Compute(context.Background(), domain.SelectionState{Pollutant: domain.NO2, Year: 2010, Month: 3})
	if err != nil {
		t.Fatalf("empty window must not fail: %v", err)
	}
	if handle == nil || !handle.Empty() {
		t.Fatal("expected an empty, well-formed handle")
	}
	if len(result.Entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(result.Entries))
	}
	for _, e := range result.Entries {
		if e.MeanValue != nil {
			t.Errorf("%s: expected nil mean, got %v", e.Location, *e.MeanValue)
		}
	}
}

func TestPipeline_Compute_NoDataAtSomeCities(t *testing.T) {
	engine := &mockEngine{
		sampleMeanFn: func(ctx context.Context, h *domain.RasterHandle, at domain.GeoPoint, scale float64) (*float64, error) {
			if at.Lat < 30 { // Aqaba
				return nil, nil
			}
			v := 1.5e-5
			return &v, nil
		},
	}
	p := usecases.NewPipeline(engine, testRegion(), 0)

	_, result, err := p.Compute(context.Background(), domain.SelectionState{Pollutant: domain.NO2, Year: 2024, Month: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Entries[3].Location != "Aqaba" || result.Entries[3].MeanValue != nil {
		t.Errorf("expected nil for Aqaba, got %+v", result.Entries[3])
	}
	if result.Entries[1].MeanValue == nil {
		t.Error("expected a value for Amman")
	}
}

func TestPipeline_Compute_CityOutsideRegionIsNull(t *testing.T) {
	small, err := domain.NewRegion("North", []domain.Polygon{{
		domain.Ring{{Lon: 35.5, Lat: 31.5}, {Lon: 36.5, Lat: 31.5}, {Lon: 36.5, Lat: 32.8}, {Lon: 35.5, Lat: 32.8}},
	}})
	if err != nil {
		t.Fatal(err)
	}
	engine := &mockEngine{}
	p := usecases.NewPipeline(engine, small, 0)

	_, result, err := p.Compute(context.Background(), domain.SelectionState{Pollutant: domain.CO, Year: 2024, Month: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Entries[3].MeanValue != nil {
		t.Error("Aqaba lies outside the region and must be null")
	}
	if engine.sampleCalls != 4 {
		t.Errorf("expected 4 sample calls, got %d", engine.sampleCalls)
	}
}

func TestPipeline_Compute_SampleScale(t *testing.T) {
	var scales []float64
	engine := &mockEngine{
		sampleMeanFn: func(ctx context.Context, h *domain.RasterHandle, at domain.GeoPoint, scale float64) (*float64, error) {
			scales = append(scales, scale)
			return nil, nil
		},
	}

	p := usecases.NewPipeline(engine, testRegion(), 0)
	if _, _, err := p.Compute(context.Background(), domain.SelectionState{Pollutant: domain.NO2, Year: 2024, Month: 1}); err != nil {
		t.Fatal(err)
	}
	for _, s := range scales {
		if s != 7000 {
			t.Fatalf("expected default scale 7000, got %v", s)
		}
	}

	scales = nil
	p = usecases.NewPipeline(engine, testRegion(), 1113.2)
	if _, _, err := p.Compute(context.Background(), domain.SelectionState{Pollutant: domain.NO2, Year: 2024, Month: 1}); err != nil {
		t.Fatal(err)
	}
	if len(scales) != 5 || scales[0] != 1113.2 {
		t.Errorf("expected configured scale 1113.2, got %v", scales)
	}
}

func TestPipeline_Compute_Idempotent(t *testing.T) {
	p := usecases.NewPipeline(&mockEngine{}, testRegion(), 0)
	sel := domain.SelectionState{Pollutant: domain.AerosolIndex, Year: 2025, Month: 7}

	h1, r1, err := p.Compute(context.Background(), sel)
	if err != nil {
		t.Fatal(err)
	}
	h2, r2, err := p.Compute(context.Background(), sel)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(r1, r2) {
		t.Errorf("results differ:\n%+v\n%+v", r1, r2)
	}
	if h1.Key != h2.Key {
		t.Errorf("handle keys differ: %s vs %s", h1.Key, h2.Key)
	}
}

func TestPipeline_Compute_EngineUnavailable(t *testing.T) {
	boom := errors.New("connection refused")

	t.Run("composite", func(t *testing.T) {
		engine := &mockEngine{
			compositeFn: func(ctx context.Context, req domain.CompositeRequest) (*domain.RasterHandle, error) {
				return nil, boom
			},
		}
		p := usecases.NewPipeline(engine, testRegion(), 0)
		_, _, err := p.Compute(context.Background(), domain.DefaultSelection)
		if !errors.Is(err, domain.ErrEngineUnavailable) {
			t.Fatalf("expected ErrEngineUnavailable, got %v", err)
		}
		if !errors.Is(err, boom) {
			t.Errorf("expected underlying error to be kept, got %v", err)
		}
	})

	t.Run("sample", func(t *testing.T) {
		calls := 0
		engine := &mockEngine{
			sampleMeanFn: func(ctx context.Context, h *domain.RasterHandle, at domain.GeoPoint, scale float64) (*float64, error) {
				calls++
				return nil, boom
			},
		}
		p := usecases.NewPipeline(engine, testRegion(), 0)
		_, _, err := p.Compute(context.Background(), domain.DefaultSelection)
		if !errors.Is(err, domain.ErrEngineUnavailable) {
			t.Fatalf("expected ErrEngineUnavailable, got %v", err)
		}
		if calls != 1 {
			t.Errorf("expected no retry after failure, got %d calls", calls)
		}
	})
}

func TestPipeline_Compute_CancelledIsNotAnOutage(t *testing.T) {
	engine := &mockEngine{
		compositeFn: func(ctx context.Context, req domain.CompositeRequest) (*domain.RasterHandle, error) {
			return nil, context.Canceled
		},
	}
	p := usecases.NewPipeline(engine, testRegion(), 0)

	_, _, err := p.Compute(context.Background(), domain.DefaultSelection)
	if errors.Is(err, domain.ErrEngineUnavailable) {
		t.Fatalf("cancellation must not be reported as engine failure: %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
