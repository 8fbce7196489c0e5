package workflows

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/samirrijal/aqtracker/internal/core/domain"
)

type fakeEngine struct {
	data  []byte
	err   error
	calls int
}

func (f *fakeEngine) Composite(ctx context.Context, req domain.CompositeRequest) (*domain.RasterHandle, error) {
	return nil, errors.New("not used")
}

func (f *fakeEngine) SampleMean(ctx context.Context, h *domain.RasterHandle, at domain.GeoPoint, scale float64) (*float64, error) {
	return nil, errors.New("not used")
}

func (f *fakeEngine) Materialize(ctx context.Context, h *domain.RasterHandle, scale float64) ([]byte, error) {
	f.calls++
	return f.data, f.err
}

type fakeStore struct {
	names []string
}

func (f *fakeStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	f.names = append(f.names, name)
	return "/exports/" + name, nil
}

type fakePublisher struct {
	mu      sync.Mutex
	results []domain.ExportResult
}

func (f *fakePublisher) PublishAnalysis(ctx context.Context, a *domain.Analysis) error { return nil }

func (f *fakePublisher) PublishExportSubmitted(ctx context.Context, t *domain.ExportTicket) error {
	return nil
}

func (f *fakePublisher) PublishExportResult(ctx context.Context, r *domain.ExportResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, *r)
	return nil
}

func jordanJob() domain.ExportJob {
	return domain.ExportJob{
		Description: "Jordan_AQ_Nitrogen_2025_1",
		Pollutant:   domain.NO2,
		Raster:      domain.RasterHandle{Key: "k", SceneCount: 31},
		Format:      domain.ExportFormatGeoTIFF,
		ScaleMeters: domain.ExportScaleMeters,
		Region:      domain.Bounds{MinLat: 29.1, MinLon: 34.9, MaxLat: 33.4, MaxLon: 39.3},
		MaxPixels:   domain.ExportMaxPixels,
	}
}

func TestExportWorkflow_Success(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()

	engine := &fakeEngine{data: []byte("II*\x00tiff")}
	store := &fakeStore{}
	pub := &fakePublisher{}
	env.RegisterActivity(&ExportActivities{Engine: engine, Store: store, Publisher: pub})

	env.ExecuteWorkflow(ExportWorkflow, jordanJob())

	if !env.IsWorkflowCompleted() {
		t.Fatal("workflow did not complete")
	}
	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var result domain.ExportResult
	if err := env.GetWorkflowResult(&result); err != nil {
		t.Fatal(err)
	}
	if result.Location != "/exports/Jordan_AQ_Nitrogen_2025_1.tif" || result.Bytes != 8 {
		t.Errorf("unexpected result %+v", result)
	}
	if len(store.names) != 1 {
		t.Errorf("expected one stored file, got %v", store.names)
	}
	if len(pub.results) != 1 || !pub.results[0].Succeeded() {
		t.Errorf("expected one successful result event, got %+v", pub.results)
	}
}

func TestExportWorkflow_PixelCapNotRetried(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()

	engine := &fakeEngine{data: []byte("x")}
	pub := &fakePublisher{}
	env.RegisterActivity(&ExportActivities{Engine: engine, Store: &fakeStore{}, Publisher: pub})

	job := jordanJob()
	job.ScaleMeters = 1
	env.ExecuteWorkflow(ExportWorkflow, job)

	if !env.IsWorkflowCompleted() {
		t.Fatal("workflow did not complete")
	}
	err := env.GetWorkflowError()
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) || appErr.Type() != ErrTypeTooManyPixels {
		t.Fatalf("expected %s application error, got %v", ErrTypeTooManyPixels, err)
	}
	if engine.calls != 0 {
		t.Errorf("engine must not be called, got %d calls", engine.calls)
	}
	if len(pub.results) != 1 || pub.results[0].Succeeded() {
		t.Fatalf("expected one failure event, got %+v", pub.results)
	}
	if got := pub.results[0].Pixels; got != job.PixelCount() || got <= job.MaxPixels {
		t.Errorf("failure event should report the rejected pixel count, got %d", got)
	}
}

func TestExportWorkflow_EngineFailureRetried(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()

	engine := &fakeEngine{err: errors.New("connection refused")}
	pub := &fakePublisher{}
	env.RegisterActivity(&ExportActivities{Engine: engine, Store: &fakeStore{}, Publisher: pub})

	env.ExecuteWorkflow(ExportWorkflow, jordanJob())

	if env.GetWorkflowError() == nil {
		t.Fatal("expected workflow error")
	}
	if engine.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", engine.calls)
	}
	if len(pub.results) != 1 || pub.results[0].Error == "" {
		t.Fatalf("expected failure event, got %+v", pub.results)
	}
	if pub.results[0].Pixels != jordanJob().PixelCount() {
		t.Errorf("failure event pixels = %d, want %d", pub.results[0].Pixels, jordanJob().PixelCount())
	}
}

func TestExportActivities_ExportRaster(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()

	store := &fakeStore{}
	acts := &ExportActivities{Engine: &fakeEngine{data: []byte("tif")}, Store: store}
	env.RegisterActivity(acts)

	val, err := env.ExecuteActivity(acts.ExportRaster, jordanJob())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var result domain.ExportResult
	if err := val.Get(&result); err != nil {
		t.Fatal(err)
	}
	if result.Pixels <= 0 || result.Pixels > domain.ExportMaxPixels {
		t.Errorf("unexpected pixel count %d", result.Pixels)
	}
	if store.names[0] != "Jordan_AQ_Nitrogen_2025_1.tif" {
		t.Errorf("unexpected file name %s", store.names[0])
	}
}
