package usecases_test

import (
	"context"
	"sync"

	"github.com/samirrijal/aqtracker/internal/core/domain"
)

// --- Mock RasterEngine ---

type mockEngine struct {
	compositeFn   func(ctx context.Context, req domain.CompositeRequest) (*domain.RasterHandle, error)
	sampleMeanFn  func(ctx context.Context, h *domain.RasterHandle, at domain.GeoPoint, scale float64) (*float64, error)
	materializeFn func(ctx context.Context, h *domain.RasterHandle, scale float64) ([]byte, error)

	mu          sync.Mutex
	composites  int
	sampleCalls int
}

func (m *mockEngine) Composite(ctx context.Context, req domain.CompositeRequest) (*domain.RasterHandle, error) {
	m.mu.Lock()
	m.composites++
	m.mu.Unlock()
	if m.compositeFn != nil {
		return m.compositeFn(ctx, req)
	}
	return &domain.RasterHandle{
		Key:        req.Key(),
		Collection: req.Collection,
		Band:       req.Band,
		Window:     req.Window,
		Region:     req.Region.Name,
		Bounds:     req.Region.Bounds,
		Reducer:    req.Reducer,
		SceneCount: 30,
	}, nil
}

func (m *mockEngine) SampleMean(ctx context.Context, h *domain.RasterHandle, at domain.GeoPoint, scale float64) (*float64, error) {
	m.mu.Lock()
	m.sampleCalls++
	m.mu.Unlock()
	if m.sampleMeanFn != nil {
		return m.sampleMeanFn(ctx, h, at, scale)
	}
	v := at.Lat * 1e-6
	return &v, nil
}

func (m *mockEngine) Materialize(ctx context.Context, h *domain.RasterHandle, scale float64) ([]byte, error) {
	if m.materializeFn != nil {
		return m.materializeFn(ctx, h, scale)
	}
	return []byte("II*\x00"), nil
}

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, context.DeadlineExceeded
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.sets++
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu        sync.Mutex
	analyses  []*domain.Analysis
	submitted []*domain.ExportTicket
	results   []*domain.ExportResult
}

func (m *mockPublisher) PublishAnalysis(ctx context.Context, a *domain.Analysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analyses = append(m.analyses, a)
	return nil
}

func (m *mockPublisher) PublishExportSubmitted(ctx context.Context, t *domain.ExportTicket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitted = append(m.submitted, t)
	return nil
}

func (m *mockPublisher) PublishExportResult(ctx context.Context, r *domain.ExportResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, r)
	return nil
}

// --- Mock ExportQueue ---

type mockQueue struct {
	submitFn func(ctx context.Context, job domain.ExportJob) (string, error)
	jobs     []domain.ExportJob
}

func (m *mockQueue) Submit(ctx context.Context, job domain.ExportJob) (string, error) {
	m.jobs = append(m.jobs, job)
	if m.submitFn != nil {
		return m.submitFn(ctx, job)
	}
	return "export-task-1", nil
}

// --- Fixtures ---

// testRegion is a box around Jordan that contains all five cities.
func testRegion() *domain.Region {
	r, err := domain.NewRegion("Jordan", []domain.Polygon{{
		domain.Ring{
			{Lon: 34.9, Lat: 29.1},
			{Lon: 39.3, Lat: 29.1},
			{Lon: 39.3, Lat: 33.4},
			{Lon: 34.9, Lat: 33.4},
			{Lon: 34.9, Lat: 29.1},
		},
	}})
	if err != nil {
		panic(err)
	}
	return r
}
