package usecases

import (
	"context"
	"errors"
	"sync"

	"github.com/samirrijal/aqtracker/internal/core/domain"
	"github.com/samirrijal/aqtracker/internal/pkg/metrics"
)

// Analyzer computes an analysis for a selection.
type Analyzer interface {
	Analyze(ctx context.Context, sel domain.SelectionState) (*domain.Analysis, error)
}

type inflight struct {
	cancel context.CancelCauseFunc
}

// Dispatcher routes selection changes to the analyzer so that, within a
// session, only the latest selection is ever computed to completion.
type Dispatcher struct {
	analyzer Analyzer

	mu       sync.Mutex
	sessions map[string]*inflight
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(analyzer Analyzer) *Dispatcher {
	return &Dispatcher{
		analyzer: analyzer,
		sessions: make(map[string]*inflight),
	}
}

// OnSelectionChanged computes the analysis for sel. Any computation still
// running for sessionID is cancelled and its caller receives ErrSuperseded.
// An empty sessionID opts out of superseding.
func (d *Dispatcher) OnSelectionChanged(ctx context.Context, sessionID string, sel domain.SelectionState) (*domain.Analysis, error) {
	if sessionID == "" {
		return d.analyzer.Analyze(ctx, sel)
	}

	ctx, cancel := context.WithCancelCause(ctx)
	me := &inflight{cancel: cancel}

	d.mu.Lock()
	if prev, ok := d.sessions[sessionID]; ok {
		prev.cancel(domain.ErrSuperseded)
	}
	d.sessions[sessionID] = me
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		if d.sessions[sessionID] == me {
			delete(d.sessions, sessionID)
		}
		d.mu.Unlock()
		cancel(nil)
	}()

	a, err := d.analyzer.Analyze(ctx, sel)
	if cause := context.Cause(ctx); errors.Is(cause, domain.ErrSuperseded) {
		metrics.SelectionsSuperseded.Inc()
		return nil, domain.ErrSuperseded
	}
	return a, err
}

// Close cancels whatever is running for sessionID, e.g. when its client
// disconnects.
func (d *Dispatcher) Close(sessionID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if cur, ok := d.sessions[sessionID]; ok {
		cur.cancel(context.Canceled)
		delete(d.sessions, sessionID)
	}
}

// InFlight returns the number of sessions with a running computation.
func (d *Dispatcher) InFlight() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sessions)
}
