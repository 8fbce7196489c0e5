package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samirrijal/aqtracker/internal/core/domain"
)

type mockCounter struct {
	countFn func(ctx context.Context, collection, band string, window domain.TimeWindow) (int, error)
}

func (m *mockCounter) CountByCollection(ctx context.Context, collection, band string, window domain.TimeWindow) (int, error) {
	return m.countFn(ctx, collection, band, window)
}

func day(s string) time.Time {
	t, _ := time.Parse(time.DateOnly, s)
	return t
}

func TestTouchedWindows(t *testing.T) {
	windows := touchedWindows([]time.Time{
		day("2024-03-20"), day("2024-01-05"), day("2024-03-01"), day("2023-12-31"),
	})
	want := []string{"2023-12", "2024-01", "2024-03"}
	if len(windows) != len(want) {
		t.Fatalf("got %d windows, want %d", len(windows), len(want))
	}
	for i, w := range windows {
		if w.String() != want[i] {
			t.Errorf("window %d = %s, want %s", i, w, want[i])
		}
	}
}

func TestReportWindows(t *testing.T) {
	var queried []string
	repo := &mockCounter{countFn: func(_ context.Context, collection, band string, w domain.TimeWindow) (int, error) {
		if collection != "COPERNICUS/S5P/OFFL/L3_SO2" || band != "SO2_column_number_density" {
			t.Errorf("unexpected collection %s/%s", collection, band)
		}
		queried = append(queried, w.String())
		return 3, nil
	}}

	err := reportWindows(context.Background(), repo, "COPERNICUS/S5P/OFFL/L3_SO2", "SO2_column_number_density",
		[]time.Time{day("2024-02-01"), day("2024-02-14")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(queried) != 1 || queried[0] != "2024-02" {
		t.Errorf("queried %v, want [2024-02]", queried)
	}
}

func TestReportWindows_CountError(t *testing.T) {
	boom := errors.New("connection reset")
	repo := &mockCounter{countFn: func(context.Context, string, string, domain.TimeWindow) (int, error) {
		return 0, boom
	}}

	err := reportWindows(context.Background(), repo, "c", "b", []time.Time{day("2024-02-01")})
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped count error, got %v", err)
	}
}
