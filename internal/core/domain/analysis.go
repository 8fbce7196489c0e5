package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// SelectionState is the user's current choice of pollutant and month. It is
// passed explicitly into every computation.
type SelectionState struct {
	Pollutant PollutantID `json:"pollutant"`
	Year      int         `json:"year"`
	Month     int         `json:"month"`
}

// DefaultSelection is what a fresh session starts with.
var DefaultSelection = SelectionState{Pollutant: NO2, Year: 2025, Month: 1}

// Years the source archive is expected to cover. Advisory only.
const (
	FirstSupportedYear = 2019
	LastSupportedYear  = 2026
)

func (s SelectionState) String() string {
	return fmt.Sprintf("%s/%04d-%02d", s.Pollutant, s.Year, s.Month)
}

// ReducerMean is the only temporal and spatial reducer in use.
const ReducerMean = "mean"

// CompositeRequest asks the engine for a temporally reduced, clipped
// single-band raster.
type CompositeRequest struct {
	Collection string
	Band       string
	Window     TimeWindow
	Region     *Region
	Reducer    string
}

// Key identifies the composite independently of when it was requested.
func (r CompositeRequest) Key() string {
	region := ""
	if r.Region != nil {
		region = r.Region.Name
	}
	return fmt.Sprintf("%s:%s:%s:%s:%s", r.Collection, r.Band, r.Window, region, r.Reducer)
}

// RasterHandle is a deferred raster: a description of a composite that the
// engine can materialise later for download or export. Aggregation never
// materialises it.
type RasterHandle struct {
	Key        string          `json:"key"`
	Collection string          `json:"collection"`
	Band       string          `json:"band"`
	Window     TimeWindow      `json:"window"`
	Region     string          `json:"region"`
	Bounds     Bounds          `json:"bounds"`
	Clip       json.RawMessage `json:"clip,omitempty"`
	Reducer    string          `json:"reducer"`
	SceneCount int             `json:"scene_count"`
}

// Empty reports whether no source scene fell inside the window. An empty
// handle is still valid and materialises to an all-nodata raster.
func (h *RasterHandle) Empty() bool {
	return h.SceneCount == 0
}

// CityMean is one row of an aggregation result. MeanValue is nil when the
// source has no observation at the location within the window.
type CityMean struct {
	Location  string   `json:"location"`
	MeanValue *float64 `json:"mean_value"`
}

// AggregationResult holds one entry per sample location in declaration order.
type AggregationResult struct {
	Unit    string     `json:"unit"`
	Entries []CityMean `json:"entries"`
}

// Analysis is everything a client needs to present one selection.
type Analysis struct {
	Selection  SelectionState    `json:"selection"`
	Pollutant  PollutantConfig   `json:"pollutant"`
	Raster     RasterHandle      `json:"raster"`
	Result     AggregationResult `json:"result"`
	ChartTitle string            `json:"chart_title"`
	Insight    string            `json:"insight"`
	ComputedAt time.Time         `json:"computed_at"`
}

// ChartTitle is the caption for the per-city comparison chart.
func ChartTitle(unit string) string {
	return fmt.Sprintf("Pollution Comparison (%s)", unit)
}
