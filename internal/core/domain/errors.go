package domain

import "errors"

var (
	// ErrUnknownPollutant is returned when a selection names a pollutant that
	// is not in the registry.
	ErrUnknownPollutant = errors.New("unknown pollutant")

	// ErrInvalidWindow is returned for a month outside 1-12.
	ErrInvalidWindow = errors.New("invalid time window")

	// ErrEngineUnavailable wraps any failure reported by the raster engine or
	// the network path to it. The pipeline never retries.
	ErrEngineUnavailable = errors.New("raster engine unavailable")

	// ErrSuperseded is returned to a caller whose computation was cancelled
	// because a newer selection arrived for the same session.
	ErrSuperseded = errors.New("selection superseded")

	// ErrRegionNotFound is returned when a boundary lookup matches nothing.
	ErrRegionNotFound = errors.New("region not found")

	// ErrTooManyPixels is returned when an export would exceed its pixel cap.
	ErrTooManyPixels = errors.New("export exceeds pixel cap")
)
