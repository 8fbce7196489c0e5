package domain

import "time"

// Scene is one source raster in the scene store: a single band of a single
// acquisition, stored as GeoTIFF.
type Scene struct {
	ID         string    `json:"id"`
	Collection string    `json:"collection"`
	Band       string    `json:"band"`
	AcquiredAt time.Time `json:"acquired_at"`
	Source     string    `json:"source"`
	GeoTIFF    []byte    `json:"-"`
}

// ExportResult is published by the export worker once a job has finished.
type ExportResult struct {
	TaskID      string    `json:"task_id"`
	Description string    `json:"description"`
	Location    string    `json:"location,omitempty"`
	Pixels      int64     `json:"pixels"`
	Bytes       int       `json:"bytes"`
	Error       string    `json:"error,omitempty"`
	FinishedAt  time.Time `json:"finished_at"`
}

// Succeeded reports whether the export produced a file.
func (r ExportResult) Succeeded() bool {
	return r.Error == ""
}
