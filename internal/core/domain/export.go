package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	ExportFormatGeoTIFF = "GeoTIFF"

	// ExportScaleMeters and ExportMaxPixels are fixed for every pollutant.
	ExportScaleMeters       = 7000.0
	ExportMaxPixels   int64 = 1e9
)

// ExportJob is a deferred export descriptor handed to the task queue.
type ExportJob struct {
	Description string       `json:"description"`
	Pollutant   PollutantID  `json:"pollutant"`
	Raster      RasterHandle `json:"raster"`
	Format      string       `json:"format"`
	ScaleMeters float64      `json:"scale_meters"`
	Region      Bounds       `json:"region"`
	MaxPixels   int64        `json:"max_pixels"`
}

// ExportTicket is the only acknowledgement a caller gets: the job was queued.
type ExportTicket struct {
	TaskID      string    `json:"task_id"`
	Description string    `json:"description"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// NewExportJob builds the export descriptor for a computed raster.
func NewExportJob(raster *RasterHandle, region *Region, pollutant PollutantConfig, year, month int) (ExportJob, error) {
	if raster == nil {
		return ExportJob{}, errors.New("export: raster handle is required")
	}
	if region == nil {
		return ExportJob{}, errors.New("export: region is required")
	}
	return ExportJob{
		Description: ExportDescription(region.Name, pollutant, year, month),
		Pollutant:   pollutant.ID,
		Raster:      *raster,
		Format:      ExportFormatGeoTIFF,
		ScaleMeters: ExportScaleMeters,
		Region:      region.Bounds,
		MaxPixels:   ExportMaxPixels,
	}, nil
}

// ExportDescription renders "<Region>_AQ_<label>_<year>_<month>".
func ExportDescription(regionName string, pollutant PollutantConfig, year, month int) string {
	prefix := strings.Join(strings.Fields(regionName), "_")
	return fmt.Sprintf("%s_AQ_%s_%d_%d", prefix, pollutant.Label(), year, month)
}

// PixelCount is the number of pixels the export covers.
func (j ExportJob) PixelCount() int64 {
	w, h := j.Region.GridSize(j.ScaleMeters)
	return int64(w) * int64(h)
}

// CheckPixelCap fails when the export would exceed MaxPixels.
func (j ExportJob) CheckPixelCap() error {
	if n := j.PixelCount(); n > j.MaxPixels {
		return fmt.Errorf("%w: %d > %d", ErrTooManyPixels, n, j.MaxPixels)
	}
	return nil
}
