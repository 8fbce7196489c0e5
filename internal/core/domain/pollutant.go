package domain

import (
	"fmt"
	"slices"
	"strings"
)

// PollutantID identifies one of the supported Sentinel-5P products.
type PollutantID string

const (
	NO2          PollutantID = "NO2"
	SO2          PollutantID = "SO2"
	CO           PollutantID = "CO"
	AerosolIndex PollutantID = "AerosolIndex"
)

// PollutantConfig describes where a pollutant lives in the source archive and
// how it is displayed. Values are reference data and never change at runtime.
type PollutantConfig struct {
	ID          PollutantID `json:"id"`
	DisplayName string      `json:"display_name"`
	Collection  string      `json:"collection"`
	Band        string      `json:"band"`
	Min         float64     `json:"min"`
	Max         float64     `json:"max"`
	Unit        string      `json:"unit"`
	Palette     []string    `json:"palette"`
	Insight     string      `json:"insight"`
}

// Label is the short name used in export descriptions: the first word of the
// display name ("Nitrogen Dioxide (NO2)" -> "Nitrogen").
func (p PollutantConfig) Label() string {
	if f := strings.Fields(p.DisplayName); len(f) > 0 {
		return f[0]
	}
	return string(p.ID)
}

var defaultPalette = []string{"black", "blue", "purple", "cyan", "green", "yellow", "red"}

// registry is ordered the same way the pollutant selector lists them.
var registry = []PollutantConfig{
	{
		ID:          NO2,
		DisplayName: "Nitrogen Dioxide (NO2)",
		Collection:  "COPERNICUS/S5P/OFFL/L3_NO2",
		Band:        "tropospheric_NO2_column_number_density",
		Min:         0,
		Max:         0.0002,
		Unit:        "mol/m²",
		Palette:     defaultPalette,
		Insight:     "NO₂: Sources include traffic and fuel combustion.",
	},
	{
		ID:          SO2,
		DisplayName: "Sulfur Dioxide (SO2)",
		Collection:  "COPERNICUS/S5P/OFFL/L3_SO2",
		Band:        "SO2_column_number_density",
		Min:         0,
		Max:         0.0005,
		Unit:        "mol/m²",
		Palette:     []string{"blue", "green", "yellow", "orange", "red"},
		Insight:     "SO₂: Industrial emissions and power plants.",
	},
	{
		ID:          CO,
		DisplayName: "Carbon Monoxide (CO)",
		Collection:  "COPERNICUS/S5P/OFFL/L3_CO",
		Band:        "CO_column_number_density",
		Min:         0,
		Max:         0.05,
		Unit:        "mol/m²",
		Palette:     defaultPalette,
		Insight:     "CO: Incomplete combustion in urban areas.",
	},
	{
		ID:          AerosolIndex,
		DisplayName: "Aerosol Index (Dust/Smoke)",
		Collection:  "COPERNICUS/S5P/OFFL/L3_AER_AI",
		Band:        "absorbing_aerosol_index",
		Min:         -1,
		Max:         2,
		Unit:        "Index",
		Palette:     defaultPalette,
		Insight:     "Aerosol Index: Dust and smoke transport.",
	},
}

// Pollutants returns every supported pollutant in selector order. The result
// is a copy and may be modified by the caller.
func Pollutants() []PollutantConfig {
	out := make([]PollutantConfig, len(registry))
	for i, p := range registry {
		p.Palette = slices.Clone(p.Palette)
		out[i] = p
	}
	return out
}

// LookupPollutant resolves an identifier or display name, case-insensitively.
func LookupPollutant(id string) (PollutantConfig, error) {
	id = strings.TrimSpace(id)
	for _, p := range registry {
		if strings.EqualFold(string(p.ID), id) || strings.EqualFold(p.DisplayName, id) {
			p.Palette = slices.Clone(p.Palette)
			return p, nil
		}
	}
	return PollutantConfig{}, fmt.Errorf("%w: %q", ErrUnknownPollutant, id)
}
