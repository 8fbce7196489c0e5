package http

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/aqtracker/internal/core/domain"
)

// SessionHeader opts an analysis request into per-session superseding.
const SessionHeader = "X-Session-ID"

// selectionRequest is the query or body shape of a selection. Absent fields
// are nil; an explicit zero is kept so the window check can reject it.
type selectionRequest struct {
	Pollutant string `json:"pollutant" query:"pollutant"`
	Year      *int   `json:"year" query:"year"`
	Month     *int   `json:"month" query:"month"`
}

// toSelection fills missing fields from the default selection.
func (r selectionRequest) toSelection() domain.SelectionState {
	sel := domain.DefaultSelection
	if p := strings.TrimSpace(r.Pollutant); p != "" {
		sel.Pollutant = domain.PollutantID(p)
	}
	if r.Year != nil {
		sel.Year = *r.Year
	}
	if r.Month != nil {
		sel.Month = *r.Month
	}
	return sel
}

// parseSelection reads pollutant/year/month from the query string.
func parseSelection(c *fiber.Ctx) (domain.SelectionState, error) {
	req := selectionRequest{Pollutant: c.Query("pollutant")}
	for name, dst := range map[string]**int{"year": &req.Year, "month": &req.Month} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return domain.SelectionState{}, errors.New(name + " must be an integer")
		}
		*dst = &v
	}
	return req.toSelection(), nil
}

// ListPollutantsHandler returns every supported pollutant in selector order.
func ListPollutantsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Catalog.Pollutants())
	}
}

// GetPollutantHandler returns one pollutant by ID or display name.
func GetPollutantHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := deps.Catalog.Pollutant(c.Params("id"))
		if err != nil {
			return newError(c, 404, "unknown_pollutant", err.Error())
		}
		return c.JSON(p)
	}
}

// ListLocationsHandler returns the sample cities in reporting order.
func ListLocationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Catalog.Locations())
	}
}

// RegionResponse summarises the loaded region of interest.
type RegionResponse struct {
	Name     string          `json:"name"`
	Bounds   domain.Bounds   `json:"bounds"`
	Polygons int             `json:"polygons"`
	Vertices int             `json:"vertices"`
	Geometry json.RawMessage `json:"geometry,omitempty"`
}

// RegionHandler returns the region summary. ?geometry=true adds the GeoJSON.
func RegionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r := deps.Catalog.Region()
		if r == nil {
			return errNotFound(c, "region not loaded")
		}
		resp := RegionResponse{
			Name:     r.Name,
			Bounds:   r.Bounds,
			Polygons: len(r.Polygons),
			Vertices: r.Vertices(),
		}
		if c.QueryBool("geometry", false) {
			g, err := r.GeoJSON()
			if err != nil {
				return errInternal(c, err.Error())
			}
			resp.Geometry = g
		}
		return c.JSON(resp)
	}
}

// AnalysisHandler computes the composite and per-city means for a selection.
// Requests carrying X-Session-ID supersede earlier ones from the same session.
func AnalysisHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sel, err := parseSelection(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		ctx := c.UserContext()
		var a *domain.Analysis
		if sid := c.Get(SessionHeader); sid != "" && deps.Dispatcher != nil {
			a, err = deps.Dispatcher.OnSelectionChanged(ctx, sid, sel)
		} else {
			a, err = deps.Analyses.Analyze(ctx, sel)
		}
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(a)
	}
}

// RasterHandler materialises the composite for a selection as GeoTIFF.
func RasterHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sel, err := parseSelection(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		data, handle, err := deps.Analyses.Raster(c.UserContext(), sel)
		if err != nil {
			return errFromDomain(c, err)
		}

		cfg, _ := domain.LookupPollutant(string(sel.Pollutant))
		name := domain.ExportDescription(handle.Region, cfg, sel.Year, sel.Month) + ".tif"
		c.Set(fiber.HeaderContentType, "image/tiff")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+name+`"`)
		c.Set("X-Scene-Count", strconv.Itoa(handle.SceneCount))
		return c.Send(data)
	}
}

// CreateExportHandler queues an export of the selection and returns at once.
func CreateExportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Exports == nil {
			return newError(c, 503, "exports_unavailable", errExportsUnavailable.Error())
		}

		var req selectionRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return errBadRequest(c, "invalid request body")
			}
		}

		ticket, err := deps.Exports.Submit(c.UserContext(), req.toSelection())
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(ticket)
	}
}
