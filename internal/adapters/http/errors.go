package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/aqtracker/internal/core/domain"
)

var errExportsUnavailable = errors.New("export queue not configured")

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, unknown_pollutant, engine_unavailable, etc.
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// classify maps a domain error onto an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrUnknownPollutant):
		return fiber.StatusBadRequest, "unknown_pollutant"
	case errors.Is(err, domain.ErrInvalidWindow):
		return fiber.StatusBadRequest, "invalid_window"
	case errors.Is(err, domain.ErrSuperseded):
		return fiber.StatusConflict, "superseded"
	case errors.Is(err, domain.ErrTooManyPixels):
		return fiber.StatusUnprocessableEntity, "too_many_pixels"
	case errors.Is(err, domain.ErrRegionNotFound):
		return fiber.StatusNotFound, "region_not_found"
	case errors.Is(err, domain.ErrEngineUnavailable):
		return fiber.StatusServiceUnavailable, "engine_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout, "timeout"
	default:
		return fiber.StatusInternalServerError, "internal_error"
	}
}

// errFromDomain writes err using the status its kind maps to.
func errFromDomain(c *fiber.Ctx, err error) error {
	status, code := classify(err)
	if status >= 500 {
		LoggerFromCtx(c.UserContext()).Error("request failed", "path", c.Path(), "code", code, "error", err)
	}
	return newError(c, status, code, err.Error())
}
