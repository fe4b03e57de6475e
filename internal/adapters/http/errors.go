package http

import (
	"errors"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"

	"github.com/dishdash/dishdash/internal/core/domain"
	"github.com/dishdash/dishdash/internal/pkg/report"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, internal_error, etc.
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

// errUnauthorized returns a 401 error.
func errUnauthorized(c *fiber.Ctx, msg string) error {
	return newError(c, 401, "unauthorized", msg)
}

// errUnavailable returns a 503 error.
func errUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, 503, "service_unavailable", msg)
}

// errInternal logs err, reports it to Sentry and returns a 500 that does
// not leak internals.
func errInternal(c *fiber.Ctx, err error) error {
	reqID, _ := c.Locals("requestid").(string)
	LoggerFromCtx(c.UserContext()).Error("request failed", "path", c.Path(), "error", err)
	report.ErrorWithOptions(err, report.Options{
		Tags:  map[string]string{"route": c.Route().Path, "method": c.Method()},
		Extra: map[string]interface{}{"request_id": reqID, "path": c.Path()},
		Level: sentry.LevelError,
	})
	return newError(c, 500, "internal_error", "internal server error")
}

// errFrom maps a use case error onto a response.
func errFrom(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return errBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return errNotFound(c, err.Error())
	case errors.Is(err, domain.ErrUpstream):
		LoggerFromCtx(c.UserContext()).Warn("upstream call failed", "error", err)
		return newError(c, fiber.StatusBadGateway, "bad_gateway", "upstream service unavailable")
	}
	return errInternal(c, err)
}
