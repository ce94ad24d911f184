package handler

import (
	"errors"   // errors.As for conflict details
	"net/http" // HTTP status codes

	"github.com/labstack/echo/v4" // Echo JSON responses

	"github.com/iliyamo/branch-scheduler/internal/service" // domain error codes
)

// statusByKind maps every stable error code to its HTTP status.
var statusByKind = map[string]int{
	"reference_not_found": http.StatusBadRequest,
	"reference_invalid":   http.StatusBadRequest,
	"interval_invalid":    http.StatusBadRequest,
	"invalid_status":      http.StatusBadRequest,
	"schedule_conflict":   http.StatusConflict,
	"already_booked":      http.StatusConflict,
	"invalid_transition":  http.StatusConflict,
	"forbidden":           http.StatusForbidden,
	"unauthenticated":     http.StatusUnauthorized,
	"not_found":           http.StatusNotFound,
}

// writeError renders a service error as `{"error": ..., "code": ...}`.
// Schedule conflicts also carry the schedules they collided with.
// Unknown errors become a 500 with a generic message so internals are
// not echoed to clients.
func writeError(c echo.Context, err error) error {
	kind := service.ErrorKind(err)
	status, ok := statusByKind[kind]
	if !ok {
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error", "code": "internal"})
	}
	body := echo.Map{"error": err.Error(), "code": kind}
	var ce *service.ConflictError
	if errors.As(err, &ce) {
		body["conflicts"] = ce.Conflicts
	}
	return c.JSON(status, body)
}

// badRequest is the shape used for malformed input that never reaches a
// service.
func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg, "code": "bad_request"})
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "code": "unauthenticated"})
}
