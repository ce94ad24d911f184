package handler // handler defines http handlers

import (
	"context" // request-scoped timeouts for service calls
	"errors"  // errors provides sentinel values used in getUserID
	"strconv" // strconv converts strings to numeric types
	"strings" // strings provides trimming helpers
	"time"    // time bounds service calls

	"github.com/labstack/echo/v4" // echo defines request context types

	"github.com/iliyamo/branch-scheduler/internal/middleware" // context keys set by JWTAuth
	"github.com/iliyamo/branch-scheduler/internal/model"      // closed role type
)

// requestTimeout bounds every store round trip made on behalf of one
// HTTP request.
const requestTimeout = 5 * time.Second

var errNoIdentity = errors.New("invalid user_id in context")

// getUserID extracts the user_id placed in echo.Context by JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get(middleware.ContextUserID).(type) {
	case uint64:
		if t != 0 {
			return t, nil
		}
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil && n != 0 {
			return n, nil
		}
	}
	return 0, errNoIdentity
}

// getRole extracts the caller's role.  Anything that is not one of the
// declared roles is reported as missing.
func getRole(c echo.Context) (model.Role, bool) {
	role, ok := c.Get(middleware.ContextRole).(model.Role)
	if !ok || !role.Valid() {
		return "", false
	}
	return role, true
}

// identity returns both the caller's id and role or false when either is
// missing.
func identity(c echo.Context) (uint64, model.Role, bool) {
	id, err := getUserID(c)
	if err != nil {
		return 0, "", false
	}
	role, ok := getRole(c)
	if !ok {
		return 0, "", false
	}
	return id, role, true
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// queryID reads an optional positive integer query parameter.  An absent
// parameter yields nil; a malformed one yields ok=false.
func queryID(c echo.Context, name string) (*uint64, bool) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil, false
	}
	return &id, true
}

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}
