package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/branch-scheduler/internal/utils" // token verification shared with the websocket handshake
)

// Context keys set by JWTAuth.  Handlers read them through helpers in
// the handler package rather than touching the keys directly.
const (
	ContextUserID = "user_id" // uint64
	ContextRole   = "role"    // model.Role
)

// BearerToken extracts the token from an `Authorization: Bearer` header.
// It returns "" when the header is missing or uses another scheme.
func BearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) < 7 || !strings.EqualFold(auth[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(auth[7:])
}

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the token's subject and role into the request context.  The
// provided secret must match the one used when issuing tokens.  Handlers
// downstream can rely on `c.Get("user_id")` being a uint64 and
// `c.Get("role")` being a model.Role from the closed role set.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// A valid header starts with "Bearer " followed by the JWT.
			raw := BearerToken(c.Request())
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token", "code": "unauthenticated"})
			}
			// Signature, algorithm, expiry and the role claim are all
			// checked by ParseAccessToken; any failure is a plain 401.
			id, role, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token", "code": "unauthenticated"})
			}
			c.Set(ContextUserID, id)
			c.Set(ContextRole, role)
			return next(c)
		}
	}
}
