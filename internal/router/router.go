package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/branch-scheduler/internal/handler"    // handlers that translate HTTP to service calls
	"github.com/iliyamo/branch-scheduler/internal/middleware" // JWT authentication and role enforcement
	"github.com/iliyamo/branch-scheduler/internal/model"      // role constants for route guards
)

// Deps carries everything RegisterRoutes wires onto the Echo instance.
// RateLimit, Cache and Invalidate may be nil, which disables them.
type Deps struct {
	JWTSecret string

	Auth      *handler.AuthHandler
	Schedules *handler.ScheduleHandler
	Bookings  *handler.BookingHandler
	Chat      *handler.ChatHandler
	Health    *handler.HealthHandler
	Websocket echo.HandlerFunc

	RateLimit  echo.MiddlewareFunc
	Cache      echo.MiddlewareFunc
	Invalidate echo.MiddlewareFunc
}

var allRoles = []model.Role{model.RoleSuperAdmin, model.RoleBranchAdmin, model.RoleTrainer, model.RoleMember}

// RegisterRoutes registers every endpoint of the API.  Unauthenticated
// routes are the health check, the websocket handshake (which
// authenticates itself), auth and schedule reads; everything else lives
// under /v1 behind JWTAuth and a role guard.
func RegisterRoutes(e *echo.Echo, d Deps) {
	rateLimit := orPass(d.RateLimit)

	// Health and websocket sit outside the rate limiter: load balancers
	// poll the former and the latter is a long-lived connection.
	e.GET("/healthz", d.Health.Health)
	e.GET("/ws", d.Websocket)

	registerAuth(e, d, rateLimit)
	registerSchedules(e, d, rateLimit)
	registerBookings(e, d, rateLimit)
	registerChat(e, d, rateLimit)
}

// registerAuth maps /v1/auth/register, /v1/auth/login and the protected /v1/me.
func registerAuth(e *echo.Echo, d Deps, rateLimit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", rateLimit)
	g.POST("/register", d.Auth.Register)
	g.POST("/login", d.Auth.Login)

	me := e.Group("/v1", rateLimit, middleware.JWTAuth(d.JWTSecret), middleware.RequireRole(allRoles...))
	me.GET("/me", d.Auth.Me)
}

func orPass(m echo.MiddlewareFunc) echo.MiddlewareFunc {
	if m == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return m
}
