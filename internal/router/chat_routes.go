package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/branch-scheduler/internal/middleware"
)

// registerChat exposes chat history to any authenticated user.
func registerChat(e *echo.Echo, d Deps, rateLimit echo.MiddlewareFunc) {
	g := e.Group("/v1/chat", rateLimit, middleware.JWTAuth(d.JWTSecret), middleware.RequireRole(allRoles...))
	g.GET("/direct/:userId", d.Chat.Direct)
	g.GET("/broadcasts", d.Chat.Broadcasts)
	g.GET("/my", d.Chat.Mine)
}
