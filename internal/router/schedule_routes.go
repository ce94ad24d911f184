package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/branch-scheduler/internal/middleware"
)

// registerSchedules exposes schedule reads publicly (through the response
// cache) and restricts writes to admins.  Successful writes flush the
// cache so listings never show a stale slot.
func registerSchedules(e *echo.Echo, d Deps, rateLimit echo.MiddlewareFunc) {
	public := e.Group("/v1/schedules", rateLimit, orPass(d.Cache))
	public.GET("", d.Schedules.ListSchedules)
	public.GET("/:id", d.Schedules.GetSchedule)

	admin := e.Group(
		"/v1/schedules",
		rateLimit,
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(middleware.Admins...),
		orPass(d.Invalidate),
	)
	admin.POST("", d.Schedules.CreateSchedule)
	admin.PUT("/:id", d.Schedules.UpdateSchedule)
	admin.DELETE("/:id", d.Schedules.DeleteSchedule)
}
