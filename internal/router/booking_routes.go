package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/branch-scheduler/internal/middleware"
	"github.com/iliyamo/branch-scheduler/internal/model"
)

// registerBookings registers booking and attendance endpoints under
// /v1/bookings.  Each route carries its own role guard; ownership
// (member owns booking, trainer leads schedule) is checked by the service.
func registerBookings(e *echo.Echo, d Deps, rateLimit echo.MiddlewareFunc) {
	g := e.Group("/v1/bookings", rateLimit, middleware.JWTAuth(d.JWTSecret))

	member := middleware.RequireRole(model.RoleMember)
	staff := middleware.RequireRole(model.RoleSuperAdmin, model.RoleBranchAdmin, model.RoleTrainer)
	admins := middleware.RequireRole(middleware.Admins...)
	trainer := middleware.RequireRole(model.RoleTrainer)

	g.POST("/book", d.Bookings.Book, member)
	g.GET("/my", d.Bookings.MyBookings, member)
	g.POST("/:id/cancel", d.Bookings.Cancel, member)
	g.POST("/:id/attendance", d.Bookings.MarkAttendance, staff)
	g.GET("/schedule/:scheduleId", d.Bookings.ScheduleBookings, staff)
	g.GET("/branch/:branchId", d.Bookings.BranchBookings, admins)
	g.GET("/trainer/schedules", d.Bookings.TrainerSchedules, trainer)
	g.GET("/branch/:branchId/schedules", d.Bookings.BranchSchedules, admins)
}
