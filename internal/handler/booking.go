package handler

import (
	"context"  // service interface signatures
	"net/http" // HTTP status codes

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/branch-scheduler/internal/model" // booking and schedule types
)

// BookingService is the part of service.BookingService the HTTP layer uses.
type BookingService interface {
	Book(ctx context.Context, memberID, scheduleID uint64) (model.SessionBooking, error)
	Cancel(ctx context.Context, memberID, bookingID uint64) (model.SessionBooking, error)
	MarkAttendance(ctx context.Context, actorID uint64, actorRole model.Role, bookingID uint64, status model.BookingStatus) (model.SessionBooking, error)
	ListByMember(ctx context.Context, memberID uint64) ([]model.SessionBooking, error)
	ListBySchedule(ctx context.Context, actorID uint64, actorRole model.Role, scheduleID uint64) ([]model.SessionBooking, error)
	ListByBranch(ctx context.Context, branchID uint64) ([]model.SessionBooking, error)
	TrainerSchedules(ctx context.Context, trainerID uint64) ([]model.Schedule, error)
	BranchSchedules(ctx context.Context, branchID uint64) ([]model.Schedule, error)
}

// BookingHandler exposes booking and attendance endpoints.  All methods
// assume that JWT authentication and role validation has already been
// performed by middleware; ownership rules are enforced by the service.
type BookingHandler struct {
	Svc BookingService
}

// NewBookingHandler constructs a BookingHandler and panics if svc is nil.
func NewBookingHandler(svc BookingService) *BookingHandler {
	if svc == nil {
		panic("nil service passed to NewBookingHandler")
	}
	return &BookingHandler{Svc: svc}
}

// Book handles POST /v1/bookings/book with body {"scheduleId": n}.
func (h *BookingHandler) Book(c echo.Context) error {
	memberID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var body struct {
		ScheduleID uint64 `json:"scheduleId"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.ScheduleID == 0 {
		return badRequest(c, "scheduleId is required")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	b, err := h.Svc.Book(ctx, memberID, body.ScheduleID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// MyBookings handles GET /v1/bookings/my.
func (h *BookingHandler) MyBookings(c echo.Context) error {
	memberID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	list, err := h.Svc.ListByMember(ctx, memberID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, bookingsOrEmpty(list))
}

// Cancel handles POST /v1/bookings/:id/cancel.  Only the member who
// owns the booking may cancel it.
func (h *BookingHandler) Cancel(c echo.Context) error {
	memberID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	b, err := h.Svc.Cancel(ctx, memberID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "booking cancelled", "booking": b})
}

// MarkAttendance handles POST /v1/bookings/:id/attendance with body
// {"status": "attended"|"missed"}.
func (h *BookingHandler) MarkAttendance(c echo.Context) error {
	actorID, role, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	// Values outside the enum are passed through so the service reports
	// them as invalid_status alongside booked/cancelled.
	b, err := h.Svc.MarkAttendance(ctx, actorID, role, id, model.BookingStatus(body.Status))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "attendance marked", "booking": b})
}

// ScheduleBookings handles GET /v1/bookings/schedule/:scheduleId.
// Trainers only see bookings of schedules they lead.
func (h *BookingHandler) ScheduleBookings(c echo.Context) error {
	actorID, role, ok := identity(c)
	if !ok {
		return unauthorized(c)
	}
	scheduleID, ok := parseID(c, "scheduleId")
	if !ok {
		return badRequest(c, "invalid schedule id")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	list, err := h.Svc.ListBySchedule(ctx, actorID, role, scheduleID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, bookingsOrEmpty(list))
}

// BranchBookings handles GET /v1/bookings/branch/:branchId.
func (h *BookingHandler) BranchBookings(c echo.Context) error {
	branchID, ok := parseID(c, "branchId")
	if !ok {
		return badRequest(c, "invalid branch id")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	list, err := h.Svc.ListByBranch(ctx, branchID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, bookingsOrEmpty(list))
}

// TrainerSchedules handles GET /v1/bookings/trainer/schedules.
func (h *BookingHandler) TrainerSchedules(c echo.Context) error {
	trainerID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	list, err := h.Svc.TrainerSchedules(ctx, trainerID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, schedulesOrEmpty(list))
}

// BranchSchedules handles GET /v1/bookings/branch/:branchId/schedules.
func (h *BookingHandler) BranchSchedules(c echo.Context) error {
	branchID, ok := parseID(c, "branchId")
	if !ok {
		return badRequest(c, "invalid branch id")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	list, err := h.Svc.BranchSchedules(ctx, branchID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, schedulesOrEmpty(list))
}

func bookingsOrEmpty(list []model.SessionBooking) []model.SessionBooking {
	if list == nil {
		return []model.SessionBooking{}
	}
	return list
}

func schedulesOrEmpty(list []model.Schedule) []model.Schedule {
	if list == nil {
		return []model.Schedule{}
	}
	return list
}
