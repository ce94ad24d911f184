package handler // handler package contains schedule handlers

import (
	"context"  // service interface signatures
	"net/http" // http defines status codes
	"time"     // time is used for parsing timestamps

	"github.com/labstack/echo/v4" // echo provides the web context and JSON helpers

	"github.com/iliyamo/branch-scheduler/internal/model"   // schedule types
	"github.com/iliyamo/branch-scheduler/internal/service" // schedule inputs and domain errors
)

// ScheduleService is the part of service.ScheduleService the HTTP layer uses.
type ScheduleService interface {
	Create(ctx context.Context, in service.ScheduleInput) (model.Schedule, error)
	Update(ctx context.Context, id uint64, patch service.SchedulePatch) (model.Schedule, error)
	Delete(ctx context.Context, id uint64) (int64, error)
	Get(ctx context.Context, id uint64) (model.Schedule, error)
	List(ctx context.Context, f model.ScheduleFilter) ([]model.Schedule, error)
}

// ScheduleHandler exposes schedule CRUD.  Reads are public; writes are
// restricted to admins by the router.
type ScheduleHandler struct {
	Svc ScheduleService
}

// NewScheduleHandler constructs a ScheduleHandler and panics if svc is nil.
func NewScheduleHandler(svc ScheduleService) *ScheduleHandler {
	if svc == nil {
		panic("nil service passed to NewScheduleHandler")
	}
	return &ScheduleHandler{Svc: svc}
}

// scheduleBody is the JSON body of create and update.  Every field is
// optional on update.
type scheduleBody struct {
	ClassID   *uint64 `json:"classId"`
	RoomID    *uint64 `json:"roomId"`
	TrainerID *uint64 `json:"trainerId"`
	BranchID  *uint64 `json:"branchId"`
	StartTime *string `json:"startTime"`
	EndTime   *string `json:"endTime"`
}

// parseTimes decodes the RFC 3339 timestamps present in the body.
func (b scheduleBody) parseTimes() (start, end *time.Time, msg string) {
	if b.StartTime != nil {
		t, err := time.Parse(time.RFC3339, *b.StartTime)
		if err != nil {
			return nil, nil, "invalid startTime format"
		}
		start = &t
	}
	if b.EndTime != nil {
		t, err := time.Parse(time.RFC3339, *b.EndTime)
		if err != nil {
			return nil, nil, "invalid endTime format"
		}
		end = &t
	}
	return start, end, ""
}

// ListSchedules handles GET /v1/schedules.  Optional query filters:
// branchId, trainerId, roomId, classId.
func (h *ScheduleHandler) ListSchedules(c echo.Context) error {
	var f model.ScheduleFilter
	for name, dst := range map[string]**uint64{
		"branchId":  &f.BranchID,
		"trainerId": &f.TrainerID,
		"roomId":    &f.RoomID,
		"classId":   &f.ClassID,
	} {
		v, ok := queryID(c, name)
		if !ok {
			return badRequest(c, "invalid "+name)
		}
		*dst = v
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	list, err := h.Svc.List(ctx, f)
	if err != nil {
		return writeError(c, err)
	}
	if list == nil {
		list = []model.Schedule{}
	}
	return c.JSON(http.StatusOK, list)
}

// GetSchedule handles GET /v1/schedules/:id.
func (h *ScheduleHandler) GetSchedule(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid schedule id")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	sched, err := h.Svc.Get(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, sched)
}

// CreateSchedule handles POST /v1/schedules.  All four references and
// both timestamps are required.  Overlaps on the same room or trainer
// are rejected with 409 and the conflicting schedules.
func (h *ScheduleHandler) CreateSchedule(c echo.Context) error {
	var body scheduleBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.ClassID == nil || body.RoomID == nil || body.TrainerID == nil || body.BranchID == nil {
		return badRequest(c, "classId, roomId, trainerId and branchId are required")
	}
	if body.StartTime == nil || body.EndTime == nil {
		return badRequest(c, "startTime and endTime are required")
	}
	start, end, msg := body.parseTimes()
	if msg != "" {
		return badRequest(c, msg)
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	sched, err := h.Svc.Create(ctx, service.ScheduleInput{
		ClassID:   *body.ClassID,
		RoomID:    *body.RoomID,
		TrainerID: *body.TrainerID,
		BranchID:  *body.BranchID,
		StartTime: *start,
		EndTime:   *end,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, sched)
}

// UpdateSchedule handles PUT /v1/schedules/:id.  Only supplied fields
// change; the merged schedule is checked for conflicts as a whole.
func (h *ScheduleHandler) UpdateSchedule(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid schedule id")
	}
	var body scheduleBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	start, end, msg := body.parseTimes()
	if msg != "" {
		return badRequest(c, msg)
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	sched, err := h.Svc.Update(ctx, id, service.SchedulePatch{
		ClassID:   body.ClassID,
		RoomID:    body.RoomID,
		TrainerID: body.TrainerID,
		BranchID:  body.BranchID,
		StartTime: start,
		EndTime:   end,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, sched)
}

// DeleteSchedule handles DELETE /v1/schedules/:id.  Bookings of the
// schedule are removed with it and their count is reported.
func (h *ScheduleHandler) DeleteSchedule(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid schedule id")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	removed, err := h.Svc.Delete(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "schedule deleted", "removed_bookings": removed})
}
