// Package service holds the scheduling and booking rules.  Services
// depend on small store interfaces so they can be exercised with
// in-memory fakes; the MySQL repositories satisfy them in production.
package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/branch-scheduler/internal/model"
)

var (
	// ErrReferenceNotFound is returned when a referenced class, room,
	// branch or trainer does not resolve on create.
	ErrReferenceNotFound = errors.New("reference not found")
	// ErrReferenceInvalid is returned when an update names a reference
	// that does not resolve or fails its role constraint.
	ErrReferenceInvalid = errors.New("reference invalid")
	// ErrIntervalInvalid is returned when end is not after start.
	ErrIntervalInvalid = errors.New("end time must be after start time")
	// ErrScheduleConflict is returned when a schedule would overlap
	// another one on the same room or trainer.
	ErrScheduleConflict = errors.New("schedule conflict")
	// ErrAlreadyBooked is returned when the member already holds a
	// non-cancelled booking for the schedule.
	ErrAlreadyBooked = errors.New("already booked")
	// ErrInvalidTransition is returned when the booking is not in a
	// state that allows the requested change.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrInvalidStatus is returned for attendance values other than
	// attended or missed.
	ErrInvalidStatus = errors.New("invalid status")
	ErrForbidden     = errors.New("forbidden")
	// ErrUnauthenticated is returned when a token is missing, invalid,
	// expired or names an unknown user.
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = errors.New("not found")
)

// ConflictError lists the schedules a write collided with.  It matches
// ErrScheduleConflict under errors.Is.
type ConflictError struct {
	Conflicts []model.Schedule
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("schedule conflict with %d existing schedule(s)", len(e.Conflicts))
}

func (e *ConflictError) Is(target error) bool { return target == ErrScheduleConflict }

// ErrorKind maps sentinel errors to a stable machine code.  The same
// codes are used in logs, HTTP error bodies and websocket error events.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrReferenceNotFound):
		return "reference_not_found"
	case errors.Is(err, ErrReferenceInvalid):
		return "reference_invalid"
	case errors.Is(err, ErrIntervalInvalid):
		return "interval_invalid"
	case errors.Is(err, ErrScheduleConflict):
		return "schedule_conflict"
	case errors.Is(err, ErrAlreadyBooked):
		return "already_booked"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrInvalidStatus):
		return "invalid_status"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	}
	return "internal"
}
