package service

import (
	"context"

	"github.com/iliyamo/branch-scheduler/internal/model"
	"github.com/iliyamo/branch-scheduler/internal/queue"
)

// UserFinder resolves users, optionally constrained to a role.
type UserFinder interface {
	FindUser(ctx context.Context, id uint64) (model.User, error)
	FindUserByRoleAndID(ctx context.Context, id uint64, role model.Role) (model.User, error)
}

// ReferenceFinder resolves the reference entities a schedule points at.
type ReferenceFinder interface {
	FindBranch(ctx context.Context, id uint64) (model.Branch, error)
	FindRoom(ctx context.Context, id uint64) (model.Room, error)
	FindClass(ctx context.Context, id uint64) (model.Class, error)
}

// ScheduleStore persists schedules and lists them per exclusivity domain.
type ScheduleStore interface {
	Create(ctx context.Context, s *model.Schedule) error
	GetByID(ctx context.Context, id uint64) (model.Schedule, error)
	Update(ctx context.Context, s model.Schedule) error
	Delete(ctx context.Context, id uint64) (removedBookings int64, err error)
	ListByRoom(ctx context.Context, roomID uint64) ([]model.Schedule, error)
	ListByTrainer(ctx context.Context, trainerID uint64) ([]model.Schedule, error)
	List(ctx context.Context, f model.ScheduleFilter) ([]model.Schedule, error)
}

// BookingStore persists bookings.  UpdateStatus must be a single-row
// compare-and-swap on the current status.
type BookingStore interface {
	Create(ctx context.Context, b *model.SessionBooking) error
	GetByID(ctx context.Context, id uint64) (model.SessionBooking, error)
	FindActive(ctx context.Context, memberID, scheduleID uint64) (model.SessionBooking, error)
	UpdateStatus(ctx context.Context, id uint64, from, to model.BookingStatus) error
	ListByMember(ctx context.Context, memberID uint64) ([]model.SessionBooking, error)
	ListBySchedule(ctx context.Context, scheduleID uint64) ([]model.SessionBooking, error)
	ListByBranch(ctx context.Context, branchID uint64) ([]model.SessionBooking, error)
}

// EventPublisher emits lifecycle events after a write commits.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}
