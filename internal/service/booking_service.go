package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/iliyamo/branch-scheduler/internal/lock"
	"github.com/iliyamo/branch-scheduler/internal/model"
	"github.com/iliyamo/branch-scheduler/internal/queue"
	"github.com/iliyamo/branch-scheduler/internal/repository"
)

// BookingService owns the session booking lifecycle:
//
//	booked -> cancelled        (owning member)
//	booked -> attended|missed  (assigned trainer or an admin)
//
// Every other transition fails with ErrInvalidTransition.
type BookingService struct {
	bookings  BookingStore
	schedules ScheduleStore
	users     UserFinder
	locker    lock.Locker
	events    EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewBookingService wires dependencies for booking operations.
func NewBookingService(bookings BookingStore, schedules ScheduleStore, users UserFinder, locker lock.Locker, events EventPublisher, logger *slog.Logger) *BookingService {
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &BookingService{
		bookings:  bookings,
		schedules: schedules,
		users:     users,
		locker:    locker,
		events:    events,
		logger:    defaultLogger(logger),
		now:       time.Now,
	}
}

func (s *BookingService) log(operation string, attrs ...any) *slog.Logger {
	return serviceLogger(s.logger, "BookingService", operation, attrs...)
}

// Book creates a booked SessionBooking for the member.  Concurrent
// calls for the same (member, schedule) are serialized on a lock key
// and backed by a unique index, so exactly one of them succeeds.
func (s *BookingService) Book(ctx context.Context, memberID, scheduleID uint64) (model.SessionBooking, error) {
	logger := s.log("book", "member_id", memberID, "schedule_id", scheduleID)

	sched, err := s.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return model.SessionBooking{}, notFound(err, "load schedule")
	}
	if _, err := s.users.FindUserByRoleAndID(ctx, memberID, model.RoleMember); err != nil {
		return model.SessionBooking{}, notFound(err, "load member")
	}

	release, err := s.locker.Acquire(ctx, bookingKey(memberID, scheduleID))
	if err != nil {
		logger.ErrorContext(ctx, "failed to lock booking", "error", err)
		return model.SessionBooking{}, fmt.Errorf("lock booking: %w", err)
	}
	defer release()

	if _, err := s.bookings.FindActive(ctx, memberID, scheduleID); err == nil {
		logFailure(ctx, logger, "booking rejected", ErrAlreadyBooked)
		return model.SessionBooking{}, ErrAlreadyBooked
	} else if !errors.Is(err, repository.ErrNotFound) {
		return model.SessionBooking{}, fmt.Errorf("check active booking: %w", err)
	}

	b := model.SessionBooking{
		MemberID:   memberID,
		ScheduleID: scheduleID,
		Status:     model.BookingBooked,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.bookings.Create(ctx, &b); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			logFailure(ctx, logger, "booking rejected", ErrAlreadyBooked)
			return model.SessionBooking{}, ErrAlreadyBooked
		case errors.Is(err, repository.ErrNotFound):
			return model.SessionBooking{}, ErrNotFound
		}
		logger.ErrorContext(ctx, "failed to create booking", "error", err)
		return model.SessionBooking{}, fmt.Errorf("create booking: %w", err)
	}
	logger.InfoContext(ctx, "session booked", "booking_id", b.ID)
	s.publish(ctx, queue.BookingCreated, b, sched, memberID)
	return b, nil
}

// Cancel moves the member's own booking to cancelled.
func (s *BookingService) Cancel(ctx context.Context, memberID, bookingID uint64) (model.SessionBooking, error) {
	logger := s.log("cancel", "member_id", memberID, "booking_id", bookingID)

	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return model.SessionBooking{}, notFound(err, "load booking")
	}
	if b.MemberID != memberID {
		logFailure(ctx, logger, "cancel rejected", ErrForbidden)
		return model.SessionBooking{}, ErrForbidden
	}
	b, err = s.transition(ctx, b, model.BookingCancelled)
	if err != nil {
		logFailure(ctx, logger, "cancel rejected", err)
		return model.SessionBooking{}, err
	}
	logger.InfoContext(ctx, "booking cancelled")
	s.publish(ctx, queue.BookingCancelled, b, model.Schedule{ID: b.ScheduleID}, memberID)
	return b, nil
}

// MarkAttendance records whether the member attended.  Admins may mark
// any booking; a trainer only bookings on schedules they lead.
func (s *BookingService) MarkAttendance(ctx context.Context, actorID uint64, actorRole model.Role, bookingID uint64, status model.BookingStatus) (model.SessionBooking, error) {
	logger := s.log("mark_attendance", "actor_id", actorID, "booking_id", bookingID, "status", string(status))

	if status != model.BookingAttended && status != model.BookingMissed {
		return model.SessionBooking{}, ErrInvalidStatus
	}
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return model.SessionBooking{}, notFound(err, "load booking")
	}
	sched, err := s.schedules.GetByID(ctx, b.ScheduleID)
	if err != nil {
		return model.SessionBooking{}, notFound(err, "load schedule")
	}

	switch actorRole {
	case model.RoleSuperAdmin, model.RoleBranchAdmin:
	case model.RoleTrainer:
		if sched.TrainerID != actorID {
			logFailure(ctx, logger, "attendance rejected", ErrForbidden)
			return model.SessionBooking{}, ErrForbidden
		}
	case model.RoleMember:
		return model.SessionBooking{}, ErrForbidden
	default:
		return model.SessionBooking{}, ErrForbidden
	}

	b, err = s.transition(ctx, b, status)
	if err != nil {
		logFailure(ctx, logger, "attendance rejected", err)
		return model.SessionBooking{}, err
	}
	logger.InfoContext(ctx, "attendance marked")
	typ := queue.BookingAttended
	if status == model.BookingMissed {
		typ = queue.BookingMissed
	}
	s.publish(ctx, typ, b, sched, actorID)
	return b, nil
}

// transition performs the compare-and-swap from the booking's current
// status to `to`.  Losing a race to another writer reads as an invalid
// transition, the same as finding a terminal status up front.
func (s *BookingService) transition(ctx context.Context, b model.SessionBooking, to model.BookingStatus) (model.SessionBooking, error) {
	if !b.Status.CanTransition(to) {
		return model.SessionBooking{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, to)
	}
	if err := s.bookings.UpdateStatus(ctx, b.ID, b.Status, to); err != nil {
		switch {
		case errors.Is(err, repository.ErrStaleStatus):
			return model.SessionBooking{}, fmt.Errorf("%w: status changed concurrently", ErrInvalidTransition)
		case errors.Is(err, repository.ErrNotFound):
			return model.SessionBooking{}, ErrNotFound
		case errors.Is(err, repository.ErrDuplicate):
			return model.SessionBooking{}, ErrAlreadyBooked
		}
		return model.SessionBooking{}, fmt.Errorf("update booking status: %w", err)
	}
	b.Status = to
	return b, nil
}

// ListByMember returns the member's bookings.
func (s *BookingService) ListByMember(ctx context.Context, memberID uint64) ([]model.SessionBooking, error) {
	return s.bookings.ListByMember(ctx, memberID)
}

// ListBySchedule returns every booking on a schedule.  A trainer may
// only list schedules they lead.
func (s *BookingService) ListBySchedule(ctx context.Context, actorID uint64, actorRole model.Role, scheduleID uint64) ([]model.SessionBooking, error) {
	sched, err := s.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, notFound(err, "load schedule")
	}
	switch actorRole {
	case model.RoleSuperAdmin, model.RoleBranchAdmin:
	case model.RoleTrainer:
		if sched.TrainerID != actorID {
			return nil, ErrForbidden
		}
	case model.RoleMember:
		return nil, ErrForbidden
	default:
		return nil, ErrForbidden
	}
	return s.bookings.ListBySchedule(ctx, scheduleID)
}

// ListByBranch returns bookings on every schedule of the branch.
func (s *BookingService) ListByBranch(ctx context.Context, branchID uint64) ([]model.SessionBooking, error) {
	return s.bookings.ListByBranch(ctx, branchID)
}

// TrainerSchedules returns the schedules led by the trainer.
func (s *BookingService) TrainerSchedules(ctx context.Context, trainerID uint64) ([]model.Schedule, error) {
	return s.schedules.List(ctx, model.ScheduleFilter{TrainerID: &trainerID})
}

// BranchSchedules returns the schedules of a branch.
func (s *BookingService) BranchSchedules(ctx context.Context, branchID uint64) ([]model.Schedule, error) {
	return s.schedules.List(ctx, model.ScheduleFilter{BranchID: &branchID})
}

func (s *BookingService) publish(ctx context.Context, typ queue.EventType, b model.SessionBooking, sched model.Schedule, actorID uint64) {
	ev := queue.Event{
		Type:       typ,
		ScheduleID: b.ScheduleID,
		BookingID:  b.ID,
		MemberID:   b.MemberID,
		ActorID:    actorID,
		RoomID:     sched.RoomID,
		TrainerID:  sched.TrainerID,
		BranchID:   sched.BranchID,
		Status:     string(b.Status),
		OccurredAt: s.now().UTC(),
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log("publish", "event", string(typ)).WarnContext(ctx, "event not published", "error", err)
	}
}

// notFound maps a repository miss to ErrNotFound and wraps anything else.
func notFound(err error, op string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func bookingKey(memberID, scheduleID uint64) string {
	return "booking:" + strconv.FormatUint(memberID, 10) + ":" + strconv.FormatUint(scheduleID, 10)
}
