package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/iliyamo/branch-scheduler/internal/conflict"
	"github.com/iliyamo/branch-scheduler/internal/lock"
	"github.com/iliyamo/branch-scheduler/internal/model"
	"github.com/iliyamo/branch-scheduler/internal/queue"
	"github.com/iliyamo/branch-scheduler/internal/repository"
)

// ScheduleInput carries the fields of a new schedule.
type ScheduleInput struct {
	ClassID   uint64
	RoomID    uint64
	TrainerID uint64
	BranchID  uint64
	StartTime time.Time
	EndTime   time.Time
}

// SchedulePatch carries the fields an update may change.  Nil fields
// keep their stored value.
type SchedulePatch struct {
	ClassID   *uint64
	RoomID    *uint64
	TrainerID *uint64
	BranchID  *uint64
	StartTime *time.Time
	EndTime   *time.Time
}

// ScheduleService creates, updates and deletes schedules while keeping
// every room and every trainer free of overlapping sessions.
//
// The conflict check and the write run under the room and trainer keys
// of the target schedule, so two writers touching the same room or the
// same trainer are serialized.  Updates and deletes additionally hold
// the schedule's own key, always taken before the resource keys.
type ScheduleService struct {
	schedules ScheduleStore
	refs      ReferenceFinder
	users     UserFinder
	locker    lock.Locker
	events    EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewScheduleService wires dependencies for schedule operations.  A nil
// publisher disables events and a nil logger falls back to slog.Default.
func NewScheduleService(schedules ScheduleStore, refs ReferenceFinder, users UserFinder, locker lock.Locker, events EventPublisher, logger *slog.Logger) *ScheduleService {
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &ScheduleService{
		schedules: schedules,
		refs:      refs,
		users:     users,
		locker:    locker,
		events:    events,
		logger:    defaultLogger(logger),
		now:       time.Now,
	}
}

func (s *ScheduleService) log(operation string, attrs ...any) *slog.Logger {
	return serviceLogger(s.logger, "ScheduleService", operation, attrs...)
}

// Create validates references and the interval, then persists the
// schedule unless it overlaps an existing one on the same room or
// trainer.  On conflict the returned error is a *ConflictError.
func (s *ScheduleService) Create(ctx context.Context, in ScheduleInput) (model.Schedule, error) {
	logger := s.log("create", "room_id", in.RoomID, "trainer_id", in.TrainerID)

	if err := s.resolve(ctx, in.ClassID, in.RoomID, in.TrainerID, in.BranchID, ErrReferenceNotFound); err != nil {
		logFailure(ctx, logger, "schedule rejected", err)
		return model.Schedule{}, err
	}
	sched := model.Schedule{
		ClassID:   in.ClassID,
		RoomID:    in.RoomID,
		TrainerID: in.TrainerID,
		BranchID:  in.BranchID,
		StartTime: in.StartTime.UTC(),
		EndTime:   in.EndTime.UTC(),
	}
	if !interval(sched).Valid() {
		return model.Schedule{}, ErrIntervalInvalid
	}

	release, err := s.locker.Acquire(ctx, conflict.Keys(sched)...)
	if err != nil {
		logger.ErrorContext(ctx, "failed to lock schedule resources", "error", err)
		return model.Schedule{}, fmt.Errorf("lock schedule resources: %w", err)
	}
	defer release()

	if err := s.checkConflicts(ctx, sched); err != nil {
		logFailure(ctx, logger, "schedule rejected", err)
		return model.Schedule{}, err
	}
	if err := s.schedules.Create(ctx, &sched); err != nil {
		logger.ErrorContext(ctx, "failed to create schedule", "error", err)
		return model.Schedule{}, fmt.Errorf("create schedule: %w", err)
	}
	logger.InfoContext(ctx, "schedule created", "schedule_id", sched.ID)
	s.publish(ctx, queue.ScheduleCreated, sched, 0)
	return sched, nil
}

// Update applies patch to the schedule with the given id.  The result
// is conflict-checked against schedules sharing the (possibly new) room
// or trainer, excluding the schedule itself; on any failure nothing is
// written.
func (s *ScheduleService) Update(ctx context.Context, id uint64, patch SchedulePatch) (model.Schedule, error) {
	logger := s.log("update", "schedule_id", id)

	releaseSelf, err := s.locker.Acquire(ctx, scheduleKey(id))
	if err != nil {
		return model.Schedule{}, fmt.Errorf("lock schedule: %w", err)
	}
	defer releaseSelf()

	current, err := s.schedules.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Schedule{}, ErrNotFound
		}
		return model.Schedule{}, fmt.Errorf("load schedule: %w", err)
	}

	next := applyPatch(current, patch)
	if err := s.resolvePatch(ctx, patch); err != nil {
		logFailure(ctx, logger, "schedule update rejected", err)
		return model.Schedule{}, err
	}
	if !interval(next).Valid() {
		return model.Schedule{}, ErrIntervalInvalid
	}

	release, err := s.locker.Acquire(ctx, conflict.Keys(next)...)
	if err != nil {
		logger.ErrorContext(ctx, "failed to lock schedule resources", "error", err)
		return model.Schedule{}, fmt.Errorf("lock schedule resources: %w", err)
	}
	defer release()

	if err := s.checkConflicts(ctx, next); err != nil {
		logFailure(ctx, logger, "schedule update rejected", err)
		return model.Schedule{}, err
	}
	if err := s.schedules.Update(ctx, next); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Schedule{}, ErrNotFound
		}
		logger.ErrorContext(ctx, "failed to update schedule", "error", err)
		return model.Schedule{}, fmt.Errorf("update schedule: %w", err)
	}
	logger.InfoContext(ctx, "schedule updated")
	s.publish(ctx, queue.ScheduleUpdated, next, 0)
	return next, nil
}

// Delete removes the schedule and every booking that references it in
// one transaction, returning how many bookings were removed.
func (s *ScheduleService) Delete(ctx context.Context, id uint64) (int64, error) {
	logger := s.log("delete", "schedule_id", id)

	release, err := s.locker.Acquire(ctx, scheduleKey(id))
	if err != nil {
		return 0, fmt.Errorf("lock schedule: %w", err)
	}
	defer release()

	current, err := s.schedules.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("load schedule: %w", err)
	}
	removed, err := s.schedules.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrNotFound
		}
		logger.ErrorContext(ctx, "failed to delete schedule", "error", err)
		return 0, fmt.Errorf("delete schedule: %w", err)
	}
	logger.InfoContext(ctx, "schedule deleted", "removed_bookings", removed)
	s.publish(ctx, queue.ScheduleDeleted, current, removed)
	return removed, nil
}

// Get returns one schedule.
func (s *ScheduleService) Get(ctx context.Context, id uint64) (model.Schedule, error) {
	sched, err := s.schedules.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Schedule{}, ErrNotFound
		}
		return model.Schedule{}, fmt.Errorf("load schedule: %w", err)
	}
	return sched, nil
}

// List returns schedules matching the filter ordered by start time.
func (s *ScheduleService) List(ctx context.Context, f model.ScheduleFilter) ([]model.Schedule, error) {
	list, err := s.schedules.List(ctx, f)
	if err != nil {
		s.log("list").ErrorContext(ctx, "failed to list schedules", "error", err)
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return list, nil
}

// checkConflicts loads the room and trainer domains of sched and fails
// with a *ConflictError if any other schedule overlaps it.
func (s *ScheduleService) checkConflicts(ctx context.Context, sched model.Schedule) error {
	byRoom, err := s.schedules.ListByRoom(ctx, sched.RoomID)
	if err != nil {
		return fmt.Errorf("list room schedules: %w", err)
	}
	byTrainer, err := s.schedules.ListByTrainer(ctx, sched.TrainerID)
	if err != nil {
		return fmt.Errorf("list trainer schedules: %w", err)
	}
	if hits := conflict.Find(interval(sched), sched.ID, byRoom, byTrainer); len(hits) > 0 {
		return &ConflictError{Conflicts: hits}
	}
	return nil
}

// resolve checks that every reference exists, reporting failures as kind.
// The trainer must hold the Trainer role.
func (s *ScheduleService) resolve(ctx context.Context, classID, roomID, trainerID, branchID uint64, kind error) error {
	if _, err := s.refs.FindClass(ctx, classID); err != nil {
		return refError(kind, "class", classID, err)
	}
	if _, err := s.refs.FindRoom(ctx, roomID); err != nil {
		return refError(kind, "room", roomID, err)
	}
	if _, err := s.users.FindUserByRoleAndID(ctx, trainerID, model.RoleTrainer); err != nil {
		return refError(kind, "trainer", trainerID, err)
	}
	if _, err := s.refs.FindBranch(ctx, branchID); err != nil {
		return refError(kind, "branch", branchID, err)
	}
	return nil
}

// resolvePatch checks only the references the patch supplies.
func (s *ScheduleService) resolvePatch(ctx context.Context, p SchedulePatch) error {
	if p.ClassID != nil {
		if _, err := s.refs.FindClass(ctx, *p.ClassID); err != nil {
			return refError(ErrReferenceInvalid, "class", *p.ClassID, err)
		}
	}
	if p.RoomID != nil {
		if _, err := s.refs.FindRoom(ctx, *p.RoomID); err != nil {
			return refError(ErrReferenceInvalid, "room", *p.RoomID, err)
		}
	}
	if p.TrainerID != nil {
		if _, err := s.users.FindUserByRoleAndID(ctx, *p.TrainerID, model.RoleTrainer); err != nil {
			return refError(ErrReferenceInvalid, "trainer", *p.TrainerID, err)
		}
	}
	if p.BranchID != nil {
		if _, err := s.refs.FindBranch(ctx, *p.BranchID); err != nil {
			return refError(ErrReferenceInvalid, "branch", *p.BranchID, err)
		}
	}
	return nil
}

func (s *ScheduleService) publish(ctx context.Context, typ queue.EventType, sched model.Schedule, removed int64) {
	ev := queue.Event{
		Type:            typ,
		ScheduleID:      sched.ID,
		RoomID:          sched.RoomID,
		TrainerID:       sched.TrainerID,
		BranchID:        sched.BranchID,
		RemovedBookings: removed,
		OccurredAt:      s.now().UTC(),
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log("publish", "event", string(typ)).WarnContext(ctx, "event not published", "error", err)
	}
}

func refError(kind error, what string, id uint64, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s %d", kind, what, id)
	}
	return fmt.Errorf("resolve %s %d: %w", what, id, err)
}

func applyPatch(s model.Schedule, p SchedulePatch) model.Schedule {
	if p.ClassID != nil {
		s.ClassID = *p.ClassID
	}
	if p.RoomID != nil {
		s.RoomID = *p.RoomID
	}
	if p.TrainerID != nil {
		s.TrainerID = *p.TrainerID
	}
	if p.BranchID != nil {
		s.BranchID = *p.BranchID
	}
	if p.StartTime != nil {
		s.StartTime = p.StartTime.UTC()
	}
	if p.EndTime != nil {
		s.EndTime = p.EndTime.UTC()
	}
	return s
}

func interval(s model.Schedule) conflict.Interval {
	return conflict.Interval{Start: s.StartTime, End: s.EndTime}
}

func scheduleKey(id uint64) string { return "schedule:" + strconv.FormatUint(id, 10) }
