// Package repository contains data access logic for the scheduler.  This
// file covers the schedules table.  Instants are stored as DATETIME(6)
// in UTC; callers pass and receive time.Time values.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/branch-scheduler/internal/model"
)

// ScheduleRepo manages persistence for schedules.
type ScheduleRepo struct {
	db *sql.DB
}

// NewScheduleRepo constructs a ScheduleRepo with the given DB handle.
func NewScheduleRepo(db *sql.DB) *ScheduleRepo {
	return &ScheduleRepo{db: db}
}

const scheduleColumns = `id, class_id, room_id, trainer_id, branch_id, start_time, end_time`

// Create inserts a new schedule and assigns the generated ID back to s.
func (r *ScheduleRepo) Create(ctx context.Context, s *model.Schedule) error {
	const q = `INSERT INTO schedules (class_id, room_id, trainer_id, branch_id, start_time, end_time) VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.ClassID, s.RoomID, s.TrainerID, s.BranchID, s.StartTime.UTC(), s.EndTime.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// GetByID retrieves a schedule by its ID.  It returns ErrNotFound if
// there is no matching row.
func (r *ScheduleRepo) GetByID(ctx context.Context, id uint64) (model.Schedule, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE id = ?`, id)
	var s model.Schedule
	if err := row.Scan(&s.ID, &s.ClassID, &s.RoomID, &s.TrainerID, &s.BranchID, &s.StartTime, &s.EndTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Schedule{}, ErrNotFound
		}
		return model.Schedule{}, err
	}
	return s, nil
}

// Update overwrites every mutable column of the schedule.  It returns
// ErrNotFound when the row vanished between read and write.
func (r *ScheduleRepo) Update(ctx context.Context, s model.Schedule) error {
	const q = `UPDATE schedules
               SET class_id = ?, room_id = ?, trainer_id = ?, branch_id = ?, start_time = ?, end_time = ?
               WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, s.ClassID, s.RoomID, s.TrainerID, s.BranchID, s.StartTime.UTC(), s.EndTime.UTC(), s.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	// MySQL reports 0 affected rows when values are unchanged, so tell
	// "no change" apart from "missing".
	var one int
	if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM schedules WHERE id = ?`, s.ID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Delete removes a schedule together with every booking that references
// it, inside one transaction.  It returns the number of bookings removed.
func (r *ScheduleRepo) Delete(ctx context.Context, id uint64) (removed int64, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	var one int
	if err = tx.QueryRowContext(ctx, `SELECT 1 FROM schedules WHERE id = ? FOR UPDATE`, id).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrNotFound
		}
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM session_bookings WHERE schedule_id = ?`, id)
	if err != nil {
		return 0, err
	}
	removed, _ = res.RowsAffected()
	if _, err = tx.ExecContext(ctx, `DELETE FROM schedules WHERE id = ?`, id); err != nil {
		return 0, err
	}
	return removed, nil
}

// ListByRoom returns every schedule in the room, ordered by start time.
func (r *ScheduleRepo) ListByRoom(ctx context.Context, roomID uint64) ([]model.Schedule, error) {
	return r.query(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE room_id = ? ORDER BY start_time ASC`, roomID)
}

// ListByTrainer returns every schedule led by the trainer, ordered by start time.
func (r *ScheduleRepo) ListByTrainer(ctx context.Context, trainerID uint64) ([]model.Schedule, error) {
	return r.query(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE trainer_id = ? ORDER BY start_time ASC`, trainerID)
}

// List returns schedules matching every non-nil field of the filter.
func (r *ScheduleRepo) List(ctx context.Context, f model.ScheduleFilter) ([]model.Schedule, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.BranchID != nil {
		where = append(where, "branch_id = ?")
		args = append(args, *f.BranchID)
	}
	if f.TrainerID != nil {
		where = append(where, "trainer_id = ?")
		args = append(args, *f.TrainerID)
	}
	if f.RoomID != nil {
		where = append(where, "room_id = ?")
		args = append(args, *f.RoomID)
	}
	if f.ClassID != nil {
		where = append(where, "class_id = ?")
		args = append(args, *f.ClassID)
	}
	q := `SELECT ` + scheduleColumns + ` FROM schedules`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY start_time ASC"
	return r.query(ctx, q, args...)
}

func (r *ScheduleRepo) query(ctx context.Context, q string, args ...interface{}) ([]model.Schedule, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make([]model.Schedule, 0)
	for rows.Next() {
		var s model.Schedule
		if err := rows.Scan(&s.ID, &s.ClassID, &s.RoomID, &s.TrainerID, &s.BranchID, &s.StartTime, &s.EndTime); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
