package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/branch-scheduler/internal/model"
)

// BookingRepo provides persistence for session bookings.  Double
// booking is ultimately prevented by the uq_bookings_active unique key;
// Create maps its violation to ErrDuplicate.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `b.id, b.member_id, b.schedule_id, b.status, b.created_at`

// Create inserts a booking and populates its generated ID.  When a
// non-cancelled booking already exists for the same member and
// schedule it returns ErrDuplicate; a schedule removed concurrently
// yields ErrNotFound.
func (r *BookingRepo) Create(ctx context.Context, b *model.SessionBooking) error {
	const q = `INSERT INTO session_bookings (member_id, schedule_id, status, created_at) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, b.MemberID, b.ScheduleID, string(b.Status), b.CreatedAt.UTC())
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		if isMissingParent(err) {
			return ErrNotFound
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// GetByID returns a booking or ErrNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (model.SessionBooking, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM session_bookings b WHERE b.id = ?`, id)
	return scanBooking(row)
}

// FindActive returns the non-cancelled booking for the pair, or ErrNotFound.
func (r *BookingRepo) FindActive(ctx context.Context, memberID, scheduleID uint64) (model.SessionBooking, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM session_bookings b
         WHERE b.member_id = ? AND b.schedule_id = ? AND b.status <> 'cancelled' LIMIT 1`,
		memberID, scheduleID)
	return scanBooking(row)
}

// UpdateStatus is a single-row compare-and-swap: the status moves from
// `from` to `to` only if the row still holds `from`.  It returns
// ErrNotFound for a missing row and ErrStaleStatus when another writer
// changed the status first.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id uint64, from, to model.BookingStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE session_bookings SET status = ? WHERE id = ? AND status = ?`,
		string(to), id, string(from))
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrStaleStatus
}

// ListByMember returns a member's bookings, newest first.
func (r *BookingRepo) ListByMember(ctx context.Context, memberID uint64) ([]model.SessionBooking, error) {
	return r.query(ctx, `SELECT `+bookingColumns+` FROM session_bookings b
                         WHERE b.member_id = ? ORDER BY b.created_at DESC, b.id DESC`, memberID)
}

// ListBySchedule returns all bookings for a schedule, oldest first.
func (r *BookingRepo) ListBySchedule(ctx context.Context, scheduleID uint64) ([]model.SessionBooking, error) {
	return r.query(ctx, `SELECT `+bookingColumns+` FROM session_bookings b
                         WHERE b.schedule_id = ? ORDER BY b.created_at ASC, b.id ASC`, scheduleID)
}

// ListByBranch returns bookings on any schedule of the branch.
func (r *BookingRepo) ListByBranch(ctx context.Context, branchID uint64) ([]model.SessionBooking, error) {
	return r.query(ctx, `SELECT `+bookingColumns+` FROM session_bookings b
                         JOIN schedules s ON s.id = b.schedule_id
                         WHERE s.branch_id = ? ORDER BY b.created_at ASC, b.id ASC`, branchID)
}

func (r *BookingRepo) query(ctx context.Context, q string, args ...interface{}) ([]model.SessionBooking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.SessionBooking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (model.SessionBooking, error) {
	var (
		b      model.SessionBooking
		status string
	)
	if err := row.Scan(&b.ID, &b.MemberID, &b.ScheduleID, &status, &b.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.SessionBooking{}, ErrNotFound
		}
		return model.SessionBooking{}, err
	}
	st, err := model.ParseBookingStatus(status)
	if err != nil {
		return model.SessionBooking{}, err
	}
	b.Status = st
	return b, nil
}
