package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/branch-scheduler/internal/model"
)

// ReferenceRepo resolves the branch, room and class ids a schedule
// points at.  Those tables are maintained elsewhere; this repo is
// read-only.
type ReferenceRepo struct{ DB *sql.DB }

func NewReferenceRepo(db *sql.DB) *ReferenceRepo { return &ReferenceRepo{DB: db} }

// FindBranch returns the branch or ErrNotFound.
func (r *ReferenceRepo) FindBranch(ctx context.Context, id uint64) (model.Branch, error) {
	var b model.Branch
	err := r.DB.QueryRowContext(ctx, "SELECT id, name FROM branches WHERE id=?", id).Scan(&b.ID, &b.Name)
	return b, notFound(err)
}

// FindRoom returns the room or ErrNotFound.
func (r *ReferenceRepo) FindRoom(ctx context.Context, id uint64) (model.Room, error) {
	var rm model.Room
	err := r.DB.QueryRowContext(ctx, "SELECT id, branch_id, name FROM rooms WHERE id=?", id).
		Scan(&rm.ID, &rm.BranchID, &rm.Name)
	return rm, notFound(err)
}

// FindClass returns the class or ErrNotFound.
func (r *ReferenceRepo) FindClass(ctx context.Context, id uint64) (model.Class, error) {
	var c model.Class
	err := r.DB.QueryRowContext(ctx, "SELECT id, name FROM classes WHERE id=?", id).Scan(&c.ID, &c.Name)
	return c, notFound(err)
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
