// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow the service layer to tell
// "row does not exist" apart from "row exists but the write lost a race"
// without inspecting driver errors itself.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup by primary key (or by key plus
// a constraint such as role) matches no row.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a unique key.  For
// session bookings this is the active (member, schedule) constraint.
var ErrDuplicate = errors.New("duplicate")

// ErrStaleStatus is returned by compare-and-swap status updates when
// the row exists but no longer holds the expected status.
var ErrStaleStatus = errors.New("stale status")

// ErrEmailExists indicates a registration with an email already in use.
var ErrEmailExists = errors.New("email already exists")

const (
	mysqlDuplicateEntry  = 1062 // ER_DUP_ENTRY
	mysqlNoReferencedRow = 1452 // ER_NO_REFERENCED_ROW_2
)

// isDuplicate reports whether err is a MySQL unique-key violation.
func isDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}

// isMissingParent reports whether an insert referenced a row that does
// not exist (e.g. a schedule deleted while a booking was in flight).
func isMissingParent(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlNoReferencedRow
}
