package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
)

func TestIsDuplicate(t *testing.T) {
	t.Parallel()

	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry '3:7' for key 'uq_bookings_active'"}
	if !isDuplicate(dup) {
		t.Fatal("1062 must be detected")
	}
	if !isDuplicate(fmt.Errorf("insert booking: %w", dup)) {
		t.Fatal("wrapped 1062 must be detected")
	}
	if isDuplicate(&mysql.MySQLError{Number: 1452}) {
		t.Fatal("foreign key errors are not duplicates")
	}
	if isDuplicate(errors.New("Duplicate entry")) {
		t.Fatal("plain errors must not match on text")
	}
}

func TestIsMissingParent(t *testing.T) {
	t.Parallel()

	if !isMissingParent(&mysql.MySQLError{Number: 1452}) {
		t.Fatal("1452 must be detected")
	}
	if isMissingParent(&mysql.MySQLError{Number: 1062}) {
		t.Fatal("duplicate entry is not a missing parent")
	}
}
