package model

import (
	"errors"
	"time"
)

// BookingStatus is the lifecycle state of a SessionBooking.
type BookingStatus string

const (
	BookingBooked    BookingStatus = "booked"
	BookingCancelled BookingStatus = "cancelled"
	BookingAttended  BookingStatus = "attended"
	BookingMissed    BookingStatus = "missed"
)

// ErrUnknownStatus is returned by ParseBookingStatus for values outside the enum.
var ErrUnknownStatus = errors.New("unknown booking status")

// ParseBookingStatus validates a raw status string.
func ParseBookingStatus(s string) (BookingStatus, error) {
	switch st := BookingStatus(s); st {
	case BookingBooked, BookingCancelled, BookingAttended, BookingMissed:
		return st, nil
	}
	return "", ErrUnknownStatus
}

// Terminal reports whether no transition is defined out of s.
func (s BookingStatus) Terminal() bool {
	switch s {
	case BookingCancelled, BookingAttended, BookingMissed:
		return true
	}
	return false
}

// CanTransition reports whether booked -> to is a defined edge.  Only
// BookingBooked has outgoing edges; every terminal state rejects.
func (s BookingStatus) CanTransition(to BookingStatus) bool {
	if s != BookingBooked {
		return false
	}
	switch to {
	case BookingCancelled, BookingAttended, BookingMissed:
		return true
	}
	return false
}

// SessionBooking records one member's claim on a schedule.  At most one
// booking with a status other than cancelled may exist per
// (MemberID, ScheduleID).
//
// Fields:
//
//	ID         – primary key identifier.
//	MemberID   – user (role Member) who booked.
//	ScheduleID – schedule being booked.
//	Status     – booked, cancelled, attended or missed.
//	CreatedAt  – creation timestamp.
type SessionBooking struct {
	ID         uint64        `json:"id"`          // session_bookings.id
	MemberID   uint64        `json:"member_id"`   // session_bookings.member_id
	ScheduleID uint64        `json:"schedule_id"` // session_bookings.schedule_id
	Status     BookingStatus `json:"status"`      // session_bookings.status
	CreatedAt  time.Time     `json:"created_at"`  // session_bookings.created_at
}
