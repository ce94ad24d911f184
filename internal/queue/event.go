// Package queue defines message payloads exchanged over the message broker.
package queue

import "time"

// EventType names a schedule or booking lifecycle event.  The string
// doubles as the AMQP message type header.
type EventType string

const (
	ScheduleCreated  EventType = "schedule.created"
	ScheduleUpdated  EventType = "schedule.updated"
	ScheduleDeleted  EventType = "schedule.deleted"
	BookingCreated   EventType = "booking.created"
	BookingCancelled EventType = "booking.cancelled"
	BookingAttended  EventType = "booking.attended"
	BookingMissed    EventType = "booking.missed"
)

// Event is published after a schedule or booking write commits.  It
// carries enough for downstream consumers to log or notify without
// querying the primary database; fields that do not apply to the event
// type are left zero and omitted from the JSON body.
type Event struct {
	Type            EventType `json:"type"`
	ScheduleID      uint64    `json:"schedule_id"`
	BookingID       uint64    `json:"booking_id,omitempty"`
	MemberID        uint64    `json:"member_id,omitempty"`
	ActorID         uint64    `json:"actor_id,omitempty"`
	RoomID          uint64    `json:"room_id,omitempty"`
	TrainerID       uint64    `json:"trainer_id,omitempty"`
	BranchID        uint64    `json:"branch_id,omitempty"`
	Status          string    `json:"status,omitempty"`
	RemovedBookings int64     `json:"removed_bookings,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}
