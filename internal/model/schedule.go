package model

import "time"

// Schedule represents one scheduled occurrence of a class in a room,
// led by a trainer, at a branch, over the half-open interval
// [StartTime, EndTime).  Two schedules that share a room or a trainer
// must never overlap.
//
// Fields:
//
//	ID        – primary key identifier.
//	ClassID   – class being taught.
//	RoomID    – room in which the session takes place.
//	TrainerID – user (role Trainer) leading the session.
//	BranchID  – branch the session belongs to.
//	StartTime – inclusive start instant (UTC).
//	EndTime   – exclusive end instant (UTC), strictly after StartTime.
type Schedule struct {
	ID        uint64    `json:"id"`         // schedules.id
	ClassID   uint64    `json:"class_id"`   // schedules.class_id
	RoomID    uint64    `json:"room_id"`    // schedules.room_id
	TrainerID uint64    `json:"trainer_id"` // schedules.trainer_id
	BranchID  uint64    `json:"branch_id"`  // schedules.branch_id
	StartTime time.Time `json:"start_time"` // schedules.start_time
	EndTime   time.Time `json:"end_time"`   // schedules.end_time
}

// ScheduleFilter narrows schedule listings.  Nil fields are ignored.
type ScheduleFilter struct {
	BranchID  *uint64
	TrainerID *uint64
	RoomID    *uint64
	ClassID   *uint64
}
