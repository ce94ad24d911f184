package model

// Branch is one physical location of the facility.  Branch CRUD lives
// outside this service; the scheduler only resolves references to it.
type Branch struct {
	ID   uint64 // branches.id
	Name string // branches.name
}

// Room is a bookable space inside a branch.  Rooms are one of the two
// exclusivity domains for schedules: no two schedules on the same room
// may overlap.
type Room struct {
	ID       uint64 // rooms.id
	BranchID uint64 // rooms.branch_id
	Name     string // rooms.name
}

// Class is the kind of session being taught (e.g. "Spin 45").
type Class struct {
	ID   uint64 // classes.id
	Name string // classes.name
}
