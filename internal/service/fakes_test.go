package service

import (
	"context"
	"sort"
	"sync"

	"github.com/iliyamo/branch-scheduler/internal/model"
	"github.com/iliyamo/branch-scheduler/internal/queue"
	"github.com/iliyamo/branch-scheduler/internal/repository"
)

type memSchedules struct {
	mu       sync.Mutex
	nextID   uint64
	rows     map[uint64]model.Schedule
	bookings *memBookings
}

func newMemSchedules() *memSchedules {
	return &memSchedules{rows: make(map[uint64]model.Schedule)}
}

func (m *memSchedules) Create(ctx context.Context, s *model.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	s.ID = m.nextID
	m.rows[s.ID] = *s
	return nil
}

func (m *memSchedules) GetByID(ctx context.Context, id uint64) (model.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return model.Schedule{}, repository.ErrNotFound
	}
	return s, nil
}

func (m *memSchedules) Update(ctx context.Context, s model.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[s.ID]; !ok {
		return repository.ErrNotFound
	}
	m.rows[s.ID] = s
	return nil
}

func (m *memSchedules) Delete(ctx context.Context, id uint64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return 0, repository.ErrNotFound
	}
	delete(m.rows, id)
	if m.bookings == nil {
		return 0, nil
	}
	return m.bookings.deleteBySchedule(id), nil
}

func (m *memSchedules) ListByRoom(ctx context.Context, roomID uint64) ([]model.Schedule, error) {
	return m.filter(func(s model.Schedule) bool { return s.RoomID == roomID }), nil
}

func (m *memSchedules) ListByTrainer(ctx context.Context, trainerID uint64) ([]model.Schedule, error) {
	return m.filter(func(s model.Schedule) bool { return s.TrainerID == trainerID }), nil
}

func (m *memSchedules) List(ctx context.Context, f model.ScheduleFilter) ([]model.Schedule, error) {
	return m.filter(func(s model.Schedule) bool {
		switch {
		case f.BranchID != nil && s.BranchID != *f.BranchID:
			return false
		case f.TrainerID != nil && s.TrainerID != *f.TrainerID:
			return false
		case f.RoomID != nil && s.RoomID != *f.RoomID:
			return false
		case f.ClassID != nil && s.ClassID != *f.ClassID:
			return false
		}
		return true
	}), nil
}

func (m *memSchedules) filter(keep func(model.Schedule) bool) []model.Schedule {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Schedule, 0)
	for _, s := range m.rows {
		if keep(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func (m *memSchedules) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// memBookings enforces the active (member, schedule) uniqueness the
// way the unique index does in MySQL.
type memBookings struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]model.SessionBooking
}

func newMemBookings() *memBookings {
	return &memBookings{rows: make(map[uint64]model.SessionBooking)}
}

func (m *memBookings) Create(ctx context.Context, b *model.SessionBooking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.MemberID == b.MemberID && r.ScheduleID == b.ScheduleID && r.Status != model.BookingCancelled {
			return repository.ErrDuplicate
		}
	}
	m.nextID++
	b.ID = m.nextID
	m.rows[b.ID] = *b
	return nil
}

func (m *memBookings) GetByID(ctx context.Context, id uint64) (model.SessionBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.rows[id]
	if !ok {
		return model.SessionBooking{}, repository.ErrNotFound
	}
	return b, nil
}

func (m *memBookings) FindActive(ctx context.Context, memberID, scheduleID uint64) (model.SessionBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.MemberID == memberID && r.ScheduleID == scheduleID && r.Status != model.BookingCancelled {
			return r, nil
		}
	}
	return model.SessionBooking{}, repository.ErrNotFound
}

func (m *memBookings) UpdateStatus(ctx context.Context, id uint64, from, to model.BookingStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	if b.Status != from {
		return repository.ErrStaleStatus
	}
	b.Status = to
	m.rows[id] = b
	return nil
}

func (m *memBookings) ListByMember(ctx context.Context, memberID uint64) ([]model.SessionBooking, error) {
	return m.filter(func(b model.SessionBooking) bool { return b.MemberID == memberID }), nil
}

func (m *memBookings) ListBySchedule(ctx context.Context, scheduleID uint64) ([]model.SessionBooking, error) {
	return m.filter(func(b model.SessionBooking) bool { return b.ScheduleID == scheduleID }), nil
}

func (m *memBookings) ListByBranch(ctx context.Context, branchID uint64) ([]model.SessionBooking, error) {
	return nil, nil
}

func (m *memBookings) filter(keep func(model.SessionBooking) bool) []model.SessionBooking {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.SessionBooking, 0)
	for _, b := range m.rows {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memBookings) deleteBySchedule(scheduleID uint64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, b := range m.rows {
		if b.ScheduleID == scheduleID {
			delete(m.rows, id)
			n++
		}
	}
	return n
}

// refStub resolves every id in its sets.
type refStub struct {
	branches map[uint64]bool
	rooms    map[uint64]bool
	classes  map[uint64]bool
}

func (r refStub) FindBranch(ctx context.Context, id uint64) (model.Branch, error) {
	if !r.branches[id] {
		return model.Branch{}, repository.ErrNotFound
	}
	return model.Branch{ID: id}, nil
}

func (r refStub) FindRoom(ctx context.Context, id uint64) (model.Room, error) {
	if !r.rooms[id] {
		return model.Room{}, repository.ErrNotFound
	}
	return model.Room{ID: id}, nil
}

func (r refStub) FindClass(ctx context.Context, id uint64) (model.Class, error) {
	if !r.classes[id] {
		return model.Class{}, repository.ErrNotFound
	}
	return model.Class{ID: id}, nil
}

type userStub map[uint64]model.Role

func (u userStub) FindUser(ctx context.Context, id uint64) (model.User, error) {
	role, ok := u[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return model.User{ID: id, Role: role}, nil
}

func (u userStub) FindUserByRoleAndID(ctx context.Context, id uint64, role model.Role) (model.User, error) {
	got, ok := u[id]
	if !ok || got != role {
		return model.User{}, repository.ErrNotFound
	}
	return model.User{ID: id, Role: role}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, ev queue.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []queue.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]queue.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}
