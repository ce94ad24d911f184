// Package conflict decides whether scheduled intervals collide on a
// shared resource.  Everything here is pure: no I/O, no clocks.
package conflict

import (
	"strconv"
	"time"

	"github.com/iliyamo/branch-scheduler/internal/model"
)

// Overlaps reports whether the half-open intervals [startA, endA) and
// [startB, endB) share at least one instant.  Back-to-back intervals
// (endA == startB) do not overlap.
func Overlaps(startA, endA, startB, endB time.Time) bool {
	return startA.Before(endB) && startB.Before(endA)
}

// Interval is a half-open time range.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether End is strictly after Start.
func (i Interval) Valid() bool { return i.End.After(i.Start) }

// Overlaps is the method form of the package level Overlaps.
func (i Interval) Overlaps(o Interval) bool { return Overlaps(i.Start, i.End, o.Start, o.End) }

// Domain names one exclusivity domain.  A schedule belongs to exactly
// one room domain and one trainer domain; each domain is checked and
// locked independently.
type Domain string

const (
	DomainRoom    Domain = "room"
	DomainTrainer Domain = "trainer"
)

// Key returns the lock/index key for a resource in a domain, e.g. "room:7".
func Key(d Domain, id uint64) string {
	return string(d) + ":" + strconv.FormatUint(id, 10)
}

// Keys returns the room and trainer keys a schedule occupies.
func Keys(s model.Schedule) []string {
	return []string{Key(DomainRoom, s.RoomID), Key(DomainTrainer, s.TrainerID)}
}

// Find returns every schedule in existing whose interval overlaps the
// candidate, skipping the schedule with id excludeID (pass 0 to skip
// nothing).  Duplicates (a schedule fetched through both the room and
// the trainer domain) are reported once.
func Find(candidate Interval, excludeID uint64, existing ...[]model.Schedule) []model.Schedule {
	seen := make(map[uint64]struct{})
	var hits []model.Schedule
	for _, list := range existing {
		for _, s := range list {
			if excludeID != 0 && s.ID == excludeID {
				continue
			}
			if _, dup := seen[s.ID]; dup {
				continue
			}
			if Overlaps(candidate.Start, candidate.End, s.StartTime, s.EndTime) {
				seen[s.ID] = struct{}{}
				hits = append(hits, s)
			}
		}
	}
	return hits
}
