// Package lock serializes writes per contended resource.  Keys are
// always taken in ascending order so two callers that need overlapping
// key sets can never deadlock.
package lock

import (
	"context"
	"errors"
	"sort"
)

// ErrLockTimeout is returned when the context ends before every key
// could be acquired.  Any keys taken so far are released.
var ErrLockTimeout = errors.New("lock: timed out acquiring keys")

// Locker acquires a set of keys and returns a release func that frees
// them in reverse order.  Release is safe to call more than once.
type Locker interface {
	Acquire(ctx context.Context, keys ...string) (release func(), err error)
}

// normalize sorts keys and drops duplicates and empties.
func normalize(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
