package repository

import (
	"sort"
	"time"
)

// staleCandidate carries the fields that order the refresh queue.
type staleCandidate struct {
	id          string
	lastUpdated *time.Time
	attemptedAt *time.Time
}

// orderStale sorts ids the way the Postgres ListStale query does: never-attempted
// first, then oldest attempt, and within that the oldest score ahead of ids that
// were never scored.
func orderStale(c []staleCandidate, limit int) []string {
	sort.Slice(c, func(i, j int) bool {
		if cmp := compareTimes(c[i].attemptedAt, c[j].attemptedAt, true); cmp != 0 {
			return cmp < 0
		}
		if cmp := compareTimes(c[i].lastUpdated, c[j].lastUpdated, false); cmp != 0 {
			return cmp < 0
		}
		return c[i].id < c[j].id
	})
	if limit >= 0 && len(c) > limit {
		c = c[:limit]
	}
	ids := make([]string, 0, len(c))
	for _, candidate := range c {
		ids = append(ids, candidate.id)
	}
	return ids
}

func compareTimes(a, b *time.Time, nilFirst bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		if nilFirst {
			return -1
		}
		return 1
	case b == nil:
		if nilFirst {
			return 1
		}
		return -1
	default:
		return a.Compare(*b)
	}
}
