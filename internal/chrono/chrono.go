// Package chrono orders records that may or may not carry an instant.
//
// Records without an instant borrow a synthetic key from the latest real
// instant seen earlier in input order and sort strictly after every real
// record at that instant. Records without an instant that precede every timed
// record sort before all of them. Ties break by input index, so Compare is a
// total order.
package chrono

import (
	"slices"
	"time"
)

// Key is the ordering key of one record.
type Key struct {
	At        time.Time
	Timed     bool // At is meaningful, real or synthetic
	Synthetic bool // At was borrowed from an earlier record
	Index     int
}

// Keys computes ordering keys for instants given in input order.
// A nil entry marks a record without an instant.
func Keys(instants []*time.Time) []Key {
	keys := make([]Key, len(instants))
	var latest time.Time
	seen := false

	for i, at := range instants {
		switch {
		case at != nil:
			keys[i] = Key{At: *at, Timed: true, Index: i}
			if !seen || at.After(latest) {
				latest = *at
				seen = true
			}
		case seen:
			keys[i] = Key{At: latest, Timed: true, Synthetic: true, Index: i}
		default:
			keys[i] = Key{Index: i}
		}
	}
	return keys
}

// Compare orders keys ascending.
func Compare(a, b Key) int {
	if a.Timed != b.Timed {
		if !a.Timed {
			return -1
		}
		return 1
	}
	if a.Timed {
		if c := a.At.Compare(b.At); c != 0 {
			return c
		}
		if a.Synthetic != b.Synthetic {
			if !a.Synthetic {
				return -1
			}
			return 1
		}
	}
	switch {
	case a.Index < b.Index:
		return -1
	case a.Index > b.Index:
		return 1
	}
	return 0
}

// Order returns the permutation of input indices sorted by Compare, or by
// its reverse when descending is set.
func Order(keys []Key, descending bool) []int {
	idx := make([]int, len(keys))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		c := Compare(keys[a], keys[b])
		if descending {
			return -c
		}
		return c
	})
	return idx
}
