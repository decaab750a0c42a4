// Package carousel assigns hero carousel photos to display rows.
package carousel

import (
	"errors"
	"fmt"
)

// ErrRowsFull is returned by Pick when every row is at capacity.
var ErrRowsFull = errors.New("all carousel rows are full")

// Slot is a row assignment. Row is 1-based; DisplayOrder is the position
// inside the row.
type Slot struct {
	Row          int
	DisplayOrder int
}

// Allocator hands out rows least-loaded first. It is not safe for
// concurrent use; one upload batch owns one Allocator.
type Allocator struct {
	counts   []int
	capacity int
}

// NewAllocator starts from the given per-row occupancy. counts[i] is the
// number of photos in row i+1; a shorter slice is padded with zeros.
func NewAllocator(rows, capacity int, counts []int) (*Allocator, error) {
	if rows <= 0 || capacity <= 0 {
		return nil, fmt.Errorf("invalid carousel layout: %d rows x %d", rows, capacity)
	}
	if len(counts) > rows {
		return nil, fmt.Errorf("%d row counts for %d rows", len(counts), rows)
	}

	c := make([]int, rows)
	copy(c, counts)
	return &Allocator{counts: c, capacity: capacity}, nil
}

// CountsFromRows tallies row numbers into per-row counts, ignoring numbers
// outside 1..rows.
func CountsFromRows(rows int, rowNumbers []int) []int {
	counts := make([]int, rows)
	for _, r := range rowNumbers {
		if r >= 1 && r <= rows {
			counts[r-1]++
		}
	}
	return counts
}

// Pick chooses the row with the smallest count, lowest row number on ties.
// If that row is already at capacity the first row with room is used. Pick
// does not change the counts; call Commit once the photo is stored.
func (a *Allocator) Pick() (Slot, error) {
	target := 0
	for r := 1; r < len(a.counts); r++ {
		if a.counts[r] < a.counts[target] {
			target = r
		}
	}

	if a.counts[target] >= a.capacity {
		target = -1
		for r, n := range a.counts {
			if n < a.capacity {
				target = r
				break
			}
		}
		if target < 0 {
			return Slot{}, ErrRowsFull
		}
	}

	return Slot{Row: target + 1, DisplayOrder: a.counts[target]}, nil
}

// Commit records that s has been filled.
func (a *Allocator) Commit(s Slot) {
	if s.Row >= 1 && s.Row <= len(a.counts) {
		a.counts[s.Row-1]++
	}
}

// Counts returns a copy of the current per-row occupancy.
func (a *Allocator) Counts() []int {
	out := make([]int, len(a.counts))
	copy(out, a.counts)
	return out
}

// Capacity is the number of free slots left across all rows.
func (a *Allocator) Capacity() int {
	free := 0
	for _, n := range a.counts {
		if n < a.capacity {
			free += a.capacity - n
		}
	}
	return free
}
