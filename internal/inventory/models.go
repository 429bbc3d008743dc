package inventory

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// Seat lifecycle states. A held seat carries its holder and an expiry; an
// expired hold is reclaimable by a sweep or by the next hold attempt.
type SeatState string

const (
	SeatAvailable SeatState = "AVAILABLE"
	SeatHeld      SeatState = "HELD"
	SeatSold      SeatState = "SOLD"
)

// Key identifies one seat pool. Schedules and classes are disjoint
// inventories, so operations on different keys never contend.
type Key struct {
	ScheduleID string
	Class      string
}

func (k Key) String() string {
	return k.ScheduleID + ":" + k.Class
}

// Typed errors reported back to the checkout flow. All recoverable.
var (
	// ErrSeatUnavailable means a requested seat is held by someone else,
	// already sold, or unknown to the pool.
	ErrSeatUnavailable = errors.New("seat unavailable")

	// ErrExpiredHold means a commit was attempted after the hold lapsed;
	// the caller must re-hold.
	ErrExpiredHold = errors.New("hold expired")

	// ErrPoolNotFound means the (schedule, class) pool was never provisioned.
	ErrPoolNotFound = errors.New("seat pool not found")
)

// SeatView is one seat's externally visible state.
type SeatView struct {
	ID    string    `json:"id"`
	State SeatState `json:"state"`
}

// Snapshot is a point-in-time view of a pool, for the seat picker.
type Snapshot struct {
	ScheduleID string     `json:"schedule_id"`
	Class      string     `json:"class"`
	TotalSeats int        `json:"total_seats"`
	Available  int        `json:"available"`
	Seats      []SeatView `json:"seats"`
}

// GenerateSeatLabels produces the seat identifiers for a pool of the given
// capacity, four abreast: 1A..1D, 2A..2D, ...
func GenerateSeatLabels(capacity int) []string {
	const abreast = 4
	labels := make([]string, 0, capacity)
	for i := 0; i < capacity; i++ {
		row := i/abreast + 1
		col := rune('A' + i%abreast)
		labels = append(labels, fmt.Sprintf("%d%c", row, col))
	}
	return labels
}

// SortSeatIDs orders seat identifiers row-first ("2A" before "10A"), falling
// back to plain string order for non-numeric prefixes. Roster assignment
// depends on this ordering being stable.
func SortSeatIDs(ids []string) []string {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool {
		ri, si := splitSeatID(sorted[i])
		rj, sj := splitSeatID(sorted[j])
		if ri != rj {
			return ri < rj
		}
		return si < sj
	})
	return sorted
}

func splitSeatID(id string) (int, string) {
	i := 0
	for i < len(id) && id[i] >= '0' && id[i] <= '9' {
		i++
	}
	row, err := strconv.Atoi(id[:i])
	if err != nil {
		return 0, id
	}
	return row, id[i:]
}
