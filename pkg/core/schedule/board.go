package schedule

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jakechorley/camp-scheduler/pkg/core/model"
)

// ErrMissingAssignment is returned by Swap under ReportMissing when
// either endpoint key does not resolve to an existing record
var ErrMissingAssignment = errors.New("assignment not found")

// MissingKeyPolicy controls how Swap treats a key that does not
// resolve. The original behaviour is to ignore silently; ReportMissing
// surfaces the mismatch instead.
type MissingKeyPolicy int

const (
	IgnoreMissing MissingKeyPolicy = iota
	ReportMissing
)

// Key is the natural key of an assignment within one program
type Key struct {
	Date      string
	StartTime string
	StaffID   string
}

// Board is the mutable assignment store for both camp programs. It is
// not safe for concurrent use; callers serialise access (the gateway
// holds the lock).
type Board struct {
	assignments map[model.Program][]model.Assignment
	policy      MissingKeyPolicy
	dirty       bool
	gen         uint64
}

// NewBoard creates an empty board with the given missing-key policy
func NewBoard(policy MissingKeyPolicy) *Board {
	return &Board{
		assignments: map[model.Program][]model.Assignment{
			model.ProgramElementary: {},
			model.ProgramMiddle:     {},
		},
		policy: policy,
	}
}

// Assign places a staff member in a slot. Any existing record for the
// same (date, startTime, staffID) key is removed first, so repeated
// assigns with identical arguments leave exactly one record. Other
// slots are unaffected; multiple staff may share one slot.
func (b *Board) Assign(p model.Program, staffID, date, startTime, endTime string) model.Assignment {
	kept := b.assignments[p][:0]
	for _, a := range b.assignments[p] {
		if a.Date == date && a.StartTime == startTime && a.StaffID == staffID {
			continue
		}
		kept = append(kept, a)
	}

	rec := model.Assignment{
		ID:        uuid.New().String(),
		Date:      date,
		StartTime: startTime,
		EndTime:   endTime,
		StaffID:   staffID,
	}
	b.assignments[p] = append(kept, rec)
	b.touch()
	return rec
}

// Remove deletes the record matching the key. Removing an absent key
// is not an error; the return value reports whether anything changed.
func (b *Board) Remove(p model.Program, date, startTime, staffID string) bool {
	kept := b.assignments[p][:0]
	removed := false
	for _, a := range b.assignments[p] {
		if a.Date == date && a.StartTime == startTime && a.StaffID == staffID {
			removed = true
			continue
		}
		kept = append(kept, a)
	}
	b.assignments[p] = kept
	if removed {
		b.touch()
	}
	return removed
}

// Swap exchanges the StaffID values of the two records keyed by from
// and to. Slot fields and record identities stay put, so swapping
// twice with the same arguments restores the original state. If either
// key is missing the board is left unchanged; whether that is reported
// depends on the board's MissingKeyPolicy.
func (b *Board) Swap(p model.Program, from, to Key) error {
	fromIdx := b.indexOf(p, from)
	toIdx := b.indexOf(p, to)

	if fromIdx < 0 || toIdx < 0 {
		if b.policy == ReportMissing {
			missing := from
			if fromIdx >= 0 {
				missing = to
			}
			return fmt.Errorf("swap %s %s %s: %w", missing.Date, missing.StartTime, missing.StaffID, ErrMissingAssignment)
		}
		return nil
	}

	recs := b.assignments[p]
	recs[fromIdx].StaffID, recs[toIdx].StaffID = recs[toIdx].StaffID, recs[fromIdx].StaffID
	b.touch()
	return nil
}

// HoursFor counts assignment records for the staff member across the
// given programs, one slot counting as one hour. A non-nil week
// restricts the count to dates inside that window.
func (b *Board) HoursFor(staffID string, programs []model.Program, week *WeekWindow) int {
	hours := 0
	for _, p := range programs {
		for _, a := range b.assignments[p] {
			if a.StaffID != staffID {
				continue
			}
			if week != nil && !week.Contains(a.Date) {
				continue
			}
			hours++
		}
	}
	return hours
}

// Assignments returns a copy of the program's collection
func (b *Board) Assignments(p model.Program) []model.Assignment {
	out := make([]model.Assignment, len(b.assignments[p]))
	copy(out, b.assignments[p])
	return out
}

// AssignmentsForSlot returns the occupants of one slot in order of
// assignment
func (b *Board) AssignmentsForSlot(p model.Program, date, startTime string) []model.Assignment {
	var out []model.Assignment
	for _, a := range b.assignments[p] {
		if a.Date == date && a.StartTime == startTime {
			out = append(out, a)
		}
	}
	return out
}

// Replace installs server-confirmed collections wholesale and clears
// the dirty flag. Used after load and after the post-save reload.
func (b *Board) Replace(elementary, middle []model.Assignment) {
	b.assignments[model.ProgramElementary] = append([]model.Assignment(nil), elementary...)
	b.assignments[model.ProgramMiddle] = append([]model.Assignment(nil), middle...)
	b.dirty = false
	b.gen++
}

// Dirty reports whether the board has local edits not yet confirmed by
// the server
func (b *Board) Dirty() bool {
	return b.dirty
}

// ClearDirty marks the current state as synchronized
func (b *Board) ClearDirty() {
	b.dirty = false
}

// Generation counts state changes, including wholesale Replace. The
// gateway snapshots it around a save to detect edits made while the
// write was in flight.
func (b *Board) Generation() uint64 {
	return b.gen
}

func (b *Board) touch() {
	b.dirty = true
	b.gen++
}

func (b *Board) indexOf(p model.Program, k Key) int {
	for i, a := range b.assignments[p] {
		if a.Date == k.Date && a.StartTime == k.StartTime && a.StaffID == k.StaffID {
			return i
		}
	}
	return -1
}
