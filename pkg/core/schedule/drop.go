package schedule

import (
	"fmt"

	"github.com/jakechorley/camp-scheduler/pkg/core/model"
)

// Slot is a (date, startTime, endTime) coordinate in the weekly grid
type Slot struct {
	Date      string
	StartTime string
	EndTime   string
}

// DropEvent is a resolved drag-and-drop gesture. From is nil when the
// drag originated from the staff pool rather than an existing slot.
type DropEvent struct {
	Program model.Program
	StaffID string
	From    *Key
	To      Slot
}

// DropAction reports which mutation a drop resolved to
type DropAction string

const (
	DropAssigned DropAction = "assigned"
	DropMoved    DropAction = "moved"
	DropSwapped  DropAction = "swapped"
	DropIgnored  DropAction = "ignored"
)

// ApplyDrop translates a drop gesture into board mutations:
//
//   - dropped on a slot occupied by someone else (from an existing
//     slot): swap the two staff members
//   - dropped on an empty slot from an existing slot: move
//   - dropped from the pool onto an empty slot: assign
//   - dropped onto a slot already holding the dragged staff member:
//     nothing happens
func (b *Board) ApplyDrop(ev DropEvent) (DropAction, error) {
	if !ev.Program.IsValid() {
		return DropIgnored, fmt.Errorf("invalid program %q", ev.Program)
	}

	occupants := b.AssignmentsForSlot(ev.Program, ev.To.Date, ev.To.StartTime)

	if ev.From != nil {
		if len(occupants) > 0 {
			target := occupants[0].StaffID
			if target == ev.StaffID {
				return DropIgnored, nil
			}
			to := Key{Date: ev.To.Date, StartTime: ev.To.StartTime, StaffID: target}
			if err := b.Swap(ev.Program, *ev.From, to); err != nil {
				return DropIgnored, err
			}
			return DropSwapped, nil
		}

		b.Assign(ev.Program, ev.StaffID, ev.To.Date, ev.To.StartTime, ev.To.EndTime)
		b.Remove(ev.Program, ev.From.Date, ev.From.StartTime, ev.StaffID)
		return DropMoved, nil
	}

	// Pool drag: slots hold multiple staff, so an occupied destination
	// only blocks the drop when the dragged member is already there
	for _, occ := range occupants {
		if occ.StaffID == ev.StaffID {
			return DropIgnored, nil
		}
	}
	b.Assign(ev.Program, ev.StaffID, ev.To.Date, ev.To.StartTime, ev.To.EndTime)
	return DropAssigned, nil
}
