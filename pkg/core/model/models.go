package model

// Program identifies one of the two camp tracks
type Program string

const (
	ProgramElementary Program = "elementary"
	ProgramMiddle     Program = "middle"
)

func (p Program) IsValid() bool {
	return p == ProgramElementary || p == ProgramMiddle
}

// Qualification returns the roster tag a staff member must carry to
// appear in this program's candidate pool
func (p Program) Qualification() string {
	switch p {
	case ProgramElementary:
		return "Elementary"
	case ProgramMiddle:
		return "Middle"
	}
	return ""
}

// Programs lists both camp programs in display order
func Programs() []Program {
	return []Program{ProgramElementary, ProgramMiddle}
}

// Assignment is one staff member's occupancy of one time slot in one
// program. The natural key for lookup and removal is
// (Date, StartTime, StaffID); ID is a generated identity that survives
// swaps (a swap rewrites StaffID only, never the record identity).
type Assignment struct {
	ID        string
	Date      string // YYYY-MM-DD
	StartTime string // HH:MM, 24-hour
	EndTime   string // HH:MM, 24-hour
	StaffID   string
}

// AvailabilityWindow is a per-weekday time range during which a staff
// member is normally available
type AvailabilityWindow struct {
	Day       string
	StartTime string
	EndTime   string
}

// Staff represents a schedulable person. ID is stable and unique;
// Name is a display attribute only. A nil Availability slice means the
// member is available at all times.
type Staff struct {
	ID             string
	Name           string
	Role           string
	Qualifications []string
	MaxHours       int
	Notes          string
	Availability   []AvailabilityWindow
}

// QualifiedFor reports whether the staff member carries the program's
// qualification tag
func (s Staff) QualifiedFor(p Program) bool {
	tag := p.Qualification()
	for _, q := range s.Qualifications {
		if q == tag {
			return true
		}
	}
	return false
}

// ScheduleData is the aggregate root: both programs' assignment
// collections plus the staff roster. The roster is read-only from this
// system's perspective and is replaced wholesale on every load.
type ScheduleData struct {
	Elementary []Assignment
	Middle     []Assignment
	Staff      []Staff
}

// Assignments returns the collection for the given program
func (d *ScheduleData) Assignments(p Program) []Assignment {
	switch p {
	case ProgramElementary:
		return d.Elementary
	case ProgramMiddle:
		return d.Middle
	}
	return nil
}
