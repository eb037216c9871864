package schedule

// DefaultTimeSlots are the fixed time boundaries of the daily grid.
// Consecutive pairs form the addressable one-hour slots.
var DefaultTimeSlots = []string{
	"08:00", "09:00", "10:00", "11:00",
	"12:00", "13:00", "14:00", "15:00",
	"16:00", "17:00", "18:00",
}

// Grid is the addressable (date, startTime) coordinate space for one
// week: a fixed ordered sequence of time boundaries applied to the
// five weekday dates of the active window.
type Grid struct {
	boundaries []string
}

// NewGrid builds a grid from ordered time boundaries; nil selects the
// default 08:00-18:00 hour grid
func NewGrid(boundaries []string) Grid {
	if len(boundaries) == 0 {
		boundaries = DefaultTimeSlots
	}
	return Grid{boundaries: append([]string(nil), boundaries...)}
}

// TimeSlot is one (start, end) pair of the daily grid
type TimeSlot struct {
	StartTime string
	EndTime   string
}

// Slots returns the consecutive (start, end) pairs of the grid
func (g Grid) Slots() []TimeSlot {
	if len(g.boundaries) < 2 {
		return nil
	}
	slots := make([]TimeSlot, 0, len(g.boundaries)-1)
	for i := 0; i < len(g.boundaries)-1; i++ {
		slots = append(slots, TimeSlot{StartTime: g.boundaries[i], EndTime: g.boundaries[i+1]})
	}
	return slots
}

// EndFor returns the slot end matching a start boundary, or "" if the
// start is not on the grid
func (g Grid) EndFor(startTime string) string {
	for i := 0; i < len(g.boundaries)-1; i++ {
		if g.boundaries[i] == startTime {
			return g.boundaries[i+1]
		}
	}
	return ""
}
