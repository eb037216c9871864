package services

import (
	"go.uber.org/zap"

	"github.com/jakechorley/camp-scheduler/pkg/core/model"
	"github.com/jakechorley/camp-scheduler/pkg/core/schedule"
)

// StaffSummary is one pool entry: a qualified staff member with their
// weekly hour usage against their cap
type StaffSummary struct {
	Staff          model.Staff
	Hours          int
	RemainingHours int
	OverCap        bool
}

// BuildStaffPool returns the program's qualified staff annotated with
// hour totals. Hours count assigned slots across both programs inside
// the week window (nil week counts everything loaded).
func BuildStaffPool(board *schedule.Board, roster []model.Staff, p model.Program, week *schedule.WeekWindow, logger *zap.Logger) []StaffSummary {
	qualified := schedule.QualifiedStaff(roster, p)

	summaries := make([]StaffSummary, 0, len(qualified))
	for _, s := range qualified {
		hours := board.HoursFor(s.ID, model.Programs(), week)
		summaries = append(summaries, StaffSummary{
			Staff:          s,
			Hours:          hours,
			RemainingHours: s.MaxHours - hours,
			OverCap:        hours >= s.MaxHours,
		})
	}

	logger.Debug("Built staff pool",
		zap.String("program", string(p)),
		zap.Int("qualified", len(summaries)))
	return summaries
}
