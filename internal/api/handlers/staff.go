package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/jakechorley/camp-scheduler/internal/api/middleware"
	"github.com/jakechorley/camp-scheduler/pkg/core/gateway"
	"github.com/jakechorley/camp-scheduler/pkg/core/model"
	"github.com/jakechorley/camp-scheduler/pkg/core/schedule"
)

// StaffSummaryResponse is one staff-pool entry
type StaffSummaryResponse struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Role           string   `json:"role,omitempty"`
	Qualifications []string `json:"qualifications"`
	MaxHours       int      `json:"maxHours"`
	Hours          int      `json:"hours"`
	RemainingHours int      `json:"remainingHours"`
	OverCap        bool     `json:"overCap"`
	Notes          string   `json:"notes,omitempty"`
}

// StaffPool returns the program's qualified staff with weekly hour
// totals. ?week=YYYY-MM-DD selects the window; it defaults to the
// server's active week.
func StaffPool(gw *gateway.Gateway, defaultWeek schedule.WeekWindow, weekRule string, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := model.Program(mux.Vars(r)["program"])
		if !p.IsValid() {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "invalid program")
			return
		}

		week := defaultWeek
		if d := r.URL.Query().Get("week"); d != "" {
			parsed, err := schedule.WeekOfRule(d, weekRule)
			if err != nil {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "invalid week date")
				return
			}
			week = parsed
		}

		qualified := schedule.QualifiedStaff(gw.Staff(), p)
		out := make([]StaffSummaryResponse, 0, len(qualified))
		for _, s := range qualified {
			hours := gw.HoursFor(s.ID, model.Programs(), &week)
			out = append(out, StaffSummaryResponse{
				ID:             s.ID,
				Name:           s.Name,
				Role:           s.Role,
				Qualifications: s.Qualifications,
				MaxHours:       s.MaxHours,
				Hours:          hours,
				RemainingHours: s.MaxHours - hours,
				OverCap:        hours >= s.MaxHours,
				Notes:          s.Notes,
			})
		}

		logger.Debug("Staff pool served",
			zap.String("program", string(p)),
			zap.Int("qualified", len(out)))
		writeJSON(w, http.StatusOK, out)
	}
}
