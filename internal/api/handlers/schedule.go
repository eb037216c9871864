package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jakechorley/camp-scheduler/internal/api/middleware"
	"github.com/jakechorley/camp-scheduler/pkg/core/gateway"
	"github.com/jakechorley/camp-scheduler/pkg/core/model"
	"github.com/jakechorley/camp-scheduler/pkg/core/schedule"
)

// AssignmentResponse is one assignment annotated for display: the
// staff display name and whether the slot falls inside the member's
// normal availability
type AssignmentResponse struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	StaffID   string `json:"staffId"`
	StaffName string `json:"staffName"`
	Available bool   `json:"available"`
}

// ScheduleResponse is the full board state
type ScheduleResponse struct {
	Phase      string               `json:"phase"`
	Dirty      bool                 `json:"dirty"`
	Saving     bool                 `json:"saving"`
	Error      string               `json:"error,omitempty"`
	Week       []string             `json:"week"`
	Elementary []AssignmentResponse `json:"elementary"`
	Middle     []AssignmentResponse `json:"middle"`
}

type slotRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
}

// GetSchedule returns both programs' assignments plus sync state
func GetSchedule(gw *gateway.Gateway, week schedule.WeekWindow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := ScheduleResponse{
			Phase:      string(gw.Phase()),
			Dirty:      gw.Dirty(),
			Saving:     gw.IsSaving(),
			Week:       week.Dates,
			Elementary: annotate(gw, model.ProgramElementary),
			Middle:     annotate(gw, model.ProgramMiddle),
		}
		if err := gw.Err(); err != nil {
			resp.Error = err.Error()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// LoadSchedule triggers a reload; ?force=1 discards local edits
func LoadSchedule(gw *gateway.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		if r.URL.Query().Get("force") == "1" {
			err = gw.DiscardAndLoad(r.Context())
		} else {
			err = gw.Load(r.Context())
		}

		switch {
		case errors.Is(err, gateway.ErrUnsavedChanges):
			middleware.WriteError(w, http.StatusConflict, middleware.ErrConflict, "board has unsaved changes; use force=1 to discard them")
		case err != nil:
			middleware.WriteError(w, http.StatusBadGateway, middleware.ErrUpstream, err.Error())
		default:
			writeJSON(w, http.StatusOK, map[string]string{"phase": string(gw.Phase())})
		}
	}
}

// SaveSchedule persists the board and reloads server-confirmed state
func SaveSchedule(gw *gateway.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := gw.Save(r.Context())

		var saveErr *gateway.SaveError
		switch {
		case errors.Is(err, gateway.ErrSaveInFlight):
			middleware.WriteError(w, http.StatusConflict, middleware.ErrConflict, "a save is already in flight")
		case errors.Is(err, gateway.ErrNotLoaded):
			middleware.WriteError(w, http.StatusConflict, middleware.ErrConflict, "no schedule loaded")
		case errors.As(err, &saveErr):
			middleware.WriteError(w, http.StatusBadGateway, middleware.ErrUpstream, err.Error())
		case err != nil:
			// saved, but the confirmatory reload failed
			middleware.WriteError(w, http.StatusBadGateway, middleware.ErrUpstream, "saved but reload failed: "+err.Error())
		default:
			writeJSON(w, http.StatusOK, map[string]string{"phase": string(gw.Phase())})
		}
	}
}

// CreateAssignment assigns a staff member to a slot
func CreateAssignment(gw *gateway.Gateway, grid schedule.Grid) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Program   string `json:"program"`
			StaffID   string `json:"staffId"`
			Date      string `json:"date"`
			StartTime string `json:"startTime"`
			EndTime   string `json:"endTime"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "invalid request body")
			return
		}

		p := model.Program(req.Program)
		if !p.IsValid() || req.StaffID == "" || req.Date == "" || req.StartTime == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "program, staffId, date and startTime are required")
			return
		}

		endTime := req.EndTime
		if endTime == "" {
			endTime = grid.EndFor(req.StartTime)
			if endTime == "" {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "startTime is not on the slot grid")
				return
			}
		}

		rec := gw.Assign(p, req.StaffID, req.Date, req.StartTime, endTime)
		writeJSON(w, http.StatusCreated, annotateOne(gw, rec))
	}
}

// DeleteAssignment removes a staff member from a slot. Removing an
// absent key is benign; the response reports whether anything changed.
func DeleteAssignment(gw *gateway.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Program   string `json:"program"`
			Date      string `json:"date"`
			StartTime string `json:"startTime"`
			StaffID   string `json:"staffId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "invalid request body")
			return
		}

		p := model.Program(req.Program)
		if !p.IsValid() {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "invalid program")
			return
		}

		removed := gw.Remove(p, req.Date, req.StartTime, req.StaffID)
		writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
	}
}

// SwapAssignments exchanges the staff members of two existing records
func SwapAssignments(gw *gateway.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Program string       `json:"program"`
			From    swapEndpoint `json:"from"`
			To      swapEndpoint `json:"to"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "invalid request body")
			return
		}

		p := model.Program(req.Program)
		if !p.IsValid() {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "invalid program")
			return
		}

		err := gw.Swap(p, req.From.key(), req.To.key())
		if errors.Is(err, schedule.ErrMissingAssignment) {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, err.Error())
			return
		}
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"swapped": true})
	}
}

// Drop resolves a drag-and-drop gesture into the right board mutation
func Drop(gw *gateway.Gateway, grid schedule.Grid) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Program string       `json:"program"`
			StaffID string       `json:"staffId"`
			From    *slotRequest `json:"from,omitempty"`
			To      struct {
				Date      string `json:"date"`
				StartTime string `json:"startTime"`
				EndTime   string `json:"endTime"`
			} `json:"to"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "invalid request body")
			return
		}

		p := model.Program(req.Program)
		if !p.IsValid() || req.StaffID == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "program and staffId are required")
			return
		}

		endTime := req.To.EndTime
		if endTime == "" {
			endTime = grid.EndFor(req.To.StartTime)
		}

		ev := schedule.DropEvent{
			Program: p,
			StaffID: req.StaffID,
			To:      schedule.Slot{Date: req.To.Date, StartTime: req.To.StartTime, EndTime: endTime},
		}
		if req.From != nil {
			ev.From = &schedule.Key{
				Date:      req.From.Date,
				StartTime: req.From.StartTime,
				StaffID:   req.StaffID,
			}
		}

		action, err := gw.ApplyDrop(ev)
		if errors.Is(err, schedule.ErrMissingAssignment) {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, err.Error())
			return
		}
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"action": string(action)})
	}
}

type swapEndpoint struct {
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	StaffID   string `json:"staffId"`
}

func (e swapEndpoint) key() schedule.Key {
	return schedule.Key{Date: e.Date, StartTime: e.StartTime, StaffID: e.StaffID}
}

func annotate(gw *gateway.Gateway, p model.Program) []AssignmentResponse {
	assignments := gw.Assignments(p)
	out := make([]AssignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, annotateOne(gw, a))
	}
	return out
}

func annotateOne(gw *gateway.Gateway, a model.Assignment) AssignmentResponse {
	resp := AssignmentResponse{
		ID:        a.ID,
		Date:      a.Date,
		StartTime: a.StartTime,
		EndTime:   a.EndTime,
		StaffID:   a.StaffID,
		StaffName: a.StaffID,
		Available: true,
	}
	if s := gw.StaffByID(a.StaffID); s != nil {
		resp.StaffName = s.Name
		resp.Available = schedule.IsAvailable(*s, a.Date, a.StartTime)
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
