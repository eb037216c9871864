package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/camp-scheduler/internal/api"
	"github.com/jakechorley/camp-scheduler/internal/api/handlers"
	"github.com/jakechorley/camp-scheduler/pkg/core/gateway"
	"github.com/jakechorley/camp-scheduler/pkg/core/model"
	"github.com/jakechorley/camp-scheduler/pkg/core/schedule"
)

type stubStore struct {
	data       *model.ScheduleData
	fetchErr   error
	persistErr error
}

func (s *stubStore) Fetch(ctx context.Context) (*model.ScheduleData, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	copied := *s.data
	return &copied, nil
}

func (s *stubStore) Persist(ctx context.Context, data *model.ScheduleData) error {
	if s.persistErr != nil {
		return s.persistErr
	}
	s.data = &model.ScheduleData{
		Elementary: data.Elementary,
		Middle:     data.Middle,
		Staff:      s.data.Staff,
	}
	return nil
}

func newTestRouter(t *testing.T) (http.Handler, *gateway.Gateway) {
	t.Helper()

	store := &stubStore{data: &model.ScheduleData{
		Elementary: []model.Assignment{
			{ID: "a1", Date: "2025-07-01", StartTime: "08:00", EndTime: "09:00", StaffID: "s-alice"},
		},
		Staff: []model.Staff{
			{
				ID: "s-alice", Name: "Alice",
				Qualifications: []string{"Elementary"}, MaxHours: 25,
				Availability: []model.AvailabilityWindow{
					{Day: "Tuesday", StartTime: "08:00", EndTime: "17:00"},
				},
			},
			{ID: "s-carol", Name: "Carol", Qualifications: []string{"Middle"}, MaxHours: 40},
		},
	}}

	gw := gateway.New(store, schedule.IgnoreMissing, zap.NewNop())
	require.NoError(t, gw.Load(context.Background()))

	week, err := schedule.WeekOf("2025-07-01")
	require.NoError(t, err)

	router := api.NewRouter(gw, schedule.NewGrid(nil), week, schedule.DefaultCampDaysRule, zap.NewNop())
	return router, gw
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetSchedule(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/schedule", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.ScheduleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "ready", resp.Phase)
	assert.False(t, resp.Dirty)
	assert.Equal(t, []string{"2025-06-30", "2025-07-01", "2025-07-02", "2025-07-03", "2025-07-04"}, resp.Week)
	require.Len(t, resp.Elementary, 1)
	assert.Equal(t, "Alice", resp.Elementary[0].StaffName)
	assert.True(t, resp.Elementary[0].Available, "Tuesday morning is inside Alice's window")
	assert.Empty(t, resp.Middle)
}

func TestCreateAssignment(t *testing.T) {
	router, gw := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/assignments",
		`{"program":"middle","staffId":"s-carol","date":"2025-07-02","startTime":"10:00"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp handlers.AssignmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "11:00", resp.EndTime, "end time defaults to the next grid boundary")
	assert.Equal(t, "Carol", resp.StaffName)

	assert.True(t, gw.Dirty())
	assert.Len(t, gw.Assignments(model.ProgramMiddle), 1)
}

func TestCreateAssignment_Validation(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"invalid program", `{"program":"highschool","staffId":"s","date":"2025-07-01","startTime":"08:00"}`},
		{"missing staff", `{"program":"elementary","date":"2025-07-01","startTime":"08:00"}`},
		{"off-grid start with no end", `{"program":"elementary","staffId":"s","date":"2025-07-01","startTime":"08:17"}`},
		{"not json", `{{{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/assignments", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestDeleteAssignment(t *testing.T) {
	router, gw := newTestRouter(t)

	rec := doJSON(t, router, http.MethodDelete, "/api/assignments",
		`{"program":"elementary","date":"2025-07-01","startTime":"08:00","staffId":"s-alice"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"removed": true}`, rec.Body.String())
	assert.Empty(t, gw.Assignments(model.ProgramElementary))

	// deleting the same key again is benign
	rec = doJSON(t, router, http.MethodDelete, "/api/assignments",
		`{"program":"elementary","date":"2025-07-01","startTime":"08:00","staffId":"s-alice"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"removed": false}`, rec.Body.String())
}

func TestSwapAssignments(t *testing.T) {
	router, gw := newTestRouter(t)
	gw.Assign(model.ProgramElementary, "s-carol", "2025-07-03", "10:00", "11:00")

	rec := doJSON(t, router, http.MethodPost, "/api/swap", `{
		"program": "elementary",
		"from": {"date": "2025-07-01", "startTime": "08:00", "staffId": "s-alice"},
		"to":   {"date": "2025-07-03", "startTime": "10:00", "staffId": "s-carol"}
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	slot := gw.AssignmentsForSlot(model.ProgramElementary, "2025-07-01", "08:00")
	require.Len(t, slot, 1)
	assert.Equal(t, "s-carol", slot[0].StaffID)
}

func TestDrop_FromPool(t *testing.T) {
	router, gw := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/drop", `{
		"program": "middle",
		"staffId": "s-carol",
		"to": {"date": "2025-07-02", "startTime": "09:00"}
	}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"action": "assigned"}`, rec.Body.String())

	slot := gw.AssignmentsForSlot(model.ProgramMiddle, "2025-07-02", "09:00")
	require.Len(t, slot, 1)
	assert.Equal(t, "10:00", slot[0].EndTime)
}

func TestDrop_MoveBetweenSlots(t *testing.T) {
	router, gw := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/drop", `{
		"program": "elementary",
		"staffId": "s-alice",
		"from": {"date": "2025-07-01", "startTime": "08:00"},
		"to": {"date": "2025-07-03", "startTime": "14:00"}
	}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"action": "moved"}`, rec.Body.String())

	assert.Empty(t, gw.AssignmentsForSlot(model.ProgramElementary, "2025-07-01", "08:00"))
	assert.Len(t, gw.AssignmentsForSlot(model.ProgramElementary, "2025-07-03", "14:00"), 1)
}

func TestLoadSchedule_DirtyConflict(t *testing.T) {
	router, gw := newTestRouter(t)
	gw.Assign(model.ProgramMiddle, "s-carol", "2025-07-02", "10:00", "11:00")

	rec := doJSON(t, router, http.MethodPost, "/api/schedule/load", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Len(t, gw.Assignments(model.ProgramMiddle), 1)

	rec = doJSON(t, router, http.MethodPost, "/api/schedule/load?force=1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, gw.Assignments(model.ProgramMiddle))
}

func TestSaveSchedule(t *testing.T) {
	router, gw := newTestRouter(t)
	gw.Assign(model.ProgramMiddle, "s-carol", "2025-07-02", "10:00", "11:00")

	rec := doJSON(t, router, http.MethodPost, "/api/schedule/save", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, gw.Dirty())
	assert.Len(t, gw.Assignments(model.ProgramMiddle), 1, "save round-trips through the store")
}

func TestStaffPool(t *testing.T) {
	router, gw := newTestRouter(t)
	// two hours for Alice this week
	gw.Assign(model.ProgramElementary, "s-alice", "2025-07-02", "09:00", "10:00")

	rec := doJSON(t, router, http.MethodGet, "/api/staff/elementary", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var pool []handlers.StaffSummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pool))

	require.Len(t, pool, 1, "only Elementary-qualified staff appear")
	assert.Equal(t, "Alice", pool[0].Name)
	assert.Equal(t, 2, pool[0].Hours)
	assert.Equal(t, 23, pool[0].RemainingHours)
	assert.False(t, pool[0].OverCap)
}

func TestStaffPool_InvalidProgram(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/staff/kindergarten", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ready")
}
