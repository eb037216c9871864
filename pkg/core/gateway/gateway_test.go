package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/camp-scheduler/pkg/core/model"
	"github.com/jakechorley/camp-scheduler/pkg/core/schedule"
)

// mockStore implements a test double for ScheduleStore
type mockStore struct {
	data       *model.ScheduleData
	fetchErr   error
	persistErr error

	fetchCalls   int
	persisted    []*model.ScheduleData
	onFetch      func()
	onPersist    func()
	persistStore bool
}

func (m *mockStore) Fetch(ctx context.Context) (*model.ScheduleData, error) {
	m.fetchCalls++
	if m.onFetch != nil {
		hook := m.onFetch
		m.onFetch = nil
		hook()
	}
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	// return a copy so the gateway never aliases store internals
	data := *m.data
	return &data, nil
}

func (m *mockStore) Persist(ctx context.Context, data *model.ScheduleData) error {
	if m.onPersist != nil {
		hook := m.onPersist
		m.onPersist = nil
		hook()
	}
	if m.persistErr != nil {
		return m.persistErr
	}
	m.persisted = append(m.persisted, data)
	if m.persistStore {
		m.data = &model.ScheduleData{
			Elementary: data.Elementary,
			Middle:     data.Middle,
			Staff:      m.data.Staff,
		}
	}
	return nil
}

func testData() *model.ScheduleData {
	return &model.ScheduleData{
		Elementary: []model.Assignment{
			{ID: "a1", Date: "2025-07-01", StartTime: "08:00", EndTime: "09:00", StaffID: "s-alice"},
		},
		Middle: []model.Assignment{},
		Staff: []model.Staff{
			{ID: "s-alice", Name: "Alice", Qualifications: []string{"Elementary"}, MaxHours: 40},
			{ID: "s-carol", Name: "Carol", Qualifications: []string{"Middle"}, MaxHours: 40},
		},
	}
}

func TestLoad_InstallsServerState(t *testing.T) {
	store := &mockStore{data: testData()}
	gw := New(store, schedule.IgnoreMissing, zap.NewNop())

	assert.Equal(t, PhaseIdle, gw.Phase())
	require.NoError(t, gw.Load(context.Background()))

	assert.Equal(t, PhaseReady, gw.Phase())
	assert.False(t, gw.Dirty())
	assert.Len(t, gw.Assignments(model.ProgramElementary), 1)
	assert.Len(t, gw.Staff(), 2)
}

func TestLoad_FailureKeepsPriorState(t *testing.T) {
	store := &mockStore{data: testData()}
	gw := New(store, schedule.IgnoreMissing, zap.NewNop())
	require.NoError(t, gw.Load(context.Background()))

	store.fetchErr = errors.New("boom")
	err := gw.Load(context.Background())

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, PhaseLoadError, gw.Phase())
	assert.Error(t, gw.Err())
	// prior data is still there for the operator
	assert.Len(t, gw.Assignments(model.ProgramElementary), 1)
}

func TestLoad_RefusedWhileDirty(t *testing.T) {
	store := &mockStore{data: testData()}
	gw := New(store, schedule.IgnoreMissing, zap.NewNop())
	require.NoError(t, gw.Load(context.Background()))

	gw.Assign(model.ProgramMiddle, "s-carol", "2025-07-02", "10:00", "11:00")
	require.True(t, gw.Dirty())

	err := gw.Load(context.Background())
	assert.ErrorIs(t, err, ErrUnsavedChanges)
	assert.Len(t, gw.Assignments(model.ProgramMiddle), 1, "local edit survives")

	// forced reload discards the edit
	require.NoError(t, gw.DiscardAndLoad(context.Background()))
	assert.Empty(t, gw.Assignments(model.ProgramMiddle))
	assert.False(t, gw.Dirty())
}

func TestLoad_StaleResponseDiscarded(t *testing.T) {
	store := &mockStore{data: testData()}
	gw := New(store, schedule.IgnoreMissing, zap.NewNop())

	// while the first fetch is in flight, a second load completes;
	// the first completion must then be thrown away
	newer := testData()
	newer.Elementary = append(newer.Elementary, model.Assignment{
		ID: "a2", Date: "2025-07-03", StartTime: "09:00", EndTime: "10:00", StaffID: "s-carol",
	})
	store.onFetch = func() {
		// swap the backing data and run the newer load to completion
		store.data = newer
		require.NoError(t, gw.DiscardAndLoad(context.Background()))
	}

	require.NoError(t, gw.Load(context.Background()))

	// state reflects the newer load, not the stale first response
	assert.Len(t, gw.Assignments(model.ProgramElementary), 2)
	assert.Equal(t, PhaseReady, gw.Phase())
	assert.Equal(t, 2, store.fetchCalls)
}

func TestLoadWithFallback(t *testing.T) {
	store := &mockStore{data: testData(), fetchErr: errors.New("endpoint down")}
	gw := New(store, schedule.IgnoreMissing, zap.NewNop())

	fallback := &model.ScheduleData{
		Staff: []model.Staff{{ID: "s-demo", Name: "Demo", MaxHours: 40}},
	}

	err := gw.LoadWithFallback(context.Background(), fallback)

	// the failure is still reported, but the board is usable
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, PhaseReady, gw.Phase())
	assert.Len(t, gw.Staff(), 1)
}

func TestSave_PostsAssignmentsAndReloads(t *testing.T) {
	store := &mockStore{data: testData(), persistStore: true}
	gw := New(store, schedule.IgnoreMissing, zap.NewNop())
	require.NoError(t, gw.Load(context.Background()))

	gw.Assign(model.ProgramElementary, "s-alice", "2025-07-02", "08:00", "09:00")
	require.True(t, gw.Dirty())

	require.NoError(t, gw.Save(context.Background()))

	// payload carried both collections plus the roster for reference
	require.Len(t, store.persisted, 1)
	assert.Len(t, store.persisted[0].Elementary, 2)
	assert.Len(t, store.persisted[0].Staff, 2)

	// save triggered a confirmatory reload: initial load + post-save
	assert.Equal(t, 2, store.fetchCalls)
	assert.Equal(t, PhaseReady, gw.Phase())
	assert.False(t, gw.Dirty())

	// the server-confirmed record is present after the round trip
	found := false
	for _, a := range gw.Assignments(model.ProgramElementary) {
		if a.Date == "2025-07-02" && a.StartTime == "08:00" && a.StaffID == "s-alice" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestSave_FailureKeepsLocalEdits(t *testing.T) {
	store := &mockStore{data: testData()}
	gw := New(store, schedule.IgnoreMissing, zap.NewNop())
	require.NoError(t, gw.Load(context.Background()))

	gw.Assign(model.ProgramMiddle, "s-carol", "2025-07-02", "10:00", "11:00")
	store.persistErr = errors.New("500")

	err := gw.Save(context.Background())

	var saveErr *SaveError
	require.ErrorAs(t, err, &saveErr)
	assert.True(t, gw.Dirty(), "edits are preserved, not rolled back")
	assert.Len(t, gw.Assignments(model.ProgramMiddle), 1)
	assert.Equal(t, PhaseReady, gw.Phase())
	assert.Equal(t, 1, store.fetchCalls, "no reload on save failure")
}

func TestSave_EditDuringSaveStaysDirty(t *testing.T) {
	store := &mockStore{data: testData(), persistStore: true}
	gw := New(store, schedule.IgnoreMissing, zap.NewNop())
	require.NoError(t, gw.Load(context.Background()))

	gw.Assign(model.ProgramElementary, "s-alice", "2025-07-02", "08:00", "09:00")

	// an edit lands while the write is in flight; it was not part of
	// the payload, so the save must neither clear it nor reload over it
	store.onPersist = func() {
		gw.Assign(model.ProgramMiddle, "s-carol", "2025-07-02", "10:00", "11:00")
	}

	require.NoError(t, gw.Save(context.Background()))

	require.Len(t, store.persisted, 1)
	assert.Empty(t, store.persisted[0].Middle, "mid-save edit was not in the payload")

	assert.True(t, gw.Dirty(), "the mid-save edit is still unsaved")
	assert.Len(t, gw.Assignments(model.ProgramMiddle), 1)
	assert.Equal(t, 1, store.fetchCalls, "confirmatory reload is skipped")

	// the next save picks the edit up normally
	require.NoError(t, gw.Save(context.Background()))
	require.Len(t, store.persisted, 2)
	assert.Len(t, store.persisted[1].Middle, 1)
	assert.False(t, gw.Dirty())
}

func TestSave_BeforeLoad(t *testing.T) {
	store := &mockStore{data: testData()}
	gw := New(store, schedule.IgnoreMissing, zap.NewNop())

	assert.ErrorIs(t, gw.Save(context.Background()), ErrNotLoaded)
}

func TestSave_RoundTripScenario(t *testing.T) {
	// Assign then save then reload: the server is the source of truth
	// after a save.
	store := &mockStore{
		data:         &model.ScheduleData{Staff: []model.Staff{{ID: "s-alice", Name: "Alice", MaxHours: 40}}},
		persistStore: true,
	}
	gw := New(store, schedule.IgnoreMissing, zap.NewNop())
	require.NoError(t, gw.Load(context.Background()))
	require.Empty(t, gw.Assignments(model.ProgramElementary))

	gw.Assign(model.ProgramElementary, "s-alice", "2025-07-01", "08:00", "09:00")
	require.NoError(t, gw.Save(context.Background()))

	require.NoError(t, gw.Load(context.Background()))
	records := gw.Assignments(model.ProgramElementary)
	require.Len(t, records, 1)
	assert.Equal(t, "2025-07-01", records[0].Date)
	assert.Equal(t, "08:00", records[0].StartTime)
	assert.Equal(t, "s-alice", records[0].StaffID)
}

func TestStaffLookups(t *testing.T) {
	store := &mockStore{data: testData()}
	gw := New(store, schedule.IgnoreMissing, zap.NewNop())
	require.NoError(t, gw.Load(context.Background()))

	byName := gw.StaffByName("Carol")
	require.NotNil(t, byName)
	assert.Equal(t, "s-carol", byName.ID)

	byID := gw.StaffByID("s-alice")
	require.NotNil(t, byID)
	assert.Equal(t, "Alice", byID.Name)

	assert.Nil(t, gw.StaffByName("Nobody"))
	assert.Nil(t, gw.StaffByID("s-nobody"))
}
