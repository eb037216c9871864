package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/jakechorley/camp-scheduler/pkg/core/model"
	"github.com/jakechorley/camp-scheduler/pkg/core/schedule"
)

// Phase is the gateway's synchronization state
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseLoading   Phase = "loading"
	PhaseReady     Phase = "ready"
	PhaseLoadError Phase = "load_error"
)

var (
	// ErrUnsavedChanges is returned by Load while the board holds
	// local edits; DiscardAndLoad overrides
	ErrUnsavedChanges = errors.New("board has unsaved changes")

	// ErrSaveInFlight is returned by Save while another save is
	// outstanding
	ErrSaveInFlight = errors.New("save already in flight")

	// ErrNotLoaded is returned by Save before any successful load
	ErrNotLoaded = errors.New("no schedule loaded")
)

// LoadError wraps a failed read from the remote store. Recoverable by
// retry or by fallback substitution; prior in-memory state is kept.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string { return fmt.Sprintf("load failed: %v", e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

// SaveError wraps a failed write. Local edits are preserved, never
// rolled back; retry is operator-initiated.
type SaveError struct {
	Err error
}

func (e *SaveError) Error() string { return fmt.Sprintf("save failed: %v", e.Err) }
func (e *SaveError) Unwrap() error { return e.Err }

// ScheduleStore is the remote schedule endpoint. Persist receives the
// full aggregate so implementations can resolve staff references, but
// only the two assignment collections are ever written back.
type ScheduleStore interface {
	Fetch(ctx context.Context) (*model.ScheduleData, error)
	Persist(ctx context.Context, data *model.ScheduleData) error
}

// Gateway owns the single authoritative schedule state: the board, the
// staff roster and the load/save state machine. All board access goes
// through the gateway so the HTTP shell can serve concurrent requests.
type Gateway struct {
	mu     sync.Mutex
	store  ScheduleStore
	logger *zap.Logger

	board *schedule.Board
	staff []model.Staff

	phase   Phase
	lastErr error
	saving  bool

	// loadSeq tags each issued load; a completion whose tag is no
	// longer the latest is discarded (latest request wins)
	loadSeq uint64
}

// New creates a gateway in the Idle phase
func New(store ScheduleStore, policy schedule.MissingKeyPolicy, logger *zap.Logger) *Gateway {
	return &Gateway{
		store:  store,
		logger: logger,
		board:  schedule.NewBoard(policy),
		phase:  PhaseIdle,
	}
}

// Load fetches current state from the store and replaces the board and
// roster wholesale. It refuses to clobber local edits; use
// DiscardAndLoad to drop them.
func (g *Gateway) Load(ctx context.Context) error {
	g.mu.Lock()
	if g.board.Dirty() {
		g.mu.Unlock()
		return ErrUnsavedChanges
	}
	g.mu.Unlock()
	return g.load(ctx)
}

// DiscardAndLoad drops any local edits and reloads from the store
func (g *Gateway) DiscardAndLoad(ctx context.Context) error {
	return g.load(ctx)
}

// LoadWithFallback loads from the store, substituting the given
// dataset when the fetch fails. The underlying error is still
// returned so callers can surface it; the gateway ends up Ready on the
// fallback data either way.
func (g *Gateway) LoadWithFallback(ctx context.Context, fallback *model.ScheduleData) error {
	err := g.load(ctx)
	if err == nil || fallback == nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.logger.Warn("Load failed, installing fallback dataset", zap.Error(err))
	g.install(fallback)
	return err
}

func (g *Gateway) load(ctx context.Context) error {
	g.mu.Lock()
	g.loadSeq++
	seq := g.loadSeq
	g.phase = PhaseLoading
	g.mu.Unlock()

	g.logger.Info("Loading schedule data", zap.Uint64("seq", seq))
	data, err := g.store.Fetch(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()

	if seq != g.loadSeq {
		// a newer load was issued while this one was in flight
		g.logger.Debug("Discarding stale load response",
			zap.Uint64("seq", seq),
			zap.Uint64("latest", g.loadSeq))
		return nil
	}

	if err != nil {
		g.phase = PhaseLoadError
		g.lastErr = err
		g.logger.Error("Failed to load schedule data", zap.Error(err))
		return &LoadError{Err: err}
	}

	g.install(data)
	g.logger.Info("Schedule data loaded",
		zap.Int("elementary", len(data.Elementary)),
		zap.Int("middle", len(data.Middle)),
		zap.Int("staff", len(data.Staff)))
	return nil
}

// install replaces board and roster; caller holds the lock
func (g *Gateway) install(data *model.ScheduleData) {
	g.board.Replace(data.Elementary, data.Middle)
	g.staff = append([]model.Staff(nil), data.Staff...)
	g.phase = PhaseReady
	g.lastErr = nil
}

// Save posts the two assignment collections to the store. The roster
// is never written back. On success the gateway immediately reloads so
// the board reflects server-confirmed state; the returned error, if
// any, then comes from that confirmatory reload. On save failure the
// in-memory state is left untouched.
func (g *Gateway) Save(ctx context.Context) error {
	g.mu.Lock()
	if g.saving {
		g.mu.Unlock()
		return ErrSaveInFlight
	}
	if g.phase == PhaseIdle {
		g.mu.Unlock()
		return ErrNotLoaded
	}
	g.saving = true
	payload := &model.ScheduleData{
		Elementary: g.board.Assignments(model.ProgramElementary),
		Middle:     g.board.Assignments(model.ProgramMiddle),
		Staff:      append([]model.Staff(nil), g.staff...),
	}
	snapshot := g.board.Generation()
	g.mu.Unlock()

	g.logger.Info("Saving schedule",
		zap.Int("elementary", len(payload.Elementary)),
		zap.Int("middle", len(payload.Middle)))
	err := g.store.Persist(ctx, payload)

	g.mu.Lock()
	g.saving = false
	if err != nil {
		g.mu.Unlock()
		g.logger.Error("Failed to save schedule", zap.Error(err))
		return &SaveError{Err: err}
	}
	if g.board.Generation() != snapshot {
		// the board changed while the write was in flight; those
		// edits were not in the payload, so they must stay dirty and
		// the confirmatory reload must not clobber them
		g.mu.Unlock()
		g.logger.Warn("Board changed during save; keeping local edits, skipping reload")
		return nil
	}
	g.board.ClearDirty()
	g.mu.Unlock()

	g.logger.Info("Schedule saved, reloading to confirm")
	return g.load(ctx)
}

// Board mutations, serialised through the gateway lock.

func (g *Gateway) Assign(p model.Program, staffID, date, startTime, endTime string) model.Assignment {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.board.Assign(p, staffID, date, startTime, endTime)
}

func (g *Gateway) Remove(p model.Program, date, startTime, staffID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.board.Remove(p, date, startTime, staffID)
}

func (g *Gateway) Swap(p model.Program, from, to schedule.Key) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.board.Swap(p, from, to)
}

func (g *Gateway) ApplyDrop(ev schedule.DropEvent) (schedule.DropAction, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.board.ApplyDrop(ev)
}

// Queries.

func (g *Gateway) Assignments(p model.Program) []model.Assignment {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.board.Assignments(p)
}

func (g *Gateway) AssignmentsForSlot(p model.Program, date, startTime string) []model.Assignment {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.board.AssignmentsForSlot(p, date, startTime)
}

func (g *Gateway) HoursFor(staffID string, programs []model.Program, week *schedule.WeekWindow) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.board.HoursFor(staffID, programs, week)
}

// Staff returns a copy of the roster
func (g *Gateway) Staff() []model.Staff {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]model.Staff(nil), g.staff...)
}

func (g *Gateway) StaffByID(id string) *model.Staff {
	g.mu.Lock()
	defer g.mu.Unlock()
	return schedule.StaffByID(g.staff, id)
}

func (g *Gateway) StaffByName(name string) *model.Staff {
	g.mu.Lock()
	defer g.mu.Unlock()
	return schedule.StaffByName(g.staff, name)
}

func (g *Gateway) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

// Err returns the error recorded by the last failed load, if the
// gateway is still in LoadError
func (g *Gateway) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastErr
}

func (g *Gateway) IsLoading() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase == PhaseLoading
}

func (g *Gateway) IsSaving() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.saving
}

func (g *Gateway) Dirty() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.board.Dirty()
}
