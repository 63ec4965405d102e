package session

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"shop-sim-viewer/src/engine"
	"shop-sim-viewer/src/helpers"
	"shop-sim-viewer/src/interfaces"
	"shop-sim-viewer/src/logger"
	"shop-sim-viewer/src/models"

	"github.com/google/uuid"
)

// NewBuyerID returns a fresh id of the form COMP_xxxxxxxx.
func NewBuyerID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "COMP_" + hex[:8]
}

// -----------------------------------------------------------------------------

// Manager is the registry of live sessions keyed by buyer id. Sessions live in memory only.
type Manager struct {
	Config   *models.MConfig
	API      interfaces.ISimulationAPI
	Maps     interfaces.IMapProvider
	Invoices interfaces.IInvoiceSink
	Observer interfaces.ISessionObserver
	Pacer    engine.Pacer
	Logger   *logger.Logger

	mu         sync.RWMutex
	sessions   map[string]*engine.StageController
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// -----------------------------------------------------------------------------

func NewManager(cfg *models.MConfig, api interfaces.ISimulationAPI, log *logger.Logger) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		Config:     cfg,
		API:        api,
		Logger:     log,
		sessions:   make(map[string]*engine.StageController),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// -----------------------------------------------------------------------------

// Create starts a session for branchID in the awaiting-budget stage.
func (m *Manager) Create(branchID string) (*engine.StageController, error) {
	branchID = strings.TrimSpace(branchID)
	if branchID == "" {
		return nil, helpers.NewValidationError("branch_id", "branch id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := NewBuyerID()
	for m.sessions[id] != nil {
		id = NewBuyerID()
	}

	c := engine.NewStageController(
		id,
		branchID,
		m.API,
		engine.TimingFromConfig(m.Config.Animation),
		m.Pacer,
		m.Config.Viewer.DefaultStart,
		logger.NewLogger(m.Config, "StageController-"+id),
	)
	c.Maps = m.Maps
	c.Invoices = m.Invoices
	c.Observer = m.Observer

	m.sessions[id] = c
	m.Logger.Info("Created session %s for branch %s", id, branchID)
	return c, nil
}

// -----------------------------------------------------------------------------

func (m *Manager) Get(buyerID string) (*engine.StageController, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.sessions[buyerID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", helpers.ErrSessionNotFound, buyerID)
	}
	return c, nil
}

// -----------------------------------------------------------------------------

// List returns a summary of every session, oldest first.
func (m *Manager) List() []models.MSessionSummary {
	m.mu.RLock()
	out := make([]models.MSessionSummary, 0, len(m.sessions))
	for _, c := range m.sessions {
		out = append(out, models.MSessionSummary{
			BuyerID:   c.BuyerID(),
			BranchID:  c.BranchID(),
			Stage:     c.Stage(),
			Busy:      c.Busy(),
			CreatedAt: c.CreatedAt().UnixNano(),
		})
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].BuyerID < out[j].BuyerID
	})
	return out
}

// -----------------------------------------------------------------------------

// Remove drops a session that is not running.
func (m *Manager) Remove(buyerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.sessions[buyerID]
	if !ok {
		return fmt.Errorf("%w: %s", helpers.ErrSessionNotFound, buyerID)
	}
	if c.Busy() {
		return helpers.ErrSessionBusy
	}
	delete(m.sessions, buyerID)
	m.Logger.Info("Removed session %s", buyerID)
	return nil
}

// -----------------------------------------------------------------------------

// Animation returns the pacing given to new sessions.
func (m *Manager) Animation() models.MAnimationConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Config.Animation
}

// SetAnimation changes the pacing of sessions created from now on. Running sessions keep theirs.
func (m *Manager) SetAnimation(a models.MAnimationConfig) {
	m.mu.Lock()
	m.Config.Animation = a
	m.mu.Unlock()
	m.Logger.Info("Animation pacing set to step %dms, dwell %dms", a.StepMs, a.DwellMs)
}

// -----------------------------------------------------------------------------

// Go runs a trigger in the background under the manager lifecycle. The outcome is visible
// through the session log; fn errors are only logged here.
func (m *Manager) Go(buyerID string, fn func(ctx context.Context, c *engine.StageController) error) error {
	c, err := m.Get(buyerID)
	if err != nil {
		return err
	}

	m.mu.RLock()
	ctx := m.ctx
	m.mu.RUnlock()
	if ctx.Err() != nil {
		return fmt.Errorf("session manager is stopped")
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := fn(ctx, c); err != nil {
			m.Logger.Debug("Background trigger for %s ended: %v", buyerID, err)
		}
	}()
	return nil
}

// -----------------------------------------------------------------------------

// Stop cancels running triggers and waits for them.
func (m *Manager) Stop() error {
	m.Logger.Info("Stopping session manager...")
	m.cancelFunc()
	m.wg.Wait()
	m.Logger.Info("Session manager stopped.")
	return nil
}

// -----------------------------------------------------------------------------

// Ready rejects a background trigger the controller would refuse, so callers can answer with
// the reason instead of a silent no-op. The controller checks again when the trigger runs.
func Ready(c *engine.StageController, allowed ...models.Stage) error {
	if c.Busy() {
		return helpers.ErrSessionBusy
	}
	stage := c.Stage()
	for _, a := range allowed {
		if a == stage {
			return nil
		}
	}
	return fmt.Errorf("%w: session is %s", helpers.ErrInvalidTransition, stage)
}
