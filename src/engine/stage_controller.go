package engine

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"shop-sim-viewer/src/helpers"
	"shop-sim-viewer/src/interfaces"
	"shop-sim-viewer/src/logger"
	"shop-sim-viewer/src/models"
)

// UnknownCashier stands in when the API names no cashier.
const UnknownCashier = "CAJ_UNKNOWN"

// Timing holds every pause of the workflow.
type Timing struct {
	Step            time.Duration
	Dwell           time.Duration
	CollectionPause time.Duration
	CashierPause    time.Duration
	ProcessingPause time.Duration
}

// TimingFromConfig converts the millisecond settings of the config.
func TimingFromConfig(cfg models.MAnimationConfig) Timing {
	ms := func(v int) time.Duration { return time.Duration(v) * time.Millisecond }
	return Timing{
		Step:            ms(cfg.StepMs),
		Dwell:           ms(cfg.DwellMs),
		CollectionPause: ms(cfg.CollectionPauseMs),
		CashierPause:    ms(cfg.CashierPauseMs),
		ProcessingPause: ms(cfg.ProcessingPauseMs),
	}
}

// -----------------------------------------------------------------------------

// StageController drives one session through the purchase workflow:
// awaiting_budget -> selecting_list -> shopping -> checking_out -> complete.
// Stages only move forward. A failed step appends one error entry and leaves the stage as it was.
type StageController struct {
	mu    sync.RWMutex
	busy  atomic.Bool
	state *SessionState

	API      interfaces.ISimulationAPI
	Maps     interfaces.IMapProvider
	Invoices interfaces.IInvoiceSink
	Observer interfaces.ISessionObserver
	Pacer    Pacer
	Timing   Timing
	Logger   *logger.Logger
	now      func() time.Time
}

// -----------------------------------------------------------------------------

func NewStageController(buyerID, branchID string, api interfaces.ISimulationAPI, timing Timing, pacer Pacer, start models.MPosition, log *logger.Logger) *StageController {
	if pacer == nil {
		pacer = TimerPacer{}
	}
	if log == nil {
		log = logger.NewLogger(nil, "StageController-"+buyerID)
	}
	animator := NewRouteAnimator(start, pacer, timing.Step, timing.Dwell, log.Named("RouteAnimator-"+buyerID))
	return &StageController{
		state:  NewSessionState(buyerID, branchID, animator, time.Now),
		API:    api,
		Pacer:  pacer,
		Timing: timing,
		Logger: log,
		now:    time.Now,
	}
}

// -----------------------------------------------------------------------------

// SetClock replaces the time source of the controller and its log. Call before any trigger.
func (c *StageController) SetClock(now func() time.Time) {
	c.now = now
	c.state.Log.now = now
	c.state.CreatedAt = now()
}

// -----------------------------------------------------------------------------
// Read side
// -----------------------------------------------------------------------------

func (c *StageController) BuyerID() string  { return c.state.BuyerID }
func (c *StageController) BranchID() string { return c.state.BranchID }

func (c *StageController) Stage() models.Stage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Stage
}

func (c *StageController) Messages() []models.MMessage {
	return c.state.Log.Snapshot()
}

func (c *StageController) CashierStatuses() map[string]models.CashierStatus {
	return c.state.Cashiers.Snapshot()
}

func (c *StageController) Busy() bool {
	return c.busy.Load()
}

func (c *StageController) CreatedAt() time.Time {
	return c.state.CreatedAt
}

// Snapshot returns a copy of the whole session as a viewer frame.
func (c *StageController) Snapshot() models.MSessionFrame {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.frame(c.now())
}

// -----------------------------------------------------------------------------

func (c *StageController) publish() {
	if c.Observer == nil {
		return
	}
	c.Observer.OnFrame(c.Snapshot())
}

func (c *StageController) update(fn func(s *SessionState)) {
	c.mu.Lock()
	fn(c.state)
	c.mu.Unlock()
	c.publish()
}

func (c *StageController) say(from, to string, category models.MessageCategory, format string, args ...interface{}) {
	c.state.Log.Append(from, to, category, fmt.Sprintf(format, args...))
	c.publish()
}

// fail records the single error entry of a failed step.
func (c *StageController) fail(prefix string, err error) error {
	c.Logger.Error("%s: %v", prefix, err)
	c.mu.Lock()
	c.state.Activity = ""
	c.mu.Unlock()
	c.say(PartySystem, PartyUser, models.CategoryError, "%s: %s", prefix, helpers.UserMessage(err))
	return err
}

func (c *StageController) pause(ctx context.Context, d time.Duration) error {
	return c.Pacer.Wait(ctx, d)
}

// -----------------------------------------------------------------------------

// begin claims the session for one trigger. The returned func releases it.
func (c *StageController) begin(allowed ...models.Stage) (func(), error) {
	if !c.busy.CompareAndSwap(false, true) {
		return nil, helpers.ErrSessionBusy
	}
	stage := c.Stage()
	for _, s := range allowed {
		if s == stage {
			return func() { c.busy.Store(false) }, nil
		}
	}
	c.busy.Store(false)
	return nil, fmt.Errorf("%w: session is %s", helpers.ErrInvalidTransition, stage)
}

// -----------------------------------------------------------------------------

// ParseBudget accepts a positive finite decimal number.
func ParseBudget(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, helpers.NewValidationError("budget", "please enter a valid budget")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, helpers.NewValidationError("budget", "please enter a valid budget")
	}
	return v, nil
}

// -----------------------------------------------------------------------------
// Triggers
// -----------------------------------------------------------------------------

// SubmitBudget registers the buyer with the API and generates the three candidate lists.
func (c *StageController) SubmitBudget(ctx context.Context, raw string) error {
	release, err := c.begin(models.StageAwaitingBudget)
	if err != nil {
		return err
	}
	defer release()

	budget, err := ParseBudget(raw)
	if err != nil {
		return err
	}

	buyer, branch := c.state.BuyerID, c.state.BranchID
	reply, err := c.API.CreateBuyer(ctx, buyer, branch, budget)
	if err != nil {
		return c.fail("Error", err)
	}

	c.seedBranch(ctx, reply.BranchMap)
	c.update(func(s *SessionState) { s.Budget = budget })
	c.say(PartySystem, buyer, models.CategoryInfo, "Buyer agent entered %s with a budget of Bs. %s", branch, strconv.FormatFloat(budget, 'f', -1, 64))

	lists, err := c.API.GenerateLists(ctx, buyer)
	if err != nil {
		return c.fail("Error", err)
	}

	c.update(func(s *SessionState) {
		s.Lists = lists
		s.Stage = models.StageSelectingList
	})
	c.say(buyer, PartyUser, models.CategoryInfo, "Shopping lists generated with simulated annealing")
	c.Logger.Info("Budget %.2f accepted, lists ready", budget)
	return nil
}

// -----------------------------------------------------------------------------

// seedBranch initializes the cashier tracker and the agent start cell. The map embedded in the
// create reply wins; the map provider is only a fallback and its failure is not fatal.
func (c *StageController) seedBranch(ctx context.Context, m *models.MBranchMap) {
	if (m == nil || len(m.Cashiers) == 0) && c.Maps != nil {
		fetched, err := c.Maps.GetMap(ctx, c.state.BranchID)
		if err != nil {
			c.Logger.Warning("Branch map unavailable: %v", err)
			c.state.Log.Append(PartySystem, c.state.BuyerID, models.CategoryDiagnostic,
				fmt.Sprintf("Cashier list unavailable: %s", helpers.UserMessage(err)))
		} else {
			m = fetched
		}
	}
	if m == nil {
		return
	}

	c.state.Cashiers.Initialize(m.CashierIDs())
	if m.Entrance != nil {
		if p, ok := Normalize(*m.Entrance); ok {
			c.state.Animator.SetPosition(p)
		}
	}
	c.mu.Lock()
	c.state.BranchMap = m
	c.mu.Unlock()
}

// -----------------------------------------------------------------------------

// SelectList commits to one list and runs the rest of the workflow automatically.
func (c *StageController) SelectList(ctx context.Context, kind models.ListKind) error {
	if !kind.Valid() {
		return helpers.NewValidationError("tipo_lista", "unknown list type %q", kind)
	}
	release, err := c.begin(models.StageSelectingList)
	if err != nil {
		return err
	}
	defer release()

	if err := c.API.SelectList(ctx, c.state.BuyerID, kind); err != nil {
		return c.fail("Error", err)
	}

	c.say(PartyUser, c.state.BuyerID, models.CategorySelection, "List %q selected", string(kind))
	c.update(func(s *SessionState) {
		s.SelectedList = kind
		s.Stage = models.StageShopping
	})

	return c.advance(ctx)
}

// -----------------------------------------------------------------------------

// Resume re-runs the automatic step that last failed. Budget and list stages need their own
// triggers.
func (c *StageController) Resume(ctx context.Context) error {
	release, err := c.begin(models.StageShopping, models.StageCheckingOut)
	if err != nil {
		return err
	}
	defer release()

	c.Logger.Info("Resuming at %s", c.Stage())
	return c.advance(ctx)
}

// -----------------------------------------------------------------------------

// advance runs the automatic chain from the recorded progress markers.
func (c *StageController) advance(ctx context.Context) error {
	c.mu.RLock()
	stage, collected := c.state.Stage, c.state.collectionDone
	c.mu.RUnlock()

	if stage == models.StageShopping {
		if !collected {
			if err := c.collect(ctx); err != nil {
				return err
			}
		}
		if err := c.goToCashier(ctx); err != nil {
			return err
		}
	}
	return c.checkout(ctx)
}

// -----------------------------------------------------------------------------

func (c *StageController) collect(ctx context.Context) error {
	buyer := c.state.BuyerID
	c.say(buyer, PartySystem, models.CategoryInfo, "Starting product collection with A*")

	reply, err := c.API.StartCollection(ctx, buyer)
	if err != nil {
		return c.fail("Error during collection", err)
	}

	c.say(buyer, PartySystem, models.CategoryInfo, "Collection plan generated for %d products", len(reply.Result.Collected))

	segments := make([]models.MRouteSegment, 0, len(reply.Plan.Steps))
	dropped := 0
	for _, step := range reply.Plan.Steps {
		path, n := NormalizePath(step.Route)
		dropped += n
		segments = append(segments, models.MRouteSegment{
			Label:     step.Name,
			Kind:      models.SegmentProductCollection,
			Waypoints: path,
		})
	}
	if dropped > 0 {
		c.Logger.Warning("Dropped %d malformed waypoints from the collection plan", dropped)
		c.say(PartySystem, buyer, models.CategoryDiagnostic, "Dropped %d malformed waypoints from the collection plan", dropped)
	}

	var final *models.MPosition
	if p, ok := NormalizeJSON(reply.Result.FinalPosition); ok {
		final = &p
	} else if p, ok := NormalizeJSON(reply.Result.CurrentPosition); ok {
		final = &p
	}

	if err := c.replay(ctx, segments, final, func(i int) string {
		return fmt.Sprintf("Collecting: %s (%d/%d)", segments[i].Label, i+1, len(segments))
	}); err != nil {
		return c.fail("Error during collection", err)
	}

	products := c.collectedProducts(reply.Result.Collected)
	c.update(func(s *SessionState) {
		s.Collected = products
		s.Activity = ""
		s.collectionDone = true
	})
	c.say(buyer, PartySystem, models.CategorySuccess, "%d products collected", len(products))

	if err := c.pause(ctx, c.Timing.CollectionPause); err != nil {
		return c.fail("Error during collection", err)
	}
	return nil
}

// collectedProducts joins the API's collected entries with prices from the selected list.
func (c *StageController) collectedProducts(items []models.MCollectedProduct) []models.MProduct {
	c.mu.RLock()
	var list models.MProductList
	if c.state.Lists != nil {
		list, _ = c.state.Lists.Get(c.state.SelectedList)
	}
	c.mu.RUnlock()

	byID := make(map[int]models.MProduct, len(list.Products))
	for _, p := range list.Products {
		byID[p.ID] = p
	}

	out := make([]models.MProduct, 0, len(items))
	for _, it := range items {
		p := models.MProduct{ID: it.ProductID, Name: it.Name, Quantity: it.Quantity}
		if known, ok := byID[it.ProductID]; ok {
			p.Price = known.Price
			p.Category = known.Category
		}
		out = append(out, p)
	}
	return out
}

// -----------------------------------------------------------------------------

func (c *StageController) goToCashier(ctx context.Context) error {
	buyer := c.state.BuyerID
	c.say(buyer, PartySystem, models.CategoryInfo, "Looking for the nearest cashier with uniform cost search")

	reply, err := c.API.FindNearestCashier(ctx, buyer)
	if err != nil {
		return c.fail("Error going to cashier", err)
	}

	cashierID := UnknownCashier
	var final *models.MPosition
	if reply.Cashier != nil {
		if reply.Cashier.ID != "" {
			cashierID = reply.Cashier.ID
		}
		if reply.Unplaced {
			c.Logger.Warning("Cashier %s came without a position, stopping at the end of the route", cashierID)
		} else if p, ok := Normalize(models.MPosition{Row: reply.Cashier.Row, Col: reply.Cashier.Col}); ok {
			final = &p
		}
	}

	c.update(func(s *SessionState) { s.CurrentCashier = cashierID })
	c.say(buyer, PartySystem, models.CategoryInfo, "Heading to %s with UCS", cashierID)

	path, dropped := NormalizePath(reply.Route)
	if dropped > 0 {
		c.Logger.Warning("Dropped %d malformed waypoints from the cashier route", dropped)
		c.say(PartySystem, buyer, models.CategoryDiagnostic, "Dropped %d malformed waypoints from the cashier route", dropped)
	}
	segments := []models.MRouteSegment{{Label: cashierID, Kind: models.SegmentCashierTravel, Waypoints: path}}

	if err := c.replay(ctx, segments, final, func(int) string {
		return fmt.Sprintf("Heading to cashier %s", cashierID)
	}); err != nil {
		return c.fail("Error going to cashier", err)
	}

	c.state.Cashiers.SetStatus(cashierID, models.CashierReceiving)
	c.update(func(s *SessionState) { s.Activity = "" })
	c.say(buyer, cashierID, models.CategoryInfo, "Arrived at cashier %s", cashierID)

	if err := c.pause(ctx, c.Timing.CashierPause); err != nil {
		return c.fail("Error going to cashier", err)
	}

	c.update(func(s *SessionState) { s.Stage = models.StageCheckingOut })
	return nil
}

// -----------------------------------------------------------------------------

func (c *StageController) checkout(ctx context.Context) error {
	buyer := c.state.BuyerID
	c.mu.RLock()
	cashierID := c.state.CurrentCashier
	c.mu.RUnlock()

	c.say(buyer, cashierID, models.CategoryCommunication, "Sending product list to cashier")

	invoice, err := c.API.SubmitPurchase(ctx, buyer, cashierID)
	if err != nil {
		return c.fail("Error processing purchase", err)
	}

	c.say(cashierID, buyer, models.CategoryCommunication, "Processing products...")
	if err := c.pause(ctx, c.Timing.ProcessingPause); err != nil {
		return c.fail("Error processing purchase", err)
	}

	c.update(func(s *SessionState) { s.Invoice = invoice })
	c.state.Cashiers.SetStatus(cashierID, models.CashierWaiting)
	c.say(cashierID, buyer, models.CategorySuccess, "Invoice generated. Total: Bs. %.2f", invoice.Total)
	c.update(func(s *SessionState) { s.Stage = models.StageComplete })
	c.Logger.Info("Session complete, invoice total %.2f", invoice.Total)

	if c.Invoices != nil {
		if err := c.Invoices.ArchiveInvoice(ctx, buyer, c.state.BranchID, *invoice); err != nil {
			c.Logger.Warning("Invoice not archived: %v", err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

// replay runs the animator and publishes a frame per emission. activity labels each segment.
func (c *StageController) replay(ctx context.Context, segments []models.MRouteSegment, final *models.MPosition, activity func(i int) string) error {
	for f, err := range c.state.Animator.Replay(ctx, segments, final) {
		if err != nil {
			return err
		}
		label := ""
		if f.SegmentIndex >= 0 && !f.Arrived {
			label = activity(f.SegmentIndex)
		}
		c.mu.Lock()
		c.state.Activity = label
		c.mu.Unlock()
		c.publish()
	}
	return nil
}
