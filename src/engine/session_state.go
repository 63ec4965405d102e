package engine

import (
	"time"

	"shop-sim-viewer/src/models"
)

// Parties named in the communication log besides the buyer and cashier ids.
const (
	PartySystem = "System"
	PartyUser   = "User"
)

// SessionState is everything one purchasing session knows. It is owned by a StageController;
// other goroutines only see it through Snapshot.
type SessionState struct {
	BuyerID        string
	BranchID       string
	Stage          models.Stage
	Budget         float64
	Lists          *models.MProductLists
	SelectedList   models.ListKind
	Collected      []models.MProduct
	CurrentCashier string
	Invoice        *models.MInvoice
	Activity       string
	BranchMap      *models.MBranchMap
	CreatedAt      time.Time

	// Markers of the automatic chain, consulted by Resume.
	collectionDone bool

	Log      *CommunicationLog
	Cashiers *CashierStatusTracker
	Animator *RouteAnimator
}

// -----------------------------------------------------------------------------

func NewSessionState(buyerID, branchID string, animator *RouteAnimator, now func() time.Time) *SessionState {
	if now == nil {
		now = time.Now
	}
	return &SessionState{
		BuyerID:   buyerID,
		BranchID:  branchID,
		Stage:     models.StageAwaitingBudget,
		CreatedAt: now(),
		Log:       NewCommunicationLog(now),
		Cashiers:  NewCashierStatusTracker(),
		Animator:  animator,
	}
}

// -----------------------------------------------------------------------------

// frame assembles a viewer frame. Callers hold the controller read lock.
func (s *SessionState) frame(now time.Time) models.MSessionFrame {
	f := models.MSessionFrame{
		Type:            "UPDATE",
		BuyerID:         s.BuyerID,
		BranchID:        s.BranchID,
		Stage:           s.Stage,
		Budget:          s.Budget,
		Position:        s.Animator.Position(),
		Remaining:       s.Animator.Remaining(),
		Progress:        s.Animator.Progress(),
		Activity:        s.Activity,
		CashierStatuses: s.Cashiers.Snapshot(),
		CurrentCashier:  s.CurrentCashier,
		SelectedList:    s.SelectedList,
		Collected:       append([]models.MProduct{}, s.Collected...),
		Messages:        s.Log.Snapshot(),
		Timestamp:       now.Unix(),
	}
	if s.Lists != nil {
		lists := *s.Lists
		f.Lists = &lists
	}
	if s.Invoice != nil {
		inv := *s.Invoice
		inv.Items = append([]models.MInvoiceItem(nil), s.Invoice.Items...)
		f.Invoice = &inv
	}
	return f
}
