package models

// -----------------------------------------------------------------------------
// Session snapshot pushed to viewers
// -----------------------------------------------------------------------------

type MSessionFrame struct {
	Type            string                   `json:"type"` // "INITIAL" or "UPDATE"
	BuyerID         string                   `json:"buyer_id"`
	BranchID        string                   `json:"branch_id"`
	Stage           Stage                    `json:"stage"`
	Budget          float64                  `json:"budget"`
	Position        MPosition                `json:"position"`
	Remaining       []MPosition              `json:"remaining"`
	Progress        MAnimationProgress       `json:"progress"`
	Activity        string                   `json:"activity"`
	CashierStatuses map[string]CashierStatus `json:"cashier_statuses"`
	CurrentCashier  string                   `json:"current_cashier"`
	Lists           *MProductLists           `json:"lists,omitempty"`
	SelectedList    ListKind                 `json:"selected_list,omitempty"`
	Collected       []MProduct               `json:"collected"`
	Invoice         *MInvoice                `json:"invoice,omitempty"`
	Messages        []MMessage               `json:"messages"`
	Timestamp       int64                    `json:"timestamp"`
}

// -----------------------------------------------------------------------------
// SubscribeCommand for client messages
// -----------------------------------------------------------------------------

type MSubscribeCommand struct {
	Command string `json:"command"`
	Session string `json:"session"`
}

// -----------------------------------------------------------------------------
// Session listing entry
// -----------------------------------------------------------------------------

type MSessionSummary struct {
	BuyerID   string `json:"buyer_id"`
	BranchID  string `json:"branch_id"`
	Stage     Stage  `json:"stage"`
	Busy      bool   `json:"busy"`
	CreatedAt int64  `json:"created_at"`
}
