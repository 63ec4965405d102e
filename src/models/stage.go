package models

// Stage is one phase of the purchase workflow. Values are ordered by progress.
type Stage int

const (
	StageAwaitingBudget Stage = iota
	StageSelectingList
	StageShopping
	StageCheckingOut
	StageComplete
)

var stageNames = [...]string{"awaiting_budget", "selecting_list", "shopping", "checking_out", "complete"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// AllStages returns the workflow in order.
func AllStages() []Stage {
	return []Stage{StageAwaitingBudget, StageSelectingList, StageShopping, StageCheckingOut, StageComplete}
}

// -----------------------------------------------------------------------------

type CashierStatus string

const (
	CashierWaiting   CashierStatus = "esperando"
	CashierReceiving CashierStatus = "recibiendo"
)
