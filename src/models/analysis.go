package models

// -----------------------------------------------------------------------------
// Invoice audit (display only; the API invoice is never corrected)
// -----------------------------------------------------------------------------

type MAuditLine struct {
	ProductID int     `json:"producto_id"`
	Name      string  `json:"nombre"`
	Quantity  int     `json:"cantidad"`
	UnitPrice float64 `json:"precio_unitario"`
	Subtotal  float64 `json:"subtotal"`
	Expected  float64 `json:"expected_subtotal"`
	Mismatch  bool    `json:"mismatch"`
}

type MInvoiceAudit struct {
	CashierID         string       `json:"cajero_id"`
	Lines             []MAuditLine `json:"lines"`
	ReportedTotal     float64      `json:"reported_total"`
	ComputedTotal     float64      `json:"computed_total"`
	TotalMismatch     bool         `json:"total_mismatch"`
	ReportedItemCount int          `json:"reported_item_count"`
	ItemCountMismatch bool         `json:"item_count_mismatch"`
	Mismatches        int          `json:"mismatches"`
}

// -----------------------------------------------------------------------------
// Reports
// -----------------------------------------------------------------------------

type MSessionReport struct {
	BuyerID            string                  `json:"buyer_id"`
	BranchID           string                  `json:"branch_id"`
	Stage              Stage                   `json:"stage"`
	Budget             float64                 `json:"budget"`
	Spent              float64                 `json:"spent"`
	BudgetUsage        float64                 `json:"budget_usage"`
	OverBudget         bool                    `json:"over_budget"`
	CollectedProducts  int                     `json:"collected_products"`
	CollectedUnits     int                     `json:"collected_units"`
	MessagesByCategory map[MessageCategory]int `json:"messages_by_category"`
	Audit              *MInvoiceAudit          `json:"audit,omitempty"`
}

type MBranchReport struct {
	BranchID  string   `json:"branch_id"`
	Invoices  int      `json:"invoices"`
	Revenue   float64  `json:"revenue"`
	MeanTotal float64  `json:"mean_total"`
	StdTotal  float64  `json:"std_total"`
	MinTotal  float64  `json:"min_total"`
	MaxTotal  float64  `json:"max_total"`
	Outliers  []string `json:"outliers"`
}
