package analysis

import (
	"math"
	"sort"

	"shop-sim-viewer/src/analysis/core"
	"shop-sim-viewer/src/logger"
	"shop-sim-viewer/src/models"
)

// OutlierZScore is the distance from the mean, in standard deviations, past which an invoice
// total is reported as an outlier.
const OutlierZScore = 2.0

type AnalysisFacade struct {
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAnalysisFacade(log *logger.Logger) *AnalysisFacade {
	if log == nil {
		log = logger.NewLogger(nil, "Analysis")
	}
	return &AnalysisFacade{Logger: log}
}

// -----------------------------------------------------------------------------

// AuditInvoice recomputes every subtotal and the total of an invoice. Mismatches are only
// reported; the invoice itself is left as the API sent it.
func (a *AnalysisFacade) AuditInvoice(inv models.MInvoice) models.MInvoiceAudit {
	audit := models.MInvoiceAudit{
		CashierID:         inv.CashierID,
		Lines:             make([]models.MAuditLine, 0, len(inv.Items)),
		ReportedTotal:     inv.Total,
		ReportedItemCount: inv.ItemCount,
	}

	computed := 0.0
	for _, item := range inv.Items {
		expected := core.Round2(float64(item.Quantity) * item.UnitPrice)
		line := models.MAuditLine{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal,
			Expected:  expected,
			Mismatch:  !core.SameAmount(expected, item.Subtotal),
		}
		if line.Mismatch {
			audit.Mismatches++
		}
		audit.Lines = append(audit.Lines, line)
		computed += item.Subtotal
	}

	// 1. Total against the sum of reported subtotals
	audit.ComputedTotal = core.Round2(computed)
	if !core.SameAmount(audit.ComputedTotal, inv.Total) {
		audit.TotalMismatch = true
		audit.Mismatches++
	}

	// 2. Line count
	if inv.ItemCount != len(inv.Items) {
		audit.ItemCountMismatch = true
		audit.Mismatches++
	}

	if audit.Mismatches > 0 {
		a.Logger.Warning("Invoice from %s has %d inconsistencies", inv.CashierID, audit.Mismatches)
	}
	return audit
}

// -----------------------------------------------------------------------------

// SummarizeSession condenses a session frame into a report.
func (a *AnalysisFacade) SummarizeSession(frame models.MSessionFrame) models.MSessionReport {
	report := models.MSessionReport{
		BuyerID:            frame.BuyerID,
		BranchID:           frame.BranchID,
		Stage:              frame.Stage,
		Budget:             frame.Budget,
		CollectedProducts:  len(frame.Collected),
		MessagesByCategory: make(map[models.MessageCategory]int),
	}

	for _, p := range frame.Collected {
		report.CollectedUnits += p.Quantity
	}
	for _, m := range frame.Messages {
		report.MessagesByCategory[m.Category]++
	}

	if frame.Invoice != nil {
		audit := a.AuditInvoice(*frame.Invoice)
		report.Audit = &audit
		report.Spent = frame.Invoice.Total
	} else {
		for _, p := range frame.Collected {
			report.Spent += float64(p.Quantity) * p.Price
		}
		report.Spent = core.Round2(report.Spent)
	}

	report.BudgetUsage = core.CalculateUsage(report.Spent, report.Budget)
	report.OverBudget = report.Budget > 0 && report.Spent-report.Budget >= core.Tolerance
	return report
}

// -----------------------------------------------------------------------------

// SummarizeBranch computes statistics over the archived invoices of one branch.
func (a *AnalysisFacade) SummarizeBranch(branchID string, invoices []models.MArchivedInvoice) models.MBranchReport {
	report := models.MBranchReport{
		BranchID: branchID,
		Invoices: len(invoices),
		Outliers: []string{},
	}
	if len(invoices) == 0 {
		return report
	}

	totals := make([]float64, len(invoices))
	for i, inv := range invoices {
		totals[i] = inv.Invoice.Total
		report.Revenue += inv.Invoice.Total
	}
	report.Revenue = core.Round2(report.Revenue)
	report.MeanTotal, report.StdTotal = core.CalculateMeanStd(totals)
	report.MinTotal, report.MaxTotal = core.CalculateMinMax(totals)

	for i, inv := range invoices {
		z := core.CalculateZScore(totals[i], report.MeanTotal, report.StdTotal)
		if math.Abs(z) > OutlierZScore {
			report.Outliers = append(report.Outliers, inv.BuyerID)
		}
	}
	sort.Strings(report.Outliers)
	return report
}
