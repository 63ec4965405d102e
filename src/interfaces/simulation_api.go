package interfaces

import (
	"context"

	"shop-sim-viewer/src/models"
)

// -----------------------------------------------------------------------------
// ISimulationAPI is the buyer side of the remote simulation API.
// Every method fails with *helpers.TransportError or *helpers.APIError.
// -----------------------------------------------------------------------------

type ISimulationAPI interface {
	CreateBuyer(ctx context.Context, buyerID, branchID string, budget float64) (*models.MCreateBuyerReply, error)

	// -----------------------------------------------------------------------------

	GenerateLists(ctx context.Context, buyerID string) (*models.MProductLists, error)

	// -----------------------------------------------------------------------------

	SelectList(ctx context.Context, buyerID string, kind models.ListKind) error

	// -----------------------------------------------------------------------------

	// StartCollection plans and executes the product collection in one call.
	StartCollection(ctx context.Context, buyerID string) (*models.MCollectionReply, error)

	// -----------------------------------------------------------------------------

	FindNearestCashier(ctx context.Context, buyerID string) (*models.MCashierReply, error)

	// -----------------------------------------------------------------------------

	SubmitPurchase(ctx context.Context, buyerID, cashierID string) (*models.MInvoice, error)
}

// -----------------------------------------------------------------------------
// IBranchSource serves maps and inventories.
// -----------------------------------------------------------------------------

type IBranchSource interface {
	GetMap(ctx context.Context, branchID string) (*models.MBranchMap, error)
	ListMaps(ctx context.Context) ([]models.MBranchSummary, error)
	GetInventory(ctx context.Context, branchID string) (*models.MInventory, error)
	SaveMap(ctx context.Context, branchID string, m *models.MBranchMap) error
}

// -----------------------------------------------------------------------------

// IMapProvider is the read-only view of IBranchSource used as a cashier seed fallback.
type IMapProvider interface {
	GetMap(ctx context.Context, branchID string) (*models.MBranchMap, error)
}

// IInvoiceSink receives invoices of completed sessions.
type IInvoiceSink interface {
	ArchiveInvoice(ctx context.Context, buyerID, branchID string, invoice models.MInvoice) error
}

// -----------------------------------------------------------------------------
// IBranchCatalog is what the viewer and control plane need from the branch catalog.
// -----------------------------------------------------------------------------

type IBranchCatalog interface {
	IBranchSource
	Invoices(ctx context.Context, branchID string) ([]models.MArchivedInvoice, error)
}
