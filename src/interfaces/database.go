package interfaces

import (
	"time"

	"shop-sim-viewer/src/models"
)

// -----------------------------------------------------------------------------
// ICatalogStore defines the contract for the branch catalog cache and invoice archive.
// -----------------------------------------------------------------------------

type ICatalogStore interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// SaveMap stores the map document of a branch, replacing any previous one.
	SaveMap(m *models.MBranchMap, fetchedAt time.Time) error

	// -----------------------------------------------------------------------------

	// LoadMap returns the cached map and when it was fetched. A miss returns nil without error.
	LoadMap(branchID string) (*models.MBranchMap, time.Time, error)

	// -----------------------------------------------------------------------------

	SaveInventory(branchID string, inv *models.MInventory, fetchedAt time.Time) error

	// -----------------------------------------------------------------------------

	LoadInventory(branchID string) (*models.MInventory, time.Time, error)

	// -----------------------------------------------------------------------------

	// SaveInvoice appends an invoice to the archive.
	SaveInvoice(inv models.MArchivedInvoice) error

	// -----------------------------------------------------------------------------

	// LoadInvoices returns the archived invoices of a branch, newest first.
	LoadInvoices(branchID string) ([]models.MArchivedInvoice, error)

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
