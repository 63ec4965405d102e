package catalog

import (
	"context"
	"strings"
	"sync"
	"time"

	"shop-sim-viewer/src/helpers"
	"shop-sim-viewer/src/interfaces"
	"shop-sim-viewer/src/logger"
	"shop-sim-viewer/src/models"
)

// BranchCatalog serves branch maps and inventories from the store while they are fresh and
// from the simulation API otherwise. It also archives completed invoices.
type BranchCatalog struct {
	Source interfaces.IBranchSource
	Store  interfaces.ICatalogStore
	TTL    time.Duration
	Logger *logger.Logger

	mu    sync.Mutex             // guards locks
	locks map[string]*sync.Mutex // one per cached document, so concurrent misses fetch once
	now   func() time.Time
}

var (
	_ interfaces.IMapProvider   = (*BranchCatalog)(nil)
	_ interfaces.IInvoiceSink   = (*BranchCatalog)(nil)
	_ interfaces.IBranchCatalog = (*BranchCatalog)(nil)
)

// -----------------------------------------------------------------------------

func NewBranchCatalog(source interfaces.IBranchSource, store interfaces.ICatalogStore, ttl time.Duration, log *logger.Logger) *BranchCatalog {
	return &BranchCatalog{
		Source: source,
		Store:  store,
		TTL:    ttl,
		Logger: log,
		locks:  make(map[string]*sync.Mutex),
		now:    time.Now,
	}
}

// -----------------------------------------------------------------------------

func (c *BranchCatalog) fresh(fetchedAt time.Time) bool {
	return c.TTL > 0 && c.now().Sub(fetchedAt) < c.TTL
}

// lock takes the lock of one cached document and returns its unlock.
func (c *BranchCatalog) lock(key string) func() {
	c.mu.Lock()
	if c.locks == nil {
		c.locks = make(map[string]*sync.Mutex)
	}
	l, ok := c.locks[key]
	if !ok {
		l = &sync.Mutex{}
		c.locks[key] = l
	}
	c.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// -----------------------------------------------------------------------------

// GetMap returns the map of a branch. A store failure degrades to a direct fetch.
func (c *BranchCatalog) GetMap(ctx context.Context, branchID string) (*models.MBranchMap, error) {
	defer c.lock("map:" + branchID)()

	if c.Store != nil {
		m, fetchedAt, err := c.Store.LoadMap(branchID)
		if err != nil {
			c.Logger.Warning("Map cache read failed for %s: %v", branchID, err)
		} else if m != nil && c.fresh(fetchedAt) {
			return m, nil
		}
	}

	m, err := c.Source.GetMap(ctx, branchID)
	if err != nil {
		return nil, err
	}
	c.storeMap(m)
	return m, nil
}

func (c *BranchCatalog) storeMap(m *models.MBranchMap) {
	if c.Store == nil {
		return
	}
	if err := c.Store.SaveMap(m, c.now()); err != nil {
		c.Logger.Warning("Map cache write failed for %s: %v", m.BranchID, err)
	}
}

// -----------------------------------------------------------------------------

func (c *BranchCatalog) GetInventory(ctx context.Context, branchID string) (*models.MInventory, error) {
	defer c.lock("inventory:" + branchID)()

	if c.Store != nil {
		inv, fetchedAt, err := c.Store.LoadInventory(branchID)
		if err != nil {
			c.Logger.Warning("Inventory cache read failed for %s: %v", branchID, err)
		} else if inv != nil && c.fresh(fetchedAt) {
			return inv, nil
		}
	}

	inv, err := c.Source.GetInventory(ctx, branchID)
	if err != nil {
		return nil, err
	}
	if c.Store != nil {
		if err := c.Store.SaveInventory(branchID, inv, c.now()); err != nil {
			c.Logger.Warning("Inventory cache write failed for %s: %v", branchID, err)
		}
	}
	return inv, nil
}

// -----------------------------------------------------------------------------

// ListMaps always asks the API; the list is small and changes with every saved map.
func (c *BranchCatalog) ListMaps(ctx context.Context) ([]models.MBranchSummary, error) {
	return c.Source.ListMaps(ctx)
}

// -----------------------------------------------------------------------------

// ValidateMap applies the checks of the map editor before a save.
func ValidateMap(m *models.MBranchMap) error {
	if m == nil {
		return helpers.NewValidationError("mapa", "map is required")
	}
	if strings.TrimSpace(m.Name) == "" {
		return helpers.NewValidationError("nombre", "map name is required")
	}
	if m.Dimensions.Rows <= 0 || m.Dimensions.Cols <= 0 {
		return helpers.NewValidationError("dimensiones", "dimensions must be positive")
	}
	for name := range m.ProductZones {
		if strings.TrimSpace(name) == "" {
			return helpers.NewValidationError("zonas_productos", "product zones need a name")
		}
	}
	inside := func(r, col int) bool {
		return r >= 0 && col >= 0 && r < m.Dimensions.Rows && col < m.Dimensions.Cols
	}
	if m.Entrance != nil && !inside(m.Entrance.Row, m.Entrance.Col) {
		return helpers.NewValidationError("entrada", "entrance is outside the grid")
	}
	seen := make(map[string]bool, len(m.Cashiers))
	for _, cj := range m.Cashiers {
		if cj.ID == "" || seen[cj.ID] {
			return helpers.NewValidationError("cajeros", "cashier ids must be unique and non-empty")
		}
		seen[cj.ID] = true
		if !inside(cj.Row, cj.Col) {
			return helpers.NewValidationError("cajeros", "cashier %s is outside the grid", cj.ID)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

// SaveMap validates and stores a map, then refreshes the cached copy.
func (c *BranchCatalog) SaveMap(ctx context.Context, branchID string, m *models.MBranchMap) error {
	if err := ValidateMap(m); err != nil {
		return err
	}
	m.BranchID = branchID

	defer c.lock("map:" + branchID)()

	if err := c.Source.SaveMap(ctx, branchID, m); err != nil {
		return err
	}
	c.storeMap(m)
	c.Logger.Info("Map %s saved", branchID)
	return nil
}

// -----------------------------------------------------------------------------

// ArchiveInvoice records the invoice of a completed session.
func (c *BranchCatalog) ArchiveInvoice(ctx context.Context, buyerID, branchID string, invoice models.MInvoice) error {
	if c.Store == nil {
		return nil
	}
	return c.Store.SaveInvoice(models.MArchivedInvoice{
		BuyerID:   buyerID,
		BranchID:  branchID,
		Invoice:   invoice,
		CreatedAt: c.now().Unix(),
	})
}

// -----------------------------------------------------------------------------

func (c *BranchCatalog) Invoices(ctx context.Context, branchID string) ([]models.MArchivedInvoice, error) {
	if c.Store == nil {
		return []models.MArchivedInvoice{}, nil
	}
	list, err := c.Store.LoadInvoices(branchID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.MArchivedInvoice{}
	}
	return list, nil
}
