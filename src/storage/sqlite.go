package storage

import (
	"database/sql"
	"fmt"
	"time"

	"shop-sim-viewer/src/helpers"
	"shop-sim-viewer/src/interfaces"
	"shop-sim-viewer/src/logger"
	"shop-sim-viewer/src/models"

	_ "modernc.org/sqlite"
)

var _ interfaces.ICatalogStore = (*AsyncSQLiteDB)(nil)

// -----------------------------------------------------------------------------

type AsyncSQLiteDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAsyncSQLiteDB(cfg *models.MConfig, log *logger.Logger) (*AsyncSQLiteDB, error) {
	return &AsyncSQLiteDB{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Initialize() error {
	dsn := d.Config.Storage.DBPath

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return helpers.NewDatabaseError("open sqlite", err)
	}

	if err := db.Ping(); err != nil {
		return helpers.NewDatabaseError("ping sqlite", err)
	}

	// A single connection serializes writers.
	db.SetMaxOpenConns(1)
	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	if err := d.recreateCacheTables(); err != nil {
		return err
	}
	if err := d.ensureInvoiceTable(); err != nil {
		return err
	}

	d.Logger.Info("SQLiteDB initialized successfully (%s)", dsn)
	return nil
}

// -----------------------------------------------------------------------------

// recreateCacheTables drops the catalog cache; it is refilled from the API on demand.
func (d *AsyncSQLiteDB) recreateCacheTables() error {
	for _, table := range []string{"branch_maps", "inventories"} {
		if _, err := d.DB.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
			return fmt.Errorf("failed to drop %s: %w", table, err)
		}
	}

	query := `
		CREATE TABLE branch_maps (
			branch_id TEXT PRIMARY KEY,
			name TEXT,
			document TEXT NOT NULL,
			fetched_at INTEGER NOT NULL
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create branch_maps: %w", err)
	}

	query = `
		CREATE TABLE inventories (
			branch_id TEXT PRIMARY KEY,
			document TEXT NOT NULL,
			fetched_at INTEGER NOT NULL
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create inventories: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// ensureInvoiceTable keeps the archive across restarts.
func (d *AsyncSQLiteDB) ensureInvoiceTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS invoices (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			buyer_id TEXT NOT NULL,
			branch_id TEXT NOT NULL,
			cashier_id TEXT,
			total REAL,
			item_count INTEGER,
			items TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create invoices: %w", err)
	}
	if _, err := d.DB.Exec("CREATE INDEX IF NOT EXISTS idx_invoices_branch ON invoices (branch_id, created_at)"); err != nil {
		return fmt.Errorf("failed to index invoices: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) SaveMap(m *models.MBranchMap, fetchedAt time.Time) error {
	doc, err := encodeDocument("save map", m)
	if err != nil {
		return err
	}
	_, err = d.DB.Exec(`
		INSERT INTO branch_maps (branch_id, name, document, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (branch_id) DO UPDATE SET
			name = excluded.name,
			document = excluded.document,
			fetched_at = excluded.fetched_at
	`, m.BranchID, m.Name, doc, fetchedAt.UnixNano())
	if err != nil {
		return helpers.NewDatabaseError("save map", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) LoadMap(branchID string) (*models.MBranchMap, time.Time, error) {
	var m models.MBranchMap
	row := d.DB.QueryRow("SELECT document, fetched_at FROM branch_maps WHERE branch_id = ?", branchID)
	fetchedAt, ok, err := decodeRow("load map", row, &m)
	if err != nil || !ok {
		return nil, time.Time{}, err
	}
	return &m, fetchedAt, nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) SaveInventory(branchID string, inv *models.MInventory, fetchedAt time.Time) error {
	doc, err := encodeDocument("save inventory", inv)
	if err != nil {
		return err
	}
	_, err = d.DB.Exec(`
		INSERT INTO inventories (branch_id, document, fetched_at)
		VALUES (?, ?, ?)
		ON CONFLICT (branch_id) DO UPDATE SET
			document = excluded.document,
			fetched_at = excluded.fetched_at
	`, branchID, doc, fetchedAt.UnixNano())
	if err != nil {
		return helpers.NewDatabaseError("save inventory", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) LoadInventory(branchID string) (*models.MInventory, time.Time, error) {
	var inv models.MInventory
	row := d.DB.QueryRow("SELECT document, fetched_at FROM inventories WHERE branch_id = ?", branchID)
	fetchedAt, ok, err := decodeRow("load inventory", row, &inv)
	if err != nil || !ok {
		return nil, time.Time{}, err
	}
	return &inv, fetchedAt, nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) SaveInvoice(a models.MArchivedInvoice) error {
	items, err := encodeDocument("save invoice", a.Invoice.Items)
	if err != nil {
		return err
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return helpers.NewDatabaseError("save invoice", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO invoices (buyer_id, branch_id, cashier_id, total, item_count, items, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.BuyerID, a.BranchID, a.Invoice.CashierID, a.Invoice.Total, a.Invoice.ItemCount, items, a.CreatedAt)
	if err != nil {
		return helpers.NewDatabaseError("save invoice", err)
	}
	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) LoadInvoices(branchID string) ([]models.MArchivedInvoice, error) {
	rows, err := d.DB.Query(`
		SELECT buyer_id, branch_id, cashier_id, total, item_count, items, created_at
		FROM invoices WHERE branch_id = ? ORDER BY created_at DESC, id DESC
	`, branchID)
	if err != nil {
		return nil, helpers.NewDatabaseError("load invoices", err)
	}
	return scanInvoices("load invoices", rows)
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
