package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shop-sim-viewer/src/helpers"
	"shop-sim-viewer/src/interfaces"
	"shop-sim-viewer/src/logger"
	"shop-sim-viewer/src/models"

	_ "github.com/lib/pq"
)

var _ interfaces.ICatalogStore = (*PostgresDB)(nil)

// -----------------------------------------------------------------------------

type PostgresDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

// NewPostgresDB keeps every table in a schema named after the running executable.
func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) (*PostgresDB, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable name: %w", err)
	}
	name := filepath.Base(exe)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	return &PostgresDB{
		Config: cfg,
		Schema: name,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return helpers.NewDatabaseError("open postgres", err)
	}

	if err := db.Ping(); err != nil {
		return helpers.NewDatabaseError("ping postgres", err)
	}

	d.DB = db

	// Create Schema
	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}

	if err := d.recreateCacheTables(); err != nil {
		return err
	}
	if err := d.ensureInvoiceTable(); err != nil {
		return err
	}

	d.Logger.Info("PostgresDB initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) table(name string) string {
	return fmt.Sprintf(`"%s"."%s"`, d.Schema, name)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) recreateCacheTables() error {
	for _, name := range []string{"branch_maps", "inventories"} {
		if _, err := d.DB.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %s`, d.table(name))); err != nil {
			return fmt.Errorf("failed to drop %s: %w", name, err)
		}
	}

	query := fmt.Sprintf(`
		CREATE TABLE %s (
			branch_id TEXT PRIMARY KEY,
			name TEXT,
			document JSONB NOT NULL,
			fetched_at BIGINT NOT NULL
		);
	`, d.table("branch_maps"))
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create branch_maps: %w", err)
	}

	query = fmt.Sprintf(`
		CREATE TABLE %s (
			branch_id TEXT PRIMARY KEY,
			document JSONB NOT NULL,
			fetched_at BIGINT NOT NULL
		);
	`, d.table("inventories"))
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create inventories: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) ensureInvoiceTable() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			buyer_id TEXT NOT NULL,
			branch_id TEXT NOT NULL,
			cashier_id TEXT,
			total DOUBLE PRECISION,
			item_count INTEGER,
			items JSONB NOT NULL,
			created_at BIGINT NOT NULL
		);
	`, d.table("invoices"))
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create invoices: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SaveMap(m *models.MBranchMap, fetchedAt time.Time) error {
	doc, err := encodeDocument("save map", m)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (branch_id, name, document, fetched_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (branch_id) DO UPDATE SET
			name = EXCLUDED.name,
			document = EXCLUDED.document,
			fetched_at = EXCLUDED.fetched_at
	`, d.table("branch_maps"))
	if _, err := d.DB.Exec(query, m.BranchID, m.Name, doc, fetchedAt.UnixNano()); err != nil {
		return helpers.NewDatabaseError("save map", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) LoadMap(branchID string) (*models.MBranchMap, time.Time, error) {
	var m models.MBranchMap
	query := fmt.Sprintf(`SELECT document::text, fetched_at FROM %s WHERE branch_id = $1`, d.table("branch_maps"))
	fetchedAt, ok, err := decodeRow("load map", d.DB.QueryRow(query, branchID), &m)
	if err != nil || !ok {
		return nil, time.Time{}, err
	}
	return &m, fetchedAt, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SaveInventory(branchID string, inv *models.MInventory, fetchedAt time.Time) error {
	doc, err := encodeDocument("save inventory", inv)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (branch_id, document, fetched_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (branch_id) DO UPDATE SET
			document = EXCLUDED.document,
			fetched_at = EXCLUDED.fetched_at
	`, d.table("inventories"))
	if _, err := d.DB.Exec(query, branchID, doc, fetchedAt.UnixNano()); err != nil {
		return helpers.NewDatabaseError("save inventory", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) LoadInventory(branchID string) (*models.MInventory, time.Time, error) {
	var inv models.MInventory
	query := fmt.Sprintf(`SELECT document::text, fetched_at FROM %s WHERE branch_id = $1`, d.table("inventories"))
	fetchedAt, ok, err := decodeRow("load inventory", d.DB.QueryRow(query, branchID), &inv)
	if err != nil || !ok {
		return nil, time.Time{}, err
	}
	return &inv, fetchedAt, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SaveInvoice(a models.MArchivedInvoice) error {
	items, err := encodeDocument("save invoice", a.Invoice.Items)
	if err != nil {
		return err
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return helpers.NewDatabaseError("save invoice", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO %s (buyer_id, branch_id, cashier_id, total, item_count, items, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, d.table("invoices"))
	_, err = tx.Exec(query, a.BuyerID, a.BranchID, a.Invoice.CashierID, a.Invoice.Total, a.Invoice.ItemCount, items, a.CreatedAt)
	if err != nil {
		return helpers.NewDatabaseError("save invoice", err)
	}
	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) LoadInvoices(branchID string) ([]models.MArchivedInvoice, error) {
	query := fmt.Sprintf(`
		SELECT buyer_id, branch_id, cashier_id, total, item_count, items::text, created_at
		FROM %s WHERE branch_id = $1 ORDER BY created_at DESC, id DESC
	`, d.table("invoices"))
	rows, err := d.DB.Query(query, branchID)
	if err != nil {
		return nil, helpers.NewDatabaseError("load invoices", err)
	}
	return scanInvoices("load invoices", rows)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
