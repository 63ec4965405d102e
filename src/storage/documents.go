package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"shop-sim-viewer/src/helpers"
	"shop-sim-viewer/src/models"
)

// Maps and inventories are stored as their JSON documents; only the lookup keys are columns.

func encodeDocument(op string, v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", helpers.NewDatabaseError(op, err)
	}
	return string(data), nil
}

// -----------------------------------------------------------------------------

// decodeRow reads one (document, fetched_at) row. A missing row returns ok=false without error.
func decodeRow(op string, row *sql.Row, out interface{}) (time.Time, bool, error) {
	var doc string
	var fetchedAt int64
	if err := row.Scan(&doc, &fetchedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, helpers.NewDatabaseError(op, err)
	}
	if err := json.Unmarshal([]byte(doc), out); err != nil {
		return time.Time{}, false, helpers.NewDatabaseError(op, err)
	}
	return time.Unix(0, fetchedAt).UTC(), true, nil
}

// -----------------------------------------------------------------------------

func scanInvoices(op string, rows *sql.Rows) ([]models.MArchivedInvoice, error) {
	defer rows.Close()

	var out []models.MArchivedInvoice
	for rows.Next() {
		var (
			a     models.MArchivedInvoice
			items string
		)
		if err := rows.Scan(&a.BuyerID, &a.BranchID, &a.Invoice.CashierID, &a.Invoice.Total, &a.Invoice.ItemCount, &items, &a.CreatedAt); err != nil {
			return nil, helpers.NewDatabaseError(op, err)
		}
		if err := json.Unmarshal([]byte(items), &a.Invoice.Items); err != nil {
			return nil, helpers.NewDatabaseError(op, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, helpers.NewDatabaseError(op, err)
	}
	return out, nil
}
