package storage

import (
	"shop-sim-viewer/src/interfaces"
	"shop-sim-viewer/src/logger"
	"shop-sim-viewer/src/models"
)

// Open builds the store selected by storage.db_type and initializes it.
func Open(cfg *models.MConfig) (interfaces.ICatalogStore, error) {
	var db interfaces.ICatalogStore
	var err error

	switch cfg.Storage.DBType {
	case "postgres":
		db, err = NewPostgresDB(cfg, logger.NewLogger(cfg, "PostgresDB"))
	default:
		db, err = NewAsyncSQLiteDB(cfg, logger.NewLogger(cfg, "SQLiteDB"))
	}
	if err != nil {
		return nil, err
	}
	if err := db.Initialize(); err != nil {
		return nil, err
	}
	return db, nil
}
