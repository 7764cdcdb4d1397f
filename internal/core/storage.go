package core

import (
	"fmt"
	"os"

	"rulecore/internal/infra/persistence/memory"
	"rulecore/internal/infra/persistence/postgres"
	"rulecore/internal/infra/persistence/sqlite"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenPersistentStore selects a backend using environment variables.
// Defaults to sqlite when unset.
//
//	RULECORE_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	RULECORE_SQLITE_PATH: path to sqlite file (default ./rulecore.db)
//	RULECORE_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenPersistentStore() (PersistentStore, error) {
	driver := os.Getenv("RULECORE_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(), nil
	case StorageSQLite:
		return sqlite.NewStore(os.Getenv("RULECORE_SQLITE_PATH"))
	case StoragePostgres:
		return postgres.NewStore(os.Getenv("RULECORE_POSTGRES_DSN"))
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
