package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// NewSQLite opens (creating if needed) a sqlite database at path.
// The driver is pure Go, so the portal stays a single static binary.
func NewSQLite(path string) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// sqlite handles a single writer; funnel everything through one
	// connection to avoid SQLITE_BUSY under the low traffic we expect.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
