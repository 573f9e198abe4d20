package db

import (
	"database/sql"
	"fmt"
	"net/url"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// pragmas are applied to every pooled connection through the DSN.
var pragmas = []string{
	"busy_timeout(5000)",
	"foreign_keys(1)",
	"synchronous(NORMAL)",
}

// Open opens a SQLite database connection and configures pragmas.
//
// File databases use WAL and take the write lock when a transaction begins.
// In-memory databases are limited to one connection, since every connection
// gets its own empty database.
func Open(path string) (*sql.DB, error) {
	params := url.Values{}
	for _, p := range pragmas {
		params.Add("_pragma", p)
	}
	if path != MemoryPath {
		params.Add("_pragma", "journal_mode(WAL)")
		params.Set("_txlock", "immediate")
	}

	db, err := sql.Open("sqlite", path+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if path == MemoryPath {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return db, nil
}
