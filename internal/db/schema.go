package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    name          TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'supervisor'
                  CHECK (role IN ('manager', 'storekeeper', 'supervisor', 'night_supervisor')),
    regions       TEXT NOT NULL DEFAULT '',
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS inventory (
    id          INTEGER PRIMARY KEY,
    name        TEXT NOT NULL,
    category    TEXT NOT NULL DEFAULT '',
    unit        TEXT NOT NULL DEFAULT '',
    qty         INTEGER NOT NULL DEFAULT 0 CHECK (qty >= 0),
    initial_qty INTEGER NOT NULL DEFAULT 0,
    location    TEXT NOT NULL,
    status      TEXT NOT NULL DEFAULT 'Available',
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (name, location)
);

CREATE INDEX IF NOT EXISTS idx_inventory_location ON inventory(location);

CREATE TABLE IF NOT EXISTS stock_logs (
    id          INTEGER PRIMARY KEY,
    logged_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    actor       TEXT NOT NULL,
    action_type TEXT NOT NULL,
    item        TEXT NOT NULL,
    location    TEXT NOT NULL,
    delta       INTEGER NOT NULL,
    unit        TEXT NOT NULL DEFAULT '',
    new_qty     INTEGER NOT NULL,
    op_id       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_stock_logs_item ON stock_logs(item, location);

CREATE TABLE IF NOT EXISTS requests (
    id          INTEGER PRIMARY KEY,
    supervisor  TEXT NOT NULL,
    region      TEXT NOT NULL,
    item        TEXT NOT NULL,
    category    TEXT NOT NULL DEFAULT '',
    qty         INTEGER NOT NULL CHECK (qty > 0),
    unit        TEXT NOT NULL DEFAULT '',
    status      TEXT NOT NULL DEFAULT 'Pending'
                CHECK (status IN ('Pending', 'Approved', 'Rejected', 'Issued', 'Received')),
    notes       TEXT NOT NULL DEFAULT '',
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    decided_by  TEXT,
    decided_at  DATETIME,
    issued_by   TEXT,
    issued_at   DATETIME,
    received_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_requests_status ON requests(status);

CREATE TABLE IF NOT EXISTS local_inventory (
    region     TEXT NOT NULL,
    item       TEXT NOT NULL,
    qty        INTEGER NOT NULL DEFAULT 0 CHECK (qty >= 0),
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_by TEXT NOT NULL DEFAULT '',
    UNIQUE (region, item)
);

CREATE TABLE IF NOT EXISTS audit_logs (
    id        INTEGER PRIMARY KEY,
    logged_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    user_name TEXT NOT NULL,
    action    TEXT NOT NULL,
    details   TEXT NOT NULL DEFAULT '',
    module    TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_audit_logs_time ON audit_logs(logged_at DESC);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: requests are listed per region on every supervisor screen.
	`CREATE INDEX IF NOT EXISTS idx_requests_region ON requests(region, status)`,
}

// EnsureSchema creates all tables and indexes if they don't already exist,
// then applies migrations.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}
	return nil
}
