package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/zaloga/internal/model"
)

// RecordActivity appends an entry to the activity log.
func RecordActivity(ctx context.Context, db *sql.DB, user, action, details, module string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO audit_logs (user_name, action, details, module) VALUES (?, ?, ?, ?)`,
		user, action, details, module,
	)
	if err != nil {
		return fmt.Errorf("recording activity: %w", err)
	}
	return nil
}

// ListActivity returns the most recent activity entries, optionally limited
// to one module.
func ListActivity(ctx context.Context, db *sql.DB, module string, limit int) ([]model.ActivityEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, logged_at, user_name, action, details, module FROM audit_logs`
	var args []any
	if module != "" {
		query += ` WHERE module = ?`
		args = append(args, module)
	}
	query += ` ORDER BY logged_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	defer rows.Close()

	var entries []model.ActivityEntry
	for rows.Next() {
		var e model.ActivityEntry
		if err := rows.Scan(&e.ID, &e.LoggedAt, &e.User, &e.Action, &e.Details, &e.Module); err != nil {
			return nil, fmt.Errorf("scanning activity: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
