package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/zaloga/internal/model"
)

const userColumns = `id, username, name, password_hash, role, regions, created_at, deleted_at`

func scanUser(row interface{ Scan(...any) error }, u *model.User) error {
	var regions string
	if err := row.Scan(&u.ID, &u.Username, &u.Name, &u.PasswordHash, &u.Role, &regions, &u.CreatedAt, &u.DeletedAt); err != nil {
		return err
	}
	u.Regions = model.ParseRegions(regions)
	return nil
}

// CreateUser creates a new user. Regions only matter for supervisors.
func CreateUser(ctx context.Context, db *sql.DB, username, name, passwordHash, role string, regions []string) (*model.User, error) {
	if !model.ValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalid, role)
	}

	var id int64
	err := inTx(ctx, db, func(tx *Tx) error {
		var taken int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM users WHERE username = ? AND deleted_at IS NULL`, username,
		).Scan(&taken)
		if err != nil {
			return fmt.Errorf("checking username: %w", err)
		}
		if taken > 0 {
			return fmt.Errorf("%w: %s", ErrUsernameTaken, username)
		}

		result, err := tx.ExecContext(ctx,
			`INSERT INTO users (username, name, password_hash, role, regions) VALUES (?, ?, ?, ?, ?)`,
			username, name, passwordHash, role, model.JoinRegions(regions),
		)
		if err != nil {
			return fmt.Errorf("creating user: %w", err)
		}
		id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting user id: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return GetUser(ctx, db, id)
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, db *sql.DB, id int64) (*model.User, error) {
	u := &model.User{}
	err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	), u)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByUsername returns the active user with username. A deleted account
// is only returned when no active one holds the name.
func GetUserByUsername(ctx context.Context, db *sql.DB, username string) (*model.User, error) {
	u := &model.User{}
	err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?
		 ORDER BY deleted_at IS NOT NULL, id DESC LIMIT 1`, username,
	), u)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by username: %w", err)
	}
	return u, nil
}

// CountUsers returns the number of active users.
func CountUsers(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE deleted_at IS NULL`,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}

// ListUsers returns all non-deleted users.
func ListUsers(ctx context.Context, db *sql.DB) ([]model.User, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE deleted_at IS NULL ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUser replaces a user's display name, role and regions.
func UpdateUser(ctx context.Context, db *sql.DB, id int64, name, role string, regions []string) error {
	if !model.ValidRole(role) {
		return fmt.Errorf("%w: unknown role %q", ErrInvalid, role)
	}
	result, err := db.ExecContext(ctx,
		`UPDATE users SET name = ?, role = ?, regions = ? WHERE id = ? AND deleted_at IS NULL`,
		name, role, model.JoinRegions(regions), id,
	)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %d", ErrUserNotFound, id)
	}
	return nil
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, db *sql.DB, id int64, passwordHash string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ? AND deleted_at IS NULL`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	return nil
}

// DeleteUser soft-deletes a user. Their name stays on ledger and request
// history.
func DeleteUser(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return nil
}
