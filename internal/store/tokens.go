package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RevokeToken adds a token's JTI to the revocation list and drops
// revocations whose tokens have expired anyway.
func RevokeToken(ctx context.Context, db *sql.DB, jti string, expiresAt time.Time) error {
	return inTx(ctx, db, func(tx *Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO revoked_tokens (jti, expires_at) VALUES (?, ?)`,
			jti, expiresAt.UTC(),
		); err != nil {
			return fmt.Errorf("revoking token: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM revoked_tokens WHERE expires_at < ?`, time.Now().UTC(),
		); err != nil {
			return fmt.Errorf("pruning revoked tokens: %w", err)
		}
		return nil
	})
}

// IsTokenRevoked reports whether a token's JTI has been revoked.
func IsTokenRevoked(ctx context.Context, db *sql.DB, jti string) (bool, error) {
	var revoked bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = ?)`, jti,
	).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("checking token revocation: %w", err)
	}
	return revoked, nil
}
