package store

import (
	"context"
	"testing"
	"time"

	"github.com/erazemk/zaloga/internal/db"
)

func TestRevokeAndCheckToken(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	revoked, err := IsTokenRevoked(ctx, database, "jti-1")
	if err != nil {
		t.Fatalf("IsTokenRevoked: %v", err)
	}
	if revoked {
		t.Error("expected token not to be revoked")
	}

	if err := RevokeToken(ctx, database, "jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}

	revoked, _ = IsTokenRevoked(ctx, database, "jti-1")
	if !revoked {
		t.Error("expected token to be revoked")
	}
	revoked, _ = IsTokenRevoked(ctx, database, "jti-2")
	if revoked {
		t.Error("expected different token not to be revoked")
	}
}

func TestRevokeTokenIdempotent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	for i := range 2 {
		if err := RevokeToken(ctx, database, "jti-1", time.Now().Add(time.Hour)); err != nil {
			t.Fatalf("RevokeToken #%d: %v", i+1, err)
		}
	}
}

func TestRevokeTokenPrunesExpired(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	RevokeToken(ctx, database, "old", time.Now().Add(-time.Hour))
	RevokeToken(ctx, database, "new", time.Now().Add(time.Hour))

	if revoked, _ := IsTokenRevoked(ctx, database, "old"); revoked {
		t.Error("expected expired revocation to be pruned")
	}
	if revoked, _ := IsTokenRevoked(ctx, database, "new"); !revoked {
		t.Error("expected live revocation to stay")
	}
}
