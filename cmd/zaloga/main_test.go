package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/erazemk/zaloga/internal/config"
	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zaloga.yaml")
	data := "db: from-file.sqlite3\naddr: \":9000\"\nlocal_credit_on: receive\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig([]string{"-c", path, "-d", "flag.sqlite3"})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.DB != "flag.sqlite3" {
		t.Errorf("expected flag to win, got db %q", cfg.DB)
	}
	if cfg.Addr != ":9000" {
		t.Errorf("expected addr from file, got %q", cfg.Addr)
	}
	if cfg.LocalCreditOn != config.CreditOnReceive {
		t.Errorf("expected receive, got %q", cfg.LocalCreditOn)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zaloga.yaml")
	if err := os.WriteFile(path, []byte("local_credit_on: both\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := loadConfig([]string{"-config", path}); err == nil {
		t.Error("expected error for unknown local_credit_on")
	}
	if _, err := loadConfig([]string{"stray"}); err == nil {
		t.Error("expected error for a positional argument")
	}
	if _, err := loadConfig([]string{"-h"}); err != flag.ErrHelp {
		t.Errorf("expected flag.ErrHelp, got %v", err)
	}
}

func TestSeedManagerOnce(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	password, err := seedManager(ctx, database, "Admin")
	if err != nil {
		t.Fatalf("seedManager: %v", err)
	}
	if err := model.ValidatePassword(password); err != nil {
		t.Errorf("generated password fails policy: %v", err)
	}

	user, err := store.GetUserByUsername(ctx, database, "Admin")
	if err != nil || user == nil {
		t.Fatalf("expected manager account, got %v, %v", user, err)
	}
	if user.Role != model.RoleManager {
		t.Errorf("expected manager role, got %q", user.Role)
	}

	again, err := seedManager(ctx, database, "Admin")
	if err != nil || again != "" {
		t.Errorf("expected no second seed, got %q, %v", again, err)
	}
}

func TestGeneratePassword(t *testing.T) {
	for range 20 {
		p, err := generatePassword(16)
		if err != nil {
			t.Fatal(err)
		}
		if len(p) != 16 || !strings.ContainsAny(p[15:], "0123456789") {
			t.Errorf("unexpected password %q", p)
		}
	}
}
