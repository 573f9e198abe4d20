package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "zaloga.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, "NTCC", c.MainLocation)
	assert.Equal(t, "SNC", c.TransferSource)
	assert.Equal(t, CreditOnIssue, c.LocalCreditOn)
	assert.Equal(t, Duration(5*time.Second), c.CacheTTL)
	assert.True(t, c.Metrics.Enabled)
	assert.Equal(t, "/metrics", c.Metrics.Path)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
db: /var/lib/zaloga/db.sqlite3
main_location: NSTC
local_credit_on: receive
cache_ttl: 30s
metrics:
  enabled: false
`)

	c, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, "/var/lib/zaloga/db.sqlite3", c.DB)
	assert.Equal(t, "NSTC", c.MainLocation)
	assert.Equal(t, "SNC", c.TransferSource, "unset keys keep their default")
	assert.Equal(t, CreditOnReceive, c.LocalCreditOn)
	assert.Equal(t, Duration(30*time.Second), c.CacheTTL)
	assert.False(t, c.Metrics.Enabled)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "cache_ttl: soon\n"))
	assert.ErrorContains(t, err, "invalid duration")

	_, err = Load(writeConfig(t, "addr: [1, 2\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"unknown credit moment", func(c *Config) { c.LocalCreditOn = "both" }, "local_credit_on"},
		{"empty main location", func(c *Config) { c.MainLocation = "" }, "main_location"},
		{"same source and main", func(c *Config) { c.TransferSource = c.MainLocation }, "transfer_source"},
		{"negative ttl", func(c *Config) { c.CacheTTL = Duration(-time.Second) }, "cache_ttl"},
		{"relative metrics path", func(c *Config) { c.Metrics.Path = "metrics" }, "metrics.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(c)
			assert.ErrorContains(t, c.Validate(), tt.want)
		})
	}
}
