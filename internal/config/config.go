// Package config loads the server configuration from an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Moments at which issued stock is credited to a region's local inventory.
const (
	CreditOnIssue   = "issue"
	CreditOnReceive = "receive"
)

// Config is the server configuration.
type Config struct {
	DB        string `yaml:"db"`
	Addr      string `yaml:"addr"`
	Log       string `yaml:"log"`
	AdminUser string `yaml:"admin_user"`

	// MainLocation fulfils requests.
	MainLocation string `yaml:"main_location"`
	// TransferSource is the default source of transfers into MainLocation.
	TransferSource string `yaml:"transfer_source"`
	LocalCreditOn  string `yaml:"local_credit_on"`

	CacheTTL Duration `yaml:"cache_ttl"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
}

// Duration is a time.Duration written as "5s" or "1m" in YAML.
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes the duration back in its string form.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{
		DB:             "zaloga.sqlite3",
		Addr:           ":8080",
		AdminUser:      "Admin",
		MainLocation:   "NTCC",
		TransferSource: "SNC",
		LocalCreditOn:  CreditOnIssue,
		CacheTTL:       Duration(5 * time.Second),
	}
	c.Metrics.Enabled = true
	c.Metrics.Path = "/metrics"
	return c
}

// Load reads path on top of the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return c, nil
}

// Validate checks values that would otherwise fail much later.
func (c *Config) Validate() error {
	var errs []error
	if c.DB == "" {
		errs = append(errs, errors.New("db path is required"))
	}
	if c.MainLocation == "" {
		errs = append(errs, errors.New("main_location is required"))
	}
	if c.TransferSource == "" {
		errs = append(errs, errors.New("transfer_source is required"))
	}
	if c.MainLocation != "" && c.MainLocation == c.TransferSource {
		errs = append(errs, errors.New("transfer_source must differ from main_location"))
	}
	if c.LocalCreditOn != CreditOnIssue && c.LocalCreditOn != CreditOnReceive {
		errs = append(errs, fmt.Errorf("local_credit_on must be %q or %q, got %q",
			CreditOnIssue, CreditOnReceive, c.LocalCreditOn))
	}
	if c.CacheTTL < 0 {
		errs = append(errs, errors.New("cache_ttl cannot be negative"))
	}
	if c.Metrics.Enabled && (c.Metrics.Path == "" || c.Metrics.Path[0] != '/') {
		errs = append(errs, errors.New("metrics.path must start with /"))
	}
	return errors.Join(errs...)
}
