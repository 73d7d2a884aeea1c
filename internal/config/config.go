// Package config loads and validates operator configuration from an
// optional YAML file, environment overrides, and defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	RRD       RRDConfig       `yaml:"rrd"`
	Directory DirectoryConfig `yaml:"directory"`
	SMTP      SMTPConfig      `yaml:"smtp"`
	Billing   BillingConfig   `yaml:"billing"`
	Serve     ServeConfig     `yaml:"serve"`
}

// RRDConfig locates the traffic archives and the tool that reads them.
type RRDConfig struct {
	Base    string `yaml:"base"`    // archive root, <base>/<hostname>/port-<ifIndex>.rrd
	Command string `yaml:"command"` // rrdtool binary
	Daemon  string `yaml:"daemon"`  // optional rrdcached address
}

// DirectoryConfig locates the Observium database holding the port/device
// inventory. Either DSN or ObserviumConfig must be set; the DSN wins when
// both are.
type DirectoryConfig struct {
	DSN             string `yaml:"dsn"`
	ObserviumConfig string `yaml:"observium_config"` // path to Observium's config.php
	AliasPrefix     string `yaml:"alias_prefix"`
}

// SMTPConfig configures report delivery. An empty Username means
// unauthenticated SMTP.
type SMTPConfig struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	Sender   string        `yaml:"sender"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Timeout  time.Duration `yaml:"timeout"`
}

// BillingConfig tunes the computation itself.
type BillingConfig struct {
	Percentile          float64       `yaml:"percentile"`
	Concurrency         int           `yaml:"concurrency"`
	FetchTimeout        time.Duration `yaml:"fetch_timeout"`
	OmitFailedCustomers bool          `yaml:"omit_failed_customers"`
}

// ServeConfig configures scheduled mode: the observability listener, how
// long after a month rolls over the run fires, and where the report goes.
type ServeConfig struct {
	HTTPAddr string        `yaml:"http_addr"`
	Delay    time.Duration `yaml:"delay"`
	Email    string        `yaml:"email"`
}

// Default returns the configuration used when nothing is specified.
func Default() Config {
	return Config{
		RRD: RRDConfig{
			Base:    "/opt/observium/rrd",
			Command: "rrdtool",
		},
		Directory: DirectoryConfig{
			AliasPrefix: "Cust:",
		},
		SMTP: SMTPConfig{
			Host:    "localhost",
			Port:    25,
			Sender:  "billing@localhost",
			Timeout: 30 * time.Second,
		},
		Billing: BillingConfig{
			Percentile:   95,
			Concurrency:  4,
			FetchTimeout: 15 * time.Second,
		},
		Serve: ServeConfig{
			HTTPAddr: ":9173",
			Delay:    time.Hour,
		},
	}
}

// Load builds the effective configuration: defaults, then the YAML file at
// path when one is given, then BURSTBILL_* environment overrides. The
// result is not yet validated; callers apply their flag overrides first
// and then call Validate.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.RRD.Base = getenv("BURSTBILL_RRD_BASE", cfg.RRD.Base)
	cfg.RRD.Command = getenv("BURSTBILL_RRDTOOL", cfg.RRD.Command)
	cfg.RRD.Daemon = getenv("BURSTBILL_RRDCACHED", cfg.RRD.Daemon)
	cfg.Directory.DSN = getenv("BURSTBILL_DSN", cfg.Directory.DSN)
	cfg.Directory.ObserviumConfig = getenv("BURSTBILL_OBSERVIUM_CONFIG", cfg.Directory.ObserviumConfig)
	cfg.Directory.AliasPrefix = getenv("BURSTBILL_ALIAS_PREFIX", cfg.Directory.AliasPrefix)
	cfg.SMTP.Host = getenv("BURSTBILL_SMTP_HOST", cfg.SMTP.Host)
	cfg.SMTP.Sender = getenv("BURSTBILL_SMTP_SENDER", cfg.SMTP.Sender)
	cfg.SMTP.Username = getenv("BURSTBILL_SMTP_USERNAME", cfg.SMTP.Username)
	cfg.SMTP.Password = getenv("BURSTBILL_SMTP_PASSWORD", cfg.SMTP.Password)
	cfg.Serve.HTTPAddr = getenv("BURSTBILL_HTTP_ADDR", cfg.Serve.HTTPAddr)
	cfg.Serve.Email = getenv("BURSTBILL_EMAIL", cfg.Serve.Email)
	if v := os.Getenv("BURSTBILL_SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.SMTP.Port = port
		}
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Validate rejects configurations a billing run cannot proceed with.
// A malformed configuration is fatal, never worked around.
func (c Config) Validate() error {
	if c.RRD.Base == "" {
		return fmt.Errorf("rrd.base must be set")
	}
	if c.RRD.Command == "" {
		return fmt.Errorf("rrd.command must be set")
	}
	if c.Directory.DSN == "" && c.Directory.ObserviumConfig == "" {
		return fmt.Errorf("one of directory.dsn or directory.observium_config must be set")
	}
	if c.Directory.AliasPrefix == "" {
		return fmt.Errorf("directory.alias_prefix must be set")
	}
	if c.Billing.Percentile <= 0 || c.Billing.Percentile > 100 {
		return fmt.Errorf("billing.percentile must be in (0, 100], got %g", c.Billing.Percentile)
	}
	if c.Billing.Concurrency < 1 {
		return fmt.Errorf("billing.concurrency must be at least 1, got %d", c.Billing.Concurrency)
	}
	if c.Billing.FetchTimeout <= 0 {
		return fmt.Errorf("billing.fetch_timeout must be positive, got %s", c.Billing.FetchTimeout)
	}
	if c.SMTP.Port < 1 || c.SMTP.Port > 65535 {
		return fmt.Errorf("smtp.port must be a valid port, got %d", c.SMTP.Port)
	}
	if c.Serve.Delay < 0 {
		return fmt.Errorf("serve.delay must not be negative, got %s", c.Serve.Delay)
	}
	return nil
}

// ResolveDSN returns the directory DSN, scraping Observium's config.php
// when no explicit DSN is configured.
func (c Config) ResolveDSN() (string, error) {
	if c.Directory.DSN != "" {
		return c.Directory.DSN, nil
	}
	return LoadObservium(c.Directory.ObserviumConfig)
}

// Redacted returns a copy safe to print, with secrets masked.
func (c Config) Redacted() Config {
	if c.SMTP.Password != "" {
		c.SMTP.Password = "***"
	}
	c.Directory.DSN = redactDSN(c.Directory.DSN)
	return c
}

// redactDSN masks the password portion of a user:pass@tcp(host)/db DSN.
func redactDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	if at < 0 {
		return dsn
	}
	colon := strings.Index(dsn[:at], ":")
	if colon < 0 {
		return dsn
	}
	return dsn[:colon] + ":***" + dsn[at:]
}
