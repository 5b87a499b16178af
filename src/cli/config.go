// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/crlset"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/logger"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/trust/policy"
)

// ConfigEnv names the environment variable consulted when no --config is given.
const ConfigEnv = "TLS_TRUST_CONFIG"

// Cache backends for direct OCSP responses.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// ErrInvalidConfig wraps every configuration validation failure.
var ErrInvalidConfig = errors.New("cli: invalid configuration")

// Config is the file representation of a checker.
type Config struct {
	CT     CTConfig     `yaml:"ct" json:"ct"`
	OCSP   OCSPConfig   `yaml:"ocsp" json:"ocsp"`
	CRLSet CRLSetConfig `yaml:"crlset" json:"crlset"`
	TLS    TLSConfig    `yaml:"tls" json:"tls"`
	Log    LogConfig    `yaml:"log" json:"log"`
	Server ServerConfig `yaml:"server" json:"server"`
}

// CTConfig enables Certificate Transparency checks when LogList is set.
type CTConfig struct {
	LogList      string `yaml:"log_list" json:"log_list"`
	MinSCTs      uint   `yaml:"min_scts" json:"min_scts"`
	MinOperators uint   `yaml:"min_operators" json:"min_operators"`
}

// OCSPConfig configures OCSP checking.
type OCSPConfig struct {
	Enabled  bool        `yaml:"enabled" json:"enabled"`
	Mode     string      `yaml:"mode" json:"mode"`
	FailHard bool        `yaml:"fail_hard" json:"fail_hard"`
	Timeout  string      `yaml:"timeout" json:"timeout"`
	Cache    CacheConfig `yaml:"cache" json:"cache"`
}

// CacheConfig selects where good direct OCSP responses are kept.
type CacheConfig struct {
	Backend      string `yaml:"backend" json:"backend"`
	Size         int    `yaml:"size" json:"size"`
	RedisAddr    string `yaml:"redis_addr" json:"redis_addr"`
	RedisTimeout string `yaml:"redis_timeout" json:"redis_timeout"`
}

// CRLSetConfig enables CRLSet checks when Path or URL is set.
type CRLSetConfig struct {
	Path            string `yaml:"path" json:"path"`
	URL             string `yaml:"url" json:"url"`
	SignatureURL    string `yaml:"signature_url" json:"signature_url"`
	VerifyKey       string `yaml:"verify_key" json:"verify_key"`
	VerifySignature bool   `yaml:"verify_signature" json:"verify_signature"`
	UpdateStrategy  string `yaml:"update_strategy" json:"update_strategy"`
}

// TLSConfig holds the trust anchors and dial timeout.
type TLSConfig struct {
	CABundle    string `yaml:"ca_bundle" json:"ca_bundle"`
	SystemRoots bool   `yaml:"system_roots" json:"system_roots"`
	Timeout     string `yaml:"timeout" json:"timeout"`
}

// LogConfig selects the log level and the text or json format.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// ServerConfig configures the serve subcommand.
type ServerConfig struct {
	Listen  string `yaml:"listen" json:"listen"`
	Metrics bool   `yaml:"metrics" json:"metrics"`
}

// DefaultConfig returns the configuration used before any file or flag is applied:
// mixed fail-hard OCSP with an in-memory cache, CT minima of two SCTs from two
// operators once a log list is given, and CRLSet signature verification.
func DefaultConfig() *Config {
	return &Config{
		CT: CTConfig{
			MinSCTs:      2,
			MinOperators: 2,
		},
		OCSP: OCSPConfig{
			Enabled:  true,
			Mode:     policy.OCSPMixed.String(),
			FailHard: true,
			Timeout:  "10s",
			Cache: CacheConfig{
				Backend:      CacheMemory,
				Size:         1024,
				RedisTimeout: "250ms",
			},
		},
		CRLSet: CRLSetConfig{
			VerifySignature: true,
			UpdateStrategy:  crlset.UpdateAlways.String(),
		},
		TLS: TLSConfig{
			Timeout: "15s",
		},
		Log: LogConfig{
			Level:  logger.LevelInfo.String(),
			Format: "text",
		},
		Server: ServerConfig{
			Listen:  ":8080",
			Metrics: true,
		},
	}
}

// LoadConfig reads path over [DefaultConfig] and validates the result. An
// empty path falls back to $TLS_TRUST_CONFIG; when both are empty the
// defaults are validated.
// Files ending in .json are decoded as JSON, anything else as YAML. Unknown
// fields are rejected.
//
// Parameters:
//   - path: Configuration file path, may be empty
//
// Returns:
//   - *Config: Validated configuration
//   - error: Read, decode or validation failure
func LoadConfig(path string) (*Config, error) {
	cfg, err := readConfig(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// readConfig is LoadConfig without validation, so flags can complete the file.
func readConfig(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(ConfigEnv)
	}

	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := decodeConfig(path, data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

func decodeConfig(path string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(cfg)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks every enumerated and duration field.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, v ...any) {
		errs = append(errs, fmt.Errorf(format, v...))
	}

	if c.CT.LogList != "" && c.CT.MinSCTs == 0 {
		add("ct.min_scts must be at least 1")
	}
	if c.OCSP.Enabled {
		if _, err := policy.ParseOCSPMode(c.OCSP.Mode); err != nil {
			add("ocsp.mode: %v", err)
		}
	}
	switch c.OCSP.Cache.Backend {
	case CacheMemory, CacheNone, "":
	case CacheRedis:
		if c.OCSP.Cache.RedisAddr == "" {
			add("ocsp.cache.redis_addr is required for the redis backend")
		}
	default:
		add("ocsp.cache.backend must be one of memory, redis or none, got %q", c.OCSP.Cache.Backend)
	}
	if c.CRLSet.Path != "" && c.CRLSet.URL != "" {
		add("crlset.path and crlset.url are mutually exclusive")
	}
	if c.CRLSet.URL != "" && c.CRLSet.VerifySignature && c.CRLSet.VerifyKey == "" {
		add("crlset.verify_key is required when verify_signature is set for a remote set")
	}
	if _, err := crlset.ParseUpdateStrategy(c.CRLSet.UpdateStrategy); err != nil {
		add("crlset.update_strategy: %v", err)
	}
	if c.TLS.CABundle == "" && !c.TLS.SystemRoots {
		add("tls.ca_bundle is required unless tls.system_roots is set")
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		add("log.level: %v", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		add("log.format must be text or json, got %q", c.Log.Format)
	}

	for _, f := range []struct{ name, value string }{
		{"ocsp.timeout", c.OCSP.Timeout},
		{"ocsp.cache.redis_timeout", c.OCSP.Cache.RedisTimeout},
		{"tls.timeout", c.TLS.Timeout},
	} {
		if f.value == "" {
			continue
		}
		if v, err := time.ParseDuration(f.value); err != nil || v < 0 {
			add("%s: invalid duration %q", f.name, f.value)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// duration parses a validated duration field, using def when empty.
func duration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || s == "" {
		return def
	}
	return d
}
