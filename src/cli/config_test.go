// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/tls-trust-validator/src/cli"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := cli.DefaultConfig()

	assert.Equal(t, uint(2), cfg.CT.MinSCTs)
	assert.Equal(t, uint(2), cfg.CT.MinOperators)
	assert.True(t, cfg.OCSP.Enabled)
	assert.Equal(t, "mixed", cfg.OCSP.Mode)
	assert.True(t, cfg.OCSP.FailHard)
	assert.Equal(t, cli.CacheMemory, cfg.OCSP.Cache.Backend)
	assert.True(t, cfg.CRLSet.VerifySignature)
	assert.Equal(t, "always", cfg.CRLSet.UpdateStrategy)

	// Defaults alone lack trust anchors.
	assert.ErrorIs(t, cfg.Validate(), cli.ErrInvalidConfig)
	cfg.TLS.SystemRoots = true
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "yaml overrides defaults",
			testFunc: func(t *testing.T) {
				path := writeFile(t, "trust.yaml", `
ct:
  log_list: /etc/ct/log_list.json
  min_scts: 3
ocsp:
  mode: stapling
  fail_hard: false
  cache:
    backend: redis
    redis_addr: 127.0.0.1:6379
crlset:
  url: https://example.test/crlset
  verify_key: /etc/crlset.pub
  update_strategy: on-expiry
tls:
  ca_bundle: /etc/ssl/ca.pem
  timeout: 5s
log:
  level: debug
  format: json
`)
				cfg, err := cli.LoadConfig(path)
				require.NoError(t, err)

				assert.Equal(t, "/etc/ct/log_list.json", cfg.CT.LogList)
				assert.Equal(t, uint(3), cfg.CT.MinSCTs)
				assert.Equal(t, uint(2), cfg.CT.MinOperators, "untouched default")
				assert.True(t, cfg.OCSP.Enabled, "untouched default")
				assert.Equal(t, "stapling", cfg.OCSP.Mode)
				assert.False(t, cfg.OCSP.FailHard)
				assert.Equal(t, cli.CacheRedis, cfg.OCSP.Cache.Backend)
				assert.Equal(t, "on-expiry", cfg.CRLSet.UpdateStrategy)
				assert.Equal(t, "5s", cfg.TLS.Timeout)
				assert.Equal(t, "json", cfg.Log.Format)
			},
		},
		{
			name: "json by extension",
			testFunc: func(t *testing.T) {
				path := writeFile(t, "trust.json", `{"ocsp": {"mode": "direct"}, "tls": {"system_roots": true}}`)
				cfg, err := cli.LoadConfig(path)
				require.NoError(t, err)
				assert.Equal(t, "direct", cfg.OCSP.Mode)
				assert.True(t, cfg.TLS.SystemRoots)
			},
		},
		{
			name: "environment variable",
			testFunc: func(t *testing.T) {
				path := writeFile(t, "env.yml", "tls:\n  ca_bundle: /tmp/ca.pem\n")
				t.Setenv(cli.ConfigEnv, path)

				cfg, err := cli.LoadConfig("")
				require.NoError(t, err)
				assert.Equal(t, "/tmp/ca.pem", cfg.TLS.CABundle)
			},
		},
		{
			name: "unknown yaml field",
			testFunc: func(t *testing.T) {
				path := writeFile(t, "bad.yaml", "tls:\n  ca_bundel: /tmp/ca.pem\n")
				_, err := cli.LoadConfig(path)
				assert.ErrorContains(t, err, "ca_bundel")
			},
		},
		{
			name: "unknown json field",
			testFunc: func(t *testing.T) {
				path := writeFile(t, "bad.json", `{"tls": {"system_roots": true}, "extra": 1}`)
				_, err := cli.LoadConfig(path)
				assert.ErrorContains(t, err, "extra")
			},
		},
		{
			name: "missing file",
			testFunc: func(t *testing.T) {
				_, err := cli.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
				assert.ErrorIs(t, err, os.ErrNotExist)
			},
		},
		{
			name: "empty file keeps defaults",
			testFunc: func(t *testing.T) {
				t.Setenv(cli.ConfigEnv, "")
				path := writeFile(t, "empty.yaml", "")
				_, err := cli.LoadConfig(path)
				assert.ErrorIs(t, err, cli.ErrInvalidConfig, "defaults lack a CA bundle")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.testFunc)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *cli.Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*cli.Config) {}},
		{name: "ocsp mode", mutate: func(c *cli.Config) { c.OCSP.Mode = "sometimes" }, wantErr: "ocsp.mode"},
		{name: "ocsp mode ignored when disabled", mutate: func(c *cli.Config) { c.OCSP.Enabled = false; c.OCSP.Mode = "sometimes" }},
		{name: "cache backend", mutate: func(c *cli.Config) { c.OCSP.Cache.Backend = "disk" }, wantErr: "ocsp.cache.backend"},
		{name: "redis without address", mutate: func(c *cli.Config) { c.OCSP.Cache.Backend = cli.CacheRedis }, wantErr: "redis_addr"},
		{name: "crlset path and url", mutate: func(c *cli.Config) {
			c.CRLSet.Path = "/tmp/crlset"
			c.CRLSet.URL = "https://example.test/crlset"
			c.CRLSet.VerifyKey = "/tmp/key.pem"
		}, wantErr: "mutually exclusive"},
		{name: "remote crlset without key", mutate: func(c *cli.Config) { c.CRLSet.URL = "https://example.test/crlset" }, wantErr: "verify_key"},
		{name: "update strategy", mutate: func(c *cli.Config) { c.CRLSet.UpdateStrategy = "weekly" }, wantErr: "update_strategy"},
		{name: "no trust anchors", mutate: func(c *cli.Config) { c.TLS.CABundle = "" }, wantErr: "tls.ca_bundle"},
		{name: "log level", mutate: func(c *cli.Config) { c.Log.Level = "chatty" }, wantErr: "log.level"},
		{name: "log format", mutate: func(c *cli.Config) { c.Log.Format = "xml" }, wantErr: "log.format"},
		{name: "duration", mutate: func(c *cli.Config) { c.TLS.Timeout = "soon" }, wantErr: "tls.timeout"},
		{name: "zero min scts", mutate: func(c *cli.Config) { c.CT.LogList = "/tmp/list.json"; c.CT.MinSCTs = 0 }, wantErr: "ct.min_scts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := cli.DefaultConfig()
			cfg.TLS.CABundle = "/tmp/ca.pem"
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, cli.ErrInvalidConfig)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		input    string
		expected cli.Target
		wantErr  bool
	}{
		{input: "example.com", expected: cli.Target{Host: "example.com", Port: 443}},
		{input: "example.com:8443", expected: cli.Target{Host: "example.com", Port: 8443}},
		{input: "[::1]:9443", expected: cli.Target{Host: "::1", Port: 9443}},
		{input: "::1", expected: cli.Target{Host: "::1", Port: 443}},
		{input: " 127.0.0.1:443 ", expected: cli.Target{Host: "127.0.0.1", Port: 443}},
		{input: "example.com:https", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := cli.ParseTarget(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, cli.ErrInvalidTarget)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
