// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"context"
	"crypto"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jmhodges/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	x509certs "github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/certs"
	x509chain "github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/chain"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/crlset"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/logger"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/transport"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/trust/kit"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/trust/ocsp"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/trust/policy"
)

// DefaultPort is used when a target names no port.
const DefaultPort = 443

// ErrInvalidTarget indicates a check request without a usable host or port.
var ErrInvalidTarget = errors.New("cli: invalid target")

// Target is one peer to check, with optional per-request OCSP overrides.
type Target struct {
	Host     string
	Port     int
	OCSPMode string
	FailHard *bool
}

// ParseTarget splits "host", "host:port" or "[v6]:port".
func ParseTarget(s string) (Target, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Target{}, fmt.Errorf("%w: empty host", ErrInvalidTarget)
	}
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		// No port given.
		return Target{Host: strings.Trim(s, "[]"), Port: DefaultPort}, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return Target{}, fmt.Errorf("%w: port %q", ErrInvalidTarget, portStr)
	}
	return Target{Host: host, Port: port}, nil
}

func (t Target) validate() error {
	if strings.TrimSpace(t.Host) == "" {
		return fmt.Errorf("%w: empty host", ErrInvalidTarget)
	}
	if t.Port < 1 || t.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidTarget, t.Port)
	}
	return nil
}

// Checker runs trust checks against remote peers with one configured kit.
//
// Thread Safety: Safe for concurrent use.
type Checker struct {
	policy      *policy.Config
	kit         *kit.Kit
	opts        []kit.Option
	tls         *tls.Config
	systemRoots bool
	timeout     time.Duration
	log         *logger.Scoped
	closers     []func() error
}

// NewChecker builds every component cfg enables: the CT log list, the OCSP
// engine with its response cache, the CRLSet source and the trust anchors.
//
// Parameters:
//   - cfg: Validated configuration
//   - version: Application version for the HTTP User-Agent
//   - log: Logger for the kit and its validators; may be nil
//   - stats: Registerer for kit and cache metrics; nil disables metrics
//
// Returns:
//   - *Checker: Ready checker; call Close to release Redis connections
//   - error: Any component failing to load
func NewChecker(cfg *Config, version string, log *logger.Scoped, stats prometheus.Registerer) (*Checker, error) {
	clk := clock.New()
	c := &Checker{
		policy:      &policy.Config{},
		systemRoots: cfg.TLS.SystemRoots,
		timeout:     duration(cfg.TLS.Timeout, 15*time.Second),
		log:         log,
	}

	httpCfg := x509chain.NewHTTPConfig(version)
	httpCfg.Timeout = duration(cfg.OCSP.Timeout, 10*time.Second)

	c.opts = []kit.Option{kit.WithLogger(log), kit.WithClock(clk)}
	if stats != nil {
		c.opts = append(c.opts, kit.WithMetrics(kit.NewMetrics(stats)))
	}

	if cfg.CT.LogList != "" {
		list, err := policy.LoadLogList(cfg.CT.LogList)
		if err != nil {
			return nil, err
		}
		c.policy.CT = &policy.CTPolicy{
			LogList:              list,
			MinEmbeddedSCTs:      cfg.CT.MinSCTs,
			MinDistinctOperators: cfg.CT.MinOperators,
		}
	}

	if cfg.OCSP.Enabled {
		mode, err := policy.ParseOCSPMode(cfg.OCSP.Mode)
		if err != nil {
			return nil, err
		}
		c.policy.OCSP = &policy.OCSPPolicy{Mode: mode, FailHard: cfg.OCSP.FailHard}
	}

	var cache x509chain.ResponseCache
	switch cfg.OCSP.Cache.Backend {
	case CacheRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.OCSP.Cache.RedisAddr})
		c.closers = append(c.closers, rdb.Close)
		cache = x509chain.NewRedisCache(rdb, duration(cfg.OCSP.Cache.RedisTimeout, 250*time.Millisecond), clk, stats)
	case CacheMemory, "":
		cache = x509chain.NewMemoryCache(x509chain.CacheConfig{MaxSize: cfg.OCSP.Cache.Size}, clk)
	}
	c.opts = append(c.opts, kit.WithOCSPEngine(ocsp.NewEngine(
		ocsp.WithClient(x509chain.NewOCSPClient(httpCfg)),
		ocsp.WithCache(cache),
		ocsp.WithClock(clk),
		ocsp.WithLogger(log),
	)))

	if err := c.configureCRLSet(cfg.CRLSet, httpCfg); err != nil {
		return nil, err
	}

	c.tls = &tls.Config{MinVersion: tls.VersionTLS12}
	if cfg.TLS.CABundle != "" {
		pool, err := x509certs.LoadPool(cfg.TLS.CABundle)
		if err != nil {
			return nil, err
		}
		c.tls.RootCAs = pool
	}

	c.kit = kit.New(c.policy, c.opts...)
	return c, nil
}

func (c *Checker) configureCRLSet(cfg CRLSetConfig, httpCfg *x509chain.HTTPConfig) error {
	if cfg.Path == "" && cfg.URL == "" {
		return nil
	}
	strategy, err := crlset.ParseUpdateStrategy(cfg.UpdateStrategy)
	if err != nil {
		return err
	}
	p := &policy.CRLSetPolicy{VerifySignature: cfg.VerifySignature, UpdateStrategy: strategy}

	if cfg.Path != "" {
		set, err := crlset.ParseFile(cfg.Path)
		if err != nil {
			return fmt.Errorf("failed to load CRLSet %s: %w", cfg.Path, err)
		}
		p.Set = set
		c.policy.CRLSet = p
		return nil
	}

	var key crypto.PublicKey
	if cfg.VerifyKey != "" {
		if key, err = loadPublicKey(cfg.VerifyKey); err != nil {
			return err
		}
	}
	loader := crlset.NewHTTPLoader(cfg.URL, key, httpCfg)
	loader.SignatureURL = cfg.SignatureURL
	c.opts = append(c.opts, kit.WithCRLSetLoader(loader))
	c.policy.CRLSet = p
	return nil
}

// loadPublicKey reads a PEM "PUBLIC KEY" block.
func loadPublicKey(path string) (crypto.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read verify key %s: %w", path, err)
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("verify key %s: no PEM block", path)
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("verify key %s: %w", path, err)
	}
	return key, nil
}

// Policy returns the enforced policy.
func (c *Checker) Policy() *policy.Config { return c.policy }

// Close releases external connections.
func (c *Checker) Close() error {
	var errs []error
	for _, fn := range c.closers {
		errs = append(errs, fn())
	}
	return errors.Join(errs...)
}

// kitFor returns the shared kit, or a kit with the target's OCSP overrides.
func (c *Checker) kitFor(t Target) (*kit.Kit, *policy.Config, error) {
	if t.OCSPMode == "" && t.FailHard == nil {
		return c.kit, c.policy, nil
	}

	o := policy.DefaultMixedOCSPPolicy()
	if c.policy.OCSP != nil {
		cp := *c.policy.OCSP
		o = &cp
	}
	if t.OCSPMode != "" {
		mode, err := policy.ParseOCSPMode(t.OCSPMode)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidTarget, err)
		}
		o.Mode = mode
	}
	if t.FailHard != nil {
		o.FailHard = *t.FailHard
	}

	p := *c.policy
	p.OCSP = o
	return kit.New(&p, c.opts...), &p, nil
}

// Check dials the target and reports the outcome of every active validator.
// The returned error covers invalid targets only; an untrusted peer is a
// report with Trusted false.
func (c *Checker) Check(ctx context.Context, t Target) (*Report, error) {
	if t.Port == 0 {
		t.Port = DefaultPort
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	k, p, err := c.kitFor(t)
	if err != nil {
		return nil, err
	}

	d := &transport.Dialer{
		Kit:            k,
		TLSConfig:      c.tls,
		NetDialer:      &net.Dialer{Timeout: c.timeout},
		UseSystemRoots: c.systemRoots,
		Log:            c.log,
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	addr := net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
	conn, sess, err := d.Dial(ctx, "tcp", addr)

	r := &Report{
		Host:      t.Host,
		Port:      t.Port,
		Policy:    p.Enabled(),
		CheckedAt: start.UTC(),
	}
	if sess != nil {
		// Validators still running after a rejection finish on cancellation.
		_ = sess.Wait(ctx)
		r.addResults(sess)
	}
	if err != nil {
		r.setError(err)
	} else {
		r.Trusted = true
		ch := x509chain.FromConnectionState(conn.ConnectionState())
		r.Chain = ch.Summaries()
		c.log.Debugf("Presented chain for %s:\n%s", addr, ch.RenderASCIITree())
		_ = conn.Close()
	}
	r.Duration = time.Since(start)

	c.log.Infof("Checked %s: trusted=%t", addr, r.Trusted)
	return r, nil
}
