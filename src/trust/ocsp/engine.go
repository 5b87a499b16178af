// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package ocsp

import (
	"context"
	"crypto/x509"
	"fmt"
	"time"

	"github.com/jmhodges/clock"
	xocsp "golang.org/x/crypto/ocsp"

	x509certs "github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/certs"
	x509chain "github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/chain"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/logger"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/trust"
)

// MaxClockSkew is how far ahead of the local clock a response's ThisUpdate
// may be.
const MaxClockSkew = 5 * time.Minute

// ParseFunc parses a DER response and verifies it was issued for leaf by
// issuer or a responder it delegated to.
type ParseFunc func(raw []byte, leaf, issuer *x509.Certificate) (*xocsp.Response, error)

// DirectFunc obtains a verified response from the leaf's responder.
type DirectFunc func(ctx context.Context, leaf, issuer *x509.Certificate) (*xocsp.Response, error)

// Engine holds the checks shared by the OCSP validators.
type Engine struct {
	parse  ParseFunc
	direct DirectFunc
	client *x509chain.OCSPClient
	cache  x509chain.ResponseCache
	clock  clock.Clock
	log    *logger.Scoped
}

// Option configures an [Engine].
type Option func(*Engine)

// WithParser replaces the response parser used for staples.
func WithParser(fn ParseFunc) Option {
	return func(e *Engine) { e.parse = fn }
}

// WithDirect replaces the live responder query.
func WithDirect(fn DirectFunc) Option {
	return func(e *Engine) { e.direct = fn }
}

// WithClient sets the HTTP client used for responder queries.
func WithClient(c *x509chain.OCSPClient) Option {
	return func(e *Engine) { e.client = c }
}

// WithCache caches good responder answers until their NextUpdate.
func WithCache(c x509chain.ResponseCache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithClock sets the clock used for cache freshness.
func WithClock(clk clock.Clock) Option {
	return func(e *Engine) { e.clock = clk }
}

// WithLogger sets the engine logger.
func WithLogger(l *logger.Scoped) Option {
	return func(e *Engine) { e.log = l }
}

// NewEngine builds an engine. Without options it parses with
// [xocsp.ParseResponseForCert] and queries responders over HTTP with no cache.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		parse: xocsp.ParseResponseForCert,
		clock: clock.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.client == nil {
		e.client = x509chain.NewOCSPClient(x509chain.NewHTTPConfig("dev"))
	}
	if e.direct == nil {
		e.direct = e.query
	}
	return e
}

// ValidateStapled checks a stapled response. An empty staple fails with
// [trust.KindEmptyResponse]; any status other than good fails with
// [trust.KindRevoked]; a good response outside its validity window fails
// with [trust.KindOCSPFailure].
func (e *Engine) ValidateStapled(validator string, raw []byte, leaf, issuer *x509.Certificate) error {
	if len(raw) == 0 {
		return trust.Errorf(validator, trust.KindEmptyResponse, "Empty OCSP stapling response.")
	}

	resp, err := e.parse(raw, leaf, issuer)
	if err != nil {
		return trust.Wrap(validator, trust.KindOCSPFailure, err, fmt.Sprintf("Invalid OCSP stapling response: %v.", err))
	}
	return e.checkStatus(validator, resp)
}

// DirectCheck asks the leaf's responder for its status. Any status other
// than good fails with [trust.KindRevoked] and a stale answer with
// [trust.KindOCSPFailure].
func (e *Engine) DirectCheck(ctx context.Context, validator string, leaf, issuer *x509.Certificate) error {
	resp, err := e.direct(ctx, leaf, issuer)
	if err != nil {
		return trust.Wrap(validator, trust.KindOCSPFailure, err, fmt.Sprintf("OCSP request failed: %v.", err))
	}
	return e.checkStatus(validator, resp)
}

// HandleError applies the fail-hard policy. A revocation is always returned;
// any other error is returned only when failHard is set and logged otherwise.
func (e *Engine) HandleError(err error, failHard bool) error {
	if err == nil {
		return nil
	}
	if trust.IsRevocation(err) || failHard {
		return err
	}
	e.log.Warnf("Failed to validate: %v", err)
	return nil
}

// checkStatus rejects any status other than good. A revoked answer stays
// authoritative once stale; a good one must be current.
func (e *Engine) checkStatus(validator string, resp *xocsp.Response) error {
	if resp.Status != xocsp.Good {
		return trust.Errorf(validator, trust.KindRevoked, "Certificate is revoked. Status: %s.", StatusName(resp.Status))
	}

	now := e.clock.Now()
	if !resp.NextUpdate.IsZero() && resp.NextUpdate.Before(now) {
		return trust.Errorf(validator, trust.KindOCSPFailure,
			"OCSP response expired at %s.", resp.NextUpdate.UTC().Format(time.RFC3339))
	}
	if resp.ThisUpdate.After(now.Add(MaxClockSkew)) {
		return trust.Errorf(validator, trust.KindOCSPFailure,
			"OCSP response is not valid until %s.", resp.ThisUpdate.UTC().Format(time.RFC3339))
	}
	return nil
}

// StatusName returns the lowercase name of an OCSP certificate status.
func StatusName(status int) string {
	switch status {
	case xocsp.Good:
		return "good"
	case xocsp.Revoked:
		return "revoked"
	case xocsp.Unknown:
		return "unknown"
	default:
		return fmt.Sprintf("status(%d)", status)
	}
}

func cacheKey(leaf, issuer *x509.Certificate) string {
	return x509certs.SPKIHash(issuer) + ":" + x509certs.SerialHex(leaf)
}

func (e *Engine) query(ctx context.Context, leaf, issuer *x509.Certificate) (*xocsp.Response, error) {
	key := cacheKey(leaf, issuer)
	if e.cache != nil {
		if raw, ok := e.cache.Get(ctx, key); ok {
			resp, err := e.parse(raw, leaf, issuer)
			if err == nil {
				e.log.Debugf("Using cached OCSP response for serial %s", x509certs.SerialHex(leaf))
				return resp, nil
			}
			e.log.Warnf("Discarding unusable cached OCSP response: %v", err)
		}
	}

	raw, err := e.client.Fetch(ctx, leaf, issuer)
	if err != nil {
		return nil, err
	}
	resp, err := e.parse(raw, leaf, issuer)
	if err != nil {
		return nil, err
	}

	if e.cache != nil && resp.Status == xocsp.Good && resp.NextUpdate.After(e.clock.Now()) {
		e.cache.Put(ctx, key, raw, resp.NextUpdate)
	}
	return resp, nil
}
