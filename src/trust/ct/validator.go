// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package ct

import (
	"context"

	"github.com/jmhodges/clock"

	"github.com/H0llyW00dzZ/tls-trust-validator/src/logger"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/trust"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/trust/policy"
)

// Name identifies the CT validator.
const Name = "CTValidator"

// Validator enforces the CT policy on the peer's leaf certificate.
type Validator struct {
	trust.Base

	engine *Engine
	log    *logger.Scoped
}

// Option configures a [Validator].
type Option func(*options)

type options struct {
	clock clock.Clock
	log   *logger.Scoped
}

// WithClock sets the clock used as the SCT verification time.
func WithClock(clk clock.Clock) Option {
	return func(o *options) { o.clock = clk }
}

// WithLogger sets the logger. Entries are tagged with the validator name.
func WithLogger(l *logger.Scoped) Option {
	return func(o *options) { o.log = l }
}

// New creates a CT validator.
func New(opts ...Option) *Validator {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	log := o.log.Named(Name)
	return &Validator{
		engine: NewEngine(Name, o.clock, log),
		log:    log,
	}
}

// Name implements [trust.Validator].
func (v *Validator) Name() string { return Name }

// ShouldRun implements [trust.Validator]. It runs only with a CT policy.
func (v *Validator) ShouldRun(cfg *policy.Config) bool {
	return cfg != nil && cfg.CT != nil
}

// Validate implements [trust.Validator].
func (v *Validator) Validate(ctx context.Context, sock trust.Socket, cfg *policy.Config) error {
	if err := trust.WaitHandshake(ctx, sock, Name); err != nil {
		return err
	}

	leaf, issuer, err := trust.LeafAndIssuer(sock, Name)
	if err != nil {
		return err
	}

	res, err := v.engine.Verify(leaf, issuer, cfg.CT)
	if err != nil {
		return err
	}

	if err := v.engine.Evaluate(res, cfg.CT); err != nil {
		return err
	}

	v.log.Debugf("Certificate is CT compliant with %d valid embedded SCT(s) from %d distinct operator(s)", len(res.Valid), res.Operators())
	return nil
}
