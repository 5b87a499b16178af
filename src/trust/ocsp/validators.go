// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package ocsp

import (
	"context"

	"github.com/H0llyW00dzZ/tls-trust-validator/src/logger"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/trust"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/trust/policy"
)

// Validator names.
const (
	StaplingName = "OCSPStaplingValidator"
	DirectName   = "OCSPDirectValidator"
	MixedName    = "OCSPMixedValidator"
)

func requestStaple(opts trust.ConnectOptions) trust.ConnectOptions {
	opts.RequestOCSPStaple = true
	return opts
}

func modeIs(cfg *policy.Config, mode policy.OCSPMode) bool {
	return cfg != nil && cfg.OCSP != nil && cfg.OCSP.Mode == mode
}

// checkStaple validates raw against the peer chain once it is available.
func checkStaple(ctx context.Context, e *Engine, name string, sock trust.Socket, raw []byte) error {
	if len(raw) == 0 {
		return trust.Errorf(name, trust.KindEmptyResponse, "Empty OCSP stapling response.")
	}
	if err := trust.WaitHandshake(ctx, sock, name); err != nil {
		return err
	}
	leaf, issuer, err := trust.LeafAndIssuer(sock, name)
	if err != nil {
		return err
	}
	return e.ValidateStapled(name, raw, leaf, issuer)
}

// Stapling requires a good stapled response.
type Stapling struct {
	engine *Engine
	log    *logger.Scoped
}

// NewStapling creates the stapling validator.
func NewStapling(e *Engine) *Stapling {
	return &Stapling{engine: e, log: e.log.Named(StaplingName)}
}

// Name implements [trust.Validator].
func (v *Stapling) Name() string { return StaplingName }

// ShouldRun implements [trust.Validator].
func (v *Stapling) ShouldRun(cfg *policy.Config) bool { return modeIs(cfg, policy.OCSPStapling) }

// OnBeforeConnect implements [trust.Validator]. It requests a staple.
func (v *Stapling) OnBeforeConnect(opts trust.ConnectOptions) trust.ConnectOptions {
	return requestStaple(opts)
}

// Validate implements [trust.Validator].
//
// A staple that arrives is validated; a handshake that completes without one
// yields [trust.KindStapleNotReceived]. Either error goes through the
// fail-hard policy.
func (v *Stapling) Validate(ctx context.Context, sock trust.Socket, cfg *policy.Config) error {
	failHard := cfg.OCSP.FailHard

	select {
	case raw := <-sock.Staple():
		return v.stapled(ctx, sock, raw, failHard)
	case <-sock.HandshakeComplete():
		// The staple is delivered before the handshake completes.
		select {
		case raw := <-sock.Staple():
			return v.stapled(ctx, sock, raw, failHard)
		default:
		}
		return v.engine.HandleError(
			trust.Errorf(StaplingName, trust.KindStapleNotReceived, "OCSP stapling response required but not received."),
			failHard)
	case <-sock.Closed():
		return trust.ClosedError(StaplingName, sock)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (v *Stapling) stapled(ctx context.Context, sock trust.Socket, raw []byte, failHard bool) error {
	v.log.Debugf("OCSP stapling response received, performing validation")
	err := checkStaple(ctx, v.engine, StaplingName, sock, raw)
	if trust.KindOf(err) == trust.KindTransport || ctx.Err() != nil {
		return err
	}
	if err == nil {
		v.log.Debugf("Certificate is not revoked")
	}
	return v.engine.HandleError(err, failHard)
}

// Direct queries the certificate's responder after the handshake.
type Direct struct {
	trust.Base

	engine *Engine
	log    *logger.Scoped
}

// NewDirect creates the direct validator.
func NewDirect(e *Engine) *Direct {
	return &Direct{engine: e, log: e.log.Named(DirectName)}
}

// Name implements [trust.Validator].
func (v *Direct) Name() string { return DirectName }

// ShouldRun implements [trust.Validator].
func (v *Direct) ShouldRun(cfg *policy.Config) bool { return modeIs(cfg, policy.OCSPDirect) }

// Validate implements [trust.Validator].
func (v *Direct) Validate(ctx context.Context, sock trust.Socket, cfg *policy.Config) error {
	if err := trust.WaitHandshake(ctx, sock, DirectName); err != nil {
		return err
	}
	v.log.Debugf("Secure connection established, performing direct OCSP validation")
	err := queryDirect(ctx, v.engine, DirectName, sock)
	if isAbort(ctx, err) {
		return err
	}
	return v.engine.HandleError(err, cfg.OCSP.FailHard)
}

// queryDirect runs the direct check and gives up once the socket closes or
// ctx is done. A closed socket yields a [trust.KindTransport] error and a
// done ctx yields ctx.Err(); neither may pass as a soft failure.
func queryDirect(ctx context.Context, e *Engine, name string, sock trust.Socket) error {
	qctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- directCheck(qctx, e, name, sock) }()

	select {
	case err := <-done:
		select {
		case <-sock.Closed():
			return trust.ClosedError(name, sock)
		default:
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	case <-sock.Closed():
		return trust.ClosedError(name, sock)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func directCheck(ctx context.Context, e *Engine, name string, sock trust.Socket) error {
	leaf, issuer, err := trust.LeafAndIssuer(sock, name)
	if err != nil {
		return err
	}
	return e.DirectCheck(ctx, name, leaf, issuer)
}
