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

type mixedState int

const (
	awaitingBoth mixedState = iota
	stapleFailedAwaitingHandshake
	resolved
)

func (s mixedState) String() string {
	switch s {
	case awaitingBoth:
		return "awaiting-both"
	case stapleFailedAwaitingHandshake:
		return "staple-failed-awaiting-handshake"
	default:
		return "resolved"
	}
}

// mixedMachine resolves one connection. Each trigger is applied at most once
// and nothing changes after the machine resolves.
type mixedMachine struct {
	state mixedState
	err   error
	log   *logger.Scoped
	// aborted reports direct check errors that end validation without
	// resolving the machine.
	aborted func(error) bool
}

// onStaple applies a staple check result.
//
//	awaitingBoth + good                 -> resolved (success)
//	awaitingBoth + revoked              -> resolved (failure)
//	awaitingBoth + other error          -> stapleFailedAwaitingHandshake
func (m *mixedMachine) onStaple(err error) {
	if m.state != awaitingBoth {
		return
	}
	switch {
	case err == nil:
		m.log.Debugf("OCSP stapling validation succeeded. Certificate is not revoked")
		m.resolve(nil)
	case trust.IsRevocation(err):
		m.resolve(err)
	default:
		m.log.Warnf("OCSP stapling validation failed: %v", err)
		m.state = stapleFailedAwaitingHandshake
	}
}

// onHandshake runs the direct check unless a staple already resolved the
// connection. The check's result goes through the fail-hard policy; an
// aborted check is returned as is and leaves the state unchanged.
//
//	awaitingBoth                  -> direct -> resolved
//	stapleFailedAwaitingHandshake -> direct -> resolved
func (m *mixedMachine) onHandshake(direct func() error, handle func(error) error) error {
	switch m.state {
	case resolved:
		return nil
	case stapleFailedAwaitingHandshake:
		m.log.Debugf("Falling back to direct OCSP check after failed stapling attempt")
	default:
		m.log.Debugf("No OCSP staple received. Falling back to direct OCSP check")
	}
	err := direct()
	if m.aborted != nil && m.aborted(err) {
		return err
	}
	m.resolve(handle(err))
	return nil
}

func (m *mixedMachine) resolve(err error) {
	if m.state == resolved {
		return
	}
	m.state = resolved
	m.err = err
}

// Mixed prefers a stapled response and falls back to the responder.
//
// A good staple accepts the connection and a revoked staple rejects it
// without a direct check. Any other staple failure is logged and the direct
// check decides, subject to the policy's FailHard.
type Mixed struct {
	engine *Engine
	log    *logger.Scoped
}

// NewMixed creates the mixed validator.
func NewMixed(e *Engine) *Mixed {
	return &Mixed{engine: e, log: e.log.Named(MixedName)}
}

// Name implements [trust.Validator].
func (v *Mixed) Name() string { return MixedName }

// ShouldRun implements [trust.Validator].
func (v *Mixed) ShouldRun(cfg *policy.Config) bool { return modeIs(cfg, policy.OCSPMixed) }

// OnBeforeConnect implements [trust.Validator]. It requests a staple.
func (v *Mixed) OnBeforeConnect(opts trust.ConnectOptions) trust.ConnectOptions {
	return requestStaple(opts)
}

// Validate implements [trust.Validator].
func (v *Mixed) Validate(ctx context.Context, sock trust.Socket, cfg *policy.Config) error {
	failHard := cfg.OCSP.FailHard
	m := &mixedMachine{log: v.log, aborted: func(err error) bool { return isAbort(ctx, err) }}

	staple := sock.Staple()
	direct := func() error { return queryDirect(ctx, v.engine, MixedName, sock) }
	handle := func(err error) error { return v.engine.HandleError(err, failHard) }

	for m.state != resolved {
		select {
		case raw := <-staple:
			staple = nil
			err := v.stapled(ctx, sock, raw)
			if isAbort(ctx, err) {
				return err
			}
			m.onStaple(err)
		case <-sock.HandshakeComplete():
			// A staple queued with the handshake is resolved first.
			select {
			case raw := <-staple:
				staple = nil
				err := v.stapled(ctx, sock, raw)
				if isAbort(ctx, err) {
					return err
				}
				m.onStaple(err)
			default:
			}
			if err := m.onHandshake(direct, handle); err != nil {
				return err
			}
		case <-sock.Closed():
			return trust.ClosedError(MixedName, sock)
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return m.err
}

func (v *Mixed) stapled(ctx context.Context, sock trust.Socket, raw []byte) error {
	v.log.Debugf("OCSP stapling response received, performing validation")
	return checkStaple(ctx, v.engine, MixedName, sock, raw)
}

// isAbort reports errors that end validation outside the state machine.
func isAbort(ctx context.Context, err error) bool {
	return err != nil && (trust.KindOf(err) == trust.KindTransport || ctx.Err() != nil)
}
