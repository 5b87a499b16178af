// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package trust

import (
	"context"
	"crypto/tls"
	"crypto/x509"

	x509chain "github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/chain"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/trust/policy"
)

// Socket is the view of a TLS connection that validators observe.
// The transport owns it; validators never close it directly.
type Socket interface {
	// HandshakeComplete is closed once the TLS handshake succeeded and the
	// peer chain is available.
	HandshakeComplete() <-chan struct{}
	// Staple delivers the OCSP staple at most once, before HandshakeComplete
	// is closed. Nothing is sent when the peer did not staple.
	Staple() <-chan []byte
	// Closed is closed when the socket is torn down; Err reports why.
	Closed() <-chan struct{}
	Err() error
	// ConnectionState is valid after HandshakeComplete.
	ConnectionState() tls.ConnectionState
	// Pause and Resume gate the application data read side.
	Pause() error
	Resume() error
	// Destroy tears the socket down with err as the cause.
	Destroy(err error)
}

// ConnectOptions are the options used to establish a socket.
type ConnectOptions struct {
	TLSConfig *tls.Config
	// RequestOCSPStaple asks the peer to deliver a stapled OCSP response.
	RequestOCSPStaple bool
}

// Clone returns a copy whose TLS config may be modified independently.
func (o ConnectOptions) Clone() ConnectOptions {
	if o.TLSConfig != nil {
		o.TLSConfig = o.TLSConfig.Clone()
	}
	return o
}

// Validator is one trust check run against a freshly connected socket.
//
// Implementations hold no per-connection state: a validator is built once and
// reused across many connections, so any transient state lives inside Validate.
type Validator interface {
	// Name identifies the validator in errors, logs and metrics.
	Name() string
	// ShouldRun reports whether the validator takes part under cfg.
	ShouldRun(cfg *policy.Config) bool
	// OnBeforeConnect adjusts the connect options. It must be idempotent.
	OnBeforeConnect(opts ConnectOptions) ConnectOptions
	// Validate blocks until the check resolves.
	Validate(ctx context.Context, sock Socket, cfg *policy.Config) error
}

// Base provides the identity OnBeforeConnect for validators that do not
// change connect options.
type Base struct{}

// OnBeforeConnect returns opts unchanged.
func (Base) OnBeforeConnect(opts ConnectOptions) ConnectOptions { return opts }

// WaitHandshake blocks until the handshake completes, the socket closes or ctx
// is done. A closed socket yields a [KindTransport] error carrying its cause.
func WaitHandshake(ctx context.Context, sock Socket, validator string) error {
	select {
	case <-sock.HandshakeComplete():
		return nil
	case <-sock.Closed():
		return ClosedError(validator, sock)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ClosedError reports a socket torn down while validator was waiting on it.
func ClosedError(validator string, sock Socket) error {
	cause := sock.Err()
	if cause == nil {
		return Errorf(validator, KindTransport, "Socket closed before validation completed.")
	}
	return Wrap(validator, KindTransport, cause, cause.Error())
}

// LeafAndIssuer resolves the leaf and its issuer from the socket's peer chain.
// A chain without the issuer yields a [KindMissingIssuer] error.
func LeafAndIssuer(sock Socket, validator string) (*x509.Certificate, *x509.Certificate, error) {
	chain := x509chain.FromConnectionState(sock.ConnectionState())
	leaf, issuer, err := chain.LeafAndIssuer()
	if err != nil {
		return nil, nil, Wrap(validator, KindMissingIssuer, err, "Could not find issuer certificate in the chain.")
	}
	return leaf, issuer, nil
}
