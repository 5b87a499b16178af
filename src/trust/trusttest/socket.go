// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package trusttest provides in-memory doubles for testing validators and the
// orchestrator without a network.
package trusttest

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/H0llyW00dzZ/tls-trust-validator/src/trust"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/trust/policy"
)

// ErrPauseFailed is returned by Pause when FailPause is set.
var ErrPauseFailed = errors.New("trusttest: pause failed")

// Socket is a scripted [trust.Socket]. Tests drive it with DeliverStaple,
// CompleteHandshake and Close.
type Socket struct {
	handshake chan struct{}
	staple    chan []byte
	closed    chan struct{}

	handshakeOnce sync.Once
	closeOnce     sync.Once

	mu        sync.Mutex
	err       error
	state     tls.ConnectionState
	destroyed error

	// FailPause makes Pause return ErrPauseFailed.
	FailPause bool

	Pauses   atomic.Int32
	Resumes  atomic.Int32
	Destroys atomic.Int32
}

// NewSocket returns a socket whose peer chain is certs, leaf first.
func NewSocket(certs ...*x509.Certificate) *Socket {
	return &Socket{
		handshake: make(chan struct{}),
		staple:    make(chan []byte, 1),
		closed:    make(chan struct{}),
		state:     tls.ConnectionState{HandshakeComplete: true, PeerCertificates: certs},
	}
}

// Connected returns a socket that has already completed its handshake.
func Connected(certs ...*x509.Certificate) *Socket {
	s := NewSocket(certs...)
	s.CompleteHandshake()
	return s
}

// DeliverStaple queues an OCSP staple. Only the first call has effect.
func (s *Socket) DeliverStaple(raw []byte) {
	select {
	case s.staple <- raw:
	default:
	}
}

// CompleteHandshake marks the handshake as done.
func (s *Socket) CompleteHandshake() {
	s.handshakeOnce.Do(func() { close(s.handshake) })
}

// Close tears the socket down with err.
func (s *Socket) Close(err error) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.closed)
	})
}

// HandshakeComplete implements [trust.Socket].
func (s *Socket) HandshakeComplete() <-chan struct{} { return s.handshake }

// Staple implements [trust.Socket].
func (s *Socket) Staple() <-chan []byte { return s.staple }

// Closed implements [trust.Socket].
func (s *Socket) Closed() <-chan struct{} { return s.closed }

// Err implements [trust.Socket].
func (s *Socket) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// ConnectionState implements [trust.Socket].
func (s *Socket) ConnectionState() tls.ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Pause implements [trust.Socket].
func (s *Socket) Pause() error {
	s.Pauses.Add(1)
	if s.FailPause {
		return ErrPauseFailed
	}
	return nil
}

// Resume implements [trust.Socket].
func (s *Socket) Resume() error {
	s.Resumes.Add(1)
	return nil
}

// Destroy implements [trust.Socket].
func (s *Socket) Destroy(err error) {
	s.Destroys.Add(1)
	s.mu.Lock()
	if s.destroyed == nil {
		s.destroyed = err
	}
	s.mu.Unlock()
	s.Close(err)
}

// DestroyedWith returns the error passed to the first Destroy call.
func (s *Socket) DestroyedWith() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}

// Spy wraps a validator and counts calls.
type Spy struct {
	trust.Validator

	ShouldRunCalls atomic.Int32
	ValidateCalls  atomic.Int32
}

// NewSpy wraps v.
func NewSpy(v trust.Validator) *Spy { return &Spy{Validator: v} }

// ShouldRun implements [trust.Validator].
func (s *Spy) ShouldRun(cfg *policy.Config) bool {
	s.ShouldRunCalls.Add(1)
	return s.Validator.ShouldRun(cfg)
}

// Validate implements [trust.Validator].
func (s *Spy) Validate(ctx context.Context, sock trust.Socket, cfg *policy.Config) error {
	s.ValidateCalls.Add(1)
	return s.Validator.Validate(ctx, sock, cfg)
}

// Stub is a configurable validator.
type Stub struct {
	trust.Base

	ID  string
	Run bool
	Err error
	// Block, when set, delays Validate until it is closed or ctx is done.
	Block chan struct{}
	// Mutate is applied by OnBeforeConnect when set.
	Mutate func(trust.ConnectOptions) trust.ConnectOptions

	Calls atomic.Int32
}

// Name implements [trust.Validator].
func (s *Stub) Name() string { return s.ID }

// ShouldRun implements [trust.Validator].
func (s *Stub) ShouldRun(*policy.Config) bool { return s.Run }

// OnBeforeConnect implements [trust.Validator].
func (s *Stub) OnBeforeConnect(opts trust.ConnectOptions) trust.ConnectOptions {
	if s.Mutate != nil {
		return s.Mutate(opts)
	}
	return opts
}

// Validate implements [trust.Validator].
func (s *Stub) Validate(ctx context.Context, _ trust.Socket, _ *policy.Config) error {
	s.Calls.Add(1)
	if s.Block != nil {
		select {
		case <-s.Block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.Err
}
