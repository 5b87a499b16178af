// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package kit

import (
	"context"
	"sync"
	"time"
)

// State is the validation state of one socket.
type State int

const (
	Pending State = iota
	Validating
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Validating:
		return "validating"
	case Succeeded:
		return "succeeded"
	default:
		return "failed"
	}
}

// Result is one validator's outcome within a session.
type Result struct {
	Validator string
	Err       error
	Took      time.Duration
}

// Session tracks the validation of one socket. Its outcome is set exactly
// once; Done is closed at that point.
type Session struct {
	done chan struct{}

	mu      sync.Mutex
	state   State
	err     error
	active  []string
	results []Result
}

func newSession() *Session {
	return &Session{done: make(chan struct{})}
}

// Done is closed once the outcome is known.
func (s *Session) Done() <-chan struct{} { return s.done }

// Err returns the failure cause, or nil while pending and on success.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Active lists the validators that run for this socket, in construction order.
func (s *Session) Active() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.active...)
}

// Results returns the validator results recorded so far. Validators still
// running when the session failed may be missing.
func (s *Session) Results() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Result(nil), s.results...)
}

// Wait blocks until the outcome is known or ctx is done.
func (s *Session) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return s.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) begin(active []string) {
	s.mu.Lock()
	s.state = Validating
	s.active = active
	s.mu.Unlock()
}

func (s *Session) record(r Result) {
	s.mu.Lock()
	s.results = append(s.results, r)
	s.mu.Unlock()
}

// claim sets the outcome. It reports whether this call did so; the caller
// must then call publish once side effects of the outcome are done.
func (s *Session) claim(err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Succeeded || s.state == Failed {
		return false
	}
	s.err = err
	if err != nil {
		s.state = Failed
	} else {
		s.state = Succeeded
	}
	return true
}

func (s *Session) publish() { close(s.done) }
