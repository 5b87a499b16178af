// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package kit

import (
	"context"
	"sync"
	"time"

	"github.com/jmhodges/clock"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/crlset"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/logger"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/trust"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/trust/ct"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/trust/ocsp"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/trust/policy"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/trust/revocation"
)

// Kit runs the active validators against connected sockets and reports one
// outcome per socket.
//
// A Kit is built once per client and shared by all its connections. It is
// safe for concurrent use.
type Kit struct {
	cfg        *policy.Config
	validators []trust.Validator
	log        *logger.Scoped
	metrics    *Metrics
	clock      clock.Clock
	sem        *semaphore.Weighted

	mu       sync.Mutex
	sessions map[trust.Socket]*Session
}

const kitName = "ValidationKit"

// Option configures a [Kit].
type Option func(*builder)

type builder struct {
	validators []trust.Validator
	log        *logger.Scoped
	metrics    *Metrics
	clock      clock.Clock
	inflight   int64
	engine     *ocsp.Engine
	loader     crlset.Loader
}

// WithValidators replaces the default validators. They are consulted in
// the given order.
func WithValidators(vs ...trust.Validator) Option {
	return func(b *builder) { b.validators = vs }
}

// WithLogger sets the logger shared by the kit and its default validators.
func WithLogger(l *logger.Scoped) Option {
	return func(b *builder) { b.log = l }
}

// WithMetrics records outcomes in m.
func WithMetrics(m *Metrics) Option {
	return func(b *builder) { b.metrics = m }
}

// WithClock sets the clock used for timing and SCT verification.
func WithClock(clk clock.Clock) Option {
	return func(b *builder) { b.clock = clk }
}

// WithMaxInflight bounds the number of sockets validated at once.
// Zero or less means unbounded.
func WithMaxInflight(n int64) Option {
	return func(b *builder) { b.inflight = n }
}

// WithOCSPEngine sets the engine shared by the OCSP validators.
func WithOCSPEngine(e *ocsp.Engine) Option {
	return func(b *builder) { b.engine = e }
}

// WithCRLSetLoader sets the loader used when the policy has no preloaded set.
func WithCRLSetLoader(l crlset.Loader) Option {
	return func(b *builder) { b.loader = l }
}

// New creates a kit for cfg.
//
// Unless [WithValidators] is given, the validators are, in order: CT, OCSP
// stapling, OCSP direct, OCSP mixed and CRLSet. Only those whose ShouldRun
// accepts cfg take part in a connection.
func New(cfg *policy.Config, opts ...Option) *Kit {
	b := &builder{}
	for _, opt := range opts {
		opt(b)
	}
	if b.clock == nil {
		b.clock = clock.New()
	}

	if b.validators == nil {
		engine := b.engine
		if engine == nil {
			engine = ocsp.NewEngine(ocsp.WithLogger(b.log), ocsp.WithClock(b.clock))
		}
		b.validators = []trust.Validator{
			ct.New(ct.WithClock(b.clock), ct.WithLogger(b.log)),
			ocsp.NewStapling(engine),
			ocsp.NewDirect(engine),
			ocsp.NewMixed(engine),
			revocation.New(b.loader, b.log),
		}
	}

	k := &Kit{
		cfg:        cfg,
		validators: b.validators,
		log:        b.log.Named(kitName),
		metrics:    b.metrics,
		clock:      b.clock,
		sessions:   make(map[trust.Socket]*Session),
	}
	if b.inflight > 0 {
		k.sem = semaphore.NewWeighted(b.inflight)
	}
	return k
}

// Config returns the policy the kit enforces.
func (k *Kit) Config() *policy.Config { return k.cfg }

// Validators returns every configured validator in order.
func (k *Kit) Validators() []trust.Validator {
	return append([]trust.Validator(nil), k.validators...)
}

// Active returns the validators that take part under the kit's policy.
func (k *Kit) Active() []trust.Validator {
	var active []trust.Validator
	for _, v := range k.validators {
		if v.ShouldRun(k.cfg) {
			active = append(active, v)
		}
	}
	return active
}

// ApplyBeforeConnect folds the active validators' option changes over opts
// in construction order. opts itself is not modified.
func (k *Kit) ApplyBeforeConnect(opts trust.ConnectOptions) trust.ConnectOptions {
	opts = opts.Clone()
	for _, v := range k.Active() {
		opts = v.OnBeforeConnect(opts)
	}
	return opts
}

// Attach starts validating sock and returns its session. Attaching a socket
// that is already being validated, or was validated, returns the existing
// session without running anything again.
//
// Validation stops when ctx is done; the outcome is then the context error.
//
// Thread Safety: Safe for concurrent use.
func (k *Kit) Attach(ctx context.Context, sock trust.Socket) *Session {
	k.mu.Lock()
	if s, ok := k.sessions[sock]; ok {
		k.mu.Unlock()
		return s
	}
	sess := newSession()
	k.sessions[sock] = sess
	k.mu.Unlock()

	active := k.Active()
	if len(active) == 0 {
		k.log.Debugf("No active validators, relying on the TLS handshake")
		sess.claim(nil)
		k.metrics.observeOutcome(nil, 0)
		sess.publish()
		return sess
	}

	names := make([]string, len(active))
	for i, v := range active {
		names[i] = v.Name()
	}
	sess.begin(names)

	go k.run(ctx, sock, sess, active)
	return sess
}

// Validate attaches sock and waits for the outcome.
func (k *Kit) Validate(ctx context.Context, sock trust.Socket) error {
	return k.Attach(ctx, sock).Wait(ctx)
}

// Release forgets sock. Call it once the socket is closed.
func (k *Kit) Release(sock trust.Socket) {
	k.mu.Lock()
	delete(k.sessions, sock)
	k.mu.Unlock()
}

func (k *Kit) run(ctx context.Context, sock trust.Socket, sess *Session, active []trust.Validator) {
	start := k.clock.Now()

	// Hold application data until trust is established.
	if err := sock.Pause(); err != nil {
		k.log.Warnf("Failed to pause socket: %v", err)
	}

	if k.sem != nil {
		if err := k.sem.Acquire(ctx, 1); err != nil {
			k.fail(sock, sess, err, start)
			return
		}
		defer k.sem.Release(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, v := range active {
		g.Go(func() error {
			began := k.clock.Now()
			err := v.Validate(gctx, sock, k.cfg)
			sess.record(Result{Validator: v.Name(), Err: err, Took: k.clock.Now().Sub(began)})
			k.metrics.observeValidator(v.Name(), err)
			if err != nil {
				// The first failure is reported without waiting for the others.
				k.fail(sock, sess, err, start)
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return
	}
	// Passing validators say nothing about a connection torn down meanwhile.
	if err := k.interrupted(ctx, sock); err != nil {
		k.fail(sock, sess, err, start)
		return
	}

	if err := sock.Resume(); err != nil {
		k.log.Warnf("Failed to resume socket: %v", err)
	}
	if sess.claim(nil) {
		k.metrics.observeOutcome(nil, k.clock.Now().Sub(start))
		k.log.Debugf("All %d validators passed", len(active))
		sess.publish()
	}
}

// interrupted reports a socket closed or a ctx done before the outcome.
func (k *Kit) interrupted(ctx context.Context, sock trust.Socket) error {
	select {
	case <-sock.Closed():
		return trust.ClosedError(kitName, sock)
	default:
	}
	return ctx.Err()
}

func (k *Kit) fail(sock trust.Socket, sess *Session, err error, start time.Time) {
	if !sess.claim(err) {
		return
	}
	k.metrics.observeOutcome(err, k.clock.Now().Sub(start))
	k.log.Infof("Validation failed: %v", err)
	// No data may flow once trust is rejected.
	sock.Destroy(err)
	sess.publish()
}
