// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package kit_test

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xocsp "golang.org/x/crypto/ocsp"

	"github.com/H0llyW00dzZ/tls-trust-validator/src/internal/testutil/pkitest"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/crlset"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/trust"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/trust/ct"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/trust/kit"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/trust/ocsp"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/trust/policy"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/trust/revocation"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/trust/trusttest"
)

func wait(t *testing.T, s *kit.Session) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	select {
	case <-s.Done():
		return s.Err()
	case <-ctx.Done():
		require.FailNow(t, "session did not resolve")
		return nil
	}
}

func TestAttach(t *testing.T) {
	errRejected := trust.Errorf("B", trust.KindRevoked, "rejected")

	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "no active validators succeeds at once",
			testFunc: func(t *testing.T) {
				stub := &trusttest.Stub{ID: "A", Run: false}
				k := kit.New(&policy.Config{}, kit.WithValidators(stub))
				sock := trusttest.NewSocket()

				sess := k.Attach(context.Background(), sock)
				require.NoError(t, wait(t, sess))
				assert.Equal(t, kit.Succeeded, sess.State())
				assert.Zero(t, stub.Calls.Load())
				assert.Zero(t, sock.Pauses.Load())
				assert.Empty(t, sess.Active())
			},
		},
		{
			name: "all pass resumes the socket",
			testFunc: func(t *testing.T) {
				a := &trusttest.Stub{ID: "A", Run: true}
				b := &trusttest.Stub{ID: "B", Run: true}
				k := kit.New(&policy.Config{}, kit.WithValidators(a, b))
				sock := trusttest.Connected()

				sess := k.Attach(context.Background(), sock)
				require.NoError(t, wait(t, sess))
				assert.Equal(t, kit.Succeeded, sess.State())
				assert.Equal(t, []string{"A", "B"}, sess.Active())
				assert.Len(t, sess.Results(), 2)
				assert.Equal(t, int32(1), sock.Pauses.Load())
				assert.Eventually(t, func() bool { return sock.Resumes.Load() == 1 }, time.Second, 5*time.Millisecond)
				assert.Zero(t, sock.Destroys.Load())
			},
		},
		{
			name: "first failure wins and destroys the socket",
			testFunc: func(t *testing.T) {
				slow := &trusttest.Stub{ID: "A", Run: true, Block: make(chan struct{})}
				bad := &trusttest.Stub{ID: "B", Run: true, Err: errRejected}
				k := kit.New(&policy.Config{}, kit.WithValidators(slow, bad))
				sock := trusttest.Connected()

				sess := k.Attach(context.Background(), sock)
				err := wait(t, sess)
				assert.Same(t, errRejected, err)
				assert.Equal(t, kit.Failed, sess.State())
				assert.Same(t, errRejected, sock.DestroyedWith())
				assert.Zero(t, sock.Resumes.Load())

				// The slow validator sees the cancellation; the outcome stays put.
				assert.Eventually(t, func() bool { return len(sess.Results()) == 2 }, time.Second, 5*time.Millisecond)
				assert.Same(t, errRejected, sess.Err())
				assert.Equal(t, int32(1), sock.Destroys.Load())
			},
		},
		{
			name: "pause failure is not fatal",
			testFunc: func(t *testing.T) {
				a := &trusttest.Stub{ID: "A", Run: true}
				k := kit.New(&policy.Config{}, kit.WithValidators(a))
				sock := trusttest.Connected()
				sock.FailPause = true

				require.NoError(t, wait(t, k.Attach(context.Background(), sock)))
			},
		},
		{
			name: "attach is idempotent",
			testFunc: func(t *testing.T) {
				block := make(chan struct{})
				a := &trusttest.Stub{ID: "A", Run: true, Block: block}
				b := &trusttest.Stub{ID: "B", Run: true}
				k := kit.New(&policy.Config{}, kit.WithValidators(a, b))
				sock := trusttest.Connected()

				first := k.Attach(context.Background(), sock)
				second := k.Attach(context.Background(), sock)
				assert.Same(t, first, second, "in-flight attach")
				close(block)

				require.NoError(t, wait(t, first))
				assert.Same(t, first, k.Attach(context.Background(), sock), "resolved attach")
				require.NoError(t, k.Validate(context.Background(), sock))

				assert.Equal(t, int32(1), a.Calls.Load())
				assert.Equal(t, int32(1), b.Calls.Load())
			},
		},
		{
			name: "release allows a new session",
			testFunc: func(t *testing.T) {
				a := &trusttest.Stub{ID: "A", Run: true}
				k := kit.New(&policy.Config{}, kit.WithValidators(a))
				sock := trusttest.Connected()

				first := k.Attach(context.Background(), sock)
				require.NoError(t, wait(t, first))
				k.Release(sock)

				second := k.Attach(context.Background(), sock)
				require.NoError(t, wait(t, second))
				assert.NotSame(t, first, second)
				assert.Equal(t, int32(2), a.Calls.Load())
			},
		},
		{
			name: "context cancellation fails the session",
			testFunc: func(t *testing.T) {
				a := &trusttest.Stub{ID: "A", Run: true, Block: make(chan struct{})}
				k := kit.New(&policy.Config{}, kit.WithValidators(a))
				sock := trusttest.Connected()

				ctx, cancel := context.WithCancel(context.Background())
				sess := k.Attach(ctx, sock)
				cancel()

				assert.ErrorIs(t, wait(t, sess), context.Canceled)
				assert.ErrorIs(t, sock.DestroyedWith(), context.Canceled)
			},
		},
		{
			name: "socket destroyed before validators pass fails the session",
			testFunc: func(t *testing.T) {
				block := make(chan struct{})
				a := &trusttest.Stub{ID: "A", Run: true, Block: block}
				k := kit.New(&policy.Config{}, kit.WithValidators(a))
				sock := trusttest.Connected()
				cause := errors.New("connection timeout")

				sess := k.Attach(context.Background(), sock)
				sock.Close(cause)
				close(block)

				err := wait(t, sess)
				assert.ErrorIs(t, err, trust.ErrTransport)
				assert.ErrorIs(t, err, cause)
				assert.Equal(t, kit.Failed, sess.State())
				assert.Zero(t, sock.Resumes.Load())
			},
		},
		{
			name: "socket destroyed during a soft direct OCSP query fails the session",
			testFunc: func(t *testing.T) {
				ca := pkitest.NewCA(t, "Kit OCSP CA")
				leaf := ca.Issue(t, pkitest.LeafOptions{}).Cert

				started, release := make(chan struct{}), make(chan struct{})
				var once sync.Once
				engine := ocsp.NewEngine(ocsp.WithDirect(func(ctx context.Context, _, _ *x509.Certificate) (*xocsp.Response, error) {
					once.Do(func() { close(started) })
					select {
					case <-release:
						return nil, errors.New("responder unreachable")
					case <-ctx.Done():
						return nil, ctx.Err()
					}
				}))
				cfg := &policy.Config{OCSP: &policy.OCSPPolicy{Mode: policy.OCSPDirect, FailHard: false}}
				k := kit.New(cfg, kit.WithValidators(ocsp.NewDirect(engine)))
				sock := trusttest.Connected(leaf, ca.Cert)

				sess := k.Attach(context.Background(), sock)
				select {
				case <-started:
				case <-time.After(5 * time.Second):
					require.FailNow(t, "direct query never started")
				}
				sock.Close(errors.New("connection timeout"))
				close(release)

				assert.ErrorIs(t, wait(t, sess), trust.ErrTransport)
				assert.Equal(t, kit.Failed, sess.State())
				assert.Zero(t, sock.Resumes.Load())
			},
		},
		{
			name: "bounded inflight still validates",
			testFunc: func(t *testing.T) {
				a := &trusttest.Stub{ID: "A", Run: true}
				k := kit.New(&policy.Config{}, kit.WithValidators(a), kit.WithMaxInflight(1))

				for range 3 {
					require.NoError(t, k.Validate(context.Background(), trusttest.Connected()))
				}
				assert.Equal(t, int32(3), a.Calls.Load())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.testFunc)
	}
}

func TestApplyBeforeConnect(t *testing.T) {
	var seen []bool
	first := &trusttest.Stub{ID: "first", Run: true, Mutate: func(o trust.ConnectOptions) trust.ConnectOptions {
		seen = append(seen, o.RequestOCSPStaple)
		o.RequestOCSPStaple = true
		return o
	}}
	inactive := &trusttest.Stub{ID: "inactive", Run: false, Mutate: func(o trust.ConnectOptions) trust.ConnectOptions {
		o.TLSConfig.ServerName = "inactive"
		return o
	}}
	second := &trusttest.Stub{ID: "second", Run: true, Mutate: func(o trust.ConnectOptions) trust.ConnectOptions {
		seen = append(seen, o.RequestOCSPStaple)
		o.TLSConfig.ServerName = "second"
		return o
	}}

	k := kit.New(&policy.Config{}, kit.WithValidators(first, inactive, second))
	base := trust.ConnectOptions{TLSConfig: &tls.Config{ServerName: "example.test"}}

	got := k.ApplyBeforeConnect(base)
	assert.True(t, got.RequestOCSPStaple)
	assert.Equal(t, "second", got.TLSConfig.ServerName)
	assert.Equal(t, []bool{false, true}, seen, "each validator sees the previous output")
	assert.Equal(t, "example.test", base.TLSConfig.ServerName, "input is not modified")
	assert.False(t, base.RequestOCSPStaple)
}

func TestDefaultValidators(t *testing.T) {
	k := kit.New(&policy.Config{OCSP: policy.DefaultMixedOCSPPolicy()})

	var names []string
	for _, v := range k.Validators() {
		names = append(names, v.Name())
	}
	assert.Equal(t, []string{ct.Name, ocsp.StaplingName, ocsp.DirectName, ocsp.MixedName, revocation.Name}, names)

	active := k.Active()
	require.Len(t, active, 1)
	assert.Equal(t, ocsp.MixedName, active[0].Name())
	assert.True(t, k.ApplyBeforeConnect(trust.ConnectOptions{}).RequestOCSPStaple)
}

func TestCTValidatorNeverRunsWithoutPolicy(t *testing.T) {
	spy := trusttest.NewSpy(ct.New())
	other := &trusttest.Stub{ID: "other", Run: true}
	configs := []*policy.Config{
		{},
		{OCSP: policy.DefaultMixedOCSPPolicy()},
		{CRLSet: policy.DefaultCRLSetPolicy()},
	}

	for _, cfg := range configs {
		k := kit.New(cfg, kit.WithValidators(spy, other))
		require.NoError(t, k.Validate(context.Background(), trusttest.Connected()))
	}

	assert.Zero(t, spy.ValidateCalls.Load())
	assert.Equal(t, int32(len(configs)), spy.ShouldRunCalls.Load())
	assert.Equal(t, int32(len(configs)), other.Calls.Load())
}

func TestNoSCTsFailsRegardlessOfOtherPolicies(t *testing.T) {
	ca := pkitest.NewCA(t, "Kit CA")
	leaf := ca.Issue(t, pkitest.LeafOptions{}).Cert
	list := pkitest.LogList(pkitest.Operator("Operator A", pkitest.NewLog(t).Entry("log-a", pkitest.Usable())))

	empty, err := crlset.New(crlset.Header{Sequence: 1}, nil)
	require.NoError(t, err)

	goodDirect := ocsp.WithDirect(func(context.Context, *x509.Certificate, *x509.Certificate) (*xocsp.Response, error) {
		return &xocsp.Response{Status: xocsp.Good}, nil
	})

	configs := map[string]*policy.Config{
		"ct only": {CT: policy.DefaultCTPolicy(list)},
		"ct and ocsp": {
			CT:   policy.DefaultCTPolicy(list),
			OCSP: &policy.OCSPPolicy{Mode: policy.OCSPMixed, FailHard: true},
		},
		"ct ocsp and crlset": {
			CT:     policy.DefaultCTPolicy(list),
			OCSP:   &policy.OCSPPolicy{Mode: policy.OCSPDirect, FailHard: true},
			CRLSet: &policy.CRLSetPolicy{Set: empty},
		},
	}

	for name, cfg := range configs {
		t.Run(name, func(t *testing.T) {
			k := kit.New(cfg, kit.WithOCSPEngine(ocsp.NewEngine(goodDirect)))
			sock := trusttest.Connected(leaf, ca.Cert)

			err := k.Validate(context.Background(), sock)
			assert.ErrorIs(t, err, trust.ErrNoSctsFound)
			assert.EqualError(t, err, "[CTValidator] No SCTs found in the certificate.")
			assert.ErrorIs(t, sock.DestroyedWith(), trust.ErrNoSctsFound)
		})
	}
}

func TestSessionWaitContext(t *testing.T) {
	a := &trusttest.Stub{ID: "A", Run: true, Block: make(chan struct{})}
	k := kit.New(&policy.Config{}, kit.WithValidators(a))
	sess := k.Attach(context.Background(), trusttest.Connected())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, sess.Wait(ctx), context.DeadlineExceeded)
	assert.Equal(t, kit.Validating, sess.State())

	close(a.Block)
	require.NoError(t, wait(t, sess))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "pending", kit.Pending.String())
	assert.Equal(t, "validating", kit.Validating.String())
	assert.Equal(t, "succeeded", kit.Succeeded.String())
	assert.Equal(t, "failed", kit.Failed.String())
}
