// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/H0llyW00dzZ/tls-trust-validator/src/logger"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/trust"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/trust/kit"
)

// ErrNoCABundle indicates a dialer was configured without trust anchors.
var ErrNoCABundle = errors.New("transport: a CA bundle is required (set TLSConfig.RootCAs or UseSystemRoots)")

// Dialer establishes TLS connections that must pass the kit's trust checks
// before they are returned.
type Dialer struct {
	Kit       *kit.Kit
	TLSConfig *tls.Config
	NetDialer *net.Dialer
	// UseSystemRoots allows a nil TLSConfig.RootCAs.
	UseSystemRoots bool
	Log            *logger.Scoped
}

// NewDialer checks the configuration and returns a dialer.
func NewDialer(k *kit.Kit, cfg *tls.Config, useSystemRoots bool) (*Dialer, error) {
	if !useSystemRoots && (cfg == nil || cfg.RootCAs == nil) {
		return nil, ErrNoCABundle
	}
	return &Dialer{
		Kit:            k,
		TLSConfig:      cfg,
		NetDialer:      &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second},
		UseSystemRoots: useSystemRoots,
	}, nil
}

// DialContext connects to addr, completes the TLS handshake and waits for
// the trust checks. The returned connection is a [*Conn].
//
// Parameters:
//   - ctx: Bounds the dial, the handshake and validation
//   - network: "tcp", "tcp4" or "tcp6"
//   - addr: host:port of the peer
//
// Returns:
//   - net.Conn: A validated connection with reads enabled
//   - error: Dial, handshake or validation failure; the connection is closed
func (d *Dialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	conn, _, err := d.Dial(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Dial is DialContext returning the validation session as well. The session
// is non-nil once the TCP connection was established, so callers can report
// per-validator results for rejected peers too.
func (d *Dialer) Dial(ctx context.Context, network, addr string) (*Conn, *kit.Session, error) {
	if !d.UseSystemRoots && (d.TLSConfig == nil || d.TLSConfig.RootCAs == nil) {
		return nil, nil, ErrNoCABundle
	}

	opts := d.Kit.ApplyBeforeConnect(trust.ConnectOptions{TLSConfig: d.TLSConfig})
	cfg := opts.TLSConfig
	if cfg == nil {
		cfg = &tls.Config{}
	}
	if cfg.ServerName == "" {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, nil, fmt.Errorf("transport: invalid address %q: %w", addr, err)
		}
		cfg.ServerName = host
	}

	conn := newConn()

	// crypto/tls always sends status_request, so RequestOCSPStaple needs no
	// handshake change; the staple is picked up once the chain is verified.
	next := cfg.VerifyConnection
	cfg.VerifyConnection = func(cs tls.ConnectionState) error {
		if next != nil {
			if err := next(cs); err != nil {
				return err
			}
		}
		if opts.RequestOCSPStaple && len(cs.OCSPResponse) > 0 {
			conn.deliverStaple(cs.OCSPResponse)
		}
		return nil
	}

	nd := d.NetDialer
	if nd == nil {
		nd = &net.Dialer{}
	}
	raw, err := nd.DialContext(ctx, network, addr)
	if err != nil {
		return nil, nil, err
	}

	conn.Conn = tls.Client(raw, cfg)
	conn.onClose = func() { d.Kit.Release(conn) }

	sess := d.Kit.Attach(ctx, conn)

	if err := conn.HandshakeContext(ctx); err != nil {
		conn.Destroy(err)
		return nil, sess, err
	}
	conn.completeHandshake()

	if err := sess.Wait(ctx); err != nil {
		conn.Destroy(err)
		d.Log.Debugf("Rejected %s: %v", addr, err)
		return nil, sess, err
	}
	return conn, sess, nil
}

// NewHTTPClient returns an HTTP client whose HTTPS connections go through d.
func NewHTTPClient(d *Dialer, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: NewTransport(d),
	}
}

// NewTransport returns an http.Transport dialing HTTPS through d.
func NewTransport(d *Dialer) *http.Transport {
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialTLSContext:        d.DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
