// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package crlset

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jmhodges/clock"

	"github.com/H0llyW00dzZ/tls-trust-validator/src/internal/helper/gc"
	x509chain "github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/chain"
)

var (
	// ErrNoVerifyKey indicates signature verification was requested without a key.
	ErrNoVerifyKey = errors.New("crlset: signature verification requested but no key configured")

	// ErrBadSignature indicates the detached signature does not match the set.
	ErrBadSignature = errors.New("crlset: signature verification failed")
)

// maxSetSize bounds downloads; published sets are well under this.
const maxSetSize = 32 << 20

// UpdateStrategy controls when a loader refreshes its set.
type UpdateStrategy int

const (
	// UpdateAlways fetches a fresh set on every load.
	UpdateAlways UpdateStrategy = iota
	// UpdateOnExpiry reuses the last set until it expires.
	UpdateOnExpiry
)

func (u UpdateStrategy) String() string {
	if u == UpdateOnExpiry {
		return "on-expiry"
	}
	return "always"
}

// ParseUpdateStrategy accepts "always" (or empty) and "on-expiry".
func ParseUpdateStrategy(s string) (UpdateStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "always":
		return UpdateAlways, nil
	case "on-expiry", "onexpiry", "on_expiry":
		return UpdateOnExpiry, nil
	}
	return UpdateAlways, fmt.Errorf("crlset: unknown update strategy %q", s)
}

// LoadOptions are passed on each load.
type LoadOptions struct {
	VerifySignature bool
	UpdateStrategy  UpdateStrategy
}

// Loader obtains the latest revocation set.
type Loader interface {
	LoadLatest(ctx context.Context, opts LoadOptions) (*Set, error)
}

// HTTPLoader downloads a CRLSet and its optional detached signature.
//
// The signature file holds a raw signature over the set bytes: ASN.1 ECDSA or
// PKCS#1 v1.5 RSA over SHA-256, or plain Ed25519.
type HTTPLoader struct {
	URL          string
	SignatureURL string           // defaults to URL + ".sig"
	VerifyKey    crypto.PublicKey // required when VerifySignature is set
	HTTP         *x509chain.HTTPConfig
	// MaxAge bounds reuse of sets without NotAfter under UpdateOnExpiry.
	MaxAge time.Duration
	Clock  clock.Clock

	mu       sync.Mutex
	cached   *Set
	cachedAt time.Time
}

// NewHTTPLoader creates a loader for url with a one day MaxAge.
func NewHTTPLoader(url string, key crypto.PublicKey, cfg *x509chain.HTTPConfig) *HTTPLoader {
	return &HTTPLoader{
		URL:       url,
		VerifyKey: key,
		HTTP:      cfg,
		MaxAge:    24 * time.Hour,
	}
}

func (l *HTTPLoader) clock() clock.Clock {
	if l.Clock == nil {
		return clock.New()
	}
	return l.Clock
}

// LoadLatest implements [Loader].
//
// Thread Safety: Safe for concurrent use; concurrent loads are serialized.
func (l *HTTPLoader) LoadLatest(ctx context.Context, opts LoadOptions) (*Set, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock().Now()
	if opts.UpdateStrategy == UpdateOnExpiry && l.fresh(now) {
		return l.cached, nil
	}

	data, err := l.get(ctx, l.URL)
	if err != nil {
		return nil, err
	}

	if opts.VerifySignature {
		if l.VerifyKey == nil {
			return nil, ErrNoVerifyKey
		}
		sigURL := l.SignatureURL
		if sigURL == "" {
			sigURL = l.URL + ".sig"
		}
		sig, err := l.get(ctx, sigURL)
		if err != nil {
			return nil, fmt.Errorf("crlset: fetch signature: %w", err)
		}
		if err := VerifySignature(l.VerifyKey, data, sig); err != nil {
			return nil, err
		}
	}

	set, err := Parse(data)
	if err != nil {
		return nil, err
	}

	l.cached = set
	l.cachedAt = now
	return set, nil
}

func (l *HTTPLoader) fresh(now time.Time) bool {
	if l.cached == nil || l.cached.Expired(now) {
		return false
	}
	if l.cached.Header().NotAfter != 0 {
		return true
	}
	return l.MaxAge <= 0 || now.Sub(l.cachedAt) < l.MaxAge
}

func (l *HTTPLoader) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("crlset: build request: %w", err)
	}
	req.Header.Set("User-Agent", l.HTTP.GetUserAgent())

	resp, err := l.HTTP.Client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("crlset: download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("crlset: %s returned status %d", url, resp.StatusCode)
	}

	return gc.ReadAll(resp.Body, maxSetSize)
}

// VerifySignature checks a detached signature over data.
func VerifySignature(key crypto.PublicKey, data, sig []byte) error {
	digest := sha256.Sum256(data)

	ok := false
	switch k := key.(type) {
	case *ecdsa.PublicKey:
		ok = ecdsa.VerifyASN1(k, digest[:], sig)
	case *rsa.PublicKey:
		ok = rsa.VerifyPKCS1v15(k, crypto.SHA256, digest[:], sig) == nil
	case ed25519.PublicKey:
		ok = ed25519.Verify(k, data, sig)
	default:
		return fmt.Errorf("crlset: unsupported verification key %T", key)
	}

	if !ok {
		return ErrBadSignature
	}
	return nil
}

// ParseFile reads and parses a CRLSet from disk.
func ParseFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}
