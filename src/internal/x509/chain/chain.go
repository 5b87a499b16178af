// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"bytes"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

var (
	// ErrEmptyChain indicates the peer presented no certificates.
	ErrEmptyChain = errors.New("x509chain: no peer certificates")

	// ErrMissingIssuer indicates the chain does not contain the leaf's issuer.
	ErrMissingIssuer = errors.New("x509chain: could not find issuer certificate in the chain")
)

// HTTPConfig holds HTTP client configuration for responder and revocation set downloads.
type HTTPConfig struct {
	Timeout   time.Duration // HTTP request timeout
	Version   string        // Application version for User-Agent
	UserAgent string        // Custom User-Agent string, if empty will be constructed from Version

	mu     sync.Mutex
	client *http.Client
}

// NewHTTPConfig creates a new HTTP configuration with a default timeout of 10 seconds.
//
// Parameters:
//   - version: Application version string
//
// Returns:
//   - *HTTPConfig: New HTTP configuration
func NewHTTPConfig(version string) *HTTPConfig {
	return &HTTPConfig{
		Timeout: 10 * time.Second,
		Version: version,
	}
}

// GetUserAgent returns the User-Agent string, constructing it if not set.
func (c *HTTPConfig) GetUserAgent() string {
	if c.UserAgent != "" {
		return c.UserAgent
	}
	return fmt.Sprintf("TLS-Trust-Validator/%s (+https://github.com/H0llyW00dzZ/tls-trust-validator)", c.Version)
}

// Client returns an HTTP client configured with the current timeout.
//
// Thread Safety: Safe for concurrent use.
func (c *HTTPConfig) Client() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		c.client = &http.Client{Timeout: c.Timeout}
		return c.client
	}

	if c.client.Timeout != c.Timeout {
		c.client.Timeout = c.Timeout
	}

	return c.client
}

// SetClient replaces the underlying client, e.g. with one from httptest.
func (c *HTTPConfig) SetClient(client *http.Client) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.client = client
	if client != nil {
		c.Timeout = client.Timeout
	}
}

// Chain is the certificate chain presented by (or verified for) a TLS peer,
// leaf first.
//
// [X.509]: https://grokipedia.com/page/X.509
type Chain struct {
	mu    sync.RWMutex
	Certs []*x509.Certificate
}

// New creates a Chain over certs. The slice is copied.
func New(certs []*x509.Certificate) *Chain {
	return &Chain{
		Certs: append([]*x509.Certificate(nil), certs...),
	}
}

// Leaf returns the end-entity certificate, or nil for an empty chain.
func (ch *Chain) Leaf() *x509.Certificate {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	if len(ch.Certs) == 0 {
		return nil
	}
	return ch.Certs[0]
}

// LeafAndIssuer returns the leaf and the certificate in the chain that issued it.
//
// Returns:
//   - *x509.Certificate: Leaf certificate
//   - *x509.Certificate: Issuer certificate
//   - error: [ErrEmptyChain] or [ErrMissingIssuer]
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) LeafAndIssuer() (*x509.Certificate, *x509.Certificate, error) {
	leaf := ch.Leaf()
	if leaf == nil {
		return nil, nil, ErrEmptyChain
	}

	issuer := ch.findIssuerForCertificate(leaf)
	if issuer == nil {
		return leaf, nil, ErrMissingIssuer
	}
	return leaf, issuer, nil
}

// IsSelfSigned checks if a certificate is self-signed.
func (ch *Chain) IsSelfSigned(cert *x509.Certificate) bool {
	return bytes.Equal(cert.RawSubject, cert.RawIssuer) && cert.CheckSignatureFrom(cert) == nil
}

// IsRootNode determines if a certificate is a root node in the chain.
func (ch *Chain) IsRootNode(cert *x509.Certificate) bool {
	return ch.IsSelfSigned(cert)
}

// findIssuerForCertificate finds the certificate that issued cert in the chain,
// matching on subject name first and then on signature.
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) findIssuerForCertificate(cert *x509.Certificate) *x509.Certificate {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	for _, potentialIssuer := range ch.Certs {
		if potentialIssuer == cert || potentialIssuer.Equal(cert) {
			continue
		}
		if !bytes.Equal(potentialIssuer.RawSubject, cert.RawIssuer) {
			continue
		}
		if err := cert.CheckSignatureFrom(potentialIssuer); err == nil {
			return potentialIssuer
		}
	}
	return nil
}
