// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"bytes"
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/crypto/ocsp"

	"github.com/H0llyW00dzZ/tls-trust-validator/src/internal/helper/gc"
)

// ErrNoOCSPServer indicates the leaf certificate lists no OCSP responder.
var ErrNoOCSPServer = errors.New("x509chain: certificate has no OCSP responder URL")

// maxOCSPResponseSize bounds responder bodies; real responses are a few KiB.
const maxOCSPResponseSize = 1 << 20

// OCSPClient queries OCSP responders over HTTP (RFC 6960 POST binding).
type OCSPClient struct {
	HTTP *HTTPConfig
}

// NewOCSPClient creates a client using cfg for timeouts and User-Agent.
func NewOCSPClient(cfg *HTTPConfig) *OCSPClient {
	return &OCSPClient{HTTP: cfg}
}

// Fetch asks the leaf's responders, in order, for its status and returns the
// first raw response received. The response is not parsed or verified.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - leaf: Certificate whose status is requested
//   - issuer: Issuer of leaf, needed to build the CertID
//
// Returns:
//   - []byte: DER encoded OCSP response
//   - error: [ErrNoOCSPServer], request building or the last transport error
//
// Thread Safety: Safe for concurrent use.
func (c *OCSPClient) Fetch(ctx context.Context, leaf, issuer *x509.Certificate) ([]byte, error) {
	if len(leaf.OCSPServer) == 0 {
		return nil, ErrNoOCSPServer
	}

	reqData, err := ocsp.CreateRequest(leaf, issuer, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create OCSP request: %w", err)
	}

	var lastErr error
	for _, url := range leaf.OCSPServer {
		data, err := c.post(ctx, url, reqData)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (c *OCSPClient) post(ctx context.Context, url string, reqData []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqData))
	if err != nil {
		return nil, fmt.Errorf("failed to create OCSP HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/ocsp-request")
	req.Header.Set("Accept", "application/ocsp-response")
	req.Header.Set("User-Agent", c.HTTP.GetUserAgent())

	resp, err := c.HTTP.Client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("OCSP request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OCSP server %s returned status %d", url, resp.StatusCode)
	}

	data, err := gc.ReadAll(resp.Body, maxOCSPResponseSize)
	if err != nil {
		return nil, fmt.Errorf("failed to read OCSP response: %w", err)
	}
	return data, nil
}
