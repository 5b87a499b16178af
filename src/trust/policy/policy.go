// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package policy

import (
	"fmt"
	"strings"

	"github.com/google/certificate-transparency-go/loglist3"

	"github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/crlset"
)

// Config selects the trust checks run on each connection. A nil sub-policy
// disables the matching validator. Config must not be modified once handed to
// an orchestrator.
type Config struct {
	CT     *CTPolicy
	OCSP   *OCSPPolicy
	CRLSet *CRLSetPolicy
}

// CTPolicy configures Certificate Transparency compliance.
type CTPolicy struct {
	// LogList is the source of trusted logs. It is never modified.
	LogList *loglist3.LogList
	// MinEmbeddedSCTs is the minimum number of valid SCTs; zero disables the check.
	MinEmbeddedSCTs uint
	// MinDistinctOperators is the minimum number of distinct log operators
	// among valid SCTs; zero disables the check.
	MinDistinctOperators uint
}

// OCSPMode selects how revocation status is obtained over OCSP.
type OCSPMode int

const (
	// OCSPStapling requires a stapled response from the server.
	OCSPStapling OCSPMode = iota
	// OCSPDirect queries the certificate's OCSP responder.
	OCSPDirect
	// OCSPMixed prefers a staple and falls back to a direct query.
	OCSPMixed
)

func (m OCSPMode) String() string {
	switch m {
	case OCSPStapling:
		return "stapling"
	case OCSPDirect:
		return "direct"
	case OCSPMixed:
		return "mixed"
	default:
		return fmt.Sprintf("OCSPMode(%d)", int(m))
	}
}

// ParseOCSPMode accepts "stapling", "direct" and "mixed".
func ParseOCSPMode(s string) (OCSPMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stapling":
		return OCSPStapling, nil
	case "direct":
		return OCSPDirect, nil
	case "mixed":
		return OCSPMixed, nil
	}
	return OCSPMixed, fmt.Errorf("policy: unknown OCSP mode %q", s)
}

// OCSPPolicy configures OCSP revocation checking.
type OCSPPolicy struct {
	Mode OCSPMode
	// FailHard turns non-revocation OCSP errors into connection failures.
	// A revoked status always fails regardless of this flag.
	FailHard bool
}

// CRLSetPolicy configures CRLSet revocation checking.
type CRLSetPolicy struct {
	// Set is used verbatim when present; otherwise the validator loads one.
	Set             crlset.Checker
	VerifySignature bool
	UpdateStrategy  crlset.UpdateStrategy
}

// DefaultCTPolicy requires two valid SCTs from two distinct operators.
func DefaultCTPolicy(list *loglist3.LogList) *CTPolicy {
	return &CTPolicy{
		LogList:              list,
		MinEmbeddedSCTs:      2,
		MinDistinctOperators: 2,
	}
}

// DefaultStaplingOCSPPolicy requires a good stapled response.
func DefaultStaplingOCSPPolicy() *OCSPPolicy {
	return &OCSPPolicy{Mode: OCSPStapling, FailHard: true}
}

// DefaultDirectOCSPPolicy requires a good response from the responder.
func DefaultDirectOCSPPolicy() *OCSPPolicy {
	return &OCSPPolicy{Mode: OCSPDirect, FailHard: true}
}

// DefaultMixedOCSPPolicy prefers a staple and falls back to the responder.
func DefaultMixedOCSPPolicy() *OCSPPolicy {
	return &OCSPPolicy{Mode: OCSPMixed, FailHard: true}
}

// DefaultCRLSetPolicy loads a verified set on every check.
func DefaultCRLSetPolicy() *CRLSetPolicy {
	return &CRLSetPolicy{
		VerifySignature: true,
		UpdateStrategy:  crlset.UpdateAlways,
	}
}

// Enabled lists the names of the enabled sub-policies, for reporting.
func (c *Config) Enabled() []string {
	if c == nil {
		return nil
	}
	var out []string
	if c.CT != nil {
		out = append(out, "ct")
	}
	if c.OCSP != nil {
		out = append(out, "ocsp-"+c.OCSP.Mode.String())
	}
	if c.CRLSet != nil {
		out = append(out, "crlset")
	}
	return out
}
