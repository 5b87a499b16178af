// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package sct

import (
	"encoding/asn1"
	"errors"
	"fmt"

	ct "github.com/google/certificate-transparency-go"
	cttls "github.com/google/certificate-transparency-go/tls"
	ctx509 "github.com/google/certificate-transparency-go/x509"
)

var (
	// ErrNoSCTList indicates the certificate has no usable SCT list extension.
	ErrNoSCTList = errors.New("sct: no SCT list extension")

	// ErrMalformedList indicates the SCT list framing could not be decoded.
	ErrMalformedList = errors.New("sct: malformed SCT list")

	// ErrMissingIssuer indicates precert reconstruction was attempted without an issuer.
	ErrMissingIssuer = errors.New("sct: issuer certificate required")
)

// ParseCertificate parses DER with the CT-aware x509 parser. Non-fatal parse
// errors, which the parser reports for many real-world quirks, are ignored.
func ParseCertificate(der []byte) (*ctx509.Certificate, error) {
	cert, err := ctx509.ParseCertificate(der)
	if ctx509.IsFatal(err) {
		return nil, err
	}
	if cert == nil {
		return nil, fmt.Errorf("sct: certificate parse returned no certificate")
	}
	return cert, nil
}

// Extract returns the raw TLS-encoded SCT records embedded in cert.
//
// Returns:
//   - [][]byte: One entry per SCT record, in list order
//   - error: [ErrNoSCTList] when the extension is absent or not an OCTET STRING,
//     [ErrMalformedList] when the list framing is invalid
func Extract(cert *ctx509.Certificate) ([][]byte, error) {
	var value []byte
	found := false
	for _, ext := range cert.Extensions {
		if ext.Id.Equal(ctx509.OIDExtensionCTSCT) {
			value = ext.Value
			found = true
			break
		}
	}
	if !found {
		return nil, ErrNoSCTList
	}

	var payload []byte
	rest, err := asn1.Unmarshal(value, &payload)
	if err != nil || len(rest) > 0 {
		return nil, ErrNoSCTList
	}

	var list ctx509.SignedCertificateTimestampList
	rest, err = cttls.Unmarshal(payload, &list)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedList, err)
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformedList, len(rest))
	}

	out := make([][]byte, 0, len(list.SCTList))
	for _, s := range list.SCTList {
		out = append(out, s.Val)
	}
	return out, nil
}

// ReconstructPrecert rebuilds the pre-certificate log entry that embedded SCTs in
// leaf were signed over: the leaf TBS with the SCT list removed, bound to the
// issuer key hash.
func ReconstructPrecert(leaf *ctx509.Certificate, issuerDER []byte) (*ct.LogEntry, error) {
	if len(issuerDER) == 0 {
		return nil, ErrMissingIssuer
	}
	issuer, err := ParseCertificate(issuerDER)
	if err != nil {
		return nil, fmt.Errorf("sct: parse issuer: %w", err)
	}

	leafEntry, err := ct.MerkleTreeLeafForEmbeddedSCT([]*ctx509.Certificate{leaf, issuer}, 0)
	if err != nil {
		return nil, fmt.Errorf("sct: reconstruct precertificate: %w", err)
	}

	return &ct.LogEntry{Leaf: *leafEntry}, nil
}

// Decode parses one TLS-encoded SCT record.
func Decode(raw []byte) (*ct.SignedCertificateTimestamp, error) {
	var s ct.SignedCertificateTimestamp
	rest, err := cttls.Unmarshal(raw, &s)
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("sct: %d trailing bytes after SCT", len(rest))
	}
	return &s, nil
}
