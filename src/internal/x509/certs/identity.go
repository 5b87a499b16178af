// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/cloudflare/cfssl/helpers"
)

// SPKIHash returns the lowercase hex SHA-256 of the certificate's
// SubjectPublicKeyInfo, the key CRLSets index issuers by.
func SPKIHash(cert *x509.Certificate) string {
	sum := sha256.Sum256(cert.RawSubjectPublicKeyInfo)
	return hex.EncodeToString(sum[:])
}

// SerialHex returns the lowercase hex encoding of the certificate serial number
// without leading zero bytes.
func SerialHex(cert *x509.Certificate) string {
	if cert.SerialNumber == nil {
		return ""
	}
	return hex.EncodeToString(cert.SerialNumber.Bytes())
}

// PoolFromPEM builds a certificate pool from a PEM bundle using cfssl helpers.
//
// Returns:
//   - *x509.CertPool: Pool holding every certificate in the bundle
//   - error: [ErrEmptyBundle] for empty input, or the parse error
func PoolFromPEM(bundle []byte) (*x509.CertPool, error) {
	if len(bundle) == 0 {
		return nil, ErrEmptyBundle
	}
	pool, err := helpers.PEMToCertPool(bundle)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, ErrEmptyBundle
	}
	return pool, nil
}

// LoadPool reads the dialer's trust anchors from disk. PEM bundles go through
// [PoolFromPEM]; DER and PKCS#7 files through [DecodeBundle].
func LoadPool(path string) (*x509.CertPool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if IsPEM(data) {
		return PoolFromPEM(data)
	}

	certs, err := DecodeBundle(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	pool := x509.NewCertPool()
	for _, cert := range certs {
		pool.AddCert(cert)
	}
	return pool, nil
}
