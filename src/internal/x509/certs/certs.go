// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/cloudflare/cfssl/helpers"
)

const certBlockType = "CERTIFICATE"

var (
	// ErrInvalidBlockType indicates a PEM block other than CERTIFICATE in a bundle.
	ErrInvalidBlockType = errors.New("x509certs: invalid block type")

	// ErrParseCertificate indicates a failure to parse certificates from the provided data.
	ErrParseCertificate = errors.New("x509certs: failed to parse certificate")

	// ErrEmptyBundle indicates that a CA bundle yielded no certificates.
	ErrEmptyBundle = errors.New("x509certs: CA bundle contains no certificates")
)

// IsPEM reports whether data starts with a PEM block.
func IsPEM(data []byte) bool {
	block, _ := pem.Decode(data)
	return block != nil
}

// DecodeBundle decodes every certificate in a trust bundle. PEM input must
// hold only CERTIFICATE blocks. Binary input is tried as concatenated DER and
// then as PKCS#7 (.p7b) through cfssl.
//
// Returns:
//   - []*x509.Certificate: Certificates in bundle order
//   - error: [ErrInvalidBlockType], [ErrParseCertificate] or [ErrEmptyBundle]
func DecodeBundle(data []byte) ([]*x509.Certificate, error) {
	if IsPEM(data) {
		return decodePEM(data)
	}
	if len(data) == 0 {
		return nil, ErrEmptyBundle
	}

	if certs, err := x509.ParseCertificates(data); err == nil {
		return certs, nil
	}
	certs, _, err := helpers.ParseCertificatesDER(data, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseCertificate, err)
	}
	if len(certs) == 0 {
		return nil, ErrEmptyBundle
	}
	return certs, nil
}

func decodePEM(data []byte) ([]*x509.Certificate, error) {
	var certs []*x509.Certificate
	for {
		block, rest := pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != certBlockType {
			return nil, fmt.Errorf("%w: %q", ErrInvalidBlockType, block.Type)
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParseCertificate, err)
		}
		certs = append(certs, cert)
		data = rest
	}
	if len(certs) == 0 {
		return nil, ErrEmptyBundle
	}
	return certs, nil
}

// EncodePEM encodes certificates as concatenated PEM blocks.
func EncodePEM(certs ...*x509.Certificate) []byte {
	var data []byte
	for _, cert := range certs {
		data = append(data, pem.EncodeToMemory(&pem.Block{Type: certBlockType, Bytes: cert.Raw})...)
	}
	return data
}
