// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"fmt"
	"strings"
	"time"

	x509certs "github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/certs"
)

// CertSummary is the report view of one certificate in the chain.
type CertSummary struct {
	Index     int       `json:"index"`
	Role      string    `json:"role"`
	Subject   string    `json:"subject"`
	Issuer    string    `json:"issuer"`
	Serial    string    `json:"serial"`
	SPKIHash  string    `json:"spkiSha256"`
	KeyType   string    `json:"keyType"`
	NotBefore time.Time `json:"notBefore"`
	NotAfter  time.Time `json:"notAfter"`
	IsCA      bool      `json:"isCA"`
}

// Summaries describes every certificate in the chain, leaf first.
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) Summaries() []CertSummary {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	out := make([]CertSummary, 0, len(ch.Certs))
	for i, cert := range ch.Certs {
		out = append(out, CertSummary{
			Index:     i,
			Role:      ch.getCertificateRole(i),
			Subject:   cert.Subject.CommonName,
			Issuer:    cert.Issuer.CommonName,
			Serial:    x509certs.SerialHex(cert),
			SPKIHash:  x509certs.SPKIHash(cert),
			KeyType:   keyType(cert),
			NotBefore: cert.NotBefore,
			NotAfter:  cert.NotAfter,
			IsCA:      cert.IsCA,
		})
	}
	return out
}

// RenderASCIITree renders the chain as an ASCII tree, one certificate per line.
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) RenderASCIITree() string {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	if len(ch.Certs) == 0 {
		return "No certificates in chain"
	}

	var result strings.Builder
	for i, cert := range ch.Certs {
		connector := "├── "
		if i == len(ch.Certs)-1 {
			connector = "└── "
		}
		result.WriteString(strings.Repeat("    ", i))
		result.WriteString(connector)
		result.WriteString(fmt.Sprintf("%s (%s)\n", cert.Subject.CommonName, ch.getCertificateRole(i)))
	}

	return result.String()
}

func keyType(cert *x509.Certificate) string {
	switch k := cert.PublicKey.(type) {
	case *rsa.PublicKey:
		return fmt.Sprintf("%d-bit RSA", k.Size()*8)
	case *ecdsa.PublicKey:
		return fmt.Sprintf("%d-bit ECDSA", k.Curve.Params().BitSize)
	case ed25519.PublicKey:
		return "Ed25519"
	default:
		return "unknown"
	}
}

// getCertificateRole describes the certificate's position in the chain.
func (ch *Chain) getCertificateRole(index int) string {
	total := len(ch.Certs)
	switch {
	case total == 1 && ch.IsSelfSigned(ch.Certs[0]):
		return "Self-Signed Certificate"
	case index == 0:
		return "End-Entity (Server/Leaf) Certificate"
	case index == total-1 && ch.IsRootNode(ch.Certs[index]):
		return "Root CA Certificate"
	default:
		return "Intermediate CA Certificate"
	}
}
