// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"crypto/tls"
	"crypto/x509"
)

// FromConnectionState builds the chain seen on a TLS connection: the presented
// certificates followed by anything the verifier added, usually the trust anchor
// that servers omit. A leaf issued directly by a root therefore still has its
// issuer available.
func FromConnectionState(cs tls.ConnectionState) *Chain {
	return Merge(cs.PeerCertificates, cs.VerifiedChains)
}

// Merge returns a chain made of presented followed by any certificates from
// verified that are not already present.
func Merge(presented []*x509.Certificate, verified [][]*x509.Certificate) *Chain {
	ch := New(presented)
	for _, chain := range verified {
		for _, cert := range chain {
			if !containsCert(ch.Certs, cert) {
				ch.Certs = append(ch.Certs, cert)
			}
		}
	}
	return ch
}

func containsCert(certs []*x509.Certificate, cert *x509.Certificate) bool {
	for _, c := range certs {
		if c.Equal(cert) {
			return true
		}
	}
	return false
}
