// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package pkitest

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

// StapleFunc builds the OCSP response a [TLSServer] staples.
type StapleFunc func(t testing.TB, ca *CA, leaf *x509.Certificate) []byte

// Staple returns a StapleFunc signing a response with the given status.
func Staple(status int) StapleFunc {
	return func(t testing.TB, ca *CA, leaf *x509.Certificate) []byte {
		return ca.OCSPResponse(t, leaf, status)
	}
}

// TLSServer is a loopback HTTPS server presenting leaf and CA, valid for 127.0.0.1.
type TLSServer struct {
	CA     *CA
	Leaf   *Leaf
	Server *httptest.Server
}

// NewTLSServer starts a server answering "trusted" on every path. A nil
// staple disables stapling.
func NewTLSServer(t testing.TB, staple StapleFunc) *TLSServer {
	t.Helper()

	ca := NewCA(t, "Loopback Test CA")
	leaf := ca.Issue(t, LeafOptions{IPs: []string{"127.0.0.1"}})

	cert := tls.Certificate{
		Certificate: [][]byte{leaf.Cert.Raw, ca.Cert.Raw},
		PrivateKey:  leaf.Key,
		Leaf:        leaf.Cert,
	}
	if staple != nil {
		cert.OCSPStaple = staple(t, ca, leaf.Cert)
	}

	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "trusted")
	}))
	srv.TLS = &tls.Config{Certificates: []tls.Certificate{cert}}
	srv.StartTLS()
	t.Cleanup(srv.Close)

	return &TLSServer{CA: ca, Leaf: leaf, Server: srv}
}

// Addr returns host:port.
func (s *TLSServer) Addr() string { return s.Server.Listener.Addr().String() }

// Port returns the listening port.
func (s *TLSServer) Port(t testing.TB) int {
	t.Helper()
	_, port, err := net.SplitHostPort(s.Addr())
	require.NoError(t, err)
	n, err := strconv.Atoi(port)
	require.NoError(t, err)
	return n
}

// Pool returns a pool trusting only the server's CA.
func (s *TLSServer) Pool() *x509.CertPool {
	pool := x509.NewCertPool()
	pool.AddCert(s.CA.Cert)
	return pool
}

// WriteCABundle writes the CA as PEM into a temp dir and returns the path.
func (s *TLSServer) WriteCABundle(t testing.TB) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ca.pem")
	data := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: s.CA.Cert.Raw})
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}
