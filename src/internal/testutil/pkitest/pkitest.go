// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package pkitest builds throwaway PKI material for tests: CAs, leaf certificates
// with embedded SCTs, CT logs with signing keys, and signed OCSP responses.
package pkitest

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"math/big"
	"testing"
	"time"

	ct "github.com/google/certificate-transparency-go"
	"github.com/google/certificate-transparency-go/loglist3"
	cttls "github.com/google/certificate-transparency-go/tls"
	ctx509 "github.com/google/certificate-transparency-go/x509"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ocsp"
)

// SCTListOID identifies the embedded SCT list extension.
var SCTListOID = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 11129, 2, 4, 2}

// CA is a self-signed issuing authority.
type CA struct {
	Cert *x509.Certificate
	Key  *ecdsa.PrivateKey
}

// NewCA creates a self-signed ECDSA P-256 CA.
func NewCA(t testing.TB, cn string) *CA {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: cn},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	return &CA{Cert: cert, Key: key}
}

// LeafOptions tune the issued leaf certificate.
type LeafOptions struct {
	DNSNames   []string
	IPs        []string
	Serial     *big.Int
	OCSPServer []string
	// SCTs to embed. Each entry is a log signing at Timestamp.
	SCTs []SCTSpec
}

// SCTSpec describes one embedded SCT.
type SCTSpec struct {
	Log       *Log
	Timestamp uint64
	// Corrupt flips a byte of the signature after signing.
	Corrupt bool
}

// Leaf is an issued end-entity certificate with its key.
type Leaf struct {
	Cert *x509.Certificate
	Key  *ecdsa.PrivateKey
}

// Issue signs a leaf certificate. When opts.SCTs is non-empty the SCTs are
// computed over the reconstructed precertificate and embedded in the final cert.
func (ca *CA) Issue(t testing.TB, opts LeafOptions) *Leaf {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	serial := opts.Serial
	if serial == nil {
		serial, err = rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 100))
		require.NoError(t, err)
	}

	names := opts.DNSNames
	if len(names) == 0 && len(opts.IPs) == 0 {
		names = []string{"trust.test"}
	}

	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: "leaf"},
		DNSNames:     names,
		NotBefore:    ca.Cert.NotBefore,
		NotAfter:     ca.Cert.NotAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		OCSPServer:   opts.OCSPServer,
	}
	for _, ip := range opts.IPs {
		tmpl.IPAddresses = append(tmpl.IPAddresses, parseIP(t, ip))
	}

	if len(opts.SCTs) > 0 {
		// Placeholder list so the precert TBS matches the final TBS after removal.
		dummy := SCTListExtension(t, [][]byte{{0x00}})
		tmpl.ExtraExtensions = []pkix.Extension{dummy}
		der, err := x509.CreateCertificate(rand.Reader, tmpl, ca.Cert, &key.PublicKey, ca.Key)
		require.NoError(t, err)

		entry := precertEntry(t, der, ca.Cert.Raw)
		var raws [][]byte
		for _, want := range opts.SCTs {
			raws = append(raws, want.Log.Sign(t, entry, want.Timestamp, want.Corrupt))
		}
		tmpl.ExtraExtensions = []pkix.Extension{SCTListExtension(t, raws)}
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, ca.Cert, &key.PublicKey, ca.Key)
	require.NoError(t, err)

	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	return &Leaf{Cert: cert, Key: key}
}

func precertEntry(t testing.TB, leafDER, issuerDER []byte) ct.LogEntry {
	t.Helper()

	leaf, err := ctx509.ParseCertificate(leafDER)
	if ctx509.IsFatal(err) {
		require.NoError(t, err)
	}
	issuer, err := ctx509.ParseCertificate(issuerDER)
	if ctx509.IsFatal(err) {
		require.NoError(t, err)
	}

	mtl, err := ct.MerkleTreeLeafForEmbeddedSCT([]*ctx509.Certificate{leaf, issuer}, 0)
	require.NoError(t, err)

	return ct.LogEntry{Leaf: *mtl}
}

// SCTListExtension encodes raw SCTs the way issuers embed them.
func SCTListExtension(t testing.TB, raws [][]byte) pkix.Extension {
	t.Helper()
	list := ctx509.SignedCertificateTimestampList{}
	for _, raw := range raws {
		list.SCTList = append(list.SCTList, ctx509.SerializedSCT{Val: raw})
	}
	listBytes, err := cttls.Marshal(list)
	require.NoError(t, err)

	extBytes, err := asn1.Marshal(listBytes)
	require.NoError(t, err)

	return pkix.Extension{Id: SCTListOID, Value: extBytes}
}

// Log is a CT log identity able to sign SCTs.
type Log struct {
	Key       *ecdsa.PrivateKey
	PublicDER []byte
	ID        [32]byte
}

// NewLog generates a log key and derives its log ID.
func NewLog(t testing.TB) *Log {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	return &Log{Key: key, PublicDER: pub, ID: sha256.Sum256(pub)}
}

// Sign produces a TLS-encoded SCT over entry.
func (l *Log) Sign(t testing.TB, entry ct.LogEntry, timestamp uint64, corrupt bool) []byte {
	t.Helper()

	sct := ct.SignedCertificateTimestamp{
		SCTVersion: ct.V1,
		LogID:      ct.LogID{KeyID: l.ID},
		Timestamp:  timestamp,
	}
	input, err := ct.SerializeSCTSignatureInput(sct, entry)
	require.NoError(t, err)

	digest := sha256.Sum256(input)
	sig, err := ecdsa.SignASN1(rand.Reader, l.Key, digest[:])
	require.NoError(t, err)
	if corrupt {
		sig[len(sig)-1] ^= 0xff
	}

	sct.Signature = ct.DigitallySigned{
		Algorithm: cttls.SignatureAndHashAlgorithm{
			Hash:      cttls.SHA256,
			Signature: cttls.ECDSA,
		},
		Signature: sig,
	}

	raw, err := cttls.Marshal(sct)
	require.NoError(t, err)
	return raw
}

// Entry describes the log in log list form with the given state.
func (l *Log) Entry(description string, state *loglist3.LogStates) *loglist3.Log {
	return &loglist3.Log{
		Description: description,
		LogID:       l.ID[:],
		Key:         l.PublicDER,
		URL:         "https://ct.example/" + description + "/",
		MMD:         86400,
		State:       state,
	}
}

// Usable returns a log state marked usable since a day ago.
func Usable() *loglist3.LogStates {
	return &loglist3.LogStates{Usable: &loglist3.LogState{Timestamp: time.Now().Add(-24 * time.Hour)}}
}

// Retired returns a log state retired at the given time.
func Retired(at time.Time) *loglist3.LogStates {
	return &loglist3.LogStates{Retired: &loglist3.LogState{Timestamp: at}}
}

// Pending returns a log state that is not eligible for trust.
func Pending() *loglist3.LogStates {
	return &loglist3.LogStates{Pending: &loglist3.LogState{Timestamp: time.Now().Add(-24 * time.Hour)}}
}

// Operator groups logs under one operator name.
func Operator(name string, logs ...*loglist3.Log) *loglist3.Operator {
	return &loglist3.Operator{Name: name, Email: []string{"ct@" + name + ".example"}, Logs: logs}
}

// LogList assembles operators into a log list.
func LogList(ops ...*loglist3.Operator) *loglist3.LogList {
	return &loglist3.LogList{Version: "3.0", Operators: ops}
}

// Now returns the current time as a CT timestamp in milliseconds.
func Now() uint64 { return uint64(time.Now().UnixMilli()) }

// OCSPResponse signs a response for leaf directly with the CA key. It is
// valid from a minute ago for an hour.
func (ca *CA) OCSPResponse(t testing.TB, leaf *x509.Certificate, status int) []byte {
	t.Helper()
	now := time.Now()
	return ca.OCSPResponseWindow(t, leaf, status, now.Add(-time.Minute), now.Add(time.Hour))
}

// OCSPResponseWindow is like OCSPResponse with an explicit validity window.
func (ca *CA) OCSPResponseWindow(t testing.TB, leaf *x509.Certificate, status int, thisUpdate, nextUpdate time.Time) []byte {
	t.Helper()

	tmpl := ocsp.Response{
		Status:       status,
		SerialNumber: leaf.SerialNumber,
		ThisUpdate:   thisUpdate,
		NextUpdate:   nextUpdate,
	}
	if status == ocsp.Revoked {
		tmpl.RevokedAt = thisUpdate.Add(-time.Hour)
		tmpl.RevocationReason = ocsp.KeyCompromise
	}

	raw, err := ocsp.CreateResponse(ca.Cert, ca.Cert, tmpl, crypto.Signer(ca.Key))
	require.NoError(t, err)
	return raw
}
