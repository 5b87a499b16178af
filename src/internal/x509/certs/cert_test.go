// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs_test

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/tls-trust-validator/src/internal/testutil/pkitest"
	x509certs "github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/certs"
)

func TestDecodeBundle(t *testing.T) {
	ca := pkitest.NewCA(t, "Bundle CA")
	leaf := ca.Issue(t, pkitest.LeafOptions{DNSNames: []string{"bundle.test"}})

	tests := []struct {
		name      string
		data      []byte
		wantCount int
		wantErr   error
	}{
		{"PEM bundle", x509certs.EncodePEM(leaf.Cert, ca.Cert), 2, nil},
		{"single PEM", x509certs.EncodePEM(ca.Cert), 1, nil},
		{"single DER", ca.Cert.Raw, 1, nil},
		{"concatenated DER", append(append([]byte{}, leaf.Cert.Raw...), ca.Cert.Raw...), 2, nil},
		{"mixed block types", append(x509certs.EncodePEM(ca.Cert), pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: []byte{1}})...), 0, x509certs.ErrInvalidBlockType},
		{"corrupt PEM body", pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte{0x30, 0x03, 0x01}}), 0, x509certs.ErrParseCertificate},
		{"garbage", []byte("not a certificate"), 0, x509certs.ErrParseCertificate},
		{"empty", nil, 0, x509certs.ErrEmptyBundle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			certs, err := x509certs.DecodeBundle(tt.data)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Len(t, certs, tt.wantCount)
			assert.True(t, certs[len(certs)-1].Equal(ca.Cert))
		})
	}
}

func TestIsPEM(t *testing.T) {
	ca := pkitest.NewCA(t, "PEM CA")

	assert.True(t, x509certs.IsPEM(x509certs.EncodePEM(ca.Cert)))
	assert.False(t, x509certs.IsPEM(ca.Cert.Raw))
	assert.False(t, x509certs.IsPEM(nil))
}

func TestSPKIHashAndSerial(t *testing.T) {
	ca := pkitest.NewCA(t, "Identity CA")
	leaf := ca.Issue(t, pkitest.LeafOptions{Serial: big.NewInt(0xabcdef)})

	sum := sha256.Sum256(ca.Cert.RawSubjectPublicKeyInfo)
	assert.Equal(t, hex.EncodeToString(sum[:]), x509certs.SPKIHash(ca.Cert))
	assert.Equal(t, "abcdef", x509certs.SerialHex(leaf.Cert))
	assert.Empty(t, x509certs.SerialHex(&x509.Certificate{}))
}

func TestPoolFromPEM(t *testing.T) {
	ca := pkitest.NewCA(t, "Pool CA")

	t.Run("empty", func(t *testing.T) {
		_, err := x509certs.PoolFromPEM(nil)
		assert.ErrorIs(t, err, x509certs.ErrEmptyBundle)
	})

	t.Run("valid bundle", func(t *testing.T) {
		pool, err := x509certs.PoolFromPEM(x509certs.EncodePEM(ca.Cert))
		require.NoError(t, err)
		require.NotNil(t, pool)
	})

	t.Run("load from disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ca.pem")
		require.NoError(t, os.WriteFile(path, x509certs.EncodePEM(ca.Cert), 0o600))

		pool, err := x509certs.LoadPool(path)
		require.NoError(t, err)
		require.NotNil(t, pool)
	})

	t.Run("load DER from disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ca.der")
		require.NoError(t, os.WriteFile(path, ca.Cert.Raw, 0o600))

		pool, err := x509certs.LoadPool(path)
		require.NoError(t, err)
		require.NotNil(t, pool)
	})

	t.Run("garbage on disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ca.bin")
		require.NoError(t, os.WriteFile(path, []byte("junk"), 0o600))

		_, err := x509certs.LoadPool(path)
		assert.ErrorIs(t, err, x509certs.ErrParseCertificate)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := x509certs.LoadPool(filepath.Join(t.TempDir(), "nope.pem"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
