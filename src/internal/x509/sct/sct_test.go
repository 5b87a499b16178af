// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package sct_test

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"testing"
	"time"

	"github.com/google/certificate-transparency-go/loglist3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/tls-trust-validator/src/internal/testutil/pkitest"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/sct"
)

func TestExtract(t *testing.T) {
	ca := pkitest.NewCA(t, "Extract CA")
	logA := pkitest.NewLog(t)
	logB := pkitest.NewLog(t)

	tests := []struct {
		name      string
		leafDER   func(t *testing.T) []byte
		wantCount int
		wantErr   error
	}{
		{
			name: "two embedded SCTs",
			leafDER: func(t *testing.T) []byte {
				return ca.Issue(t, pkitest.LeafOptions{SCTs: []pkitest.SCTSpec{
					{Log: logA, Timestamp: pkitest.Now()},
					{Log: logB, Timestamp: pkitest.Now()},
				}}).Cert.Raw
			},
			wantCount: 2,
		},
		{
			name: "no extension",
			leafDER: func(t *testing.T) []byte {
				return ca.Issue(t, pkitest.LeafOptions{}).Cert.Raw
			},
			wantErr: sct.ErrNoSCTList,
		},
		{
			name: "extension is not an octet string",
			leafDER: func(t *testing.T) []byte {
				value, err := asn1.Marshal(42)
				require.NoError(t, err)
				return issueWithExtension(t, ca, pkix.Extension{Id: pkitest.SCTListOID, Value: value})
			},
			wantErr: sct.ErrNoSCTList,
		},
		{
			name: "list framing is truncated",
			leafDER: func(t *testing.T) []byte {
				value, err := asn1.Marshal([]byte{0x00, 0x10, 0x00})
				require.NoError(t, err)
				return issueWithExtension(t, ca, pkix.Extension{Id: pkitest.SCTListOID, Value: value})
			},
			wantErr: sct.ErrMalformedList,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cert, err := sct.ParseCertificate(tt.leafDER(t))
			require.NoError(t, err)

			raws, err := sct.Extract(cert)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, raws, tt.wantCount)
		})
	}
}

func TestParseCertificate_Invalid(t *testing.T) {
	_, err := sct.ParseCertificate([]byte("not a certificate"))
	assert.Error(t, err)
}

func TestReconstructPrecert_MissingIssuer(t *testing.T) {
	ca := pkitest.NewCA(t, "CA")
	leaf, err := sct.ParseCertificate(ca.Issue(t, pkitest.LeafOptions{}).Cert.Raw)
	require.NoError(t, err)

	_, err = sct.ReconstructPrecert(leaf, nil)
	assert.ErrorIs(t, err, sct.ErrMissingIssuer)

	_, err = sct.ReconstructPrecert(leaf, []byte("garbage"))
	assert.Error(t, err)
}

func TestLogSet_Verify(t *testing.T) {
	ca := pkitest.NewCA(t, "Verify CA")
	trusted := pkitest.NewLog(t)
	retired := pkitest.NewLog(t)
	untrusted := pkitest.NewLog(t)

	retiredAt := time.Now().Add(-time.Hour)
	list := pkitest.LogList(
		pkitest.Operator("alpha", trusted.Entry("alpha-2026", pkitest.Usable())),
		pkitest.Operator("beta", retired.Entry("beta-2025", pkitest.Retired(retiredAt))),
	)
	set, skipped := sct.NewLogSet(list)
	require.Empty(t, skipped)
	require.Equal(t, 2, set.Len())

	beforeRetirement := uint64(retiredAt.Add(-time.Hour).UnixMilli())
	afterRetirement := uint64(retiredAt.Add(time.Minute).UnixMilli())
	future := uint64(time.Now().Add(time.Hour).UnixMilli())

	leaf := ca.Issue(t, pkitest.LeafOptions{SCTs: []pkitest.SCTSpec{
		{Log: trusted, Timestamp: pkitest.Now()},
		{Log: trusted, Timestamp: pkitest.Now(), Corrupt: true},
		{Log: untrusted, Timestamp: pkitest.Now()},
		{Log: retired, Timestamp: beforeRetirement},
		{Log: retired, Timestamp: afterRetirement},
		{Log: trusted, Timestamp: future},
	}})

	cert, err := sct.ParseCertificate(leaf.Cert.Raw)
	require.NoError(t, err)
	raws, err := sct.Extract(cert)
	require.NoError(t, err)
	require.Len(t, raws, 6)

	entry, err := sct.ReconstructPrecert(cert, ca.Cert.Raw)
	require.NoError(t, err)

	now := time.Now()
	tests := []struct {
		name     string
		index    int
		operator string
		wantErr  error
		anyErr   bool
	}{
		{name: "valid usable log", index: 0, operator: "alpha"},
		{name: "corrupted signature", index: 1, anyErr: true},
		{name: "log outside trusted set", index: 2, wantErr: sct.ErrUnknownLog},
		{name: "retired log before retirement", index: 3, operator: "beta"},
		{name: "retired log after retirement", index: 4, wantErr: sct.ErrIssuedAfterRetirement},
		{name: "future timestamp", index: 5, wantErr: sct.ErrFutureTimestamp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := set.Verify(raws[tt.index], entry, now)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.anyErr:
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.operator, log.Operator)
			}
		})
	}

	t.Run("garbage record", func(t *testing.T) {
		_, err := set.Verify([]byte{0x01, 0x02}, entry, now)
		assert.Error(t, err)
	})
}

func TestNewLogSet_Filtering(t *testing.T) {
	usable := pkitest.NewLog(t)
	pending := pkitest.NewLog(t)
	noURL := pkitest.NewLog(t)
	noState := pkitest.NewLog(t)
	badKey := pkitest.NewLog(t)

	missingURL := noURL.Entry("no-url", pkitest.Usable())
	missingURL.URL = ""
	withoutState := noState.Entry("no-state", nil)
	invalidKey := badKey.Entry("bad-key", pkitest.Usable())
	invalidKey.Key = []byte("not a key")
	rejected := pkitest.NewLog(t).Entry("rejected", &loglist3.LogStates{
		Rejected: &loglist3.LogState{Timestamp: time.Now()},
	})

	list := pkitest.LogList(
		pkitest.Operator("alpha", usable.Entry("usable", pkitest.Usable()), pending.Entry("pending", pkitest.Pending())),
		pkitest.Operator("beta", missingURL, withoutState, invalidKey, rejected),
		pkitest.Operator("", pkitest.NewLog(t).Entry("nameless-operator", pkitest.Usable())),
	)

	set, skipped := sct.NewLogSet(list)

	require.Equal(t, 1, set.Len())
	_, ok := set.Lookup(usable.ID)
	assert.True(t, ok)
	_, ok = set.Lookup(pending.ID)
	assert.False(t, ok)

	reasons := map[string]string{}
	for _, s := range skipped {
		reasons[s.Description] = s.Reason
	}
	assert.Len(t, skipped, 3)
	assert.Contains(t, reasons["no-url"], "url")
	assert.Contains(t, reasons["bad-key"], "invalid key")
	assert.Contains(t, reasons["nameless-operator"], "operator.name")

	t.Run("nil list", func(t *testing.T) {
		empty, skipped := sct.NewLogSet(nil)
		assert.Zero(t, empty.Len())
		assert.Empty(t, skipped)
	})
}

func TestEligible(t *testing.T) {
	tests := []struct {
		status loglist3.LogStatus
		want   bool
	}{
		{loglist3.UsableLogStatus, true},
		{loglist3.ReadOnlyLogStatus, true},
		{loglist3.QualifiedLogStatus, true},
		{loglist3.RetiredLogStatus, true},
		{loglist3.PendingLogStatus, false},
		{loglist3.RejectedLogStatus, false},
		{loglist3.UndefinedLogStatus, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sct.Eligible(tt.status), "status %v", tt.status)
	}
}
