// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package sct

import (
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	ct "github.com/google/certificate-transparency-go"
	"github.com/google/certificate-transparency-go/loglist3"
)

var (
	// ErrUnknownLog indicates the SCT was issued by a log outside the trusted set.
	ErrUnknownLog = errors.New("sct: log not trusted")

	// ErrUnsupportedVersion indicates an SCT version other than v1.
	ErrUnsupportedVersion = errors.New("sct: unsupported SCT version")

	// ErrFutureTimestamp indicates an SCT dated after the verification time.
	ErrFutureTimestamp = errors.New("sct: timestamp is in the future")

	// ErrIssuedAfterRetirement indicates an SCT from a retired log dated at or after retirement.
	ErrIssuedAfterRetirement = errors.New("sct: issued after log retirement")
)

// Log is a trusted CT log ready to verify SCT signatures.
type Log struct {
	ID          [32]byte
	Operator    string
	Description string
	URL         string
	MMD         int32
	Status      loglist3.LogStatus
	// RetiredAt is set only for retired logs.
	RetiredAt time.Time

	verifier *ct.SignatureVerifier
}

// Skipped records a log list entry left out of the trusted set.
type Skipped struct {
	Operator    string
	Description string
	LogID       string
	Reason      string
}

// LogSet is the read-only set of trusted logs, keyed by log ID.
// It is safe for concurrent use once built.
type LogSet struct {
	byID  map[[32]byte]*Log
	order []*Log
}

// Eligible reports whether a log in the given status may be trusted.
// Usable, read-only, qualified and retired logs are eligible; pending,
// rejected and undefined logs are not.
func Eligible(status loglist3.LogStatus) bool {
	switch status {
	case loglist3.UsableLogStatus,
		loglist3.ReadOnlyLogStatus,
		loglist3.QualifiedLogStatus,
		loglist3.RetiredLogStatus:
		return true
	}
	return false
}

// NewLogSet filters list down to eligible, well-formed logs.
//
// A log is skipped when its state is not eligible, when any of log_id, key,
// mmd, url or description is missing, when its operator has no name, or when
// its key cannot be parsed. The list itself is not modified.
//
// Returns:
//   - *LogSet: Trusted logs, possibly empty
//   - []Skipped: Logs left out for a reason worth reporting (ineligible states are not reported)
func NewLogSet(list *loglist3.LogList) (*LogSet, []Skipped) {
	set := &LogSet{byID: make(map[[32]byte]*Log)}
	if list == nil {
		return set, nil
	}

	var skipped []Skipped
	for _, op := range list.Operators {
		if op == nil {
			continue
		}
		for _, l := range op.Logs {
			if l == nil {
				continue
			}

			status := loglist3.UndefinedLogStatus
			if l.State != nil {
				status = l.State.LogStatus()
			}
			if !Eligible(status) {
				continue
			}

			if missing := missingFields(op, l); len(missing) > 0 {
				skipped = append(skipped, Skipped{
					Operator:    op.Name,
					Description: l.Description,
					LogID:       shortID(l.LogID),
					Reason:      "missing or invalid fields: " + strings.Join(missing, ", "),
				})
				continue
			}

			pk, err := x509.ParsePKIXPublicKey(l.Key)
			if err != nil {
				skipped = append(skipped, Skipped{Operator: op.Name, Description: l.Description, LogID: shortID(l.LogID), Reason: fmt.Sprintf("invalid key: %v", err)})
				continue
			}
			verifier, err := ct.NewSignatureVerifier(pk)
			if err != nil {
				skipped = append(skipped, Skipped{Operator: op.Name, Description: l.Description, LogID: shortID(l.LogID), Reason: fmt.Sprintf("unsupported key: %v", err)})
				continue
			}

			trusted := &Log{
				Operator:    op.Name,
				Description: l.Description,
				URL:         l.URL,
				MMD:         l.MMD,
				Status:      status,
				verifier:    verifier,
			}
			copy(trusted.ID[:], l.LogID)
			if status == loglist3.RetiredLogStatus {
				trusted.RetiredAt = l.State.Retired.Timestamp
			}

			set.byID[trusted.ID] = trusted
			set.order = append(set.order, trusted)
		}
	}

	return set, skipped
}

func missingFields(op *loglist3.Operator, l *loglist3.Log) []string {
	var missing []string
	if len(l.LogID) != 32 {
		missing = append(missing, "log_id")
	}
	if len(l.Key) == 0 {
		missing = append(missing, "key")
	}
	if l.MMD <= 0 {
		missing = append(missing, "mmd")
	}
	if l.URL == "" {
		missing = append(missing, "url")
	}
	if l.Description == "" {
		missing = append(missing, "description")
	}
	if op.Name == "" {
		missing = append(missing, "operator.name")
	}
	return missing
}

func shortID(id []byte) string {
	if len(id) == 0 {
		return "N/A"
	}
	s := base64.StdEncoding.EncodeToString(id)
	if len(s) > 16 {
		s = s[:16] + "..."
	}
	return s
}

// Len returns the number of trusted logs.
func (s *LogSet) Len() int { return len(s.order) }

// Logs returns the trusted logs in log list order.
func (s *LogSet) Logs() []*Log { return s.order }

// Lookup finds a trusted log by ID.
func (s *LogSet) Lookup(id [32]byte) (*Log, bool) {
	l, ok := s.byID[id]
	return l, ok
}

// Verify checks one TLS-encoded SCT against the trusted logs.
//
// Parameters:
//   - raw: The SCT record as embedded in the certificate
//   - entry: Pre-certificate entry from [ReconstructPrecert]
//   - now: Verification time; SCTs dated after it are rejected
//
// Returns:
//   - *Log: The trusted log that issued the SCT
//   - error: Decode, trust, timing or signature failure
func (s *LogSet) Verify(raw []byte, entry *ct.LogEntry, now time.Time) (*Log, error) {
	sct, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	if sct.SCTVersion != ct.V1 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, sct.SCTVersion)
	}

	log, ok := s.byID[sct.LogID.KeyID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLog, shortID(sct.LogID.KeyID[:]))
	}

	issued := time.UnixMilli(int64(sct.Timestamp))
	if issued.After(now) {
		return nil, fmt.Errorf("%w: %s", ErrFutureTimestamp, issued.UTC().Format(time.RFC3339))
	}
	if log.Status == loglist3.RetiredLogStatus && !issued.Before(log.RetiredAt) {
		return nil, fmt.Errorf("%w: %s", ErrIssuedAfterRetirement, log.Description)
	}

	if err := log.verifier.VerifySCTSignature(*sct, *entry); err != nil {
		return nil, fmt.Errorf("sct: signature from %s: %w", log.Description, err)
	}

	return log, nil
}
