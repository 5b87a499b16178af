// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package ct

import (
	"crypto/x509"
	"errors"
	"sync"

	"github.com/google/certificate-transparency-go/loglist3"
	"github.com/jmhodges/clock"

	"github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/sct"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/logger"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/trust"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/trust/policy"
)

// ValidatedSCT is an embedded SCT matched to a trusted log.
type ValidatedSCT struct {
	Raw      []byte
	Operator string
	Log      string
}

// Result summarizes the SCTs of one certificate.
type Result struct {
	// Found is the number of SCTs embedded in the certificate.
	Found int
	Valid []ValidatedSCT
	// Rejected maps the index of each SCT that failed verification to the reason.
	Rejected map[int]error
}

// Operators returns the number of distinct operators among valid SCTs.
func (r *Result) Operators() int {
	seen := make(map[string]struct{}, len(r.Valid))
	for _, v := range r.Valid {
		seen[v.Operator] = struct{}{}
	}
	return len(seen)
}

// Engine extracts, verifies and evaluates embedded SCTs.
//
// Trusted log sets are built once per log list and shared across
// connections; the log list itself is never modified.
type Engine struct {
	name  string
	clock clock.Clock
	log   *logger.Scoped

	mu   sync.Mutex
	sets map[*loglist3.LogList]*sct.LogSet
}

// NewEngine creates an engine that reports errors as validator name.
func NewEngine(name string, clk clock.Clock, log *logger.Scoped) *Engine {
	if clk == nil {
		clk = clock.New()
	}
	return &Engine{
		name:  name,
		clock: clk,
		log:   log,
		sets:  make(map[*loglist3.LogList]*sct.LogSet),
	}
}

// LogSet returns the trusted logs for list, building and caching them on
// first use. Logs skipped for missing or invalid fields are logged once.
func (e *Engine) LogSet(list *loglist3.LogList) *sct.LogSet {
	e.mu.Lock()
	defer e.mu.Unlock()

	if set, ok := e.sets[list]; ok {
		return set
	}

	set, skipped := sct.NewLogSet(list)
	for _, s := range skipped {
		e.log.Warnf("Skipping CT log %q (%s) from operator %q: %s", s.Description, s.LogID, s.Operator, s.Reason)
	}
	e.log.Debugf("Trusted CT log set built with %d logs", set.Len())

	e.sets[list] = set
	return set
}

// Verify checks every SCT embedded in leaf against the trusted logs of p.
//
// A single SCT that fails verification is recorded in [Result.Rejected] and
// does not stop the others from being checked. Any structural problem with
// the certificate, the SCT list, the log list or the pre-certificate is fatal.
func (e *Engine) Verify(leaf, issuer *x509.Certificate, p *policy.CTPolicy) (*Result, error) {
	if issuer == nil {
		return nil, trust.Errorf(e.name, trust.KindMissingIssuer, "Could not find issuer certificate in the chain.")
	}

	cert, err := sct.ParseCertificate(leaf.Raw)
	if err != nil {
		return nil, trust.Wrap(e.name, trust.KindCertParseError, err, "Failed to parse certificate for SCT validation.")
	}

	raws, err := sct.Extract(cert)
	switch {
	case errors.Is(err, sct.ErrNoSCTList):
		return nil, trust.Errorf(e.name, trust.KindNoSctsFound, "No SCTs found in the certificate.")
	case err != nil:
		return nil, trust.Wrap(e.name, trust.KindMalformedSctList, err, "Failed to parse SCT list from certificate.")
	}

	logs := e.LogSet(p.LogList)
	if logs.Len() == 0 {
		return nil, trust.Errorf(e.name, trust.KindEmptyTrustedLogList, "Empty trusted CT log list.")
	}

	entry, err := sct.ReconstructPrecert(cert, issuer.Raw)
	if err != nil {
		return nil, trust.Wrap(e.name, trust.KindPrecertReconstructionFailed, err, "Failed to reconstruct pre-certificate for SCT validation.")
	}

	now := e.clock.Now()
	res := &Result{Found: len(raws), Rejected: make(map[int]error)}
	for i, raw := range raws {
		l, err := logs.Verify(raw, entry, now)
		if err != nil {
			e.log.Warnf("SCT %d of %d rejected: %v", i+1, len(raws), err)
			res.Rejected[i] = err
			continue
		}
		res.Valid = append(res.Valid, ValidatedSCT{Raw: raw, Operator: l.Operator, Log: l.Description})
	}

	return res, nil
}

// Evaluate applies the quorum rules of p to res. Minimum SCT count is checked
// first, then operator diversity, then that at least one SCT verified.
func (e *Engine) Evaluate(res *Result, p *policy.CTPolicy) error {
	valid := uint(len(res.Valid))
	if valid < p.MinEmbeddedSCTs {
		return trust.Errorf(e.name, trust.KindInsufficientScts,
			"Certificate has %d valid embedded SCTs (out of %d found), but policy requires at least %d.",
			valid, res.Found, p.MinEmbeddedSCTs)
	}

	operators := uint(res.Operators())
	if p.MinDistinctOperators > 0 && operators < p.MinDistinctOperators {
		return trust.Errorf(e.name, trust.KindInsufficientOperatorDiversity,
			"Certificate has SCTs from %d distinct operators, but policy requires at least %d.",
			operators, p.MinDistinctOperators)
	}

	if valid == 0 {
		return trust.Errorf(e.name, trust.KindNoValidScts,
			"No valid SCTs could be verified (out of %d found) against the trusted log list.", res.Found)
	}

	return nil
}
