// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package revocation

import (
	"context"
	"errors"
	"fmt"

	x509certs "github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/certs"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/crlset"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/logger"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/trust"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/trust/policy"
)

// Name identifies the CRLSet validator.
const Name = "CRLSetValidator"

// ErrNoLoader indicates the policy has no preloaded set and no loader is configured.
var ErrNoLoader = errors.New("revocation: no CRLSet loader configured")

// Validator checks the peer's leaf against a CRLSet.
type Validator struct {
	trust.Base

	loader crlset.Loader
	log    *logger.Scoped
}

// New creates a CRLSet validator. loader is used when the policy carries no
// preloaded set and may be nil otherwise.
func New(loader crlset.Loader, log *logger.Scoped) *Validator {
	return &Validator{loader: loader, log: log.Named(Name)}
}

// Name implements [trust.Validator].
func (v *Validator) Name() string { return Name }

// ShouldRun implements [trust.Validator].
func (v *Validator) ShouldRun(cfg *policy.Config) bool {
	return cfg != nil && cfg.CRLSet != nil
}

// Validate implements [trust.Validator].
//
// Any status other than OK fails with [trust.KindRevokedByCrlSet]; a set that
// cannot be obtained fails with [trust.KindCrlSetFetchFailed]. Both are fatal.
func (v *Validator) Validate(ctx context.Context, sock trust.Socket, cfg *policy.Config) error {
	if err := trust.WaitHandshake(ctx, sock, Name); err != nil {
		return err
	}

	leaf, issuer, err := trust.LeafAndIssuer(sock, Name)
	if err != nil {
		return err
	}

	set, err := v.set(ctx, cfg.CRLSet)
	if err != nil {
		return trust.Wrap(Name, trust.KindCrlSetFetchFailed, err, fmt.Sprintf("Failed to obtain CRLSet: %v", err))
	}

	status := set.Check(x509certs.SPKIHash(issuer), x509certs.SerialHex(leaf))
	if status != crlset.OK {
		return trust.Errorf(Name, trust.KindRevokedByCrlSet,
			"Certificate is revoked according to CRLSet %d. Status: %s", set.Sequence(), status)
	}

	v.warnInterception(sock, set)
	v.log.Debugf("Certificate is not revoked according to CRLSet %d", set.Sequence())
	return nil
}

// warnInterception logs chain certificates whose SPKI the set lists as a
// known interception root. Such chains are still accepted.
func (v *Validator) warnInterception(sock trust.Socket, set crlset.Checker) {
	ic, ok := set.(crlset.InterceptionChecker)
	if !ok {
		return
	}
	for _, cert := range sock.ConnectionState().PeerCertificates {
		if ic.KnownInterception(x509certs.SPKIHash(cert)) {
			v.log.Warnf("Chain certificate %q is a known interception root in CRLSet %d",
				cert.Subject.CommonName, set.Sequence())
		}
	}
}

func (v *Validator) set(ctx context.Context, p *policy.CRLSetPolicy) (crlset.Checker, error) {
	if p.Set != nil {
		return p.Set, nil
	}
	if v.loader == nil {
		return nil, ErrNoLoader
	}

	set, err := v.loader.LoadLatest(ctx, crlset.LoadOptions{
		VerifySignature: p.VerifySignature,
		UpdateStrategy:  p.UpdateStrategy,
	})
	if err != nil {
		return nil, err
	}
	if set == nil {
		return nil, errors.New("revocation: loader returned no CRLSet")
	}
	return set, nil
}
