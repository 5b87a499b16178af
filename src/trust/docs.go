// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package trust defines the contract shared by TLS trust validators.
//
// A [Validator] inspects a [Socket] after it connected and either accepts it or
// returns a tagged [*Error]. Validators are composed by the kit package, which
// decides from the policy which of them run for a connection, folds their
// [ConnectOptions] adjustments and reports one outcome per socket.
//
// Concrete validators live in sub-packages:
//
//   - ct: Certificate Transparency compliance of embedded SCTs
//   - ocsp: stapled, direct and mixed OCSP revocation checks
//   - revocation: CRLSet lookups
//
// # Errors
//
// Every failure carries a [Kind]. Use errors.Is with the Err* sentinels
// to classify failures:
//
//	if errors.Is(err, trust.ErrRevoked) {
//		// positive revocation signal
//	}
package trust
