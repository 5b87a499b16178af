// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package ct implements the Certificate Transparency validator.
//
// After the handshake the validator reads the SCTs embedded in the peer's leaf
// certificate, verifies each against the trusted logs of the policy's log list
// and checks the configured quorum:
//
//  1. at least MinEmbeddedSCTs valid SCTs
//  2. SCTs from at least MinDistinctOperators log operators
//  3. at least one valid SCT in any case
//
// Individual SCTs that fail verification, for example because their log is not
// in the list, are logged and ignored; only the quorum decides.
package ct
