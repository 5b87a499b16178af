// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package ocsp implements the OCSP revocation validators.
//
// Three validators share one [Engine]:
//
//   - [Stapling] requires the server to staple a good response
//   - [Direct] queries the certificate's responder after the handshake
//   - [Mixed] prefers a staple and falls back to the responder
//
// A revoked status always fails the connection. Other failures, such as an
// unreachable responder or a malformed response, fail it only when the
// policy's FailHard is set. In mixed mode FailHard applies to the final direct
// check only; a failed staple never rejects a connection by itself.
//
// Good responder answers can be cached until their NextUpdate with any
// x509chain.ResponseCache, in memory or in Redis.
package ocsp
