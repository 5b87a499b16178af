// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509chain handles the [X.509] chain presented by a TLS peer.
// It provides capabilities to:
//   - Locate the leaf and its issuer in a presented or verified chain.
//   - Query [OCSP] responders over HTTP with pooled buffers.
//   - Cache revocation responses in memory (LRU) or in Redis until they expire.
//   - Render the chain as an ASCII tree or structured summaries.
//
// [X.509]: https://grokipedia.com/page/X.509
// [OCSP]: https://grokipedia.com/page/Online_Certificate_Status_Protocol
package x509chain
