// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package mcpserver exposes TLS trust checks over the Model Context Protocol ([MCP]).
//
// The server offers two tools: check_tls_trust dials a peer and reports the
// verdict of every active validator ([Certificate Transparency], OCSP and CRLSet),
// and get_trust_policy describes the policy those checks run under. Static
// resources carry a configuration template, version information and a
// reference of the failure kinds a report can name.
//
// Servers are assembled with [ServerBuilder] and served over stdio by [Run].
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
// [Certificate Transparency]: https://certificate.transparency.dev/
package mcpserver
