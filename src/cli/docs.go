// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package cli implements the tls-trust-check command.
//
// The root command dials one peer through the validation kit and prints a
// report of every active validator, as a markdown table or JSON. The serve
// subcommand exposes the same check over HTTP:
//
//	POST /v1/check   {"host": "example.com", "port": 443}
//	GET  /healthz
//	GET  /metrics
//
// Configuration comes from a YAML or JSON file (--config or $TLS_TRUST_CONFIG)
// with flags taking precedence. A CA bundle is required unless system roots
// are requested explicitly.
package cli
