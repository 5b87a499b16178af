// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// tls-trust-check dials a TLS server and validates it against Certificate
// Transparency, OCSP and CRLSet policies on top of ordinary chain verification.
//
// # Installation
//
// Install with Go 1.25.5 or later:
//
//	go install github.com/H0llyW00dzZ/tls-trust-validator/cmd/tls-trust-check@latest
//
// # Usage
//
//	tls-trust-check [FLAGS] host[:port]
//	tls-trust-check serve [--listen :8080]
//
// # Flags
//
//	-c, --config          YAML or JSON configuration file (default: $TLS_TRUST_CONFIG)
//	    --ca-bundle       PEM file of trusted roots
//	    --system-roots    Use the system trust store when no CA bundle is given
//	    --ct-log-list     Certificate Transparency log list (JSON) enabling CT checks
//	    --min-scts        Minimum number of valid SCTs
//	    --min-operators   Minimum number of distinct log operators
//	    --ocsp-mode       stapling, direct or mixed
//	    --ocsp-fail-hard  Reject peers on OCSP errors other than revocation
//	    --no-ocsp         Disable OCSP checks
//	    --crlset          CRLSet file path or URL
//	    --timeout         Dial and handshake timeout
//	-f, --format          Output format: table or json
//
// # Exit Status
//
// 0 when the peer is trusted, 2 when a validator rejected it, 1 on any
// other error and 130 when interrupted.
//
// # Examples
//
// Require a good stapled OCSP response:
//
//	tls-trust-check --ca-bundle roots.pem --ocsp-mode stapling example.com
//
// Check against a local CRLSet and print JSON:
//
//	tls-trust-check --ca-bundle roots.pem --crlset crl-set.bin -f json example.com:8443
//
// Serve the checks over HTTP with Prometheus metrics:
//
//	tls-trust-check -c config.yaml serve --listen :8080
package main
