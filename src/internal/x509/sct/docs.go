// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package sct wraps [certificate-transparency-go] for embedded Signed Certificate
// Timestamps: locating and decoding the SCT list extension, reconstructing the
// pre-certificate entry an SCT was signed over, and verifying an SCT against a set of
// trusted logs built from a v3 log list.
//
// [certificate-transparency-go]: https://github.com/google/certificate-transparency-go
package sct
