// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package crlset reads Chromium-style CRLSets: a compact revocation set keyed by
// the SHA-256 of an issuer's SubjectPublicKeyInfo and the serial numbers it revoked,
// plus a list of outright blocked SPKIs.
//
// Binary layout:
//
//	uint16 LE header length | JSON header | entries...
//	entry: [32]byte parent SPKI hash | uint32 LE serial count | count × (uint8 len | serial)
//
// Sets are loaded through a [Loader]; [HTTPLoader] downloads them, optionally checks
// a detached signature, and caches the last set until it expires.
package crlset
