// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package revocation implements the CRLSet validator. The issuer's SPKI hash
// and the leaf serial are looked up in a preloaded set or one obtained from a
// crlset.Loader.
package revocation
