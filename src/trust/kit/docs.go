// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package kit orchestrates trust validation for TLS connections.
//
// A [Kit] is created once from a policy. For each connection the caller:
//
//  1. passes its connect options through [Kit.ApplyBeforeConnect]
//  2. establishes the TLS socket with the result
//  3. hands the socket to [Kit.Attach] and waits on the returned [Session]
//
// The socket's read side is paused while validators run concurrently. When
// all succeed it is resumed; the first failure is reported as the session's
// outcome and the socket is destroyed with that error. Results from
// validators that finish after the first failure are recorded but do not
// change the outcome.
//
// Example:
//
//	k := kit.New(&policy.Config{
//		CT:   policy.DefaultCTPolicy(list),
//		OCSP: policy.DefaultMixedOCSPPolicy(),
//	}, kit.WithMetrics(kit.NewMetrics(prometheus.DefaultRegisterer)))
//
//	opts := k.ApplyBeforeConnect(trust.ConnectOptions{TLSConfig: cfg})
//	// dial with opts ...
//	if err := k.Validate(ctx, sock); err != nil {
//		return err
//	}
package kit
