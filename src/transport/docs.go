// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package transport connects the validation kit to crypto/tls.
//
// [Dialer] dials, handshakes and hands the connection to the kit, returning
// it only once every active trust check has passed. [NewHTTPClient] plugs the
// dialer into net/http so every HTTPS request is validated:
//
//	d, err := transport.NewDialer(k, &tls.Config{RootCAs: pool}, false)
//	if err != nil {
//		return err
//	}
//	client := transport.NewHTTPClient(d, 30*time.Second)
//	resp, err := client.Get("https://example.com/")
package transport
