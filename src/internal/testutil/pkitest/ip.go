// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package pkitest

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func parseIP(t testing.TB, s string) net.IP {
	ip := net.ParseIP(s)
	require.NotNil(t, ip, "invalid IP %q", s)
	return ip
}
