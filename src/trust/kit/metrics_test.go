// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package kit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/tls-trust-validator/src/trust"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/trust/policy"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/trust/trusttest"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	pass := &trusttest.Stub{ID: "pass", Run: true}
	k := New(&policy.Config{}, WithValidators(pass), WithMetrics(m))
	require.NoError(t, k.Validate(context.Background(), trusttest.Connected()))

	fail := &trusttest.Stub{ID: "fail", Run: true, Err: trust.Errorf("fail", trust.KindNoValidScts, "none")}
	k = New(&policy.Config{}, WithValidators(fail), WithMetrics(m))
	require.Error(t, k.Validate(context.Background(), trusttest.Connected()))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.validations.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.validations.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.results.WithLabelValues("pass", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.results.WithLabelValues("fail", "NoValidScts")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.latency))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.observeValidator("x", nil)
		m.observeOutcome(nil, 0)
	})
}

func TestResultLabel(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "success"},
		{"kind", trust.ErrRevoked, "Revoked"},
		{"cancelled", context.Canceled, "cancelled"},
		{"wrapped cancellation", fmt.Errorf("query: %w", context.Canceled), "cancelled"},
		{"deadline", context.DeadlineExceeded, "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resultLabel(tt.err))
		})
	}
}

func TestMetricsShortCircuitedValidator(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	slow := &trusttest.Stub{ID: "slow", Run: true, Block: make(chan struct{})}
	fail := &trusttest.Stub{ID: "fail", Run: true, Err: trust.Errorf("fail", trust.KindRevoked, "revoked")}
	k := New(&policy.Config{}, WithValidators(slow, fail), WithMetrics(m))

	require.Error(t, k.Validate(context.Background(), trusttest.Connected()))
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(m.results.WithLabelValues("slow", "cancelled")) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Zero(t, testutil.ToFloat64(m.results.WithLabelValues("slow", "Unknown")))
}
