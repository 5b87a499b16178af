// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package kit

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/H0llyW00dzZ/tls-trust-validator/src/trust"
)

// Metrics records validation outcomes. A nil *Metrics records nothing.
type Metrics struct {
	validations *prometheus.CounterVec
	results     *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// NewMetrics creates and registers the collectors with stats.
func NewMetrics(stats prometheus.Registerer) *Metrics {
	validations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tls_trust_validations_total",
		Help: "A counter of connection validations labeled by result",
	}, []string{"result"})
	stats.MustRegister(validations)

	results := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tls_trust_validator_results_total",
		Help: "A counter of individual validator results labeled by validator and result",
	}, []string{"validator", "result"})
	stats.MustRegister(results)

	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tls_trust_validation_duration_seconds",
		Help:    "A histogram of connection validation latencies labeled by result",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"result"})
	stats.MustRegister(latency)

	return &Metrics{validations: validations, results: results, latency: latency}
}

// resultLabel names a validator result. Validators cut short by another's
// failure are "cancelled".
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	}
	return trust.KindOf(err).String()
}

func (m *Metrics) observeValidator(name string, err error) {
	if m == nil {
		return
	}
	m.results.WithLabelValues(name, resultLabel(err)).Inc()
}

func (m *Metrics) observeOutcome(err error, took time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.validations.WithLabelValues(result).Inc()
	m.latency.WithLabelValues(result).Observe(took.Seconds())
}
