// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

package auth

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Login attempt results used as metric labels.
const (
	LoginResultSuccess = "success"
	LoginResultInvalid = "invalid_credentials"
	LoginResultLocked  = "locked"
	LoginResultError   = "error"
)

// Metrics holds authentication counters. A nil *Metrics records nothing.
type Metrics struct {
	LoginAttempts  *prometheus.CounterVec
	Lockouts       prometheus.Counter
	Registrations  prometheus.Counter
	SessionsIssued prometheus.Counter
}

// NewMetrics creates and registers authentication metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LoginAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "archive_login_attempts_total",
				Help: "Total number of login attempts by result",
			},
			[]string{"result"},
		),
		Lockouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "archive_account_lockouts_total",
			Help: "Total number of accounts locked after repeated failures",
		}),
		Registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "archive_registrations_total",
			Help: "Total number of successful registrations",
		}),
		SessionsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "archive_sessions_issued_total",
			Help: "Total number of sessions issued",
		}),
	}

	reg.MustRegister(m.LoginAttempts, m.Lockouts, m.Registrations, m.SessionsIssued)
	return m
}

func (m *Metrics) recordLogin(result string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) recordLockout() {
	if m == nil {
		return
	}
	m.Lockouts.Inc()
}

func (m *Metrics) recordRegistration() {
	if m == nil {
		return
	}
	m.Registrations.Inc()
}

func (m *Metrics) recordSession() {
	if m == nil {
		return
	}
	m.SessionsIssued.Inc()
}
