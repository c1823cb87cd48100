// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Archive Platform Contributors

package access

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts authorization denials. A nil *Metrics records nothing.
type Metrics struct {
	Denials *prometheus.CounterVec
}

// NewMetrics creates and registers access metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Denials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "archive_authorization_denials_total",
			Help: "Total number of denied ownership checks by resource type",
		}, []string{"resource"}),
	}
	reg.MustRegister(m.Denials)
	return m
}

func (m *Metrics) recordDenial(resourceType ResourceType) {
	if m == nil {
		return
	}
	label := string(resourceType)
	if !resourceType.Valid() {
		label = "unknown"
	}
	m.Denials.WithLabelValues(label).Inc()
}
