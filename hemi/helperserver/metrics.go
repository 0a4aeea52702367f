// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package helperserver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stater is this package's name for the read-only status reporter
// collaborator from §6: a thing bound to the pool/server that can be
// asked about current state, but never drives behavior.
type Stater interface {
	IncAccepted()
	IncRejectedPassword()
	IncSpawnFailure()
	SetActiveWorkers(n int)
}

// promStater backs Stater with Prometheus collectors registered through
// promauto, the same pattern odvcencio-buckley's
// pkg/acp/observability/metrics.go uses for its agent/message gauges.
// Collectors are process-global: constructing more than one promStater
// in the same process would panic on duplicate registration, which is
// intentional — there is exactly one Server per process (§4.7).
type promStater struct {
	accepted         prometheus.Counter
	rejectedPassword prometheus.Counter
	spawnFailures    prometheus.Counter
	activeWorkers    prometheus.Gauge
}

// NewPrometheusStater registers and returns the production Stater.
func NewPrometheusStater() Stater {
	return &promStater{
		accepted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "helper_server",
			Name:      "accepted_total",
			Help:      "Total number of connections accepted by any worker.",
		}),
		rejectedPassword: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "helper_server",
			Name:      "rejected_password_total",
			Help:      "Total number of connections rejected for a bad or missing password.",
		}),
		spawnFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "helper_server",
			Name:      "spawn_failures_total",
			Help:      "Total number of requests answered with a synthesised 500 because the pool could not provide a session.",
		}),
		activeWorkers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "helper_server",
			Name:      "active_workers",
			Help:      "Number of worker goroutines currently running.",
		}),
	}
}

func (s *promStater) IncAccepted()         { s.accepted.Inc() }
func (s *promStater) IncRejectedPassword() { s.rejectedPassword.Inc() }
func (s *promStater) IncSpawnFailure()     { s.spawnFailures.Inc() }
func (s *promStater) SetActiveWorkers(n int) {
	s.activeWorkers.Set(float64(n))
}

// noopStater discards everything; used when no Stater is configured and
// in unit tests.
type noopStater struct{}

func (noopStater) IncAccepted()           {}
func (noopStater) IncRejectedPassword()   {}
func (noopStater) IncSpawnFailure()       {}
func (noopStater) SetActiveWorkers(int)   {}
