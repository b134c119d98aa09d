// Hostbeat - Network Monitoring Dashboard Client
// Copyright 2026 Hostbeat Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hostbeat/hostbeat

// Package metrics exposes Prometheus collectors for the client's
// synchronization, push, and gateway activity. All collectors register
// through promauto and are served by the local status listener.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Synchronization metrics
	ReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostbeat_reloads_total",
			Help: "Total snapshot reloads by outcome",
		},
		[]string{"outcome"}, // "success", "failure"
	)

	ReloadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hostbeat_reload_duration_seconds",
			Help:    "Duration of full snapshot reloads in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	SnapshotHosts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hostbeat_snapshot_hosts",
			Help: "Number of hosts in the current snapshot",
		},
	)

	SnapshotAlerts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hostbeat_snapshot_alerts",
			Help: "Number of alerts in the current snapshot",
		},
	)

	SnapshotGroups = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hostbeat_snapshot_groups",
			Help: "Number of host groups in the current snapshot",
		},
	)

	// Gateway metrics
	GatewayRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostbeat_gateway_requests_total",
			Help: "Total gateway requests by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hostbeat_gateway_request_duration_seconds",
			Help:    "Duration of gateway requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hostbeat_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostbeat_circuit_breaker_transitions_total",
			Help: "Total circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostbeat_circuit_breaker_requests_total",
			Help: "Total requests through the circuit breaker by result",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	// Push channel metrics
	PushEventsReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hostbeat_push_events_received_total",
			Help: "Total push events received over the websocket channel",
		},
	)

	PushConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hostbeat_push_connected",
			Help: "Whether the push channel is connected (1) or not (0)",
		},
	)

	NotificationsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hostbeat_notifications_active",
			Help: "Number of notifications currently visible",
		},
	)

	NotificationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hostbeat_notifications_total",
			Help: "Total notifications raised",
		},
	)
)
