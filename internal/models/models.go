// Hostbeat - Network Monitoring Dashboard Client
// Copyright 2026 Hostbeat Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hostbeat/hostbeat

// Package models defines the data types exchanged with the dashboard
// server. Field names and JSON tags mirror the server's wire format
// exactly: the canonical snapshot is stored verbatim as received, so
// these types are the wire contract and the in-memory representation
// at the same time.
package models

import (
	"time"
)

// HostStatus is the liveness state reported by the server-side
// monitoring backend. The client never writes it.
type HostStatus string

const (
	StatusUp      HostStatus = "UP"
	StatusDown    HostStatus = "DOWN"
	StatusUnknown HostStatus = "UNKNOWN"
)

// Normalize maps any unrecognized status string to UNKNOWN for
// display. The stored value is not rewritten; snapshots stay verbatim.
func (s HostStatus) Normalize() HostStatus {
	switch s {
	case StatusUp, StatusDown:
		return s
	default:
		return StatusUnknown
	}
}

// Host is a monitored machine. Status and LastSeen are owned by the
// server-side monitoring backend; GroupID is the only field the client
// mutates (via a full-replace update).
type Host struct {
	ID       int64      `json:"id"`
	Name     string     `json:"name"`
	IP       string     `json:"ip"`
	Status   HostStatus `json:"status"`
	LastSeen time.Time  `json:"last_seen"`
	GroupID  *int64     `json:"group_id"`
}

// HostGroup is a named collection of hosts. HostCount is a server-side
// projection recomputed on every read; the client never derives it.
type HostGroup struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	HostCount   int     `json:"host_count"`
}

// AlertHost is the host reference embedded in an alert. Nil on the
// Alert when the host was deleted after the alert fired.
type AlertHost struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	IP   string `json:"ip"`
}

// Alert is a monitoring event raised against a host. Append-only from
// the client's perspective.
type Alert struct {
	ID        int64      `json:"id"`
	Host      *AlertHost `json:"host"`
	Severity  string     `json:"severity"`
	Message   string     `json:"message"`
	Timestamp time.Time  `json:"timestamp"`
}

// RecentAlertLimit caps how many alerts the status view renders.
const RecentAlertLimit = 10

// RecentAlerts returns the newest-first prefix of alerts, at most n
// entries. The input slice is not modified.
func RecentAlerts(alerts []Alert, n int) []Alert {
	sorted := make([]Alert, len(alerts))
	copy(sorted, alerts)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].Timestamp.After(sorted[j-1].Timestamp); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	if n < 0 {
		n = 0
	}
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Snapshot is the canonical in-memory view of the dashboard data.
// Always a value received verbatim from the server; the client never
// patches individual entries.
type Snapshot struct {
	Hosts  []Host      `json:"hosts"`
	Alerts []Alert     `json:"alerts"`
	Groups []HostGroup `json:"groups"`
}

// Clone returns a deep-enough copy: slices are copied so a consumer
// can hold a snapshot across a swap without observing mutation.
// Element structs are copied by value; pointer fields reference
// server-provided data that is never written in place.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Hosts:  make([]Host, len(s.Hosts)),
		Alerts: make([]Alert, len(s.Alerts)),
		Groups: make([]HostGroup, len(s.Groups)),
	}
	copy(out.Hosts, s.Hosts)
	copy(out.Alerts, s.Alerts)
	copy(out.Groups, s.Groups)
	return out
}

// Notification is an ephemeral toast created for each push event. It
// self-destructs after the configured time-to-live.
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
