// Hostbeat - Network Monitoring Dashboard Client
// Copyright 2026 Hostbeat Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hostbeat/hostbeat

package models

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestHostStatusNormalize(t *testing.T) {
	tests := []struct {
		in   HostStatus
		want HostStatus
	}{
		{StatusUp, StatusUp},
		{StatusDown, StatusDown},
		{StatusUnknown, StatusUnknown},
		{"unknown", StatusUnknown},
		{"degraded", StatusUnknown},
		{"", StatusUnknown},
	}

	for _, tt := range tests {
		if got := tt.in.Normalize(); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHostWireFormat(t *testing.T) {
	raw := `{"id":1,"name":"srv1","ip":"10.0.0.1","status":"UP","last_seen":"2026-08-30T12:00:00Z","group_id":null}`

	var h Host
	if err := json.Unmarshal([]byte(raw), &h); err != nil {
		t.Fatalf("unmarshal host: %v", err)
	}

	if h.ID != 1 || h.Name != "srv1" || h.IP != "10.0.0.1" {
		t.Errorf("unexpected host fields: %+v", h)
	}
	if h.Status != StatusUp {
		t.Errorf("status = %q, want UP", h.Status)
	}
	if h.GroupID != nil {
		t.Errorf("group_id should be nil, got %v", *h.GroupID)
	}
}

func TestAlertWithDeletedHost(t *testing.T) {
	raw := `{"id":7,"host":null,"severity":"CRITICAL","message":"host unreachable","timestamp":"2026-08-30T12:00:00Z"}`

	var a Alert
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		t.Fatalf("unmarshal alert: %v", err)
	}
	if a.Host != nil {
		t.Errorf("host reference should be nil for deleted host, got %+v", a.Host)
	}
}

func TestRecentAlerts(t *testing.T) {
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	alerts := make([]Alert, 0, 12)
	for i := 0; i < 12; i++ {
		alerts = append(alerts, Alert{
			ID:        int64(i),
			Severity:  "WARNING",
			Message:   "cpu high",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
	}

	recent := RecentAlerts(alerts, RecentAlertLimit)
	if len(recent) != 10 {
		t.Fatalf("expected 10 alerts, got %d", len(recent))
	}
	// Newest first: IDs 11 down to 2.
	if recent[0].ID != 11 {
		t.Errorf("newest alert should be first, got id %d", recent[0].ID)
	}
	if recent[9].ID != 2 {
		t.Errorf("oldest retained alert should be id 2, got %d", recent[9].ID)
	}

	// Input order untouched.
	if alerts[0].ID != 0 {
		t.Error("RecentAlerts must not reorder its input")
	}
}

func TestRecentAlertsShortInput(t *testing.T) {
	recent := RecentAlerts([]Alert{{ID: 1}}, 10)
	if len(recent) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(recent))
	}
	if got := RecentAlerts(nil, 10); len(got) != 0 {
		t.Errorf("expected empty result for nil input, got %d", len(got))
	}
}

func TestSnapshotClone(t *testing.T) {
	snap := Snapshot{
		Hosts:  []Host{{ID: 1, Name: "srv1"}},
		Alerts: []Alert{{ID: 2}},
		Groups: []HostGroup{{ID: 3, Name: "dmz"}},
	}

	clone := snap.Clone()
	clone.Hosts[0].Name = "mutated"
	clone.Groups[0].Name = "mutated"

	if snap.Hosts[0].Name != "srv1" || snap.Groups[0].Name != "dmz" {
		t.Error("mutating a clone must not affect the original snapshot")
	}
}
