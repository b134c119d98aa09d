// Hostbeat - Network Monitoring Dashboard Client
// Copyright 2026 Hostbeat Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hostbeat/hostbeat

// Package statusapi serves the local read-only status listener. It
// exposes liveness, a JSON view of the client's state, and Prometheus
// metrics. The bearer token never appears in any response.
package statusapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hostbeat/hostbeat/internal/authz"
	"github.com/hostbeat/hostbeat/internal/config"
	"github.com/hostbeat/hostbeat/internal/confirm"
	"github.com/hostbeat/hostbeat/internal/logging"
	"github.com/hostbeat/hostbeat/internal/models"
	"github.com/hostbeat/hostbeat/internal/session"
)

// SnapshotSource is the view of the synchronization controller the
// listener needs.
type SnapshotSource interface {
	Snapshot() models.Snapshot
	Loading() bool
	SearchText() string
}

// NotificationSource lists the active transient notifications.
type NotificationSource interface {
	Notifications() []models.Notification
}

// IdentitySource reports the active session.
type IdentitySource interface {
	Current() (session.Identity, bool)
}

// ConnectedFunc reports whether the push channel is currently open.
type ConnectedFunc func() bool

// PendingSource exposes the confirmation workflow's parked requests.
type PendingSource interface {
	Pending(kind confirm.TargetKind) (confirm.Pending, bool)
}

// Server is the local status listener.
type Server struct {
	cfg           *config.StatusConfig
	snapshots     SnapshotSource
	notifications NotificationSource
	identity      IdentitySource
	gate          *authz.Gate
	pending       PendingSource
	connected     ConnectedFunc
}

// NewServer wires the listener to its data sources. gate, pending, and
// connected may be nil; the corresponding fields are then omitted or
// zero.
func NewServer(cfg *config.StatusConfig, snapshots SnapshotSource, notifications NotificationSource, identity IdentitySource, gate *authz.Gate, pending PendingSource, connected ConnectedFunc) *Server {
	return &Server{
		cfg:           cfg,
		snapshots:     snapshots,
		notifications: notifications,
		identity:      identity,
		gate:          gate,
		pending:       pending,
		connected:     connected,
	}
}

// Handler builds the chi router for the listener.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	if s.cfg.RateLimitReqs > 0 {
		r.Use(httprate.LimitByIP(s.cfg.RateLimitReqs, s.cfg.RateLimitWindow))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/status", s.handleStatus)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

type healthResponse struct {
	Status        string `json:"status"`
	PushConnected bool   `json:"push_connected"`
}

// identityView is the identity summary without the token.
type identityView struct {
	Username       string         `json:"username"`
	Role           authz.Role     `json:"role"`
	AllowedActions []authz.Action `json:"allowed_actions"`
}

type pendingView struct {
	Kind  confirm.TargetKind `json:"kind"`
	ID    int64              `json:"id"`
	Label string             `json:"label"`
}

type statusResponse struct {
	Identity       *identityView         `json:"identity"`
	Loading        bool                  `json:"loading"`
	SearchText     string                `json:"search_text,omitempty"`
	Hosts          []models.Host         `json:"hosts"`
	Groups         []models.HostGroup    `json:"groups"`
	RecentAlerts   []models.Alert        `json:"recent_alerts"`
	Notifications  []models.Notification `json:"notifications"`
	PendingDeletes []pendingView         `json:"pending_deletes"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if s.connected != nil {
		resp.PushConnected = s.connected()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshots.Snapshot()

	resp := statusResponse{
		Loading:       s.snapshots.Loading(),
		SearchText:    s.snapshots.SearchText(),
		Hosts:         snap.Hosts,
		Groups:        snap.Groups,
		RecentAlerts:  models.RecentAlerts(snap.Alerts, models.RecentAlertLimit),
		Notifications: s.notifications.Notifications(),
	}
	if id, ok := s.identity.Current(); ok {
		view := &identityView{Username: id.Username, Role: id.Role}
		if s.gate != nil {
			view.AllowedActions = s.gate.Allowed(id.Role)
		}
		if view.AllowedActions == nil {
			view.AllowedActions = []authz.Action{}
		}
		resp.Identity = view
	}

	resp.PendingDeletes = []pendingView{}
	if s.pending != nil {
		for _, kind := range []confirm.TargetKind{confirm.TargetHost, confirm.TargetGroup} {
			if p, ok := s.pending.Pending(kind); ok {
				resp.PendingDeletes = append(resp.PendingDeletes, pendingView{Kind: p.Kind, ID: p.ID, Label: p.Label})
			}
		}
	}

	// Empty slices serialize as [] rather than null.
	if resp.Hosts == nil {
		resp.Hosts = []models.Host{}
	}
	if resp.Groups == nil {
		resp.Groups = []models.HostGroup{}
	}
	if resp.RecentAlerts == nil {
		resp.RecentAlerts = []models.Alert{}
	}
	if resp.Notifications == nil {
		resp.Notifications = []models.Notification{}
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn().Err(err).Msg("Failed to encode status response")
	}
}
