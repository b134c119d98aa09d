// Hostbeat - Network Monitoring Dashboard Client
// Copyright 2026 Hostbeat Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hostbeat/hostbeat

/*
controller.go - Synchronization Controller

This file implements the client's canonical view of server state. The
snapshot is always a value received verbatim from the server; the only
local operations are whole-snapshot or whole-slice replacement. After a
mutation the controller re-fetches instead of patching the snapshot
from the mutation response.
*/

package sync

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hostbeat/hostbeat/internal/gateway"
	"github.com/hostbeat/hostbeat/internal/logging"
	"github.com/hostbeat/hostbeat/internal/metrics"
	"github.com/hostbeat/hostbeat/internal/models"
	"github.com/hostbeat/hostbeat/internal/validation"
)

// Fallback messages surfaced when the server response carries no
// usable detail.
const (
	fallbackMutation = "Error"
	fallbackDelete   = "Permission denied"
)

// SurfacedError carries the message shown to the user while keeping
// the underlying cause in the chain.
type SurfacedError struct {
	Message string
	Err     error
}

func (e *SurfacedError) Error() string { return e.Message }
func (e *SurfacedError) Unwrap() error { return e.Err }

func surfaced(err error, fallback string) error {
	return &SurfacedError{Message: gateway.Detail(err, fallback), Err: err}
}

// Controller owns the canonical snapshot and every read/mutate flow
// against the dashboard server.
type Controller struct {
	api gateway.API
	log zerolog.Logger

	settleDelay time.Duration

	mu         sync.RWMutex
	snapshot   models.Snapshot
	loading    bool
	searchText string
	disposed   bool

	timerMu sync.Mutex
	timer   *time.Timer
}

// NewController creates a controller. settleDelay is the wait before
// the reload scheduled after a successful create.
func NewController(api gateway.API, settleDelay time.Duration) *Controller {
	return &Controller{
		api:         api,
		log:         logging.With().Str("component", "sync").Logger(),
		settleDelay: settleDelay,
	}
}

// Reload fetches hosts, alerts, and groups concurrently and replaces
// the snapshot only when all three succeed. On any failure the
// previous snapshot is retained. Concurrent reloads are not
// serialized: the last one to settle wins.
func (c *Controller) Reload(ctx context.Context) {
	c.setLoading(true)
	defer c.setLoading(false)

	start := time.Now()

	var (
		wg     sync.WaitGroup
		hosts  []models.Host
		alerts []models.Alert
		groups []models.HostGroup

		hostsErr, alertsErr, groupsErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		hosts, hostsErr = c.api.ListHosts(ctx)
	}()
	go func() {
		defer wg.Done()
		alerts, alertsErr = c.api.ListAlerts(ctx)
	}()
	go func() {
		defer wg.Done()
		groups, groupsErr = c.api.ListGroups(ctx)
	}()
	wg.Wait()

	metrics.ReloadDuration.Observe(time.Since(start).Seconds())

	for _, err := range []error{hostsErr, alertsErr, groupsErr} {
		if err != nil {
			metrics.ReloadsTotal.WithLabelValues("failure").Inc()
			c.log.Warn().Err(err).Msg("Snapshot reload failed, keeping previous snapshot")
			return
		}
	}

	c.replaceSnapshot(models.Snapshot{Hosts: hosts, Alerts: alerts, Groups: groups})
	metrics.ReloadsTotal.WithLabelValues("success").Inc()
}

// Search filters the host list by name. Empty text restores the
// unfiltered view via a full reload. Alerts and groups are untouched
// by a non-empty search.
func (c *Controller) Search(ctx context.Context, text string) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.searchText = text
	c.mu.Unlock()

	if text == "" {
		c.Reload(ctx)
		return
	}

	hosts, err := c.api.SearchHosts(ctx, text)
	if err != nil {
		c.log.Warn().Err(err).Str("filter", text).Msg("Host search failed, keeping previous snapshot")
		return
	}

	c.mu.Lock()
	if !c.disposed {
		c.snapshot.Hosts = hosts
		metrics.SnapshotHosts.Set(float64(len(hosts)))
	}
	c.mu.Unlock()
}

// CreateHost validates and submits a new host. On success a reload is
// scheduled after the settle delay; the snapshot is never patched from
// the creation response.
func (c *Controller) CreateHost(ctx context.Context, payload gateway.HostPayload) error {
	if err := validation.ValidateStruct(&payload); err != nil {
		return err
	}

	if _, err := c.api.CreateHost(ctx, payload); err != nil {
		c.log.Error().Err(err).Str("name", payload.Name).Msg("Host create failed")
		return surfaced(err, fallbackMutation)
	}

	c.log.Info().Str("name", payload.Name).Msg("Host created")
	c.ScheduleReload(c.settleDelay)
	return nil
}

// CreateGroup validates and submits a new host group. Reload handling
// matches CreateHost.
func (c *Controller) CreateGroup(ctx context.Context, payload gateway.GroupPayload) error {
	if err := validation.ValidateStruct(&payload); err != nil {
		return err
	}

	if _, err := c.api.CreateGroup(ctx, payload); err != nil {
		c.log.Error().Err(err).Str("name", payload.Name).Msg("Host group create failed")
		return surfaced(err, fallbackMutation)
	}

	c.log.Info().Str("name", payload.Name).Msg("Host group created")
	c.ScheduleReload(c.settleDelay)
	return nil
}

// AssignGroup moves a host into a group (nil clears the assignment).
// The update resubmits the host's current name and address unchanged;
// the server applies the payload as a whole. Success triggers an
// immediate reload, failure leaves the snapshot untouched.
func (c *Controller) AssignGroup(ctx context.Context, host models.Host, groupID *int64) error {
	payload := gateway.HostPayload{
		Name:    host.Name,
		IP:      host.IP,
		GroupID: groupID,
	}

	if _, err := c.api.UpdateHost(ctx, host.ID, payload); err != nil {
		c.log.Error().Err(err).Int64("host_id", host.ID).Msg("Group assignment failed")
		return surfaced(err, fallbackMutation)
	}

	c.Reload(ctx)
	return nil
}

// DeleteHost removes a host and reloads. Callers run this through the
// confirmation workflow, never directly from user input.
func (c *Controller) DeleteHost(ctx context.Context, id int64) error {
	if err := c.api.DeleteHost(ctx, id); err != nil {
		c.log.Error().Err(err).Int64("host_id", id).Msg("Host delete failed")
		return surfaced(err, fallbackDelete)
	}

	c.log.Info().Int64("host_id", id).Msg("Host deleted")
	c.Reload(ctx)
	return nil
}

// DeleteGroup removes a host group and reloads.
func (c *Controller) DeleteGroup(ctx context.Context, id int64) error {
	if err := c.api.DeleteGroup(ctx, id); err != nil {
		c.log.Error().Err(err).Int64("group_id", id).Msg("Host group delete failed")
		return surfaced(err, fallbackDelete)
	}

	c.log.Info().Int64("group_id", id).Msg("Host group deleted")
	c.Reload(ctx)
	return nil
}

// ScheduleReload arms a background reload after delay. A second
// schedule before the timer fires resets it, so bursts coalesce into
// one reload. No-op after Close.
func (c *Controller) ScheduleReload(delay time.Duration) {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()

	if c.isDisposed() {
		return
	}

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(delay, func() {
		c.Reload(context.Background())
	})
}

// Close marks the controller disposed and stops any pending reload
// timer. A reload that settles afterward must not write the snapshot.
func (c *Controller) Close() {
	c.mu.Lock()
	c.disposed = true
	c.mu.Unlock()

	c.timerMu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.timerMu.Unlock()
}

// Snapshot returns a copy of the current snapshot.
func (c *Controller) Snapshot() models.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot.Clone()
}

// Loading reports whether a reload is in flight.
func (c *Controller) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// SearchText returns the active host name filter.
func (c *Controller) SearchText() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.searchText
}

func (c *Controller) isDisposed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.disposed
}

func (c *Controller) setLoading(v bool) {
	c.mu.Lock()
	if !c.disposed {
		c.loading = v
	}
	c.mu.Unlock()
}

// replaceSnapshot swaps the whole snapshot atomically. Writes after
// disposal are no-ops.
func (c *Controller) replaceSnapshot(snap models.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return
	}
	c.snapshot = snap

	metrics.SnapshotHosts.Set(float64(len(snap.Hosts)))
	metrics.SnapshotAlerts.Set(float64(len(snap.Alerts)))
	metrics.SnapshotGroups.Set(float64(len(snap.Groups)))
}
