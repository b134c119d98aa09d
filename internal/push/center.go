// Hostbeat - Network Monitoring Dashboard Client
// Copyright 2026 Hostbeat Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hostbeat/hostbeat

package push

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hostbeat/hostbeat/internal/metrics"
	"github.com/hostbeat/hostbeat/internal/models"
)

// Center holds the transient notifications raised by push events. Each
// push schedules removal of the OLDEST notification after the TTL, so
// a burst drains in arrival order.
type Center struct {
	ttl time.Duration

	mu            sync.Mutex
	notifications []models.Notification
	timers        []*time.Timer
	closed        bool
}

// NewCenter creates a notification center with the given TTL.
func NewCenter(ttl time.Duration) *Center {
	return &Center{ttl: ttl}
}

// Push appends a notification and arms its expiry timer. No-op after
// Close.
func (c *Center) Push(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.notifications = append(c.notifications, models.Notification{
		ID:        uuid.NewString(),
		Message:   message,
		CreatedAt: time.Now(),
	})

	metrics.NotificationsTotal.Inc()
	metrics.NotificationsActive.Set(float64(len(c.notifications)))

	timer := time.AfterFunc(c.ttl, c.expireOldest)
	c.timers = append(c.timers, timer)
}

// expireOldest removes the head of the list. Removal is positional,
// not by id: each armed timer accounts for exactly one notification.
func (c *Center) expireOldest() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || len(c.notifications) == 0 {
		return
	}

	c.notifications = c.notifications[1:]
	if len(c.timers) > 0 {
		c.timers = c.timers[1:]
	}
	metrics.NotificationsActive.Set(float64(len(c.notifications)))
}

// Notifications returns a copy of the current list, oldest first.
func (c *Center) Notifications() []models.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.Notification, len(c.notifications))
	copy(out, c.notifications)
	return out
}

// Close cancels outstanding expiry timers and drops the list.
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true

	for _, t := range c.timers {
		t.Stop()
	}
	c.timers = nil
	c.notifications = nil
	metrics.NotificationsActive.Set(0)
}
