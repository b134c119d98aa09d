// Hostbeat - Network Monitoring Dashboard Client
// Copyright 2026 Hostbeat Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hostbeat/hostbeat

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hostbeat/hostbeat/internal/logging"
	"github.com/hostbeat/hostbeat/internal/push"
)

// Reloader is the slice of the synchronization controller the poller
// needs.
type Reloader interface {
	Reload(ctx context.Context)
}

// PollService reloads the snapshot on a fixed interval. It is the
// periodic source of truth; push events only advance the schedule.
type PollService struct {
	controller Reloader
	interval   time.Duration
}

// NewPollService creates the periodic snapshot poller.
func NewPollService(controller Reloader, interval time.Duration) *PollService {
	return &PollService{controller: controller, interval: interval}
}

// Serve implements suture.Service. The first reload runs immediately.
func (s *PollService) Serve(ctx context.Context) error {
	s.controller.Reload(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.controller.Reload(ctx)
		}
	}
}

func (s *PollService) String() string { return "snapshot-poller" }

// ErrStreamLost is returned when the push channel's listener ends
// while the service is still supposed to be running. Returning it
// makes suture restart the service, which is the only re-acquisition
// path for the stream.
var ErrStreamLost = errors.New("push: alert stream lost")

// PushService owns the push channel lifecycle: dial a fresh channel on
// Serve, close it on the way out.
type PushService struct {
	newChannel func() *push.Channel

	mu      sync.RWMutex
	current *push.Channel
}

// NewPushService creates the push channel service. newChannel builds a
// fresh channel per Serve invocation; a channel is never redialed.
func NewPushService(newChannel func() *push.Channel) *PushService {
	return &PushService{newChannel: newChannel}
}

// Serve implements suture.Service.
func (s *PushService) Serve(ctx context.Context) error {
	ch := s.newChannel()

	if err := ch.Connect(ctx); err != nil {
		return fmt.Errorf("push connect: %w", err)
	}

	s.mu.Lock()
	s.current = ch
	s.mu.Unlock()

	defer func() {
		ch.Close()
		s.mu.Lock()
		s.current = nil
		s.mu.Unlock()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ch.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logging.Warn().Msg("Alert stream lost, restarting push service")
		return ErrStreamLost
	}
}

// Connected reports whether the service currently holds an open
// stream.
func (s *PushService) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil && s.current.IsConnected()
}

func (s *PushService) String() string { return "push-channel" }

// HTTPServer matches *http.Server's lifecycle methods so tests can
// substitute a fake.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// StatusService runs the local status listener as a supervised
// service.
type StatusService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
}

// NewStatusService wraps the status listener's HTTP server.
func NewStatusService(server HTTPServer, shutdownTimeout time.Duration) *StatusService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &StatusService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve implements suture.Service. ListenAndServe blocks in a
// goroutine; cancellation triggers a graceful Shutdown with its own
// deadline since ctx is already canceled.
func (s *StatusService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("status listener failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			logging.Warn().Err(err).Msg("Status listener shutdown failed")
		}
		return ctx.Err()
	}
}

func (s *StatusService) String() string { return "status-listener" }
