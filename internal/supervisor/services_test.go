// Hostbeat - Network Monitoring Dashboard Client
// Copyright 2026 Hostbeat Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hostbeat/hostbeat

package supervisor

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hostbeat/hostbeat/internal/logging"
	"github.com/hostbeat/hostbeat/internal/push"
)

func init() {
	logging.Init(logging.Config{Level: "info", Output: io.Discard})
}

type countingReloader struct {
	count atomic.Int64
}

func (c *countingReloader) Reload(ctx context.Context) { c.count.Add(1) }

func TestPollServiceReloadsOnInterval(t *testing.T) {
	reloader := &countingReloader{}
	svc := NewPollService(reloader, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Millisecond)
	defer cancel()

	err := svc.Serve(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Serve = %v, want deadline exceeded", err)
	}

	// One immediate reload plus several ticks.
	if got := reloader.count.Load(); got < 3 {
		t.Errorf("reloads = %d, want at least 3", got)
	}
}

func TestPushServiceReturnsErrorOnStreamLoss(t *testing.T) {
	upgrader := websocket.Upgrader{}
	var mu sync.Mutex
	var conns []*websocket.Conn

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		mu.Lock()
		conns = append(conns, conn)
		mu.Unlock()
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	svc := NewPushService(func() *push.Channel {
		return push.NewChannel(func() (string, error) { return wsURL, nil }, nil)
	})

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- svc.Serve(context.Background())
	}()

	deadline := time.After(2 * time.Second)
	for !svc.Connected() {
		select {
		case <-deadline:
			t.Fatal("service never connected")
		case <-time.After(5 * time.Millisecond):
		}
	}

	// Dropping the server-side connection must surface as a service
	// error so the supervisor restarts it.
	mu.Lock()
	for _, conn := range conns {
		_ = conn.Close()
	}
	mu.Unlock()

	select {
	case err := <-serveErr:
		if !errors.Is(err, ErrStreamLost) {
			t.Errorf("Serve = %v, want ErrStreamLost", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after stream loss")
	}

	if svc.Connected() {
		t.Error("Connected should be false after Serve returns")
	}
}

func TestPushServiceConnectFailure(t *testing.T) {
	svc := NewPushService(func() *push.Channel {
		return push.NewChannel(func() (string, error) { return "ws://127.0.0.1:1/ws/alerts", nil }, nil)
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := svc.Serve(ctx); err == nil {
		t.Fatal("expected dial error")
	}
	if svc.Connected() {
		t.Error("Connected should be false after a failed dial")
	}
}

type fakeHTTPServer struct {
	started  chan struct{}
	release  chan struct{}
	shutdown atomic.Bool
}

func newFakeHTTPServer() *fakeHTTPServer {
	return &fakeHTTPServer{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (f *fakeHTTPServer) ListenAndServe() error {
	close(f.started)
	<-f.release
	return http.ErrServerClosed
}

func (f *fakeHTTPServer) Shutdown(ctx context.Context) error {
	f.shutdown.Store(true)
	close(f.release)
	return nil
}

func TestStatusServiceGracefulShutdown(t *testing.T) {
	server := newFakeHTTPServer()
	svc := NewStatusService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- svc.Serve(ctx)
	}()

	<-server.started
	cancel()

	select {
	case err := <-serveErr:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}

	if !server.shutdown.Load() {
		t.Error("Shutdown was never called")
	}
}

func TestStatusServiceStartupFailure(t *testing.T) {
	server := &failingHTTPServer{}
	svc := NewStatusService(server, time.Second)

	if err := svc.Serve(context.Background()); err == nil {
		t.Fatal("expected startup error")
	}
}

type failingHTTPServer struct{}

func (f *failingHTTPServer) ListenAndServe() error {
	return errors.New("listen tcp 127.0.0.1:8137: address already in use")
}

func (f *failingHTTPServer) Shutdown(ctx context.Context) error { return nil }
