// Hostbeat - Network Monitoring Dashboard Client
// Copyright 2026 Hostbeat Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hostbeat/hostbeat

package push

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// alertStream is a minimal websocket endpoint that records connections
// and lets tests feed messages to the newest one.
type alertStream struct {
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns []*websocket.Conn
	dials int
}

func (s *alertStream) handler(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.conns = append(s.conns, conn)
	s.dials++
	s.mu.Unlock()

	// Drain client frames so close handshakes complete.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *alertStream) send(t *testing.T, message string) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.conns) == 0 {
		t.Fatal("no connection to send on")
	}
	conn := s.conns[len(s.conns)-1]
	if err := conn.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
		t.Fatalf("send: %v", err)
	}
}

func (s *alertStream) dialCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dials
}

func (s *alertStream) dropAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conn := range s.conns {
		_ = conn.Close()
	}
	s.conns = nil
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestChannelReceivesMessages(t *testing.T) {
	stream := &alertStream{}
	srv := httptest.NewServer(http.HandlerFunc(stream.handler))
	defer srv.Close()

	received := make(chan string, 4)
	ch := NewChannel(
		func() (string, error) { return wsURL(srv), nil },
		func(msg string) { received <- msg },
	)

	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer ch.Close()

	if !ch.IsConnected() {
		t.Error("IsConnected should be true after Connect")
	}

	stream.send(t, "host db-1 is DOWN")
	stream.send(t, "host db-1 is UP")

	for _, want := range []string{"host db-1 is DOWN", "host db-1 is UP"} {
		select {
		case got := <-received:
			if got != want {
				t.Errorf("received %q, want %q", got, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %q", want)
		}
	}
}

func TestChannelNoReconnectAfterStreamLoss(t *testing.T) {
	stream := &alertStream{}
	srv := httptest.NewServer(http.HandlerFunc(stream.handler))
	defer srv.Close()

	ch := NewChannel(func() (string, error) { return wsURL(srv), nil }, nil)
	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer ch.Close()

	stream.dropAll()

	select {
	case <-ch.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not end after stream loss")
	}

	if ch.IsConnected() {
		t.Error("IsConnected should be false after stream loss")
	}

	// The channel never dials again on its own.
	time.Sleep(100 * time.Millisecond)
	if got := stream.dialCount(); got != 1 {
		t.Errorf("server saw %d dials, want 1", got)
	}
}

func TestChannelConnectFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no stream here", http.StatusNotFound)
	}))
	defer srv.Close()

	ch := NewChannel(func() (string, error) { return wsURL(srv), nil }, nil)
	if err := ch.Connect(context.Background()); err == nil {
		t.Fatal("expected dial error")
	}
	if ch.IsConnected() {
		t.Error("failed dial must leave the channel disconnected")
	}
	ch.Close()
}

func TestChannelCloseIsIdempotent(t *testing.T) {
	stream := &alertStream{}
	srv := httptest.NewServer(http.HandlerFunc(stream.handler))
	defer srv.Close()

	ch := NewChannel(func() (string, error) { return wsURL(srv), nil }, nil)
	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	ch.Close()
	ch.Close()

	if ch.IsConnected() {
		t.Error("IsConnected should be false after Close")
	}
}
