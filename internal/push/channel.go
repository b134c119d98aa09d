// Hostbeat - Network Monitoring Dashboard Client
// Copyright 2026 Hostbeat Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hostbeat/hostbeat

/*
channel.go - Push Notification Channel

This file implements the websocket client for the dashboard server's
alert stream. The connection is scoped: whoever opens it closes it, and
the channel never reconnects on its own. Re-acquisition happens only
when the owning supervisor service restarts.
*/

package push

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hostbeat/hostbeat/internal/logging"
	"github.com/hostbeat/hostbeat/internal/metrics"
)

const (
	handshakeTimeout = 10 * time.Second
	readDeadline     = 90 * time.Second
	pingInterval     = 30 * time.Second
	writeTimeout     = 10 * time.Second
)

// Channel holds one websocket connection to the alert stream. Each
// inbound text message is handed to the event callback; messages are
// independent and no ordering is assumed.
type Channel struct {
	urlFn   func() (string, error)
	onEvent func(message string)

	connMu sync.RWMutex
	conn   *websocket.Conn

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// done closes when the listener ends, for any reason.
	done chan struct{}
}

// NewChannel creates a channel. urlFn resolves the stream URL at dial
// time so the credential query reflects the current session. onEvent
// receives each inbound message.
func NewChannel(urlFn func() (string, error), onEvent func(message string)) *Channel {
	return &Channel{
		urlFn:    urlFn,
		onEvent:  onEvent,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Connect dials the alert stream and starts the listen and ping
// goroutines. A channel connects at most once; a failed or closed
// channel is discarded, not redialed.
func (c *Channel) Connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn != nil {
		return nil
	}

	wsURL, err := c.urlFn()
	if err != nil {
		return fmt.Errorf("resolve stream url: %w", err)
	}

	logging.Info().Msg("[push] Connecting to alert stream")

	dialer := websocket.Dialer{
		HandshakeTimeout:  handshakeTimeout,
		EnableCompression: true,
	}

	conn, resp, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("websocket dial failed: %w", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	c.conn = conn
	metrics.PushConnected.Set(1)
	logging.Info().Msg("[push] Connected")

	c.wg.Add(2)
	go c.listen()
	go c.pingLoop()

	return nil
}

// listen reads messages until the connection fails or the channel is
// closed. A read error ends the listener; it does not reconnect.
func (c *Channel) listen() {
	defer c.wg.Done()
	defer close(c.done)

	for {
		select {
		case <-c.stopChan:
			return
		default:
		}

		c.connMu.RLock()
		conn := c.conn
		c.connMu.RUnlock()
		if conn == nil {
			return
		}

		if err := conn.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
			logging.Warn().Err(err).Msg("[push] Failed to set read deadline")
		}

		msgType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Info().Msg("[push] Connection closed normally")
			} else {
				select {
				case <-c.stopChan:
				default:
					logging.Warn().Err(err).Msg("[push] Read error, stream lost")
				}
			}
			c.markDisconnected()
			return
		}

		if msgType != websocket.TextMessage {
			continue
		}

		metrics.PushEventsReceived.Inc()
		if c.onEvent != nil {
			c.onEvent(string(message))
		}
	}
}

// pingLoop keeps the connection alive with periodic control pings.
func (c *Channel) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.RLock()
			conn := c.conn
			c.connMu.RUnlock()
			if conn == nil {
				return
			}

			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				logging.Warn().Err(err).Msg("[push] Ping failed")
				return
			}
		}
	}
}

// Done closes when the listener has ended. The owning service blocks
// on it to notice a lost stream.
func (c *Channel) Done() <-chan struct{} {
	return c.done
}

// IsConnected reports whether the connection is currently open.
func (c *Channel) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.conn != nil
}

func (c *Channel) markDisconnected() {
	c.connMu.Lock()
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
		metrics.PushConnected.Set(0)
	}
	c.connMu.Unlock()
}

// Close sends a close frame, closes the connection, and waits for the
// goroutines to finish. Safe to call more than once.
func (c *Channel) Close() {
	c.stopOnce.Do(func() {
		close(c.stopChan)

		c.connMu.Lock()
		if c.conn != nil {
			_ = c.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeTimeout),
			)
			_ = c.conn.Close()
			c.conn = nil
			metrics.PushConnected.Set(0)
		}
		c.connMu.Unlock()
	})

	c.wg.Wait()
}
