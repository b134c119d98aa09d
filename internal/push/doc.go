// Hostbeat - Network Monitoring Dashboard Client
// Copyright 2026 Hostbeat Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hostbeat/hostbeat

/*
Package push receives alert events over the server's websocket stream.

Channel holds one connection to /ws/alerts: a read loop for inbound
text frames, a ping loop for keepalive, and a Done channel that closes
when the stream dies. The channel never reconnects on its own. The
supervisor service that owns it treats stream loss as a service
failure, so reconnection policy (backoff, give-up threshold) lives in
the supervisor tree and nowhere else.

Center holds the active notification list. Each Push arms a TTL timer
that removes the oldest notification, so a burst drains in arrival
order regardless of which timer fires.
*/
package push
