// Hostbeat - Network Monitoring Dashboard Client
// Copyright 2026 Hostbeat Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hostbeat/hostbeat

/*
Package gateway is the HTTP client for the dashboard server's REST API.

Client implements the API interface: authentication, host and host
group CRUD, alert listing, and derivation of the websocket alert-stream
URL. Every request goes through one JSON helper that injects the bearer
token from the session manager, waits on a client-side rate limiter,
and decodes the server's {"detail": "..."} error body into an APIError.
A 401 additionally unwraps to ErrUnauthenticated.

BreakerClient wraps Client in a circuit breaker so a dead or failing
server stops the request flow quickly. Client errors (4xx) count as
successes for the breaker: a permission-denied storm must not cut off
reads. Both types satisfy API; callers take the interface.
*/
package gateway
