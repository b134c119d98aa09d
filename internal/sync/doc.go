// Hostbeat - Network Monitoring Dashboard Client
// Copyright 2026 Hostbeat Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hostbeat/hostbeat

/*
Package sync keeps a local snapshot of the dashboard server's state.

The Controller owns the canonical Snapshot (hosts, alerts, host groups)
and is the only writer. A Reload fetches all three collections
concurrently and swaps the snapshot in one step on full success; any
failure leaves the previous snapshot in place. Push events and local
mutations never patch the snapshot directly, they schedule a reload
instead, so the snapshot is always a value the server actually served.

Key components:

  - Controller: snapshot holder with Reload, Search, and the mutation
    operations (create, assign group, delete)
  - ScheduleReload: a single coalescing timer used both for the
    post-create settle delay and the push-event debounce
  - SurfacedError: wraps a gateway failure with the message shown to
    the user, preferring the server's detail text over a fixed fallback

Reloads are not serialized. Two overlapping reloads race and the last
one to settle wins, which is safe because each writes a complete
server-provided snapshot. After Close, settling reloads become no-ops.
*/
package sync
