// Hostbeat - Network Monitoring Dashboard Client
// Copyright 2026 Hostbeat Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hostbeat/hostbeat

// Package confirm implements the two-step confirmation gate in front
// of destructive operations. A delete request parks as pending until
// it is explicitly confirmed or canceled; nothing touches the network
// before confirmation.
package confirm

import (
	"context"
	"errors"
	"sync"

	"github.com/hostbeat/hostbeat/internal/logging"
)

// ErrNoPending is returned when Confirm finds nothing to confirm.
var ErrNoPending = errors.New("confirm: no pending request")

// TargetKind names what a pending deletion targets.
type TargetKind string

const (
	TargetHost  TargetKind = "host"
	TargetGroup TargetKind = "group"
)

// Pending describes a parked deletion request.
type Pending struct {
	Kind  TargetKind
	ID    int64
	Label string
}

// Deleter executes the confirmed deletion.
type Deleter func(ctx context.Context, id int64) error

// Workflow tracks at most one pending request per target kind.
type Workflow struct {
	mu       sync.Mutex
	pending  map[TargetKind]Pending
	deleters map[TargetKind]Deleter
}

// NewWorkflow creates a workflow with the given per-kind deleters.
func NewWorkflow(deleters map[TargetKind]Deleter) *Workflow {
	return &Workflow{
		pending:  make(map[TargetKind]Pending),
		deleters: deleters,
	}
}

// Request parks a deletion for confirmation. A second request of the
// same kind replaces the first: the last request wins.
func (w *Workflow) Request(kind TargetKind, id int64, label string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[kind] = Pending{Kind: kind, ID: id, Label: label}
	logging.Debug().Str("kind", string(kind)).Int64("id", id).Msg("Deletion pending confirmation")
}

// Confirm executes the pending deletion of the given kind. The
// workflow returns to idle whether the deletion succeeds or fails; the
// deleter's error is returned untouched for the caller to surface.
func (w *Workflow) Confirm(ctx context.Context, kind TargetKind) error {
	w.mu.Lock()
	p, ok := w.pending[kind]
	if !ok {
		w.mu.Unlock()
		return ErrNoPending
	}
	delete(w.pending, kind)
	deleter := w.deleters[kind]
	w.mu.Unlock()

	if deleter == nil {
		return ErrNoPending
	}
	return deleter(ctx, p.ID)
}

// Cancel discards the pending request of the given kind, if any.
func (w *Workflow) Cancel(kind TargetKind) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.pending, kind)
}

// Pending returns the parked request of the given kind.
func (w *Workflow) Pending(kind TargetKind) (Pending, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, ok := w.pending[kind]
	return p, ok
}
