// Hostbeat - Network Monitoring Dashboard Client
// Copyright 2026 Hostbeat Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hostbeat/hostbeat

// Package authz implements the permission gate that decides which
// mutating affordances a role may see. It uses Casbin RBAC with an
// embedded model and policy.
//
// The gate governs affordance visibility only. The server remains the
// authority and independently rejects disallowed mutations; a
// forbidden server response is surfaced like any other mutation
// failure.
package authz

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/hostbeat/hostbeat/internal/logging"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Role is the server-assigned role string, uppercase on the wire.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleUser   Role = "USER"
	RoleViewer Role = "VIEWER"

	// RoleNone is the role of an unauthenticated client. It matches no
	// policy line, so every action is denied.
	RoleNone Role = ""
)

// Action is a gated dashboard mutation.
type Action string

const (
	ActionCreateHost  Action = "create_host"
	ActionDeleteHost  Action = "delete_host"
	ActionAssignGroup Action = "assign_group"
	ActionCreateGroup Action = "create_group"
	ActionDeleteGroup Action = "delete_group"
)

// Actions lists every gated action, for exhaustive checks in tests and
// status output.
func Actions() []Action {
	return []Action{
		ActionCreateHost,
		ActionDeleteHost,
		ActionAssignGroup,
		ActionCreateGroup,
		ActionDeleteGroup,
	}
}

// Gate answers role/action permission questions. It holds no mutable
// state after construction and is safe for concurrent use; CanPerform
// is cheap enough to re-evaluate on every render.
type Gate struct {
	enforcer *casbin.SyncedEnforcer
}

// NewGate creates a Gate from the embedded model and policy.
func NewGate() (*Gate, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("load casbin model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}
	if err := loadEmbeddedPolicy(enforcer, embeddedPolicy); err != nil {
		return nil, fmt.Errorf("load casbin policy: %w", err)
	}

	return &Gate{enforcer: enforcer}, nil
}

// loadEmbeddedPolicy parses and loads the embedded policy CSV.
func loadEmbeddedPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 3 {
			continue
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		switch parts[0] {
		case "p":
			if _, err := enforcer.AddPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("add policy %v: %w", parts[1:], err)
			}
		case "g":
			if _, err := enforcer.AddGroupingPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("add grouping %v: %w", parts[1:], err)
			}
		}
	}
	return nil
}

// CanPerform reports whether role may perform action. Pure read: no
// state, no side effects. Enforcement errors fail closed.
func (g *Gate) CanPerform(role Role, action Action) bool {
	if role == RoleNone {
		return false
	}

	allowed, err := g.enforcer.Enforce(string(role), string(action))
	if err != nil {
		logging.Err(err).Str("role", string(role)).Str("action", string(action)).
			Msg("Enforcement error, denying")
		return false
	}
	return allowed
}

// Allowed returns the subset of gated actions role may perform.
func (g *Gate) Allowed(role Role) []Action {
	var out []Action
	for _, a := range Actions() {
		if g.CanPerform(role, a) {
			out = append(out, a)
		}
	}
	return out
}
