// Hostbeat - Network Monitoring Dashboard Client
// Copyright 2026 Hostbeat Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hostbeat/hostbeat

package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/hostbeat/hostbeat/internal/logging"
	"github.com/hostbeat/hostbeat/internal/metrics"
	"github.com/hostbeat/hostbeat/internal/models"
)

// BreakerClient wraps Client with a circuit breaker so a dashboard
// server outage cannot pile up blocked requests.
//
// The breaker uses real time for its interval and timeout; tests
// exercise the wrapped client directly and only cover the breaker's
// trip and reject behavior.
type BreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
}

var _ API = (*BreakerClient)(nil)

// NewBreakerClient wraps client with a circuit breaker.
// Configuration:
// - Max 3 concurrent requests in half-open state
// - 1 minute measurement window
// - 30 second timeout before attempting recovery
// - Opens after 60% failure rate with minimum 10 requests
func NewBreakerClient(client *Client) *BreakerClient {
	cbName := "dashboard-api"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6

			if shouldTrip {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			}

			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},

		IsSuccessful: func(err error) bool {
			// Client-side rejections are not server health signals.
			if err == nil {
				return true
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.StatusCode < 500
			}
			return false
		},
	})

	return &BreakerClient{
		client: client,
		cb:     cb,
		name:   cbName,
	}
}

// execute wraps an API call with circuit breaker protection.
func (bc *BreakerClient) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := bc.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(bc.name, "rejected").Inc()
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(bc.name, "failure").Inc()
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(bc.name, "success").Inc()
	return result, nil
}

// castSlice type-casts a breaker result to a slice with error checking.
func castSlice[T any](result interface{}, err error) ([]T, error) {
	if err != nil {
		return nil, err
	}
	typed, ok := result.([]T)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// castResult type-casts a breaker result to a pointer with error checking.
func castResult[T any](result interface{}, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	typed, ok := result.(*T)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func (bc *BreakerClient) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	return castResult[AuthResult](bc.execute(func() (interface{}, error) {
		return bc.client.Login(ctx, username, password)
	}))
}

func (bc *BreakerClient) Register(ctx context.Context, username, password, email string) (*AuthResult, error) {
	return castResult[AuthResult](bc.execute(func() (interface{}, error) {
		return bc.client.Register(ctx, username, password, email)
	}))
}

func (bc *BreakerClient) Logout(ctx context.Context) error {
	_, err := bc.execute(func() (interface{}, error) {
		return nil, bc.client.Logout(ctx)
	})
	return err
}

func (bc *BreakerClient) ListHosts(ctx context.Context) ([]models.Host, error) {
	return castSlice[models.Host](bc.execute(func() (interface{}, error) {
		return bc.client.ListHosts(ctx)
	}))
}

func (bc *BreakerClient) SearchHosts(ctx context.Context, name string) ([]models.Host, error) {
	return castSlice[models.Host](bc.execute(func() (interface{}, error) {
		return bc.client.SearchHosts(ctx, name)
	}))
}

func (bc *BreakerClient) CreateHost(ctx context.Context, payload HostPayload) (*models.Host, error) {
	return castResult[models.Host](bc.execute(func() (interface{}, error) {
		return bc.client.CreateHost(ctx, payload)
	}))
}

func (bc *BreakerClient) UpdateHost(ctx context.Context, id int64, payload HostPayload) (*models.Host, error) {
	return castResult[models.Host](bc.execute(func() (interface{}, error) {
		return bc.client.UpdateHost(ctx, id, payload)
	}))
}

func (bc *BreakerClient) DeleteHost(ctx context.Context, id int64) error {
	_, err := bc.execute(func() (interface{}, error) {
		return nil, bc.client.DeleteHost(ctx, id)
	})
	return err
}

func (bc *BreakerClient) ListAlerts(ctx context.Context) ([]models.Alert, error) {
	return castSlice[models.Alert](bc.execute(func() (interface{}, error) {
		return bc.client.ListAlerts(ctx)
	}))
}

func (bc *BreakerClient) ListGroups(ctx context.Context) ([]models.HostGroup, error) {
	return castSlice[models.HostGroup](bc.execute(func() (interface{}, error) {
		return bc.client.ListGroups(ctx)
	}))
}

func (bc *BreakerClient) CreateGroup(ctx context.Context, payload GroupPayload) (*models.HostGroup, error) {
	return castResult[models.HostGroup](bc.execute(func() (interface{}, error) {
		return bc.client.CreateGroup(ctx, payload)
	}))
}

func (bc *BreakerClient) DeleteGroup(ctx context.Context, id int64) error {
	_, err := bc.execute(func() (interface{}, error) {
		return nil, bc.client.DeleteGroup(ctx, id)
	})
	return err
}

// WebSocketURL never touches the network, so it bypasses the breaker.
func (bc *BreakerClient) WebSocketURL() (string, error) {
	return bc.client.WebSocketURL()
}

// State returns the breaker's current state.
func (bc *BreakerClient) State() gobreaker.State {
	return bc.cb.State()
}

func stateToString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
