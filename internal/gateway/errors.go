// Hostbeat - Network Monitoring Dashboard Client
// Copyright 2026 Hostbeat Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hostbeat/hostbeat

package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthenticated marks responses rejected for missing or expired
// credentials. Callers match it with errors.Is.
var ErrUnauthenticated = errors.New("gateway: unauthenticated")

// APIError carries a non-2xx server response. Detail holds the
// human-readable message from the response body, empty when the body
// had none.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("server returned status %d", e.StatusCode)
}

// Unwrap lets errors.Is(err, ErrUnauthenticated) match 401 responses.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrUnauthenticated
	}
	return nil
}

// Detail extracts the server's message from an error chain. When the
// error carries no APIError or the APIError has no detail, the
// fallback is returned instead.
func Detail(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}
