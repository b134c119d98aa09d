// Hostbeat - Network Monitoring Dashboard Client
// Copyright 2026 Hostbeat Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hostbeat/hostbeat

package sync

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hostbeat/hostbeat/internal/gateway"
	"github.com/hostbeat/hostbeat/internal/logging"
	"github.com/hostbeat/hostbeat/internal/models"
)

func init() {
	logging.Init(logging.Config{Level: "info", Output: io.Discard})
}

// fakeAPI implements gateway.API with overridable function fields.
// Unset fields return empty successful responses.
type fakeAPI struct {
	listHosts   func(ctx context.Context) ([]models.Host, error)
	searchHosts func(ctx context.Context, name string) ([]models.Host, error)
	createHost  func(ctx context.Context, p gateway.HostPayload) (*models.Host, error)
	updateHost  func(ctx context.Context, id int64, p gateway.HostPayload) (*models.Host, error)
	deleteHost  func(ctx context.Context, id int64) error
	listAlerts  func(ctx context.Context) ([]models.Alert, error)
	listGroups  func(ctx context.Context) ([]models.HostGroup, error)
	createGroup func(ctx context.Context, p gateway.GroupPayload) (*models.HostGroup, error)
	deleteGroup func(ctx context.Context, id int64) error
}

func (f *fakeAPI) Login(ctx context.Context, username, password string) (*gateway.AuthResult, error) {
	return &gateway.AuthResult{}, nil
}

func (f *fakeAPI) Register(ctx context.Context, username, password, email string) (*gateway.AuthResult, error) {
	return &gateway.AuthResult{}, nil
}

func (f *fakeAPI) Logout(ctx context.Context) error { return nil }

func (f *fakeAPI) ListHosts(ctx context.Context) ([]models.Host, error) {
	if f.listHosts != nil {
		return f.listHosts(ctx)
	}
	return nil, nil
}

func (f *fakeAPI) SearchHosts(ctx context.Context, name string) ([]models.Host, error) {
	if f.searchHosts != nil {
		return f.searchHosts(ctx, name)
	}
	return nil, nil
}

func (f *fakeAPI) CreateHost(ctx context.Context, p gateway.HostPayload) (*models.Host, error) {
	if f.createHost != nil {
		return f.createHost(ctx, p)
	}
	return &models.Host{}, nil
}

func (f *fakeAPI) UpdateHost(ctx context.Context, id int64, p gateway.HostPayload) (*models.Host, error) {
	if f.updateHost != nil {
		return f.updateHost(ctx, id, p)
	}
	return &models.Host{}, nil
}

func (f *fakeAPI) DeleteHost(ctx context.Context, id int64) error {
	if f.deleteHost != nil {
		return f.deleteHost(ctx, id)
	}
	return nil
}

func (f *fakeAPI) ListAlerts(ctx context.Context) ([]models.Alert, error) {
	if f.listAlerts != nil {
		return f.listAlerts(ctx)
	}
	return nil, nil
}

func (f *fakeAPI) ListGroups(ctx context.Context) ([]models.HostGroup, error) {
	if f.listGroups != nil {
		return f.listGroups(ctx)
	}
	return nil, nil
}

func (f *fakeAPI) CreateGroup(ctx context.Context, p gateway.GroupPayload) (*models.HostGroup, error) {
	if f.createGroup != nil {
		return f.createGroup(ctx, p)
	}
	return &models.HostGroup{}, nil
}

func (f *fakeAPI) DeleteGroup(ctx context.Context, id int64) error {
	if f.deleteGroup != nil {
		return f.deleteGroup(ctx, id)
	}
	return nil
}

func (f *fakeAPI) WebSocketURL() (string, error) { return "ws://test/ws/alerts", nil }

func twoHosts() []models.Host {
	return []models.Host{
		{ID: 1, Name: "web-1", IP: "10.0.0.1", Status: models.StatusUp},
		{ID: 2, Name: "db-1", IP: "10.0.0.2", Status: models.StatusDown},
	}
}

func TestReloadReplacesSnapshot(t *testing.T) {
	api := &fakeAPI{
		listHosts: func(ctx context.Context) ([]models.Host, error) { return twoHosts(), nil },
		listAlerts: func(ctx context.Context) ([]models.Alert, error) {
			return []models.Alert{{ID: 1, Severity: "CRITICAL", Message: "db-1 unreachable"}}, nil
		},
		listGroups: func(ctx context.Context) ([]models.HostGroup, error) {
			return []models.HostGroup{{ID: 1, Name: "prod"}}, nil
		},
	}
	c := NewController(api, time.Millisecond)
	defer c.Close()

	c.Reload(context.Background())

	snap := c.Snapshot()
	if len(snap.Hosts) != 2 || len(snap.Alerts) != 1 || len(snap.Groups) != 1 {
		t.Errorf("snapshot = %d hosts, %d alerts, %d groups; want 2/1/1",
			len(snap.Hosts), len(snap.Alerts), len(snap.Groups))
	}
	if c.Loading() {
		t.Error("Loading() should be false after reload settles")
	}
}

func TestReloadPartialFailureKeepsSnapshot(t *testing.T) {
	failAlerts := &atomic.Bool{}
	api := &fakeAPI{
		listHosts: func(ctx context.Context) ([]models.Host, error) { return twoHosts(), nil },
		listAlerts: func(ctx context.Context) ([]models.Alert, error) {
			if failAlerts.Load() {
				return nil, errors.New("upstream timeout")
			}
			return []models.Alert{{ID: 1}}, nil
		},
	}
	c := NewController(api, time.Millisecond)
	defer c.Close()

	c.Reload(context.Background())
	if len(c.Snapshot().Hosts) != 2 {
		t.Fatal("seed reload failed")
	}

	// One failing fetch discards the whole response set.
	failAlerts.Store(true)
	api.listHosts = func(ctx context.Context) ([]models.Host, error) { return nil, nil }
	c.Reload(context.Background())

	snap := c.Snapshot()
	if len(snap.Hosts) != 2 || len(snap.Alerts) != 1 {
		t.Errorf("failed reload must keep previous snapshot, got %d hosts %d alerts", len(snap.Hosts), len(snap.Alerts))
	}
	if c.Loading() {
		t.Error("Loading() should be false after a failed reload")
	}
}

func TestSearchReplacesOnlyHosts(t *testing.T) {
	api := &fakeAPI{
		listHosts: func(ctx context.Context) ([]models.Host, error) { return twoHosts(), nil },
		listAlerts: func(ctx context.Context) ([]models.Alert, error) {
			return []models.Alert{{ID: 1}}, nil
		},
		searchHosts: func(ctx context.Context, name string) ([]models.Host, error) {
			return []models.Host{{ID: 1, Name: "web-1", IP: "10.0.0.1"}}, nil
		},
	}
	c := NewController(api, time.Millisecond)
	defer c.Close()

	c.Reload(context.Background())
	c.Search(context.Background(), "web")

	snap := c.Snapshot()
	if len(snap.Hosts) != 1 {
		t.Errorf("filtered snapshot has %d hosts, want 1", len(snap.Hosts))
	}
	if len(snap.Alerts) != 1 {
		t.Error("search must not touch alerts")
	}
	if c.SearchText() != "web" {
		t.Errorf("SearchText = %q, want web", c.SearchText())
	}

	// Empty text restores the unfiltered view.
	c.Search(context.Background(), "")
	if got := len(c.Snapshot().Hosts); got != 2 {
		t.Errorf("unfiltered snapshot has %d hosts, want 2", got)
	}
}

func TestSearchFailureKeepsSnapshot(t *testing.T) {
	api := &fakeAPI{
		listHosts: func(ctx context.Context) ([]models.Host, error) { return twoHosts(), nil },
		searchHosts: func(ctx context.Context, name string) ([]models.Host, error) {
			return nil, errors.New("boom")
		},
	}
	c := NewController(api, time.Millisecond)
	defer c.Close()

	c.Reload(context.Background())
	c.Search(context.Background(), "web")

	if got := len(c.Snapshot().Hosts); got != 2 {
		t.Errorf("failed search must keep hosts, got %d", got)
	}
}

func TestCreateHostSchedulesReload(t *testing.T) {
	var reloads atomic.Int64
	api := &fakeAPI{}
	api.listHosts = func(ctx context.Context) ([]models.Host, error) {
		reloads.Add(1)
		return twoHosts(), nil
	}
	c := NewController(api, 10*time.Millisecond)
	defer c.Close()

	if err := c.CreateHost(context.Background(), gateway.HostPayload{Name: "web-2", IP: "10.0.0.3"}); err != nil {
		t.Fatalf("CreateHost: %v", err)
	}

	// The snapshot is not patched from the creation response; it only
	// changes once the scheduled reload fires.
	if got := len(c.Snapshot().Hosts); got != 0 {
		t.Errorf("snapshot patched locally, got %d hosts before reload", got)
	}

	deadline := time.After(time.Second)
	for reloads.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("scheduled reload never fired")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestCreateHostValidationShortCircuits(t *testing.T) {
	var called atomic.Bool
	api := &fakeAPI{
		createHost: func(ctx context.Context, p gateway.HostPayload) (*models.Host, error) {
			called.Store(true)
			return &models.Host{}, nil
		},
	}
	c := NewController(api, time.Millisecond)
	defer c.Close()

	if err := c.CreateHost(context.Background(), gateway.HostPayload{Name: "bad"}); err == nil {
		t.Fatal("expected validation error")
	}
	if called.Load() {
		t.Error("invalid payload must not reach the server")
	}
}

func TestCreateHostSurfacesServerDetail(t *testing.T) {
	api := &fakeAPI{
		createHost: func(ctx context.Context, p gateway.HostPayload) (*models.Host, error) {
			return nil, &gateway.APIError{StatusCode: http.StatusBadRequest, Detail: "Host 'web-1' already exists"}
		},
	}
	c := NewController(api, time.Millisecond)
	defer c.Close()

	err := c.CreateHost(context.Background(), gateway.HostPayload{Name: "web-1", IP: "10.0.0.1"})
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "Host 'web-1' already exists" {
		t.Errorf("surfaced message = %q, want server detail", err.Error())
	}
}

func TestCreateHostFallbackMessage(t *testing.T) {
	api := &fakeAPI{
		createHost: func(ctx context.Context, p gateway.HostPayload) (*models.Host, error) {
			return nil, errors.New("dial tcp: connection refused")
		},
	}
	c := NewController(api, time.Millisecond)
	defer c.Close()

	err := c.CreateHost(context.Background(), gateway.HostPayload{Name: "web-1", IP: "10.0.0.1"})
	if err == nil || err.Error() != "Error" {
		t.Errorf("surfaced message = %v, want Error fallback", err)
	}
}

func TestDeleteHostFallbackMessage(t *testing.T) {
	api := &fakeAPI{
		deleteHost: func(ctx context.Context, id int64) error {
			return &gateway.APIError{StatusCode: http.StatusForbidden}
		},
	}
	c := NewController(api, time.Millisecond)
	defer c.Close()

	err := c.DeleteHost(context.Background(), 1)
	if err == nil || err.Error() != "Permission denied" {
		t.Errorf("surfaced message = %v, want Permission denied", err)
	}
}

func TestAssignGroupResubmitsHostFields(t *testing.T) {
	var gotPayload gateway.HostPayload
	var gotID int64
	api := &fakeAPI{
		updateHost: func(ctx context.Context, id int64, p gateway.HostPayload) (*models.Host, error) {
			gotID = id
			gotPayload = p
			return &models.Host{}, nil
		},
	}
	c := NewController(api, time.Millisecond)
	defer c.Close()

	host := models.Host{ID: 7, Name: "web-1", IP: "10.0.0.1"}
	groupID := int64(3)
	if err := c.AssignGroup(context.Background(), host, &groupID); err != nil {
		t.Fatalf("AssignGroup: %v", err)
	}

	if gotID != 7 || gotPayload.Name != "web-1" || gotPayload.IP != "10.0.0.1" {
		t.Errorf("update payload = %+v for id %d, want unchanged host fields", gotPayload, gotID)
	}
	if gotPayload.GroupID == nil || *gotPayload.GroupID != 3 {
		t.Errorf("GroupID = %v, want 3", gotPayload.GroupID)
	}
}

func TestAssignGroupFailureLeavesSnapshot(t *testing.T) {
	api := &fakeAPI{
		listHosts: func(ctx context.Context) ([]models.Host, error) { return twoHosts(), nil },
	}
	c := NewController(api, time.Millisecond)
	defer c.Close()
	c.Reload(context.Background())

	api.updateHost = func(ctx context.Context, id int64, p gateway.HostPayload) (*models.Host, error) {
		return nil, &gateway.APIError{StatusCode: http.StatusForbidden, Detail: "Requires USER role"}
	}

	groupID := int64(1)
	err := c.AssignGroup(context.Background(), twoHosts()[0], &groupID)
	if err == nil || err.Error() != "Requires USER role" {
		t.Errorf("surfaced message = %v", err)
	}
	if got := len(c.Snapshot().Hosts); got != 2 {
		t.Errorf("snapshot mutated on failure, %d hosts", got)
	}
}

func TestScheduleReloadCoalesces(t *testing.T) {
	var reloads atomic.Int64
	api := &fakeAPI{}
	api.listHosts = func(ctx context.Context) ([]models.Host, error) {
		reloads.Add(1)
		return nil, nil
	}
	c := NewController(api, time.Millisecond)
	defer c.Close()

	c.ScheduleReload(30 * time.Millisecond)
	c.ScheduleReload(30 * time.Millisecond)
	c.ScheduleReload(30 * time.Millisecond)

	time.Sleep(150 * time.Millisecond)

	if got := reloads.Load(); got != 1 {
		t.Errorf("coalesced schedules fired %d reloads, want 1", got)
	}
}

func TestCloseMakesWritesNoOps(t *testing.T) {
	release := make(chan struct{})
	api := &fakeAPI{
		listHosts: func(ctx context.Context) ([]models.Host, error) {
			<-release
			return twoHosts(), nil
		},
	}
	c := NewController(api, time.Millisecond)

	done := make(chan struct{})
	go func() {
		c.Reload(context.Background())
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	c.Close()
	close(release)
	<-done

	if got := len(c.Snapshot().Hosts); got != 0 {
		t.Errorf("reload settling after Close wrote the snapshot, %d hosts", got)
	}
}

func TestScheduleReloadAfterCloseIsNoOp(t *testing.T) {
	var reloads atomic.Int64
	api := &fakeAPI{}
	api.listHosts = func(ctx context.Context) ([]models.Host, error) {
		reloads.Add(1)
		return nil, nil
	}
	c := NewController(api, time.Millisecond)
	c.Close()

	c.ScheduleReload(5 * time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	if reloads.Load() != 0 {
		t.Error("ScheduleReload after Close must not fire")
	}
}
