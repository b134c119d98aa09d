// Hostbeat - Network Monitoring Dashboard Client
// Copyright 2026 Hostbeat Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hostbeat/hostbeat

// Package main is the entry point for the Hostbeat client daemon.
//
// Hostbeat keeps a local, always-current view of a network monitoring
// dashboard server: the host inventory, host groups, and the alert
// feed. It maintains the view with a periodic full reload plus a
// websocket push channel that nudges the reload schedule, and exposes
// the result on a local read-only status listener.
//
// # Startup Order
//
//  1. Configuration: Koanf v2 layered sources (defaults, YAML file,
//     environment variables)
//  2. Logging: zerolog with the configured level and format
//  3. Session store: BadgerDB (or in-memory) identity persistence,
//     then session restore with token expiry inspection
//  4. Gateway: REST client with rate limiter and optional circuit
//     breaker
//  5. Synchronization controller, notification center, confirmation
//     workflow, permission gate
//  6. Supervisor tree: snapshot poller, push channel, status listener
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger a graceful shutdown: the supervisor tree
// drains, the controller and notification center are disposed, and the
// session store is closed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hostbeat/hostbeat/internal/authz"
	"github.com/hostbeat/hostbeat/internal/config"
	"github.com/hostbeat/hostbeat/internal/confirm"
	"github.com/hostbeat/hostbeat/internal/gateway"
	"github.com/hostbeat/hostbeat/internal/logging"
	"github.com/hostbeat/hostbeat/internal/push"
	"github.com/hostbeat/hostbeat/internal/session"
	"github.com/hostbeat/hostbeat/internal/statusapi"
	"github.com/hostbeat/hostbeat/internal/supervisor"
	"github.com/hostbeat/hostbeat/internal/sync"
)

var version = "dev"

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	var (
		configPath   = flag.String("config", "", "path to config file (overrides the default search)")
		loginFlag    = flag.String("login", "", "establish a session as user:password before starting")
		registerFlag = flag.String("register", "", "create an account as user:password[:email] and start a session")
		logoutFlag   = flag.Bool("logout", false, "discard the stored session and exit")
		showVersion  = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("hostbeat %s\n", version)
		return
	}

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("server_url", cfg.Server.URL).
		Str("session_store", cfg.Session.Store).
		Msg("Starting Hostbeat")

	// Session store and restore
	store, err := session.NewStore(session.StoreType(cfg.Session.Store), cfg.Session.Path)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open session store")
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logging.Warn().Err(cerr).Msg("Session store close failed")
		}
	}()

	manager := session.NewManager(store)

	// Gateway, with the session manager as the token source
	client := gateway.NewClient(cfg, manager)
	var api gateway.API = client
	if cfg.Gateway.BreakerEnabled {
		api = gateway.NewBreakerClient(client)
	}

	if *logoutFlag {
		runLogout(api, manager)
		return
	}

	switch {
	case *registerFlag != "":
		if err := runRegister(api, manager, *registerFlag); err != nil {
			logging.Fatal().Err(err).Msg("Registration failed")
		}
	case *loginFlag != "":
		if err := runLogin(api, manager, *loginFlag); err != nil {
			logging.Fatal().Err(err).Msg("Login failed")
		}
	default:
		if err := manager.Restore(); err != nil {
			logging.Fatal().Err(err).Msg("Session restore failed")
		}
	}

	if id, ok := manager.Current(); ok {
		logging.Info().Str("username", id.Username).Str("role", string(id.Role)).Msg("Session active")
	} else {
		logging.Info().Msg("No active session, running unauthenticated")
	}

	// Permission gate
	gate, err := authz.NewGate()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build permission gate")
	}

	// Core components
	controller := sync.NewController(api, cfg.Sync.CreateSettle)
	defer controller.Close()

	center := push.NewCenter(cfg.Notifications.TTL)
	defer center.Close()

	workflow := confirm.NewWorkflow(map[confirm.TargetKind]confirm.Deleter{
		confirm.TargetHost:  controller.DeleteHost,
		confirm.TargetGroup: controller.DeleteGroup,
	})

	// Supervisor tree
	tree := supervisor.NewTree(supervisor.DefaultTreeConfig())

	tree.Add(supervisor.NewPollService(controller, cfg.Sync.PollInterval))

	pushSvc := supervisor.NewPushService(func() *push.Channel {
		return push.NewChannel(api.WebSocketURL, func(message string) {
			center.Push(message)
			controller.ScheduleReload(cfg.Sync.PushDebounce)
		})
	})
	tree.Add(pushSvc)

	if cfg.Status.Enabled {
		statusSrv := statusapi.NewServer(&cfg.Status, controller, center, manager, gate, workflow, pushSvc.Connected)
		httpSrv := &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Status.Host, cfg.Status.Port),
			Handler:           statusSrv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		tree.Add(supervisor.NewStatusService(httpSrv, 10*time.Second))
		logging.Info().Str("addr", httpSrv.Addr).Msg("Status listener service added")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	logging.Info().Msg("Hostbeat stopped gracefully")
}

// runLogin exchanges user:password credentials for a session and
// persists it.
func runLogin(api gateway.API, manager *session.Manager, credentials string) error {
	username, password, ok := strings.Cut(credentials, ":")
	if !ok || username == "" || password == "" {
		return errors.New("login flag must be user:password")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := api.Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("%s", gateway.Detail(err, "Login failed"))
	}

	role := authz.Role(strings.ToUpper(string(result.Role)))
	if role == authz.RoleNone {
		// Older servers omit the role claim; the weakest one applies.
		logging.Warn().Msg("Server returned no role, defaulting to VIEWER")
		role = authz.RoleViewer
	}

	return manager.Establish(result.AccessToken, result.Username, role)
}

// runRegister creates an account and persists the resulting session.
func runRegister(api gateway.API, manager *session.Manager, credentials string) error {
	username, rest, ok := strings.Cut(credentials, ":")
	if !ok {
		return errors.New("register flag must be user:password[:email]")
	}
	password, email, _ := strings.Cut(rest, ":")
	if username == "" || password == "" {
		return errors.New("register flag must be user:password[:email]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := api.Register(ctx, username, password, email)
	if err != nil {
		return fmt.Errorf("%s", gateway.Detail(err, "Registration failed"))
	}

	role := authz.Role(strings.ToUpper(string(result.Role)))
	if role == authz.RoleNone {
		role = authz.RoleViewer
	}

	return manager.Establish(result.AccessToken, result.Username, role)
}

// runLogout notifies the server on a best-effort basis and always
// discards the local session.
func runLogout(api gateway.API, manager *session.Manager) {
	if err := manager.Restore(); err != nil {
		logging.Fatal().Err(err).Msg("Session restore failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := api.Logout(ctx); err != nil {
		logging.Warn().Err(err).Msg("Server logout failed, clearing local session anyway")
	}
	if err := manager.Clear(); err != nil {
		logging.Fatal().Err(err).Msg("Failed to clear session")
	}
	logging.Info().Msg("Session cleared")
}
