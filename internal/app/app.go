package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lcalzada-xor/softapd/internal/adapters/diagnostics"
	"github.com/lcalzada-xor/softapd/internal/adapters/driver"
	"github.com/lcalzada-xor/softapd/internal/adapters/notify"
	"github.com/lcalzada-xor/softapd/internal/adapters/storage"
	"github.com/lcalzada-xor/softapd/internal/adapters/web"
	"github.com/lcalzada-xor/softapd/internal/broadcast"
	"github.com/lcalzada-xor/softapd/internal/config"
	"github.com/lcalzada-xor/softapd/internal/core/domain"
	"github.com/lcalzada-xor/softapd/internal/core/ports"
	"github.com/lcalzada-xor/softapd/internal/core/softap"
	"github.com/lcalzada-xor/softapd/internal/telemetry"
)

// Application wires the soft AP lifecycle to its adapters. It owns at
// most one lifecycle at a time.
type Application struct {
	Config      *config.Config
	Store       *storage.SQLiteConfigStore
	Broadcaster *broadcast.Broadcaster
	WebServer   *web.Server
	Driver      ports.NativeDriver
	Diagnostics ports.Diagnostics
	Notifier    *notify.LogNotifier

	capability *domain.Capability

	mu      sync.Mutex
	current *softap.SoftApLifecycle
}

// New creates an Application instance and bootstraps its components.
func New(cfg *config.Config) (*Application, error) {
	app := &Application{
		Config: cfg,
	}

	if err := app.bootstrap(); err != nil {
		return nil, fmt.Errorf("application bootstrap failed: %w", err)
	}

	return app, nil
}

func (app *Application) bootstrap() error {
	telemetry.InitMetrics()

	if err := os.MkdirAll(filepath.Dir(app.Config.DBPath), 0755); err != nil {
		return fmt.Errorf("failed to create DB directory: %w", err)
	}
	store, err := storage.NewSQLiteConfigStore(app.Config.DBPath)
	if err != nil {
		return fmt.Errorf("failed to init config store: %w", err)
	}
	app.Store = store

	if err := app.initDriver(); err != nil {
		return err
	}

	if app.Config.PcapDir != "" {
		app.Diagnostics = diagnostics.NewPcapLogger(app.Config.PcapDir)
	} else {
		app.Diagnostics = diagnostics.Nop{}
	}

	app.Notifier = notify.NewLogNotifier()
	app.Broadcaster = broadcast.New()
	app.WebServer = web.NewServer(app.Config.Addr, app.Current, app.Broadcaster)

	return nil
}

func (app *Application) initDriver() error {
	if app.Config.MockMode {
		log.Println("Mock Mode Active: virtualizing AP hardware")
		app.Driver = driver.NewMockDriver()
		app.capability = &domain.Capability{
			MaxSupportedClients: 16,
			Features: domain.FeatureMacAddressCustomization |
				domain.FeatureClientForceDisconnect |
				domain.FeatureAcsOffload,
			AvailableBands: domain.Band2GHz | domain.Band5GHz | domain.Band6GHz,
		}
		return nil
	}
	return fmt.Errorf("no native AP driver on this build; run with -mock")
}

// Current returns the active lifecycle, or nil.
func (app *Application) Current() *softap.SoftApLifecycle {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.current
}

// StartSoftAp creates a lifecycle for cfg and makes it current. A nil
// cfg falls back to the stored default inside the lifecycle. The lock
// is not held across New: start callbacks can fire during it.
func (app *Application) StartSoftAp(cfg *domain.ApConfiguration) (*softap.SoftApLifecycle, error) {
	app.mu.Lock()
	if app.current != nil {
		app.mu.Unlock()
		return nil, fmt.Errorf("a soft AP session already exists")
	}
	app.mu.Unlock()

	role := domain.Role{Mode: app.Config.Mode, Requestor: app.Config.Requestor}
	l := softap.New(cfg, app.capability, role, app.Config.Requestor, softap.Deps{
		Driver:  app.Driver,
		Planner: driver.SimplePlanner{},
		Capabilities: driver.StaticCapabilityProvider{
			ShutdownMillis:    app.Config.ShutdownTimeoutMillis,
			BridgedIdleMillis: app.Config.BridgedIdleMillis,
		},
		Store:       app.Store,
		Notifier:    app.Notifier,
		Coex:        driver.NopCoexAdvisor{},
		Diagnostics: app.Diagnostics,
		Observer:    app.Broadcaster,
		Callback:    app,
		CountryCode: app.Config.CountryCode,
	})
	l.EnableVerboseLogging(app.Config.Debug)

	if st := l.Status(); st.State == "quit" || st.ApState.State == domain.StateFailed {
		return nil, fmt.Errorf("soft AP start failed: %s", st.ApState.Reason)
	}

	app.mu.Lock()
	app.current = l
	app.mu.Unlock()
	telemetry.SessionsStarted.WithLabelValues(role.Mode.String()).Inc()
	telemetry.SessionActive.Set(1)
	return l, nil
}

// StopSoftAp tears down the current session, if any.
func (app *Application) StopSoftAp() {
	app.mu.Lock()
	l := app.current
	app.mu.Unlock()
	if l != nil {
		l.Stop()
	}
}

// OnStarted implements ports.LifecycleCallback.
func (app *Application) OnStarted(id string) {
	slog.Info("Soft AP started", "id", id)
}

// OnStartFailure implements ports.LifecycleCallback.
func (app *Application) OnStartFailure(id string) {
	slog.Error("Soft AP start failed", "id", id)
	app.clearCurrent(id)
}

// OnStopped implements ports.LifecycleCallback.
func (app *Application) OnStopped(id string) {
	slog.Info("Soft AP stopped", "id", id)
	app.clearCurrent(id)
}

func (app *Application) clearCurrent(id string) {
	app.mu.Lock()
	defer app.mu.Unlock()
	if app.current != nil && app.current.ID() == id {
		app.current = nil
		telemetry.SessionActive.Set(0)
	}
}

// Run starts the ops server and the initial soft AP session, then
// blocks until ctx is cancelled or a component fails.
func (app *Application) Run(ctx context.Context) error {
	slog.Info("Starting softapd components...")

	errChan := make(chan error, 1)
	go func() {
		if err := app.WebServer.Run(ctx); err != nil {
			errChan <- fmt.Errorf("ops server error: %w", err)
		}
	}()

	if _, err := app.StartSoftAp(app.defaultConfiguration()); err != nil {
		return err
	}

	slog.Info("softapd ready", "addr", app.Config.Addr)

	select {
	case <-ctx.Done():
		slog.Info("Termination signal received")
	case err := <-errChan:
		app.cleanup()
		return err
	}

	return app.cleanup()
}

// defaultConfiguration prefers the stored default; a fresh install gets
// a config built from the command line and persists it.
func (app *Application) defaultConfiguration() *domain.ApConfiguration {
	if stored, err := app.Store.DefaultConfig(); err == nil {
		return stored
	}

	cfg := &domain.ApConfiguration{
		SSID:                                "softapd",
		Bands:                               app.Config.Bands,
		Security:                            domain.SecurityOpen,
		MaxClients:                          app.Config.MaxClients,
		ShutdownTimeoutMillis:               app.Config.ShutdownTimeoutMillis,
		AutoShutdownEnabled:                 true,
		BridgedOpportunisticShutdownEnabled: true,
	}
	if err := app.Store.SaveDefaultConfig(cfg); err != nil {
		log.Printf("Warning: could not persist default configuration: %v", err)
	}
	return cfg
}

func (app *Application) cleanup() error {
	slog.Info("Cleaning up resources...")

	app.StopSoftAp()

	// Give the teardown path a moment to run before closing shared
	// resources.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if app.Current() == nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	if closer, ok := app.Diagnostics.(interface{ Close() }); ok {
		closer.Close()
	}
	app.Broadcaster.Shutdown()
	if err := app.Store.Close(); err != nil {
		log.Printf("Warning: closing config store: %v", err)
	}
	return nil
}
