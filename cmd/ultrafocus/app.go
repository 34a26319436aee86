package main

import (
	"context"
	"fmt"
	"sync"

	"ultrafocus/cmd/ultrafocus/internal/ui"
	"ultrafocus/internal/config"
	"ultrafocus/internal/desktop"
	"ultrafocus/internal/focus"
	"ultrafocus/internal/hook"
	"ultrafocus/internal/logging"
)

// focusApp wires the window system, the hook manager and the orchestrator
// around one shared target slot.
type focusApp struct {
	loader  *config.Loader
	log     *logging.Logger
	crash   *logging.CrashHandler
	manager *hook.Manager
	orch    *focus.Orchestrator
	ch      *focus.Channel

	// selfTitle is fixed at startup; it must keep matching our window.
	selfTitle string

	cancel    context.CancelFunc
	closeOnce sync.Once
}

func newFocusApp(component string) (*focusApp, error) {
	loader := config.NewLoader(configPath)
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", loader.Path(), err)
	}

	log, err := newLogger(cfg, component)
	if err != nil {
		return nil, err
	}
	logging.SetDefault(log)

	crash := logging.NewCrashHandler(&logging.CrashHandlerConfig{
		CrashDir:  logging.DefaultCrashDir(),
		Version:   version,
		Component: component,
		Logger:    log.Logger,
	})

	slot := &hook.TargetSlot{}
	manager := hook.NewManager(hook.NewBackend(), slot)
	manager.SetLogger(log.WithComponent("hook").Logger)
	manager.SetCrashHandler(crash)

	a := &focusApp{
		loader:    loader,
		log:       log,
		crash:     crash,
		manager:   manager,
		ch:        focus.NewChannel(),
		selfTitle: cfg.Focus.SelfTitle,
	}
	a.orch = focus.New(desktop.New(), manager, slot, a.ch, a.settings)
	a.orch.SetLogger(log.WithComponent("focus").Logger)

	a.watchConfig()
	return a, nil
}

func newLogger(cfg *config.Config, component string) (*logging.Logger, error) {
	cfg = cfg.Clone()
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	lc, err := cfg.LoggingConfig(component)
	if err != nil {
		return nil, fmt.Errorf("logging config: %w", err)
	}
	log, err := logging.New(lc)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	return log, nil
}

func (a *focusApp) watchConfig() {
	a.loader.OnChange(func(c *config.Config) {
		a.log.Info("configuration reloaded", "path", a.loader.Path(), "marker", c.Focus.Marker)
	})
	if err := a.loader.Watch(); err != nil {
		a.log.Warn("config hot reload disabled", "path", a.loader.Path(), "error", err)
		return
	}
	go func() {
		for err := range a.loader.Errors() {
			a.log.Warn("config reload failed", "error", err)
		}
	}()
}

// settings is read by the orchestrator at the start of every request.
func (a *focusApp) settings() focus.Settings {
	c := a.loader.Config()
	return focus.Settings{
		Marker:         c.Focus.Marker,
		SelfTitle:      a.selfTitle,
		Fullscreen:     c.Focus.Fullscreen,
		MinimizeOthers: c.Focus.MinimizeOthers,
	}
}

// start runs the orchestrator until ctx is done.
func (a *focusApp) start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)
	go a.crash.Recover(map[string]string{"where": "orchestrator"}, func() {
		if err := a.orch.Run(ctx); err != nil {
			a.log.Error("orchestrator stopped", "error", err)
		}
	})
}

// observe records a result in the log and tags later crash reports with
// its session.
func (a *focusApp) observe(res focus.Result) {
	if res.OK() {
		a.crash.SetSessionID(res.SessionID)
		a.log.WithSession(res.SessionID).Info("focus session active", "message", res.Text)
		return
	}
	a.log.WithSession(res.SessionID).Warn("focus request failed", "message", res.Text)
}

// Close stops the orchestrator, releases the input filters and flushes the
// log. It is safe to call more than once.
func (a *focusApp) Close() {
	a.closeOnce.Do(func() {
		if a.cancel != nil {
			a.cancel()
		}
		a.manager.Stop()
		if err := a.loader.Close(); err != nil {
			a.log.Warn("close config watcher", "error", err)
		}
		a.log.Close()
	})
}

// shutdown records how the window ended, then closes the app and returns
// the process exit code.
func (a *focusApp) shutdown(err error) int {
	if err != nil {
		a.log.Error("window closed with error", "error", err)
	}
	a.Close()
	if err != nil {
		return 1
	}
	return 0
}

// statusOf maps a result onto the status line of the focus window.
func statusOf(res focus.Result) ui.Status {
	if res.OK() {
		return ui.StatusSuccess
	}
	return ui.StatusError
}
