// Package app assembles and runs the parley engine: it loads and
// validates configuration, wires every component, and drives the
// process lifecycle including signal handling and configuration reload.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/parley-dev/parley/internal/config"
	"github.com/parley-dev/parley/internal/reload"
)

// RunParams configures the main application loop.
type RunParams struct {
	// ConfigPath is an explicit path to the YAML configuration file.
	// If empty, ResolveConfigPath is called automatically.
	ConfigPath string

	// Version, Commit, and Date are injected at build time via ldflags.
	Version string
	Commit  string
	Date    string
}

func (p RunParams) version() string {
	if p.Version == "" {
		return "dev"
	}
	return p.Version
}

// Run loads configuration, starts the engine, and blocks until a
// shutdown signal arrives. SIGHUP and config file edits trigger a live
// reload of the settings that can change without a restart.
func Run(params RunParams) error {
	return RunContext(context.Background(), params)
}

// RunContext is Run with caller-controlled shutdown: cancelling ctx
// stops the engine the same way a termination signal does. Service
// managers use this to stop the process without sending signals.
func RunContext(ctx context.Context, params RunParams) error {
	cfgPath := params.ConfigPath
	if cfgPath == "" {
		resolved, err := ResolveConfigPath()
		if err != nil {
			return err
		}
		cfgPath = resolved
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	eng, err := buildEngine(cfg, params.version())
	if err != nil {
		return err
	}
	if err := eng.start(); err != nil {
		eng.stop()
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	watcher := reload.NewWatcher(reload.WatcherConfig{ConfigPath: cfgPath})
	watchCtx, watchCancel := context.WithCancel(ctx)
	defer watchCancel()
	watcher.Start(watchCtx)
	defer watcher.Stop()

	applier := reload.NewApplier(eng.logger, eng.logLevel, eng.sessions, eng.pool, cfg)

	for {
		select {
		case <-ctx.Done():
			eng.logger.Info("shutdown requested")
			eng.stop()
			eng.logger.Info("shutdown complete")
			return nil
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGHUP:
				eng.logger.Info("SIGHUP received, reloading configuration")
				if err := applier.Apply(watchCtx, cfgPath); err != nil {
					eng.logger.Error("reload failed", "error", err)
				}
			default:
				eng.logger.Info("shutdown signal received", "signal", sig.String())
				eng.stop()
				eng.logger.Info("shutdown complete")
				return nil
			}
		case evt := <-watcher.Events():
			eng.logger.Info("config file changed, reloading", "path", evt.ConfigPath)
			if err := applier.Apply(watchCtx, cfgPath); err != nil {
				eng.logger.Error("reload failed", "error", err)
			}
		}
	}
}

// ResolveConfigPath searches for a config file in standard locations.
// Search order: $XDG_CONFIG_HOME/parley/parley.yaml →
// ~/.config/parley/parley.yaml → ./parley.yaml
func ResolveConfigPath() (string, error) {
	var candidates []string

	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "parley", "parley.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "parley", "parley.yaml"))
	}

	candidates = append(candidates, "parley.yaml")

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no configuration file found (searched: %v)", candidates)
}
