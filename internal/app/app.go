// Package app wires the preview server together: configuration, logging
// router, script loader, runtime boot, hot reloader, filesystem watcher and
// the HTTP surface.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	server "lantern/server"
	servernet "lantern/server/internal/net"
	"lantern/server/internal/observability"
	"lantern/server/internal/reload"
	"lantern/server/internal/runtime"
	"lantern/server/internal/scripts"
	"lantern/server/internal/telemetry"
	"lantern/server/logging"
	loggingSinks "lantern/server/logging/sinks"
)

type Config struct {
	Server        server.Config
	Logger        telemetry.Logger
	Observability observability.Config
}

func Run(ctx context.Context, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.WrapLogger(log.Default())
	}

	logConfig := logging.DefaultConfig()
	namedSinks := []logging.NamedSink{
		{Name: "console", Sink: loggingSinks.NewConsoleSink(os.Stdout, logConfig.Console)},
	}
	if cfg.Server.LogFile != "" {
		logConfig.JSON.FilePath = cfg.Server.LogFile
		logFile, ferr := os.OpenFile(cfg.Server.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if ferr != nil {
			return fmt.Errorf("open log file %s: %w", cfg.Server.LogFile, ferr)
		}
		defer logFile.Close()
		namedSinks = append(namedSinks, logging.NamedSink{
			Name: "json",
			Sink: loggingSinks.NewJSON(logFile, logConfig.JSON.FlushInterval),
		})
	}
	router, err := logging.NewRouter(nil, logConfig, namedSinks)
	if err != nil {
		return fmt.Errorf("construct logging router: %w", err)
	}
	defer func() {
		if cerr := router.Close(context.Background()); cerr != nil {
			logger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	registry := runtime.NewClassRegistry()
	modules, err := filepath.Glob(filepath.Join(cfg.Server.ModulesDir, "*.json"))
	if err != nil {
		return fmt.Errorf("list modules in %s: %w", cfg.Server.ModulesDir, err)
	}
	loader := scripts.NewLoader(cfg.Server.ProjectPath, modules, registry)

	snapshot, err := loader.ReloadAll(ctx)
	if err != nil {
		return fmt.Errorf("initial load: %w", err)
	}
	sceneName := cfg.Server.InitialScene
	if sceneName == "" {
		if len(snapshot.Scenes) == 0 {
			return fmt.Errorf("project %s declares no scenes", cfg.Server.ProjectPath)
		}
		sceneName = snapshot.Scenes[0].Name
	}

	rt := runtime.New(registry)
	rt.SeedGlobals(snapshot)
	if _, err := rt.PushScene(snapshot, sceneName); err != nil {
		return fmt.Errorf("boot scene: %w", err)
	}

	reloader := reload.NewHotReloader(rt, loader, snapshot, router)
	hub := server.NewHub(rt, reloader, router, cfg.Server)

	watchPaths := append([]string{cfg.Server.ProjectPath}, cfg.Server.ModulesDir)
	watcher, err := scripts.NewWatcher(watchPaths, cfg.Server.DebounceWindow(), func(paths []string) {
		if rerr := hub.TriggerReload(context.Background()); rerr != nil {
			logger.Printf("watch-triggered reload skipped: %v", rerr)
		}
	}, router)
	if err != nil {
		// The preview still works with manual reloads only.
		logger.Printf("filesystem watcher disabled: %v", err)
	} else {
		go watcher.Run(ctx)
		defer watcher.Close()
	}

	stop := make(chan struct{})
	go hub.RunSimulation(stop)
	defer close(stop)

	handler := servernet.NewHTTPHandler(hub, servernet.HTTPHandlerConfig{
		ClientDir:     cfg.Server.ClientDir,
		Logger:        logger,
		Observability: cfg.Observability,
	})

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: handler}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Printf("preview server listening on %s, scene %q", srv.Addr, sceneName)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
