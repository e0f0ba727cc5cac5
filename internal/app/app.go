// Package app wires configuration, logging, the world, the tick loop and the
// HTTP transport into a runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/config"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/follow"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/nav"
	servernet "github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/net"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/net/ws"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/sim"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/telemetry"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/world"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/logging"
	loggingSinks "github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/logging/sinks"
)

const shutdownTimeout = 5 * time.Second

type Config struct {
	Logger  telemetry.Logger
	Server  config.Config
	Stdout  io.Writer
	Speaker follow.Speaker
}

// App is a fully wired server that has not started ticking yet.
type App struct {
	cfg      config.Config
	logger   telemetry.Logger
	router   *logging.Router
	metrics  *logging.Metrics
	world    *world.World
	loop     *sim.Loop
	hub      *ws.Hub
	handler  http.Handler
	closers  []io.Closer
	instance string
}

// New builds every component from cfg.Server. Close releases what New
// opened.
func New(ctx context.Context, cfg Config) (*App, error) {
	telemetryLogger := cfg.Logger
	if telemetryLogger == nil {
		telemetryLogger = telemetry.WrapLogger(log.Default())
	}
	stdout := cfg.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	settings := cfg.Server.Normalized()
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	a := &App{
		cfg:      settings,
		logger:   telemetryLogger,
		metrics:  &logging.Metrics{},
		instance: uuid.NewString(),
	}

	logConfig := settings.Logging.WithField("instance", a.instance)
	sinks := map[string]logging.Sink{
		"console": loggingSinks.NewConsoleSink(stdout, logConfig.Console),
		"memory":  loggingSinks.NewBoundedMemorySink(logConfig.Memory.Limit),
	}
	if logConfig.HasSink("json") {
		f, err := os.OpenFile(logConfig.JSON.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open json log sink: %w", err)
		}
		a.closers = append(a.closers, f)
		sinks["json"] = loggingSinks.NewJSON(f, logConfig.JSON.FlushInterval)
	}

	router, err := logging.NewRouter(logConfig, logging.SystemClock{}, nil, sinks, logging.WithMetrics(a.metrics))
	if err != nil {
		a.closeFiles()
		return nil, fmt.Errorf("failed to construct logging router: %w", err)
	}
	a.router = router

	registry := nav.NewRegistry()
	for _, gridCfg := range settings.Nav {
		grid, err := nav.NewGrid(gridCfg)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		if err := registry.Register(gridCfg.Name, grid); err != nil {
			a.Close(ctx)
			return nil, err
		}
	}
	if names := registry.Names(); len(names) > 0 {
		a.logger.Printf("[nav] registered profiles: %s", strings.Join(names, ", "))
	}

	metrics := telemetry.WrapMetrics(a.metrics)
	w, err := world.New(ctx, settings.World, world.Deps{
		Logger:    telemetryLogger,
		Metrics:   metrics,
		Publisher: router,
		Speaker:   cfg.Speaker,
		Meshes:    registry,
	})
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.world = w

	a.hub = ws.NewHub(telemetryLogger, metrics, nil)
	a.loop = sim.NewLoop(w, settings.Loop.Sim(), sim.LoopHooks{
		AfterStep: func(result sim.LoopStepResult) {
			a.hub.Broadcast(result.Snapshot)
		},
	}, sim.Deps{
		Logger:    telemetryLogger,
		Metrics:   metrics,
		Publisher: router,
	})

	a.handler = servernet.NewHTTPHandler(a.loop, servernet.HTTPHandlerConfig{
		Logger:        telemetryLogger,
		Hub:           a.hub,
		Metrics:       a.metrics,
		Observability: settings.Observability,
	})
	return a, nil
}

// Handler serves the HTTP and websocket surface.
func (a *App) Handler() http.Handler { return a.handler }

// Loop exposes the tick loop.
func (a *App) Loop() *sim.Loop { return a.loop }

// World exposes the simulated world. Only the loop goroutine may mutate it.
func (a *App) World() *world.World { return a.world }

// Router exposes the structured event router.
func (a *App) Router() *logging.Router { return a.router }

// InstanceID identifies this process in every routed event.
func (a *App) InstanceID() string { return a.instance }

// Serve runs the tick loop and the HTTP server until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	loopCtx, stopLoop := context.WithCancel(ctx)
	defer stopLoop()
	go a.loop.Run(loopCtx)

	srv := &http.Server{Addr: a.cfg.Addr, Handler: a.handler}
	errCh := make(chan error, 1)
	go func() {
		a.logger.Printf("server listening on %s (instance %s, %d agents)", srv.Addr, a.instance, len(a.world.AgentIDs()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Close flushes the event router and closes log files.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.router != nil {
		if err := a.router.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to close logging router: %w", err))
		}
	}
	if err := a.closeFiles(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *App) closeFiles() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Run builds the server from cfg and serves until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	a, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(context.Background()); cerr != nil {
			a.logger.Printf("%v", cerr)
		}
	}()
	return a.Serve(ctx)
}
