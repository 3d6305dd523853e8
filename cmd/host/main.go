package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"

	"render-host/internal"
	"render-host/journal"
	"render-host/messaging"
	"render-host/observability"
	"render-host/runtime"
	"render-host/runtime/workers"
	"render-host/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the engine lifecycle, and centralizes
// error reporting. This pattern is preferred over calling os.Exit or panic
// directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for the engine and background workers.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return err
	}
	log := internal.LoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Router, journal and monitoring
	monitoring := observability.NewMonitoringManager(log)
	journalRepo := journal.NewRepository(db, log, config.JournalLimit)

	router := messaging.NewRouter(log)
	router.AddObserver(monitoring)
	router.AddObserver(journal.NewTap(journalRepo, log))

	registerLifecycleChannel(router)

	// 4. Engine resource
	sup := workers.NewSupervisor(log, config.RestartInterval).
		OnRestart(monitoring.WorkerRestarted)
	client := transport.NewClient(transport.Config{
		URL:        fmt.Sprintf("ws://%s:%d/messages", config.EngineHost, config.EnginePort),
		BufferSize: config.TransportBufferSize,
	}, log)

	engine := runtime.NewEngine(log, runtime.EngineConfig{
		BinPath:           config.EngineBinPath,
		Host:              config.EngineHost,
		Port:              config.EnginePort,
		LogLevel:          config.LogLevel,
		DialRetries:       config.DialRetries,
		DialInterval:      config.DialInterval,
		HeartbeatInterval: config.HeartbeatInterval,
		ShutdownTimeout:   config.ShutdownTimeout,
	}, router, client, sup, monitoring)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Start the engine
	if err := engine.Start(ctx); err != nil {
		return fmt.Errorf("engine failed to start: %w", err)
	}

	// 7. Debug surface
	internal.StartDebugServer(db, config.DebugPort, "/inspect", nil, monitoring.StatsProvider)
	log.Info("Debug server started", "url", fmt.Sprintf("http://localhost:%d/inspect", config.DebugPort))

	// 8. Wait for Stop
	<-ctx.Done()
	log.Info("Shutting down gracefully...")

	// 9. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout+time.Second)
	defer cancel()
	if err := engine.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("engine shutdown: %w", err)
	}
	log.Info("Program stopped cleanly")

	return nil
}

// registerLifecycleChannel answers the engine's lifecycle method calls. It is
// also the reference for how embedding features own a channel: construct a
// method channel on the registrar and install a handler.
func registerLifecycleChannel(router *messaging.Router) {
	started := time.Now().UTC()
	channel := messaging.NewMethodChannel(router, "engine/lifecycle")
	channel.SetHandler(func(call messaging.MethodCall) messaging.MethodResult {
		switch call.Method {
		case "ping":
			return messaging.MethodResult{Result: json.RawMessage(`"pong"`)}
		case "uptime":
			uptime, _ := json.Marshal(time.Since(started).String())
			return messaging.MethodResult{Result: uptime}
		default:
			return messaging.MethodResult{Error: "unknown method " + call.Method}
		}
	})
}
