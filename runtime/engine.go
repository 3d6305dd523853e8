// Package runtime owns the engine lifecycle: launching the external renderer
// process, connecting its message transport, pumping inbound platform
// messages into the router, and shutting everything down with a status.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"render-host/contract"
	"render-host/errors"
	"render-host/messaging"
	"render-host/observability"
	"render-host/runtime/workers"
)

// EngineConfig describes how to launch and reach the engine process.
type EngineConfig struct {
	BinPath           string
	Host              string
	Port              int
	LogLevel          string
	DialRetries       int
	DialInterval      time.Duration
	HeartbeatInterval time.Duration
	ShutdownTimeout   time.Duration
}

// Engine is the explicitly owned engine resource: one child process plus one
// connected transport, valid between Start and Stop.
type Engine struct {
	mu         sync.RWMutex
	log        *slog.Logger
	cfg        EngineConfig
	router     *messaging.Router
	transport  contract.Transport
	supervisor contract.ISupervisor
	monitoring *observability.MonitoringManager

	cmd           *exec.Cmd
	cancelWorkers context.CancelFunc
	running       bool
}

func NewEngine(log *slog.Logger, cfg EngineConfig, router *messaging.Router,
	transport contract.Transport, supervisor contract.ISupervisor,
	monitoring *observability.MonitoringManager) *Engine {
	return &Engine{
		log:        log,
		cfg:        cfg,
		router:     router,
		transport:  transport,
		supervisor: supervisor,
		monitoring: monitoring,
	}
}

// Start launches the engine process and blocks until its message endpoint is
// reachable, then attaches the transport to the router and brings up the
// supervised workers (inbound pump, engine health).
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return nil
	}

	// Fail fast before spawning anything
	if _, err := os.Stat(e.cfg.BinPath); err != nil {
		return fmt.Errorf("%w: %s", errors.ErrEngineNotFound, e.cfg.BinPath)
	}

	// The command must not inherit the caller's cancellation: a canceled
	// Start context would SIGKILL the engine behind Stop's back and skip
	// the interrupt-first shutdown.
	cmd := exec.CommandContext(context.WithoutCancel(ctx), e.cfg.BinPath,
		"-host", e.cfg.Host,
		"-port", strconv.Itoa(e.cfg.Port),
		"-level", e.cfg.LogLevel,
	)
	cmd.Stdout = &engineLogWriter{logger: e.log, stream: "stdout"}
	cmd.Stderr = &engineLogWriter{logger: e.log, stream: "stderr", isError: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrEngineStartFailed, err)
	}
	e.log.Info("Engine process launched", "bin", e.cfg.BinPath, "pid", cmd.Process.Pid)

	if err := e.connectWithRetry(ctx); err != nil {
		// Cleanup: prevent zombie processes if the handshake fails
		_ = cmd.Process.Kill()
		return fmt.Errorf("%w on port %d: %v", errors.ErrEngineUnavailable, e.cfg.Port, err)
	}

	e.router.AttachTransport(e.transport)

	pump := NewPumpWorker(e.log, e.router, e.transport)
	health := workers.NewEngineHealthWorker(e.log, int32(cmd.Process.Pid), e.cfg.HeartbeatInterval, e.monitoring)
	e.supervisor.Add(pump, health)

	// The engine owns the worker context so Stop can cancel it even if the
	// supervisor goroutine has not finished its own setup yet.
	workerCtx, cancel := context.WithCancel(ctx)
	e.cancelWorkers = cancel
	go e.supervisor.Run(workerCtx)

	e.cmd = cmd
	e.running = true
	e.log.Info(fmt.Sprintf("Engine is ready on port %d (PID: %d)", e.cfg.Port, cmd.Process.Pid))
	return nil
}

// connectWithRetry dials the engine's message endpoint until it answers,
// absorbing the engine's boot latency.
func (e *Engine) connectWithRetry(ctx context.Context) error {
	retries := e.cfg.DialRetries
	if retries <= 0 {
		retries = 20
	}
	interval := e.cfg.DialInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	var lastErr error
	for i := 0; i < retries; i++ {
		if err := e.transport.Connect(ctx); err == nil {
			return nil
		} else {
			lastErr = err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return fmt.Errorf("engine not responding after %d retries: %w", retries, lastErr)
}

// Running reports whether the engine is started and reachable.
func (e *Engine) Running() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// Stop shuts the engine down and returns a status instead of relying on
// implicit destruction ordering: workers first, then the transport, then the
// process (interrupt, escalating to kill after the shutdown timeout).
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return nil
	}
	e.running = false

	if e.cancelWorkers != nil {
		e.cancelWorkers()
	}
	e.router.DetachTransport()

	var firstErr error
	if err := e.transport.Close(); err != nil {
		firstErr = fmt.Errorf("close transport: %w", err)
	}

	if err := e.stopProcess(ctx); err != nil && firstErr == nil {
		firstErr = err
	}

	e.cmd = nil
	e.log.Info("Engine stopped", "error", firstErr)
	return firstErr
}

// stopProcess interrupts the engine and waits for exit, killing it when the
// shutdown timeout elapses. An exit caused by our own signal is not a failure.
func (e *Engine) stopProcess(ctx context.Context) error {
	if e.cmd == nil || e.cmd.Process == nil {
		return nil
	}

	timeout := e.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	_ = e.cmd.Process.Signal(os.Interrupt)

	waited := make(chan error, 1)
	go func() { waited <- e.cmd.Wait() }()

	select {
	case err := <-waited:
		if _, expected := err.(*exec.ExitError); err != nil && !expected {
			return fmt.Errorf("engine exit: %w", err)
		}
		return nil
	case <-time.After(timeout):
		e.log.Warn("Engine did not exit in time, killing", "pid", e.cmd.Process.Pid)
		_ = e.cmd.Process.Kill()
		<-waited
		return nil
	case <-ctx.Done():
		_ = e.cmd.Process.Kill()
		return ctx.Err()
	}
}
