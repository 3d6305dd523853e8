package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/shirou/gopsutil/process"

	"render-host/observability"
)

// EngineHealthWorker periodically samples the engine child process (RSS, CPU,
// OS status) and folds the result into the monitoring manager.
type EngineHealthWorker struct {
	log        *slog.Logger
	pid        int32
	interval   time.Duration
	monitoring *observability.MonitoringManager
}

func NewEngineHealthWorker(log *slog.Logger, pid int32, interval time.Duration,
	monitoring *observability.MonitoringManager) *EngineHealthWorker {
	return &EngineHealthWorker{log: log, pid: pid, interval: interval, monitoring: monitoring}
}

func (w *EngineHealthWorker) Run(ctx context.Context) error {
	w.log.Info("Starting engine health worker", "pid", w.pid)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(w.pid)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rss, cpu, status, err := getEngineStats(p)
			if err != nil {
				w.log.Warn("Failed to sample engine process", "pid", w.pid, "error", err)
				continue
			}
			w.monitoring.SetEngineStats(rss, cpu, status)
		}
	}
}

// getEngineStats retrieves technical metrics (Memory, CPU, and OS Status) for the given process.
func getEngineStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}

	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
