// Package observability aggregates live counters about router traffic and the
// engine child process for the debug surface.
package observability

import (
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// RouterStats is the aggregate snapshot consumed by the debug server.
type RouterStats struct {
	InboundDispatched uint64 `json:"inbound_dispatched"`
	UnhandledChannels uint64 `json:"unhandled_channels"`
	OutboundSent      uint64 `json:"outbound_sent"`
	RepliesSent       uint64 `json:"replies_sent"`
	DuplicateReplies  uint64 `json:"duplicate_replies"`
	DroppedSends      uint64 `json:"dropped_sends"`
	WorkerRestarts    uint64 `json:"worker_restarts"`

	// --- ENGINE PROCESS ---
	EngineRSS        uint64    `json:"engine_rss"`
	EngineCPU        float64   `json:"engine_cpu"`
	EngineStatus     string    `json:"engine_status"`
	LastEngineSample time.Time `json:"last_engine_sample"`

	// --- HOST PROCESS ---
	AllocMemMb uint64 `json:"alloc_mem_mb"`
	NumGC      uint32 `json:"num_gc"`
}

// MonitoringManager collects telemetry from the router and the heartbeat
// worker. Counter updates are atomic; the engine snapshot is mutex-guarded.
type MonitoringManager struct {
	log *slog.Logger

	inbound    uint64
	unhandled  uint64
	outbound   uint64
	replies    uint64
	duplicates uint64
	dropped    uint64
	restarts   uint64

	mu           sync.RWMutex
	engineRSS    uint64
	engineCPU    float64
	engineStatus string
	lastSample   time.Time
}

func NewMonitoringManager(log *slog.Logger) *MonitoringManager {
	return &MonitoringManager{log: log}
}

// MessageDispatched implements the router observer for inbound traffic.
func (mm *MonitoringManager) MessageDispatched(channel string, payload []byte, handled bool) {
	atomic.AddUint64(&mm.inbound, 1)
	if !handled {
		atomic.AddUint64(&mm.unhandled, 1)
	}
}

func (mm *MonitoringManager) MessageSent(channel string, payload []byte) {
	atomic.AddUint64(&mm.outbound, 1)
}

func (mm *MonitoringManager) ReplySent(channel string, payload []byte) {
	atomic.AddUint64(&mm.replies, 1)
}

func (mm *MonitoringManager) DuplicateReply(channel string) {
	atomic.AddUint64(&mm.duplicates, 1)
}

// SendFailed counts outbound messages refused by the transport.
func (mm *MonitoringManager) SendFailed(channel string) {
	atomic.AddUint64(&mm.dropped, 1)
}

// WorkerRestarted counts supervisor restarts after a worker crash or panic.
func (mm *MonitoringManager) WorkerRestarted(name string) {
	atomic.AddUint64(&mm.restarts, 1)
}

// SetEngineStats stores the latest engine process sample from the heartbeat.
func (mm *MonitoringManager) SetEngineStats(rss uint64, cpu float64, status string) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	mm.engineRSS = rss
	mm.engineCPU = cpu
	mm.engineStatus = status
	mm.lastSample = time.Now()
}

// GetLatest assembles a consistent snapshot of all metrics.
func (mm *MonitoringManager) GetLatest() RouterStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	mm.mu.RLock()
	rss, cpu, status, sampled := mm.engineRSS, mm.engineCPU, mm.engineStatus, mm.lastSample
	mm.mu.RUnlock()

	return RouterStats{
		InboundDispatched: atomic.LoadUint64(&mm.inbound),
		UnhandledChannels: atomic.LoadUint64(&mm.unhandled),
		OutboundSent:      atomic.LoadUint64(&mm.outbound),
		RepliesSent:       atomic.LoadUint64(&mm.replies),
		DuplicateReplies:  atomic.LoadUint64(&mm.duplicates),
		DroppedSends:      atomic.LoadUint64(&mm.dropped),
		WorkerRestarts:    atomic.LoadUint64(&mm.restarts),
		EngineRSS:         rss,
		EngineCPU:         cpu,
		EngineStatus:      status,
		LastEngineSample:  sampled,
		AllocMemMb:        mem.Alloc / 1024 / 1024,
		NumGC:             mem.NumGC,
	}
}

// StatsProvider adapts GetLatest for the debug server.
func (mm *MonitoringManager) StatsProvider() map[string]any {
	stats := mm.GetLatest()
	return map[string]any{
		"InboundDispatched": stats.InboundDispatched,
		"UnhandledChannels": stats.UnhandledChannels,
		"OutboundSent":      stats.OutboundSent,
		"RepliesSent":       stats.RepliesSent,
		"DuplicateReplies":  stats.DuplicateReplies,
		"DroppedSends":      stats.DroppedSends,
		"WorkerRestarts":    stats.WorkerRestarts,
		"EngineRSS":         stats.EngineRSS,
		"EngineCPU":         stats.EngineCPU,
		"EngineStatus":      stats.EngineStatus,
		"LastEngineSample":  stats.LastEngineSample,
		"AllocMemMb":        stats.AllocMemMb,
		"NumGC":             stats.NumGC,
	}
}
