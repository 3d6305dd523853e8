package observability

import (
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMonitoringManager_CountsRouterTraffic(t *testing.T) {
	// Given a monitoring manager observing router activity
	mm := NewMonitoringManager(slog.Default())

	// When a mix of dispatches, sends and replies is reported
	mm.MessageDispatched("engine/keyevent", []byte(`{}`), true)
	mm.MessageDispatched("ghost", nil, false)
	mm.MessageSent("engine/pointerevent", []byte(`{}`))
	mm.SendFailed("engine/pointerevent")
	mm.ReplySent("engine/lifecycle", []byte(`"pong"`))
	mm.DuplicateReply("engine/lifecycle")
	mm.WorkerRestarted("PumpWorker")

	// Then the snapshot reflects every event exactly once
	stats := mm.GetLatest()
	require.Equal(t, uint64(2), stats.InboundDispatched)
	require.Equal(t, uint64(1), stats.UnhandledChannels)
	require.Equal(t, uint64(1), stats.OutboundSent)
	require.Equal(t, uint64(1), stats.DroppedSends)
	require.Equal(t, uint64(1), stats.RepliesSent)
	require.Equal(t, uint64(1), stats.DuplicateReplies)
	require.Equal(t, uint64(1), stats.WorkerRestarts)
}

func TestMonitoringManager_EngineSampleOverwrites(t *testing.T) {
	// Given a manager with an initial heartbeat sample
	mm := NewMonitoringManager(slog.Default())
	mm.SetEngineStats(64<<20, 1.5, "running")

	// When a newer sample arrives
	mm.SetEngineStats(96<<20, 3.25, "sleeping")

	// Then only the latest sample is visible
	stats := mm.GetLatest()
	require.Equal(t, uint64(96<<20), stats.EngineRSS)
	require.InDelta(t, 3.25, stats.EngineCPU, 0.001)
	require.Equal(t, "sleeping", stats.EngineStatus)
	require.WithinDuration(t, time.Now(), stats.LastEngineSample, time.Second)
}

func TestMonitoringManager_ConcurrentObservers(t *testing.T) {
	// Given many goroutines reporting traffic at once
	mm := NewMonitoringManager(slog.Default())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				mm.MessageDispatched("engine/keyevent", nil, true)
				mm.MessageSent("engine/keyevent", nil)
			}
		}()
	}
	wg.Wait()

	// Then no update is lost
	stats := mm.GetLatest()
	require.Equal(t, uint64(800), stats.InboundDispatched)
	require.Equal(t, uint64(800), stats.OutboundSent)
}

func TestMonitoringManager_StatsProviderExposesSnapshot(t *testing.T) {
	// Given a manager with recorded traffic
	mm := NewMonitoringManager(slog.Default())
	mm.MessageSent("engine/pointerevent", nil)

	// When the debug server asks for the provider map
	provided := mm.StatsProvider()

	// Then the map carries the same counters as the typed snapshot
	require.Equal(t, uint64(1), provided["OutboundSent"])
	require.Contains(t, provided, "EngineRSS")
	require.Contains(t, provided, "AllocMemMb")
}
