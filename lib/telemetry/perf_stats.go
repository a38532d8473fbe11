package telemetry

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/process"
	"go.opentelemetry.io/otel"
)

var meter = otel.Meter("ehclient/perf_stats")
var cpuGauge, _ = meter.Float64Gauge("process_cpu_percent")
var rssGauge, _ = meter.Int64Gauge("process_rss_mb")
var heapGauge, _ = meter.Int64Gauge("heap_alloc_mb")
var goroutineGauge, _ = meter.Int64Gauge("goroutine_count")

// InstrumentPerfStats samples this process every interval until ctx is done.
func InstrumentPerfStats(ctx context.Context, interval time.Duration) {
	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		slog.WarnContext(ctx, "perf stats disabled", "err", err)
		return
	}

	go func() {
		var memStats runtime.MemStats
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			cpuPercent, err := proc.CPUPercentWithContext(ctx)
			if err == nil {
				cpuGauge.Record(ctx, cpuPercent)
			}
			memInfo, err := proc.MemoryInfoWithContext(ctx)
			if err == nil {
				rssGauge.Record(ctx, int64(memInfo.RSS/1_000_000))
			}
			runtime.ReadMemStats(&memStats)
			heapGauge.Record(ctx, int64(memStats.HeapAlloc/1_000_000))
			goroutineGauge.Record(ctx, int64(runtime.NumGoroutine()))
		}
	}()
}
