package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"ehclient/cmd/ehclient/commands"
	"ehclient/lib/telemetry"
	"ehclient/lib/util/serviceutil"
)

func main() {
	ctx := serviceutil.SignalContext()

	telemetry.InitSlog(false)
	t, err := telemetry.SetupFromEnv(ctx, "ehclient")
	switch {
	case os.IsNotExist(err):
	case err != nil:
		slog.Warn("failed to setup telemetry", "err", err)
	default:
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			t.Shutdown(shutdownCtx)
		}()
		if t.MeterProvider != nil {
			telemetry.InstrumentPerfStats(ctx, 15*time.Second)
		}
	}

	commands.ExecuteContext(ctx)
}
