package footprint

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/bool64/ctxd"
)

// DefaultInterval is the default interval between two reports.
const DefaultInterval = 100 * time.Millisecond

// Probe returns the key-value pairs to be added to a report.
type Probe func() []any

// Track writes the resources usage and the results of the probes to log at every interval until the context is done.
func Track(ctx context.Context, log ctxd.Logger, interval time.Duration, probes ...Probe) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			// See: https://golang.org/pkg/runtime/#MemStats
			var m runtime.MemStats

			runtime.ReadMemStats(&m)

			log.Debug(ctx, "memory usage",
				"alloc_mb", formatB(m.Alloc),
				"total_alloc_mb", formatB(m.TotalAlloc),
				"sys_mb", formatB(m.Sys),
				"num_gc", m.NumGC,
				"num_goroutine", runtime.NumGoroutine(),
			)

			if len(probes) == 0 {
				continue
			}

			fields := make([]any, 0)

			for _, p := range probes {
				fields = append(fields, p()...)
			}

			log.Debug(ctx, "progress", fields...)
		}
	}
}

func formatB(b uint64) string {
	return fmt.Sprintf("%dMiB", b/1024/1024) // nolint: gomnd // bytes conversion.
}
