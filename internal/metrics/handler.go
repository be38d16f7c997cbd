package metrics

import (
	"fmt"
	"net/http"
)

// Handler exposes the pipeline counters in Prometheus text format.
// The buffered callback reports the current depth of the sample buffer.
func Handler(p *Pipeline, buffered func() int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")

		writeCounter(w, "guildpulse_samples_collected_total", "Samples appended to the buffer", p.Collected.Load())
		writeCounter(w, "guildpulse_samples_flushed_total", "Samples written to the sink", p.Flushed.Load())
		writeCounter(w, "guildpulse_samples_dropped_total", "Samples lost to failed chunk writes", p.Dropped.Load())
		writeCounter(w, "guildpulse_flush_failures_total", "Failed chunk writes", p.FlushFailures.Load())
		writeCounter(w, "guildpulse_messages_purged_total", "Messages removed by bulk runs", p.Purged.Load())

		fmt.Fprintf(w, "# HELP guildpulse_buffer_depth Samples currently buffered\n")
		fmt.Fprintf(w, "# TYPE guildpulse_buffer_depth gauge\n")
		fmt.Fprintf(w, "guildpulse_buffer_depth %d\n", buffered())
	})
}

func writeCounter(w http.ResponseWriter, name, help string, val int64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s counter\n", name)
	fmt.Fprintf(w, "%s %d\n", name, val)
}
