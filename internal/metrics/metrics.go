package metrics

import "sync/atomic"

// Pipeline holds process-local counters for the telemetry pipeline and
// the purge executor. Workers bump them; the HTTP handler reads them.
type Pipeline struct {
	Collected     atomic.Int64 // samples appended by the collector
	Flushed       atomic.Int64 // samples confirmed written to the sink
	Dropped       atomic.Int64 // samples lost when a chunk write failed
	FlushFailures atomic.Int64 // failed chunk writes
	Purged        atomic.Int64 // messages removed by bulk runs
}
