package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/onwhisper/guild-pulse/internal/logging"
	"github.com/onwhisper/guild-pulse/internal/metrics"
	"github.com/onwhisper/guild-pulse/internal/remote"
	"github.com/onwhisper/guild-pulse/internal/retry"
	"github.com/onwhisper/guild-pulse/internal/sink"
	"github.com/onwhisper/guild-pulse/internal/storage"
	"github.com/onwhisper/guild-pulse/internal/types"
	"github.com/onwhisper/guild-pulse/pkg/config"
)

// Flusher is a background worker that drains the sample buffer into the
// sink. A pass runs when the buffer reaches BatchSize samples or FlushAge
// has elapsed since the last pass, and writes in ChunkSize pieces so no
// single sink call grows unbounded.
//
// Delivery is at-least-once with chunk granularity: a throttled write is
// retried with capped backoff, any other failure drops the chunk with a
// log line. Telemetry loss must never block the agent's primary work.
type Flusher struct {
	interval  time.Duration
	maxAge    time.Duration
	batchSize int
	chunkSize int
	done      chan struct{}
	logger    *logging.Logger
	buffer    *storage.Buffer
	sink      sink.Sink
	policy    retry.Policy
	stats     *metrics.Pipeline
	lastFlush time.Time
}

// NewFlusher creates and returns a new Flusher instance.
func NewFlusher(s sink.Sink, buffer *storage.Buffer, cfg config.WorkerConfig, policy retry.Policy, logger *logging.Logger, stats *metrics.Pipeline) *Flusher {
	return &Flusher{
		interval:  cfg.FlushInterval,
		maxAge:    cfg.FlushAge,
		batchSize: cfg.BatchSize,
		chunkSize: cfg.ChunkSize,
		done:      make(chan struct{}),
		logger:    logger.Named("flusher"),
		buffer:    buffer,
		sink:      s,
		policy:    policy,
		stats:     stats,
	}
}

// Start launches the Flusher in a background goroutine. On shutdown it
// performs one final best-effort drain, without retries, so buffered
// samples are not silently discarded.
func (f *Flusher) Start(wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		f.lastFlush = time.Now()
		ticker := time.NewTicker(f.interval)
		defer ticker.Stop()
		for {
			select {
			case <-f.done:
				f.finalDrain(context.Background())
				f.logger.Info("Flusher done")
				return
			case <-ticker.C:
				now := time.Now()
				if !f.due(now) {
					continue
				}
				f.flush(context.Background())
				f.lastFlush = now
			}
		}
	}()
}

// Shutdown gracefully stops the Flusher by closing the done channel.
func (f *Flusher) Shutdown() {
	close(f.done)
}

func (f *Flusher) due(now time.Time) bool {
	return now.Sub(f.lastFlush) >= f.maxAge || f.buffer.Len() >= f.batchSize
}

func (f *Flusher) flush(ctx context.Context) {
	for {
		chunk := f.buffer.DrainUpTo(f.chunkSize)
		if len(chunk) == 0 {
			return
		}
		f.writeChunk(ctx, chunk)
		if len(chunk) < f.chunkSize {
			return
		}
	}
}

// writeChunk hands one chunk to the sink. Throttling retries the same
// chunk indefinitely with capped backoff; any other error loses the chunk
// for this attempt.
func (f *Flusher) writeChunk(ctx context.Context, chunk []*types.Sample) {
	for attempt := 0; ; attempt++ {
		err := f.sink.BatchWrite(ctx, chunk)
		if err == nil {
			f.stats.Flushed.Add(int64(len(chunk)))
			return
		}
		if remote.IsThrottled(err) {
			hint, _ := remote.RetryAfter(err)
			delay := f.policy.Delay(attempt, hint)
			f.logger.Warn(fmt.Sprintf("sink throttled, attempt %d, waiting %v", attempt+1, delay))
			select {
			case <-time.After(delay):
				continue
			case <-f.done:
				// Shutting down mid-retry; the final drain handles what
				// is still buffered, this chunk is already out.
				f.dropChunk(len(chunk), err)
				return
			}
		}
		f.dropChunk(len(chunk), err)
		return
	}
}

func (f *Flusher) dropChunk(n int, err error) {
	f.stats.FlushFailures.Add(1)
	f.stats.Dropped.Add(int64(n))
	f.logger.Error(fmt.Sprintf("sink.BatchWrite: dropping %d samples: %v", n, err))
}

// finalDrain empties the buffer once, synchronously and without retries.
func (f *Flusher) finalDrain(ctx context.Context) {
	for {
		chunk := f.buffer.DrainUpTo(f.chunkSize)
		if len(chunk) == 0 {
			return
		}
		if err := f.sink.BatchWrite(ctx, chunk); err != nil {
			f.dropChunk(len(chunk), err)
		} else {
			f.stats.Flushed.Add(int64(len(chunk)))
		}
		if len(chunk) < f.chunkSize {
			return
		}
	}
}
