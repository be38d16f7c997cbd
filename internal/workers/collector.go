package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/onwhisper/guild-pulse/internal/logging"
	"github.com/onwhisper/guild-pulse/internal/metrics"
	"github.com/onwhisper/guild-pulse/internal/remote"
	"github.com/onwhisper/guild-pulse/internal/storage"
	"github.com/onwhisper/guild-pulse/internal/types"
	"github.com/onwhisper/guild-pulse/pkg/config"
)

// Collector is a background worker that periodically samples the
// population of every guild the agent serves and appends the samples to
// the shared buffer. Each guild is sampled at most once per
// SampleInterval, tracked by a per-guild cursor that only the collector
// touches.
type Collector struct {
	interval    time.Duration
	sampleEvery time.Duration
	done        chan struct{}
	logger      *logging.Logger
	client      remote.Client
	scopes      remote.ScopeSource
	buffer      *storage.Buffer
	stats       *metrics.Pipeline
	cursor      map[string]time.Time
}

// NewCollector creates and returns a new Collector instance.
func NewCollector(client remote.Client, scopes remote.ScopeSource, buffer *storage.Buffer, cfg config.WorkerConfig, logger *logging.Logger, stats *metrics.Pipeline) *Collector {
	return &Collector{
		interval:    cfg.CollectInterval,
		sampleEvery: cfg.SampleInterval,
		done:        make(chan struct{}),
		logger:      logger.Named("collector"),
		client:      client,
		scopes:      scopes,
		buffer:      buffer,
		stats:       stats,
		cursor:      make(map[string]time.Time),
	}
}

// Start launches the Collector in a background goroutine. A failure for
// one guild never aborts the tick for the others, and buffered samples
// survive shutdown for the flusher's final drain.
func (c *Collector) Start(wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-c.done:
				c.logger.Info("Collector done")
				return
			case <-ticker.C:
				c.tick(context.Background())
			}
		}
	}()
}

// Shutdown gracefully stops the Collector by closing the done channel.
func (c *Collector) Shutdown() {
	close(c.done)
}

func (c *Collector) tick(ctx context.Context) {
	guilds, err := c.scopes.Guilds(ctx)
	if err != nil {
		c.logger.Error("scopes.Guilds: ", err.Error())
		return
	}

	for _, guild := range guilds {
		now := time.Now()
		if last, ok := c.cursor[guild]; ok && now.Sub(last) < c.sampleEvery {
			continue
		}

		pop, err := c.client.Snapshot(ctx, guild)
		if err != nil {
			if remote.IsNotFound(err) {
				// Guild vanished between listing and sampling.
				c.logger.Debug("guild gone, dropping cursor: ", guild)
				delete(c.cursor, guild)
				continue
			}
			c.logger.Error(fmt.Sprintf("client.Snapshot %s: %v", guild, err))
			continue
		}

		c.buffer.Append(&types.Sample{
			GuildID:     guild,
			MemberCount: pop.MemberCount,
			ActiveCount: pop.ActiveCount,
			ObservedAt:  now,
		})
		c.stats.Collected.Add(1)
		c.cursor[guild] = now
	}
}
