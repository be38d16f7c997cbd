package guildpulse

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/onwhisper/guild-pulse/internal/bulk"
	"github.com/onwhisper/guild-pulse/internal/logging"
	"github.com/onwhisper/guild-pulse/internal/metrics"
	"github.com/onwhisper/guild-pulse/internal/remote"
	"github.com/onwhisper/guild-pulse/internal/retry"
	"github.com/onwhisper/guild-pulse/internal/sink"
	"github.com/onwhisper/guild-pulse/internal/storage"
	"github.com/onwhisper/guild-pulse/internal/workers"
	"github.com/onwhisper/guild-pulse/pkg/config"
)

// Collaborator types re-exported for callers wiring their own gateway
// client or sink.
type (
	RemoteClient = remote.Client
	ScopeSource  = remote.ScopeSource
	Population   = remote.Population
	Sink         = sink.Sink
)

type Option func(*AgentOptions)

type AgentOptions struct {
	logger *logging.Logger
	sink   sink.Sink
}

func WithLogger(logger *logging.Logger) Option {
	return func(ao *AgentOptions) {
		ao.logger = logger
	}
}

func WithSink(s sink.Sink) Option {
	return func(ao *AgentOptions) {
		ao.sink = s
	}
}

// Agent owns the telemetry pipeline: a collector and a flusher sharing
// one sample buffer, a purge executor for bulk message removal, and an
// optional HTTP listener exposing pipeline counters. The gateway client
// and scope source are the caller's collaborators; the sink defaults to
// Redis.
type Agent struct {
	logger *logging.Logger
	sink   sink.Sink

	httpSrv *http.Server

	collectWG sync.WaitGroup
	flushWG   sync.WaitGroup
	buffer    *storage.Buffer
	stats     *metrics.Pipeline
	collector *workers.Collector
	flusher   *workers.Flusher
	executor  *bulk.Executor
}

// NewAgent creates and initializes a new Agent instance around the given
// gateway client and scope source.
func NewAgent(cfg *config.Config, client remote.Client, scopes remote.ScopeSource, opts ...Option) (*Agent, error) {
	var agentOpt AgentOptions
	var err error

	for _, o := range opts {
		o(&agentOpt)
	}

	if agentOpt.logger == nil {
		agentOpt.logger = logging.NewLogger(cfg.Logging.Level, cfg.Logging.Output)
	}
	if agentOpt.sink == nil {
		agentOpt.sink, err = sink.NewRedisSink(cfg.RedisConfig, agentOpt.logger)
		if err != nil {
			return nil, fmt.Errorf("sink.NewRedisSink: %w", err)
		}
	}

	buffer := storage.NewBuffer()
	stats := &metrics.Pipeline{}

	policy := retry.Policy{Base: cfg.Bulk.BaseDelay, Cap: cfg.Bulk.DelayCap}
	collector := workers.NewCollector(client, scopes, buffer, cfg.Worker, agentOpt.logger, stats)
	flusher := workers.NewFlusher(agentOpt.sink, buffer, cfg.Worker, policy, agentOpt.logger, stats)
	executor := bulk.NewExecutor(client, cfg.Bulk, agentOpt.logger, stats)

	agent := &Agent{
		logger:    agentOpt.logger,
		sink:      agentOpt.sink,
		buffer:    buffer,
		stats:     stats,
		collector: collector,
		flusher:   flusher,
		executor:  executor,
	}

	if cfg.HTTPAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(stats, buffer.Len))
		agent.httpSrv = &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: mux,
		}
	}

	return agent, nil
}

// Start launches the background workers and, when configured, the
// metrics HTTP listener.
func (a *Agent) Start() error {
	if a.httpSrv != nil {
		go func() {
			if err := a.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				a.logger.Error(fmt.Sprintf("Failed to start HTTP server: %v", err))
			}
		}()
	}

	a.collector.Start(&a.collectWG)
	a.flusher.Start(&a.flushWG)
	return nil
}

// Shutdown stops the workers in producer-first order: the collector is
// fully stopped before the flusher runs its final drain, so nothing
// appended during the last tick is left behind. The sink closes last.
func (a *Agent) Shutdown() {
	if a.httpSrv != nil {
		a.httpSrv.Shutdown(context.Background())
	}

	a.collector.Shutdown()
	a.collectWG.Wait()

	a.flusher.Shutdown()
	a.flushWG.Wait()

	a.sink.Close()
}

// Purge removes the given messages through the two-phase bulk executor
// and returns the number of confirmed removals. Partial failure returns
// the count confirmed so far alongside the error.
func (a *Agent) Purge(ctx context.Context, messageIDs []string) (int, error) {
	return a.executor.Run(ctx, messageIDs)
}
