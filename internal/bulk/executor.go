package bulk

import (
	"context"
	"fmt"
	"time"

	"github.com/onwhisper/guild-pulse/internal/logging"
	"github.com/onwhisper/guild-pulse/internal/metrics"
	"github.com/onwhisper/guild-pulse/internal/remote"
	"github.com/onwhisper/guild-pulse/internal/retry"
	"github.com/onwhisper/guild-pulse/pkg/config"
)

// Executor removes an ordered set of messages in two phases: batched
// calls in groups of GroupSize, then per-item calls for everything the
// batch phase could not confirm. It tolerates throttling and partial
// failure; re-running after a partial run simply finds fewer targets.
type Executor struct {
	client    remote.Client
	policy    retry.Policy
	groupSize int
	pause     time.Duration
	baseDelay time.Duration
	delayCap  time.Duration
	logger    *logging.Logger
	stats     *metrics.Pipeline
}

// NewExecutor creates an Executor. Zero config fields fall back to the
// package defaults.
func NewExecutor(client remote.Client, cfg config.BulkConfig, logger *logging.Logger, stats *metrics.Pipeline) *Executor {
	if cfg.GroupSize <= 0 {
		cfg.GroupSize = 50
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = retry.DefaultBase
	}
	if cfg.DelayCap <= 0 {
		cfg.DelayCap = retry.DefaultCap
	}
	return &Executor{
		client:    client,
		policy:    retry.Policy{Base: cfg.BaseDelay, Cap: cfg.DelayCap},
		groupSize: cfg.GroupSize,
		pause:     cfg.GroupPause,
		baseDelay: cfg.BaseDelay,
		delayCap:  cfg.DelayCap,
		logger:    logger.Named("bulk"),
		stats:     stats,
	}
}

// Run deletes the given messages and returns the number of confirmed
// removals. The count is preserved on every error path; it never exceeds
// len(ids) and never double-counts an item.
func (e *Executor) Run(ctx context.Context, ids []string) (int, error) {
	count := 0

	pending, n, err := e.batchPhase(ctx, ids)
	count += n
	if err != nil {
		return count, err
	}

	n, err = e.individualPhase(ctx, pending)
	count += n
	return count, err
}

// batchPhase deletes in groups. It returns the items it could not
// confirm, which the individual phase picks up. A stale-batch rejection
// ends batching for everything still unprocessed; throttling defers only
// the current group.
func (e *Executor) batchPhase(ctx context.Context, ids []string) ([]string, int, error) {
	count := 0
	attempt := 0
	var pending []string

	for start := 0; start < len(ids); start += e.groupSize {
		end := start + e.groupSize
		if end > len(ids) {
			end = len(ids)
		}
		group := ids[start:end]

		err := e.client.BatchDelete(ctx, group)
		switch {
		case err == nil:
			count += len(group)
			e.stats.Purged.Add(int64(len(group)))
			attempt = 0
			if !e.sleep(ctx, e.pause) {
				return pending, count, ctx.Err()
			}
		case remote.IsStaleBatch(err):
			// The rest of the list is no longer batch-eligible either.
			e.logger.Info("batch no longer eligible, switching to individual deletes")
			return append(pending, ids[start:]...), count, nil
		case remote.IsThrottled(err):
			hint, _ := remote.RetryAfter(err)
			delay := e.policy.Delay(attempt, hint)
			attempt++
			e.logger.Warn(fmt.Sprintf("rate limited during bulk delete, waiting %v", delay))
			if !e.sleep(ctx, delay) {
				return pending, count, ctx.Err()
			}
			// No partial success is assumed for the throttled group.
			pending = append(pending, group...)
		default:
			return pending, count, fmt.Errorf("client.BatchDelete: %w", err)
		}
	}
	return pending, count, nil
}

// individualPhase deletes one item at a time with an adaptive inter-item
// delay: doubled (capped) on throttling, decayed to 75% on every 10th
// success. Already-gone items are skipped; a permission denial aborts the
// whole run since retrying cannot fix it.
func (e *Executor) individualPhase(ctx context.Context, ids []string) (int, error) {
	count := 0
	successes := 0
	delay := e.baseDelay

	for _, id := range ids {
		err := e.client.Delete(ctx, id)
		if remote.IsThrottled(err) {
			hint, _ := remote.RetryAfter(err)
			wait := hint
			if wait <= 0 {
				wait = delay
			}
			e.logger.Warn(fmt.Sprintf("rate limited during individual delete, waiting %v", wait))
			if !e.sleep(ctx, wait) {
				return count, ctx.Err()
			}
			delay = e.grow(delay)
			err = e.client.Delete(ctx, id)
		}

		switch {
		case err == nil:
			count++
			e.stats.Purged.Add(1)
			successes++
			if successes%10 == 0 {
				delay = e.decay(delay)
			}
			if !e.sleep(ctx, delay) {
				return count, ctx.Err()
			}
		case remote.IsNotFound(err):
			// Already gone; neither a success nor a failure.
			continue
		default:
			return count, fmt.Errorf("client.Delete: %w", err)
		}
	}
	return count, nil
}

func (e *Executor) grow(delay time.Duration) time.Duration {
	delay *= 2
	if delay > e.delayCap {
		delay = e.delayCap
	}
	return delay
}

func (e *Executor) decay(delay time.Duration) time.Duration {
	delay = delay * 3 / 4
	if delay < e.baseDelay {
		delay = e.baseDelay
	}
	return delay
}

func (e *Executor) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}
