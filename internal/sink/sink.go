package sink

import (
	"context"

	"github.com/onwhisper/guild-pulse/internal/types"
)

// Sink is the durable destination for drained telemetry samples.
type Sink interface {
	// BatchWrite appends one chunk of samples as a unit. A failure must
	// not corrupt previously written chunks. Delivery is at-least-once:
	// duplicates are possible if the process dies mid-write.
	BatchWrite(ctx context.Context, samples []*types.Sample) error

	// Close gracefully closes any open connections.
	Close() error
}
