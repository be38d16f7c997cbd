package remote

import "context"

// Population is a point-in-time view of one guild's membership.
type Population struct {
	MemberCount int64
	ActiveCount int64
}

// Client is the gateway-facing side of the agent. Implementations are
// expected to surface failures as gRPC status errors so callers can apply
// the classification helpers in this package.
type Client interface {
	// Snapshot returns the current population of a guild.
	// Fails with a NotFound status when the guild no longer exists.
	Snapshot(ctx context.Context, guildID string) (Population, error)

	// BatchDelete removes a group of messages in one call. Fails with a
	// FailedPrecondition status when the group is no longer eligible for
	// batched removal, or a ResourceExhausted status when throttled.
	BatchDelete(ctx context.Context, ids []string) error

	// Delete removes a single message. NotFound means it is already gone.
	Delete(ctx context.Context, id string) error
}

// ScopeSource enumerates the guilds the agent currently serves.
type ScopeSource interface {
	Guilds(ctx context.Context) ([]string, error)
}
