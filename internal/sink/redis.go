package sink

import (
	"context"
	"fmt"

	"github.com/onwhisper/guild-pulse/internal/logging"
	"github.com/onwhisper/guild-pulse/internal/types"
	"github.com/onwhisper/guild-pulse/pkg/config"
	"github.com/redis/go-redis/v9"
)

// RedisSink persists samples into a Redis Stream. The stream is trimmed
// to MaxStreamLen (approximate MAXLEN) so an unattended agent cannot grow
// it without bound.
type RedisSink struct {
	client *redis.Client
	config config.RedisConfig
	log    *logging.Logger
}

// NewRedisSink initializes a RedisSink with the given config and logger.
func NewRedisSink(config config.RedisConfig, logger *logging.Logger) (*RedisSink, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
		PoolSize: config.PoolSize,
	})
	return &RedisSink{client: client, config: config, log: logger}, nil
}

// BatchWrite appends the chunk to the stream in a single pipeline.
func (s *RedisSink) BatchWrite(ctx context.Context, samples []*types.Sample) error {
	if len(samples) == 0 {
		return nil
	}

	tx := s.client.TxPipeline()
	for _, sample := range samples {
		val, err := types.Marshal(sample)
		if err != nil {
			return fmt.Errorf("types.Marshal: %w", err)
		}
		tx.XAdd(ctx, &redis.XAddArgs{
			Stream: s.config.StreamName,
			MaxLen: s.config.MaxStreamLen,
			Approx: true,
			ID:     "*",
			Values: map[string]interface{}{"data": val},
		})
	}

	_, err := tx.Exec(ctx)
	if err != nil {
		return fmt.Errorf("tx.Exec: %w", err)
	}
	s.log.Debug("wrote ", len(samples), " samples to stream ", s.config.StreamName)
	return nil
}

// Close gracefully closes the Redis client connection.
func (s *RedisSink) Close() error {
	return s.client.Close()
}
