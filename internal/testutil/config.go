package testutil

import (
	"io"
	"time"

	"github.com/onwhisper/guild-pulse/internal/logging"
	"github.com/onwhisper/guild-pulse/pkg/config"
)

func Config() config.Config {
	redis := config.RedisConfig{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           1,
		PoolSize:     10,
		StreamName:   "test_guild_metrics",
		MaxStreamLen: 1000,
	}
	logger := config.LoggingConfig{
		Level:  logging.InfoLevel,
		Output: io.Discard,
	}
	interval := 10 * time.Millisecond
	worker := config.WorkerConfig{
		CollectInterval: interval,
		SampleInterval:  interval * 5,
		FlushInterval:   interval,
		FlushAge:        interval * 30,
		BatchSize:       100,
		ChunkSize:       50,
	}
	bulk := config.BulkConfig{
		GroupSize:  50,
		GroupPause: time.Millisecond,
		BaseDelay:  time.Millisecond,
		DelayCap:   10 * time.Millisecond,
	}
	return config.Config{
		HTTPAddr:    "127.0.0.1:8080",
		RedisConfig: redis,
		Logging:     logger,
		Worker:      worker,
		Bulk:        bulk,
	}
}
