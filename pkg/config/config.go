package config

import (
	"io"
	"os"
	"time"

	"github.com/onwhisper/guild-pulse/internal/logging"
)

type Option func(*Config)

type Config struct {
	HTTPAddr    string
	RedisConfig RedisConfig
	Logging     LoggingConfig
	Worker      WorkerConfig
	Bulk        BulkConfig
}

func NewConfig(opts ...Option) Config {
	config := newDefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return config
}

func WithHTTPAddr(addr string) Option {
	return func(c *Config) {
		c.HTTPAddr = addr
	}
}

func WithRedisConfig(config RedisConfig) Option {
	return func(c *Config) {
		c.RedisConfig = config
	}
}

func WithLoggingConfig(config LoggingConfig) Option {
	return func(c *Config) {
		c.Logging = config
	}
}

func WithWorkerConfig(config WorkerConfig) Option {
	return func(c *Config) {
		c.Worker = config
	}
}

func WithBulkConfig(config BulkConfig) Option {
	return func(c *Config) {
		c.Bulk = config
	}
}

func newDefaultConfig() Config {
	redis := RedisConfig{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           1,
		PoolSize:     10,
		StreamName:   "guild_metrics",
		MaxStreamLen: 100_000,
	}
	logging := LoggingConfig{
		Level:  logging.InfoLevel,
		Output: os.Stdout,
	}
	worker := WorkerConfig{
		CollectInterval: time.Minute,
		SampleInterval:  5 * time.Minute,
		FlushInterval:   10 * time.Second,
		FlushAge:        5 * time.Minute,
		BatchSize:       100,
		ChunkSize:       50,
	}
	bulk := BulkConfig{
		GroupSize:  50,
		GroupPause: time.Second,
		BaseDelay:  500 * time.Millisecond,
		DelayCap:   5 * time.Second,
	}

	return Config{
		HTTPAddr:    "127.0.0.1:8080",
		RedisConfig: redis,
		Logging:     logging,
		Worker:      worker,
		Bulk:        bulk,
	}
}

type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	StreamName   string
	MaxStreamLen int64
}

type LoggingConfig struct {
	Level  logging.Level
	Output io.Writer
}

// WorkerConfig drives the two background loops. CollectInterval is the
// collector's tick, SampleInterval the minimum spacing between two samples
// of the same guild. A flush pass runs when the buffer holds BatchSize
// samples or FlushAge has passed since the last pass, whichever is first,
// and writes in ChunkSize pieces.
type WorkerConfig struct {
	CollectInterval time.Duration
	SampleInterval  time.Duration
	FlushInterval   time.Duration
	FlushAge        time.Duration
	BatchSize       int
	ChunkSize       int
}

// BulkConfig drives the purge executor: GroupSize targets per batched
// call, GroupPause between successful batches, BaseDelay/DelayCap bounding
// the adaptive per-item delay.
type BulkConfig struct {
	GroupSize  int
	GroupPause time.Duration
	BaseDelay  time.Duration
	DelayCap   time.Duration
}
