package config

import (
	"github.com/canvasflow/canvasflow/analytics"
	"github.com/canvasflow/canvasflow/persistence/redis"
)

type StorageType string

const STORAGE_TYPE_REDIS StorageType = "redis"
const STORAGE_TYPE_INMEM StorageType = "memory"

type Config struct {
	RedisConfig       redis.Config
	HttpPort          int
	StorageType       StorageType
	MaxRetries        int
	RetryDelaySeconds int
	ScriptTimeoutSecs int
	ExecutorCapacity  int
	AnalyticsConfig   analytics.DataCollectorConfig
}
