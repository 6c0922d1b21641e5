package config

import (
	"time"

	"kapsul/utils"
)

type RedisConfig struct {
	URL              string
	MetadataCacheTTL time.Duration
}

func LoadRedisConfig() RedisConfig {
	return RedisConfig{
		URL:              utils.GetEnvAsString("REDIS_URL", "redis://localhost:6379/0"),
		MetadataCacheTTL: utils.GetEnvAsDuration("METADATA_CACHE_TTL", 6*time.Hour),
	}
}
