package config

import (
	redis "github.com/redis/go-redis/v9"
)

// GetRedis returns a redis client for the configured address, or nil when redis is disabled.
func GetRedis(cfg *Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}

	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Protocol: 2,
	})
}
