// Package config loads application configuration from flags with
// environment-variable overrides.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration.
type Config struct {
	Store   StoreConfig
	Remote  RemoteConfig
	Logging LoggingConfig
}

// StoreConfig holds local store configuration.
type StoreConfig struct {
	Path string
}

// RemoteConfig holds remote store and sync configuration.
type RemoteConfig struct {
	// Backend selects the record-store implementation: memory or redis.
	Backend string
	// ContainerID names the remote container; required when sync is on.
	ContainerID   string
	RedisAddr     string
	RedisPassword string
	SyncEnabled   bool
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string
}

// Load parses flags and environment variables to build configuration.
func Load() *Config {
	storePath := flag.String("store", "quill.db", "Local store file path")
	remoteBackend := flag.String("remote-backend", "memory", "Remote record store: memory or redis")
	containerID := flag.String("container-id", "", "Remote container identifier")
	redisAddr := flag.String("redis-addr", "localhost:6379", "Redis server address")
	syncEnabled := flag.Bool("sync", false, "Enable remote sync")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	if v := os.Getenv("STORE_PATH"); v != "" {
		*storePath = v
	}
	if v := os.Getenv("REMOTE_BACKEND"); v != "" {
		*remoteBackend = v
	}
	if v := os.Getenv("CONTAINER_ID"); v != "" {
		*containerID = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		*redisAddr = v
	}
	if v := os.Getenv("SYNC_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*syncEnabled = b
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		*logLevel = v
	}

	return &Config{
		Store: StoreConfig{Path: *storePath},
		Remote: RemoteConfig{
			Backend:       *remoteBackend,
			ContainerID:   *containerID,
			RedisAddr:     *redisAddr,
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			SyncEnabled:   *syncEnabled,
		},
		Logging: LoggingConfig{Level: *logLevel},
	}
}

// Validate enforces the environment-class failures that must surface at
// startup rather than at first use.
func (c *Config) Validate() error {
	if c.Store.Path == "" {
		return fmt.Errorf("store path must not be empty")
	}
	if c.Remote.SyncEnabled && c.Remote.ContainerID == "" {
		return fmt.Errorf("sync is enabled but no remote container identifier is configured")
	}
	switch c.Remote.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown remote backend %q", c.Remote.Backend)
	}
	return nil
}
