package config

import (
	"testing"
)

func validConfig() *Config {
	return &Config{
		Store:   StoreConfig{Path: "quill.db"},
		Remote:  RemoteConfig{Backend: "memory"},
		Logging: LoggingConfig{Level: "info"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"empty store path", func(c *Config) { c.Store.Path = "" }, true},
		{"sync without container id", func(c *Config) { c.Remote.SyncEnabled = true }, true},
		{"sync with container id", func(c *Config) {
			c.Remote.SyncEnabled = true
			c.Remote.ContainerID = "com.example.quill"
		}, false},
		{"redis backend", func(c *Config) { c.Remote.Backend = "redis" }, false},
		{"unknown backend", func(c *Config) { c.Remote.Backend = "dynamo" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
