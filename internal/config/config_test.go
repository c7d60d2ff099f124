package config

import (
	"testing"
)

func TestConfig_SetDefaults(t *testing.T) {
	t.Parallel()

	var cfg Config
	cfg.SetDefaults()

	if cfg.Server.ListenAddr != "127.0.0.1:8080" {
		t.Errorf("Server.ListenAddr = %q, want %q", cfg.Server.ListenAddr, "127.0.0.1:8080")
	}
	if cfg.Server.HandshakeTimeout != "10s" {
		t.Errorf("Server.HandshakeTimeout = %q, want %q", cfg.Server.HandshakeTimeout, "10s")
	}
	if cfg.Consumer.Timeout != "300s" {
		t.Errorf("Consumer.Timeout = %q, want %q", cfg.Consumer.Timeout, "300s")
	}
	if cfg.Metrics.ListenAddr != "127.0.0.1:9090" {
		t.Errorf("Metrics.ListenAddr = %q, want %q", cfg.Metrics.ListenAddr, "127.0.0.1:9090")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
}

func TestConfig_SetDefaults_PreservesExplicitValues(t *testing.T) {
	t.Parallel()

	cfg := Config{Server: ServerConfig{ListenAddr: "0.0.0.0:9999"}, LogLevel: "debug"}
	cfg.SetDefaults()

	if cfg.Server.ListenAddr != "0.0.0.0:9999" {
		t.Errorf("Server.ListenAddr = %q, want unchanged %q", cfg.Server.ListenAddr, "0.0.0.0:9999")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want unchanged %q", cfg.LogLevel, "debug")
	}
}
