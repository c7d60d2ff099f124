package config

import (
	"testing"
)

func minimalValidConfig() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

func TestValidate_ValidConfig(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidate_BadListenAddr(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Server.ListenAddr = "not-a-host-port"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for malformed listen_addr, got nil")
	}
}

func TestValidate_BadLogLevel(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.LogLevel = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for invalid log_level, got nil")
	}
}

func TestValidate_BadForbiddenPath(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Provider.ForbiddenPaths = []string{"a//b"}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for property path with empty segment, got nil")
	}
}

func TestValidate_PolicyMustCompile(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Provider.Policy = "this is not valid CEL ((("
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for uncompilable policy expression, got nil")
	}
}

func TestValidate_ValidPolicyCompiles(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Provider.Policy = `operation != "set"`
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error for valid policy: %v", err)
	}
}
