// Package config provides configuration types for remobj-go.
//
// It intentionally stays small: a remobj deployment is a single provider or
// consumer process bound to one transport, not a multi-tenant gateway. There
// is no admin UI, no multi-upstream routing, no persisted session store —
// the module has no Non-goal excluding configuration itself, so what remains
// is loaded the way the teacher loads everything else: YAML file, env var
// overrides, struct-tag validation.
package config

// Config is the top-level configuration for a remobj provider or consumer
// process launched via cmd/remobj.
type Config struct {
	// Server configures the transport listener/dialer.
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Provider configures provider-side behavior. Only meaningful for
	// `remobj provide`.
	Provider ProviderConfig `yaml:"provider" mapstructure:"provider"`

	// Consumer configures consumer-side behavior. `remobj consume` does
	// not read it; it takes its settings from its own flags.
	Consumer ConsumerConfig `yaml:"consumer" mapstructure:"consumer"`

	// Metrics configures the optional Prometheus scrape endpoint.
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`

	// Trace enables the OpenTelemetry devtools tap (spec §4.6).
	Trace TraceConfig `yaml:"trace" mapstructure:"trace"`

	// LogLevel sets the minimum log level.
	// Valid values: "debug", "info", "warn", "error".
	// Defaults to "info" if empty. DevMode=true overrides to "debug".
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// DevMode switches dispatch error responses from short codes to full
	// messages (spec §7) and forces debug logging.
	DevMode bool `yaml:"dev_mode" mapstructure:"dev_mode"`
}

// ServerConfig configures the websocket transport.
type ServerConfig struct {
	// ListenAddr is the address `remobj provide` binds to (e.g. "127.0.0.1:8080").
	// Defaults to "127.0.0.1:8080" if empty.
	ListenAddr string `yaml:"listen_addr" mapstructure:"listen_addr" validate:"omitempty,hostname_port"`

	// DialURL is a websocket URL for a consumer to connect to
	// (e.g. "ws://127.0.0.1:8080/"). `remobj consume` does not read it; it
	// takes its URL from the --dial flag.
	DialURL string `yaml:"dial_url" mapstructure:"dial_url" validate:"omitempty,url"`

	// HandshakeTimeout is a bound for the websocket dial/upgrade handshake
	// (e.g. "10s"). Defaults to "10s" if not specified. No command passes
	// it to the websocket transport, which uses its own defaults.
	HandshakeTimeout string `yaml:"handshake_timeout" mapstructure:"handshake_timeout" validate:"omitempty"`
}

// ProviderConfig configures the provider side of a channel (spec §4.3).
type ProviderConfig struct {
	// AllowWrite permits `set` operations against the exposed tree. Off by
	// default (spec §3: providers default to read-only).
	AllowWrite bool `yaml:"allow_write" mapstructure:"allow_write"`

	// Policy is an optional CEL boolean expression evaluated against
	// {path, operation, allow_write} in addition to the static forbidden
	// set and AllowWrite.
	Policy string `yaml:"policy" mapstructure:"policy"`

	// ForbiddenPaths lists canonical property paths (slash-joined, e.g.
	// "internal/secret"). Validation checks only that each entry is a
	// non-empty path with no empty segments; `remobj provide` does not pass
	// the list to the provider, so listed paths are not rejected at
	// dispatch.
	ForbiddenPaths []string `yaml:"forbidden_paths" mapstructure:"forbidden_paths" validate:"omitempty,dive,remobj_propertypath"`
}

// ConsumerConfig configures the consumer side of a channel (spec §4.5).
type ConsumerConfig struct {
	// Timeout bounds how long a request waits for its response
	// (e.g. "300s"). Defaults to "300s", the value of
	// consumer.DefaultTimeout, if not specified.
	Timeout string `yaml:"timeout" mapstructure:"timeout" validate:"omitempty"`
}

// MetricsConfig configures the optional Prometheus scrape endpoint.
type MetricsConfig struct {
	// Enabled turns on the /metrics HTTP endpoint.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// ListenAddr is the address the /metrics endpoint binds to, separate
	// from the main transport listener. Defaults to "127.0.0.1:9090".
	ListenAddr string `yaml:"listen_addr" mapstructure:"listen_addr" validate:"omitempty,hostname_port"`
}

// TraceConfig configures the OpenTelemetry devtools tap.
type TraceConfig struct {
	// Enabled turns on one span per message crossing the channel boundary.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// SetDefaults applies sensible default values to the configuration.
func (c *Config) SetDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = "127.0.0.1:8080"
	}
	if c.Server.HandshakeTimeout == "" {
		c.Server.HandshakeTimeout = "10s"
	}
	if c.Consumer.Timeout == "" {
		c.Consumer.Timeout = "300s"
	}
	if c.Metrics.ListenAddr == "" {
		c.Metrics.ListenAddr = "127.0.0.1:9090"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
