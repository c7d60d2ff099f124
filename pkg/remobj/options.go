package remobj

import (
	"log/slog"
	"time"
)

// ProvideOption configures a Provide call.
type ProvideOption func(*provideConfig)

// WithAllowWrite permits `set` operations against the exposed tree. A
// provider is read-only by default (spec §3).
func WithAllowWrite(allow bool) ProvideOption {
	return func(c *provideConfig) { c.allowWrite = allow }
}

// WithDevMode switches error responses from production short codes to full
// descriptive messages (spec §7). Do not enable this against an untrusted
// consumer: it reveals internal structure.
func WithDevMode(dev bool) ProvideOption {
	return func(c *provideConfig) { c.devMode = dev }
}

// WithPolicy layers a compiled CEL policy on top of the static forbidden
// set and AllowWrite flag.
func WithPolicy(p *Policy) ProvideOption {
	return func(c *provideConfig) { c.policy = p }
}

// WithProviderLogger sets the structured logger a Provider uses.
func WithProviderLogger(logger *slog.Logger) ProvideOption {
	return func(c *provideConfig) { c.logger = logger }
}

// ConsumeOption configures a Consume call.
type ConsumeOption func(*consumeConfig)

// WithTimeout bounds how long a consumer proxy waits for a response before
// failing with ErrTimeout. Zero means consumer.DefaultTimeout.
func WithTimeout(d time.Duration) ConsumeOption {
	return func(c *consumeConfig) { c.timeout = d }
}

// WithConsumerLogger sets the structured logger an Engine uses.
func WithConsumerLogger(logger *slog.Logger) ConsumeOption {
	return func(c *consumeConfig) { c.logger = logger }
}
