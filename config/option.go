package config

import (
	"github.com/framegraph/engine/log"
	"github.com/framegraph/engine/reentrancy"
)

// Option configures a Config at construction time, following the teacher's
// functional-options pattern (actors/option.go).
type Option interface {
	Apply(*Config)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements Option.
type OptionFunc func(*Config)

// Apply implements Option.
func (f OptionFunc) Apply(c *Config) { f(c) }

// WithLogger sets the core's logger.
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(c *Config) {
		c.Logger = logger
	})
}

// WithWorkerCount sets the scheduler's base worker pool size.
func WithWorkerCount(n int) Option {
	return OptionFunc(func(c *Config) {
		c.WorkerCount = n
	})
}

// WithSoftMemoryCap sets the arena's eviction threshold in bytes.
func WithSoftMemoryCap(bytes int64) Option {
	return OptionFunc(func(c *Config) {
		c.SoftMemoryCap = bytes
	})
}

// WithAlignment sets the process-wide plane-stride alignment. Must be 32 or
// 64; neither New nor the arena validates the value.
func WithAlignment(bytes int) Option {
	return OptionFunc(func(c *Config) {
		c.Alignment = bytes
	})
}

// WithFlags sets the core's DisableAutoLoading, EnableGraphInspection and
// EnableFrameGuards flags in one call.
func WithFlags(disableAutoLoading, enableGraphInspection, enableFrameGuards bool) Option {
	return OptionFunc(func(c *Config) {
		c.DisableAutoLoading = disableAutoLoading
		c.EnableGraphInspection = enableGraphInspection
		c.EnableFrameGuards = enableFrameGuards
	})
}

// WithReentrancy overrides the default node destruction-deferral policy.
func WithReentrancy(r *reentrancy.Reentrancy) Option {
	return OptionFunc(func(c *Config) {
		c.Reentrancy = r
	})
}
