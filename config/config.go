package config

import (
	"errors"
	"math"
	"runtime"

	"github.com/framegraph/engine/log"
	"github.com/framegraph/engine/reentrancy"
)

// ErrNameRequired is returned by New when no core name is given.
var ErrNameRequired = errors.New("core name is required")

const (
	defaultAlignment32 = 32

	// defaultSoftCap64 and defaultSoftCap32 are the soft memory caps spec.md
	// §3.3 assigns by address-space width: 4 GiB on 64-bit, 1 GiB on 32-bit.
	defaultSoftCap64 = 4 << 30
	defaultSoftCap32 = 1 << 30
)

// Config represents the core façade's configuration (spec.md §6 "Core
// lifecycle", §3.3 "soft cap", §4.4.2 "worker pool").
type Config struct {
	// Name identifies this core instance for diagnostics.
	Name string
	// Logger receives the core's Debug/Info/Warn/Error/Fatal entries.
	Logger log.Logger
	// WorkerCount sizes the scheduler's base worker pool. Defaults to
	// runtime.NumCPU().
	WorkerCount int
	// SoftMemoryCap is the arena's eviction threshold in bytes (spec.md §3.3).
	SoftMemoryCap int64
	// Alignment is the process-wide plane-stride alignment in bytes, fixed
	// once at construction (spec.md §3.1, §9 "process-wide alignment
	// constant"). Must be 32 or 64.
	Alignment int
	// DisableAutoLoading suppresses the core's default plugin auto-discovery
	// at startup (spec.md §6 "Flags").
	DisableAutoLoading bool
	// EnableGraphInspection turns on creation-function-chain capture and
	// walking (spec.md §3.4, §6).
	EnableGraphInspection bool
	// EnableFrameGuards turns on plane guard-region verification after every
	// filter return (spec.md §4.4.4).
	EnableFrameGuards bool
	// Reentrancy configures how node free callbacks that transitively
	// release other nodes are drained (see package reentrancy). Defaults to
	// reentrancy.Deferred, unbounded.
	Reentrancy *reentrancy.Reentrancy
}

// New creates a Config for name, applying options over the defaults.
func New(name string, options ...Option) (*Config, error) {
	if name == "" {
		return nil, ErrNameRequired
	}
	cfg := &Config{
		Name:          name,
		Logger:        log.DefaultLogger,
		WorkerCount:   runtime.NumCPU(),
		SoftMemoryCap: defaultSoftCap(),
		Alignment:     defaultAlignment32,
		Reentrancy:    reentrancy.New(),
	}
	for _, opt := range options {
		opt.Apply(cfg)
	}
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	if err := cfg.Reentrancy.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultSoftCap() int64 {
	if math.MaxUint == math.MaxUint32 {
		return defaultSoftCap32
	}
	return defaultSoftCap64
}
