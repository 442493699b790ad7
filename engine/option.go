/*
 * MIT License
 *
 * Copyright (c) 2022-2024 Tochemey
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package engine

import (
	"github.com/framegraph/engine/config"
	"github.com/framegraph/engine/log"
	"github.com/framegraph/engine/reentrancy"
)

// Option configures a Core at construction time. It is an alias of
// config.Option so callers never need to import the config package
// directly, matching how the teacher's top-level packages re-export their
// options package's constructors.
type Option = config.Option

// WithLogger sets the core's logger.
func WithLogger(logger log.Logger) Option { return config.WithLogger(logger) }

// WithWorkerCount sets the scheduler's base worker pool size.
func WithWorkerCount(n int) Option { return config.WithWorkerCount(n) }

// WithSoftMemoryCap sets the arena's eviction threshold in bytes.
func WithSoftMemoryCap(bytes int64) Option { return config.WithSoftMemoryCap(bytes) }

// WithAlignment sets the process-wide plane-stride alignment in bytes.
func WithAlignment(bytes int) Option { return config.WithAlignment(bytes) }

// WithFlags sets DisableAutoLoading, EnableGraphInspection and
// EnableFrameGuards in one call (spec.md §6 "Flags").
func WithFlags(disableAutoLoading, enableGraphInspection, enableFrameGuards bool) Option {
	return config.WithFlags(disableAutoLoading, enableGraphInspection, enableFrameGuards)
}

// WithReentrancy overrides the default node destruction-deferral policy
// (see package reentrancy).
func WithReentrancy(r *reentrancy.Reentrancy) Option {
	return config.WithReentrancy(r)
}
