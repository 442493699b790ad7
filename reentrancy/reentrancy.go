// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package reentrancy configures how the core handles filter free-callbacks
// that transitively release other nodes. A free-callback that releases its
// last upstream node-reference can trigger that node's own free-callback,
// and so on; left to native-stack recursion this can overflow the stack on
// a long filter chain. The core instead threads destruction through a
// deferred list drained at the outermost destroy call (see runRelease in
// graph/collector.go).
package reentrancy

import (
	gerrors "github.com/framegraph/engine/errors"
	"github.com/framegraph/engine/internal/validation"
)

// Mode selects how the core drains node/frame-payload destruction.
//
// Modes:
//   - Immediate runs every free-callback inline on the releasing goroutine.
//     Only safe when the caller can prove free-callbacks never transitively
//     release another node; useful in unit tests exercising a single node.
//   - Deferred threads all destruction through one process-wide list,
//     guarded by a mutex and drained at the outermost Release call in
//     flight, so a free-callback releasing other nodes never recurses on
//     the native stack. The list is not per-goroutine: a release arriving
//     from another goroutine while a drain is in progress is queued and
//     run by the draining goroutine. This is the engine default.
//   - DeferredBounded is Deferred with a cap on the number of pending
//     destructions a single outermost Release may accumulate, guarding
//     against runaway release chains in malformed graphs.
type Mode int

const (
	// Immediate runs free-callbacks inline with no deferral.
	Immediate Mode = iota
	// Deferred threads destruction through the outermost-call deferred list.
	Deferred
	// DeferredBounded is Deferred with MaxDeferred enforced.
	DeferredBounded
)

// Option configures a Reentrancy policy.
type Option func(*Reentrancy)

// WithMaxDeferred caps the number of pending deferred destructions a single
// outermost Release may accumulate before the core treats further releases
// within that call as a protocol violation.
//
// A value <= 0 disables the cap.
func WithMaxDeferred(maxDeferred int) Option {
	return func(r *Reentrancy) {
		if maxDeferred <= 0 {
			r.maxDeferred = 0
			return
		}
		r.maxDeferred = maxDeferred
	}
}

// WithMode sets the destruction-deferral mode.
func WithMode(mode Mode) Option {
	return func(r *Reentrancy) {
		r.mode = mode
	}
}

// Reentrancy configures the core's destructor-deferral policy.
type Reentrancy struct {
	mode        Mode
	maxDeferred int
}

// ensure Reentrancy implements validation.Validator.
var _ validation.Validator = (*Reentrancy)(nil)

// New creates a Reentrancy policy with the provided options. The default is
// Deferred with no cap, matching the engine's baseline destruction contract.
func New(opts ...Option) *Reentrancy {
	r := &Reentrancy{
		mode:        Deferred,
		maxDeferred: 0,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Mode returns the configured destruction-deferral mode.
func (r *Reentrancy) Mode() Mode {
	return r.mode
}

// MaxDeferred returns the configured cap on pending deferred destructions,
// or 0 if unbounded.
func (r *Reentrancy) MaxDeferred() int {
	return r.maxDeferred
}

// Validate validates the Reentrancy configuration.
func (r *Reentrancy) Validate() error {
	if !IsValidMode(r.mode) {
		return gerrors.ErrInvalidReentrancyMode
	}
	return nil
}

// IsValidMode guards against unknown enum values.
func IsValidMode(mode Mode) bool {
	switch mode {
	case Immediate, Deferred, DeferredBounded:
		return true
	default:
		return false
	}
}
