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

// Package errors collects the sentinel and typed errors raised across the
// engine. Recoverable conditions (argument validation, plugin load, format
// validation) are plain sentinels a caller can test with errors.Is. The
// fatal dispositions of the error table (protocol violation, memory
// exhaustion, double free) get their own typed wrapper so a caller can
// distinguish "the filter misbehaved" from "the engine is out of memory"
// while still unwrapping to the underlying cause.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingRequiredArgument is returned by invoke when a required
	// schema entry has no matching key in the argument map.
	ErrMissingRequiredArgument = errors.New("missing required argument")

	// ErrUnexpectedArgument is returned by invoke when the argument map
	// carries a key not declared by the function's schema.
	ErrUnexpectedArgument = errors.New("unexpected argument")

	// ErrArgumentTypeMismatch is returned when an argument's value kind
	// does not match its schema-declared type.
	ErrArgumentTypeMismatch = errors.New("argument type mismatch")

	// ErrArgumentArity is returned when an array argument is empty without
	// :empty, or a non-array argument carries more than one value.
	ErrArgumentArity = errors.New("argument arity violation")

	// ErrIncompatibleFormatFamily is returned when a node argument's format
	// family is excluded by the plugin's compatibility setting.
	ErrIncompatibleFormatFamily = errors.New("incompatible format family")

	// ErrInvalidIdentifier is returned when a schema or property-map key is
	// not a valid identifier (leading letter, remainder alphanumeric/underscore).
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrPluginReadOnly is returned when register_function is called on a
	// plugin that has been marked read-only.
	ErrPluginReadOnly = errors.New("plugin is read-only")

	// ErrPluginExists is returned when a plugin identifier or namespace
	// collides with one already registered.
	ErrPluginExists = errors.New("plugin already registered")

	// ErrFunctionExists is returned when a function name collides with one
	// already registered on the same plugin.
	ErrFunctionExists = errors.New("function already registered")

	// ErrLegacyABIAudioForbidden is returned when a function registered
	// under the legacy ABI major declares or is invoked with an audio
	// node/frame argument.
	ErrLegacyABIAudioForbidden = errors.New("legacy ABI forbids audio node/frame arguments")

	// ErrUnknownPlugin and ErrUnknownFunction are returned by invoke when
	// the plugin identifier or function name does not resolve.
	ErrUnknownPlugin   = errors.New("unknown plugin")
	ErrUnknownFunction = errors.New("unknown function")

	// ErrPluginLoadFailed is returned by load_plugin when the collaborator
	// loader fails to produce a registerable plugin.
	ErrPluginLoadFailed = errors.New("plugin load failed")

	// ErrInvalidFormat is returned by node construction or format
	// registration when a format descriptor combination is invalid (e.g.
	// RGB with nonzero chroma subsampling, or a bits/sample outside range).
	ErrInvalidFormat = errors.New("invalid format descriptor")

	// ErrInvalidVideoInfo is returned by node construction when an output
	// descriptor has non-positive dimensions or an unreduced frame-rate
	// fraction.
	ErrInvalidVideoInfo = errors.New("invalid video-info descriptor")

	// ErrInvalidAudioInfo is returned by node construction when declared
	// sample count exceeds the platform cap.
	ErrInvalidAudioInfo = errors.New("invalid audio-info descriptor")

	// ErrKeyNotFound and ErrTypeMismatch are returned by propmap Get when
	// the queried key is absent, or present under a different value kind.
	ErrKeyNotFound  = errors.New("property map key not found")
	ErrTypeMismatch = errors.New("property map type mismatch")

	// ErrMapErrored is returned by any query against a property map that
	// has been stamped with an error sentinel.
	ErrMapErrored = errors.New("property map is error-stamped")

	// ErrDoubleFree is returned when a plane payload, frame, node, or the
	// core itself is released more than once. Disposition: fatal.
	ErrDoubleFree = errors.New("double free")

	// ErrGuardCorruption is returned when a plane payload's guard region
	// no longer matches the sentinel pattern after a filter returns.
	// Disposition: fatal.
	ErrGuardCorruption = errors.New("plane guard region corrupted")

	// ErrProtocolViolation is returned when a filter violates the
	// activation contract: a non-null return mismatching the node's
	// declared output descriptor, or a null Initial-pass return with zero
	// requests issued and no error latched. Disposition: fatal.
	ErrProtocolViolation = errors.New("filter protocol violation")

	// ErrMemoryExhausted is returned when the arena cannot satisfy an
	// allocation even after evicting its free list. Disposition: fatal.
	ErrMemoryExhausted = errors.New("memory arena exhausted")

	// ErrCoreClosed is returned when an operation is attempted on a core
	// that has already been freed.
	ErrCoreClosed = errors.New("core is closed")

	// ErrInvalidReentrancyMode is returned when a reentrancy.Mode value
	// outside the declared enum is configured.
	ErrInvalidReentrancyMode = errors.New("invalid reentrancy mode")
)

// FatalError wraps one of the engine's fatal-disposition errors
// (ErrProtocolViolation, ErrMemoryExhausted, ErrDoubleFree, ErrGuardCorruption).
// The core logs it at Fatal level and terminates the process; it is kept as a
// distinct type so tests can observe the fatal path without actually dying.
type FatalError struct {
	err error
}

var _ error = (*FatalError)(nil)

// NewFatalError wraps err as a fatal, process-terminating condition.
func NewFatalError(err error) *FatalError {
	return &FatalError{err: fmt.Errorf("fatal: %w", err)}
}

// Error implements the standard error interface.
func (f *FatalError) Error() string {
	return f.err.Error()
}

// Unwrap exposes the wrapped error for errors.Is/As.
func (f *FatalError) Unwrap() error {
	return f.err
}

// ArgumentError carries the validation errors produced by one invoke call,
// aggregated with go.uber.org/multierr so a caller sees every missing,
// extra, or mistyped argument in a single error value instead of only the
// first one found.
type ArgumentError struct {
	err error
}

var _ error = (*ArgumentError)(nil)

// NewArgumentError wraps an aggregated argument-validation error.
func NewArgumentError(err error) *ArgumentError {
	return &ArgumentError{err: err}
}

// Error implements the standard error interface.
func (a *ArgumentError) Error() string {
	return a.err.Error()
}

// Unwrap exposes the wrapped error for errors.Is/As.
func (a *ArgumentError) Unwrap() error {
	return a.err
}
