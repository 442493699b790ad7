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

// Package propmap implements the typed, ordered property map carried by
// frames and used as the invocation argument/result envelope for plugin
// functions. A Map preserves insertion order of distinct keys; values under
// a single key form an array of one typed kind.
package propmap

import (
	"sync"

	gerrors "github.com/framegraph/engine/errors"
	"github.com/framegraph/engine/internal/locker"
)

// Kind identifies the typed value kind stored under a property map key.
type Kind int

const (
	// KindInt is a 64-bit integer array value.
	KindInt Kind = iota
	// KindFloat is a 64-bit float array value.
	KindFloat
	// KindData is a byte-string array value, sub-tagged utf8 or binary.
	KindData
	// KindVideoNode is a video node-reference array value.
	KindVideoNode
	// KindAudioNode is an audio node-reference array value.
	KindAudioNode
	// KindVideoFrame is a video-frame reference array value.
	KindVideoFrame
	// KindAudioFrame is an audio-frame reference array value.
	KindAudioFrame
	// KindFunction is a function-reference array value.
	KindFunction
)

// String returns the grammar-level type name for k, as used in the
// argument-schema grammar (§6 of the component design).
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindData:
		return "data"
	case KindVideoNode:
		return "vnode"
	case KindAudioNode:
		return "anode"
	case KindVideoFrame:
		return "vframe"
	case KindAudioFrame:
		return "aframe"
	case KindFunction:
		return "func"
	default:
		return "unknown"
	}
}

// DataTag distinguishes the two sub-tags of a KindData value.
type DataTag int

const (
	// DataUTF8 marks a byte-string value as UTF-8 text.
	DataUTF8 DataTag = iota
	// DataBinary marks a byte-string value as opaque binary.
	DataBinary
)

// Data is one KindData element: a byte string plus its sub-tag.
type Data struct {
	Bytes []byte
	Tag   DataTag
}

// entry holds every value appended under one key, all sharing a kind.
type entry struct {
	kind   Kind
	ints   []int64
	floats []float64
	data   []Data
	nodes  []any
	frames []any
	funcs  []any
}

// Map is an ordered string-keyed container of typed value arrays. The zero
// value is not usable; construct with New.
type Map struct {
	_       locker.NoCopy
	mu      sync.RWMutex
	order   []string
	entries map[string]*entry
	errored bool
	errMsg  string
}

// New creates an empty property map.
func New() *Map {
	return &Map{entries: make(map[string]*entry)}
}

// NewError creates a property map already stamped with an error. Queries on
// an errored map return "unset" with ErrMapErrored rather than the map's
// (nonexistent) content.
func NewError(message string) *Map {
	return &Map{entries: make(map[string]*entry), errored: true, errMsg: message}
}

// SetError stamps m with an error sentinel, converting it into a failure
// carrier. Existing content is left in place but becomes unreachable through
// the map's query methods (Keys, Len, KindOf, Ints, Floats, ...).
func (m *Map) SetError(message string) {
	m.mu.Lock()
	m.errored = true
	m.errMsg = message
	m.mu.Unlock()
}

// IsError reports whether m has been stamped with an error sentinel.
func (m *Map) IsError() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.errored
}

// Error returns the message stamped by SetError, or "" if m is not errored.
func (m *Map) Error() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.errMsg
}

// Keys returns the distinct keys of m in insertion order. Returns nil if m
// is error-stamped.
func (m *Map) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.errored {
		return nil
	}
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Len returns the number of distinct keys, or 0 if m is error-stamped.
func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.errored {
		return 0
	}
	return len(m.order)
}

// KindOf returns the value kind stored under key and whether key is present.
func (m *Map) KindOf(key string) (Kind, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.errored {
		return 0, false
	}
	e, ok := m.entries[key]
	if !ok {
		return 0, false
	}
	return e.kind, true
}

// touch records key in insertion order the first time it is seen and
// returns its entry, creating one of the given kind if necessary. Callers
// must hold the write lock. Returns ErrTypeMismatch if key already exists
// under a different kind.
func (m *Map) touch(key string, kind Kind) (*entry, error) {
	e, ok := m.entries[key]
	if !ok {
		e = &entry{kind: kind}
		m.entries[key] = e
		m.order = append(m.order, key)
		return e, nil
	}
	if e.kind != kind {
		return nil, gerrors.ErrTypeMismatch
	}
	return e, nil
}

// Delete removes key and all of its values.
func (m *Map) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; !ok {
		return
	}
	delete(m.entries, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}
