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

// Package frame implements the reference-counted, copy-on-write plane
// payload and frame objects described in §3.1/§3.2: video and audio frames
// are externally immutable once returned by a filter, and a writable plane
// pointer is only ever issued to a frame that uniquely owns its payload.
package frame

import (
	"github.com/framegraph/engine/arena"
	"github.com/framegraph/engine/propmap"
)

// Kind distinguishes video from audio frames.
type Kind uint8

const (
	Video Kind = iota
	Audio
)

// DefaultGranularity is the default audio frame granularity in samples
// (§3.1): every audio frame except the final one of a clip holds exactly
// this many samples.
const DefaultGranularity = 3072

// Allocator is the subset of arena.Arena that frame construction needs.
// Defined here rather than imported from arena directly on *arena.Arena so
// a frame never depends on anything beyond the three operations it
// actually performs against the core's memory arena.
type Allocator interface {
	Alloc(size uint64) (*arena.Block, error)
	Free(block *arena.Block) error
	Alignment() int
}

// Frame is the common surface of VideoFrame and AudioFrame: every frame
// carries an owned property map and reports which kind it is.
type Frame interface {
	Kind() Kind
	Properties() *propmap.Map
}

var (
	_ Frame = (*VideoFrame)(nil)
	_ Frame = (*AudioFrame)(nil)
)

func alignUp(n uint64, align int) uint64 {
	a := uint64(align)
	if a <= 1 {
		return n
	}
	return (n + a - 1) &^ (a - 1)
}

func templateProps(template *propmap.Map) *propmap.Map {
	if template == nil {
		return propmap.New()
	}
	return template.Copy()
}
