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

package frame

import (
	"encoding/binary"

	"go.uber.org/atomic"

	"github.com/framegraph/engine/arena"
	gerrors "github.com/framegraph/engine/errors"
)

// guardPattern is the fixed 32-bit sentinel written into a payload's guard
// regions (§3.2). guardWords is the number of uint32 sentinels bracketing
// each side of the payload; one word is enough to catch the overwhelming
// majority of off-by-one plane writes without materially shrinking the
// arena's effective free-list reuse.
const (
	guardPattern uint32 = 0xA5A5C3C3
	guardWords          = 1
	guardBytes          = guardWords * 4
)

// Payload is a single refcounted, optionally guarded plane buffer backing
// one plane of a video frame or the entire interleaved block of an audio
// frame. Copy-on-write duplication happens under no lock: the refcount==1
// test is safe only because a writable pointer is issued exclusively to a
// frame that uniquely owns its payload (§9, "Copy-on-write via refcount==1
// check").
type Payload struct {
	alloc   Allocator
	block   *arena.Block
	offset  int
	length  int
	guarded bool
	refs    atomic.Int64
}

func newPayload(alloc Allocator, size int, guarded bool) (*Payload, error) {
	total := uint64(size)
	if guarded {
		total += 2 * guardBytes
	}
	block, err := alloc.Alloc(total)
	if err != nil {
		return nil, err
	}
	p := &Payload{alloc: alloc, block: block, length: size, guarded: guarded}
	if guarded {
		p.offset = guardBytes
		p.writeGuards()
	}
	p.refs.Store(1)
	return p, nil
}

// Data returns the payload's usable byte range, excluding guard regions.
func (p *Payload) Data() []byte {
	return p.block.Data[p.offset : p.offset+p.length]
}

// Retain increments the payload's reference count. Called whenever a frame
// header is copied and keeps a reference to the same underlying buffer.
func (p *Payload) Retain() {
	p.refs.Inc()
}

// RefCount returns the payload's current reference count.
func (p *Payload) RefCount() int64 {
	return p.refs.Load()
}

// Release decrements the payload's reference count, returning it to the
// arena once the count reaches zero. Releasing an already-zero payload is a
// double free.
func (p *Payload) Release() error {
	remaining := p.refs.Dec()
	switch {
	case remaining > 0:
		return nil
	case remaining == 0:
		return p.alloc.Free(p.block)
	default:
		return gerrors.ErrDoubleFree
	}
}

// Clone allocates a fresh payload of the same size and guard configuration
// and copies this payload's data into it, for copy-on-write duplication.
func (p *Payload) Clone() (*Payload, error) {
	clone, err := newPayload(p.alloc, p.length, p.guarded)
	if err != nil {
		return nil, err
	}
	copy(clone.Data(), p.Data())
	return clone, nil
}

func (p *Payload) writeGuards() {
	front := p.block.Data[:guardBytes]
	back := p.block.Data[p.offset+p.length:]
	for i := 0; i < guardWords; i++ {
		binary.LittleEndian.PutUint32(front[i*4:], guardPattern)
		binary.LittleEndian.PutUint32(back[i*4:], guardPattern)
	}
}

// VerifyGuards checks that this payload's guard regions, if enabled, still
// hold the sentinel pattern. A mismatch indicates an out-of-bounds write by
// a filter and is treated as fatal by the caller (§4.4.4).
func (p *Payload) VerifyGuards() error {
	if !p.guarded {
		return nil
	}
	front := p.block.Data[:guardBytes]
	back := p.block.Data[p.offset+p.length:]
	for i := 0; i < guardWords; i++ {
		if binary.LittleEndian.Uint32(front[i*4:]) != guardPattern {
			return gerrors.ErrGuardCorruption
		}
		if binary.LittleEndian.Uint32(back[i*4:]) != guardPattern {
			return gerrors.ErrGuardCorruption
		}
	}
	return nil
}
