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

package arena

import (
	"crypto/rand"
	"encoding/binary"
	"math/bits"
	"sort"
	"sync"

	"go.uber.org/atomic"

	gerrors "github.com/framegraph/engine/errors"
	"github.com/framegraph/engine/memory"
)

const (
	// reuseFitNumerator/Denominator implement the "size ≤ requested · 9/8"
	// reuse test: a free block is close enough to the requested size to be
	// reused as-is rather than triggering a fresh allocation.
	reuseFitNumerator   = 9
	reuseFitDenominator = 8

	// softCap32Bit and softCap64Bit are the default soft caps on 32-bit and
	// 64-bit address spaces, per §3.3.
	softCap32Bit uint64 = 1 << 30 // 1 GiB
	softCap64Bit uint64 = 4 << 30 // 4 GiB
)

// Arena is the soft-cap-bounded, size-keyed buffer recycler described in
// §3.3. It outlives its owning core until Used() returns to zero.
type Arena struct {
	mu        sync.Mutex
	freeList  map[uint64][]*Block // size -> free blocks of exactly that size
	sizes     []uint64            // sorted distinct keys of freeList, for the smallest-fit lookup
	freeBytes uint64              // sum of bytes currently sitting in freeList

	used      atomic.Uint64
	peak      atomic.Uint64
	softCap   atomic.Uint64
	alignment int
}

// New creates an Arena aligned to alignment bytes (the process-wide SIMD
// alignment constant; see format/frame packages) with the platform default
// soft cap, which Option values may override.
func New(alignment int, opts ...Option) *Arena {
	a := &Arena{
		freeList:  make(map[uint64][]*Block),
		alignment: alignment,
	}
	a.softCap.Store(defaultSoftCap())
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func defaultSoftCap() uint64 {
	if bits.UintSize == 32 {
		return softCap32Bit
	}
	return softCap64Bit
}

// Option configures an Arena at construction time.
type Option func(*Arena)

// WithSoftCap overrides the default soft memory cap.
func WithSoftCap(bytes uint64) Option {
	return func(a *Arena) { a.softCap.Store(bytes) }
}

// Alignment returns the byte alignment every Block's size is rounded up to.
func (a *Arena) Alignment() int {
	return a.alignment
}

// SetSoftCap changes the soft cap at runtime, per the "settable at runtime"
// rule in §3.3. Lowering the cap below current usage does not free
// in-use blocks; it only tightens the free-list eviction threshold.
func (a *Arena) SetSoftCap(bytes uint64) {
	a.softCap.Store(bytes)
	a.evictUnderCap()
}

// SoftCap returns the current soft memory cap.
func (a *Arena) SoftCap() uint64 {
	return a.softCap.Load()
}

// Used returns bytes currently checked out (allocated but not yet freed).
func (a *Arena) Used() uint64 {
	return a.used.Load()
}

// Peak returns the highest value Used() has ever reported.
func (a *Arena) Peak() uint64 {
	return a.peak.Load()
}

// Stats reports current and peak usage together, per §6's "report current
// use and peak".
func (a *Arena) Stats() (current, peak uint64) {
	return a.used.Load(), a.peak.Load()
}

func (a *Arena) alignUp(n uint64) uint64 {
	align := uint64(a.alignment)
	if align <= 1 {
		return n
	}
	return (n + align - 1) &^ (align - 1)
}

// Alloc returns a Block of at least size bytes, aligned to the arena's
// alignment. It first looks for the smallest free block whose size ≥
// requested; if that block's size is within the 9/8 reuse-fit ratio, it is
// recycled, otherwise a fresh block is allocated and the rejected free
// block remains on the list for a better-fitting future request.
func (a *Arena) Alloc(size uint64) (*Block, error) {
	aligned := a.alignUp(size)

	a.mu.Lock()
	if idx, ok := a.smallestFit(aligned); ok {
		key := a.sizes[idx]
		blocks := a.freeList[key]
		block := blocks[len(blocks)-1]
		blocks = blocks[:len(blocks)-1]
		if len(blocks) == 0 {
			delete(a.freeList, key)
			a.sizes = append(a.sizes[:idx], a.sizes[idx+1:]...)
		} else {
			a.freeList[key] = blocks
		}
		a.freeBytes -= key
		a.mu.Unlock()

		a.used.Add(block.header.size)
		a.bumpPeak()
		return block, nil
	}
	a.mu.Unlock()

	return a.allocFresh(aligned)
}

// smallestFit returns the index in a.sizes of the smallest free-list key
// that satisfies both "size ≥ requested" and the 9/8 reuse-fit ratio.
// Callers must hold a.mu.
func (a *Arena) smallestFit(requested uint64) (int, bool) {
	i := sort.Search(len(a.sizes), func(i int) bool { return a.sizes[i] >= requested })
	if i >= len(a.sizes) {
		return 0, false
	}
	candidate := a.sizes[i]
	if candidate*reuseFitDenominator > requested*reuseFitNumerator {
		return 0, false
	}
	return i, true
}

func (a *Arena) allocFresh(size uint64) (*Block, error) {
	strategy := Ordinary
	if a.shouldTryLargePage(size) {
		strategy = LargePage
	}

	data := make([]byte, size)
	block := &Block{header: header{size: size, strategy: strategy}, Data: data}

	a.used.Add(size)
	a.bumpPeak()
	return block, nil
}

// shouldTryLargePage is the platform-conditional fast-path gate; without a
// real large-page syscall behind it (see Strategy's doc comment) it always
// declines, but the gate is kept so wiring in a platform allocator later
// only touches allocFresh.
func (a *Arena) shouldTryLargePage(uint64) bool { return false }

func (a *Arena) bumpPeak() {
	for {
		used := a.used.Load()
		peak := a.peak.Load()
		if used <= peak {
			return
		}
		if a.peak.CompareAndSwap(peak, used) {
			return
		}
	}
}

// Free returns block to the arena's free list, keyed by its recorded
// header size, then evicts random free-list entries until used+freeBytes
// is back under the soft cap.
func (a *Arena) Free(block *Block) error {
	if block == nil {
		return gerrors.ErrDoubleFree
	}

	a.used.Sub(block.header.size)

	a.mu.Lock()
	key := block.header.size
	if _, ok := a.freeList[key]; !ok {
		i := sort.Search(len(a.sizes), func(i int) bool { return a.sizes[i] >= key })
		a.sizes = append(a.sizes, 0)
		copy(a.sizes[i+1:], a.sizes[i:])
		a.sizes[i] = key
	}
	a.freeList[key] = append(a.freeList[key], block)
	a.freeBytes += key
	a.mu.Unlock()

	a.evictUnderCap()
	return nil
}

// evictUnderCap evicts random free-list entries until used+freeBytes no
// longer exceeds the soft cap, per §3.3's "evict random free-list entries
// until under the cap".
func (a *Arena) evictUnderCap() {
	for {
		a.mu.Lock()
		if a.used.Load()+a.freeBytes <= a.softCap.Load() || len(a.sizes) == 0 {
			a.mu.Unlock()
			return
		}
		idx := int(fastRand()) % len(a.sizes)
		key := a.sizes[idx]
		blocks := a.freeList[key]
		blocks = blocks[:len(blocks)-1]
		if len(blocks) == 0 {
			delete(a.freeList, key)
			a.sizes = append(a.sizes[:idx], a.sizes[idx+1:]...)
		} else {
			a.freeList[key] = blocks
		}
		a.freeBytes -= key
		a.mu.Unlock()
	}
}

// fastRand returns a random uint32 used to pick a free-list eviction victim
// without a contended shared PRNG.
func fastRand() uint32 {
	var b [4]byte
	if n, err := rand.Read(b[:]); err != nil || n != 4 {
		return uint32(fallbackSeed())
	}
	return binary.LittleEndian.Uint32(b[:])
}

func fallbackSeed() uint64 {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return binary.LittleEndian.Uint64(b[:])
}

// SystemMemory reports the host's total and free physical memory, using
// the platform-specific memory package. It is a convenience for callers
// that want to size the soft cap relative to the host rather than use the
// fixed 1 GiB/4 GiB defaults.
func SystemMemory() (total, free uint64, err error) {
	total, err = memory.Size()
	if err != nil {
		return 0, 0, err
	}
	free, err = memory.Free()
	if err != nil {
		return 0, 0, err
	}
	return total, free, nil
}
