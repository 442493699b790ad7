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

// Package arena implements the memory arena and size-keyed buffer recycler
// that backs every plane payload allocation. A single Arena tracks bytes
// currently in use and guards a size-keyed free list under a soft memory
// cap; buffers beyond the cap are evicted at random rather than by age,
// since the arena has no access pattern to rank free entries by.
package arena

// Strategy records how a Block's bytes were obtained, so Free can recycle
// it consistently with how it was allocated.
type Strategy uint8

const (
	// Ordinary blocks come from a plain make([]byte, n) allocation.
	Ordinary Strategy = iota
	// LargePage blocks come from the platform-conditional large-page fast
	// path. The specification requires only that this be defeatable and
	// that it never violate the free-list fit test; this module does not
	// implement an actual large-page syscall path (that is platform-
	// specific C-level functionality with no idiomatic Go equivalent in
	// the retrieval pack) and always falls back to Ordinary, but keeps the
	// strategy tag so a future platform-specific allocator can plug in
	// without changing the Block contract.
	LargePage Strategy = iota
)

// header is the small, fixed-size record prefixed to every block tracked
// by the arena's free list: the block's size and the strategy used to
// obtain it. It never leaves the arena's bookkeeping — callers only ever
// see the block's data.
type header struct {
	size     uint64
	strategy Strategy
}

// Block is one allocation the arena has handed out: its data plus the
// header needed to recycle it correctly on Free.
type Block struct {
	header header
	Data   []byte
}

// Size returns the block's recorded allocation size (its free-list key),
// which may be larger than the length a caller originally requested.
func (b *Block) Size() uint64 {
	return b.header.size
}

// Strategy returns the allocation strategy recorded for this block.
func (b *Block) Strategy() Strategy {
	return b.header.strategy
}
