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

package graph

import (
	"sync"

	gerrors "github.com/framegraph/engine/errors"
	"github.com/framegraph/engine/reentrancy"
)

var (
	reentrancyMu     sync.Mutex
	reentrancyPolicy = reentrancy.New()
	destroyDepth     int
	pendingFrees     []func()
)

// SetReentrancyPolicy installs the destruction-deferral policy every
// NodeRef.Release call runs under for the remainder of the process.
// engine.Core calls this once at construction from its configured
// reentrancy.Reentrancy; it is not meant to change mid-graph.
func SetReentrancyPolicy(p *reentrancy.Reentrancy) {
	reentrancyMu.Lock()
	defer reentrancyMu.Unlock()
	reentrancyPolicy = p
}

// runRelease runs a node's free callback under the configured reentrancy
// policy. In Immediate mode it just calls fn. In Deferred and
// DeferredBounded mode, a call arriving while another is already draining
// (because fn itself released another NodeRef whose share also hit zero)
// is queued instead of recursing natively; the outermost call drains the
// queue, in order, after its own fn returns.
func runRelease(fn func()) error {
	reentrancyMu.Lock()
	if reentrancyPolicy.Mode() == reentrancy.Immediate {
		reentrancyMu.Unlock()
		fn()
		return nil
	}

	if destroyDepth > 0 {
		destroyDepth++
		depth := destroyDepth
		pendingFrees = append(pendingFrees, fn)
		err := boundErr(depth)
		reentrancyMu.Unlock()
		return err
	}
	destroyDepth = 1
	reentrancyMu.Unlock()

	fn()

	reentrancyMu.Lock()
	for len(pendingFrees) > 0 {
		next := pendingFrees[0]
		pendingFrees = pendingFrees[1:]
		reentrancyMu.Unlock()
		next()
		reentrancyMu.Lock()
	}
	destroyDepth = 0
	reentrancyMu.Unlock()
	return nil
}

func boundErr(depth int) error {
	if reentrancyPolicy.Mode() == reentrancy.DeferredBounded &&
		reentrancyPolicy.MaxDeferred() > 0 && depth > reentrancyPolicy.MaxDeferred() {
		return gerrors.ErrProtocolViolation
	}
	return nil
}
