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
	"strconv"
	"sync"

	"go.uber.org/atomic"
	"golang.org/x/sync/singleflight"

	"github.com/framegraph/engine/frame"
	"github.com/framegraph/engine/internal/slices"
)

// depKey identifies one (node, output, n) production within a single root
// request, the granularity at which the scheduler coalesces in-flight work
// (§4.4.3 step 3, §9 "Open question").
type depKey struct {
	node        *Node
	outputIndex int
	n           int64
}

// FrameContext is the per-request activation record threaded through the
// scheduler to drive one (node, output, n) computation (§3.5). A context is
// created in pass 0 of its node's activation and destroyed once its result
// has been delivered to every dependent.
type FrameContext struct {
	node         *Node
	outputIndex  int
	n            int64
	requestOrder uint64

	root     *FrameContext // self, for a root context
	upstream *FrameContext // first context that requested this one; nil for root

	mu                sync.Mutex
	pending           atomic.Int64
	requestedUpstream atomic.Bool
	delivered         map[depKey]frame.Frame
	dependents        slices.Slice[*FrameContext]
	done              bool
	result            frame.Frame

	errored atomic.Bool
	errMsg  string
	fatal   atomic.Bool

	frameData any

	// root-only.
	completion   func(frame.Frame, error)
	lockOnOutput bool

	coalesceMu sync.Mutex
	coalesce   map[depKey]*FrameContext
	sfg        singleflight.Group
}

// NewRootContext allocates the context for an external request_frame call.
func NewRootContext(node *Node, outputIndex int, n int64, requestOrder uint64, completion func(frame.Frame, error), lockOnOutput bool) *FrameContext {
	c := &FrameContext{
		node:         node,
		outputIndex:  outputIndex,
		n:            n,
		requestOrder: requestOrder,
		delivered:    make(map[depKey]frame.Frame),
		completion:   completion,
		lockOnOutput: lockOnOutput,
		coalesce:     make(map[depKey]*FrameContext),
	}
	c.root = c
	return c
}

func newChildContext(root *FrameContext, node *Node, outputIndex int, n int64, requestOrder uint64) *FrameContext {
	return &FrameContext{
		node:         node,
		outputIndex:  outputIndex,
		n:            n,
		requestOrder: requestOrder,
		root:         root,
		delivered:    make(map[depKey]frame.Frame),
	}
}

// Node, OutputIndex, N and RequestOrder expose a context's identity.
func (c *FrameContext) Node() *Node          { return c.node }
func (c *FrameContext) OutputIndex() int     { return c.outputIndex }
func (c *FrameContext) N() int64             { return c.n }
func (c *FrameContext) RequestOrder() uint64 { return c.requestOrder }

// IsRoot reports whether c is the root of its request tree.
func (c *FrameContext) IsRoot() bool { return c.root == c }

// Root returns the root context of c's request tree.
func (c *FrameContext) Root() *FrameContext { return c.root }

// Upstream returns the first context that requested c, or nil for a root
// context (§3.5's upstream_context attribute).
func (c *FrameContext) Upstream() *FrameContext { return c.upstream }

// LockOnOutput reports whether the root's completion callback must be
// invoked under a total-order lock (§4.4.3 step 6). Meaningless on a
// non-root context.
func (c *FrameContext) LockOnOutput() bool { return c.lockOnOutput }

// Pending returns the number of still-unresolved upstream requests.
func (c *FrameContext) Pending() int64 { return c.pending.Load() }

// RequestedUpstream reports whether c has issued at least one RequestUpstream
// call, regardless of whether every one of them resolved synchronously
// against an already-finished coalesced sibling. A filter that requests a
// production which happens to already be done is not a protocol violation
// even though Pending() may read back 0 by the time Initial returns null
// (§4.4.3 step 4).
func (c *FrameContext) RequestedUpstream() bool { return c.requestedUpstream.Load() }

// FrameData returns the context's one pointer-sized carry-state word
// (§4.4.1).
func (c *FrameContext) FrameData() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frameData
}

// SetFrameData stores v in the context's carry-state word.
func (c *FrameContext) SetFrameData(v any) {
	c.mu.Lock()
	c.frameData = v
	c.mu.Unlock()
}

// IsErrored reports whether an error has latched onto c.
func (c *FrameContext) IsErrored() bool { return c.errored.Load() }

// IsFatal reports whether the error latched onto c (if any) is a protocol
// violation or other fatal disposition (§7), as opposed to an ordinary
// filter-declared error.
func (c *FrameContext) IsFatal() bool { return c.fatal.Load() }

// ErrorMessage returns the latched error message, or "" if none.
func (c *FrameContext) ErrorMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

// SetError latches message onto c as its own error, for a filter that
// fails during its Initial or AllReady pass.
func (c *FrameContext) SetError(message string) {
	c.latchError(message)
}

func (c *FrameContext) latchError(message string) {
	if c.errored.CompareAndSwap(false, true) {
		c.mu.Lock()
		c.errMsg = message
		c.mu.Unlock()
	}
}

// Delivered returns the upstream frame previously delivered for
// (node, outputIndex, n), keyed the way §3.5 describes the properties map.
func (c *FrameContext) Delivered(node *Node, outputIndex int, n int64) (frame.Frame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.delivered[depKey{node, outputIndex, n}]
	return f, ok
}

// RequestUpstream records that c needs (node, outputIndex, n), coalescing
// with any context already computing that same production within c's
// request tree (§4.4.3 step 3). The first caller across c's whole request
// tree to ask for a given (node, outputIndex, n) creates the child and
// passes it to enqueue exactly once, under a singleflight.Group so that
// concurrent siblings asking for the same production at the same instant
// never race each other into creating two children for it; every caller,
// including the creator, is added to the returned child's dependents list
// (or, if the child has already completed, is satisfied immediately from
// its cached result). RequestUpstream always increments c's pending count
// by one, exactly as if a brand new child had been created, and always
// marks c as having requested upstream at least once, even when the child
// turns out to already be done and the pending count is immediately
// decremented back.
func (c *FrameContext) RequestUpstream(node *Node, outputIndex int, n int64, enqueue func(*FrameContext)) *FrameContext {
	root := c.root
	key := depKey{node, outputIndex, n}
	sfKey := node.ID() + "/" + strconv.Itoa(outputIndex) + "/" + strconv.FormatInt(n, 10)

	root.sfg.Do(sfKey, func() (any, error) {
		root.coalesceMu.Lock()
		if _, exists := root.coalesce[key]; exists {
			root.coalesceMu.Unlock()
			return nil, nil
		}
		child := newChildContext(root, node, outputIndex, n, c.requestOrder)
		root.coalesce[key] = child
		root.coalesceMu.Unlock()
		enqueue(child)
		return nil, nil
	})

	root.coalesceMu.Lock()
	child := root.coalesce[key]
	root.coalesceMu.Unlock()

	c.requestedUpstream.Store(true)
	c.pending.Inc()

	child.mu.Lock()
	if child.upstream == nil {
		child.upstream = c
	}
	if child.done {
		result := child.result
		errored := child.errored.Load()
		errMsg := child.errMsg
		child.mu.Unlock()

		c.mu.Lock()
		c.delivered[key] = result
		c.mu.Unlock()
		if errored {
			c.latchError(errMsg)
		}
		c.pending.Dec()
	} else {
		child.dependents.Append(c)
		child.mu.Unlock()
	}
	return child
}

// Deliver records c's successful result and notifies every dependent
// context, decrementing each one's pending count. It returns every
// dependent whose pending count has just reached zero, whether or not one
// of its *other* upstream requests already latched an error on it — the
// scheduler must re-enqueue these with reason=AllReady, or reason=Error if
// IsErrored reports true by then, since a dependent can reach pending==0
// from either Deliver or Fail depending on which of its upstreams resolves
// last, and whichever call reaches it must be the one to re-enqueue it.
func (c *FrameContext) Deliver(result frame.Frame) []*FrameContext {
	c.mu.Lock()
	c.result = result
	c.done = true
	deps := c.dependents.Items()
	c.mu.Unlock()

	key := depKey{c.node, c.outputIndex, c.n}
	var ready []*FrameContext
	for _, d := range deps {
		d.mu.Lock()
		d.delivered[key] = result
		d.mu.Unlock()
		if d.pending.Dec() == 0 {
			ready = append(ready, d)
		}
	}
	return ready
}

// Fail latches message as c's error and propagates it, together with its
// fatal disposition, to every dependent. It returns the dependents whose
// pending count has just reached zero — the scheduler must re-enqueue
// these with reason=Error, since an errored dependent is never re-entered
// with AllReady. fatal marks the error as a protocol violation or other
// fatal disposition (§7) rather than an ordinary filter-declared error;
// once set on a context it is never cleared.
func (c *FrameContext) Fail(message string, fatal bool) []*FrameContext {
	c.mu.Lock()
	c.done = true
	deps := c.dependents.Items()
	c.mu.Unlock()
	c.latchError(message)
	if fatal {
		c.fatal.Store(true)
	}

	var ready []*FrameContext
	for _, d := range deps {
		d.latchError(message)
		if fatal {
			d.fatal.Store(true)
		}
		if d.pending.Dec() == 0 {
			ready = append(ready, d)
		}
	}
	return ready
}

// Completion returns the root's completion callback, or nil on a non-root
// context.
func (c *FrameContext) Completion() func(frame.Frame, error) { return c.completion }

// Result returns the frame (or nil) that Deliver recorded for c.
func (c *FrameContext) Result() frame.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}
