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

// Package scheduler drives the filter activation algorithm (§4.4.3): a
// bounded pool of workers pulls runnable frame contexts off a ready queue
// ordered by (request_order, insertion order) and enters each one's node
// at the right activation reason, re-enqueueing dependents as their
// upstream requests resolve.
package scheduler

import (
	"errors"
	"fmt"
	"sync"

	gods "github.com/Workiva/go-datastructures/queue"
	"go.uber.org/atomic"

	gerrors "github.com/framegraph/engine/errors"
	"github.com/framegraph/engine/frame"
	"github.com/framegraph/engine/graph"
	"github.com/framegraph/engine/log"
)

// Pool is the scheduler's worker pool and ready queue (§4.4.2). It
// satisfies graph.CoreHandle, so it is passed as the core argument to
// every filter's get-frame callback.
type Pool struct {
	ready *gods.PriorityQueue

	numWorkers int
	wg         sync.WaitGroup

	seq            atomic.Uint64
	requestOrder   atomic.Uint64
	retireRequests atomic.Int64

	checkGuards bool
	logger      log.Logger

	outputMu sync.Mutex // serializes root completion callbacks under lock_on_output

	started atomic.Bool
	stopped atomic.Bool
}

var _ graph.CoreHandle = (*Pool)(nil)

// New constructs a pool with numWorkers base workers. checkGuards mirrors
// the core's EnableFrameGuards flag (§4.4.4); logger receives diagnostic
// Debug/Warn entries, never Fatal — fatal dispositions are returned to the
// caller wrapped in *errors.FatalError so the owning core decides whether
// and when to actually terminate the process (§5, §7).
func New(numWorkers int, checkGuards bool, logger log.Logger) *Pool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if logger == nil {
		logger = log.DiscardLogger
	}
	return &Pool{
		ready:       gods.NewPriorityQueue(numWorkers*4, false),
		numWorkers:  numWorkers,
		checkGuards: checkGuards,
		logger:      logger,
	}
}

// NextRequestOrder allocates the next monotonically increasing root
// request-order id (§4.4.2).
func (p *Pool) NextRequestOrder() uint64 {
	return p.requestOrder.Inc()
}

// Start launches the base worker goroutines. Safe to call once.
func (p *Pool) Start() {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.runWorker()
	}
}

// Stop disposes the ready queue, which unblocks every worker's pending
// Get, then waits for all workers (including any still-reserved extras)
// to exit.
func (p *Pool) Stop() {
	if !p.stopped.CompareAndSwap(false, true) {
		return
	}
	p.ready.Dispose()
	p.wg.Wait()
}

// Submit enqueues a newly allocated root context for its first entry
// (§4.4.3 step 1).
func (p *Pool) Submit(ctx *graph.FrameContext) {
	p.enqueue(ctx, graph.Initial)
}

// RequestRoot allocates a root context for (node, outputIndex, n), assigns
// it the next request-order id, and submits it for its Initial pass
// (§4.4.3 step 1). completion is invoked exactly once, from whichever
// worker goroutine ultimately resolves the root.
func (p *Pool) RequestRoot(node *graph.Node, outputIndex int, n int64, lockOnOutput bool, completion func(frame.Frame, error)) *graph.FrameContext {
	root := graph.NewRootContext(node, outputIndex, n, p.NextRequestOrder(), completion, lockOnOutput)
	p.Submit(root)
	return root
}

func (p *Pool) enqueue(ctx *graph.FrameContext, reason graph.ActivationReason) {
	item := &readyItem{ctx: ctx, reason: reason, seq: p.seq.Inc()}
	if err := p.ready.Put(item); err != nil {
		p.logger.Debugf("scheduler: drop enqueue after dispose: %v", err)
	}
}

// RequestFrame implements graph.CoreHandle: it is called from inside a
// filter's Initial-pass entry to request an upstream production
// (§4.4.3 step 3). The child context is enqueued exactly once, the first
// time (node, upstreamOutput, n) is seen anywhere in ctx's request tree.
func (p *Pool) RequestFrame(upstreamNode *graph.Node, upstreamOutput int, n int64, ctx *graph.FrameContext) error {
	if upstreamNode == nil {
		return fmt.Errorf("%w: request_frame_filter given a nil upstream node", gerrors.ErrProtocolViolation)
	}
	ctx.RequestUpstream(upstreamNode, upstreamOutput, n, func(child *graph.FrameContext) {
		p.enqueue(child, graph.Initial)
	})
	return nil
}

// ReserveThread implements graph.CoreHandle: it spawns one additional
// worker to cover for the calling goroutine's capacity while it blocks
// outside the scheduler (§5 "Suspension points").
func (p *Pool) ReserveThread() {
	p.wg.Add(1)
	go p.runWorker()
}

// ReleaseThread implements graph.CoreHandle: it asks exactly one worker
// (not necessarily the one spawned by the matching ReserveThread — any
// one suffices, since only the aggregate worker count matters) to retire
// once it next reaches the top of its loop, restoring the steady-state
// worker count.
func (p *Pool) ReleaseThread() {
	p.retireRequests.Inc()
}

func (p *Pool) tryRetire() bool {
	for {
		cur := p.retireRequests.Load()
		if cur <= 0 {
			return false
		}
		if p.retireRequests.CompareAndSwap(cur, cur-1) {
			return true
		}
	}
}

func (p *Pool) runWorker() {
	defer p.wg.Done()
	for {
		if p.tryRetire() {
			return
		}
		items, err := p.ready.Get(1)
		if err != nil {
			return // queue disposed
		}
		item, ok := items[0].(*readyItem)
		if !ok {
			continue
		}
		admitted := item.ctx.Node().AwaitFrameState(item.ctx.N(), item.reason, func() {
			p.enqueue(item.ctx, item.reason)
		})
		if !admitted {
			// Parked off the ready queue: re-enqueuing here under this
			// item's unchanged request-order would let it permanently
			// outrank a genuinely ready sibling sitting behind it in the
			// queue. advanceFrameState wakes it once admission changes.
			continue
		}
		p.run(item)
	}
}

func (p *Pool) run(item *readyItem) {
	ctx := item.ctx
	node := ctx.Node()

	slot := ctx.FrameData()
	f, err := node.Activate(ctx.N(), item.reason, &slot, ctx, p)
	ctx.SetFrameData(slot)

	switch {
	case err != nil:
		fatal := isFatalDisposition(err)
		p.fail(ctx, err.Error(), fatal)

	case f != nil:
		if verr := graph.ValidateOutput(node.Output(ctx.OutputIndex()), ctx.N(), f, p.checkGuards); verr != nil {
			p.fail(ctx, verr.Error(), true)
			return
		}
		p.deliverSuccess(ctx, f)

	case item.reason == graph.Initial && !ctx.RequestedUpstream():
		violation := fmt.Errorf("%w: node %q returned null from Initial with no upstream requests and no error",
			gerrors.ErrProtocolViolation, node.Name())
		p.fail(ctx, violation.Error(), true)

	case item.reason == graph.Initial && ctx.Pending() == 0:
		// Every request this Initial pass issued was already coalesced onto
		// a sibling that had finished by the time RequestUpstream returned,
		// so pending is back at 0 with nothing left to wait on. Nothing else
		// will ever re-enqueue ctx for this; do it here.
		if ctx.IsErrored() {
			p.enqueue(ctx, graph.Error)
		} else {
			node.TrackFrameStatePending(ctx.N())
			p.enqueue(ctx, graph.AllReady)
		}

	default:
		// Suspended: the filter issued upstream requests (or is waiting on
		// previously issued ones) and will be re-entered once they resolve.
	}
}

func isFatalDisposition(err error) bool {
	return errors.Is(err, gerrors.ErrProtocolViolation) ||
		errors.Is(err, gerrors.ErrMemoryExhausted) ||
		errors.Is(err, gerrors.ErrDoubleFree) ||
		errors.Is(err, gerrors.ErrGuardCorruption)
}

// deliverSuccess records ctx's result and either invokes the root's
// completion callback (§4.4.3 step 6) or re-enqueues whichever of ctx's
// dependents has just had its last pending upstream request satisfied
// (§4.4.3 step 5).
func (p *Pool) deliverSuccess(ctx *graph.FrameContext, f frame.Frame) {
	if ctx.IsRoot() {
		ctx.Deliver(f)
		p.complete(ctx, f, nil)
		return
	}
	p.requeueReady(ctx.Deliver(f))
}

func (p *Pool) fail(ctx *graph.FrameContext, message string, fatal bool) {
	if ctx.IsRoot() {
		ctx.Fail(message, fatal)
		var err error = errors.New(message)
		if ctx.IsFatal() {
			err = gerrors.NewFatalError(err)
		}
		p.complete(ctx, nil, err)
		return
	}
	p.requeueReady(ctx.Fail(message, fatal))
}

func (p *Pool) requeueReady(ready []*graph.FrameContext) {
	for _, dep := range ready {
		reason := graph.AllReady
		if dep.IsErrored() {
			reason = graph.Error
		} else {
			dep.Node().TrackFrameStatePending(dep.N())
		}
		p.enqueue(dep, reason)
	}
}

func (p *Pool) complete(root *graph.FrameContext, f frame.Frame, err error) {
	cb := root.Completion()
	if cb == nil {
		return
	}
	if root.LockOnOutput() {
		p.outputMu.Lock()
		defer p.outputMu.Unlock()
	}
	cb(f, err)
}
