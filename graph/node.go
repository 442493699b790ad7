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

// Package graph implements the node, node-reference, and frame-context
// types threaded through the scheduler (§3.4, §3.5). A node is one filter
// instance; a node-reference owns one user-count share of one of its
// output indices; a frame context is the per-request activation record
// that drives a single (node, output, n) computation.
package graph

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	gerrors "github.com/framegraph/engine/errors"
	"github.com/framegraph/engine/format"
	"github.com/framegraph/engine/frame"
)

// FilterMode is the concurrency policy a node declares, controlling how the
// scheduler serializes entries into its get-frame callback (§4.4.2).
type FilterMode uint8

const (
	// Parallel allows multiple workers to enter the filter concurrently on
	// different n; no serialization.
	Parallel FilterMode = iota
	// ParallelRequests allows different n to run in parallel, but admits
	// only one worker per (node, n).
	ParallelRequests
	// Unordered admits one worker per node at a time, any n.
	Unordered
	// FrameState admits one worker per node at a time and delivers frames
	// strictly in ascending n order.
	FrameState
)

// Flags is a bitset of node behavior hints (§3.4).
type Flags uint8

const (
	// NoCache hints to upstream cache filters that this node's output need
	// not be retained.
	NoCache Flags = 1 << iota
	// IsCache marks a node as a cache filter eligible for notify_cache
	// callbacks under memory pressure (§4.4.5).
	IsCache
	// MakeLinear forces a node's requests to be serviced in strictly
	// increasing n order even outside FrameState mode.
	MakeLinear
	// NotifyFrameReady requests a core callback whenever this node
	// completes a frame, independent of any particular request.
	NotifyFrameReady
)

// Has reports whether f includes bit.
func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// ActivationReason identifies what prompted a filter's get-frame entry
// (§4.4.1).
type ActivationReason uint8

const (
	// Initial is the filter's first entry for a request.
	Initial ActivationReason = iota
	// AllReady is entered once every previously requested upstream frame
	// has been delivered into the context's properties map.
	AllReady
	// Error is entered when a previously requested upstream frame failed.
	Error
)

func (r ActivationReason) String() string {
	switch r {
	case Initial:
		return "Initial"
	case AllReady:
		return "AllReady"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// VideoInfo is a node's declared video output descriptor for one output
// index, validated at construction (§3.4): positive dimensions, a reduced
// frame-rate fraction, within range.
type VideoInfo struct {
	Format    *format.VideoFormat
	Width     int
	Height    int
	FPSNum    int64
	FPSDen    int64
	NumFrames int64
}

// AudioInfo is a node's declared audio output descriptor for one output
// index.
type AudioInfo struct {
	Format      *format.AudioFormat
	Granularity int
	NumSamples  int64
}

// OutputDescriptor is the declared shape of one of a node's outputs:
// exactly one of Video or Audio is set.
type OutputDescriptor struct {
	Video *VideoInfo
	Audio *AudioInfo
}

func (d OutputDescriptor) validate() error {
	switch {
	case d.Video != nil && d.Audio != nil:
		return fmt.Errorf("%w: an output descriptor cannot declare both video and audio", gerrors.ErrInvalidVideoInfo)
	case d.Video != nil:
		v := d.Video
		if v.Width <= 0 || v.Height <= 0 {
			return fmt.Errorf("%w: width and height must be positive", gerrors.ErrInvalidVideoInfo)
		}
		if v.FPSNum < 0 || v.FPSDen < 0 {
			return fmt.Errorf("%w: frame-rate fraction must be non-negative", gerrors.ErrInvalidVideoInfo)
		}
		if v.FPSNum > 0 && v.FPSDen > 0 && gcd(v.FPSNum, v.FPSDen) != 1 {
			return fmt.Errorf("%w: frame-rate fraction must be reduced", gerrors.ErrInvalidVideoInfo)
		}
		return nil
	case d.Audio != nil:
		a := d.Audio
		granularity := a.Granularity
		if granularity <= 0 {
			granularity = frame.DefaultGranularity
		}
		if a.NumSamples < 0 {
			return fmt.Errorf("%w: sample count must be non-negative", gerrors.ErrInvalidAudioInfo)
		}
		return nil
	default:
		return fmt.Errorf("%w: an output descriptor must declare video or audio", gerrors.ErrInvalidVideoInfo)
	}
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// GetFrameFunc is a filter's get-frame callback (§4.4.1). frameDataSlot is
// the one pointer-sized word a filter may use to carry state across its own
// suspensions for a given request.
type GetFrameFunc func(n int64, reason ActivationReason, instanceData any, frameDataSlot *any, ctx *FrameContext, core CoreHandle) (frame.Frame, error)

// FreeFunc releases a node's instance data when its last output share is
// gone.
type FreeFunc func(instanceData any)

// CoreHandle is the slice of the core façade a filter callback needs:
// issuing upstream requests and reserving/releasing its worker slot. It is
// declared here, not in package engine, so graph never imports engine
// (engine imports graph); engine.Core satisfies this interface.
type CoreHandle interface {
	RequestFrame(upstreamNode *Node, upstreamOutput int, n int64, ctx *FrameContext) error
	ReserveThread()
	ReleaseThread()
}

// Node is one instantiated filter (§3.4).
type Node struct {
	id       string
	name     string
	mode     FilterMode
	flags    Flags
	apiMajor int

	instanceData any
	getFrame     GetFrameFunc
	free         FreeFunc

	outputs    []OutputDescriptor
	userCounts []atomic.Int64

	serialMu sync.Mutex // Unordered / FrameState admission

	frameStateMu sync.Mutex

	frameStatePendingMu sync.Mutex
	frameStatePending   map[int64]struct{} // outstanding AllReady requests, FrameState only
	frameStateWaiters   []func()           // parked wake-ups for not-yet-admissible AllReady entries

	inFlight sync.Map // (node,n) admission for ParallelRequests, keyed by int64 n

	creationHead *CreationRecord
}

// NewNode constructs a node publishing the given outputs, backed by
// getFrame. api Major governs which callback ABI the plugin that created
// this node uses (§3.4, §9 "Legacy-ABI coexistence"). creationHead is the
// creation-function chain head visible at the moment of construction, or
// nil if graph inspection is disabled.
func NewNode(name string, mode FilterMode, flags Flags, apiMajor int, outputs []OutputDescriptor, instanceData any, getFrame GetFrameFunc, free FreeFunc, creationHead *CreationRecord) (*Node, error) {
	if len(outputs) == 0 {
		return nil, fmt.Errorf("%w: a node must declare at least one output", gerrors.ErrInvalidVideoInfo)
	}
	for i, d := range outputs {
		if err := d.validate(); err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
	}
	n := &Node{
		id:           uuid.NewString(),
		name:         name,
		mode:         mode,
		flags:        flags,
		apiMajor:     apiMajor,
		instanceData: instanceData,
		getFrame:     getFrame,
		free:         free,
		outputs:      outputs,
		userCounts:   make([]atomic.Int64, len(outputs)),
		creationHead: creationHead,
	}
	if mode == FrameState {
		n.frameStatePending = make(map[int64]struct{})
	}
	return n, nil
}

// ID returns the node's unique diagnostic identifier.
func (n *Node) ID() string { return n.id }

// Name returns the node's diagnostic name.
func (n *Node) Name() string { return n.name }

// Mode returns the node's filter mode.
func (n *Node) Mode() FilterMode { return n.mode }

// Flags returns the node's behavior flags.
func (n *Node) Flags() Flags { return n.flags }

// APIMajor returns the ABI major version of the plugin that created this
// node.
func (n *Node) APIMajor() int { return n.apiMajor }

// NumOutputs returns the number of output indices this node publishes.
func (n *Node) NumOutputs() int { return len(n.outputs) }

// Output returns the declared descriptor for output index i.
func (n *Node) Output(i int) OutputDescriptor { return n.outputs[i] }

// InstanceData returns the filter's opaque instance data.
func (n *Node) InstanceData() any { return n.instanceData }

// CreationChain returns the creation-function chain head captured when this
// node was constructed, or nil if graph inspection was disabled at the
// time.
func (n *Node) CreationChain() *CreationRecord { return n.creationHead }

// Ref creates a node-reference owning one user-count share of output index
// outputIndex.
func (n *Node) Ref(outputIndex int) (*NodeRef, error) {
	if outputIndex < 0 || outputIndex >= len(n.outputs) {
		return nil, fmt.Errorf("%w: output index %d out of range", gerrors.ErrInvalidVideoInfo, outputIndex)
	}
	n.userCounts[outputIndex].Inc()
	return &NodeRef{node: n, outputIndex: outputIndex}, nil
}

// enter admits a worker into this node's get-frame callback for the given
// n, respecting the node's filter mode. It blocks (briefly, under the
// node's serial mutex) for Unordered/FrameState nodes and returns a release
// function the caller must call after the filter returns.
func (n *Node) enter(reqN int64) (release func(), err error) {
	switch n.mode {
	case Parallel:
		return func() {}, nil
	case ParallelRequests:
		if _, loaded := n.inFlight.LoadOrStore(reqN, struct{}{}); loaded {
			return nil, fmt.Errorf("%w: node %q already has (node,n=%d) in flight", gerrors.ErrProtocolViolation, n.name, reqN)
		}
		return func() { n.inFlight.Delete(reqN) }, nil
	case Unordered:
		n.serialMu.Lock()
		return n.serialMu.Unlock, nil
	case FrameState:
		n.frameStateMu.Lock()
		return n.frameStateMu.Unlock, nil
	default:
		return func() {}, nil
	}
}

// TrackFrameStatePending records reqN as an outstanding AllReady request
// for a FrameState node, the moment it first becomes eligible to run
// (§4.4.4, §5 ordering guarantee (b)). admitFrameState compares against
// this set, not against whichever n happened to arrive first, so that
// concurrent root requests for n=0..k in any arrival order still resolve
// in ascending order rather than deadlocking on a baseline that never
// returns to a smaller n. It is a no-op for other filter modes.
func (n *Node) TrackFrameStatePending(reqN int64) {
	if n.mode != FrameState {
		return
	}
	n.frameStatePendingMu.Lock()
	n.frameStatePending[reqN] = struct{}{}
	n.frameStatePendingMu.Unlock()
}

// admitFrameState reports whether reqN is the lowest currently outstanding
// AllReady request for the node: for FrameState nodes, AllReady(n) must
// not run while some AllReady(m) with m < n is still pending
// (§4.4.4, §5 ordering guarantee (b)). Callers must hold frameStatePendingMu.
func (n *Node) admitFrameState(reqN int64) bool {
	if n.mode != FrameState {
		return true
	}
	for pending := range n.frameStatePending {
		if pending < reqN {
			return false
		}
	}
	return true
}

// advanceFrameState records that reqN's AllReady pass has finished,
// successfully or not, freeing the next-lowest pending n to be admitted,
// and wakes every waiter parked by AwaitFrameState: advancing is the only
// event that can change which n is admissible next, so every parked item
// must re-check rather than just the one that happens to be next in line.
func (n *Node) advanceFrameState(reqN int64) {
	if n.mode != FrameState {
		return
	}
	n.frameStatePendingMu.Lock()
	delete(n.frameStatePending, reqN)
	waiters := n.frameStateWaiters
	n.frameStateWaiters = nil
	n.frameStatePendingMu.Unlock()
	for _, wake := range waiters {
		wake()
	}
}

// admitFrameStateLocked reports whether reqN is currently admissible
// without registering a waiter, for tests that want a read-only check; the
// scheduler always goes through AwaitFrameState so that a not-yet-admitted
// item is never left unparked.
func (n *Node) admitFrameStateLocked(reqN int64) bool {
	n.frameStatePendingMu.Lock()
	defer n.frameStatePendingMu.Unlock()
	return n.admitFrameState(reqN)
}

// AwaitFrameState reports whether the scheduler may enter this node's
// get-frame callback for reqN with the given reason right now. It is only
// ever false for a FrameState node's AllReady pass, which must wait for
// every smaller outstanding n's AllReady pass to finish first (§4.4.4, §5
// ordering guarantee (b)). When it returns false, wake has already been
// registered, atomically with the admissibility check, to be called the
// next time any AllReady pass on this node advances — the scheduler must
// park the item off the ready queue rather than re-enqueue it under its
// unchanged request-order and poll: a blocked item that stays in the
// priority queue can permanently outrank a genuinely ready sibling
// enqueued behind it, since its request-order never changes.
func (n *Node) AwaitFrameState(reqN int64, reason ActivationReason, wake func()) bool {
	if n.mode != FrameState || reason != AllReady {
		return true
	}
	n.frameStatePendingMu.Lock()
	defer n.frameStatePendingMu.Unlock()
	if n.admitFrameState(reqN) {
		return true
	}
	n.frameStateWaiters = append(n.frameStateWaiters, wake)
	return false
}

// Activate enters the node's get-frame callback under its filter-mode
// admission policy, invokes it, and — on an AllReady pass of a FrameState
// node — retires reqN from the node's outstanding set so the next-lowest
// pending n becomes admissible.
func (n *Node) Activate(reqN int64, reason ActivationReason, frameDataSlot *any, ctx *FrameContext, core CoreHandle) (frame.Frame, error) {
	release, err := n.enter(reqN)
	if err != nil {
		return nil, err
	}
	defer release()

	f, err := n.getFrame(reqN, reason, n.instanceData, frameDataSlot, ctx, core)
	if n.mode == FrameState && reason == AllReady {
		n.advanceFrameState(reqN)
	}
	return f, err
}

// release decrements output index outputIndex's user count and reports
// whether every output's share has now reached zero, meaning the caller
// must run the node's free callback. Releasing an output whose share is
// already zero is a double free. It never runs the free callback itself;
// NodeRef.Release does that through runRelease, so that a free callback
// which transitively releases another NodeRef is subject to the
// configured reentrancy policy instead of recursing on the native stack.
func (n *Node) release(outputIndex int) (shouldFree bool, err error) {
	remaining := n.userCounts[outputIndex].Dec()
	if remaining < 0 {
		return false, gerrors.ErrDoubleFree
	}
	if remaining > 0 {
		return false, nil
	}
	for i := range n.userCounts {
		if n.userCounts[i].Load() > 0 {
			return false, nil
		}
	}
	return n.free != nil, nil
}
