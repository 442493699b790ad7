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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/framegraph/engine/errors"
)

func simpleNode(t *testing.T, mode FilterMode) *Node {
	t.Helper()
	freed := false
	n, err := NewNode("test", mode, 0, 1,
		[]OutputDescriptor{{Video: &VideoInfo{Width: 1, Height: 1, FPSNum: 1, FPSDen: 1, NumFrames: 1}}},
		&freed, nil, func(instanceData any) { *(instanceData.(*bool)) = true }, nil)
	require.NoError(t, err)
	return n
}

func TestNodeRefLifecycleFreesOnLastRelease(t *testing.T) {
	n := simpleNode(t, Parallel)
	ref1, err := n.Ref(0)
	require.NoError(t, err)
	ref2, err := ref1.Clone()
	require.NoError(t, err)

	require.NoError(t, ref1.Release())
	freed := n.instanceData.(*bool)
	assert.False(t, *freed)

	require.NoError(t, ref2.Release())
	assert.True(t, *freed)
}

func TestNodeRefDoubleReleaseRejected(t *testing.T) {
	n := simpleNode(t, Parallel)
	ref, err := n.Ref(0)
	require.NoError(t, err)
	require.NoError(t, ref.Release())
	assert.ErrorIs(t, ref.Release(), gerrors.ErrDoubleFree)
}

func TestOutputDescriptorValidation(t *testing.T) {
	_, err := NewNode("bad", Parallel, 0, 1,
		[]OutputDescriptor{{Video: &VideoInfo{Width: 0, Height: 1}}}, nil, nil, nil, nil)
	assert.ErrorIs(t, err, gerrors.ErrInvalidVideoInfo)

	_, err = NewNode("bad", Parallel, 0, 1, nil, nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestParallelRequestsAdmitsOnePerN(t *testing.T) {
	n := simpleNode(t, ParallelRequests)
	release, err := n.enter(5)
	require.NoError(t, err)
	_, err = n.enter(5)
	assert.ErrorIs(t, err, gerrors.ErrProtocolViolation)
	release()
	_, err = n.enter(5)
	assert.NoError(t, err)
}

// awaitNoop reports reqN's immediate admissibility without ever expecting
// to be parked; it fails the test if a wake callback is registered, since
// none of these sequential-arrival tests should block.
func awaitNoop(t *testing.T, n *Node, reqN int64) bool {
	t.Helper()
	return n.AwaitFrameState(reqN, AllReady, func() { t.Fatal("unexpected wake callback registration") })
}

func TestFrameStateOrdering(t *testing.T) {
	n := simpleNode(t, FrameState)
	n.TrackFrameStatePending(0)
	n.TrackFrameStatePending(1)
	n.TrackFrameStatePending(2)

	assert.True(t, awaitNoop(t, n, 0))
	assert.False(t, n.admitFrameStateLocked(1))
	assert.False(t, n.admitFrameStateLocked(2))

	n.advanceFrameState(0)
	assert.True(t, awaitNoop(t, n, 1))
	assert.False(t, n.admitFrameStateLocked(2))

	n.advanceFrameState(1)
	assert.True(t, awaitNoop(t, n, 2))
}

// TestFrameStateOrderingSurvivesOutOfOrderArrival pins the bug scenario
// directly: n=2 becomes pending before n=0 and n=1 do, as happens when
// concurrent root requests race on request_order. Gating on whichever n
// arrives first would latch onto 2 and never admit 0 or 1; gating on the
// lowest outstanding n still resolves correctly regardless of arrival
// order.
func TestFrameStateOrderingSurvivesOutOfOrderArrival(t *testing.T) {
	n := simpleNode(t, FrameState)
	n.TrackFrameStatePending(2)
	assert.True(t, awaitNoop(t, n, 2)) // alone in the set, momentarily admissible

	n.TrackFrameStatePending(0)
	n.TrackFrameStatePending(1)
	assert.False(t, n.admitFrameStateLocked(2))
	assert.True(t, awaitNoop(t, n, 0))

	n.advanceFrameState(0)
	assert.True(t, awaitNoop(t, n, 1))
	assert.False(t, n.admitFrameStateLocked(2))

	n.advanceFrameState(1)
	assert.True(t, awaitNoop(t, n, 2))
}

func TestRequestUpstreamCoalescesWithinRequest(t *testing.T) {
	upNode := simpleNode(t, Parallel)
	root := NewRootContext(simpleNode(t, Parallel), 0, 0, 1, nil, false)

	var enqueued []*FrameContext
	enqueue := func(c *FrameContext) { enqueued = append(enqueued, c) }

	childA := root
	childB := root.RequestUpstream(simpleNode(t, Parallel), 0, 1, enqueue)
	_ = childB

	c1 := childA.RequestUpstream(upNode, 0, 7, enqueue)
	c2 := childA.RequestUpstream(upNode, 0, 7, enqueue)
	assert.Same(t, c1, c2)
	assert.Len(t, enqueued, 2)
	assert.EqualValues(t, 3, root.Pending())
}

// TestRequestUpstreamAgainstAlreadyDoneChildTracksRequestedFlag exercises
// the branch RequestUpstream takes when the shared child has already
// finished: pending nets back to its pre-call value, but the caller must
// still be marked as having requested upstream at all, since that is the
// only signal the scheduler has to distinguish "issued ≥1 requests, all
// already resolved" from "issued zero requests" (§4.4.3 step 4).
func TestRequestUpstreamAgainstAlreadyDoneChildTracksRequestedFlag(t *testing.T) {
	upNode := simpleNode(t, Parallel)
	root := NewRootContext(simpleNode(t, Parallel), 0, 0, 1, nil, false)

	var enqueued []*FrameContext
	enqueue := func(c *FrameContext) { enqueued = append(enqueued, c) }

	childA := root
	childB := root.RequestUpstream(simpleNode(t, Parallel), 0, 1, enqueue)

	shared := childA.RequestUpstream(upNode, 0, 7, enqueue)
	require.Len(t, enqueued, 2)
	assert.EqualValues(t, 2, root.Pending())

	shared.Deliver(nil)
	assert.EqualValues(t, 1, root.Pending())

	assert.False(t, childB.RequestedUpstream())
	before := childB.Pending()
	child := childB.RequestUpstream(upNode, 0, 7, enqueue)
	assert.Same(t, shared, child)
	assert.Equal(t, before, childB.Pending())
	assert.True(t, childB.RequestedUpstream())
}

func TestDeliverNotifiesDependentsAndMarksReady(t *testing.T) {
	upNode := simpleNode(t, Parallel)
	root := NewRootContext(simpleNode(t, Parallel), 0, 0, 1, nil, false)
	var enqueued []*FrameContext
	child := root.RequestUpstream(upNode, 0, 3, func(c *FrameContext) { enqueued = append(enqueued, c) })
	require.Len(t, enqueued, 1)
	assert.EqualValues(t, 1, root.Pending())

	ready := child.Deliver(nil)
	require.Len(t, ready, 1)
	assert.Same(t, root, ready[0])
	assert.EqualValues(t, 0, root.Pending())
	assert.False(t, root.IsErrored())
}

func TestFailPropagatesFirstErrorMessage(t *testing.T) {
	upNode := simpleNode(t, Parallel)
	root := NewRootContext(simpleNode(t, Parallel), 0, 0, 1, nil, false)
	child := root.RequestUpstream(upNode, 0, 3, func(*FrameContext) {})

	ready := child.Fail("boom", false)
	require.Len(t, ready, 1)
	assert.True(t, root.IsErrored())
	assert.Equal(t, "boom", root.ErrorMessage())
	assert.False(t, root.IsFatal())

	// A second, later error must not override the first latched message.
	root.SetError("later")
	assert.Equal(t, "boom", root.ErrorMessage())
}

// TestDeliverStillReturnsDependentAlreadyLatchedWithError pins the
// multi-upstream deadlock directly: a dependent with two pending upstream
// requests whose first (non-final) upstream fails, latching an error onto
// the dependent without driving its pending count to zero, and whose
// second upstream only succeeds afterward. The dependent's pending count
// reaches zero from Deliver, not Fail, so Deliver must still return it —
// otherwise neither call ever re-enqueues it and its root callback hangs
// forever. This is the shape of scenario #2 (Blur3 requesting {n-1,n,n+1})
// whenever one of several requested upstreams errors.
func TestDeliverStillReturnsDependentAlreadyLatchedWithError(t *testing.T) {
	upA := simpleNode(t, Parallel)
	upB := simpleNode(t, Parallel)
	root := NewRootContext(simpleNode(t, Parallel), 0, 0, 1, nil, false)

	var enqueued []*FrameContext
	enqueue := func(c *FrameContext) { enqueued = append(enqueued, c) }

	childA := root.RequestUpstream(upA, 0, 1, enqueue)
	childB := root.RequestUpstream(upB, 0, 2, enqueue)
	require.EqualValues(t, 2, root.Pending())

	readyFromFail := childA.Fail("boom", false)
	assert.Empty(t, readyFromFail, "root has one upstream still pending, must not be ready yet")
	assert.True(t, root.IsErrored())
	assert.EqualValues(t, 1, root.Pending())

	readyFromDeliver := childB.Deliver(nil)
	require.Len(t, readyFromDeliver, 1, "root's pending count reached zero from Deliver and must be returned despite the latched error")
	assert.Same(t, root, readyFromDeliver[0])
	assert.EqualValues(t, 0, root.Pending())
	assert.Equal(t, "boom", root.ErrorMessage())
}

func TestCreationChainWalksLevels(t *testing.T) {
	var head *CreationRecord
	head = Push(head, "Source", nil)
	head = Push(head, "Identity", nil)

	var levels []string
	WalkChain(head, func(level int, rec *CreationRecord) {
		levels = append(levels, rec.FunctionName)
		_ = level
	})
	assert.Equal(t, []string{"Identity", "Source"}, levels)
}
