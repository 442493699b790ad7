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

package scheduler

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/framegraph/engine/arena"
	gerrors "github.com/framegraph/engine/errors"
	"github.com/framegraph/engine/format"
	"github.com/framegraph/engine/frame"
	"github.com/framegraph/engine/graph"
)

func testHarness(t *testing.T) (*arena.Arena, *format.VideoFormat) {
	t.Helper()
	a := arena.New(32)
	reg := format.New()
	vf, err := reg.RegisterVideo(format.Gray, format.Integer, 8, 0, 0)
	require.NoError(t, err)
	return a, vf
}

func videoOutputs(vf *format.VideoFormat, width, height int, numFrames int64) []graph.OutputDescriptor {
	return []graph.OutputDescriptor{{Video: &graph.VideoInfo{Format: vf, Width: width, Height: height, FPSNum: 1, FPSDen: 1, NumFrames: numFrames}}}
}

// sourceNode always returns a freshly allocated, uniformly filled frame.
func sourceNode(t *testing.T, a *arena.Arena, vf *format.VideoFormat, width, height int, fill byte, numFrames int64) *graph.Node {
	t.Helper()
	getFrame := func(n int64, reason graph.ActivationReason, instanceData any, slot *any, ctx *graph.FrameContext, core graph.CoreHandle) (frame.Frame, error) {
		f, err := frame.NewVideoFrame(a, vf, width, height, nil, true)
		if err != nil {
			return nil, err
		}
		plane, err := f.WritePlane(0)
		if err != nil {
			return nil, err
		}
		for i := range plane {
			plane[i] = fill
		}
		return f, nil
	}
	n, err := graph.NewNode("Source", graph.Parallel, 0, 2, videoOutputs(vf, width, height, numFrames), nil, getFrame, nil, nil)
	require.NoError(t, err)
	return n
}

// identityNode requests frame n from upstream and returns it unchanged.
func identityNode(t *testing.T, upstream *graph.Node, vf *format.VideoFormat, width, height int, numFrames int64) *graph.Node {
	t.Helper()
	getFrame := func(n int64, reason graph.ActivationReason, instanceData any, slot *any, ctx *graph.FrameContext, core graph.CoreHandle) (frame.Frame, error) {
		switch reason {
		case graph.Initial:
			require.NoError(t, core.RequestFrame(upstream, 0, n, ctx))
			return nil, nil
		case graph.AllReady:
			f, ok := ctx.Delivered(upstream, 0, n)
			require.True(t, ok)
			return f, nil
		default:
			return nil, ctxErr(ctx)
		}
	}
	n, err := graph.NewNode("Identity", graph.Parallel, 0, 2, videoOutputs(vf, width, height, numFrames), nil, getFrame, nil, nil)
	require.NoError(t, err)
	return n
}

func ctxErr(ctx *graph.FrameContext) error {
	if msg := ctx.ErrorMessage(); msg != "" {
		return &ctxError{msg}
	}
	return &ctxError{"upstream error"}
}

type ctxError struct{ msg string }

func (e *ctxError) Error() string { return e.msg }

func awaitCompletion(t *testing.T, timeout time.Duration, submit func(cb func(frame.Frame, error))) (frame.Frame, error) {
	t.Helper()
	var (
		mu   sync.Mutex
		done = make(chan struct{})
		f    frame.Frame
		err  error
	)
	submit(func(rf frame.Frame, rerr error) {
		mu.Lock()
		f, err = rf, rerr
		mu.Unlock()
		close(done)
	})
	select {
	case <-done:
		mu.Lock()
		defer mu.Unlock()
		return f, err
	case <-time.After(timeout):
		t.Fatal("timed out waiting for completion callback")
		return nil, nil
	}
}

func TestIdentityPipelineProducesSourceFrame(t *testing.T) {
	defer goleak.VerifyNone(t)
	a, vf := testHarness(t)
	src := sourceNode(t, a, vf, 4, 4, 128, 3)
	id := identityNode(t, src, vf, 4, 4, 3)

	pool := New(4, true, nil)
	pool.Start()
	defer pool.Stop()

	f, err := awaitCompletion(t, 2*time.Second, func(cb func(frame.Frame, error)) {
		pool.RequestRoot(id, 0, 2, false, cb)
	})
	require.NoError(t, err)
	vfr := f.(*frame.VideoFrame)
	for _, b := range vfr.ReadPlane(0) {
		assert.EqualValues(t, 128, b)
	}
}

func TestErrorPropagatesToRootWithFirstMessage(t *testing.T) {
	defer goleak.VerifyNone(t)
	_, vf := testHarness(t)

	failing, err := graph.NewNode("Failing", graph.Parallel, 0, 2, videoOutputs(vf, 2, 2, 1), nil,
		func(n int64, reason graph.ActivationReason, instanceData any, slot *any, ctx *graph.FrameContext, core graph.CoreHandle) (frame.Frame, error) {
			ctx.SetError("boom")
			return nil, &ctxError{"boom"}
		}, nil, nil)
	require.NoError(t, err)
	id := identityNode(t, failing, vf, 2, 2, 1)

	pool := New(4, false, nil)
	pool.Start()
	defer pool.Stop()

	_, err = awaitCompletion(t, 2*time.Second, func(cb func(frame.Frame, error)) {
		pool.RequestRoot(id, 0, 0, false, cb)
	})
	require.Error(t, err)
	assert.Equal(t, "boom", err.Error())
}

// TestFrameStateNodeSerializesInitialEntry checks that a FrameState node's
// get-frame callback is never entered by more than one worker at a time,
// regardless of n. Since this filter resolves entirely on its Initial pass,
// it never reaches an AllReady entry, so it does not exercise the
// ascending-n admission gate — see
// TestFrameStateNodeGatesAllReadyInAscendingOrder for that.
func TestFrameStateNodeSerializesInitialEntry(t *testing.T) {
	defer goleak.VerifyNone(t)
	a, vf := testHarness(t)

	var mu sync.Mutex
	var seen []int64
	inside := 0
	maxInside := 0

	node, err := graph.NewNode("Stateful", graph.FrameState, 0, 2, videoOutputs(vf, 2, 2, 8), nil,
		func(n int64, reason graph.ActivationReason, instanceData any, slot *any, ctx *graph.FrameContext, core graph.CoreHandle) (frame.Frame, error) {
			mu.Lock()
			seen = append(seen, n)
			inside++
			if inside > maxInside {
				maxInside = inside
			}
			mu.Unlock()
			f, err := frame.NewVideoFrame(a, vf, 2, 2, nil, false)
			mu.Lock()
			inside--
			mu.Unlock()
			return f, err
		}, nil, nil)
	require.NoError(t, err)

	pool := New(8, false, nil)
	pool.Start()
	defer pool.Stop()

	var wg sync.WaitGroup
	for i := int64(0); i < 8; i++ {
		wg.Add(1)
		n := i
		go func() {
			defer wg.Done()
			_, _ = awaitCompletion(t, 2*time.Second, func(cb func(frame.Frame, error)) {
				pool.RequestRoot(node, 0, n, false, cb)
			})
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 8)
	assert.Equal(t, 1, maxInside)
}

// TestFrameStateNodeGatesAllReadyInAscendingOrder drives scenario 4 (§8):
// 8 concurrent root requests for n=0..7 against a FrameState node whose
// filter requests an upstream frame on Initial and only records n on its
// AllReady entry, submitted in descending order so the admission gate
// cannot coincidentally pass by riding priority-queue submission order.
// Without gating on the lowest outstanding n (rather than whichever n
// happens to be entered first) this deadlocks: every request but the
// first submitted would wait forever for a baseline that never returns.
func TestFrameStateNodeGatesAllReadyInAscendingOrder(t *testing.T) {
	defer goleak.VerifyNone(t)
	a, vf := testHarness(t)
	src := sourceNode(t, a, vf, 2, 2, 7, 8)

	var mu sync.Mutex
	var seen []int64

	node, err := graph.NewNode("Stateful", graph.FrameState, 0, 2, videoOutputs(vf, 2, 2, 8), nil,
		func(n int64, reason graph.ActivationReason, instanceData any, slot *any, ctx *graph.FrameContext, core graph.CoreHandle) (frame.Frame, error) {
			switch reason {
			case graph.Initial:
				require.NoError(t, core.RequestFrame(src, 0, n, ctx))
				return nil, nil
			case graph.AllReady:
				mu.Lock()
				seen = append(seen, n)
				mu.Unlock()
				f, ok := ctx.Delivered(src, 0, n)
				require.True(t, ok)
				return f, nil
			default:
				return nil, ctxErr(ctx)
			}
		}, nil, nil)
	require.NoError(t, err)

	pool := New(8, false, nil)
	pool.Start()
	defer pool.Stop()

	var wg sync.WaitGroup
	for i := int64(7); i >= 0; i-- {
		wg.Add(1)
		n := i
		go func() {
			defer wg.Done()
			_, err := awaitCompletion(t, 2*time.Second, func(cb func(frame.Frame, error)) {
				pool.RequestRoot(node, 0, n, false, cb)
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 8)
	for i := 1; i < len(seen); i++ {
		assert.Less(t, seen[i-1], seen[i])
	}
}

// TestFrameStateNodeGatesAllReadyInAscendingOrderSingleWorker drives the
// same scenario as TestFrameStateNodeGatesAllReadyInAscendingOrder but with
// exactly one worker against 8 concurrent out-of-order requests — the
// fewer-workers-than-pending-items path. A blocked AllReady item that gets
// re-enqueued under its own unchanged request-order instead of being
// parked would permanently outrank every genuinely ready sibling sitting
// behind it in the queue, since the sole worker always pops the smallest
// request-order item first: this livelocks with exactly this shape
// (numWorkers=1 is an explicitly supported configuration per New's clamp).
func TestFrameStateNodeGatesAllReadyInAscendingOrderSingleWorker(t *testing.T) {
	defer goleak.VerifyNone(t)
	a, vf := testHarness(t)
	src := sourceNode(t, a, vf, 2, 2, 7, 8)

	var mu sync.Mutex
	var seen []int64

	node, err := graph.NewNode("Stateful", graph.FrameState, 0, 2, videoOutputs(vf, 2, 2, 8), nil,
		func(n int64, reason graph.ActivationReason, instanceData any, slot *any, ctx *graph.FrameContext, core graph.CoreHandle) (frame.Frame, error) {
			switch reason {
			case graph.Initial:
				require.NoError(t, core.RequestFrame(src, 0, n, ctx))
				return nil, nil
			case graph.AllReady:
				mu.Lock()
				seen = append(seen, n)
				mu.Unlock()
				f, ok := ctx.Delivered(src, 0, n)
				require.True(t, ok)
				return f, nil
			default:
				return nil, ctxErr(ctx)
			}
		}, nil, nil)
	require.NoError(t, err)

	pool := New(1, false, nil)
	pool.Start()
	defer pool.Stop()

	var wg sync.WaitGroup
	for i := int64(7); i >= 0; i-- {
		wg.Add(1)
		n := i
		go func() {
			defer wg.Done()
			_, err := awaitCompletion(t, 2*time.Second, func(cb func(frame.Frame, error)) {
				pool.RequestRoot(node, 0, n, false, cb)
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 8)
	for i := 1; i < len(seen); i++ {
		assert.Less(t, seen[i-1], seen[i])
	}
}

func TestParallelRequestsRejectsDoubleEntryAsFatal(t *testing.T) {
	defer goleak.VerifyNone(t)
	a, vf := testHarness(t)

	release := make(chan struct{})
	entered := make(chan struct{}, 2)

	node, err := graph.NewNode("Slow", graph.ParallelRequests, 0, 2, videoOutputs(vf, 2, 2, 1), nil,
		func(n int64, reason graph.ActivationReason, instanceData any, slot *any, ctx *graph.FrameContext, core graph.CoreHandle) (frame.Frame, error) {
			entered <- struct{}{}
			<-release
			return frame.NewVideoFrame(a, vf, 2, 2, nil, false)
		}, nil, nil)
	require.NoError(t, err)

	pool := New(1, false, nil)
	pool.Start()
	pool.ReserveThread() // make room for the second concurrent entry to run at all
	defer pool.Stop()

	gotErr := make(chan error, 1)
	pool.RequestRoot(node, 0, 5, false, func(f frame.Frame, err error) { gotErr <- err })

	<-entered // first worker is now inside the filter for n=5

	gotErr2 := make(chan error, 1)
	pool.RequestRoot(node, 0, 5, false, func(f frame.Frame, err error) { gotErr2 <- err })

	var fe *gerrors.FatalError
	select {
	case err := <-gotErr2:
		require.ErrorAs(t, err, &fe)
	case <-time.After(2 * time.Second):
		t.Fatal("expected the duplicate (node,n) entry to fail fast as a fatal protocol violation")
	}
	close(release)
	<-gotErr
}

// TestCoalescedUpstreamRequestDoesNotFalselyReportProtocolViolation drives
// a diamond: Fanout requests both A(n) and B(n) from its own Initial pass,
// and A and B each separately request Source(n). A's Source request is the
// one that actually creates and waits on the shared (Source,0,n) child;
// B's request is held back with reserveThread/releaseThread until after
// A's AllReady pass has run ctx.Delivered on it, which can only happen once
// that child is already marked done. By the time B calls RequestFrame,
// RequestUpstream takes the "child already done" branch and nets B's
// pending back to 0 within the same Initial call — issuing ≥1 requests
// that all resolved synchronously must not be confused with issuing zero.
func TestCoalescedUpstreamRequestDoesNotFalselyReportProtocolViolation(t *testing.T) {
	defer goleak.VerifyNone(t)
	a, vf := testHarness(t)
	src := sourceNode(t, a, vf, 2, 2, 200, 1)

	sourceDone := make(chan struct{})

	aNode, err := graph.NewNode("A", graph.Parallel, 0, 2, videoOutputs(vf, 2, 2, 1), nil,
		func(n int64, reason graph.ActivationReason, instanceData any, slot *any, ctx *graph.FrameContext, core graph.CoreHandle) (frame.Frame, error) {
			switch reason {
			case graph.Initial:
				require.NoError(t, core.RequestFrame(src, 0, n, ctx))
				return nil, nil
			case graph.AllReady:
				f, ok := ctx.Delivered(src, 0, n)
				require.True(t, ok)
				close(sourceDone)
				return f, nil
			default:
				return nil, ctxErr(ctx)
			}
		}, nil, nil)
	require.NoError(t, err)

	bNode, err := graph.NewNode("B", graph.Parallel, 0, 2, videoOutputs(vf, 2, 2, 1), nil,
		func(n int64, reason graph.ActivationReason, instanceData any, slot *any, ctx *graph.FrameContext, core graph.CoreHandle) (frame.Frame, error) {
			switch reason {
			case graph.Initial:
				core.ReserveThread()
				<-sourceDone
				core.ReleaseThread()
				require.NoError(t, core.RequestFrame(src, 0, n, ctx))
				return nil, nil
			case graph.AllReady:
				f, ok := ctx.Delivered(src, 0, n)
				require.True(t, ok)
				return f, nil
			default:
				return nil, ctxErr(ctx)
			}
		}, nil, nil)
	require.NoError(t, err)

	fanout, err := graph.NewNode("Fanout", graph.Parallel, 0, 2, videoOutputs(vf, 2, 2, 1), nil,
		func(n int64, reason graph.ActivationReason, instanceData any, slot *any, ctx *graph.FrameContext, core graph.CoreHandle) (frame.Frame, error) {
			switch reason {
			case graph.Initial:
				require.NoError(t, core.RequestFrame(aNode, 0, n, ctx))
				require.NoError(t, core.RequestFrame(bNode, 0, n, ctx))
				return nil, nil
			case graph.AllReady:
				f, ok := ctx.Delivered(aNode, 0, n)
				require.True(t, ok)
				return f, nil
			default:
				return nil, ctxErr(ctx)
			}
		}, nil, nil)
	require.NoError(t, err)

	pool := New(4, false, nil)
	pool.Start()
	defer pool.Stop()

	f, err := awaitCompletion(t, 2*time.Second, func(cb func(frame.Frame, error)) {
		pool.RequestRoot(fanout, 0, 0, false, cb)
	})
	require.NoError(t, err)
	vfr := f.(*frame.VideoFrame)
	for _, b := range vfr.ReadPlane(0) {
		assert.EqualValues(t, 200, b)
	}
}
