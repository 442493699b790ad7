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

package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framegraph/engine/format"
	"github.com/framegraph/engine/frame"
	"github.com/framegraph/engine/graph"
	"github.com/framegraph/engine/plugin"
	"github.com/framegraph/engine/propmap"
)

// newGraySourcePlugin registers a "Source" function on a fresh plugin that
// constructs a one-output gray-video node filling every plane byte with
// fill, grounded on the same construction path a real filter would use
// from inside Invoke.
func newGraySourcePlugin(t *testing.T, c *Core, vf *format.VideoFormat, fill byte) *plugin.Plugin {
	t.Helper()
	p := plugin.NewPlugin("test.source", "testsource", plugin.APIMajorCurrent)
	err := p.RegisterFunction("Source", "width:int;height:int;", func(args *propmap.Map, _ any) *propmap.Map {
		widths, _ := args.Ints("width")
		heights, _ := args.Ints("height")
		width, height := int(widths[0]), int(heights[0])

		getFrame := func(n int64, reason graph.ActivationReason, instanceData any, frameDataSlot *any, ctx *graph.FrameContext, core graph.CoreHandle) (frame.Frame, error) {
			vfr, err := c.NewVideoFrame(vf, width, height, nil, false)
			if err != nil {
				return nil, err
			}
			for i := 0; i < vfr.NumPlanes(); i++ {
				plane, err := vfr.WritePlane(i)
				if err != nil {
					return nil, err
				}
				for j := range plane {
					plane[j] = fill
				}
			}
			return vfr, nil
		}

		node, err := graph.NewNode("Source", graph.Parallel, 0, int(plugin.APIMajorCurrent),
			[]graph.OutputDescriptor{{Video: &graph.VideoInfo{Format: vf, Width: width, Height: height, FPSNum: 1, FPSDen: 1, NumFrames: 3}}},
			nil, getFrame, nil, c.CreationHead())
		if err != nil {
			return propmap.NewError(err.Error())
		}
		ref, err := node.Ref(0)
		if err != nil {
			return propmap.NewError(err.Error())
		}

		result := propmap.New()
		result.SetVideoNode("clip", ref)
		return result
	}, nil)
	require.NoError(t, err)
	return p
}

func TestCoreInvokeAndGetFrame(t *testing.T) {
	c, err := New("test", WithWorkerCount(2))
	require.NoError(t, err)
	defer func() { require.NoError(t, c.Close()) }()

	vf, err := c.Formats().RegisterVideo(format.Gray, format.Integer, 8, 0, 0)
	require.NoError(t, err)

	p := newGraySourcePlugin(t, c, vf, 128)
	require.NoError(t, c.Plugins().Register(p))

	args := propmap.New()
	args.SetInt("width", 4)
	args.SetInt("height", 4)

	result, err := c.Invoke(p.ID, "Source", args)
	require.NoError(t, err)
	require.False(t, result.IsError())

	refs, ok := result.VideoNodes("clip")
	require.True(t, ok)
	require.Len(t, refs, 1)
	ref := refs[0].(*graph.NodeRef)

	f, err := c.GetFrame(ref, 0, false)
	require.NoError(t, err)
	vfr := f.(*frame.VideoFrame)
	assert.Equal(t, 4, vfr.Width())
	assert.Equal(t, 4, vfr.Height())
	for _, b := range vfr.ReadPlane(0) {
		assert.Equal(t, byte(128), b)
	}
}

func TestCoreInvokeUnknownPluginOrFunction(t *testing.T) {
	c, err := New("test", WithWorkerCount(1))
	require.NoError(t, err)
	defer func() { require.NoError(t, c.Close()) }()

	_, err = c.Invoke("nope", "Fn", propmap.New())
	assert.Error(t, err)

	vf, err := c.Formats().RegisterVideo(format.Gray, format.Integer, 8, 0, 0)
	require.NoError(t, err)
	p := newGraySourcePlugin(t, c, vf, 1)
	require.NoError(t, c.Plugins().Register(p))

	_, err = c.Invoke(p.ID, "NoSuchFunction", propmap.New())
	assert.Error(t, err)
}

func TestCoreInvokeArgumentValidationReturnsErrorStampedMap(t *testing.T) {
	c, err := New("test", WithWorkerCount(1))
	require.NoError(t, err)
	defer func() { require.NoError(t, c.Close()) }()

	vf, err := c.Formats().RegisterVideo(format.Gray, format.Integer, 8, 0, 0)
	require.NoError(t, err)
	p := newGraySourcePlugin(t, c, vf, 1)
	require.NoError(t, c.Plugins().Register(p))

	result, err := c.Invoke(p.ID, "Source", propmap.New())
	assert.Error(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError())
}

func TestCoreGetFrameAsync(t *testing.T) {
	c, err := New("test", WithWorkerCount(2))
	require.NoError(t, err)
	defer func() { require.NoError(t, c.Close()) }()

	vf, err := c.Formats().RegisterVideo(format.Gray, format.Integer, 8, 0, 0)
	require.NoError(t, err)
	p := newGraySourcePlugin(t, c, vf, 200)
	require.NoError(t, c.Plugins().Register(p))

	args := propmap.New()
	args.SetInt("width", 2)
	args.SetInt("height", 2)
	result, err := c.Invoke(p.ID, "Source", args)
	require.NoError(t, err)
	refs, _ := result.VideoNodes("clip")
	ref := refs[0].(*graph.NodeRef)

	var wg sync.WaitGroup
	wg.Add(1)
	var got frame.Frame
	var gotErr error
	err = c.GetFrameAsync(ref, 1, false, func(f frame.Frame, e error, userData any) {
		got, gotErr = f, e
		wg.Done()
	}, nil)
	require.NoError(t, err)

	waitDone := make(chan struct{})
	go func() { wg.Wait(); close(waitDone) }()
	select {
	case <-waitDone:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for async callback")
	}
	require.NoError(t, gotErr)
	require.NotNil(t, got)
}

func TestCoreCloseTwiceIsDoubleFree(t *testing.T) {
	c, err := New("test")
	require.NoError(t, err)
	require.NoError(t, c.Close())
	assert.Error(t, c.Close())
}

func TestCoreOperationsAfterCloseReturnCoreClosed(t *testing.T) {
	c, err := New("test")
	require.NoError(t, err)
	require.NoError(t, c.Close())

	_, err = c.Invoke("x", "y", propmap.New())
	assert.Error(t, err)
}

func TestSoftMemoryCapRoundTrips(t *testing.T) {
	c, err := New("test", WithSoftMemoryCap(123))
	require.NoError(t, err)
	defer func() { require.NoError(t, c.Close()) }()
	assert.Equal(t, int64(123), c.SoftMemoryCap())

	c.SetSoftMemoryCap(456)
	assert.Equal(t, int64(456), c.SoftMemoryCap())
}
