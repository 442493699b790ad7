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

// Command framegraph-example builds a one-node graph, pulls a single frame
// through the core, and prints arena stats and elapsed time. It exists to
// exercise engine.Core end to end outside of the test suite.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/framegraph/engine/engine"
	"github.com/framegraph/engine/format"
	"github.com/framegraph/engine/frame"
	"github.com/framegraph/engine/graph"
	"github.com/framegraph/engine/internal/duration"
	"github.com/framegraph/engine/plugin"
	"github.com/framegraph/engine/propmap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "framegraph-example:", err)
		os.Exit(1)
	}
}

func run() error {
	core, err := engine.New("framegraph-example", engine.WithWorkerCount(4))
	if err != nil {
		return err
	}
	defer func() { _ = core.Close() }()

	vf, err := core.Formats().RegisterVideo(format.Gray, format.Integer, 8, 0, 0)
	if err != nil {
		return err
	}

	p := plugin.NewPlugin("example.source", "example", plugin.APIMajorCurrent)
	err = p.RegisterFunction("Solid", "width:int;height:int;level:int;", func(args *propmap.Map, _ any) *propmap.Map {
		widths, _ := args.Ints("width")
		heights, _ := args.Ints("height")
		levels, _ := args.Ints("level")
		width, height, level := int(widths[0]), int(heights[0]), byte(levels[0])

		getFrame := func(n int64, reason graph.ActivationReason, instanceData any, slot *any, ctx *graph.FrameContext, ch graph.CoreHandle) (frame.Frame, error) {
			vfr, err := core.NewVideoFrame(vf, width, height, nil, false)
			if err != nil {
				return nil, err
			}
			for i := 0; i < vfr.NumPlanes(); i++ {
				plane, err := vfr.WritePlane(i)
				if err != nil {
					return nil, err
				}
				for j := range plane {
					plane[j] = level
				}
			}
			return vfr, nil
		}

		node, err := graph.NewNode("Solid", graph.Parallel, 0, int(plugin.APIMajorCurrent),
			[]graph.OutputDescriptor{{Video: &graph.VideoInfo{Format: vf, Width: width, Height: height, FPSNum: 25, FPSDen: 1, NumFrames: 1}}},
			nil, getFrame, nil, core.CreationHead())
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
	if err != nil {
		return err
	}
	if err := core.Plugins().Register(p); err != nil {
		return err
	}

	args := propmap.New()
	args.SetInt("width", 1920)
	args.SetInt("height", 1080)
	args.SetInt("level", 235)

	start := time.Now()
	result, err := core.Invoke(p.ID, "Solid", args)
	if err != nil {
		return err
	}
	refs, _ := result.VideoNodes("clip")
	ref := refs[0].(*graph.NodeRef)
	defer func() { _ = ref.Release() }()

	f, err := core.GetFrame(ref, 0, false)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	current, peak := core.Stats()
	fmt.Printf("rendered frame of kind %v in %s (arena: %d bytes current, %d bytes peak)\n",
		f.Kind(), duration.Format(elapsed), current, peak)
	return nil
}
