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
	"github.com/framegraph/engine/format"
	"github.com/framegraph/engine/frame"
	"github.com/framegraph/engine/propmap"
)

// NewVideoFrame allocates a video frame against the core's arena
// (spec.md §6 "new video frame").
func (c *Core) NewVideoFrame(vf *format.VideoFormat, width, height int, template *propmap.Map, guarded bool) (*frame.VideoFrame, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	return frame.NewVideoFrame(c.arena, vf, width, height, template, guarded)
}

// NewVideoFrameStealingPlanes builds a video frame that retains (rather
// than copies) planes from existing frames, for the zero-copy
// construction path (spec.md §6).
func (c *Core) NewVideoFrameStealingPlanes(vf *format.VideoFormat, width, height int, sources []*frame.VideoFrame, sourcePlaneIdx []int, template *propmap.Map) (*frame.VideoFrame, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	return frame.NewVideoFrameStealingPlanes(c.arena, vf, width, height, sources, sourcePlaneIdx, template)
}

// NewAudioFrame allocates an audio frame against the core's arena
// (spec.md §6 "new audio frame").
func (c *Core) NewAudioFrame(af *format.AudioFormat, numSamples, granularity int, template *propmap.Map, guarded bool) (*frame.AudioFrame, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	return frame.NewAudioFrame(c.arena, af, numSamples, granularity, template, guarded)
}
