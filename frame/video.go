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

package frame

import (
	"fmt"

	gerrors "github.com/framegraph/engine/errors"
	"github.com/framegraph/engine/format"
	"github.com/framegraph/engine/propmap"
)

// VideoFrame is an immutable, reference-counted video frame: 1 plane for
// Gray, 3 for RGB/YUV. Planes 1 and 2 of a 3-plane frame always share a
// single stride, derived from chroma subsampling (§3.1's invariant).
type VideoFrame struct {
	alloc  Allocator
	format *format.VideoFormat
	width  int
	height int

	numPlanes int
	stride    [3]int
	planeH    [3]int
	planes    [3]*Payload

	props *propmap.Map
}

// bytesPerSample returns the byte width of one sample's storage container,
// following the common planar convention of rounding a bit depth up to the
// next container size (1/2/4 bytes) rather than packing sub-byte bit
// depths: 8-bit samples fit in one byte, 9-16 bit integer and 16-bit float
// samples fit in two, and everything wider (including 32-bit float) takes
// four.
func bytesPerSample(vf *format.VideoFormat) int {
	if vf.SampleType == format.Float && vf.BitsPerSample == 32 {
		return 4
	}
	switch {
	case vf.BitsPerSample <= 8:
		return 1
	case vf.BitsPerSample <= 16:
		return 2
	default:
		return 4
	}
}

func numPlanesFor(family format.ColorFamily) int {
	if family == format.Gray {
		return 1
	}
	return 3
}

// NewVideoFrame allocates a fresh video frame of vf/width/height, with a
// property map copied from template (or empty, if template is nil).
func NewVideoFrame(alloc Allocator, vf *format.VideoFormat, width, height int, template *propmap.Map, guarded bool) (*VideoFrame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: width and height must be positive", gerrors.ErrInvalidVideoInfo)
	}

	f := &VideoFrame{
		alloc:     alloc,
		format:    vf,
		width:     width,
		height:    height,
		numPlanes: numPlanesFor(vf.Family),
		props:     templateProps(template),
	}

	bps := bytesPerSample(vf)
	align := alloc.Alignment()
	f.stride[0] = int(alignUp(uint64(width*bps), align))
	f.planeH[0] = height

	if f.numPlanes == 3 {
		chromaW := width >> vf.SubSamplingW
		chromaH := height >> vf.SubSamplingH
		stride := int(alignUp(uint64(chromaW*bps), align))
		f.stride[1] = stride
		f.stride[2] = stride
		f.planeH[1] = chromaH
		f.planeH[2] = chromaH
	}

	for i := 0; i < f.numPlanes; i++ {
		p, err := newPayload(alloc, f.stride[i]*f.planeH[i], guarded)
		if err != nil {
			for j := 0; j < i; j++ {
				_ = f.planes[j].Release()
			}
			return nil, err
		}
		f.planes[i] = p
	}
	return f, nil
}

// NewVideoFrameStealingPlanes builds a new frame at vf/width/height whose
// plane i is retained (not copied) from sources[i] at sourcePlaneIdx[i],
// for the zero-copy construction path described in §6. Every source plane's
// stride and height must already match the destination layout; callers
// that need a reformat must copy explicitly instead.
func NewVideoFrameStealingPlanes(alloc Allocator, vf *format.VideoFormat, width, height int, sources []*VideoFrame, sourcePlaneIdx []int, template *propmap.Map) (*VideoFrame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: width and height must be positive", gerrors.ErrInvalidVideoInfo)
	}
	numPlanes := numPlanesFor(vf.Family)
	if len(sources) != numPlanes || len(sourcePlaneIdx) != numPlanes {
		return nil, fmt.Errorf("%w: one source and plane index required per destination plane", gerrors.ErrInvalidVideoInfo)
	}

	f := &VideoFrame{
		alloc:     alloc,
		format:    vf,
		width:     width,
		height:    height,
		numPlanes: numPlanes,
		props:     templateProps(template),
	}
	for i := 0; i < numPlanes; i++ {
		src := sources[i]
		idx := sourcePlaneIdx[i]
		f.stride[i] = src.stride[idx]
		f.planeH[i] = src.planeH[idx]
		src.planes[idx].Retain()
		f.planes[i] = src.planes[idx]
	}
	return f, nil
}

// CopyFrame returns a new frame header sharing f's plane payloads (each
// retained) and an independent copy of f's property map, per §3.2's "frame
// copy is cheap" contract.
func CopyFrame(f *VideoFrame) *VideoFrame {
	out := &VideoFrame{
		alloc:     f.alloc,
		format:    f.format,
		width:     f.width,
		height:    f.height,
		numPlanes: f.numPlanes,
		stride:    f.stride,
		planeH:    f.planeH,
		props:     f.props.Copy(),
	}
	for i := 0; i < f.numPlanes; i++ {
		f.planes[i].Retain()
		out.planes[i] = f.planes[i]
	}
	return out
}

// Kind implements Frame.
func (f *VideoFrame) Kind() Kind { return Video }

// Properties implements Frame.
func (f *VideoFrame) Properties() *propmap.Map { return f.props }

// Format returns f's format descriptor.
func (f *VideoFrame) Format() *format.VideoFormat { return f.format }

// Width and Height return f's pixel dimensions.
func (f *VideoFrame) Width() int  { return f.width }
func (f *VideoFrame) Height() int { return f.height }

// NumPlanes returns the number of planes f carries (1 or 3).
func (f *VideoFrame) NumPlanes() int { return f.numPlanes }

// Stride returns the byte stride of plane i.
func (f *VideoFrame) Stride(i int) int { return f.stride[i] }

// ReadPlane returns a read-only view of plane i's data.
func (f *VideoFrame) ReadPlane(i int) []byte {
	return f.planes[i].Data()
}

// WritePlane returns a writable view of plane i, performing copy-on-write
// if the plane's payload is currently shared (refcount > 1): the payload is
// duplicated and f is repointed to the copy before the pointer is returned,
// per §3.2. After this call, that plane's payload refcount is exactly 1 and
// every other plane's refcount is unchanged (§8's plane-write invariant).
func (f *VideoFrame) WritePlane(i int) ([]byte, error) {
	p := f.planes[i]
	if p.RefCount() > 1 {
		clone, err := p.Clone()
		if err != nil {
			return nil, err
		}
		if err := p.Release(); err != nil {
			return nil, err
		}
		f.planes[i] = clone
		p = clone
	}
	return p.Data(), nil
}

// VerifyGuards checks every plane's guard regions, per §4.4.4's
// post-return corruption check.
func (f *VideoFrame) VerifyGuards() error {
	for i := 0; i < f.numPlanes; i++ {
		if err := f.planes[i].VerifyGuards(); err != nil {
			return err
		}
	}
	return nil
}

// Release drops f's reference to each of its plane payloads.
func (f *VideoFrame) Release() error {
	for i := 0; i < f.numPlanes; i++ {
		if err := f.planes[i].Release(); err != nil {
			return err
		}
	}
	return nil
}
