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
	"math/bits"

	gerrors "github.com/framegraph/engine/errors"
	"github.com/framegraph/engine/format"
	"github.com/framegraph/engine/propmap"
)

// AudioFrame is an immutable, reference-counted block of interleaved audio
// samples (§3.1): a single payload, at most DefaultGranularity samples
// unless constructed with an explicit larger granularity.
type AudioFrame struct {
	alloc       Allocator
	format      *format.AudioFormat
	numSamples  int
	granularity int
	payload     *Payload
	props       *propmap.Map
}

func audioBytesPerSample(af *format.AudioFormat) int {
	return int(af.BitsPerSample) / 8
}

func channelCount(layout uint64) int {
	return bits.OnesCount64(layout)
}

// NewAudioFrame allocates a fresh audio frame of af holding numSamples
// samples, which must be in (0, granularity] — the frame-granularity rule
// of §3.1/§4.4.4: every frame but the final one of a clip is exactly
// granularity samples, and the final frame holds the remainder.
func NewAudioFrame(alloc Allocator, af *format.AudioFormat, numSamples, granularity int, template *propmap.Map, guarded bool) (*AudioFrame, error) {
	if granularity <= 0 {
		granularity = DefaultGranularity
	}
	if numSamples <= 0 || numSamples > granularity {
		return nil, fmt.Errorf("%w: sample count must be in (0, %d]", gerrors.ErrInvalidAudioInfo, granularity)
	}

	frameBytes := numSamples * audioBytesPerSample(af) * channelCount(af.ChannelLayout)
	payload, err := newPayload(alloc, frameBytes, guarded)
	if err != nil {
		return nil, err
	}
	return &AudioFrame{
		alloc:       alloc,
		format:      af,
		numSamples:  numSamples,
		granularity: granularity,
		payload:     payload,
		props:       templateProps(template),
	}, nil
}

// CopyAudioFrame returns a new frame header sharing f's payload (retained)
// and an independent copy of f's property map.
func CopyAudioFrame(f *AudioFrame) *AudioFrame {
	f.payload.Retain()
	return &AudioFrame{
		alloc:       f.alloc,
		format:      f.format,
		numSamples:  f.numSamples,
		granularity: f.granularity,
		payload:     f.payload,
		props:       f.props.Copy(),
	}
}

// Kind implements Frame.
func (f *AudioFrame) Kind() Kind { return Audio }

// Properties implements Frame.
func (f *AudioFrame) Properties() *propmap.Map { return f.props }

// Format returns f's format descriptor.
func (f *AudioFrame) Format() *format.AudioFormat { return f.format }

// NumSamples returns the number of samples f carries.
func (f *AudioFrame) NumSamples() int { return f.numSamples }

// Granularity returns the frame-granularity f was constructed against.
func (f *AudioFrame) Granularity() int { return f.granularity }

// ReadData returns a read-only view of f's interleaved sample data.
func (f *AudioFrame) ReadData() []byte {
	return f.payload.Data()
}

// WriteData returns a writable view of f's sample data, performing
// copy-on-write if the payload is currently shared.
func (f *AudioFrame) WriteData() ([]byte, error) {
	if f.payload.RefCount() > 1 {
		clone, err := f.payload.Clone()
		if err != nil {
			return nil, err
		}
		if err := f.payload.Release(); err != nil {
			return nil, err
		}
		f.payload = clone
	}
	return f.payload.Data(), nil
}

// VerifyGuards checks the payload's guard regions.
func (f *AudioFrame) VerifyGuards() error {
	return f.payload.VerifyGuards()
}

// Release drops f's reference to its payload.
func (f *AudioFrame) Release() error {
	return f.payload.Release()
}
