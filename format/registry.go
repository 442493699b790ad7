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

package format

import (
	"fmt"
	"sync"

	"github.com/framegraph/engine/internal/xsync"
)

// Registry canonicalizes video and audio format descriptors. Format
// registration is serialized under a single mutex; lookups by id read
// under the same lock, matching the component design's "insertion is
// serialized, lookups by id are read under the same lock" rule. A
// registered entry's id is stable for the registry's lifetime.
type Registry struct {
	mu     sync.Mutex
	video  *xsync.Map[uint32, *VideoFormat]
	audio  *xsync.Map[uint32, *AudioFormat]
	nextAK uint32
}

// New creates an empty format registry.
func New() *Registry {
	return &Registry{
		video: xsync.NewMap[uint32, *VideoFormat](),
		audio: xsync.NewMap[uint32, *AudioFormat](),
	}
}

// RegisterVideo validates and canonicalizes a video format, returning its
// stable descriptor. Re-registering an already-known combination returns
// the existing descriptor rather than creating a duplicate.
func (r *Registry) RegisterVideo(family ColorFamily, sampleType SampleType, bits, ssW, ssH uint8) (*VideoFormat, error) {
	if err := validateVideo(family, sampleType, bits, ssW, ssH); err != nil {
		return nil, err
	}
	id := packID(family, sampleType, bits, ssW, ssH)

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.video.Get(id); ok {
		return existing, nil
	}
	vf := &VideoFormat{ID: id, Family: family, SampleType: sampleType, BitsPerSample: bits, SubSamplingW: ssW, SubSamplingH: ssH}
	r.video.Set(id, vf)
	return vf, nil
}

// VideoByID looks up a previously registered video format by its canonical
// id. ok is false if no such format has been registered.
func (r *Registry) VideoByID(id uint32) (*VideoFormat, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.video.Get(id)
}

// VideoByStructure derives the canonical id from the structural fields and
// looks it up, without requiring the caller to compute packID itself. This
// is the lookup-by-structure half of the round-trip law in §8: for any
// registered format, VideoByStructure(unpack(id)) == VideoByID(id).
func (r *Registry) VideoByStructure(family ColorFamily, sampleType SampleType, bits, ssW, ssH uint8) (*VideoFormat, bool) {
	return r.VideoByID(packID(family, sampleType, bits, ssW, ssH))
}

// EnumerateVideo returns every video format registered so far. Order is
// unspecified.
func (r *Registry) EnumerateVideo() []*VideoFormat {
	return r.video.Values()
}

// RegisterAudio validates and canonicalizes an audio format. Audio formats
// have no 32-bit packed id in the source contract (only video formats are
// packed into the five-byte layout); the registry assigns a stable
// monotonic handle instead, under the same registration lock.
func (r *Registry) RegisterAudio(sampleType SampleType, bits uint8, channelLayout uint64) (*AudioFormat, error) {
	if err := validateAudio(sampleType, bits, channelLayout); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, af := range r.audio.Values() {
		if af.SampleType == sampleType && af.BitsPerSample == bits && af.ChannelLayout == channelLayout {
			return af, nil
		}
	}
	r.nextAK++
	af := &AudioFormat{SampleType: sampleType, BitsPerSample: bits, ChannelLayout: channelLayout}
	r.audio.Set(r.nextAK, af)
	return af, nil
}

// EnumerateAudio returns every audio format registered so far.
func (r *Registry) EnumerateAudio() []*AudioFormat {
	return r.audio.Values()
}

// VideoName returns the deterministic display name for a video format,
// following the "YUV420P10"-style scheme: family, subsampling digits (for
// YUV only), then "P" plus bit depth, with an "S" suffix instead of "P"
// for single-precision float and "H" for half-precision float.
func VideoName(vf *VideoFormat) string {
	if vf.Family == Undefined {
		return "Undefined"
	}
	base := familyCode(vf.Family)
	if vf.Family == YUV {
		base += subsamplingCode(vf.SubSamplingW, vf.SubSamplingH)
	}
	switch vf.SampleType {
	case Float:
		if vf.BitsPerSample == 16 {
			return fmt.Sprintf("%sH", base)
		}
		return fmt.Sprintf("%sS", base)
	default:
		return fmt.Sprintf("%sP%d", base, vf.BitsPerSample)
	}
}

func familyCode(f ColorFamily) string {
	switch f {
	case Gray:
		return "Gray"
	case RGB:
		return "RGB"
	case YUV:
		return "YUV"
	default:
		return "Undefined"
	}
}

func subsamplingCode(ssW, ssH uint8) string {
	// 4:4:4, 4:2:2, 4:2:0, 4:1:1, 4:4:0 style digits, matching the
	// subsampled-chroma naming vscore.cpp uses for its YUV formats: the
	// second digit is the horizontal chroma sample count per 4 luma
	// samples, the third repeats it when chroma is not vertically
	// subsampled and is 0 when it is.
	w := 4 >> ssW
	h := w
	if ssH > 0 {
		h = 0
	}
	return fmt.Sprintf("%d%d%d", 4, w, h)
}

// AudioName returns the deterministic display name for an audio format,
// following the "Audio16F (6 CH)"-style scheme: bit depth, "F" suffix for
// float, then the channel count derived from the layout's population
// count.
func AudioName(af *AudioFormat) string {
	suffix := ""
	if af.SampleType == Float {
		suffix = "F"
	}
	return fmt.Sprintf("Audio%d%s (%d CH)", af.BitsPerSample, suffix, popcount(af.ChannelLayout))
}

func popcount(v uint64) int {
	count := 0
	for v != 0 {
		v &= v - 1
		count++
	}
	return count
}
