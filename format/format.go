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

// Package format canonicalizes video and audio format descriptors and
// validates their field combinations. Once registered, a format lives for
// the registry's lifetime at a stable id; the registry never relocates or
// reuses an id.
package format

import (
	"fmt"

	gerrors "github.com/framegraph/engine/errors"
)

// ColorFamily identifies a video format's color model.
type ColorFamily uint8

const (
	// Undefined designates a variable-format clip; all other video fields
	// must be zero when family is Undefined.
	Undefined ColorFamily = iota
	Gray
	RGB
	YUV
)

// SampleType distinguishes integer from floating-point sample storage.
type SampleType uint8

const (
	Integer SampleType = iota
	Float
)

// VideoFormat is a canonicalized video format descriptor.
type VideoFormat struct {
	ID            uint32
	Family        ColorFamily
	SampleType    SampleType
	BitsPerSample uint8
	SubSamplingW  uint8
	SubSamplingH  uint8
}

// AudioFormat is a canonicalized audio format descriptor.
type AudioFormat struct {
	SampleType    SampleType
	BitsPerSample uint8
	ChannelLayout uint64
}

// packID derives the canonical 32-bit format id from the five video
// fields: family, sampleType and bits each take one byte, and ssW and ssH
// share the low byte as 4-bit nibbles ([family|sampleType|bits|ssW:ssH]).
func packID(family ColorFamily, sampleType SampleType, bits, ssW, ssH uint8) uint32 {
	return uint32(family)<<24 | uint32(sampleType)<<16 | uint32(bits)<<8 | uint32(ssW)<<4 | uint32(ssH)
}

// unpackID is the inverse of packID.
func unpackID(id uint32) (family ColorFamily, sampleType SampleType, bits, ssW, ssH uint8) {
	family = ColorFamily((id >> 24) & 0xFF)
	sampleType = SampleType((id >> 16) & 0xFF)
	bits = uint8((id >> 8) & 0xFF)
	ssW = uint8((id >> 4) & 0xF)
	ssH = uint8(id & 0xF)
	return
}

// validateVideo checks the structural rules of §4.2: bits/sample in
// [8,32] (float restricted to 16 or 32), subsampling in [0,4], RGB/Gray
// forbidding nonzero subsampling, and Undefined requiring every other
// field to be zero.
func validateVideo(family ColorFamily, sampleType SampleType, bits, ssW, ssH uint8) error {
	if family == Undefined {
		if sampleType != Integer || bits != 0 || ssW != 0 || ssH != 0 {
			return fmt.Errorf("%w: undefined family requires all other fields zero", gerrors.ErrInvalidFormat)
		}
		return nil
	}
	if ssW > 4 || ssH > 4 {
		return fmt.Errorf("%w: subsampling out of range [0,4]", gerrors.ErrInvalidFormat)
	}
	switch sampleType {
	case Integer:
		if bits < 8 || bits > 32 {
			return fmt.Errorf("%w: integer bits/sample must be in [8,32]", gerrors.ErrInvalidFormat)
		}
	case Float:
		if bits != 16 && bits != 32 {
			return fmt.Errorf("%w: float bits/sample must be 16 or 32", gerrors.ErrInvalidFormat)
		}
	default:
		return fmt.Errorf("%w: unknown sample type", gerrors.ErrInvalidFormat)
	}
	if (family == RGB || family == Gray) && (ssW != 0 || ssH != 0) {
		return fmt.Errorf("%w: %s forbids chroma subsampling", gerrors.ErrInvalidFormat, familyName(family))
	}
	return nil
}

// validateAudio checks the structural rules of §4.2 for audio formats:
// bits/sample in [16,32] (float restricted to 32) and a nonzero channel
// layout.
func validateAudio(sampleType SampleType, bits uint8, channelLayout uint64) error {
	if channelLayout == 0 {
		return fmt.Errorf("%w: channel layout must be nonzero", gerrors.ErrInvalidFormat)
	}
	if bits < 16 || bits > 32 {
		return fmt.Errorf("%w: bits/sample must be in [16,32]", gerrors.ErrInvalidFormat)
	}
	switch sampleType {
	case Integer:
	case Float:
		if bits != 32 {
			return fmt.Errorf("%w: float bits/sample must be 32", gerrors.ErrInvalidFormat)
		}
	default:
		return fmt.Errorf("%w: unknown sample type", gerrors.ErrInvalidFormat)
	}
	return nil
}

func familyName(f ColorFamily) string {
	switch f {
	case Undefined:
		return "undefined"
	case Gray:
		return "gray"
	case RGB:
		return "rgb"
	case YUV:
		return "yuv"
	default:
		return "unknown"
	}
}
