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
	"fmt"

	gerrors "github.com/framegraph/engine/errors"
	"github.com/framegraph/engine/frame"
)

// ValidateOutput checks a filter's non-null return against the node's
// declared output descriptor for outputIndex (§4.4.4): format, width and
// height for video, or the frame-granularity rule for audio (every frame
// but the last holds exactly the declared granularity; the last holds the
// remainder). When checkGuards is true, the returned frame's guard regions
// are also verified. Any mismatch is a protocol violation; the caller is
// expected to treat it as fatal.
func ValidateOutput(desc OutputDescriptor, reqN int64, f frame.Frame, checkGuards bool) error {
	switch v := f.(type) {
	case *frame.VideoFrame:
		if desc.Video == nil {
			return fmt.Errorf("%w: node declares an audio output but the filter returned a video frame", gerrors.ErrProtocolViolation)
		}
		if v.Width() != desc.Video.Width || v.Height() != desc.Video.Height {
			return fmt.Errorf("%w: returned frame is %dx%d, node declares %dx%d",
				gerrors.ErrProtocolViolation, v.Width(), v.Height(), desc.Video.Width, desc.Video.Height)
		}
		if desc.Video.Format != nil && v.Format() != desc.Video.Format {
			return fmt.Errorf("%w: returned frame format does not match the node's declared format", gerrors.ErrProtocolViolation)
		}
		if checkGuards {
			if err := v.VerifyGuards(); err != nil {
				return err
			}
		}
		return nil

	case *frame.AudioFrame:
		if desc.Audio == nil {
			return fmt.Errorf("%w: node declares a video output but the filter returned an audio frame", gerrors.ErrProtocolViolation)
		}
		if desc.Audio.Format != nil && v.Format() != desc.Audio.Format {
			return fmt.Errorf("%w: returned frame format does not match the node's declared format", gerrors.ErrProtocolViolation)
		}
		if err := validateAudioGranularity(desc.Audio, reqN, v.NumSamples()); err != nil {
			return err
		}
		if checkGuards {
			if err := v.VerifyGuards(); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("%w: filter returned a frame of unknown kind", gerrors.ErrProtocolViolation)
	}
}

func validateAudioGranularity(decl *AudioInfo, reqN int64, gotSamples int) error {
	if decl.NumSamples <= 0 {
		// unbounded/live source: only the per-frame granularity cap applies.
		granularity := decl.Granularity
		if granularity <= 0 {
			granularity = frame.DefaultGranularity
		}
		if gotSamples > granularity {
			return fmt.Errorf("%w: audio frame holds %d samples, exceeding the node's granularity of %d",
				gerrors.ErrProtocolViolation, gotSamples, granularity)
		}
		return nil
	}

	granularity := decl.Granularity
	if granularity <= 0 {
		granularity = frame.DefaultGranularity
	}
	lastIndex := int64(ceilDivInt64(decl.NumSamples, int64(granularity))) - 1
	var want int64
	if reqN == lastIndex {
		want = decl.NumSamples - lastIndex*int64(granularity)
	} else {
		want = int64(granularity)
	}
	if int64(gotSamples) != want {
		return fmt.Errorf("%w: audio frame %d holds %d samples, node declares %d for this position",
			gerrors.ErrProtocolViolation, reqN, gotSamples, want)
	}
	return nil
}

func ceilDivInt64(n, d int64) int64 {
	return (n + d - 1) / d
}
