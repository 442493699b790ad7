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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framegraph/engine/arena"
	gerrors "github.com/framegraph/engine/errors"
	"github.com/framegraph/engine/format"
	"github.com/framegraph/engine/propmap"
)

func yuv420p8(t *testing.T, reg *format.Registry) *format.VideoFormat {
	t.Helper()
	vf, err := reg.RegisterVideo(format.YUV, format.Integer, 8, 1, 1)
	require.NoError(t, err)
	return vf
}

func TestVideoFrameStrideAlignment(t *testing.T) {
	a := arena.New(32)
	reg := format.New()
	vf := yuv420p8(t, reg)

	f, err := NewVideoFrame(a, vf, 17, 9, nil, true)
	require.NoError(t, err)

	assert.Equal(t, 0, f.Stride(0)%32)
	assert.Equal(t, 0, f.Stride(1)%32)
	assert.Equal(t, f.Stride(1), f.Stride(2))
	require.NoError(t, f.Release())
}

func TestWritePlaneTriggersCopyOnWrite(t *testing.T) {
	a := arena.New(32)
	reg := format.New()
	vf := yuv420p8(t, reg)

	f, err := NewVideoFrame(a, vf, 16, 16, nil, true)
	require.NoError(t, err)

	shared := CopyFrame(f)
	assert.EqualValues(t, 2, f.planes[0].RefCount())

	_, err = f.WritePlane(0)
	require.NoError(t, err)

	assert.EqualValues(t, 1, f.planes[0].RefCount())
	assert.EqualValues(t, 1, shared.planes[0].RefCount())
	assert.EqualValues(t, 2, f.planes[1].RefCount())

	require.NoError(t, f.Release())
	require.NoError(t, shared.Release())
}

func TestGuardRegionsSurviveUntouched(t *testing.T) {
	a := arena.New(32)
	reg := format.New()
	vf := yuv420p8(t, reg)

	f, err := NewVideoFrame(a, vf, 16, 16, nil, true)
	require.NoError(t, err)
	require.NoError(t, f.VerifyGuards())
	require.NoError(t, f.Release())
}

func TestGuardCorruptionDetected(t *testing.T) {
	a := arena.New(32)
	reg := format.New()
	vf := yuv420p8(t, reg)

	f, err := NewVideoFrame(a, vf, 16, 16, nil, true)
	require.NoError(t, err)

	data, err := f.WritePlane(0)
	require.NoError(t, err)
	// Overrun one byte past the plane's declared length, into the guard.
	overrun := f.planes[0].block.Data[f.planes[0].offset+len(data):]
	overrun[0] ^= 0xFF

	assert.ErrorIs(t, f.VerifyGuards(), gerrors.ErrGuardCorruption)
	require.NoError(t, f.Release())
}

func TestVideoFramePropertyTemplateCopied(t *testing.T) {
	a := arena.New(32)
	reg := format.New()
	vf := yuv420p8(t, reg)

	template := propmap.New()
	require.NoError(t, template.AppendInt("_DurationNum", 1))

	f, err := NewVideoFrame(a, vf, 8, 8, template, false)
	require.NoError(t, err)

	v, ok := f.Properties().Ints("_DurationNum")
	require.True(t, ok)
	assert.Equal(t, []int64{1}, v)

	require.NoError(t, template.AppendInt("_DurationNum", 2))
	v, _ = f.Properties().Ints("_DurationNum")
	assert.Equal(t, []int64{1}, v, "frame's property map must be independent of the template")

	require.NoError(t, f.Release())
}

func TestAudioFrameGranularity(t *testing.T) {
	a := arena.New(32)
	af := &format.AudioFormat{SampleType: format.Integer, BitsPerSample: 16, ChannelLayout: 0b11}

	f, err := NewAudioFrame(a, af, DefaultGranularity, 0, nil, true)
	require.NoError(t, err)
	assert.Equal(t, DefaultGranularity, f.NumSamples())
	require.NoError(t, f.Release())

	_, err = NewAudioFrame(a, af, DefaultGranularity+1, 0, nil, true)
	assert.Error(t, err)

	_, err = NewAudioFrame(a, af, 0, 0, nil, true)
	assert.Error(t, err)
}

func TestAudioFrameWriteDataCopyOnWrite(t *testing.T) {
	a := arena.New(32)
	af := &format.AudioFormat{SampleType: format.Integer, BitsPerSample: 16, ChannelLayout: 0b11}

	f, err := NewAudioFrame(a, af, 100, 0, nil, false)
	require.NoError(t, err)
	shared := CopyAudioFrame(f)

	_, err = f.WriteData()
	require.NoError(t, err)
	assert.EqualValues(t, 1, f.payload.RefCount())
	assert.EqualValues(t, 1, shared.payload.RefCount())

	require.NoError(t, f.Release())
	require.NoError(t, shared.Release())
}
