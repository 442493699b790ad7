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

package propmap

// AppendInt appends v to the int array under key, creating the key if
// absent. Returns ErrTypeMismatch if key already holds a different kind.
func (m *Map) AppendInt(key string, v ...int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.touch(key, KindInt)
	if err != nil {
		return err
	}
	e.ints = append(e.ints, v...)
	return nil
}

// SetInt replaces the int array under key with v, regardless of any prior
// content or kind.
func (m *Map) SetInt(key string, v ...int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replace(key, &entry{kind: KindInt, ints: append([]int64{}, v...)})
}

// Ints returns the int array under key. ok is false if key is absent, m is
// error-stamped, or key holds a different kind.
func (m *Map) Ints(key string) (v []int64, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.errored {
		return nil, false
	}
	e, found := m.entries[key]
	if !found || e.kind != KindInt {
		return nil, false
	}
	out := make([]int64, len(e.ints))
	copy(out, e.ints)
	return out, true
}

// AppendFloat appends v to the float array under key.
func (m *Map) AppendFloat(key string, v ...float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.touch(key, KindFloat)
	if err != nil {
		return err
	}
	e.floats = append(e.floats, v...)
	return nil
}

// SetFloat replaces the float array under key with v.
func (m *Map) SetFloat(key string, v ...float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replace(key, &entry{kind: KindFloat, floats: append([]float64{}, v...)})
}

// Floats returns the float array under key.
func (m *Map) Floats(key string) (v []float64, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.errored {
		return nil, false
	}
	e, found := m.entries[key]
	if !found || e.kind != KindFloat {
		return nil, false
	}
	out := make([]float64, len(e.floats))
	copy(out, e.floats)
	return out, true
}

// AppendData appends v to the byte-string array under key.
func (m *Map) AppendData(key string, v ...Data) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.touch(key, KindData)
	if err != nil {
		return err
	}
	e.data = append(e.data, v...)
	return nil
}

// SetData replaces the byte-string array under key with v.
func (m *Map) SetData(key string, v ...Data) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replace(key, &entry{kind: KindData, data: append([]Data{}, v...)})
}

// DataValues returns the byte-string array under key.
func (m *Map) DataValues(key string) (v []Data, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.errored {
		return nil, false
	}
	e, found := m.entries[key]
	if !found || e.kind != KindData {
		return nil, false
	}
	out := make([]Data, len(e.data))
	copy(out, e.data)
	return out, true
}

// appendRef and refs implement the five reference kinds (vnode, anode,
// vframe, aframe, func) uniformly: they carry opaque any values because
// propmap does not know the concrete node/frame types (it sits below graph
// and frame in the dependency order); those packages store themselves
// through this generic slot.

func (m *Map) appendRef(key string, kind Kind, v []any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.touch(key, kind)
	if err != nil {
		return err
	}
	switch kind {
	case KindVideoNode, KindAudioNode:
		e.nodes = append(e.nodes, v...)
	case KindVideoFrame, KindAudioFrame:
		e.frames = append(e.frames, v...)
	case KindFunction:
		e.funcs = append(e.funcs, v...)
	}
	return nil
}

func (m *Map) setRef(key string, kind Kind, v []any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := &entry{kind: kind}
	switch kind {
	case KindVideoNode, KindAudioNode:
		e.nodes = append([]any{}, v...)
	case KindVideoFrame, KindAudioFrame:
		e.frames = append([]any{}, v...)
	case KindFunction:
		e.funcs = append([]any{}, v...)
	}
	m.replace(key, e)
}

func (m *Map) refs(key string, kind Kind) (v []any, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.errored {
		return nil, false
	}
	e, found := m.entries[key]
	if !found || e.kind != kind {
		return nil, false
	}
	switch kind {
	case KindVideoNode, KindAudioNode:
		out := make([]any, len(e.nodes))
		copy(out, e.nodes)
		return out, true
	case KindVideoFrame, KindAudioFrame:
		out := make([]any, len(e.frames))
		copy(out, e.frames)
		return out, true
	case KindFunction:
		out := make([]any, len(e.funcs))
		copy(out, e.funcs)
		return out, true
	default:
		return nil, false
	}
}

// AppendVideoNode appends v to the video-node-reference array under key.
func (m *Map) AppendVideoNode(key string, v ...any) error { return m.appendRef(key, KindVideoNode, v) }

// SetVideoNode replaces the video-node-reference array under key with v.
func (m *Map) SetVideoNode(key string, v ...any) { m.setRef(key, KindVideoNode, v) }

// VideoNodes returns the video-node-reference array under key.
func (m *Map) VideoNodes(key string) ([]any, bool) { return m.refs(key, KindVideoNode) }

// AppendAudioNode appends v to the audio-node-reference array under key.
func (m *Map) AppendAudioNode(key string, v ...any) error { return m.appendRef(key, KindAudioNode, v) }

// SetAudioNode replaces the audio-node-reference array under key with v.
func (m *Map) SetAudioNode(key string, v ...any) { m.setRef(key, KindAudioNode, v) }

// AudioNodes returns the audio-node-reference array under key.
func (m *Map) AudioNodes(key string) ([]any, bool) { return m.refs(key, KindAudioNode) }

// AppendVideoFrame appends v to the video-frame-reference array under key.
func (m *Map) AppendVideoFrame(key string, v ...any) error {
	return m.appendRef(key, KindVideoFrame, v)
}

// SetVideoFrame replaces the video-frame-reference array under key with v.
func (m *Map) SetVideoFrame(key string, v ...any) { m.setRef(key, KindVideoFrame, v) }

// VideoFrames returns the video-frame-reference array under key.
func (m *Map) VideoFrames(key string) ([]any, bool) { return m.refs(key, KindVideoFrame) }

// AppendAudioFrame appends v to the audio-frame-reference array under key.
func (m *Map) AppendAudioFrame(key string, v ...any) error {
	return m.appendRef(key, KindAudioFrame, v)
}

// SetAudioFrame replaces the audio-frame-reference array under key with v.
func (m *Map) SetAudioFrame(key string, v ...any) { m.setRef(key, KindAudioFrame, v) }

// AudioFrames returns the audio-frame-reference array under key.
func (m *Map) AudioFrames(key string) ([]any, bool) { return m.refs(key, KindAudioFrame) }

// AppendFunction appends v to the function-reference array under key.
func (m *Map) AppendFunction(key string, v ...any) error { return m.appendRef(key, KindFunction, v) }

// SetFunction replaces the function-reference array under key with v.
func (m *Map) SetFunction(key string, v ...any) { m.setRef(key, KindFunction, v) }

// Functions returns the function-reference array under key.
func (m *Map) Functions(key string) ([]any, bool) { return m.refs(key, KindFunction) }

// replace installs e under key, overwriting any prior entry of a different
// kind without returning an error (Set* methods are unconditional replace).
// Callers must hold the write lock.
func (m *Map) replace(key string, e *entry) {
	if _, ok := m.entries[key]; !ok {
		m.order = append(m.order, key)
	}
	m.entries[key] = e
}

// Copy returns a deep copy of m, including its error stamp. Scalar arrays
// are copied by value; node/frame/function reference slots are copied by
// reference, matching the "frame copy is cheap" contract those packages
// build on top of propmap.
func (m *Map) Copy() *Map {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := New()
	out.errored = m.errored
	out.errMsg = m.errMsg
	out.order = append([]string{}, m.order...)
	for k, e := range m.entries {
		ne := &entry{kind: e.kind}
		ne.ints = append([]int64{}, e.ints...)
		ne.floats = append([]float64{}, e.floats...)
		ne.data = append([]Data{}, e.data...)
		ne.nodes = append([]any{}, e.nodes...)
		ne.frames = append([]any{}, e.frames...)
		ne.funcs = append([]any{}, e.funcs...)
		out.entries[k] = ne
	}
	return out
}
