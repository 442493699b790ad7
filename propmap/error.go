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

import (
	"fmt"

	gerrors "github.com/framegraph/engine/errors"
)

// GetError returns the error a caller should surface for a failed query: if
// m is error-stamped, ErrMapErrored wrapping the stamped message; if key is
// missing, ErrKeyNotFound; if key holds a different kind than requested,
// ErrTypeMismatch; otherwise nil.
func (m *Map) GetError(key string, want Kind) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.errored {
		return fmt.Errorf("%w: %s", gerrors.ErrMapErrored, m.errMsg)
	}
	e, ok := m.entries[key]
	if !ok {
		return gerrors.ErrKeyNotFound
	}
	if e.kind != want {
		return gerrors.ErrTypeMismatch
	}
	return nil
}
