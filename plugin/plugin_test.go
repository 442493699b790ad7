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

package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/framegraph/engine/errors"
	"github.com/framegraph/engine/propmap"
)

func noopInvoker(args *propmap.Map, _ any) *propmap.Map { return args }

func TestPluginRegisterFunction(t *testing.T) {
	p := NewPlugin("test.id", "testns", APIMajorCurrent)

	require.NoError(t, p.RegisterFunction("Identity", "clip:vnode;", noopInvoker, nil))
	_, ok := p.Function("Identity")
	assert.True(t, ok)

	err := p.RegisterFunction("Identity", "clip:vnode;", noopInvoker, nil)
	assert.ErrorIs(t, err, gerrors.ErrFunctionExists)

	err = p.RegisterFunction("Bogus", "x:not-a-type;", noopInvoker, nil)
	assert.ErrorIs(t, err, gerrors.ErrInvalidIdentifier)
}

func TestPluginReadOnlyRejectsFurtherRegistration(t *testing.T) {
	p := NewPlugin("test.id", "testns", APIMajorCurrent)
	require.NoError(t, p.RegisterFunction("A", "", noopInvoker, nil))

	p.MakeReadOnly()
	assert.True(t, p.IsReadOnly())

	err := p.RegisterFunction("B", "", noopInvoker, nil)
	assert.ErrorIs(t, err, gerrors.ErrPluginReadOnly)
}

func TestPluginFunctionsReturnsEveryRegistered(t *testing.T) {
	p := NewPlugin("test.id", "testns", APIMajorCurrent)
	require.NoError(t, p.RegisterFunction("A", "", noopInvoker, nil))
	require.NoError(t, p.RegisterFunction("B", "", noopInvoker, nil))
	assert.Len(t, p.Functions(), 2)
}

func TestRegistryRejectsDuplicateIDOrNamespace(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(NewPlugin("p1", "ns1", APIMajorCurrent)))

	err := r.Register(NewPlugin("p1", "ns2", APIMajorCurrent))
	assert.ErrorIs(t, err, gerrors.ErrPluginExists)

	err = r.Register(NewPlugin("p2", "ns1", APIMajorCurrent))
	assert.ErrorIs(t, err, gerrors.ErrPluginExists)
}

func TestRegistryLookups(t *testing.T) {
	r := NewRegistry()
	p := NewPlugin("p1", "ns1", APIMajorCurrent)
	require.NoError(t, r.Register(p))

	got, ok := r.ByID("p1")
	assert.True(t, ok)
	assert.Same(t, p, got)

	got, ok = r.ByNamespace("ns1")
	assert.True(t, ok)
	assert.Same(t, p, got)

	assert.Len(t, r.Plugins(), 1)

	_, ok = r.ByID("missing")
	assert.False(t, ok)
}
