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
	"go.uber.org/atomic"

	gerrors "github.com/framegraph/engine/errors"
	"github.com/framegraph/engine/format"
)

// NodeRef owns one user-count share of one output index of a node (§3.4).
// When the last NodeRef to a given output index releases, that output's
// share is decremented; when every output's shares are gone, the node and
// its instance data are freed.
type NodeRef struct {
	node        *Node
	outputIndex int
	released    atomic.Bool
}

// Node returns the referenced node.
func (r *NodeRef) Node() *Node { return r.node }

// OutputIndex returns the output index this reference owns a share of.
func (r *NodeRef) OutputIndex() int { return r.outputIndex }

// Clone creates another reference to the same (node, outputIndex),
// incrementing the share count again.
func (r *NodeRef) Clone() (*NodeRef, error) {
	return r.node.Ref(r.outputIndex)
}

// FormatFamily returns the color family of the referenced output's
// declared video format, for the plugin registry's compatibility check
// (spec.md §4.3 step 1). ok is false for an audio output, which carries no
// color family.
func (r *NodeRef) FormatFamily() (family format.ColorFamily, ok bool) {
	desc := r.node.Output(r.outputIndex)
	if desc.Video == nil || desc.Video.Format == nil {
		return 0, false
	}
	return desc.Video.Format.Family, true
}

// Release drops this reference's share. Releasing an already-released
// NodeRef is a double free. If this was the last share of the last output,
// the node's free callback runs under the process's configured reentrancy
// policy (see SetReentrancyPolicy): a free callback that releases another
// NodeRef, whose own free callback releases another, and so on, is
// deferred rather than recursed on the native stack.
func (r *NodeRef) Release() error {
	if !r.released.CompareAndSwap(false, true) {
		return gerrors.ErrDoubleFree
	}
	shouldFree, err := r.node.release(r.outputIndex)
	if err != nil || !shouldFree {
		return err
	}
	node := r.node
	return runRelease(func() { node.free(node.instanceData) })
}
