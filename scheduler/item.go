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

package scheduler

import (
	gods "github.com/Workiva/go-datastructures/queue"

	"github.com/framegraph/engine/graph"
)

// readyItem is one runnable entry in the scheduler's ready queue: a frame
// context together with the activation reason it must be (re-)entered
// with. The queue orders items by (request_order, then insertion order)
// (§4.4.2), so a child context created to satisfy a high-priority root
// never starves behind a slower, earlier-enqueued burst from another
// root, while independent roots still drain in roughly the order they
// arrived.
type readyItem struct {
	ctx    *graph.FrameContext
	reason graph.ActivationReason
	seq    uint64
}

var _ gods.Item = (*readyItem)(nil)

// Compare implements gods.Item so the priority queue can order readyItems
// ascending by (request_order, seq): the smallest request_order is popped
// first, and ties break by insertion order.
func (r *readyItem) Compare(other gods.Item) int {
	o := other.(*readyItem)
	if r.ctx.RequestOrder() != o.ctx.RequestOrder() {
		if r.ctx.RequestOrder() < o.ctx.RequestOrder() {
			return -1
		}
		return 1
	}
	if r.seq != o.seq {
		if r.seq < o.seq {
			return -1
		}
		return 1
	}
	return 0
}
