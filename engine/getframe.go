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

package engine

import (
	"context"
	"errors"

	gerrors "github.com/framegraph/engine/errors"
	"github.com/framegraph/engine/frame"
	"github.com/framegraph/engine/future"
	"github.com/framegraph/engine/graph"
)

// GetFrame requests frame n of ref's (node, outputIndex) and blocks until
// the scheduler delivers it (spec.md §6 "get_frame", synchronous). A
// fatal disposition latched on the root context (spec.md §7) is logged to
// every message handler and terminates the process before this call
// returns, matching the core's role as the only layer that decides to
// exit on a fatal error.
func (c *Core) GetFrame(ref *graph.NodeRef, n int64, lockOnOutput bool) (frame.Frame, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	f := future.New(func() (frame.Frame, error) {
		done := make(chan struct{})
		var result frame.Frame
		var resultErr error
		c.pool.RequestRoot(ref.Node(), ref.OutputIndex(), n, lockOnOutput, func(fr frame.Frame, err error) {
			result, resultErr = fr, err
			close(done)
		})
		<-done
		return result, resultErr
	})

	result, err := f.Await(context.Background())
	if err != nil {
		c.reportIfFatal(err)
	}
	return result, err
}

// GetFrameAsync requests frame n of ref's (node, outputIndex) and returns
// immediately; callback runs from whichever worker goroutine ultimately
// resolves the root, with userData passed through unchanged (spec.md §6
// "get_frame_async").
func (c *Core) GetFrameAsync(ref *graph.NodeRef, n int64, lockOnOutput bool, callback func(f frame.Frame, err error, userData any), userData any) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	c.pool.RequestRoot(ref.Node(), ref.OutputIndex(), n, lockOnOutput, func(f frame.Frame, err error) {
		if err != nil {
			c.reportIfFatal(err)
		}
		callback(f, err, userData)
	})
	return nil
}

// reportIfFatal logs a fatal-disposition error to every message handler
// and terminates the process (spec.md §5, §7). Non-fatal errors are left
// for the caller to handle.
func (c *Core) reportIfFatal(err error) {
	var fatal *gerrors.FatalError
	if errors.As(err, &fatal) {
		c.handleFatal(fatal)
	}
}
