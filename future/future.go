/*
 * MIT License
 *
 * Copyright (c) 2022-2025  Arsene Tochemey Gandote
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

// Package future provides a single-assignment, awaitable result container.
//
// It is generic over the completed value's type rather than fixed to a
// wire message, since engine.Core completes futures with frame.Frame
// values (§6 "get_frame"), which carry plane buffers backed by the
// arena and are never marshaled.
package future

import (
	"context"
	"sync"
)

// Future represents a value which may or may not currently be available,
// but will be available at some point in the future, or an error if that
// value could not be made available.
type Future[T any] interface {
	// Await blocks until the Future is completed or context is canceled and
	// returns either a result or an error.
	Await(context.Context) (T, error)

	// complete completes the Future with either a value or an error. It is
	// used by [completable] internally.
	complete(T, error)
}

// New creates a new Future that executes task asynchronously in a separate
// goroutine. The Future can be awaited using Await, which blocks until the
// task completes or the provided context is canceled.
func New[T any](task func() (T, error)) Future[T] {
	comp := newCompletable[T]()
	go func() {
		result, err := task()
		if err == nil {
			comp.Success(result)
		} else {
			comp.Failure(err)
		}
	}()
	return comp.Future()
}

// future implements the Future interface.
type future[T any] struct {
	acceptOnce   sync.Once
	completeOnce sync.Once
	done         chan Result[T]
	result       Result[T]
}

var _ Future[int] = (*future[int])(nil)

func newFuture[T any]() Future[T] {
	return &future[T]{
		done: make(chan Result[T], 1),
	}
}

func (x *future[T]) wait(ctx context.Context) {
	x.acceptOnce.Do(func() {
		select {
		case r := <-x.done:
			x.result = r
		case <-ctx.Done():
			x.result = Result[T]{failure: ctx.Err()}
		}
	})
}

// Await blocks until the Future is completed or context is canceled and
// returns either a result or an error.
func (x *future[T]) Await(ctx context.Context) (T, error) {
	x.wait(ctx)
	return x.result.success, x.result.failure
}

// complete completes the Future with either a value or an error.
func (x *future[T]) complete(value T, err error) {
	x.completeOnce.Do(func() {
		if err != nil {
			x.done <- Result[T]{failure: err}
		} else {
			x.done <- Result[T]{success: value}
		}
	})
}

// completable is a writable, single-assignment container which completes a
// Future.
type completable[T any] interface {
	Success(T)
	Failure(error)
	Future() Future[T]
}

type completer[T any] struct {
	once   sync.Once
	future Future[T]
}

var _ completable[int] = (*completer[int])(nil)

func newCompletable[T any]() completable[T] {
	return &completer[T]{future: newFuture[T]()}
}

func (p *completer[T]) Success(value T) {
	p.once.Do(func() {
		p.future.complete(value, nil)
	})
}

func (p *completer[T]) Failure(err error) {
	p.once.Do(func() {
		var zero T
		p.future.complete(zero, err)
	})
}

func (p *completer[T]) Future() Future[T] {
	return p.future
}
