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

// Package engine assembles the arena, format registry, plugin registry
// and scheduler worker pool into the core façade described in spec.md §6:
// the single entry point a host process creates, invokes functions
// against, and requests frames from.
package engine

import (
	"sync"

	"go.uber.org/atomic"

	"github.com/framegraph/engine/arena"
	"github.com/framegraph/engine/config"
	gerrors "github.com/framegraph/engine/errors"
	"github.com/framegraph/engine/format"
	"github.com/framegraph/engine/graph"
	"github.com/framegraph/engine/log"
	"github.com/framegraph/engine/plugin"
	"github.com/framegraph/engine/propmap"
	"github.com/framegraph/engine/scheduler"
)

// Core is the engine's façade (spec.md §6 "create_core"/"free_core"): it
// owns the memory arena, the format and plugin registries, and the
// scheduler worker pool, and is the object every external call — invoke,
// get_frame, get_frame_async, graph inspection — goes through.
type Core struct {
	cfg *config.Config

	arena   *arena.Arena
	formats *format.Registry
	plugins *plugin.Registry
	pool    *scheduler.Pool

	logMu    sync.Mutex
	handlers []log.Logger

	creationMu   sync.Mutex
	creationHead *graph.CreationRecord

	closed atomic.Bool
}

// New creates a core named name, applying options over spec.md §6's
// defaults (§1.3). The worker pool is started immediately; Close stops it.
func New(name string, options ...config.Option) (*Core, error) {
	cfg, err := config.New(name, options...)
	if err != nil {
		return nil, err
	}

	c := &Core{
		cfg:     cfg,
		arena:   arena.New(cfg.Alignment, arena.WithSoftCap(uint64(cfg.SoftMemoryCap))),
		formats: format.New(),
		plugins: plugin.NewRegistry(),
		pool:    scheduler.New(cfg.WorkerCount, cfg.EnableFrameGuards, cfg.Logger),
	}
	graph.SetReentrancyPolicy(cfg.Reentrancy)
	c.pool.Start()
	return c, nil
}

// Name returns the core's diagnostic name.
func (c *Core) Name() string { return c.cfg.Name }

// Arena returns the core's memory arena.
func (c *Core) Arena() *arena.Arena { return c.arena }

// Formats returns the core's format registry.
func (c *Core) Formats() *format.Registry { return c.formats }

// Plugins returns the core's plugin registry.
func (c *Core) Plugins() *plugin.Registry { return c.plugins }

// EnableGraphInspection reports whether creation-function chain capture is
// active for this core (spec.md §3.4, §6).
func (c *Core) EnableGraphInspection() bool { return c.cfg.EnableGraphInspection }

// Stats reports the arena's current and peak usage (spec.md §6 "report
// current use and peak").
func (c *Core) Stats() (current, peak uint64) { return c.arena.Stats() }

// SoftMemoryCap returns the arena's current soft memory cap in bytes.
func (c *Core) SoftMemoryCap() int64 { return int64(c.arena.SoftCap()) }

// SetSoftMemoryCap changes the arena's soft memory cap at runtime
// (spec.md §3.3 "settable at runtime").
func (c *Core) SetSoftMemoryCap(bytes int64) { c.arena.SetSoftCap(uint64(bytes)) }

// AddMessageHandler registers logger as an additional sink for the core's
// diagnostic entries (spec.md §6 "add message handler"). Handlers are
// invoked under a log mutex (§5); a Fatal entry is delivered to every
// handler before the process terminates.
func (c *Core) AddMessageHandler(handler log.Logger) {
	c.logMu.Lock()
	defer c.logMu.Unlock()
	c.handlers = append(c.handlers, handler)
}

// RemoveMessageHandler drops a previously registered handler. It is a
// no-op if handler was never added.
func (c *Core) RemoveMessageHandler(handler log.Logger) {
	c.logMu.Lock()
	defer c.logMu.Unlock()
	for i, h := range c.handlers {
		if h == handler {
			c.handlers = append(c.handlers[:i], c.handlers[i+1:]...)
			return
		}
	}
}

// handleFatal logs err to every message handler and then terminates the
// process, per spec.md §5/§7: the scheduler and plugin registry only ever
// return a *gerrors.FatalError, they never call os.Exit themselves; the
// core is the single place that decides to. Every registered handler logs
// the entry at Error level, since Logger.Fatal exits immediately; the
// core's configured logger then logs it at Fatal level, which terminates
// the process after every handler has already seen the entry.
func (c *Core) handleFatal(err error) {
	c.logMu.Lock()
	defer c.logMu.Unlock()
	for _, h := range c.handlers {
		h.Error(err.Error())
	}
	c.cfg.Logger.Fatal(err.Error())
}

// Close stops the scheduler's worker pool and marks the core closed.
// Further calls to Invoke or GetFrame return gerrors.ErrCoreClosed.
// Calling Close twice is a double free.
func (c *Core) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return gerrors.ErrDoubleFree
	}
	c.pool.Stop()
	return nil
}

func (c *Core) checkOpen() error {
	if c.closed.Load() {
		return gerrors.ErrCoreClosed
	}
	return nil
}

// WalkCreationChain walks ref's node's creation-function chain, innermost
// first, calling visit(level, functionName, args) for each link
// (spec.md §3.4, §6 "graph inspection"). It is a no-op if graph inspection
// was never enabled for the invocation that created the node.
func WalkCreationChain(ref *graph.NodeRef, visit func(level int, functionName string, args *propmap.Map)) {
	graph.WalkChain(ref.Node().CreationChain(), func(level int, rec *graph.CreationRecord) {
		visit(level, rec.FunctionName, rec.Args)
	})
}
