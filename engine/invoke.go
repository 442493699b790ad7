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
	"fmt"
	"os"

	gerrors "github.com/framegraph/engine/errors"
	"github.com/framegraph/engine/graph"
	"github.com/framegraph/engine/plugin"
	"github.com/framegraph/engine/propmap"
)

// Invoke validates args against pluginID's functionName function and runs
// it (spec.md §4.3 "Invocation protocol", §6 "invoke"). When graph
// inspection is enabled, the core's creation-function-chain head is pushed
// for the duration of the function with this call's
// (functionName, args) so any node the function constructs via NewNode
// records this invocation as its most recent creation-chain link
// (spec.md §3.4, step 4 of the invocation protocol); the head is always
// popped back on return, success or failure.
//
// On an argument-validation failure the result is an error-stamped map and
// a non-nil *gerrors.ArgumentError, per spec.md §7's disposition table. A
// plugin or function lookup miss returns a plain sentinel error instead,
// since it is a caller mistake rather than something the function itself
// declared.
func (c *Core) Invoke(pluginID, functionName string, args *propmap.Map) (*propmap.Map, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	p, ok := c.plugins.ByID(pluginID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", gerrors.ErrUnknownPlugin, pluginID)
	}
	fn, ok := p.Function(functionName)
	if !ok {
		return nil, fmt.Errorf("%w: %q on plugin %q", gerrors.ErrUnknownFunction, functionName, pluginID)
	}

	if c.cfg.EnableGraphInspection {
		c.pushCreationFrame(functionName, args)
		defer c.popCreationFrame()
	}

	return p.Invoke(fn, args)
}

func (c *Core) pushCreationFrame(functionName string, args *propmap.Map) {
	c.creationMu.Lock()
	defer c.creationMu.Unlock()
	c.creationHead = graph.Push(c.creationHead, functionName, args)
}

func (c *Core) popCreationFrame() {
	c.creationMu.Lock()
	defer c.creationMu.Unlock()
	if c.creationHead != nil {
		c.creationHead = c.creationHead.Next
	}
}

// CreationHead returns the creation-function chain head currently visible
// to a filter constructor running inside Invoke, or nil if graph
// inspection is disabled or no invocation is in progress. Filter
// constructors pass this to graph.NewNode so the resulting node records
// its provenance (spec.md §3.4).
func (c *Core) CreationHead() *graph.CreationRecord {
	c.creationMu.Lock()
	defer c.creationMu.Unlock()
	return c.creationHead
}

// LoadPlugin resolves path through loader and registers the result
// (spec.md §6 "load_plugin"). The dynamic-library discovery step itself
// is out of scope (see plugin.Loader's doc comment); loader supplies it.
func (c *Core) LoadPlugin(loader plugin.Loader, path, forcedNamespace, forcedID string) (*plugin.Plugin, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	p, err := loader.Load(path, forcedNamespace, forcedID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", gerrors.ErrPluginLoadFailed, path, err)
	}
	if err := c.plugins.Register(p); err != nil {
		return nil, err
	}
	return p, nil
}

// LoadAllInPath calls LoadPlugin for every entry of dir whose name ends in
// suffix (spec.md §6 "load_all_in_path"), continuing past individual
// failures and returning every error encountered alongside the plugins
// that loaded successfully.
func (c *Core) LoadAllInPath(loader plugin.Loader, dir, suffix string) ([]*plugin.Plugin, []error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, []error{err}
	}

	var loaded []*plugin.Plugin
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || len(entry.Name()) < len(suffix) || entry.Name()[len(entry.Name())-len(suffix):] != suffix {
			continue
		}
		p, err := c.LoadPlugin(loader, dir+string(os.PathSeparator)+entry.Name(), "", "")
		if err != nil {
			errs = append(errs, err)
			continue
		}
		loaded = append(loaded, p)
	}
	return loaded, errs
}
