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
	"fmt"
	"sync"

	"go.uber.org/atomic"

	gerrors "github.com/framegraph/engine/errors"
	"github.com/framegraph/engine/format"
	"github.com/framegraph/engine/internal/xsync"
)

// Plugin is a unit of publication owning a mapping from function name to
// function record (§4.3). Functions may be registered up until the plugin
// is marked read-only, after which RegisterFunction fails.
//
// Go has no built-in recursive mutex, so unlike the component design's
// "recursive mutex" for the plugin registry, Plugin serializes its own
// function table under a single, non-reentrant sync.Mutex; nothing in
// RegisterFunction or Invoke calls back into the plugin while holding it,
// so reentrancy is never needed.
type Plugin struct {
	ID        string
	Namespace string
	APIMajor  APIMajor

	mu        sync.Mutex
	functions map[string]*Function
	readOnly  atomic.Bool

	excludedFamilies map[format.ColorFamily]bool
}

// NewPlugin creates an empty plugin. excludedFamilies lists video color
// families this plugin's functions refuse to accept as node arguments
// (§4.3 step 1); pass nil for no restriction.
func NewPlugin(id, namespace string, apiMajor APIMajor, excludedFamilies ...format.ColorFamily) *Plugin {
	excluded := make(map[format.ColorFamily]bool, len(excludedFamilies))
	for _, f := range excludedFamilies {
		excluded[f] = true
	}
	return &Plugin{
		ID:               id,
		Namespace:        namespace,
		APIMajor:         apiMajor,
		functions:        make(map[string]*Function),
		excludedFamilies: excluded,
	}
}

// MakeReadOnly marks the plugin read-only; further RegisterFunction calls
// fail with ErrPluginReadOnly.
func (p *Plugin) MakeReadOnly() { p.readOnly.Store(true) }

// IsReadOnly reports whether MakeReadOnly has been called.
func (p *Plugin) IsReadOnly() bool { return p.readOnly.Load() }

// RegisterFunction parses argsSchema and registers fn under name.
func (p *Plugin) RegisterFunction(name, argsSchema string, fn Invoker, userData any) error {
	if p.readOnly.Load() {
		return gerrors.ErrPluginReadOnly
	}
	record, err := NewFunction(name, argsSchema, p.APIMajor, fn, userData)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.functions[name]; exists {
		return fmt.Errorf("%w: %q on plugin %q", gerrors.ErrFunctionExists, name, p.ID)
	}
	p.functions[name] = record
	return nil
}

// Function looks up a registered function by name.
func (p *Plugin) Function(name string) (*Function, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	f, ok := p.functions[name]
	return f, ok
}

// Functions returns every registered function. Order is unspecified.
func (p *Plugin) Functions() []*Function {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Function, 0, len(p.functions))
	for _, f := range p.functions {
		out = append(out, f)
	}
	return out
}

func (p *Plugin) excludes(family format.ColorFamily) bool {
	return p.excludedFamilies[family]
}

// Registry owns the plugin-identifier → plugin mapping, indexed
// additionally by namespace (§4.3).
type Registry struct {
	mu          sync.Mutex
	byID        *xsync.Map[string, *Plugin]
	byNamespace *xsync.Map[string, *Plugin]
}

// NewRegistry creates an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:        xsync.NewMap[string, *Plugin](),
		byNamespace: xsync.NewMap[string, *Plugin](),
	}
}

// Register adds p to the registry, keyed by both its ID and namespace.
func (r *Registry) Register(p *Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID.Get(p.ID); exists {
		return fmt.Errorf("%w: id %q", gerrors.ErrPluginExists, p.ID)
	}
	if _, exists := r.byNamespace.Get(p.Namespace); exists {
		return fmt.Errorf("%w: namespace %q", gerrors.ErrPluginExists, p.Namespace)
	}
	r.byID.Set(p.ID, p)
	r.byNamespace.Set(p.Namespace, p)
	return nil
}

// ByID looks up a plugin by its identifier.
func (r *Registry) ByID(id string) (*Plugin, bool) { return r.byID.Get(id) }

// ByNamespace looks up a plugin by its namespace.
func (r *Registry) ByNamespace(namespace string) (*Plugin, bool) { return r.byNamespace.Get(namespace) }

// Plugins returns every registered plugin. Order is unspecified.
func (r *Registry) Plugins() []*Plugin { return r.byID.Values() }
