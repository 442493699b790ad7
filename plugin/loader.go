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

// Loader resolves one plugin module at path into a registerable Plugin.
// forcedNamespace/forcedID override whatever the module would otherwise
// register under, or are ignored if empty. The dynamic-library open step
// that finds and calls a module's PluginInit2/PluginInit entry point is
// deliberately behind this seam rather than built in: it is platform and
// build-specific, and callers that need it can implement Loader with
// Go's plugin package (ELF/Mach-O only) or a statically linked registry.
type Loader interface {
	Load(path, forcedNamespace, forcedID string) (*Plugin, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(path, forcedNamespace, forcedID string) (*Plugin, error)

// Load implements Loader.
func (f LoaderFunc) Load(path, forcedNamespace, forcedID string) (*Plugin, error) {
	return f(path, forcedNamespace, forcedID)
}
