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

import "github.com/framegraph/engine/propmap"

// Invoker is a registered function's callback: given a validated argument
// map, it returns a result map, which may itself be error-stamped.
type Invoker func(args *propmap.Map, userData any) *propmap.Map

// Function is one registered function record (§4.3): a name, its parsed
// argument schema, a callback, and opaque user data carried through to
// every invocation.
type Function struct {
	Name       string
	ArgsSchema []ArgSpec
	fn         Invoker
	userData   any
}

// NewFunction parses argsSchema under apiMajor and returns the function
// record, or an error if the schema is malformed.
func NewFunction(name, argsSchema string, apiMajor APIMajor, fn Invoker, userData any) (*Function, error) {
	specs, err := ParseSchema(argsSchema, apiMajor)
	if err != nil {
		return nil, err
	}
	return &Function{Name: name, ArgsSchema: specs, fn: fn, userData: userData}, nil
}

// Arg returns the schema entry named name, and whether it exists.
func (f *Function) Arg(name string) (ArgSpec, bool) {
	for _, spec := range f.ArgsSchema {
		if spec.Name == name {
			return spec, true
		}
	}
	return ArgSpec{}, false
}
