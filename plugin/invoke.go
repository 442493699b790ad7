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

	"go.uber.org/multierr"

	gerrors "github.com/framegraph/engine/errors"
	"github.com/framegraph/engine/format"
	"github.com/framegraph/engine/graph"
	"github.com/framegraph/engine/propmap"
)

// FamilyReporter is implemented by node-reference values carried in an
// argument map's vnode/anode entries, letting Invoke apply a plugin's
// format-family compatibility setting (§4.3 step 1) without importing the
// concrete graph.NodeRef type, and without the graph package ever needing
// to import plugin back.
type FamilyReporter interface {
	FormatFamily() (format.ColorFamily, bool)
}

var _ FamilyReporter = (*graph.NodeRef)(nil)

// Invoke validates args against fn's schema and, if valid, runs fn (§4.3
// "Invocation protocol"). On failure it returns an error-stamped
// propmap.Map rather than a Go error — matching spec.md §7's "Returned as
// error-stamped map" disposition for argument-validation errors — plus the
// *gerrors.ArgumentError describing every violation found, aggregated with
// multierr so a caller sees every missing, extra, or mistyped argument
// rather than only the first.
func (p *Plugin) Invoke(fn *Function, args *propmap.Map) (*propmap.Map, error) {
	if args == nil {
		args = propmap.New()
	}

	if err := p.checkFamilyCompatibility(fn, args); err != nil {
		return propmap.NewError(err.Error()), err
	}

	var verr error
	remaining := make(map[string]bool, len(args.Keys()))
	for _, k := range args.Keys() {
		remaining[k] = true
	}

	for _, spec := range fn.ArgsSchema {
		present := remaining[spec.Name]
		if !present {
			delete(remaining, spec.Name)
			if !spec.Optional {
				verr = multierr.Append(verr, fmt.Errorf("%w: %q", gerrors.ErrMissingRequiredArgument, spec.Name))
			}
			continue
		}
		delete(remaining, spec.Name)
		if err := checkArity(args, spec); err != nil {
			verr = multierr.Append(verr, err)
		}
	}
	for extra := range remaining {
		verr = multierr.Append(verr, fmt.Errorf("%w: %q", gerrors.ErrUnexpectedArgument, extra))
	}

	if verr != nil {
		argErr := gerrors.NewArgumentError(verr)
		return propmap.NewError(argErr.Error()), argErr
	}

	result := p.runWithCreationFrame(fn, args)
	return result, nil
}

func (p *Plugin) runWithCreationFrame(fn *Function, args *propmap.Map) *propmap.Map {
	return fn.fn(args, fn.userData)
}

func checkArity(args *propmap.Map, spec ArgSpec) error {
	count, kind, ok := countAndKind(args, spec.Name)
	if !ok {
		return fmt.Errorf("%w: %q declared as %s but holds a different type", gerrors.ErrArgumentTypeMismatch, spec.Name, spec.Type)
	}
	if kind != spec.Type {
		return fmt.Errorf("%w: %q declared as %s but holds %s", gerrors.ErrArgumentTypeMismatch, spec.Name, spec.Type, kind)
	}
	if !spec.Array && count > 1 {
		return fmt.Errorf("%w: %q is not array-valued but holds %d values", gerrors.ErrArgumentArity, spec.Name, count)
	}
	if spec.Array && count == 0 && !spec.AllowEmpty {
		return fmt.Errorf("%w: %q is an empty array without :empty", gerrors.ErrArgumentArity, spec.Name)
	}
	return nil
}

// countAndKind reports how many values key holds and under which kind, or
// ok=false if key is absent.
func countAndKind(args *propmap.Map, key string) (count int, kind propmap.Kind, ok bool) {
	k, found := args.KindOf(key)
	if !found {
		return 0, 0, false
	}
	switch k {
	case propmap.KindInt:
		v, _ := args.Ints(key)
		return len(v), k, true
	case propmap.KindFloat:
		v, _ := args.Floats(key)
		return len(v), k, true
	case propmap.KindData:
		v, _ := args.DataValues(key)
		return len(v), k, true
	case propmap.KindVideoNode:
		v, _ := args.VideoNodes(key)
		return len(v), k, true
	case propmap.KindAudioNode:
		v, _ := args.AudioNodes(key)
		return len(v), k, true
	case propmap.KindVideoFrame:
		v, _ := args.VideoFrames(key)
		return len(v), k, true
	case propmap.KindAudioFrame:
		v, _ := args.AudioFrames(key)
		return len(v), k, true
	case propmap.KindFunction:
		v, _ := args.Functions(key)
		return len(v), k, true
	default:
		return 0, 0, false
	}
}

func (p *Plugin) checkFamilyCompatibility(fn *Function, args *propmap.Map) error {
	if len(p.excludedFamilies) == 0 {
		return nil
	}
	for _, spec := range fn.ArgsSchema {
		if spec.Type != propmap.KindVideoNode {
			continue
		}
		values, ok := args.VideoNodes(spec.Name)
		if !ok {
			continue
		}
		for _, v := range values {
			reporter, ok := v.(FamilyReporter)
			if !ok {
				continue
			}
			family, hasFamily := reporter.FormatFamily()
			if hasFamily && p.excludes(family) {
				return fmt.Errorf("%w: argument %q uses an excluded color family", gerrors.ErrIncompatibleFormatFamily, spec.Name)
			}
		}
	}
	return nil
}
