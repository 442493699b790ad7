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

// Package plugin implements the plugin and function registry (§4.3):
// named functions publish a typed argument schema parsed from a
// semicolon-delimited grammar, validated against an argument map at
// invocation time.
package plugin

import (
	"fmt"
	"strings"

	gerrors "github.com/framegraph/engine/errors"
	"github.com/framegraph/engine/internal/validation"
	"github.com/framegraph/engine/propmap"
)

// APIMajor identifies which function-callback ABI a plugin was registered
// under (§3.4, §9 "Legacy-ABI coexistence"). Functions registered under
// APIMajorLegacy may use the legacy `clip`/`frame` schema aliases but may
// never declare or receive an audio node/frame argument.
type APIMajor int

const (
	// APIMajorLegacy is the older callback ABI: video-only argument types,
	// plus the clip/frame aliases for vnode/vframe.
	APIMajorLegacy APIMajor = 3
	// APIMajorCurrent is the current callback ABI: the full type set,
	// including anode/aframe, and no legacy aliases.
	APIMajorCurrent APIMajor = 4
)

// ArgSpec is one parsed entry of a function's argument schema.
type ArgSpec struct {
	Name       string
	Type       propmap.Kind
	Array      bool
	Optional   bool
	AllowEmpty bool
}

// ParseSchema parses a semicolon-delimited argument schema (§6 grammar)
// under the given ABI major, which governs whether the `clip`/`frame`
// legacy aliases are accepted and whether audio types are permitted at
// all (§9).
func ParseSchema(schema string, apiMajor APIMajor) ([]ArgSpec, error) {
	schema = strings.TrimSuffix(schema, ";")
	if schema == "" {
		return nil, nil
	}
	rawEntries := strings.Split(schema, ";")
	specs := make([]ArgSpec, 0, len(rawEntries))
	seen := make(map[string]bool, len(rawEntries))
	for _, raw := range rawEntries {
		spec, err := parseEntry(raw, apiMajor)
		if err != nil {
			return nil, err
		}
		if seen[spec.Name] {
			return nil, fmt.Errorf("%w: duplicate argument name %q", gerrors.ErrInvalidIdentifier, spec.Name)
		}
		seen[spec.Name] = true
		specs = append(specs, spec)
	}
	return specs, nil
}

// EmitSchema renders specs back into the semicolon-delimited schema
// grammar (§6), the inverse of ParseSchema. It is the legacy-ABI-form
// emitter the round-trip law (§8) names: under APIMajorLegacy it writes
// the `clip`/`frame` aliases for video node/frame arguments, matching
// what a legacy plugin's own schema string would use. Per-entry suffixes
// are always written `:opt` before `:empty`; ParseSchema accepts either
// order, so a schema parsed with the suffixes swapped re-emits equal in
// meaning, not necessarily byte-identical.
func EmitSchema(specs []ArgSpec, apiMajor APIMajor) string {
	entries := make([]string, len(specs))
	for i, spec := range specs {
		var b strings.Builder
		b.WriteString(spec.Name)
		b.WriteByte(':')
		b.WriteString(typeToken(spec.Type, apiMajor))
		if spec.Array {
			b.WriteString("[]")
		}
		if spec.Optional {
			b.WriteString(":opt")
		}
		if spec.AllowEmpty {
			b.WriteString(":empty")
		}
		entries[i] = b.String()
	}
	return strings.Join(entries, ";")
}

func typeToken(kind propmap.Kind, apiMajor APIMajor) string {
	if apiMajor == APIMajorLegacy {
		switch kind {
		case propmap.KindVideoNode:
			return "clip"
		case propmap.KindVideoFrame:
			return "frame"
		}
	}
	return kind.String()
}

func parseEntry(raw string, apiMajor APIMajor) (ArgSpec, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 {
		return ArgSpec{}, fmt.Errorf("%w: malformed schema entry %q", gerrors.ErrInvalidIdentifier, raw)
	}
	name := parts[0]
	if !validIdentifier(name) {
		return ArgSpec{}, fmt.Errorf("%w: %q", gerrors.ErrInvalidIdentifier, name)
	}

	typeToken := parts[1]
	array := strings.HasSuffix(typeToken, "[]")
	if array {
		typeToken = strings.TrimSuffix(typeToken, "[]")
	}
	kind, err := parseType(typeToken, apiMajor)
	if err != nil {
		return ArgSpec{}, err
	}

	spec := ArgSpec{Name: name, Type: kind, Array: array}
	for _, suffix := range parts[2:] {
		switch suffix {
		case "opt":
			spec.Optional = true
		case "empty":
			if !array {
				return ArgSpec{}, fmt.Errorf("%w: :empty is only valid on an array argument (%q)", gerrors.ErrArgumentArity, name)
			}
			spec.AllowEmpty = true
		default:
			return ArgSpec{}, fmt.Errorf("%w: unknown schema suffix %q", gerrors.ErrInvalidIdentifier, suffix)
		}
	}
	return spec, nil
}

func parseType(token string, apiMajor APIMajor) (propmap.Kind, error) {
	switch token {
	case "int":
		return propmap.KindInt, nil
	case "float":
		return propmap.KindFloat, nil
	case "data":
		return propmap.KindData, nil
	case "vnode":
		return propmap.KindVideoNode, nil
	case "vframe":
		return propmap.KindVideoFrame, nil
	case "func":
		return propmap.KindFunction, nil
	case "anode":
		if apiMajor == APIMajorLegacy {
			return 0, gerrors.ErrLegacyABIAudioForbidden
		}
		return propmap.KindAudioNode, nil
	case "aframe":
		if apiMajor == APIMajorLegacy {
			return 0, gerrors.ErrLegacyABIAudioForbidden
		}
		return propmap.KindAudioFrame, nil
	case "clip":
		if apiMajor != APIMajorLegacy {
			return 0, fmt.Errorf("%w: \"clip\" is a legacy-ABI alias", gerrors.ErrInvalidIdentifier)
		}
		return propmap.KindVideoNode, nil
	case "frame":
		if apiMajor != APIMajorLegacy {
			return 0, fmt.Errorf("%w: \"frame\" is a legacy-ABI alias", gerrors.ErrInvalidIdentifier)
		}
		return propmap.KindVideoFrame, nil
	default:
		return 0, fmt.Errorf("%w: unknown schema type %q", gerrors.ErrInvalidIdentifier, token)
	}
}

func validIdentifier(s string) bool {
	return validation.NewIDValidator(s).Validate() == nil
}
