// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package flow

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
)

// positionalKey is the key under which [Values.Map] reports the
// positional arguments.
const positionalKey = "_"

// Values are the arguments bound for one invocation: named values
// (string, bool or float64 after a typed parse; whatever the caller
// supplied for [Workflow.Execute]) and the leaf's positional
// arguments.
type Values struct {
	positional []string
	named      map[string]any
}

// NewValues builds a Values from positional arguments and named
// values. Both are copied.
func NewValues(positional []string, named map[string]any) Values {
	if positional == nil {
		positional = []string{}
	}
	return Values{
		positional: slices.Clone(positional),
		named:      maps.Clone(named),
	}
}

// Positional returns the leaf's positional arguments: every positional
// token left after the path walk. Never nil.
func (v Values) Positional() []string {
	if v.positional == nil {
		return []string{}
	}
	return slices.Clone(v.positional)
}

// Get returns the value bound to name.
func (v Values) Get(name string) (any, bool) {
	value, ok := v.named[name]
	return value, ok
}

// Has reports whether name has a bound value (supplied or defaulted).
func (v Values) Has(name string) bool {
	_, ok := v.named[name]
	return ok
}

// String returns the value bound to name as text, or "" if unbound.
func (v Values) String(name string) string {
	value, ok := v.named[name]
	if !ok {
		return ""
	}
	switch typed := value.(type) {
	case string:
		return typed
	case bool:
		return strconv.FormatBool(typed)
	case float64:
		return strconv.FormatFloat(typed, 'g', -1, 64)
	default:
		return fmt.Sprint(value)
	}
}

// Bool returns the boolean bound to name. Strings holding a boolean
// literal are converted; anything else is false.
func (v Values) Bool(name string) bool {
	switch typed := v.named[name].(type) {
	case bool:
		return typed
	case string:
		parsed, err := strconv.ParseBool(typed)
		return err == nil && parsed
	default:
		return false
	}
}

// Number returns the number bound to name. Strings are parsed with
// strconv.ParseFloat; anything unparseable is 0.
func (v Values) Number(name string) float64 {
	value := v.named[name]
	if number, ok := toFloat(value); ok {
		return number
	}
	if text, ok := value.(string); ok {
		if parsed, err := strconv.ParseFloat(text, 64); err == nil {
			return parsed
		}
	}
	return 0
}

// Names returns the bound names in sorted order.
func (v Values) Names() []string {
	return slices.Sorted(maps.Keys(v.named))
}

// Map returns every bound value plus the positional arguments under
// the "_" key.
func (v Values) Map() map[string]any {
	result := make(map[string]any, len(v.named)+1)
	maps.Copy(result, v.named)
	result[positionalKey] = v.Positional()
	return result
}
