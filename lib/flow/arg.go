// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package flow

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the primitive type of an argument.
type Kind int

const (
	// String arguments bind the raw text of their value.
	String Kind = iota

	// Bool arguments are switches: --name sets true, --no-name sets
	// false, --name=<bool literal> sets the literal.
	Bool

	// Number arguments are parsed with strconv.ParseFloat.
	Number
)

// String returns the name used in help output and manifests.
func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Bool:
		return "boolean"
	case Number:
		return "number"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind parses the names returned by [Kind.String]. "bool" is
// accepted as a synonym for "boolean".
func ParseKind(name string) (Kind, error) {
	switch name {
	case "string":
		return String, nil
	case "boolean", "bool":
		return Bool, nil
	case "number":
		return Number, nil
	default:
		return 0, fmt.Errorf("unknown argument kind %q", name)
	}
}

// MarshalText writes the kind by name, so documents and manifests
// carry "string", "boolean" or "number".
func (k Kind) MarshalText() ([]byte, error) {
	switch k {
	case String, Bool, Number:
		return []byte(k.String()), nil
	default:
		return nil, fmt.Errorf("cannot marshal unknown argument kind %d", int(k))
	}
}

// UnmarshalText accepts the names [ParseKind] accepts.
func (k *Kind) UnmarshalText(text []byte) error {
	kind, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// Arg describes one named argument of a workflow.
type Arg struct {
	// Name is the long flag name, typed as --name.
	Name string

	Kind Kind

	// Alias is an optional single ASCII character shorthand, typed as -a.
	Alias string

	// Description is the help text.
	Description string

	// Default is the value bound when the argument is omitted. It must
	// match Kind: string, bool, or a number (any Go integer or float
	// type; it is bound as float64). nil means no default.
	Default any

	// Required arguments must be supplied on the command line. A
	// required argument cannot have a default.
	Required bool
}

// reservedNames cannot be used as argument names or aliases: they are
// answered before any argument is bound.
var reservedNames = map[string]bool{
	"help":    true,
	"h":       true,
	"version": true,
}

func (a Arg) validate() error {
	if a.Name == "" {
		return fmt.Errorf("argument with empty name")
	}
	if a.Name == positionalKey {
		return fmt.Errorf("argument name %q is reserved for positional arguments", a.Name)
	}
	if reservedNames[a.Name] {
		return fmt.Errorf("argument name %q collides with a built-in switch", a.Name)
	}
	if strings.HasPrefix(a.Name, negationPrefix) {
		return fmt.Errorf("argument name %q: the %q prefix is reserved for negated switches", a.Name, negationPrefix)
	}
	if strings.HasPrefix(a.Name, "-") || strings.ContainsAny(a.Name, "= ") {
		return fmt.Errorf("argument name %q is not a valid flag name", a.Name)
	}
	if a.Alias != "" {
		if len(a.Alias) != 1 {
			return fmt.Errorf("argument %q: alias %q must be a single character", a.Name, a.Alias)
		}
		if reservedNames[a.Alias] {
			return fmt.Errorf("argument %q: alias %q collides with a built-in switch", a.Name, a.Alias)
		}
	}
	switch a.Kind {
	case String, Bool, Number:
	default:
		return fmt.Errorf("argument %q: unknown kind %d", a.Name, int(a.Kind))
	}
	if a.Default == nil {
		return nil
	}
	if a.Required {
		return fmt.Errorf("argument %q: required arguments cannot have a default", a.Name)
	}
	if _, err := coerceDefault(a.Kind, a.Default); err != nil {
		return fmt.Errorf("argument %q: %w", a.Name, err)
	}
	return nil
}

// DefaultValue returns the default normalized to the value type bound
// for the argument's kind (string, bool, float64).
func (a Arg) DefaultValue() (any, bool) {
	if a.Default == nil {
		return nil, false
	}
	value, err := coerceDefault(a.Kind, a.Default)
	if err != nil {
		return nil, false
	}
	return value, true
}

// defaultString formats the default for pflag registration and help.
func (a Arg) defaultString() string {
	value, ok := a.DefaultValue()
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
	}
	return fmt.Sprint(value)
}

func coerceDefault(kind Kind, value any) (any, error) {
	switch kind {
	case String:
		if typed, ok := value.(string); ok {
			return typed, nil
		}
	case Bool:
		if typed, ok := value.(bool); ok {
			return typed, nil
		}
	case Number:
		if number, ok := toFloat(value); ok {
			return number, nil
		}
	}
	return nil, fmt.Errorf("default %v (%T) does not match kind %s", value, value, kind)
}

// toFloat converts any Go numeric type to float64.
func toFloat(value any) (float64, bool) {
	switch typed := value.(type) {
	case float64:
		return typed, true
	case float32:
		return float64(typed), true
	case int:
		return float64(typed), true
	case int8:
		return float64(typed), true
	case int16:
		return float64(typed), true
	case int32:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case uint:
		return float64(typed), true
	case uint8:
		return float64(typed), true
	case uint16:
		return float64(typed), true
	case uint32:
		return float64(typed), true
	case uint64:
		return float64(typed), true
	default:
		return 0, false
	}
}
