// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package flow

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// ArgsFromParams derives argument descriptors from the tagged fields of
// a struct. params must be a struct or a pointer to one.
//
// # Struct tags
//
//   - flag:"name" or flag:"name,n": the long name and optional
//     single-character alias. Fields without a flag tag are skipped.
//   - desc:"help text": the description shown in help.
//   - default:"value": the default, parsed according to the field type.
//   - required:"true": the argument must be supplied.
//   - positional:"true" on a []string field: receives the positional
//     arguments in [Decode]. It produces no descriptor.
//
// # Supported field types
//
// string (String), bool (Bool), and int, int64, float64 (Number).
// Embedded structs are flattened recursively.
func ArgsFromParams(params any) ([]Arg, error) {
	structType := reflect.TypeOf(params)
	if structType != nil && structType.Kind() == reflect.Ptr {
		structType = structType.Elem()
	}
	if structType == nil || structType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("params must be a struct or a pointer to a struct, got %T", params)
	}
	var args []Arg
	if err := collectArgs(structType, &args); err != nil {
		return nil, err
	}
	return args, nil
}

// MustArgs is [ArgsFromParams] for static declarations. Panics on a
// malformed params type (programming error, not runtime data).
func MustArgs(params any) []Arg {
	args, err := ArgsFromParams(params)
	if err != nil {
		panic(fmt.Sprintf("flow.MustArgs(%T): %v", params, err))
	}
	return args
}

func collectArgs(structType reflect.Type, args *[]Arg) error {
	for i := range structType.NumField() {
		field := structType.Field(i)

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			if err := collectArgs(field.Type, args); err != nil {
				return fmt.Errorf("embedded %s: %w", field.Name, err)
			}
			continue
		}

		if field.Tag.Get("positional") == "true" {
			if field.Type != reflect.TypeOf([]string(nil)) {
				return fmt.Errorf("field %s: positional field must be []string, got %s", field.Name, field.Type)
			}
			continue
		}

		flagTag := field.Tag.Get("flag")
		if flagTag == "" {
			continue
		}
		name, alias, _ := strings.Cut(flagTag, ",")

		kind, err := kindOf(field.Type)
		if err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}

		arg := Arg{
			Name:        name,
			Kind:        kind,
			Alias:       alias,
			Description: field.Tag.Get("desc"),
			Required:    field.Tag.Get("required") == "true",
		}
		if defaultString, ok := field.Tag.Lookup("default"); ok {
			value, err := parseDefault(kind, defaultString)
			if err != nil {
				return fmt.Errorf("default for --%s: %w", name, err)
			}
			arg.Default = value
		}
		*args = append(*args, arg)
	}
	return nil
}

func kindOf(fieldType reflect.Type) (Kind, error) {
	switch fieldType.Kind() {
	case reflect.String:
		return String, nil
	case reflect.Bool:
		return Bool, nil
	case reflect.Int, reflect.Int64, reflect.Float64:
		return Number, nil
	default:
		return 0, fmt.Errorf("unsupported type %s", fieldType)
	}
}

func parseDefault(kind Kind, text string) (any, error) {
	switch kind {
	case Bool:
		return strconv.ParseBool(text)
	case Number:
		return strconv.ParseFloat(text, 64)
	default:
		return text, nil
	}
}

// Decode copies bound values into the tagged fields of the struct
// target points to. Unbound fields keep their current value. Number
// values are truncated toward zero for integer fields.
func Decode(values Values, target any) error {
	value := reflect.ValueOf(target)
	if value.Kind() != reflect.Ptr || value.IsNil() || value.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("decode target must be a non-nil pointer to a struct, got %T", target)
	}
	return decodeFields(values, value.Elem())
}

func decodeFields(values Values, structValue reflect.Value) error {
	structType := structValue.Type()
	for i := range structType.NumField() {
		field := structType.Field(i)
		fieldValue := structValue.Field(i)

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			if err := decodeFields(values, fieldValue); err != nil {
				return fmt.Errorf("embedded %s: %w", field.Name, err)
			}
			continue
		}
		if !fieldValue.CanSet() {
			continue
		}

		if field.Tag.Get("positional") == "true" {
			fieldValue.Set(reflect.ValueOf(values.Positional()))
			continue
		}

		flagTag := field.Tag.Get("flag")
		if flagTag == "" {
			continue
		}
		name, _, _ := strings.Cut(flagTag, ",")
		if !values.Has(name) {
			continue
		}

		switch fieldValue.Kind() {
		case reflect.String:
			fieldValue.SetString(values.String(name))
		case reflect.Bool:
			fieldValue.SetBool(values.Bool(name))
		case reflect.Int, reflect.Int64:
			fieldValue.SetInt(int64(values.Number(name)))
		case reflect.Float64:
			fieldValue.SetFloat(values.Number(name))
		default:
			return fmt.Errorf("field %s: unsupported type %s", field.Name, field.Type)
		}
	}
	return nil
}

// Typed adapts a handler taking a params struct into a [Handler]. P's
// fields are filled with [Decode] before fn is called; declare the
// workflow's Args with [MustArgs] on the same type.
//
//	type greetParams struct {
//	    Name  string `flag:"name,n" desc:"who to greet" required:"true"`
//	    Loud  bool   `flag:"loud" desc:"shout"`
//	}
//
//	Args:    flow.MustArgs(greetParams{}),
//	Handler: flow.Typed(func(ctx context.Context, p greetParams, ec *flow.Context) error { ... }),
func Typed[P any](fn func(ctx context.Context, params P, ec *Context) error) Handler {
	return func(ctx context.Context, args Values, ec *Context) error {
		var params P
		if err := Decode(args, &params); err != nil {
			return err
		}
		return fn(ctx, params, ec)
	}
}
