// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/bureau-foundation/flow/lib/flow"
	"github.com/bureau-foundation/flow/lib/flowdef"
)

// builtinRegistry returns the handlers manifests run by flow can name.
func builtinRegistry() *flowdef.Registry {
	registry := flowdef.NewRegistry()
	factories := map[string]flowdef.Factory{
		"echo": echoHandler,
		"json": jsonHandler,
		"env":  envHandler,
	}
	for _, name := range slices.Sorted(maps.Keys(factories)) {
		if err := registry.Register(name, factories[name]); err != nil {
			panic(fmt.Sprintf("registering built-in handler %q: %v", name, err))
		}
	}
	return registry
}

// echoHandler prints its positional arguments separated by spaces.
// With a text param it prints the text instead, replacing ${name} with
// the value bound to name.
func echoHandler(params map[string]any) (flow.Handler, error) {
	if err := allowParams(params, "text"); err != nil {
		return nil, err
	}
	text, hasText, err := stringParam(params, "text")
	if err != nil {
		return nil, err
	}

	return func(_ context.Context, args flow.Values, ec *flow.Context) error {
		line := strings.Join(args.Positional(), " ")
		if hasText {
			line = os.Expand(text, args.String)
		}
		_, err := fmt.Fprintln(ec.Stdout, line)
		return err
	}, nil
}

// invocation is what the json handler prints.
type invocation struct {
	Path       []string       `json:"path"`
	Args       map[string]any `json:"args"`
	Positional []string       `json:"positional"`
}

// jsonHandler prints the invocation path and every bound argument as
// indented JSON. It takes no params.
func jsonHandler(params map[string]any) (flow.Handler, error) {
	if err := allowParams(params); err != nil {
		return nil, err
	}
	return func(_ context.Context, args flow.Values, ec *flow.Context) error {
		named := make(map[string]any, len(args.Names()))
		for _, name := range args.Names() {
			value, _ := args.Get(name)
			named[name] = value
		}
		encoder := json.NewEncoder(ec.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(invocation{
			Path:       ec.Path,
			Args:       named,
			Positional: args.Positional(),
		})
	}, nil
}

// envHandler prints environment variables as NAME=value lines, sorted
// by name. Positional arguments select variables by name (unset ones
// are skipped); without any, every variable whose name starts with the
// prefix param is printed.
func envHandler(params map[string]any) (flow.Handler, error) {
	if err := allowParams(params, "prefix"); err != nil {
		return nil, err
	}
	prefix, _, err := stringParam(params, "prefix")
	if err != nil {
		return nil, err
	}

	return func(_ context.Context, args flow.Values, ec *flow.Context) error {
		var lines []string
		if names := args.Positional(); len(names) > 0 {
			for _, name := range names {
				if value, ok := os.LookupEnv(name); ok {
					lines = append(lines, name+"="+value)
				}
			}
		} else {
			for _, entry := range os.Environ() {
				if strings.HasPrefix(entry, prefix) {
					lines = append(lines, entry)
				}
			}
		}
		slices.Sort(lines)
		for _, line := range lines {
			if _, err := fmt.Fprintln(ec.Stdout, line); err != nil {
				return err
			}
		}
		return nil
	}, nil
}

// allowParams rejects params with names outside allowed.
func allowParams(params map[string]any, allowed ...string) error {
	for _, name := range slices.Sorted(maps.Keys(params)) {
		if !slices.Contains(allowed, name) {
			if len(allowed) == 0 {
				return fmt.Errorf("unknown param %q (this handler takes none)", name)
			}
			return fmt.Errorf("unknown param %q (want %s)", name, strings.Join(allowed, ", "))
		}
	}
	return nil
}

func stringParam(params map[string]any, name string) (string, bool, error) {
	value, ok := params[name]
	if !ok {
		return "", false, nil
	}
	text, isText := value.(string)
	if !isText {
		return "", false, fmt.Errorf("param %q must be a string, got %T", name, value)
	}
	return text, true, nil
}
