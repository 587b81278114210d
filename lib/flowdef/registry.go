// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package flowdef

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/bureau-foundation/flow/lib/flow"
)

// Factory creates a handler from the params a manifest attaches to a
// workflow. It runs once per workflow at build time; an error fails
// the build.
type Factory func(params map[string]any) (flow.Handler, error)

// Registry maps the handler names used in manifests to factories.
// It is safe for concurrent use.
type Registry struct {
	mutex     sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under name. Registering a name twice is an
// error.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("registering handler: empty name")
	}
	if factory == nil {
		return fmt.Errorf("registering handler %q: nil factory", name)
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("handler %q is already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// RegisterHandler adds a handler that takes no params. Manifests that
// attach params to it fail to build.
func (r *Registry) RegisterHandler(name string, handler flow.Handler) error {
	if handler == nil {
		return fmt.Errorf("registering handler %q: nil handler", name)
	}
	return r.Register(name, func(params map[string]any) (flow.Handler, error) {
		if len(params) > 0 {
			return nil, fmt.Errorf("handler %q takes no params", name)
		}
		return handler, nil
	})
}

// Names returns the registered names in sorted order. A nil Registry
// has no names.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return slices.Sorted(maps.Keys(r.factories))
}

func (r *Registry) lookup(name string) (Factory, bool) {
	if r == nil {
		return nil, false
	}
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	factory, ok := r.factories[name]
	return factory, ok
}
