// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package flow

import "slices"

// Route is the outcome of a path walk.
type Route struct {
	// Path holds the names of every workflow on the way from the root
	// to the leaf, root first.
	Path []string

	// Leaf is the deepest workflow the positional tokens selected.
	Leaf *Workflow

	// Consumed is the number of positional tokens used for routing.
	Consumed int

	// Rest holds the positional tokens left for the leaf.
	Rest []string
}

// Walk descends from root one positional token at a time. While the
// next token names a child of the current workflow, the token is
// consumed and the child becomes current. The first token that names
// no child (or the end of the tokens) stops the walk; that token and
// every later one are left in Route.Rest.
//
// The walk is greedy and never backtracks, so the same tokens always
// produce the same route. A loader failure aborts the walk with a
// [*LoadError].
func Walk(root *Workflow, positional []string) (Route, error) {
	route := Route{
		Path: []string{root.Name},
		Leaf: root,
	}

	for route.Consumed < len(positional) {
		token := positional[route.Consumed]
		child, ok, err := route.Leaf.Subflow(token)
		if err != nil {
			return Route{}, err
		}
		if !ok {
			break
		}
		route.Path = append(route.Path, child.Name)
		route.Leaf = child
		route.Consumed++
	}

	route.Rest = slices.Clone(positional[route.Consumed:])
	if route.Rest == nil {
		route.Rest = []string{}
	}
	return route, nil
}
