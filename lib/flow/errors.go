// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package flow

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCategory classifies the failures the driver can produce so that
// callers embedding the engine can branch without parsing messages.
type ErrorCategory string

const (
	// CategoryValidation: a required argument had no bound value.
	CategoryValidation ErrorCategory = "validation"

	// CategoryUsage: the typed pass rejected the command line (a
	// number flag with a non-numeric value, a value-less string flag).
	CategoryUsage ErrorCategory = "usage"

	// CategoryLoad: a lazy child loader failed during routing.
	CategoryLoad ErrorCategory = "load"

	// CategoryHandler: the leaf's handler returned an error.
	CategoryHandler ErrorCategory = "handler"
)

// ErrNoHandler is returned by [Workflow.Execute] when the workflow
// declares no handler.
var ErrNoHandler = errors.New("workflow has no handler")

// ValidationError reports the first required argument (in declaration
// order) that has no value after the typed pass.
type ValidationError struct {
	// Path is the invocation path of the leaf, root first.
	Path []string

	// Arg is the name of the missing argument.
	Arg string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required argument: --%s", e.Arg)
}

// Category returns [CategoryValidation].
func (e *ValidationError) Category() ErrorCategory { return CategoryValidation }

// UsageError wraps a typed-pass failure with the invocation path so
// the driver can point at the right help page.
type UsageError struct {
	Path []string
	Err  error
}

func (e *UsageError) Error() string { return e.Err.Error() }

func (e *UsageError) Unwrap() error { return e.Err }

// Category returns [CategoryUsage].
func (e *UsageError) Category() ErrorCategory { return CategoryUsage }

// LoadError reports a lazy child reference that could not be resolved.
type LoadError struct {
	// Parent is the name of the workflow whose child table was being
	// built.
	Parent string

	// Index is the position of the failing reference in the parent's
	// Subflows list.
	Index int

	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading subflow %d of %q: %v", e.Index, e.Parent, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Category returns [CategoryLoad].
func (e *LoadError) Category() ErrorCategory { return CategoryLoad }

// HandlerError wraps an error returned by a leaf handler.
type HandlerError struct {
	Path []string
	Err  error
}

func (e *HandlerError) Error() string { return e.Err.Error() }

func (e *HandlerError) Unwrap() error { return e.Err }

// Category returns [CategoryHandler].
func (e *HandlerError) Category() ErrorCategory { return CategoryHandler }

// ExitError signals a non-zero exit code without an extra error line.
// A handler returns it when it has already written its own output and
// a non-zero exit is a legitimate outcome (a failed check, a "not
// found" answer).
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code. [Workflow.Run] looks for this method
// anywhere in the error chain.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// CategoryOf returns the category of the first categorized error in
// err's chain, or "" if there is none.
func CategoryOf(err error) ErrorCategory {
	var categorized interface{ Category() ErrorCategory }
	if errors.As(err, &categorized) {
		return categorized.Category()
	}
	return ""
}

func joinPath(path []string) string {
	return strings.Join(path, " ")
}
