// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly
// messages: what operation failed, which path was involved, and how to fix
// it. Pipeline stages return their own typed errors; the CLI layer wraps
// them in an ActionableError before display.
package issue

import (
	"errors"
	"fmt"
	"strings"
)

type (
	// ActionableError is a user-facing error with remediation context.
	//
	// Use the Context builder for construction:
	//
	//	err := issue.NewContext().
	//		WithOperation("flatten build output").
	//		WithResource(layout.BrowserDir).
	//		WithSuggestion("Run the build first, or drop --skip-build").
	//		Wrap(cause).
	//		BuildError()
	ActionableError struct {
		// Operation is a verb phrase describing what was attempted
		// (e.g. "flatten build output", "write archive").
		Operation string

		// Resource identifies the file or directory involved (optional).
		Resource string

		// Suggestions are hints on how to fix the issue (optional).
		Suggestions []string

		// Cause is the underlying error (optional).
		Cause error
	}

	// Context is a fluent builder for ActionableError values.
	Context struct {
		operation   string
		resource    string
		suggestions []string
		cause       error
	}
)

// NewContext creates a new ActionableError builder.
func NewContext() *Context {
	return &Context{}
}

// Error implements the error interface with a concise single-line message.
func (e *ActionableError) Error() string {
	var msg strings.Builder
	msg.WriteString("failed to ")
	msg.WriteString(e.Operation)
	if e.Resource != "" {
		msg.WriteString(": ")
		msg.WriteString(e.Resource)
	}
	if e.Cause != nil {
		msg.WriteString(": ")
		msg.WriteString(e.Cause.Error())
	}
	return msg.String()
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *ActionableError) Unwrap() error {
	return e.Cause
}

// Format renders the error for terminal display. Suggestions are listed as
// bullets; verbose mode appends the full error chain.
func (e *ActionableError) Format(verbose bool) string {
	var msg strings.Builder
	msg.WriteString(e.Error())

	for _, suggestion := range e.Suggestions {
		msg.WriteString("\n  • ")
		msg.WriteString(suggestion)
	}

	if verbose && e.Cause != nil {
		msg.WriteString("\n\nError chain:")
		err := e.Cause
		depth := 1
		for err != nil {
			fmt.Fprintf(&msg, "\n  %d. %s", depth, err.Error())
			err = errors.Unwrap(err)
			depth++
		}
	}

	return msg.String()
}

// WithOperation sets the operation being performed (required).
func (c *Context) WithOperation(op string) *Context {
	c.operation = op
	return c
}

// WithResource sets the file or directory involved.
func (c *Context) WithResource(res string) *Context {
	c.resource = res
	return c
}

// WithSuggestion adds a remediation hint. May be called multiple times.
func (c *Context) WithSuggestion(sug string) *Context {
	c.suggestions = append(c.suggestions, sug)
	return c
}

// Wrap records the underlying error as the cause.
func (c *Context) Wrap(err error) *Context {
	c.cause = err
	return c
}

// Build creates the ActionableError. Returns nil if no operation is set.
func (c *Context) Build() *ActionableError {
	if c.operation == "" {
		return nil
	}
	return &ActionableError{
		Operation:   c.operation,
		Resource:    c.resource,
		Suggestions: c.suggestions,
		Cause:       c.cause,
	}
}

// BuildError is Build typed as error for direct use in return statements.
func (c *Context) BuildError() error {
	ae := c.Build()
	if ae == nil {
		return nil
	}
	return ae
}
