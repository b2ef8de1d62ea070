// Package dasherr implements the error values of ssdash.
//
// Every error made by this package carries a kind, which is one of the
// sentinel errors in lib-ssdash, and the kind is matched by errors.Is.
package dasherr

import (
	"errors"
	"fmt"
	"strings"
)

// Error is an error that has a kind and an optional cause.
type Error struct {
	Kind    error
	Cause   error
	Message string
}

// New creates a new Error.
// The message is the formatted string, followed by the cause's message if cause is not nil.
func New(kind, cause error, format string, args ...interface{}) Error {
	msg := fmt.Sprintf(format, args...)
	if cause != nil {
		if msg != "" {
			msg += ": "
		}
		msg += cause.Error()
	}

	return Error{
		Kind:    kind,
		Cause:   cause,
		Message: msg,
	}
}

// Error implements error interface.
func (e Error) Error() string {
	return e.Message
}

// Unwrap returns both of the kind and the cause, so errors.Is matches either of them.
func (e Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// KindOf returns the first kind in kinds that err matches, or nil.
func KindOf(err error, kinds ...error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// List is an error that has several problems of the same kind.
type List struct {
	Kind     error
	Problems []error
}

// Error implements error interface.
func (l List) Error() string {
	var sb strings.Builder

	sb.WriteString(l.Kind.Error())
	sb.WriteString(":")

	for _, p := range l.Problems {
		for _, s := range strings.Split(p.Error(), "\n") {
			sb.WriteString("\n  ")
			sb.WriteString(s)
		}
	}

	return sb.String()
}

// Unwrap returns the kind and all problems.
func (l List) Unwrap() []error {
	return append([]error{l.Kind}, l.Problems...)
}

// ListBuilder collects problems and builds a List.
type ListBuilder struct {
	Kind     error
	problems []error
}

// Pushf appends a problem made by fmt.Errorf.
func (lb *ListBuilder) Pushf(format string, values ...interface{}) {
	lb.problems = append(lb.problems, fmt.Errorf(format, values...))
}

// Len returns the number of collected problems.
func (lb *ListBuilder) Len() int {
	return len(lb.problems)
}

// Build returns a List if there is any problem, otherwise nil.
func (lb *ListBuilder) Build() error {
	if len(lb.problems) == 0 {
		return nil
	}

	return List{
		Kind:     lb.Kind,
		Problems: lb.problems,
	}
}
