// Package er carries errors through pktsign.  An er.R is an error which may
// have a stack captured at creation (set ENABLE_STACKTRACE) and which may be
// tagged with an ErrorCode from a package-level ErrorType registry.
package er

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
)

var stacktraceDisabled = []string{"No stack, ENABLE_STACKTRACE not set"}

// R is the error type returned by every fallible function in this module.
type R interface {
	Message() string
	Stack() []string
	String() string
	Wrapped0() error
	Native() error
	HasStack() bool

	code() *ErrorCode
}

type err struct {
	e      error
	bstack []byte
	c      *ErrorCode
}

func (e *err) Stack() []string {
	if e.bstack == nil {
		return stacktraceDisabled
	}
	return strings.Split(string(e.bstack), "\n")
}

func (e *err) HasStack() bool {
	return e.bstack != nil
}

func (e *err) Message() string {
	return e.e.Error()
}

func (e *err) String() string {
	if e.bstack != nil {
		return fmt.Sprintf("%s\n%s", e.e.Error(), strings.Join(e.Stack(), "\n"))
	}
	return e.e.Error()
}

func (e *err) Wrapped0() error {
	return e.e
}

func (e *err) Native() error {
	return nativeErr{r: e}
}

func (e *err) code() *ErrorCode {
	return e.c
}

// nativeErr adapts an R to the standard error interface so it can be handed
// to libraries which expect one.
type nativeErr struct {
	r R
}

func (n nativeErr) Error() string {
	return n.r.Message()
}

func (n nativeErr) Unwrap() error {
	return n.r.Wrapped0()
}

func captureStack() []byte {
	if os.Getenv("ENABLE_STACKTRACE") == "" {
		return nil
	}
	return debug.Stack()
}

// Wrapped returns the underlying go error of an R, or nil.
func Wrapped(e R) error {
	if e == nil {
		return nil
	}
	return e.Wrapped0()
}

// Native returns a standard error, or nil if e is nil.
func Native(e R) error {
	if e == nil {
		return nil
	}
	return e.Native()
}

// New creates a new uncoded error.
func New(s string) R {
	return &err{
		e:      errors.New(s),
		bstack: captureStack(),
	}
}

// Errorf creates a new uncoded error from a format string.
func Errorf(format string, a ...interface{}) R {
	return &err{
		e:      fmt.Errorf(format, a...),
		bstack: captureStack(),
	}
}

// E converts a go error into an R, nil stays nil.
func E(e error) R {
	if e == nil {
		return nil
	}
	if n, ok := e.(nativeErr); ok {
		return n.r
	}
	return &err{
		e:      e,
		bstack: captureStack(),
	}
}

// LoopBreak is returned from a ForEach style callback to stop iterating
// without signaling failure.
var LoopBreak = New("loop break")

// IsLoopBreak reports whether e is LoopBreak.
func IsLoopBreak(e R) bool {
	return e == LoopBreak
}

// Equals reports whether two errors carry the same code, or, when uncoded,
// the same message.
func Equals(a, b R) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if ca, cb := a.code(), b.code(); ca != nil || cb != nil {
		return ca == cb
	}
	return a.Message() == b.Message()
}
