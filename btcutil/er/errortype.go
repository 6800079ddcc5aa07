package er

import (
	"fmt"
)

// ErrorType is a namespace of error codes, one per package.
type ErrorType struct {
	name  string
	codes []*ErrorCode
}

// ErrorCode identifies a specific kind of error within an ErrorType.
type ErrorCode struct {
	Type   *ErrorType
	Name   string
	Detail string
	Number int
}

// GenericErrorType is used for codes which do not belong to any package.
var GenericErrorType = NewErrorType("er.GenericErrorType")

// NewErrorType creates a new registry of error codes.
func NewErrorType(name string) ErrorType {
	return ErrorType{name: name}
}

// Name returns the name of the registry.
func (t *ErrorType) Name() string {
	return t.name
}

// Code registers and returns a new ErrorCode.
func (t *ErrorType) Code(name string) *ErrorCode {
	return t.CodeWithDetail(name, "")
}

// CodeWithDetail registers a code whose Default() message is detail.
func (t *ErrorType) CodeWithDetail(name, detail string) *ErrorCode {
	c := &ErrorCode{
		Type:   t,
		Name:   name,
		Detail: detail,
		Number: len(t.codes),
	}
	t.codes = append(t.codes, c)
	return c
}

// Codes lists every registered code in order of registration.
func (t *ErrorType) Codes() []*ErrorCode {
	out := make([]*ErrorCode, len(t.codes))
	copy(out, t.codes)
	return out
}

func (c *ErrorCode) String() string {
	return c.Name
}

// New creates an error carrying this code.  If cause is non-nil, its message
// is appended after the description.
func (c *ErrorCode) New(desc string, cause R) R {
	msg := c.Name
	if desc != "" {
		msg = fmt.Sprintf("%s: %s", c.Name, desc)
	}
	if cause != nil {
		msg = fmt.Sprintf("%s: %s", msg, cause.Message())
	}
	return &err{
		e:      codedErr{msg: msg, cause: Wrapped(cause)},
		bstack: captureStack(),
		c:      c,
	}
}

// Default creates an error carrying this code and its default detail.
func (c *ErrorCode) Default() R {
	return c.New(c.Detail, nil)
}

// Is reports whether e carries this code.
func (c *ErrorCode) Is(e R) bool {
	if e == nil {
		return false
	}
	return e.code() == c
}

type codedErr struct {
	msg   string
	cause error
}

func (c codedErr) Error() string {
	return c.msg
}

func (c codedErr) Unwrap() error {
	return c.cause
}
