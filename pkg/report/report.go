package report

import (
	"errors"
	"fmt"
	"strings"

	rerrors "github.com/vango-dev/reactor/internal/errors"
)

// ErrPanic is wrapped by errors produced from a recovered panic.
var ErrPanic = errors.New("reactor: panic")

// Kind classifies a report.
type Kind uint8

const (
	// KindRender is a failure inside a render function.
	KindRender Kind = iota + 1
	// KindHook is a failure inside a lifecycle hook, event handler,
	// watcher callback or NextTick callback.
	KindHook
	// KindUpdateLoop is raised when a flush exceeds its iteration cap.
	KindUpdateLoop
	// KindResolution is an injection with no provider and no default.
	KindResolution
	// KindMisuse is a non-fatal API misuse warning.
	KindMisuse
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindRender:
		return "render"
	case KindHook:
		return "hook"
	case KindUpdateLoop:
		return "update_loop"
	case KindResolution:
		return "resolution"
	case KindMisuse:
		return "misuse"
	default:
		return "unknown"
	}
}

// IsWarning reports whether the kind is a non-fatal warning.
func (k Kind) IsWarning() bool {
	return k == KindResolution || k == KindMisuse
}

// Error is a single report.
type Error struct {
	Kind Kind

	// Code is the registered error code (see internal/errors).
	Code string

	// Instance is the id of the component instance involved, 0 if none.
	Instance uint64

	// Component is the declared name of that instance's component.
	Component string

	// Info describes the boundary that caught the error
	// (e.g. `mounted hook`, `event handler for "save"`).
	Info string

	// Err is the underlying cause, if any.
	Err error
}

// New creates a report of the given kind and code.
func New(kind Kind, code string, err error) *Error {
	return &Error{Kind: kind, Code: code, Err: err}
}

// Render creates a KindRender report.
func Render(err error) *Error { return New(KindRender, "R001", err) }

// Hook creates a KindHook report with the given code.
func Hook(code string, err error) *Error { return New(KindHook, code, err) }

// Misuse creates a KindMisuse warning with the given code.
func Misuse(code string) *Error { return New(KindMisuse, code, nil) }

// WithInfo sets the boundary description.
func (e *Error) WithInfo(info string) *Error {
	e.Info = info
	return e
}

// WithInstance records the instance involved.
func (e *Error) WithInstance(id uint64, name string) *Error {
	e.Instance = id
	e.Component = name
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("reactor ")
	b.WriteString(e.Kind.String())
	if e.Code != "" {
		b.WriteString(" ")
		b.WriteString(e.Code)
	}
	if e.Info != "" {
		b.WriteString(" in ")
		b.WriteString(e.Info)
	}
	if e.Component != "" || e.Instance != 0 {
		b.WriteString(fmt.Sprintf(" <%s#%d>", componentName(e.Component), e.Instance))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// Describe returns the catalogue entry for this report's code, enriched with
// the report's info and cause.
func (e *Error) Describe() *rerrors.Error {
	d := rerrors.New(e.Code).WithInfo(e.Info)
	if e.Err != nil {
		d.Wrap(e.Err)
	}
	return d
}

func componentName(name string) string {
	if name == "" {
		return "Anonymous"
	}
	return name
}

// Guard runs fn and converts a panic into an error wrapping ErrPanic.
func Guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if re, ok := r.(error); ok {
				err = fmt.Errorf("%w: %w", ErrPanic, re)
				return
			}
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn()
}
