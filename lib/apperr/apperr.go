package apperr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"

	"ehclient/lib/parser"
)

type Kind int

const (
	UNKNOWN Kind = iota
	PARSE_FAILED
	NETWORK_FAILED
	NOT_LOGGED_IN
	NO_MORE_PAGES
	INVALID_CURSOR
)

func (k Kind) String() string {
	switch k {
	case PARSE_FAILED:
		return "parse failed"
	case NETWORK_FAILED:
		return "network failed"
	case NOT_LOGGED_IN:
		return "not logged in"
	case NO_MORE_PAGES:
		return "no more pages"
	case INVALID_CURSOR:
		return "invalid cursor"
	default:
		return "unknown"
	}
}

// Error is a failure that has been given exactly one Kind, it is the only
// error type that reaches application state.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Newf is shorthand for New(kind, fmt.Errorf(format, args...)).
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Is matches another *Error by kind so callers can write
// errors.Is(err, apperr.New(apperr.PARSE_FAILED, nil)).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Classify maps any error to exactly one Kind, an already classified error is
// returned as is. nil stays nil.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	if errors.Is(err, parser.ErrParse) {
		return New(PARSE_FAILED, err)
	}

	var netErr net.Error
	var urlErr *url.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.As(err, &netErr),
		errors.As(err, &urlErr):
		return New(NETWORK_FAILED, err)
	}

	return New(UNKNOWN, err)
}

// KindOf returns the Kind err would be classified as.
func KindOf(err error) Kind {
	c := Classify(err)
	if c == nil {
		return UNKNOWN
	}
	return c.Kind
}
