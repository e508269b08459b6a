// Package errdefs defines the error kinds surfaced at component boundaries:
// transport and status failures from the management API, report decoding
// failures, poll timeouts and severity coercion failures.
package errdefs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindTransport
	KindStatus
	KindParse
	KindTimeout
	KindCoercion
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindParse:
		return "parse"
	case KindTimeout:
		return "timeout"
	case KindCoercion:
		return "coercion"
	default:
		return "unknown"
	}
}

// Error tags an underlying error with the boundary it crossed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func Transport(op string, err error) error { return newError(KindTransport, op, err) }
func Parse(op string, err error) error     { return newError(KindParse, op, err) }
func Timeout(op string, err error) error   { return newError(KindTimeout, op, err) }
func Coercion(op string, err error) error  { return newError(KindCoercion, op, err) }

// Status tags a non-success response. A nil StatusError yields nil.
func Status(op string, se *StatusError) error {
	if se == nil {
		return nil
	}
	return &Error{Kind: KindStatus, Op: op, Err: se}
}

// KindOf returns the kind of the outermost tagged error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func IsTransport(err error) bool { return KindOf(err) == KindTransport }
func IsStatus(err error) bool    { return KindOf(err) == KindStatus }
func IsParse(err error) bool     { return KindOf(err) == KindParse }
func IsTimeout(err error) bool   { return KindOf(err) == KindTimeout }
func IsCoercion(err error) bool  { return KindOf(err) == KindCoercion }

// StatusError keeps the parts of a rejected response needed for diagnostics.
type StatusError struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(string(e.Body))
	if len(body) > 512 {
		body = body[:512] + "..."
	}
	if body == "" {
		return fmt.Sprintf("unexpected response %s", e.Status)
	}
	return fmt.Sprintf("unexpected response %s body=%s", e.Status, body)
}

// AsStatus extracts the StatusError from err's chain, if any.
func AsStatus(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
