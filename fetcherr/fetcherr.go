// package fetcherr classifies the failures of a single fetch: parsing a URL, resolving its host,
// connecting, and driving the request/response exchange.
//
// Every error returned by weburl and httpconn is a *Error, and Kind implements error,
// so callers classify with errors.Is:
//
//	if errors.Is(err, fetcherr.Resolution) { ... }
package fetcherr

import "fmt"

// Kind is the category of a failure.
type Kind uint8

const (
	_                 Kind = iota
	Usage                  // bad command-line invocation
	Parse                  // malformed URL
	UnsupportedMethod      // access method present but not http
	Resolution             // DNS lookup failed
	Connect                // socket or connect failure
	ProtocolState          // operation invoked in the wrong connection state
	IO                     // read or write failure on an open socket
)

func (k Kind) String() string {
	switch k {
	case Usage:
		return "usage error"
	case Parse:
		return "parse error"
	case UnsupportedMethod:
		return "unsupported method"
	case Resolution:
		return "resolution error"
	case Connect:
		return "connect error"
	case ProtocolState:
		return "protocol state error"
	case IO:
		return "i/o error"
	default:
		return fmt.Sprintf("unknown error kind %d", uint8(k))
	}
}

// Error lets a bare Kind stand in as a target for errors.Is.
func (k Kind) Error() string { return k.String() }

// Error is a failure of kind Kind during operation Op, optionally caused by Err.
type Error struct {
	Kind Kind
	Op   string // e.g, "httpconn.Request"
	Err  error  // may be nil
}

// New builds an *Error. err may be nil.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf is as New, with the cause built by fmt.Errorf.
func Errorf(kind Kind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	switch {
	case e.Op == "" && e.Err == nil:
		return e.Kind.String()
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	case e.Op == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is e's Kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}
