package tvtrader

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so that callers can decide whether an error
// is recoverable (exchange-side problems are always skip-and-continue) or
// must block feature initialization (unverified credentials).
type ErrorKind int

const (
	// KindExchange marks an exchange-reported failure or a malformed
	// exchange response. Recoverable by the caller.
	KindExchange ErrorKind = iota
	// KindUnsupportedExchange marks a lookup of an exchange name that has
	// no registered client.
	KindUnsupportedExchange
	// KindUnverified marks a startup-time credential verification failure.
	// The affected protection loop must not start.
	KindUnverified
	// KindParser marks a numeric or structural field that could not be
	// parsed from configuration or a signal line.
	KindParser
)

func (ek ErrorKind) String() string {
	switch ek {
	case KindExchange:
		return "EXCHANGE"
	case KindUnsupportedExchange:
		return "UNSUPPORTED_EXCHANGE"
	case KindUnverified:
		return "UNVERIFIED"
	case KindParser:
		return "PARSER"
	default:
		return "UNKNOWN"
	}
}

type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%v: [%v]", e.Message, e.Cause)
	}

	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func ExchangeErrorf(cause error, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    KindExchange,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

func UnsupportedExchangeErrorf(format string, args ...interface{}) *Error {
	return &Error{
		Kind:    KindUnsupportedExchange,
		Message: fmt.Sprintf(format, args...),
	}
}

func UnverifiedErrorf(cause error, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    KindUnverified,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

func ParserErrorf(format string, args ...interface{}) *Error {
	return &Error{
		Kind:    KindParser,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsKind checks whether any error in the chain is an *Error of the given
// kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}

	return false
}
