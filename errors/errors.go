// Package errors carries the DataONE service exception taxonomy. The
// upstream service APIs identify failures by a name, an HTTP status
// and a numeric detail code, serialized as a small XML document. One
// tagged type covers the whole taxonomy so the HTTP boundary maps an
// error exactly once.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindServiceFailure Kind = iota
	KindNotAuthorized
	KindNotImplemented
	KindInvalidToken
	KindNotFound
)

type Error struct {
	Kind       Kind
	DetailCode string
	Message    string

	cause error
}

func (self *Error) Error() string {
	return fmt.Sprintf("%s (%s): %s", self.Name(), self.DetailCode, self.Message)
}

func (self *Error) Unwrap() error {
	return self.cause
}

func (self *Error) Name() string {
	switch self.Kind {
	case KindNotAuthorized:
		return "NotAuthorized"
	case KindNotImplemented:
		return "NotImplemented"
	case KindInvalidToken:
		return "InvalidToken"
	case KindNotFound:
		return "NotFound"
	default:
		return "ServiceFailure"
	}
}

func (self *Error) HTTPStatus() int {
	switch self.Kind {
	case KindNotAuthorized, KindInvalidToken:
		return http.StatusUnauthorized
	case KindNotImplemented:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func new_error(kind Kind, detail_code, format string, v ...interface{}) *Error {
	return &Error{
		Kind:       kind,
		DetailCode: detail_code,
		Message:    fmt.Sprintf(format, v...),
	}
}

func ServiceFailure(detail_code, format string, v ...interface{}) *Error {
	return new_error(KindServiceFailure, detail_code, format, v...)
}

func NotAuthorized(detail_code, format string, v ...interface{}) *Error {
	return new_error(KindNotAuthorized, detail_code, format, v...)
}

func NotImplemented(detail_code, format string, v ...interface{}) *Error {
	return new_error(KindNotImplemented, detail_code, format, v...)
}

func InvalidToken(detail_code, format string, v ...interface{}) *Error {
	return new_error(KindInvalidToken, detail_code, format, v...)
}

func NotFound(detail_code, format string, v ...interface{}) *Error {
	return new_error(KindNotFound, detail_code, format, v...)
}

// Wrap keeps the original error reachable for errors.Is/As while
// presenting the service exception to the caller.
func (self *Error) Wrap(err error) *Error {
	self.cause = err
	return self
}

// Convert coerces any error into a service exception. Unknown errors
// become ServiceFailure with the given detail code so internal error
// text never leaks its type to the client.
func Convert(err error, detail_code string) *Error {
	var service_err *Error
	if stderrors.As(err, &service_err) {
		return service_err
	}
	return ServiceFailure(detail_code, "%v", err).Wrap(err)
}

func IsNotFound(err error) bool {
	var service_err *Error
	return stderrors.As(err, &service_err) &&
		service_err.Kind == KindNotFound
}

func IsNotAuthorized(err error) bool {
	var service_err *Error
	return stderrors.As(err, &service_err) &&
		service_err.Kind == KindNotAuthorized
}
