package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Kind partitions application errors into the categories the handlers map
// onto HTTP statuses.
type Kind int

const (
	KindInternal Kind = iota
	KindAuth
	KindValidation
	KindConflict
	KindNotFound
	KindInvalidTransition
	KindPaymentDeclined
)

// Error carries a kind, a stable machine-readable code and a client-safe
// message. Err holds the underlying cause, logged but never sent to clients.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func Auth(code, message string) *Error {
	return &Error{Kind: KindAuth, Code: code, Message: message}
}

func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func InvalidTransition(from, to string) *Error {
	return &Error{
		Kind:    KindInvalidTransition,
		Code:    "INVALID_TRANSITION",
		Message: fmt.Sprintf("cannot transition appointment from %s to %s", from, to),
	}
}

func PaymentDeclined(message string) *Error {
	return &Error{Kind: KindPaymentDeclined, Code: "PAYMENT_DECLINED", Message: message}
}

func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Code: "INTERNAL", Message: message, Err: err}
}

// Status maps an error's kind to an HTTP status code. Unrecognized errors
// are treated as internal.
func Status(err error) int {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Kind {
	case KindAuth:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidTransition:
		return http.StatusConflict
	case KindPaymentDeclined:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// Is reports whether err is an application error carrying the given code.
func Is(err error, code string) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Code == code
}

// Respond logs err and writes its JSON form on c. Every error that reaches
// a handler goes through here so nothing is silently swallowed.
func Respond(c *gin.Context, err error) {
	var appErr *Error
	if !errors.As(err, &appErr) {
		appErr = Internal("unexpected error", err)
	}
	entry := logrus.WithFields(logrus.Fields{
		"code":   appErr.Code,
		"path":   c.FullPath(),
		"method": c.Request.Method,
	})
	if appErr.Kind == KindInternal {
		entry.WithError(err).Error(appErr.Message)
	} else {
		entry.Info(appErr.Message)
	}
	c.AbortWithStatusJSON(Status(appErr), gin.H{
		"error": appErr.Message,
		"code":  appErr.Code,
	})
}
