// Package apperrors classifies failures into the coarse categories the storefront
// reports to users and logs.
package apperrors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Category is a coarse failure class.
type Category string

const (
	Network        Category = "NETWORK"
	Authentication Category = "AUTHENTICATION"
	Validation     Category = "VALIDATION"
	Database       Category = "DATABASE"
	Permission     Category = "PERMISSION"
	Unknown        Category = "UNKNOWN"
)

// Error attaches a category and the failing operation to an underlying error.
type Error struct {
	Category Category
	Op       string
	Err      error
}

// New wraps err with a category. A nil err yields a nil *Error.
func New(category Category, op string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Category: category, Op: op, Err: err}
}

// Newf builds a categorized error from a format string.
func Newf(category Category, op, format string, args ...any) *Error {
	return &Error{Category: category, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports category equality so callers can match with errors.Is(err, &Error{Category: ...}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Err == nil && t.Op == "" && t.Category == e.Category
}

// statusCoder is implemented by transport errors that carry an HTTP status.
type statusCoder interface {
	StatusCode() int
}

var keywords = []struct {
	category Category
	words    []string
}{
	// provider codes that would otherwise match the authentication words below
	{Validation, []string{"weak_password", "invalid_email", "missing_password", "missing_email"}},
	{Network, []string{"network", "timeout", "timed out", "connection", "no such host", "fetch", "unreachable"}},
	{Authentication, []string{"token", "auth", "unauthorized", "password", "email_not_found", "invalid_login_credentials", "user_disabled", "credential"}},
	{Permission, []string{"permission", "denied", "forbidden"}},
	{Database, []string{"database", "sqlite", "sql:", "constraint"}},
	{Validation, []string{"invalid", "required", "must be", "validation", "missing"}},
}

// Classify infers the category of err. Explicitly categorized errors win; otherwise
// status codes and message content decide.
func Classify(err error) Category {
	if err == nil {
		return Unknown
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Category
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Network
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return Network
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		switch status := sc.StatusCode(); {
		case status == 401:
			return Authentication
		case status == 403:
			return Permission
		case status == 400 || status == 422:
			if c := classifyMessage(err.Error()); c != Unknown {
				return c
			}
			return Validation
		case status >= 500:
			return Network
		}
	}

	return classifyMessage(err.Error())
}

func classifyMessage(msg string) Category {
	lower := strings.ToLower(msg)
	for _, k := range keywords {
		for _, w := range k.words {
			if strings.Contains(lower, w) {
				return k.category
			}
		}
	}
	return Unknown
}

// Is reports whether err classifies as category.
func Is(err error, category Category) bool {
	return err != nil && Classify(err) == category
}
