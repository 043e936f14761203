package apperrors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

type statusErr struct {
	status int
	msg    string
}

func (e statusErr) Error() string   { return e.msg }
func (e statusErr) StatusCode() int { return e.status }

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Category
	}{
		{"nil", nil, Unknown},
		{"explicit category", New(Database, "save session", errors.New("disk full")), Database},
		{"wrapped explicit category", fmt.Errorf("outer: %w", New(Permission, "op", errors.New("x"))), Permission},
		{"deadline", fmt.Errorf("request: %w", context.DeadlineExceeded), Network},
		{"net error", &net.OpError{Op: "dial", Err: errors.New("refused")}, Network},
		{"status 401", statusErr{401, "nope"}, Authentication},
		{"status 403", statusErr{403, "nope"}, Permission},
		{"status 400 with provider code", statusErr{400, "INVALID_PASSWORD"}, Authentication},
		{"status 400 plain", statusErr{400, "bad"}, Validation},
		{"weak password", statusErr{400, "firebase: 400 WEAK_PASSWORD: Password should be at least 6 characters"}, Validation},
		{"invalid email", statusErr{400, "firebase: 400 INVALID_EMAIL"}, Validation},
		{"status 503", statusErr{503, "unavailable"}, Network},
		{"message network", errors.New("Network request failed"), Network},
		{"message token", errors.New("TOKEN_EXPIRED"), Authentication},
		{"message permission", errors.New("Permission denied"), Permission},
		{"message sqlite", errors.New("sqlite: database is locked"), Database},
		{"message validation", errors.New("display name is required"), Validation},
		{"unmatched", errors.New("boom"), Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.err))
		})
	}
}

func TestNew_NilError(t *testing.T) {
	assert.Nil(t, New(Database, "op", nil))
}

func TestError_IsMatchesCategory(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", New(Database, "replace cart", errors.New("locked")))

	assert.ErrorIs(t, err, &Error{Category: Database})
	assert.NotErrorIs(t, err, &Error{Category: Network})
	assert.True(t, Is(err, Database))
	assert.Equal(t, "wrapped: replace cart: locked", err.Error())
}

func TestPresent(t *testing.T) {
	t.Run("provider code", func(t *testing.T) {
		alert := Present(statusErr{400, "EMAIL_NOT_FOUND"})
		assert.Equal(t, "Sign-in Required", alert.Title)
		assert.Equal(t, "No account was found for this email.", alert.Message)
	})

	t.Run("validation uses root message", func(t *testing.T) {
		alert := Present(New(Validation, "add to cart", errors.New("only 3 left in stock")))
		assert.Equal(t, "Check Your Input", alert.Title)
		assert.Equal(t, "Only 3 left in stock", alert.Message)
	})

	t.Run("weak password", func(t *testing.T) {
		alert := Present(statusErr{400, "firebase: 400 WEAK_PASSWORD: Password should be at least 6 characters"})
		assert.Equal(t, "Check Your Input", alert.Title)
		assert.Equal(t, "The password must be at least 6 characters.", alert.Message)
	})

	t.Run("first listed code wins", func(t *testing.T) {
		for i := 0; i < 20; i++ {
			alert := Present(statusErr{400, "INVALID_EMAIL, EMAIL_EXISTS"})
			assert.Equal(t, "An account with this email already exists.", alert.Message)
		}
	})

	t.Run("network", func(t *testing.T) {
		alert := Present(context.DeadlineExceeded)
		assert.Equal(t, "Connection Problem", alert.Title)
	})

	t.Run("unknown", func(t *testing.T) {
		alert := Present(errors.New("boom"))
		assert.Equal(t, "Something Went Wrong", alert.Title)
	})
}
