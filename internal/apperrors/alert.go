package apperrors

import "strings"

// Alert is the title and body of the confirmation dialog shown for a user-facing error.
type Alert struct {
	Title   string
	Message string
}

var alerts = map[Category]Alert{
	Network:        {"Connection Problem", "Please check your internet connection and try again."},
	Authentication: {"Sign-in Required", "Your session has expired or your credentials are incorrect. Please sign in again."},
	Validation:     {"Check Your Input", "Some of the information you entered is not valid."},
	Database:       {"Storage Error", "We couldn't save your data on this device. Please try again."},
	Permission:     {"Access Denied", "You don't have permission to do that."},
	Unknown:        {"Something Went Wrong", "An unexpected error occurred. Please try again."},
}

// identity provider error codes with a more specific message, matched in order
var providerMessages = []struct {
	code    string
	message string
}{
	{"EMAIL_EXISTS", "An account with this email already exists."},
	{"EMAIL_NOT_FOUND", "No account was found for this email."},
	{"INVALID_PASSWORD", "The password is incorrect."},
	{"INVALID_LOGIN_CREDENTIALS", "The email or password is incorrect."},
	{"USER_DISABLED", "This account has been disabled."},
	{"TOO_MANY_ATTEMPTS_TRY_LATER", "Too many attempts. Please try again later."},
	{"TOKEN_EXPIRED", "Your session has expired. Please sign in again."},
	{"INVALID_REFRESH_TOKEN", "Your session is no longer valid. Please sign in again."},
	{"WEAK_PASSWORD", "The password must be at least 6 characters."},
	{"INVALID_EMAIL", "The email address is badly formatted."},
}

// Present builds the alert for err. Validation errors carry their own message since
// they describe what the user has to fix.
func Present(err error) Alert {
	category := Classify(err)
	alert := alerts[category]
	if err == nil {
		return alert
	}

	msg := err.Error()
	for _, p := range providerMessages {
		if strings.Contains(msg, p.code) {
			alert.Message = p.message
			return alert
		}
	}

	if category == Validation {
		alert.Message = rootMessage(err)
	}
	return alert
}

func rootMessage(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		msg = msg[i+2:]
	}
	if msg == "" {
		return alerts[Validation].Message
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
