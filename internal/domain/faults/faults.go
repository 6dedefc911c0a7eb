package faults

import (
	"errors"
	"fmt"
	"strings"
)

// Kind partitions every failure the core can surface to a user.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindUpstream        Kind = "upstream"
	KindOtpRequest      Kind = "otp_request_failed"
	KindOtpInvalid      Kind = "otp_invalid"
	KindReauth          Kind = "reauth_failed"
	KindProviderUpdate  Kind = "provider_update_failed"
	KindProfileSync     Kind = "profile_sync_failed"
	KindUnauthenticated Kind = "unauthenticated"
	KindGeneric         Kind = "generic"
)

// Fault is a classified failure carrying a user-facing message alongside the
// wrapped cause.
type Fault struct {
	Kind    Kind
	Message string
	Err     error
}

func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Message, f.Err)
	}
	return f.Message
}

func (f *Fault) Unwrap() error { return f.Err }

// New builds a Fault of the given kind with an explicit message.
func New(kind Kind, message string) *Fault {
	return &Fault{Kind: kind, Message: message}
}

// Wrap attaches a cause to a fault of the given kind.
func Wrap(kind Kind, message string, err error) *Fault {
	return &Fault{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the Kind from err, or KindGeneric when err carries none.
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindGeneric
}

// Validation is shorthand for a client-side input rejection. These never
// reach the network.
func Validation(message string) *Fault {
	return New(KindValidation, message)
}

// rule maps a substring of a raw upstream message to a classified fault.
// Rules are evaluated in order; first match wins.
type rule struct {
	substr  string
	kind    Kind
	message string
}

// classifyRules translates the soft, stringly-typed errors the identity
// provider and OTP backend emit into the fixed taxonomy. Unmatched errors
// fall through to a generic message with the raw detail appended.
var classifyRules = []rule{
	{"INVALID_EMAIL", KindValidation, "Please enter a valid email address."},
	{"EMAIL_NOT_FOUND", KindReauth, "No account found with this email."},
	{"INVALID_PASSWORD", KindReauth, "Incorrect password."},
	{"INVALID_LOGIN_CREDENTIALS", KindReauth, "Incorrect password."},
	{"EMAIL_EXISTS", KindValidation, "This email is already registered."},
	{"WEAK_PASSWORD", KindValidation, "Password should be at least 6 characters."},
	{"password cannot be longer than 72 bytes", KindValidation, "Password is too long. Please use a shorter password."},
	{"OPERATION_NOT_ALLOWED", KindProviderUpdate, "This operation is not allowed for the account."},
	{"Invalid OTP", KindOtpInvalid, "Use the correct code sent to your email."},
	{"expired", KindOtpInvalid, "The code has expired. Request a new one."},
	{"connection refused", KindUpstream, "Unable to connect. Check your internet."},
	{"no such host", KindUpstream, "Unable to connect. Check your internet."},
	{"context deadline exceeded", KindUpstream, "The service took too long to respond. Please try again."},
}

// Classify maps a raw error onto the taxonomy using the ordered rule list.
// A nil error classifies to nil.
func Classify(err error) *Fault {
	if err == nil {
		return nil
	}

	var f *Fault
	if errors.As(err, &f) {
		return f
	}

	raw := err.Error()
	for _, r := range classifyRules {
		if strings.Contains(raw, r.substr) {
			return &Fault{Kind: r.kind, Message: r.message, Err: err}
		}
	}

	return &Fault{
		Kind:    KindGeneric,
		Message: fmt.Sprintf("Something went wrong. Please try again. (%s)", raw),
		Err:     err,
	}
}

// OperationNotAllowed reports whether err is the one provider failure the
// email-change flow deliberately swallows.
func OperationNotAllowed(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "OPERATION_NOT_ALLOWED")
}
