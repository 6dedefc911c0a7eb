package faults

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyKnownProviderCodes(t *testing.T) {
	cases := []struct {
		raw     string
		kind    Kind
		message string
	}{
		{"identity api error: code=400, message=INVALID_EMAIL", KindValidation, "Please enter a valid email address."},
		{"identity api error: code=400, message=EMAIL_EXISTS", KindValidation, "This email is already registered."},
		{"identity api error: code=400, message=INVALID_LOGIN_CREDENTIALS", KindReauth, "Incorrect password."},
		{"identity api error: code=400, message=OPERATION_NOT_ALLOWED", KindProviderUpdate, "This operation is not allowed for the account."},
		{"prediction api error: Invalid OTP", KindOtpInvalid, "Use the correct code sent to your email."},
		{"prediction api error: OTP expired", KindOtpInvalid, "The code has expired. Request a new one."},
		{"dial tcp 127.0.0.1:8000: connection refused", KindUpstream, "Unable to connect. Check your internet."},
		{"context deadline exceeded", KindUpstream, "The service took too long to respond. Please try again."},
	}

	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			fault := Classify(errors.New(tc.raw))

			require.NotNil(t, fault)
			assert.Equal(t, tc.kind, fault.Kind)
			assert.Equal(t, tc.message, fault.Message)
		})
	}
}

func TestClassifyUnknownAppendsRawDetail(t *testing.T) {
	fault := Classify(errors.New("boom"))

	require.NotNil(t, fault)
	assert.Equal(t, KindGeneric, fault.Kind)
	assert.Contains(t, fault.Message, "(boom)")
}

func TestClassifyNil(t *testing.T) {
	assert.Nil(t, Classify(nil))
}

func TestClassifyPreservesExistingFault(t *testing.T) {
	original := Validation("Type a question first.")
	wrapped := fmt.Errorf("handling request: %w", original)

	fault := Classify(wrapped)

	assert.Same(t, original, fault)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindOtpInvalid, KindOf(New(KindOtpInvalid, "bad code")))
	assert.Equal(t, KindGeneric, KindOf(errors.New("plain")))

	wrapped := fmt.Errorf("outer: %w", Wrap(KindUpstream, "down", errors.New("inner")))
	assert.Equal(t, KindUpstream, KindOf(wrapped))
}

func TestFaultUnwrap(t *testing.T) {
	cause := errors.New("inner")
	fault := Wrap(KindProfileSync, "sync failed", cause)

	assert.ErrorIs(t, fault, cause)
	assert.Contains(t, fault.Error(), "sync failed")
	assert.Contains(t, fault.Error(), "inner")
}

func TestOperationNotAllowed(t *testing.T) {
	assert.True(t, OperationNotAllowed(errors.New("identity api error: code=400, message=OPERATION_NOT_ALLOWED")))
	assert.False(t, OperationNotAllowed(errors.New("identity api error: code=400, message=EMAIL_EXISTS")))
	assert.False(t, OperationNotAllowed(nil))
}
