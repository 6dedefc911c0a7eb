package models

// EnrollmentState tracks where a signup or email-change flow currently is.
// Sessions are in-memory only; an abandoned flow simply evaporates.
type EnrollmentState string

const (
	EnrollmentIdle         EnrollmentState = "Idle"
	EnrollmentOtpRequested EnrollmentState = "OtpRequested"
	EnrollmentCommitted    EnrollmentState = "Committed"

	// Email-change variant for an existing, authenticated account.
	EmailChangeRequested EnrollmentState = "EmailChangeRequested"
	EmailOtpVerifying    EnrollmentState = "EmailOtpVerifying"
	Reauthenticating     EnrollmentState = "Reauthenticating"
	EmailUpdatePending   EnrollmentState = "EmailUpdatePending"
	ProfileSynced        EnrollmentState = "ProfileSynced"
)

// EnrollmentSession is the ephemeral state of one in-flight signup or
// email-change attempt. At most one exists per user session.
type EnrollmentSession struct {
	State    EnrollmentState
	Email    string
	Password string
	FullName string
	FarmName string
	Phone    string

	// Email-change only: the account and its authoritative email at the
	// moment the flow started.
	AccountID string
	OldEmail  string
	IDToken   string
}
