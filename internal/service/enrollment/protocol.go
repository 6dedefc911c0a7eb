package enrollment

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/calfai/herd/internal/domain/faults"
	"github.com/calfai/herd/internal/domain/models"
	"github.com/calfai/herd/pkg/clients/identity"
)

// OTPBackend issues and checks one-time codes. The same endpoint pair serves
// first-time registration and email changes.
type OTPBackend interface {
	RequestOTP(ctx context.Context, email, password string) error
	VerifyOTP(ctx context.Context, email, code string) error
}

// ProfileStore is the mirrored profile document collection.
type ProfileStore interface {
	GetProfile(ctx context.Context, accountID string) (*models.Profile, error)
	MergeProfile(ctx context.Context, accountID string, fields map[string]any) error
}

// SignupForm carries a registration submission.
type SignupForm struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"fullName"`
	FarmName string `json:"farmName"`
	Phone    string `json:"phone"`
}

// UpdateResult tells the caller whether a profile update completed directly
// or is now waiting on an emailed code.
type UpdateResult struct {
	OtpSent bool `json:"otpSent"`
}

// Protocol coordinates the OTP backend and the identity provider into
// single atomic-feeling signup and email-change operations. Steps within a
// flow are strictly sequential, and at most one flow is in flight per user
// session.
type Protocol struct {
	otp      OTPBackend
	provider identity.Provider
	profiles ProfileStore
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*models.EnrollmentSession
}

// NewProtocol wires a protocol instance.
func NewProtocol(otp OTPBackend, provider identity.Provider, profiles ProfileStore, logger *zap.Logger) *Protocol {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Protocol{
		otp:      otp,
		provider: provider,
		profiles: profiles,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*models.EnrollmentSession),
	}
}

// State reports the current enrollment state for a user session, mainly for
// tests and diagnostics. EnrollmentIdle when no flow is in flight.
func (p *Protocol) State(sessionID string) models.EnrollmentState {
	p.mu.Lock()
	defer p.mu.Unlock()
	if sess, ok := p.sessions[sessionID]; ok {
		return sess.State
	}
	return models.EnrollmentIdle
}

// RequestOTP starts a registration flow. No provider account exists yet at
// this point; a failure leaves the session at Idle and the user may simply
// resubmit.
func (p *Protocol) RequestOTP(ctx context.Context, sessionID string, form SignupForm) error {
	if form.Email == "" || form.Password == "" {
		return faults.Validation("Email and password are required.")
	}

	if err := p.otp.RequestOTP(ctx, form.Email, form.Password); err != nil {
		return p.classify(err, faults.KindOtpRequest, "Could not send the verification code.")
	}

	p.setSession(sessionID, &models.EnrollmentSession{
		State:    models.EnrollmentOtpRequested,
		Email:    form.Email,
		Password: form.Password,
		FullName: form.FullName,
		FarmName: form.FarmName,
		Phone:    form.Phone,
	})
	return nil
}

// VerifyAndCommit finishes registration: checks the code, creates (or, when
// the email is already registered, signs into) the provider account, and
// merges the profile document with verified=true. A wrong code leaves the
// session at OtpRequested so the user can retry.
func (p *Protocol) VerifyAndCommit(ctx context.Context, sessionID, code string) (*identity.Account, error) {
	sess := p.session(sessionID)
	if sess == nil || sess.State != models.EnrollmentOtpRequested {
		return nil, faults.Validation("No verification in progress. Request a code first.")
	}
	if code == "" {
		return nil, faults.Validation("Enter the code sent to your email.")
	}

	if err := p.otp.VerifyOTP(ctx, sess.Email, code); err != nil {
		return nil, p.classify(err, faults.KindOtpInvalid, "Use the correct code sent to your email.")
	}

	account, err := p.provider.SignUp(ctx, sess.Email, sess.Password)
	if identity.IsEmailExists(err) {
		// A prior attempt partially completed: the provider account exists
		// but the profile may not. Reconcile by signing in instead.
		p.logger.Info("account already registered, signing in", zap.String("email", sess.Email))
		account, err = p.provider.SignIn(ctx, sess.Email, sess.Password)
	}
	if err != nil {
		return nil, p.classify(err, faults.KindGeneric, "")
	}

	fields := map[string]any{
		"fullName":  sess.FullName,
		"farmName":  sess.FarmName,
		"phone":     sess.Phone,
		"email":     sess.Email,
		"createdAt": p.now(),
		"verified":  true,
	}
	if err := p.profiles.MergeProfile(ctx, account.ID, fields); err != nil {
		// The account is committed; a repeated verify lands in the sign-in
		// branch above and retries this merge.
		return nil, faults.Wrap(faults.KindProfileSync, "Your account was created but the profile could not be saved.", err)
	}

	p.clearSession(sessionID)
	return account, nil
}

// SignIn is the plain login path for already-verified accounts.
func (p *Protocol) SignIn(ctx context.Context, email, password string) (*identity.Account, error) {
	if email == "" || password == "" {
		return nil, faults.Validation("Email and password are required.")
	}

	account, err := p.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, p.classify(err, faults.KindGeneric, "")
	}
	return account, nil
}

// BeginProfileUpdate handles a profile edit for an authenticated account.
// When the display email is unchanged the update applies immediately with no
// OTP. An email delta requires the current password and starts the
// email-change variant of the flow.
func (p *Protocol) BeginProfileUpdate(ctx context.Context, sessionID string, account identity.Account, form models.ProfileForm) (*UpdateResult, error) {
	currentEmail := account.Email
	if profile, err := p.profiles.GetProfile(ctx, account.ID); err == nil && profile != nil && profile.Email != "" {
		currentEmail = profile.Email
	}

	if form.Email == currentEmail {
		fields := map[string]any{
			"fullName": form.FullName,
			"farmName": form.FarmName,
			"phone":    form.Phone,
		}
		if err := p.profiles.MergeProfile(ctx, account.ID, fields); err != nil {
			return nil, faults.Wrap(faults.KindProfileSync, "Failed to update profile.", err)
		}
		return &UpdateResult{OtpSent: false}, nil
	}

	if form.CurrentPassword == "" {
		return nil, faults.Validation("Please enter your current password to change email.")
	}

	// The code goes to the NEW address, via the same endpoint registration
	// uses.
	if err := p.otp.RequestOTP(ctx, form.Email, form.CurrentPassword); err != nil {
		return nil, p.classify(err, faults.KindOtpRequest, "Could not send the verification code.")
	}

	p.setSession(sessionID, &models.EnrollmentSession{
		State:     models.EmailChangeRequested,
		Email:     form.Email,
		Password:  form.CurrentPassword,
		FullName:  form.FullName,
		FarmName:  form.FarmName,
		Phone:     form.Phone,
		AccountID: account.ID,
		OldEmail:  account.Email,
		IDToken:   account.IDToken,
	})
	return &UpdateResult{OtpSent: true}, nil
}

// ConfirmEmailChange finishes the email-change variant: OTP check, fresh
// re-authentication with the OLD email, the provider's
// update-with-verification-link call, then an eager profile merge. The
// provider's authoritative email only changes once the user clicks the link,
// so the mirrored profile legitimately leads it for a while.
func (p *Protocol) ConfirmEmailChange(ctx context.Context, sessionID, code string) error {
	sess := p.session(sessionID)
	if sess == nil || sess.State != models.EmailChangeRequested {
		return faults.Validation("No email change in progress.")
	}

	p.transition(sessionID, models.EmailOtpVerifying)
	if err := p.otp.VerifyOTP(ctx, sess.Email, code); err != nil {
		p.transition(sessionID, models.EmailChangeRequested)
		return p.classify(err, faults.KindOtpInvalid, "Invalid or expired code. Please try again.")
	}

	// Providers demand fresh proof of identity before sensitive changes;
	// sign in again with the old email and the supplied password.
	p.transition(sessionID, models.Reauthenticating)
	fresh, err := p.provider.SignIn(ctx, sess.OldEmail, sess.Password)
	if err != nil {
		p.clearSession(sessionID)
		return p.classify(err, faults.KindReauth, "Invalid password. Please try again.")
	}

	p.transition(sessionID, models.EmailUpdatePending)
	if err := p.provider.SendEmailUpdateLink(ctx, fresh.IDToken, sess.Email); err != nil {
		if !faults.OperationNotAllowed(err) {
			p.clearSession(sessionID)
			return p.classify(err, faults.KindProviderUpdate, "Failed to start the email update.")
		}
		// The provider blocks direct updates for this account type. The
		// display email still updates below; only the authoritative email
		// stays behind.
		p.logger.Warn("email update link not allowed, updating display email only",
			zap.String("account_id", sess.AccountID), zap.Error(err))
	}

	fields := map[string]any{
		"fullName": sess.FullName,
		"farmName": sess.FarmName,
		"phone":    sess.Phone,
		"email":    sess.Email,
	}
	if err := p.profiles.MergeProfile(ctx, sess.AccountID, fields); err != nil {
		p.clearSession(sessionID)
		return faults.Wrap(faults.KindProfileSync, "Failed to update profile.", err)
	}

	p.transition(sessionID, models.ProfileSynced)
	p.clearSession(sessionID)
	return nil
}

// Cancel drops any in-flight flow for the session.
func (p *Protocol) Cancel(sessionID string) {
	p.clearSession(sessionID)
}

// classify runs the raw error through the rule table; anything that stays
// generic gets the step's own kind and message so every failure maps to a
// distinct user-facing error.
func (p *Protocol) classify(err error, fallback faults.Kind, message string) error {
	classified := faults.Classify(err)
	if classified.Kind == faults.KindGeneric && fallback != faults.KindGeneric {
		return faults.Wrap(fallback, message, err)
	}
	return classified
}

func (p *Protocol) session(sessionID string) *models.EnrollmentSession {
	p.mu.Lock()
	defer p.mu.Unlock()
	if sess, ok := p.sessions[sessionID]; ok {
		copied := *sess
		return &copied
	}
	return nil
}

func (p *Protocol) setSession(sessionID string, sess *models.EnrollmentSession) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[sessionID] = sess
}

func (p *Protocol) transition(sessionID string, state models.EnrollmentState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if sess, ok := p.sessions[sessionID]; ok {
		sess.State = state
	}
}

func (p *Protocol) clearSession(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sessions, sessionID)
}
