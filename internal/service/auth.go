// Package service implements the session gate and the auth flows on top of
// narrow interfaces over the user directory, credential store and mailer.
package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"

	"filehost/internal/domain"
)

// UserDirectory is the slice of the persistent store the auth flows need.
// Lookups return domain.ErrUserNotFound for absent records; any other error
// is treated as a store outage and propagated untouched.
type UserDirectory interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, username, passwordHash, email string) (int64, error)
	EnableTwoFactor(ctx context.Context, id int64, key, code string) error
	SetLastOtp(ctx context.Context, id int64, code string) error
	SetResetCode(ctx context.Context, id int64, code string) error
	SetPasswordHash(ctx context.Context, id int64, hash string) error
}

// CredentialStore verifies and mints secrets. No I/O.
type CredentialStore interface {
	HashPassword(plaintext string) (string, error)
	VerifyPassword(plaintext, encoded string) bool
	VerifyOtp(secret, code string) bool
	GenerateOtpSecret(account string) (secret, uri string, err error)
}

// Mailer delivers outbound mail without blocking the calling request;
// implementations own their own retries and failure logging.
type Mailer interface {
	SendResetCode(recipient, code string)
}

type AuthService struct {
	users  UserDirectory
	creds  CredentialStore
	mailer Mailer
	logger *slog.Logger
}

func NewAuthService(users UserDirectory, creds CredentialStore, mailer Mailer, logger *slog.Logger) *AuthService {
	return &AuthService{users: users, creds: creds, mailer: mailer, logger: logger}
}

// LoginResult tells the handler where a successful login lands.
type LoginResult int

const (
	// LoginOK means the session is fully authenticated; go home.
	LoginOK LoginResult = iota
	// LoginNeedsTwoFactorSetup means the user has no TOTP secret yet; the
	// session carries their id but is not two-factor verified, and the next
	// stop is enrollment.
	LoginNeedsTwoFactorSetup
)

// Login runs the password + TOTP login flow. The session is only mutated
// once every check has passed; a rejected attempt leaves it untouched.
//
// Users who never completed enrollment (empty OtpKey) and submitted no code
// are sent to enrollment before their password is checked. That ordering is
// deliberate and limited to accounts that have never finished setup.
func (s *AuthService) Login(ctx context.Context, sess *domain.Session, email, password, otpCode string) (LoginResult, error) {
	if email == "" || password == "" {
		return 0, domain.ErrMissingField
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return 0, domain.ErrInvalidEmail
	}
	if err != nil {
		return 0, err
	}

	if !user.TwoFactorEnabled() && otpCode == "" {
		sess.SetUser(user.ID)
		sess.TwoFactorVerified = nil
		s.logger.Info("login deferred to two-factor enrollment", "user_id", user.ID)
		return LoginNeedsTwoFactorSetup, nil
	}

	if !s.creds.VerifyPassword(password, user.PasswordHash) {
		return 0, domain.ErrInvalidPassword
	}
	if user.Banned() {
		return 0, domain.ErrBanned
	}

	// Replay guard: a code equal to the last consumed one never validates,
	// even inside the current time step.
	if otpCode == user.LastOtp || !s.creds.VerifyOtp(user.OtpKey, otpCode) {
		return 0, domain.ErrInvalid2FA
	}
	if err := s.users.SetLastOtp(ctx, user.ID, otpCode); err != nil {
		return 0, err
	}

	sess.SetUser(user.ID)
	sess.SetTwoFactorVerified(true)
	s.logger.Info("login succeeded", "user_id", user.ID)
	return LoginOK, nil
}

// Register creates an account and attaches it to the session, which is left
// not yet two-factor verified; the gate routes the next request to
// enrollment.
func (s *AuthService) Register(ctx context.Context, sess *domain.Session, email, password, confirm, username string) error {
	if email == "" || password == "" || confirm == "" || username == "" {
		return domain.ErrMissingField
	}
	if password != confirm {
		return domain.ErrPasswordMismatch
	}

	// The plaintext is dropped as soon as the hash exists; it is never
	// logged or persisted.
	hash, err := s.creds.HashPassword(password)
	if err != nil {
		return err
	}

	id, err := s.users.Create(ctx, username, hash, email)
	if err != nil {
		return err
	}

	sess.SetUser(id)
	sess.TwoFactorVerified = nil
	s.logger.Info("user registered", "user_id", id)
	return nil
}

// BeginTwoFactorEnrollment mints a fresh secret, parks it on the session as
// the pending key and returns the provisioning URI. Nothing is persisted to
// the user record until the POST confirms a working code.
func (s *AuthService) BeginTwoFactorEnrollment(ctx context.Context, sess *domain.Session) (uri string, err error) {
	if !sess.CanAddTwoFactor() {
		return "", domain.ErrInvalidSession
	}
	user, err := s.users.GetByID(ctx, *sess.UserID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return "", domain.ErrInvalidSession
	}
	if err != nil {
		return "", err
	}
	secret, uri, err := s.creds.GenerateOtpSecret(user.Email)
	if err != nil {
		return "", err
	}
	sess.PendingOtpKey = secret
	return uri, nil
}

// ConfirmTwoFactorEnrollment verifies the submitted code against the pending
// secret. On success the secret becomes the user's permanent OTP key, the
// code is recorded as consumed and the session is marked verified. On a bad
// code the pending key stays on the session for another attempt.
func (s *AuthService) ConfirmTwoFactorEnrollment(ctx context.Context, sess *domain.Session, code string) error {
	if !sess.CanAddTwoFactor() || sess.PendingOtpKey == "" {
		return domain.ErrInvalidSession
	}
	if code == "" {
		return domain.ErrMissingField
	}
	if !s.creds.VerifyOtp(sess.PendingOtpKey, code) {
		return domain.ErrInvalid2FA
	}
	if err := s.users.EnableTwoFactor(ctx, *sess.UserID, sess.PendingOtpKey, code); err != nil {
		return err
	}
	sess.PendingOtpKey = ""
	sess.SetTwoFactorVerified(true)
	s.logger.Info("two-factor enrollment completed", "user_id", *sess.UserID)
	return nil
}

// RequestPasswordReset stores a fresh reset code on the account and mails it
// out. Delivery happens off the request path; a failure is logged by the
// mailer, never shown to the requester, so the response does not reveal
// whether the address exists beyond the form validation itself.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	if email == "" {
		return domain.ErrMissingField
	}
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.ErrInvalidEmail
	}
	if err != nil {
		return err
	}

	code, err := newResetCode()
	if err != nil {
		return err
	}
	if err := s.users.SetResetCode(ctx, user.ID, code); err != nil {
		return err
	}
	s.mailer.SendResetCode(user.Email, code)
	s.logger.Info("password reset requested", "user_id", user.ID)
	return nil
}

// ConfirmPasswordReset consumes an emailed reset code and installs the new
// password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, email, code, password, confirm string) error {
	if email == "" || code == "" || password == "" || confirm == "" {
		return domain.ErrMissingField
	}
	if password != confirm {
		return domain.ErrPasswordMismatch
	}
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.ErrInvalidEmail
	}
	if err != nil {
		return err
	}
	if user.ResetCode == "" || code != user.ResetCode {
		return domain.ErrInvalid2FA
	}

	hash, err := s.creds.HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.users.SetPasswordHash(ctx, user.ID, hash); err != nil {
		return err
	}
	if err := s.users.SetResetCode(ctx, user.ID, ""); err != nil {
		return err
	}
	s.logger.Info("password reset completed", "user_id", user.ID)
	return nil
}

func newResetCode() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
