package domain

import "errors"

// Validation errors are recovered inside the flows and re-rendered into the
// submitting form. ErrStoreUnavailable is fatal for the request and must
// never be downgraded to an anonymous or not-found outcome.
var (
	ErrMissingField     = errors.New("missing required field")
	ErrInvalidEmail     = errors.New("invalid email")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrInvalid2FA       = errors.New("invalid two-factor code")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrEmailInUse       = errors.New("email already in use")
	ErrBanned           = errors.New("banned")
	ErrInvalidSession   = errors.New("invalid session data")
	ErrUserNotFound     = errors.New("user not found")
	ErrFileNotFound     = errors.New("file not found")
	ErrStoreUnavailable = errors.New("store unavailable")
)
