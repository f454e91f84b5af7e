package domain

// Session is the per-client state bag. It lives server-side and is reached
// through a signed cookie carrying an opaque session id; the client never
// sees its contents.
//
// TwoFactorVerified is tri-state: nil means the flag was never set on this
// session, which the gate treats differently from an explicit false.
// PendingOtpKey is only populated between the enrollment GET (issue) and
// POST (confirm) steps, and only while UserID is set and the session is not
// yet two-factor verified.
type Session struct {
	UserID            *int64 `json:"userId,omitempty"`
	TwoFactorVerified *bool  `json:"twoFactorVerified,omitempty"`
	PendingOtpKey     string `json:"pendingOtpKey,omitempty"`
}

// Clear resets the session to its anonymous state.
func (s *Session) Clear() {
	s.UserID = nil
	s.TwoFactorVerified = nil
	s.PendingOtpKey = ""
}

func (s *Session) SetUser(id int64) {
	s.UserID = &id
}

func (s *Session) SetTwoFactorVerified(v bool) {
	s.TwoFactorVerified = &v
}

// CanAddTwoFactor reports whether the session is allowed to run the
// enrollment flow: a user is attached and the session has not already passed
// two-factor verification.
func (s *Session) CanAddTwoFactor() bool {
	return s.UserID != nil && (s.TwoFactorVerified == nil || !*s.TwoFactorVerified)
}
