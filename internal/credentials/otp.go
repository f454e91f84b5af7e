// Package credentials owns password hashing/verification and TOTP secret
// handling. It performs no I/O; everything here is a pure function of its
// inputs plus the clock.
package credentials

import (
	"errors"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

var ErrEmptyPassword = errors.New("empty password")

// Store implements credential verification for the auth flows. Issuer is the
// label shown by authenticator apps for provisioned secrets.
type Store struct {
	Issuer string
}

func NewStore(issuer string) Store { return Store{Issuer: issuer} }

// totpOpts tolerates one step of clock drift in either direction.
var totpOpts = totp.ValidateOpts{
	Period:    30,
	Skew:      1,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// VerifyOtp checks a submitted six-digit code against the shared secret at
// the current time.
func (Store) VerifyOtp(secret, code string) bool {
	if secret == "" || code == "" {
		return false
	}
	ok, err := totp.ValidateCustom(code, secret, time.Now().UTC(), totpOpts)
	return err == nil && ok
}

// GenerateOtpSecret mints a fresh random base32 secret for enrollment and
// returns it with the otpauth:// provisioning URI bound to account.
func (s Store) GenerateOtpSecret(account string) (secret, uri string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: account,
	})
	if err != nil {
		return "", "", err
	}
	return key.Secret(), key.URL(), nil
}
