package http

import (
	"net/http"
	"strings"

	"filehost/internal/domain"
)

// One typed struct per flow; a required field missing from the submitted
// form maps to domain.ErrMissingField before the flow runs.

type loginForm struct {
	Email    string
	Password string
	Otp      string
}

func parseLoginForm(r *http.Request) (loginForm, error) {
	if err := r.ParseForm(); err != nil {
		return loginForm{}, domain.ErrMissingField
	}
	f := loginForm{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
		Otp:      strings.TrimSpace(r.PostFormValue("otp")),
	}
	if f.Email == "" || f.Password == "" {
		return f, domain.ErrMissingField
	}
	return f, nil
}

type registerForm struct {
	Email    string
	Password string
	Confirm  string
	Username string
}

func parseRegisterForm(r *http.Request) (registerForm, error) {
	if err := r.ParseForm(); err != nil {
		return registerForm{}, domain.ErrMissingField
	}
	f := registerForm{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
		Confirm:  r.PostFormValue("confirm_password"),
		Username: strings.TrimSpace(r.PostFormValue("username")),
	}
	if f.Email == "" || f.Password == "" || f.Confirm == "" || f.Username == "" {
		return f, domain.ErrMissingField
	}
	return f, nil
}

type twoFactorForm struct {
	Otp string
}

func parseTwoFactorForm(r *http.Request) (twoFactorForm, error) {
	if err := r.ParseForm(); err != nil {
		return twoFactorForm{}, domain.ErrMissingField
	}
	f := twoFactorForm{Otp: strings.TrimSpace(r.PostFormValue("otp"))}
	if f.Otp == "" {
		return f, domain.ErrMissingField
	}
	return f, nil
}

type resetForm struct {
	Email string
}

func parseResetForm(r *http.Request) (resetForm, error) {
	if err := r.ParseForm(); err != nil {
		return resetForm{}, domain.ErrMissingField
	}
	f := resetForm{Email: strings.TrimSpace(r.PostFormValue("email"))}
	if f.Email == "" {
		return f, domain.ErrMissingField
	}
	return f, nil
}

type resetConfirmForm struct {
	Email    string
	Code     string
	Password string
	Confirm  string
}

func parseResetConfirmForm(r *http.Request) (resetConfirmForm, error) {
	if err := r.ParseForm(); err != nil {
		return resetConfirmForm{}, domain.ErrMissingField
	}
	f := resetConfirmForm{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Code:     strings.TrimSpace(r.PostFormValue("code")),
		Password: r.PostFormValue("password"),
		Confirm:  r.PostFormValue("confirm_password"),
	}
	if f.Email == "" || f.Code == "" || f.Password == "" || f.Confirm == "" {
		return f, domain.ErrMissingField
	}
	return f, nil
}
