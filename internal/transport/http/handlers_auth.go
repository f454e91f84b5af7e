package http

import (
	"errors"
	"net/http"

	"filehost/internal/domain"
	"filehost/internal/observability/metrics"
	"filehost/internal/service"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r.Context())
	data := map[string]any{}
	if st.User != nil && st.State == service.GateAuthenticated {
		data["Username"] = st.User.Username
	}
	s.render.Render(w, http.StatusOK, "index.html", data)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if s.redirectHomeIfAuthenticated(w, r) {
		return
	}
	s.render.Render(w, http.StatusOK, "login.html", map[string]any{})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.redirectHomeIfAuthenticated(w, r) {
		return
	}
	st := stateFrom(r.Context())

	f, err := parseLoginForm(r)
	if err != nil {
		s.renderLoginError(w, f, err)
		return
	}

	result, err := s.auth.Login(r.Context(), st.Session, f.Email, f.Password, f.Otp)
	if errors.Is(err, domain.ErrStoreUnavailable) {
		s.serverError(w, r, err)
		return
	}
	if err != nil {
		metrics.AuthLoginsTotal.WithLabelValues("failure").Inc()
		s.renderLoginError(w, f, err)
		return
	}
	if !s.saveSession(w, r, st) {
		return
	}
	metrics.AuthLoginsTotal.WithLabelValues("success").Inc()

	switch result {
	case service.LoginNeedsTwoFactorSetup:
		http.Redirect(w, r, service.EnrollPath, http.StatusSeeOther)
	default:
		http.Redirect(w, r, service.HomePath, http.StatusSeeOther)
	}
}

func (s *Server) renderLoginError(w http.ResponseWriter, f loginForm, err error) {
	s.render.Render(w, http.StatusOK, "login.html", map[string]any{
		"Error": errorMessage(err),
		"Email": f.Email,
	})
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	if s.redirectHomeIfAuthenticated(w, r) {
		return
	}
	s.render.Render(w, http.StatusOK, "register.html", map[string]any{})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if s.redirectHomeIfAuthenticated(w, r) {
		return
	}
	st := stateFrom(r.Context())

	f, err := parseRegisterForm(r)
	if err == nil {
		err = s.auth.Register(r.Context(), st.Session, f.Email, f.Password, f.Confirm, f.Username)
	}
	if errors.Is(err, domain.ErrStoreUnavailable) {
		s.serverError(w, r, err)
		return
	}
	if err != nil {
		metrics.AuthRegistrationsTotal.WithLabelValues("failure").Inc()
		s.render.Render(w, http.StatusOK, "register.html", map[string]any{
			"Error":    errorMessage(err),
			"Email":    f.Email,
			"Username": f.Username,
		})
		return
	}
	if !s.saveSession(w, r, st) {
		return
	}
	metrics.AuthRegistrationsTotal.WithLabelValues("success").Inc()
	http.Redirect(w, r, service.EnrollPath, http.StatusSeeOther)
}

func (s *Server) handleEnrollPage(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r.Context())
	if !st.Session.CanAddTwoFactor() {
		http.Redirect(w, r, service.LoginPath, http.StatusSeeOther)
		return
	}

	uri, err := s.auth.BeginTwoFactorEnrollment(r.Context(), st.Session)
	if errors.Is(err, domain.ErrInvalidSession) {
		http.Redirect(w, r, service.LoginPath, http.StatusSeeOther)
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if !s.saveSession(w, r, st) {
		return
	}
	s.render.Render(w, http.StatusOK, "twofactor.html", map[string]any{
		"URI":    uri,
		"Secret": st.Session.PendingOtpKey,
	})
}

func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r.Context())
	if !st.Session.CanAddTwoFactor() {
		http.Redirect(w, r, service.LoginPath, http.StatusSeeOther)
		return
	}

	f, err := parseTwoFactorForm(r)
	if err == nil {
		err = s.auth.ConfirmTwoFactorEnrollment(r.Context(), st.Session, f.Otp)
	}
	if errors.Is(err, domain.ErrStoreUnavailable) {
		s.serverError(w, r, err)
		return
	}
	if errors.Is(err, domain.ErrInvalidSession) {
		http.Redirect(w, r, service.LoginPath, http.StatusSeeOther)
		return
	}
	if err != nil {
		// The pending secret stays on the session for another attempt.
		metrics.TwoFactorEnrollmentsTotal.WithLabelValues("failure").Inc()
		s.render.Render(w, http.StatusOK, "twofactor.html", map[string]any{
			"Error":  errorMessage(err),
			"Secret": st.Session.PendingOtpKey,
		})
		return
	}
	if !s.saveSession(w, r, st) {
		return
	}
	metrics.TwoFactorEnrollmentsTotal.WithLabelValues("success").Inc()
	http.Redirect(w, r, service.HomePath, http.StatusSeeOther)
}

func (s *Server) handleResetPage(w http.ResponseWriter, r *http.Request) {
	s.render.Render(w, http.StatusOK, "reset.html", map[string]any{})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	f, err := parseResetForm(r)
	if err == nil {
		err = s.auth.RequestPasswordReset(r.Context(), f.Email)
	}
	if errors.Is(err, domain.ErrStoreUnavailable) {
		s.serverError(w, r, err)
		return
	}
	if err != nil {
		s.render.Render(w, http.StatusOK, "reset.html", map[string]any{
			"Error": errorMessage(err),
			"Email": f.Email,
		})
		return
	}
	s.render.Render(w, http.StatusOK, "reset.html", map[string]any{"Sent": true})
}

func (s *Server) handleResetConfirmPage(w http.ResponseWriter, r *http.Request) {
	s.render.Render(w, http.StatusOK, "reset_confirm.html", map[string]any{})
}

func (s *Server) handleResetConfirm(w http.ResponseWriter, r *http.Request) {
	f, err := parseResetConfirmForm(r)
	if err == nil {
		err = s.auth.ConfirmPasswordReset(r.Context(), f.Email, f.Code, f.Password, f.Confirm)
	}
	if errors.Is(err, domain.ErrStoreUnavailable) {
		s.serverError(w, r, err)
		return
	}
	if err != nil {
		s.render.Render(w, http.StatusOK, "reset_confirm.html", map[string]any{
			"Error": errorMessage(err),
			"Email": f.Email,
		})
		return
	}
	s.render.Render(w, http.StatusOK, "reset_confirm.html", map[string]any{"Done": true})
}

// handleLogout unconditionally destroys the session. A reason supplied by
// the caller (for example "Banned" from the gate) is shown on the
// confirmation page.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r.Context())
	if err := s.sessions.Destroy(r.Context(), w, st.SID); err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render.Render(w, http.StatusOK, "logout.html", map[string]any{
		"Reason": r.URL.Query().Get("reason"),
	})
}

func (s *Server) redirectHomeIfAuthenticated(w http.ResponseWriter, r *http.Request) bool {
	st := stateFrom(r.Context())
	if st.User != nil && st.State == service.GateAuthenticated {
		http.Redirect(w, r, service.HomePath, http.StatusSeeOther)
		return true
	}
	return false
}
