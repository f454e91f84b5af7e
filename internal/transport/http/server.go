// Package http is the HTTP transport: route registration, form decoding,
// HTML rendering and the session gate middleware that runs before every
// routed request.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"filehost/internal/domain"
	"filehost/internal/observability/metrics"
	"filehost/internal/service"
	"filehost/internal/session"
)

type Server struct {
	logger   *slog.Logger
	sessions *session.Manager
	users    service.UserDirectory
	auth     *service.AuthService
	files    *service.FileService
	render   *Renderer
}

func NewServer(logger *slog.Logger, sessions *session.Manager, users service.UserDirectory, auth *service.AuthService, files *service.FileService, render *Renderer) *Server {
	return &Server{
		logger:   logger,
		sessions: sessions,
		users:    users,
		auth:     auth,
		files:    files,
		render:   render,
	}
}

// requestState is what the gate hands to route handlers: the session, its
// id for later saves, the looked-up user (nil when anonymous) and the
// computed gate state.
type requestState struct {
	SID     string
	Session *domain.Session
	User    *domain.User
	State   service.GateState
}

type ctxKey struct{}

func withRequestState(ctx context.Context, st *requestState) context.Context {
	return context.WithValue(ctx, ctxKey{}, st)
}

func stateFrom(ctx context.Context) *requestState {
	st, _ := ctx.Value(ctxKey{}).(*requestState)
	return st
}

// gate evaluates the session-validity state machine before any route
// handler runs. Static assets and the operational endpoints are mounted
// outside this middleware and are never evaluated.
//
// A store failure here is answered with a 500. Treating it as "anonymous"
// would turn an outage into an authentication decision.
func (s *Server) gate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		sid, sess, err := s.sessions.Load(ctx, r)
		if err != nil {
			s.serverError(w, r, err)
			return
		}

		var user *domain.User
		if sess.UserID != nil {
			user, err = s.users.GetByID(ctx, *sess.UserID)
			if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
				s.serverError(w, r, err)
				return
			}
		}

		d := service.EvaluateGate(sess, user, r.URL.Path)
		metrics.GateDecisionsTotal.WithLabelValues(d.State.String()).Inc()

		if d.ClearSession {
			sess.Clear()
			user = nil
		}
		if d.ForceTwoFactorUnverified {
			sess.SetTwoFactorVerified(false)
		}
		if d.ClearSession || d.ForceTwoFactorUnverified {
			if err := s.sessions.Save(ctx, w, sid, sess); err != nil {
				s.serverError(w, r, err)
				return
			}
		}
		if d.Redirect != "" {
			http.Redirect(w, r, d.Redirect, http.StatusSeeOther)
			return
		}

		st := &requestState{SID: sid, Session: sess, User: user, State: d.State}
		next.ServeHTTP(w, r.WithContext(withRequestState(ctx, st)))
	})
}

func (s *Server) saveSession(w http.ResponseWriter, r *http.Request, st *requestState) bool {
	if err := s.sessions.Save(r.Context(), w, st.SID, st.Session); err != nil {
		s.serverError(w, r, err)
		return false
	}
	return true
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed",
		"error", err,
		"method", r.Method,
		"path", r.URL.Path,
		"remote", r.RemoteAddr,
	)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
