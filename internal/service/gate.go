package service

import (
	"strings"

	"filehost/internal/domain"
)

// GateState is the session-validity state computed before any route handler
// runs.
type GateState int

const (
	GateAnonymous GateState = iota
	GateInvalid
	GateBanned
	GateAwaiting2FA
	GateAuthenticated
)

func (s GateState) String() string {
	switch s {
	case GateAnonymous:
		return "anonymous"
	case GateInvalid:
		return "invalid"
	case GateBanned:
		return "banned"
	case GateAwaiting2FA:
		return "awaiting_2fa"
	case GateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Routing targets the gate may redirect to.
const (
	LoginPath  = "/auth/login"
	EnrollPath = "/auth/2fa/add"
	LogoutPath = "/auth/logout"
	HomePath   = "/"
)

// GateDecision is what the middleware applies after evaluation. Redirect
// empty means the request proceeds to its route handler. ClearSession and
// ForceTwoFactorUnverified are session mutations the caller must persist
// before acting on Redirect.
type GateDecision struct {
	State                    GateState
	ClearSession             bool
	ForceTwoFactorUnverified bool
	Redirect                 string
}

// EvaluateGate computes the session-validity state for one request. It is a
// pure function of the session bag, the user looked up for the session's id
// (nil when the directory has no such record), and the request path.
//
// The rules, in evaluation order:
//
//  1. No user id on the session: anonymous, proceed. Route handlers decide
//     what anonymous visitors may do.
//  2. An id whose user no longer exists: the session is stale. Clear it and
//     proceed as anonymous for this request; no redirect is forced here.
//  3. A banned user: clear the session and redirect to logout with the
//     reason attached.
//  4. The two-factor-verified flag was never set on this session: force it
//     to false and redirect to enrollment. Every freshly authenticated
//     session passes through (or past) enrollment exactly once.
//  5. The user never configured two-factor: keep the flag forced false and
//     redirect to enrollment, unless the request already targets the
//     enrollment endpoint. That carve-out is what breaks the redirect loop.
//  6. Otherwise the session is fully authenticated.
//
// Two-factor enrollment is mandatory once a password-authenticated session
// exists; the gate enforces that globally so no individual handler can skip
// it.
func EvaluateGate(sess *domain.Session, user *domain.User, path string) GateDecision {
	if sess == nil || sess.UserID == nil {
		return GateDecision{State: GateAnonymous}
	}
	if user == nil {
		return GateDecision{State: GateInvalid, ClearSession: true}
	}
	if user.Banned() {
		return GateDecision{
			State:        GateBanned,
			ClearSession: true,
			Redirect:     LogoutPath + "?reason=Banned",
		}
	}
	if sess.TwoFactorVerified == nil {
		return GateDecision{
			State:                    GateAwaiting2FA,
			ForceTwoFactorUnverified: true,
			Redirect:                 EnrollPath,
		}
	}
	if !user.TwoFactorEnabled() {
		d := GateDecision{State: GateAwaiting2FA, ForceTwoFactorUnverified: true}
		if !isEnrollPath(path) {
			d.Redirect = EnrollPath
		}
		return d
	}
	return GateDecision{State: GateAuthenticated}
}

func isEnrollPath(path string) bool {
	return strings.TrimSuffix(path, "/") == EnrollPath
}
