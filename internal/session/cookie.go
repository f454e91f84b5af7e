package session

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const CookieName = "filehost_session"

// Codec signs and verifies the session cookie. The cookie value is an HS256
// token whose only payload is the session id; everything else stays
// server-side.
type Codec struct {
	secret []byte
	secure bool
	maxAge time.Duration
}

func NewCodec(secret []byte, secure bool, maxAge time.Duration) *Codec {
	return &Codec{secret: secret, secure: secure, maxAge: maxAge}
}

func (c *Codec) Cookie(sid string) (*http.Cookie, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sid,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.maxAge)),
	})
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(c.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// ExpiredCookie returns a cookie that instructs the browser to drop the
// session cookie immediately.
func (c *Codec) ExpiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// SessionID extracts and verifies the session id from the request cookie.
// Absent, expired or tampered cookies yield ok=false; the caller starts a
// fresh anonymous session in that case.
func (c *Codec) SessionID(r *http.Request) (sid string, ok bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	token, err := jwt.ParseWithClaims(cookie.Value, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, isHMAC := t.Method.(*jwt.SigningMethodHMAC); !isHMAC {
			return nil, fmt.Errorf("unexpected signing method: %T", t.Method)
		}
		return c.secret, nil
	})
	if err != nil || !token.Valid {
		return "", false
	}
	claims, _ := token.Claims.(*jwt.RegisteredClaims)
	if claims == nil || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}
