package session

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"filehost/internal/domain"
)

// Manager joins the cookie codec and the redis store into the interface the
// HTTP layer works with.
type Manager struct {
	store *Store
	codec *Codec
}

func NewManager(store *Store, codec *Codec) *Manager {
	return &Manager{store: store, codec: codec}
}

// Load resolves the request's session, minting a fresh anonymous one when
// the cookie is absent or invalid, or when the referenced session has
// expired. A store outage is returned as-is; it must not be mistaken for an
// anonymous visitor.
func (m *Manager) Load(ctx context.Context, r *http.Request) (sid string, sess *domain.Session, err error) {
	if sid, ok := m.codec.SessionID(r); ok {
		sess, err := m.store.Get(ctx, sid)
		if err == nil {
			return sid, sess, nil
		}
		if !errors.Is(err, ErrSessionNotFound) {
			return "", nil, err
		}
	}
	return uuid.NewString(), &domain.Session{}, nil
}

// Save persists the session and refreshes the signed cookie.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, sid string, sess *domain.Session) error {
	if err := m.store.Save(ctx, sid, sess); err != nil {
		return err
	}
	cookie, err := m.codec.Cookie(sid)
	if err != nil {
		return err
	}
	http.SetCookie(w, cookie)
	return nil
}

// Destroy deletes the server-side session and expires the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, sid string) error {
	if err := m.store.Delete(ctx, sid); err != nil {
		return err
	}
	http.SetCookie(w, m.codec.ExpiredCookie())
	return nil
}
