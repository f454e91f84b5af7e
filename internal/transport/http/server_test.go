package http

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filehost/internal/domain"
	"filehost/internal/observability/metrics"
	"filehost/internal/service"
	"filehost/internal/session"
)

func TestMain(m *testing.M) {
	metrics.MustRegister("test")
	m.Run()
}

// stubUsers is an in-memory service.UserDirectory mirroring the store's
// copy-out semantics: callers never see the stub's own structs.
type stubUsers struct {
	nextID int64
	users  map[int64]*domain.User
}

func newStubUsers() *stubUsers {
	return &stubUsers{nextID: 1, users: make(map[int64]*domain.User)}
}

func (s *stubUsers) add(u domain.User) *domain.User {
	u.ID = s.nextID
	s.nextID++
	s.users[u.ID] = &u
	return &u
}

func (s *stubUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *stubUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *stubUsers) Exists(_ context.Context, id int64) (bool, error) {
	_, ok := s.users[id]
	return ok, nil
}

func (s *stubUsers) Create(_ context.Context, username, passwordHash, email string) (int64, error) {
	for _, u := range s.users {
		if u.Email == email {
			return 0, domain.ErrEmailInUse
		}
	}
	u := s.add(domain.User{Username: username, PasswordHash: passwordHash, Email: email})
	return u.ID, nil
}

func (s *stubUsers) set(id int64, fn func(*domain.User)) error {
	u, ok := s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	fn(u)
	return nil
}

func (s *stubUsers) EnableTwoFactor(_ context.Context, id int64, key, code string) error {
	return s.set(id, func(u *domain.User) {
		u.OtpKey = key
		u.LastOtp = code
	})
}

func (s *stubUsers) SetLastOtp(_ context.Context, id int64, code string) error {
	return s.set(id, func(u *domain.User) { u.LastOtp = code })
}

func (s *stubUsers) SetResetCode(_ context.Context, id int64, code string) error {
	return s.set(id, func(u *domain.User) { u.ResetCode = code })
}

func (s *stubUsers) SetPasswordHash(_ context.Context, id int64, hash string) error {
	return s.set(id, func(u *domain.User) { u.PasswordHash = hash })
}

const (
	stubOtpCode = "424242"
	stubSecret  = "STUBSECRET"
)

// stubCreds hashes by prefixing and accepts a single fixed OTP code.
type stubCreds struct{}

func (stubCreds) HashPassword(plaintext string) (string, error) { return "hashed:" + plaintext, nil }
func (stubCreds) VerifyPassword(plaintext, encoded string) bool {
	return encoded == "hashed:"+plaintext
}
func (stubCreds) VerifyOtp(secret, code string) bool {
	return secret != "" && code == stubOtpCode
}
func (stubCreds) GenerateOtpSecret(account string) (string, string, error) {
	return stubSecret, "otpauth://totp/filehost:" + account, nil
}

type stubMailer struct{ sent []string }

func (m *stubMailer) SendResetCode(recipient, code string) {
	m.sent = append(m.sent, recipient+":"+code)
}

type harness struct {
	router http.Handler
	users  *stubUsers
	files  *stubFiles
	mailer *stubMailer
	store  *session.Store
	codec  *session.Codec
}

type stubFiles struct {
	nextID int64
	byTok  map[string]*domain.File
}

func newStubFiles() *stubFiles {
	return &stubFiles{nextID: 1, byTok: make(map[string]*domain.File)}
}

func (s *stubFiles) Create(_ context.Context, file *domain.File) error {
	file.ID = s.nextID
	s.nextID++
	s.byTok[file.Token] = file
	return nil
}

func (s *stubFiles) GetByToken(_ context.Context, token string) (*domain.File, error) {
	f, ok := s.byTok[token]
	if !ok {
		return nil, domain.ErrFileNotFound
	}
	return f, nil
}

func (s *stubFiles) GetByAuthor(_ context.Context, authorID int64) ([]domain.File, error) {
	var out []domain.File
	for _, f := range s.byTok {
		if f.AuthorID == authorID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	store := session.NewStore(rdb, time.Hour)
	codec := session.NewCodec([]byte("test-secret"), false, time.Hour)
	sessions := session.NewManager(store, codec)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := newStubUsers()
	files := newStubFiles()
	mailer := &stubMailer{}

	auth := service.NewAuthService(users, stubCreds{}, mailer, logger)
	fileSvc := service.NewFileService(files, users)

	render, err := NewRenderer()
	require.NoError(t, err)

	srv := NewServer(logger, sessions, users, auth, fileSvc, render)
	return &harness{
		router: srv.Router(),
		users:  users,
		files:  files,
		mailer: mailer,
		store:  store,
		codec:  codec,
	}
}

// seedSession plants a session in redis and returns the signed cookie a
// browser holding it would send.
func (h *harness) seedSession(t *testing.T, sid string, sess *domain.Session) *http.Cookie {
	t.Helper()
	require.NoError(t, h.store.Save(context.Background(), sid, sess))
	cookie, err := h.codec.Cookie(sid)
	require.NoError(t, err)
	return cookie
}

func (h *harness) do(r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, r)
	return w
}

func (h *harness) get(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	r := httptest.NewRequest("GET", path, nil)
	if cookie != nil {
		r.AddCookie(cookie)
	}
	return h.do(r)
}

func (h *harness) postForm(path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	r := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		r.AddCookie(cookie)
	}
	return h.do(r)
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)

	w := h.get("/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestIndexAnonymous(t *testing.T) {
	h := newHarness(t)

	w := h.get("/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGateBannedUser(t *testing.T) {
	h := newHarness(t)
	u := h.users.add(domain.User{Email: "b@example.com", AccessLevel: domain.AccessBanned, OtpKey: "K"})
	verified := true
	cookie := h.seedSession(t, "sid-banned", &domain.Session{UserID: &u.ID, TwoFactorVerified: &verified})

	w := h.get("/", cookie)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/auth/logout?reason=Banned", w.Header().Get("Location"))

	// The session was emptied before the redirect was issued.
	sess, err := h.store.Get(context.Background(), "sid-banned")
	require.NoError(t, err)
	assert.Nil(t, sess.UserID)
}

func TestGateStaleSession(t *testing.T) {
	h := newHarness(t)
	missing := int64(99)
	cookie := h.seedSession(t, "sid-stale", &domain.Session{UserID: &missing})

	// The request proceeds as anonymous rather than erroring.
	w := h.get("/", cookie)
	assert.Equal(t, http.StatusOK, w.Code)

	sess, err := h.store.Get(context.Background(), "sid-stale")
	require.NoError(t, err)
	assert.Nil(t, sess.UserID)
}

func TestGateForcesEnrollmentWhenFlagUnset(t *testing.T) {
	h := newHarness(t)
	u := h.users.add(domain.User{Email: "a@example.com", OtpKey: "K"})
	cookie := h.seedSession(t, "sid-unset", &domain.Session{UserID: &u.ID})

	w := h.get("/", cookie)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, service.EnrollPath, w.Header().Get("Location"))

	// The flag is pinned to false so the next evaluation takes the
	// enrollment-path carve-out instead of redirecting again.
	sess, err := h.store.Get(context.Background(), "sid-unset")
	require.NoError(t, err)
	require.NotNil(t, sess.TwoFactorVerified)
	assert.False(t, *sess.TwoFactorVerified)
}

func TestGateUnenrolledUser(t *testing.T) {
	h := newHarness(t)
	u := h.users.add(domain.User{Email: "a@example.com"})
	verified := false

	t.Run("redirected away from other routes", func(t *testing.T) {
		cookie := h.seedSession(t, "sid-1", &domain.Session{UserID: &u.ID, TwoFactorVerified: &verified})
		w := h.get("/files/upload", cookie)
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, service.EnrollPath, w.Header().Get("Location"))
	})

	t.Run("enrollment page itself is reachable", func(t *testing.T) {
		cookie := h.seedSession(t, "sid-2", &domain.Session{UserID: &u.ID, TwoFactorVerified: &verified})
		w := h.get(service.EnrollPath, cookie)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), stubSecret)
	})
}

func TestLogin(t *testing.T) {
	newUser := func(h *harness) *domain.User {
		return h.users.add(domain.User{
			Email:        "a@example.com",
			Username:     "alice",
			PasswordHash: "hashed:pw123",
			OtpKey:       "K",
		})
	}
	form := func(email, password, otp string) url.Values {
		return url.Values{"email": {email}, "password": {password}, "otp": {otp}}
	}

	t.Run("success authenticates the session", func(t *testing.T) {
		h := newHarness(t)
		u := newUser(h)

		w := h.postForm("/auth/login", form(u.Email, "pw123", stubOtpCode), nil)
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, service.HomePath, w.Header().Get("Location"))

		cookies := w.Result().Cookies()
		require.NotEmpty(t, cookies)
		r := httptest.NewRequest("GET", "/", nil)
		r.AddCookie(cookies[0])
		sid, ok := h.codec.SessionID(r)
		require.True(t, ok)

		sess, err := h.store.Get(context.Background(), sid)
		require.NoError(t, err)
		require.NotNil(t, sess.UserID)
		assert.Equal(t, u.ID, *sess.UserID)
		require.NotNil(t, sess.TwoFactorVerified)
		assert.True(t, *sess.TwoFactorVerified)
	})

	t.Run("replayed code is rejected", func(t *testing.T) {
		h := newHarness(t)
		u := newUser(h)

		w := h.postForm("/auth/login", form(u.Email, "pw123", stubOtpCode), nil)
		require.Equal(t, http.StatusSeeOther, w.Code)

		w = h.postForm("/auth/login", form(u.Email, "pw123", stubOtpCode), nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid two-factor code.")
	})

	t.Run("wrong password re-renders the form", func(t *testing.T) {
		h := newHarness(t)
		u := newUser(h)

		w := h.postForm("/auth/login", form(u.Email, "nope", stubOtpCode), nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Incorrect password.")
	})

	t.Run("unenrolled user lands on enrollment before the password check", func(t *testing.T) {
		h := newHarness(t)
		u := h.users.add(domain.User{Email: "new@example.com", PasswordHash: "hashed:pw123"})

		w := h.postForm("/auth/login", form(u.Email, "anything", ""), nil)
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, service.EnrollPath, w.Header().Get("Location"))
	})
}

func TestRegisterRedirectsToEnrollment(t *testing.T) {
	h := newHarness(t)

	w := h.postForm("/auth/register", url.Values{
		"email":            {"new@example.com"},
		"username":         {"newbie"},
		"password":         {"pw123"},
		"confirm_password": {"pw123"},
	}, nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, service.EnrollPath, w.Header().Get("Location"))

	_, err := h.users.GetByEmail(context.Background(), "new@example.com")
	assert.NoError(t, err)
}

func TestPasswordResetRequest(t *testing.T) {
	h := newHarness(t)
	h.users.add(domain.User{Email: "a@example.com", OtpKey: "K"})

	w := h.postForm("/auth/password/reset", url.Values{"email": {"a@example.com"}}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, h.mailer.sent, 1)
	assert.True(t, strings.HasPrefix(h.mailer.sent[0], "a@example.com:"))
}

func TestUploadRequiresLogin(t *testing.T) {
	h := newHarness(t)

	w := h.get("/files/upload", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, service.LoginPath, w.Header().Get("Location"))
}

func TestUploadAndFetch(t *testing.T) {
	h := newHarness(t)
	u := h.users.add(domain.User{Email: "a@example.com", OtpKey: "K"})
	verified := true
	cookie := h.seedSession(t, "sid-up", &domain.Session{UserID: &u.ID, TwoFactorVerified: &verified})

	upload := func(t *testing.T, public bool) string {
		t.Helper()
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", "notes.txt")
		require.NoError(t, err)
		_, err = part.Write([]byte("file body"))
		require.NoError(t, err)
		if public {
			require.NoError(t, mw.WriteField("public", "on"))
		}
		require.NoError(t, mw.Close())

		r := httptest.NewRequest("POST", "/files/upload", &buf)
		r.Header.Set("Content-Type", mw.FormDataContentType())
		r.AddCookie(cookie)
		w := h.do(r)
		require.Equal(t, http.StatusSeeOther, w.Code)

		loc := w.Header().Get("Location")
		require.True(t, strings.HasPrefix(loc, "/files/"))
		return loc
	}

	t.Run("public file served to anyone", func(t *testing.T) {
		loc := upload(t, true)
		w := h.get(loc, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "file body", w.Body.String())
		assert.Contains(t, w.Header().Get("Content-Disposition"), "notes.txt")
	})

	t.Run("private file hidden from strangers", func(t *testing.T) {
		loc := upload(t, false)

		w := h.get(loc, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = h.get(loc, cookie)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "file body", w.Body.String())
	})

	t.Run("unknown token", func(t *testing.T) {
		w := h.get("/files/no-such-token", cookie)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	u := h.users.add(domain.User{Email: "a@example.com", OtpKey: "K"})
	verified := true
	cookie := h.seedSession(t, "sid-out", &domain.Session{UserID: &u.ID, TwoFactorVerified: &verified})

	w := h.get("/auth/logout?reason=Banned", cookie)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Banned")

	_, err := h.store.Get(context.Background(), "sid-out")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}
