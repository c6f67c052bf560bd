package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aashish4533/bloombook/internal/api/middlewares"
	"github.com/aashish4533/bloombook/internal/auth"
	jwtutil "github.com/aashish4533/bloombook/internal/security/jwt"
	"github.com/aashish4533/bloombook/internal/security/password"
)

type memUsers struct {
	mu   sync.Mutex
	byID map[string]auth.User
	seq  int
}

func newMemUsers() *memUsers { return &memUsers{byID: map[string]auth.User{}} }

func (m *memUsers) CreateUser(_ context.Context, email, username, hash string) (auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return auth.User{}, auth.ErrEmailTaken
		}
	}
	m.seq++
	u := auth.User{ID: fmt.Sprintf("u-%d", m.seq), Email: email, Username: username, PasswordHash: hash, TokenVersion: 1, Status: "active", CreatedAt: time.Now()}
	m.byID[u.ID] = u
	return u, nil
}

func (m *memUsers) FindUserByEmail(_ context.Context, email string) (auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return auth.User{}, auth.ErrUserNotFound
}

func (m *memUsers) FindUserByID(_ context.Context, id string) (auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return auth.User{}, auth.ErrUserNotFound
	}
	return u, nil
}

func (m *memUsers) UpdateUserPasswordHash(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.byID[id]
	u.PasswordHash = hash
	m.byID[id] = u
	return nil
}

func (m *memUsers) BumpTokenVersion(_ context.Context, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return 0, auth.ErrUserNotFound
	}
	u.TokenVersion++
	m.byID[id] = u
	return u.TokenVersion, nil
}

func (m *memUsers) TokenVersion(ctx context.Context, id string) (int, error) {
	u, err := m.FindUserByID(ctx, id)
	return u.TokenVersion, err
}

type memSessions struct {
	mu   sync.Mutex
	toks map[string][2]any
	seq  int
}

func (s *memSessions) Issue(_ context.Context, userID string, tv int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := fmt.Sprintf("rt-%d", s.seq)
	s.toks[t] = [2]any{userID, tv}
	return t, nil
}

func (s *memSessions) Lookup(_ context.Context, tok string) (string, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.toks[tok]
	if !ok {
		return "", 0, auth.ErrInvalidRefresh
	}
	return v[0].(string), v[1].(int), nil
}

func (s *memSessions) Revoke(_ context.Context, tok string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.toks, tok)
	return nil
}

func setup(t *testing.T) (*auth.Handler, *memSessions) {
	t.Helper()
	h, sess, _ := setupWithUsers(t)
	return h, sess
}

func setupWithUsers(t *testing.T) (*auth.Handler, *memSessions, *memUsers) {
	t.Helper()
	password.UseParams(password.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	jwtutil.Configure(jwtutil.Config{Secret: []byte("0123456789abcdef0123456789abcdef")})
	sess := &memSessions{toks: map[string][2]any{}}
	users := newMemUsers()
	return auth.New(users, sess, nil), sess, users
}

func post(h http.HandlerFunc, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(b)))
	return rec
}

func tokens(t *testing.T, rec *httptest.ResponseRecorder) auth.TokenPair {
	t.Helper()
	var env struct {
		Data auth.TokenPair `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	return env.Data
}

func TestRegisterLoginRefreshLogout(t *testing.T) {
	h, sess := setup(t)

	rec := post(h.Register, auth.RegisterRequest{Email: " Reader@Example.com ", Username: "reader", Password: "a-long-passphrase-42"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rec.Code, rec.Body)
	}

	rec = post(h.Register, auth.RegisterRequest{Email: "reader@example.com", Username: "again", Password: "a-long-passphrase-42"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register: %d", rec.Code)
	}

	rec = post(h.Login, auth.LoginRequest{Email: "reader@example.com", Password: "nope-nope-nope"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: %d", rec.Code)
	}

	rec = post(h.Login, auth.LoginRequest{Email: "READER@example.com", Password: "a-long-passphrase-42"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body)
	}
	pair := tokens(t, rec)
	claims, err := jwtutil.ParseAccess(pair.AccessToken)
	if err != nil || claims.Subject != "u-1" {
		t.Fatalf("access token: %+v %v", claims, err)
	}

	rec = post(h.Refresh, auth.RefreshRequest{RefreshToken: pair.RefreshToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: %d %s", rec.Code, rec.Body)
	}
	rotated := tokens(t, rec)
	if rec := post(h.Refresh, auth.RefreshRequest{RefreshToken: pair.RefreshToken}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("old refresh token must be revoked, got %d", rec.Code)
	}

	var loggedOut string
	h.OnLogout = func(_ context.Context, userID string) { loggedOut = userID }
	if rec := post(h.Logout, auth.RefreshRequest{RefreshToken: rotated.RefreshToken}); rec.Code != http.StatusOK {
		t.Fatalf("logout: %d", rec.Code)
	}
	if loggedOut != "u-1" {
		t.Fatalf("OnLogout got %q", loggedOut)
	}
	if len(sess.toks) != 0 {
		t.Fatalf("sessions left: %v", sess.toks)
	}
}

func TestRegisterValidation(t *testing.T) {
	h, _ := setup(t)
	rec := post(h.Register, auth.RegisterRequest{Email: "nope", Password: "short"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("want 422, got %d", rec.Code)
	}
	var p struct {
		FieldErrors []struct {
			Field string `json:"field"`
		} `json:"field_errors"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &p)
	if len(p.FieldErrors) != 3 {
		t.Fatalf("want email, password and username errors, got %+v", p.FieldErrors)
	}
}

func TestMe(t *testing.T) {
	h, _ := setup(t)
	post(h.Register, auth.RegisterRequest{Email: "me@example.com", Username: "me", Password: "a-long-passphrase-42"})

	rec := httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous me: %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req = req.WithContext(middlewares.WithUserID(req.Context(), "u-1"))
	rec = httptest.NewRecorder()
	h.Me(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: %d %s", rec.Code, rec.Body)
	}
}

func TestLogoutRevokesAccessTokens(t *testing.T) {
	h, _, users := setupWithUsers(t)
	post(h.Register, auth.RegisterRequest{Email: "seller@example.com", Username: "seller", Password: "a-long-passphrase-42"})
	rec := post(h.Login, auth.LoginRequest{Email: "seller@example.com", Password: "a-long-passphrase-42"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body)
	}
	pair := tokens(t, rec)

	// a second device that never logs out itself
	other := tokens(t, post(h.Login, auth.LoginRequest{Email: "seller@example.com", Password: "a-long-passphrase-42"}))

	me := middlewares.RequireAuth(users, http.HandlerFunc(h.Me))
	callMe := func() int {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		rec := httptest.NewRecorder()
		me.ServeHTTP(rec, req)
		return rec.Code
	}
	if code := callMe(); code != http.StatusOK {
		t.Fatalf("before logout: %d", code)
	}

	logout := middlewares.RequireAuth(users, http.HandlerFunc(h.Logout))
	b, _ := json.Marshal(auth.RefreshRequest{RefreshToken: pair.RefreshToken})
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", bytes.NewReader(b))
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec = httptest.NewRecorder()
	logout.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: %d %s", rec.Code, rec.Body)
	}

	if code := callMe(); code != http.StatusUnauthorized {
		t.Fatalf("access token issued before logout must be rejected, got %d", code)
	}
	if rec := post(h.Refresh, auth.RefreshRequest{RefreshToken: other.RefreshToken}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh token from another device must be revoked, got %d", rec.Code)
	}
}
