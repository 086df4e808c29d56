package auth_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/orderdesk/orderdesk/internal/auth"
	"github.com/orderdesk/orderdesk/internal/shared"
)

type stubRepo struct {
	user *auth.User
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func adminUser(t *testing.T) *auth.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	return &auth.User{
		ID:           1,
		Email:        "admin@orderdesk.test",
		Name:         "Admin",
		Role:         "admin",
		PasswordHash: string(hash),
		IsActive:     true,
	}
}

func newAuthHandler(t *testing.T, repo auth.Repository) (*auth.Handler, *auth.Service) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	service := auth.NewService(repo, redisClient, time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return auth.NewHandler(logger, service, time.Hour, false), service
}

func cookieNamed(res *http.Response, name string) *http.Cookie {
	for _, c := range res.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLoginIssuesTokenAndCookie(t *testing.T) {
	handler, service := newAuthHandler(t, &stubRepo{user: adminUser(t)})

	body := `{"email":"admin@orderdesk.test","password":"correct horse"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	cookie := cookieNamed(rec.Result(), auth.TokenCookieName)
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)

	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			Token string `json:"token"`
			Email string `json:"email"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, "admin@orderdesk.test", envelope.Data.Email)
	require.NotEmpty(t, envelope.Data.Token)

	user, err := service.Authenticate(context.Background(), envelope.Data.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	handler, _ := newAuthHandler(t, &stubRepo{user: adminUser(t)})

	body := `{"email":"admin@orderdesk.test","password":"wrong password"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, cookieNamed(rec.Result(), auth.TokenCookieName))
}

func TestLoginRejectsUnknownEmail(t *testing.T) {
	handler, _ := newAuthHandler(t, &stubRepo{})

	body := `{"email":"ghost@orderdesk.test","password":"correct horse"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthPassesValidToken(t *testing.T) {
	_, service := newAuthHandler(t, &stubRepo{user: adminUser(t)})

	_, token, err := service.Login(context.Background(), "admin@orderdesk.test", "correct horse")
	require.NoError(t, err)

	var gotUserID int64
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = auth.UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/order", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	service.RequireAuth(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(1), gotUserID)
}

func TestRequireAuthClearsCookieOnBadToken(t *testing.T) {
	_, service := newAuthHandler(t, &stubRepo{user: adminUser(t)})

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run without a session")
	})

	req := httptest.NewRequest(http.MethodGet, "/order", nil)
	req.AddCookie(&http.Cookie{Name: auth.TokenCookieName, Value: "stale-token"})
	rec := httptest.NewRecorder()
	service.RequireAuth(next).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)

	cookie := cookieNamed(rec.Result(), auth.TokenCookieName)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
}

func TestLogoutRevokesToken(t *testing.T) {
	handler, service := newAuthHandler(t, &stubRepo{user: adminUser(t)})

	_, token, err := service.Login(context.Background(), "admin@orderdesk.test", "correct horse")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.Logout(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	cookie := cookieNamed(rec.Result(), auth.TokenCookieName)
	require.NotNil(t, cookie)
	assert.Negative(t, cookie.MaxAge)

	_, err = service.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)
}
