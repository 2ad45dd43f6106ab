package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/chat-system/internal/core/domain"
)

type stubAuthenticator struct {
	users map[string]*domain.User
	err   error
	seen  string
}

func (s *stubAuthenticator) Signup(context.Context, string, string, string) (*domain.User, string, error) {
	return nil, "", nil
}
func (s *stubAuthenticator) Login(context.Context, string, string) (*domain.User, string, error) {
	return nil, "", nil
}
func (s *stubAuthenticator) Logout(context.Context, string) error { return nil }
func (s *stubAuthenticator) UpdateProfilePic(context.Context, string, string) (*domain.User, error) {
	return nil, nil
}
func (s *stubAuthenticator) TokenTTL() time.Duration { return time.Hour }

func (s *stubAuthenticator) Authenticate(_ context.Context, token string) (*domain.User, error) {
	s.seen = token
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[token]
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return u, nil
}

func runAuth(t *testing.T, auth *stubAuthenticator, prepare func(*http.Request)) (*httptest.ResponseRecorder, *domain.User) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	prepare(req)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got *domain.User
	handler := Auth(auth)(func(c echo.Context) error {
		got, _ = c.Get(ContextUserKey).(*domain.User)
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, got
}

func TestAuthMiddleware_Cookie(t *testing.T) {
	alice := &domain.User{ID: "u1", FullName: "Alice"}
	auth := &stubAuthenticator{users: map[string]*domain.User{"tok": alice}}

	rec, got := runAuth(t, auth, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "tok"})
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got == nil || got.ID != "u1" {
		t.Fatalf("expected user u1 in context, got %+v", got)
	}
}

func TestAuthMiddleware_BearerFallback(t *testing.T) {
	auth := &stubAuthenticator{users: map[string]*domain.User{"tok": {ID: "u1"}}}

	rec, got := runAuth(t, auth, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer tok")
	})

	if rec.Code != http.StatusOK || got == nil {
		t.Fatalf("expected 200 with user, got %d", rec.Code)
	}
}

func TestAuthMiddleware_CookieWinsOverHeader(t *testing.T) {
	auth := &stubAuthenticator{users: map[string]*domain.User{"cookie-tok": {ID: "u1"}}}

	runAuth(t, auth, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "cookie-tok"})
		r.Header.Set("Authorization", "Bearer header-tok")
	})

	if auth.seen != "cookie-tok" {
		t.Fatalf("expected cookie token to be used, got %q", auth.seen)
	}
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(*http.Request)
		err     error
		want    int
	}{
		{"no token", func(*http.Request) {}, nil, http.StatusUnauthorized},
		{"bad header", func(r *http.Request) { r.Header.Set("Authorization", "Token abc") }, nil, http.StatusUnauthorized},
		{"invalid token", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "garbage"})
		}, nil, http.StatusUnauthorized},
		{"account gone", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "tok"})
		}, domain.ErrUserNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := &stubAuthenticator{users: map[string]*domain.User{}, err: tt.err}
			rec, got := runAuth(t, auth, tt.prepare)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
			if got != nil {
				t.Fatalf("next must not run")
			}
		})
	}
}
