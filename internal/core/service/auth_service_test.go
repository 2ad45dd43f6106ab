package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/sirpyerre/chat-system/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	byID    map[string]*domain.User
	order   []string
	findErr error
	seq     int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.byID {
		if u.Email == user.Email {
			return nil, domain.ErrDuplicateEmail
		}
	}
	r.seq++
	copy := cloneUser(user)
	copy.ID = fmt.Sprintf("u%d", r.seq)
	r.byID[copy.ID] = copy
	r.order = append(r.order, copy.ID)
	return cloneUser(copy), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.byID {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) ListExcluding(_ context.Context, id string) ([]*domain.User, error) {
	var out []*domain.User
	for _, uid := range r.order {
		if uid != id {
			out = append(out, cloneUser(r.byID[uid]))
		}
	}
	return out, nil
}

func (r *stubUserRepo) UpdateProfilePic(_ context.Context, id, url string) (*domain.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.ProfilePic = url
	return cloneUser(u), nil
}

type stubMedia struct {
	url     string
	err     error
	folders []string
}

func (m *stubMedia) Upload(_ context.Context, folder, _ string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.folders = append(m.folders, folder)
	return m.url, nil
}

type stubRevoker struct {
	revoked  map[string]time.Duration
	checkErr error
}

func newStubRevoker() *stubRevoker {
	return &stubRevoker{revoked: make(map[string]time.Duration)}
}

func (r *stubRevoker) Revoke(_ context.Context, id string, ttl time.Duration) error {
	r.revoked[id] = ttl
	return nil
}

func (r *stubRevoker) IsRevoked(_ context.Context, id string) (bool, error) {
	if r.checkErr != nil {
		return false, r.checkErr
	}
	_, ok := r.revoked[id]
	return ok, nil
}

func newAuthSvc(repo *stubUserRepo, media *stubMedia, revoker *stubRevoker) *AuthService {
	return NewAuthService(repo, media, revoker, "secret", time.Hour, zerolog.Nop())
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestAuthService_Signup_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthSvc(repo, &stubMedia{}, newStubRevoker())

	user, token, err := svc.Signup(context.Background(), "Alice Doe", "alice@example.com", "pass123")
	if err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}
	if user == nil || user.ID == "" {
		t.Fatalf("expected persisted user, got %+v", user)
	}
	if user.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token")
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims["userId"] != user.ID {
		t.Fatalf("expected userId claim %s, got %v", user.ID, claims["userId"])
	}
	if claims["jti"] == "" || claims["jti"] == nil {
		t.Fatalf("expected jti claim")
	}
}

func TestAuthService_Signup_Validation(t *testing.T) {
	svc := newAuthSvc(newStubUserRepo(), &stubMedia{}, newStubRevoker())

	cases := []struct {
		name, fullName, email, password string
	}{
		{"missing name", "", "a@example.com", "pass123"},
		{"missing email", "Alice", "  ", "pass123"},
		{"missing password", "Alice", "a@example.com", ""},
		{"short password", "Alice", "a@example.com", "12345"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := svc.Signup(context.Background(), tc.fullName, tc.email, tc.password); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestAuthService_Signup_DuplicateEmail(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthSvc(repo, &stubMedia{}, newStubRevoker())

	if _, _, err := svc.Signup(context.Background(), "Bob", "bob@example.com", "pass123"); err != nil {
		t.Fatalf("first signup failed: %v", err)
	}
	if len(repo.byID) != 1 {
		t.Fatalf("expected exactly one account, got %d", len(repo.byID))
	}

	if _, _, err := svc.Signup(context.Background(), "Bobby", "bob@example.com", "other123"); !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	if len(repo.byID) != 1 {
		t.Fatalf("expected account count unchanged, got %d", len(repo.byID))
	}
}

func TestAuthService_Signup_DirectoryFailure(t *testing.T) {
	repo := newStubUserRepo()
	repo.findErr = domain.ErrStorageUnavailable
	svc := newAuthSvc(repo, &stubMedia{}, newStubRevoker())

	if _, _, err := svc.Signup(context.Background(), "Bob", "bob@example.com", "pass123"); !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthSvc(repo, &stubMedia{}, newStubRevoker())

	created, _, err := svc.Signup(context.Background(), "Carol", "carol@example.com", "s3cret!")
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	user, token, err := svc.Login(context.Background(), "carol@example.com", "s3cret!")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token, got empty")
	}
	if user.ID != created.ID {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthSvc(repo, &stubMedia{}, newStubRevoker())

	_, _, _ = svc.Signup(context.Background(), "Dave", "dave@example.com", "goodpass")

	if _, _, err := svc.Login(context.Background(), "dave@example.com", "badpass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "ghost@example.com", "goodpass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "", ""); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for empty input, got %v", err)
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	repo := newStubUserRepo()
	revoker := newStubRevoker()
	svc := newAuthSvc(repo, &stubMedia{}, revoker)

	created, token, err := svc.Signup(context.Background(), "Erin", "erin@example.com", "pass123")
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	t.Run("valid token", func(t *testing.T) {
		user, err := svc.Authenticate(context.Background(), token)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.ID != created.ID {
			t.Fatalf("expected %s, got %s", created.ID, user.ID)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		if _, err := svc.Authenticate(context.Background(), "not-a-token"); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("empty token", func(t *testing.T) {
		if _, err := svc.Authenticate(context.Background(), ""); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewAuthService(repo, &stubMedia{}, revoker, "other-secret", time.Hour, zerolog.Nop())
		if _, err := other.Authenticate(context.Background(), token); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"userId": created.ID,
			"exp":    time.Now().Add(-time.Minute).Unix(),
		})
		signed, _ := expired.SignedString([]byte("secret"))
		if _, err := svc.Authenticate(context.Background(), signed); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("token without expiry", func(t *testing.T) {
		forever := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"userId": created.ID})
		signed, _ := forever.SignedString([]byte("secret"))
		if _, err := svc.Authenticate(context.Background(), signed); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("account removed", func(t *testing.T) {
		_, orphan, err := svc.Signup(context.Background(), "Gone", "gone@example.com", "pass123")
		if err != nil {
			t.Fatalf("signup failed: %v", err)
		}
		for id, u := range repo.byID {
			if u.Email == "gone@example.com" {
				delete(repo.byID, id)
			}
		}
		if _, err := svc.Authenticate(context.Background(), orphan); !errors.Is(err, domain.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})
}

func TestAuthService_Logout_RevokesToken(t *testing.T) {
	repo := newStubUserRepo()
	revoker := newStubRevoker()
	svc := newAuthSvc(repo, &stubMedia{}, revoker)

	_, token, err := svc.Signup(context.Background(), "Frank", "frank@example.com", "pass123")
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	if err := svc.Logout(context.Background(), token); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if len(revoker.revoked) != 1 {
		t.Fatalf("expected one revoked token, got %d", len(revoker.revoked))
	}
	for _, ttl := range revoker.revoked {
		if ttl <= 0 || ttl > time.Hour {
			t.Fatalf("unexpected revocation ttl: %v", ttl)
		}
	}

	if _, err := svc.Authenticate(context.Background(), token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected revoked token to be rejected, got %v", err)
	}

	if err := svc.Logout(context.Background(), "garbage"); err != nil {
		t.Fatalf("logout with garbage token should be a no-op, got %v", err)
	}
}

func TestAuthService_Authenticate_RevocationCheckFailureAcceptsToken(t *testing.T) {
	repo := newStubUserRepo()
	revoker := newStubRevoker()
	svc := newAuthSvc(repo, &stubMedia{}, revoker)

	_, token, _ := svc.Signup(context.Background(), "Gina", "gina@example.com", "pass123")
	revoker.checkErr = errors.New("redis down")

	if _, err := svc.Authenticate(context.Background(), token); err != nil {
		t.Fatalf("expected token accepted when revocation check fails, got %v", err)
	}
}

func TestAuthService_UpdateProfilePic(t *testing.T) {
	repo := newStubUserRepo()
	media := &stubMedia{url: "https://cdn.example.com/profile-pics/a.png"}
	svc := newAuthSvc(repo, media, newStubRevoker())

	created, _, _ := svc.Signup(context.Background(), "Hank", "hank@example.com", "pass123")

	if _, err := svc.UpdateProfilePic(context.Background(), created.ID, " "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	user, err := svc.UpdateProfilePic(context.Background(), created.ID, "data:image/png;base64,AAAA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ProfilePic != media.url {
		t.Fatalf("expected profile pic %q, got %q", media.url, user.ProfilePic)
	}
	if len(media.folders) != 1 || media.folders[0] != profilePicFolder {
		t.Fatalf("unexpected upload folders: %v", media.folders)
	}

	if _, err := svc.UpdateProfilePic(context.Background(), "missing", "data:image/png;base64,AAAA"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	media.err = fmt.Errorf("%w: bucket unreachable", domain.ErrMediaUpload)
	if _, err := svc.UpdateProfilePic(context.Background(), created.ID, "data:image/png;base64,AAAA"); !errors.Is(err, domain.ErrMediaUpload) {
		t.Fatalf("expected ErrMediaUpload, got %v", err)
	}
}
