package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/sirpyerre/chat-system/internal/core/domain"
	"github.com/sirpyerre/chat-system/internal/core/ports"
	"github.com/sirpyerre/chat-system/internal/pkg/metrics"
)

const (
	minPasswordLength = 6
	profilePicFolder  = "profile-pics"

	claimUserID = "userId"
	claimJTI    = "jti"
)

// AuthService implements signup, login, logout and session resolution.
type AuthService struct {
	users     ports.UserRepository
	media     ports.MediaUploader
	revoker   ports.TokenRevoker
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
}

func NewAuthService(
	users ports.UserRepository,
	media ports.MediaUploader,
	revoker ports.TokenRevoker,
	jwtSecret string,
	tokenTTL time.Duration,
	log zerolog.Logger,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 7 * 24 * time.Hour
	}
	return &AuthService{
		users:     users,
		media:     media,
		revoker:   revoker,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		log:       log,
	}
}

// TokenTTL is the lifetime of issued session tokens.
func (s *AuthService) TokenTTL() time.Duration {
	return s.tokenTTL
}

func (s *AuthService) Signup(ctx context.Context, fullName, email, password string) (*domain.User, string, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.TrimSpace(email)
	if fullName == "" || email == "" || password == "" {
		return nil, "", fmt.Errorf("%w: all fields are required", domain.ErrValidation)
	}
	if len(password) < minPasswordLength {
		return nil, "", fmt.Errorf("%w: password must be at least %d characters long", domain.ErrValidation, minPasswordLength)
	}

	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, "", domain.ErrDuplicateEmail
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	now := time.Now().UTC()
	created, err := s.users.Create(ctx, &domain.User{
		Email:        email,
		FullName:     fullName,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, "", err
	}
	metrics.SignupsTotal.Inc()

	token, err := s.issueToken(created.ID)
	if err != nil {
		return nil, "", err
	}

	s.log.Info().Str("user_id", created.ID).Msg("account created")
	return created, token, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, "", domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Logout revokes the token until it would have expired anyway. Unparseable or
// expired tokens need no revocation.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" || s.revoker == nil {
		return nil
	}

	claims, err := s.parseToken(token)
	if err != nil {
		return nil
	}

	jti, _ := claims[claimJTI].(string)
	exp, err := claims.GetExpirationTime()
	if jti == "" || err != nil || exp == nil {
		return nil
	}

	ttl := time.Until(exp.Time)
	if ttl <= 0 {
		return nil
	}
	if err := s.revoker.Revoke(ctx, jti, ttl); err != nil {
		s.log.Warn().Err(err).Msg("failed to revoke session token")
	}
	return nil
}

// Authenticate verifies the token and loads its account.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}

	claims, err := s.parseToken(token)
	if err != nil {
		return nil, err
	}

	if jti, _ := claims[claimJTI].(string); jti != "" && s.revoker != nil {
		revoked, err := s.revoker.IsRevoked(ctx, jti)
		if err != nil {
			s.log.Warn().Err(err).Msg("revocation check failed, accepting token")
		} else if revoked {
			return nil, fmt.Errorf("%w: session revoked", domain.ErrUnauthorized)
		}
	}

	userID, _ := claims[claimUserID].(string)
	if userID == "" {
		return nil, fmt.Errorf("%w: missing user claim", domain.ErrUnauthorized)
	}

	return s.users.FindByID(ctx, userID)
}

func (s *AuthService) UpdateProfilePic(ctx context.Context, userID, payload string) (*domain.User, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, fmt.Errorf("%w: profile pic is required", domain.ErrValidation)
	}

	url, err := s.media.Upload(ctx, profilePicFolder, payload)
	if err != nil {
		return nil, err
	}

	user, err := s.users.UpdateProfilePic(ctx, userID, url)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", userID).Msg("profile picture updated")
	return user, nil
}

func (s *AuthService) issueToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		claimUserID: userID,
		claimJTI:    uuid.NewString(),
		"iat":       now.Unix(),
		"exp":       now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

func (s *AuthService) parseToken(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithExpirationRequired())
	if err != nil || !tkn.Valid {
		return nil, fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
	}
	return claims, nil
}
