package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/chat-system/internal/core/domain"
	"github.com/sirpyerre/chat-system/internal/core/ports"
)

const (
	// SessionCookie carries the signed session token.
	SessionCookie = "jwt"
	// ContextUserKey holds the resolved *domain.User in echo.Context.
	ContextUserKey = "user"
)

// Auth resolves the session token into an account and injects it into the
// context. The token is read from the session cookie, falling back to a
// bearer Authorization header.
func Auth(auth ports.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := TokenFromRequest(c)
			if err != nil {
				return err
			}

			user, err := auth.Authenticate(c.Request().Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, domain.ErrUserNotFound):
					return echo.NewHTTPError(http.StatusNotFound, "User not found")
				case errors.Is(err, domain.ErrUnauthorized):
					return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized - Invalid Token")
				}
				return err
			}

			c.Set(ContextUserKey, user)
			return next(c)
		}
	}
}

// TokenFromRequest extracts the session token without verifying it.
func TokenFromRequest(c echo.Context) (string, error) {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized - No Token Provided")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}
	return parts[1], nil
}
