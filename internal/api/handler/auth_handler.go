package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/chat-system/internal/api/middleware"
	"github.com/sirpyerre/chat-system/internal/core/ports"
)

type AuthHandler struct {
	authService   ports.AuthService
	secureCookies bool
}

// NewAuthHandler builds the account handlers. secureCookies marks the session
// cookie Secure and should be off only for plain-HTTP development.
func NewAuthHandler(authService ports.AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{authService: authService, secureCookies: secureCookies}
}

// Signup creates a new account and starts a session.
//
// @Summary      Sign up
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Account details"
// @Success      201   {object}  domain.User
// @Failure      400   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, token, err := h.authService.Signup(c.Request().Context(), req.FullName, req.Email, req.Password)
	if err != nil {
		return err
	}

	setSessionCookie(c, token, h.authService.TokenTTL(), h.secureCookies)
	return c.JSON(http.StatusCreated, user)
}

// Login authenticates with email and password and starts a session.
//
// @Summary      Log in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  domain.User
// @Failure      400   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, token, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	setSessionCookie(c, token, h.authService.TokenTTL(), h.secureCookies)
	return c.JSON(http.StatusOK, user)
}

// Logout revokes the current session token, if any, and clears the cookie.
//
// @Summary      Log out
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if token, err := middleware.TokenFromRequest(c); err == nil {
		if err := h.authService.Logout(c.Request().Context(), token); err != nil {
			return err
		}
	}

	clearSessionCookie(c, h.secureCookies)
	return c.JSON(http.StatusOK, messageResponse{Message: "Logged out successfully"})
}

// Check returns the account bound to the session.
//
// @Summary      Current account
// @Tags         auth
// @Produce      json
// @Security     CookieAuth
// @Success      200  {object}  domain.User
// @Failure      401  {object}  errorResponse
// @Router       /api/auth/check [get]
func (h *AuthHandler) Check(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateProfile uploads a new profile picture.
//
// @Summary      Update profile picture
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        body  body      updateProfileRequest  true  "Encoded image"
// @Success      200   {object}  domain.User
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/auth/update-profile [put]
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	updated, err := h.authService.UpdateProfilePic(c.Request().Context(), user.ID, req.ProfilePic)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}
