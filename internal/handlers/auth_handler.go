package handlers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/for-everyoung12/chat-chit/internal/models"
	"github.com/for-everyoung12/chat-chit/internal/services"
	"github.com/gofiber/fiber/v2"
)

const refreshCookieName = "refreshToken"

type authApplicationService interface {
	SignUp(ctx context.Context, input services.SignUpInput) (*models.User, error)
	SignIn(ctx context.Context, username, password string) (*services.SignInResult, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	SignOut(ctx context.Context, refreshToken string) error
	GetUser(ctx context.Context, userID int64) (*models.User, error)
}

type AuthHandler struct {
	service      authApplicationService
	cookieSecure bool
}

func NewAuthHandler(service authApplicationService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		service:      service,
		cookieSecure: cookieSecure,
	}
}

type signUpRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type signInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req signUpRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	user, err := h.service.SignUp(c.Context(), services.SignUpInput{
		Username:  req.Username,
		Password:  req.Password,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "All fields are required"})
		case errors.Is(err, services.ErrConflict):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Username already exists"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to sign up"})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": user.Public()})
}

func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var req signInRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	result, err := h.service.SignIn(c.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "All fields are required"})
		case errors.Is(err, services.ErrInvalidCredentials):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Username or password is incorrect"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to sign in"})
		}
	}

	h.setRefreshCookie(c, result.RefreshToken, result.RefreshExpiresAt)

	return c.JSON(fiber.Map{
		"access_token": result.AccessToken,
		"user":         result.User.Public(),
	})
}

// Refresh exchanges the refresh-token cookie for a fresh access token. The
// cookie itself is left untouched: this deployment does not rotate refresh
// tokens on use.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	token := c.Cookies(refreshCookieName)
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Refresh token is missing"})
	}

	accessToken, err := h.service.Refresh(c.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSessionNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
		case errors.Is(err, services.ErrSessionExpired):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Refresh token has expired"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to refresh token"})
		}
	}

	return c.JSON(fiber.Map{"access_token": accessToken})
}

func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	token := c.Cookies(refreshCookieName)
	if token != "" {
		if err := h.service.SignOut(c.Context(), token); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to sign out"})
		}
		h.clearRefreshCookie(c)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	user, err := h.service.GetUser(c.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch user"})
	}

	return c.JSON(fiber.Map{"user": user.Public()})
}

func (h *AuthHandler) setRefreshCookie(c *fiber.Ctx, token string, expiresAt time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Expires:  expiresAt,
		HTTPOnly: true,
		Secure:   h.cookieSecure,
		SameSite: fiber.CookieSameSiteNoneMode,
		Path:     "/",
	})
}

func (h *AuthHandler) clearRefreshCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   h.cookieSecure,
		SameSite: fiber.CookieSameSiteNoneMode,
		Path:     "/",
	})
}

func parseActorID(c *fiber.Ctx) (int64, error) {
	userIDStr, ok := c.Locals("user_id").(string)
	if !ok {
		return 0, errors.New("missing user id")
	}
	return strconv.ParseInt(userIDStr, 10, 64)
}
