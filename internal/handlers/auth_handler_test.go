package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/for-everyoung12/chat-chit/internal/models"
	"github.com/for-everyoung12/chat-chit/internal/services"
)

type stubAuthService struct {
	signUpResult *models.User
	signUpErr    error
	signInResult *services.SignInResult
	signInErr    error
	refreshToken string
	refreshErr   error
	getUser      *models.User
	getUserErr   error

	lastSignUpInput  services.SignUpInput
	lastUsername     string
	lastPassword     string
	lastRefreshToken string
	signedOutToken   string
}

func (s *stubAuthService) SignUp(_ context.Context, input services.SignUpInput) (*models.User, error) {
	s.lastSignUpInput = input
	return s.signUpResult, s.signUpErr
}

func (s *stubAuthService) SignIn(_ context.Context, username, password string) (*services.SignInResult, error) {
	s.lastUsername = username
	s.lastPassword = password
	return s.signInResult, s.signInErr
}

func (s *stubAuthService) Refresh(_ context.Context, refreshToken string) (string, error) {
	s.lastRefreshToken = refreshToken
	return s.refreshToken, s.refreshErr
}

func (s *stubAuthService) SignOut(_ context.Context, refreshToken string) error {
	s.signedOutToken = refreshToken
	return nil
}

func (s *stubAuthService) GetUser(_ context.Context, _ int64) (*models.User, error) {
	return s.getUser, s.getUserErr
}

func newAuthTestApp(service *stubAuthService) *fiber.App {
	handler := NewAuthHandler(service, false)

	app := fiber.New()
	app.Post("/api/auth/signup", handler.SignUp)
	app.Post("/api/auth/signin", handler.SignIn)
	app.Post("/api/auth/refresh", handler.Refresh)
	app.Post("/api/auth/signout", handler.SignOut)
	app.Get("/api/auth/me", func(c *fiber.Ctx) error {
		c.Locals("user_id", "42")
		return handler.Me(c)
	})
	return app
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	encoded, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(encoded))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestSignUpHandlerReturnsPublicUser(t *testing.T) {
	service := &stubAuthService{
		signUpResult: &models.User{ID: 1, Username: "alice", PasswordHash: "bcrypt-hash", Email: "alice@example.com"},
	}
	app := newAuthTestApp(service)

	req := jsonRequest(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"username":   "alice",
		"password":   "secret123",
		"email":      "alice@example.com",
		"first_name": "Alice",
		"last_name":  "Nguyen",
	})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastSignUpInput.Username != "alice" || service.lastSignUpInput.LastName != "Nguyen" {
		t.Fatalf("unexpected sign-up input: %+v", service.lastSignUpInput)
	}

	var payload struct {
		User map[string]any `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if payload.User["username"] != "alice" {
		t.Fatalf("expected username alice, got %v", payload.User["username"])
	}
	if _, ok := payload.User["password_hash"]; ok {
		t.Fatal("expected password hash to be omitted from the response")
	}
}

func TestSignUpHandlerMapsConflict(t *testing.T) {
	service := &stubAuthService{signUpErr: services.ErrConflict}
	app := newAuthTestApp(service)

	req := jsonRequest(t, http.MethodPost, "/api/auth/signup", map[string]string{"username": "alice"})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestSignInHandlerSetsRefreshCookie(t *testing.T) {
	service := &stubAuthService{
		signInResult: &services.SignInResult{
			User:             &models.User{ID: 42, Username: "alice"},
			AccessToken:      "jwt-token",
			RefreshToken:     "opaque-refresh",
			RefreshExpiresAt: time.Now().Add(services.RefreshTokenTTL),
		},
	}
	app := newAuthTestApp(service)

	req := jsonRequest(t, http.MethodPost, "/api/auth/signin", map[string]string{
		"username": "alice",
		"password": "secret123",
	})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var refreshCookie *http.Cookie
	for _, cookie := range resp.Cookies() {
		if cookie.Name == refreshCookieName {
			refreshCookie = cookie
		}
	}
	if refreshCookie == nil {
		t.Fatal("expected a refresh token cookie")
	}
	if refreshCookie.Value != "opaque-refresh" {
		t.Fatalf("unexpected cookie value %q", refreshCookie.Value)
	}
	if !refreshCookie.HttpOnly {
		t.Fatal("expected the refresh cookie to be HTTP-only")
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if payload.AccessToken != "jwt-token" {
		t.Fatalf("expected access token in body, got %q", payload.AccessToken)
	}
}

func TestSignInHandlerMapsBadCredentials(t *testing.T) {
	service := &stubAuthService{signInErr: services.ErrInvalidCredentials}
	app := newAuthTestApp(service)

	req := jsonRequest(t, http.MethodPost, "/api/auth/signin", map[string]string{
		"username": "alice",
		"password": "wrong",
	})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestRefreshHandlerReadsCookie(t *testing.T) {
	service := &stubAuthService{refreshToken: "fresh-jwt"}
	app := newAuthTestApp(service)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: "opaque-refresh"})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastRefreshToken != "opaque-refresh" {
		t.Fatalf("expected the cookie value to be forwarded, got %q", service.lastRefreshToken)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if payload.AccessToken != "fresh-jwt" {
		t.Fatalf("expected fresh-jwt, got %q", payload.AccessToken)
	}
}

func TestRefreshHandlerStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		cookie     string
		serviceErr error
		wantStatus int
	}{
		{name: "missing cookie", cookie: "", wantStatus: http.StatusUnauthorized},
		{name: "unknown session", cookie: "gone", serviceErr: services.ErrSessionNotFound, wantStatus: http.StatusNotFound},
		{name: "expired session", cookie: "stale", serviceErr: services.ErrSessionExpired, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newAuthTestApp(&stubAuthService{refreshErr: tt.serviceErr})

			req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: tt.cookie})
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, resp.StatusCode)
			}
		})
	}
}

func TestSignOutHandlerClearsCookie(t *testing.T) {
	service := &stubAuthService{}
	app := newAuthTestApp(service)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signout", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: "opaque-refresh"})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if service.signedOutToken != "opaque-refresh" {
		t.Fatalf("expected token forwarded to SignOut, got %q", service.signedOutToken)
	}

	var cleared bool
	for _, cookie := range resp.Cookies() {
		if cookie.Name == refreshCookieName && cookie.Value == "" && cookie.Expires.Before(time.Now()) {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("expected the refresh cookie to be expired")
	}
}

func TestSignOutHandlerWithoutCookieIsNoContent(t *testing.T) {
	app := newAuthTestApp(&stubAuthService{})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signout", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
}

func TestMeHandlerReturnsCurrentUser(t *testing.T) {
	service := &stubAuthService{
		getUser: &models.User{ID: 42, Username: "alice", Email: "alice@example.com"},
	}
	app := newAuthTestApp(service)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var payload struct {
		User map[string]any `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if payload.User["username"] != "alice" {
		t.Fatalf("expected alice, got %v", payload.User["username"])
	}
}
