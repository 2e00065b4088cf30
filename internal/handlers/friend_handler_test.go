package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/for-everyoung12/chat-chit/internal/models"
	"github.com/for-everyoung12/chat-chit/internal/services"
)

type stubFriendService struct {
	sendResult   *models.FriendRequest
	sendErr      error
	acceptResult *models.PublicUser
	acceptErr    error
	declineErr   error
	friends      []models.PublicUser
	requests     *models.FriendRequestList

	lastFrom      int64
	lastTo        int64
	lastMessage   *string
	lastRequestID int64
	lastActorID   int64
}

func (s *stubFriendService) SendRequest(_ context.Context, fromUserID, toUserID int64, message *string) (*models.FriendRequest, error) {
	s.lastFrom = fromUserID
	s.lastTo = toUserID
	s.lastMessage = message
	return s.sendResult, s.sendErr
}

func (s *stubFriendService) AcceptRequest(_ context.Context, requestID, actorID int64) (*models.PublicUser, error) {
	s.lastRequestID = requestID
	s.lastActorID = actorID
	return s.acceptResult, s.acceptErr
}

func (s *stubFriendService) DeclineRequest(_ context.Context, requestID, actorID int64) error {
	s.lastRequestID = requestID
	s.lastActorID = actorID
	return s.declineErr
}

func (s *stubFriendService) ListFriends(_ context.Context, userID int64) ([]models.PublicUser, error) {
	s.lastActorID = userID
	return s.friends, nil
}

func (s *stubFriendService) ListRequests(_ context.Context, userID int64) (*models.FriendRequestList, error) {
	s.lastActorID = userID
	return s.requests, nil
}

func newFriendTestApp(service *stubFriendService) *fiber.App {
	handler := NewFriendHandler(service)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", "9")
		return c.Next()
	})
	app.Get("/api/v1/friends", handler.ListFriends)
	app.Get("/api/v1/friends/requests", handler.ListRequests)
	app.Post("/api/v1/friends/requests", handler.SendRequest)
	app.Post("/api/v1/friends/requests/:id/accept", handler.AcceptRequest)
	app.Delete("/api/v1/friends/requests/:id", handler.DeclineRequest)
	return app
}

func TestSendRequestHandlerForwardsActorAndTarget(t *testing.T) {
	service := &stubFriendService{
		sendResult: &models.FriendRequest{ID: 100, FromUserID: 9, ToUserID: 3},
	}
	app := newFriendTestApp(service)

	req := jsonRequest(t, http.MethodPost, "/api/v1/friends/requests", map[string]any{
		"to":      3,
		"message": "hi there",
	})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastFrom != 9 || service.lastTo != 3 {
		t.Fatalf("expected request 9 -> 3, got %d -> %d", service.lastFrom, service.lastTo)
	}
	if service.lastMessage == nil || *service.lastMessage != "hi there" {
		t.Fatalf("unexpected message: %v", service.lastMessage)
	}
}

func TestSendRequestHandlerStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{name: "self request", serviceErr: services.ErrSelfRequest, wantStatus: http.StatusBadRequest},
		{name: "unknown target", serviceErr: services.ErrUserNotFound, wantStatus: http.StatusNotFound},
		{name: "already friends", serviceErr: services.ErrAlreadyFriends, wantStatus: http.StatusConflict},
		{name: "pending request", serviceErr: services.ErrRequestPending, wantStatus: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newFriendTestApp(&stubFriendService{sendErr: tt.serviceErr})

			req := jsonRequest(t, http.MethodPost, "/api/v1/friends/requests", map[string]any{"to": 3})
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

func TestAcceptRequestHandlerReturnsNewFriend(t *testing.T) {
	service := &stubFriendService{
		acceptResult: &models.PublicUser{ID: 3, Username: "bob"},
	}
	app := newFriendTestApp(service)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/friends/requests/7/accept", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastRequestID != 7 || service.lastActorID != 9 {
		t.Fatalf("expected accept(7, 9), got accept(%d, %d)", service.lastRequestID, service.lastActorID)
	}

	var payload struct {
		NewFriend map[string]any `json:"new_friend"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if payload.NewFriend["username"] != "bob" {
		t.Fatalf("expected bob, got %v", payload.NewFriend["username"])
	}
}

func TestAcceptRequestHandlerStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		serviceErr error
		wantStatus int
	}{
		{name: "bad id", target: "/api/v1/friends/requests/abc/accept", wantStatus: http.StatusBadRequest},
		{name: "not found", target: "/api/v1/friends/requests/7/accept", serviceErr: services.ErrRequestNotFound, wantStatus: http.StatusNotFound},
		{name: "not recipient", target: "/api/v1/friends/requests/7/accept", serviceErr: services.ErrForbidden, wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newFriendTestApp(&stubFriendService{acceptErr: tt.serviceErr})

			req := httptest.NewRequest(http.MethodPost, tt.target, nil)
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

func TestDeclineRequestHandlerNoContent(t *testing.T) {
	service := &stubFriendService{}
	app := newFriendTestApp(service)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/friends/requests/7", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if service.lastRequestID != 7 || service.lastActorID != 9 {
		t.Fatalf("expected decline(7, 9), got decline(%d, %d)", service.lastRequestID, service.lastActorID)
	}
}

func TestListFriendsHandler(t *testing.T) {
	service := &stubFriendService{
		friends: []models.PublicUser{{ID: 3, Username: "bob"}},
	}
	app := newFriendTestApp(service)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/friends", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastActorID != 9 {
		t.Fatalf("expected actor 9, got %d", service.lastActorID)
	}

	var payload struct {
		Friends []map[string]any `json:"friends"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(payload.Friends) != 1 || payload.Friends[0]["username"] != "bob" {
		t.Fatalf("unexpected friends payload: %v", payload.Friends)
	}
}

func TestListRequestsHandlerSplitsSentAndReceived(t *testing.T) {
	service := &stubFriendService{
		requests: &models.FriendRequestList{
			Sent:     []models.SentFriendRequest{{FriendRequest: models.FriendRequest{ID: 1}}},
			Received: []models.ReceivedFriendRequest{{FriendRequest: models.FriendRequest{ID: 2}}},
		},
	}
	app := newFriendTestApp(service)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/friends/requests", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var payload struct {
		Sent     []map[string]any `json:"sent"`
		Received []map[string]any `json:"received"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(payload.Sent) != 1 || len(payload.Received) != 1 {
		t.Fatalf("expected one sent and one received request, got %d and %d", len(payload.Sent), len(payload.Received))
	}
}
