package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/for-everyoung12/chat-chit/internal/models"
	"github.com/for-everyoung12/chat-chit/internal/services"
	"github.com/gofiber/fiber/v2"
)

type friendApplicationService interface {
	SendRequest(ctx context.Context, fromUserID, toUserID int64, message *string) (*models.FriendRequest, error)
	AcceptRequest(ctx context.Context, requestID, actorID int64) (*models.PublicUser, error)
	DeclineRequest(ctx context.Context, requestID, actorID int64) error
	ListFriends(ctx context.Context, userID int64) ([]models.PublicUser, error)
	ListRequests(ctx context.Context, userID int64) (*models.FriendRequestList, error)
}

type FriendHandler struct {
	service friendApplicationService
}

func NewFriendHandler(service friendApplicationService) *FriendHandler {
	return &FriendHandler{service: service}
}

type sendFriendRequestBody struct {
	To      int64   `json:"to"`
	Message *string `json:"message"`
}

func (h *FriendHandler) SendRequest(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req sendFriendRequestBody
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	request, err := h.service.SendRequest(c.Context(), actorID, req.To, req.Message)
	if err != nil {
		return mapFriendError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"request": request})
}

func (h *FriendHandler) AcceptRequest(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	requestID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || requestID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request id"})
	}

	friend, err := h.service.AcceptRequest(c.Context(), requestID, actorID)
	if err != nil {
		return mapFriendError(c, err)
	}

	return c.JSON(fiber.Map{"new_friend": friend})
}

func (h *FriendHandler) DeclineRequest(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	requestID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || requestID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request id"})
	}

	if err := h.service.DeclineRequest(c.Context(), requestID, actorID); err != nil {
		return mapFriendError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *FriendHandler) ListFriends(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	friends, err := h.service.ListFriends(c.Context(), actorID)
	if err != nil {
		return mapFriendError(c, err)
	}

	return c.JSON(fiber.Map{"friends": friends})
}

func (h *FriendHandler) ListRequests(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	requests, err := h.service.ListRequests(c.Context(), actorID)
	if err != nil {
		return mapFriendError(c, err)
	}

	return c.JSON(requests)
}

func mapFriendError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrSelfRequest):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "You cannot send a friend request to yourself"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	case errors.Is(err, services.ErrRequestNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Friend request not found"})
	case errors.Is(err, services.ErrAlreadyFriends):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "You are already friends with this user"})
	case errors.Is(err, services.ErrRequestPending):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A friend request is already pending between you and this user"})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process friend request"})
	}
}
