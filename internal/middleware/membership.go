package middleware

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/for-everyoung12/chat-chit/internal/models"
)

type friendshipChecker interface {
	IsFriend(ctx context.Context, userID, otherID int64) (bool, error)
}

// RequireFriendship gates conversation creation: a direct conversation needs
// the caller and the peer to be friends, a group needs the caller to be
// friends with every listed member. It peeks at the request body; fiber
// buffers it, so the handler can parse it again.
func RequireFriendship(friends friendshipChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorIDStr, ok := c.Locals("user_id").(string)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
		}
		actorID, err := strconv.ParseInt(actorIDStr, 10, 64)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
		}

		var body struct {
			Type      string  `json:"type"`
			MemberIDs []int64 `json:"member_ids"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		if len(body.MemberIDs) == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Member list is required"})
		}

		members := body.MemberIDs
		if body.Type == models.ConversationTypeDirect {
			members = members[:1]
		}

		for _, memberID := range members {
			if memberID == actorID {
				continue
			}
			isFriend, err := friends.IsFriend(c.Context(), actorID, memberID)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "Failed to check friendship",
				})
			}
			if !isFriend {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
					"error": "You can only start conversations with your friends",
				})
			}
		}

		return c.Next()
	}
}
