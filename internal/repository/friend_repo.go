package repository

import (
	"context"

	"github.com/for-everyoung12/chat-chit/internal/models"
)

type FriendRepository struct {
	db DBTX
}

func NewFriendRepository(db DBTX) *FriendRepository {
	return &FriendRepository{db: db}
}

func (r *FriendRepository) CreateRequest(
	ctx context.Context,
	fromUserID int64,
	toUserID int64,
	message *string,
) (*models.FriendRequest, error) {
	query := `
		INSERT INTO friend_requests (from_user_id, to_user_id, message)
		VALUES ($1, $2, $3)
		RETURNING id, from_user_id, to_user_id, message, created_at
	`

	var request models.FriendRequest
	err := r.db.QueryRow(ctx, query, fromUserID, toUserID, message).Scan(
		&request.ID,
		&request.FromUserID,
		&request.ToUserID,
		&request.Message,
		&request.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *FriendRepository) GetRequestByID(ctx context.Context, requestID int64) (*models.FriendRequest, error) {
	query := `
		SELECT id, from_user_id, to_user_id, message, created_at
		FROM friend_requests
		WHERE id = $1
	`

	var request models.FriendRequest
	err := r.db.QueryRow(ctx, query, requestID).Scan(
		&request.ID,
		&request.FromUserID,
		&request.ToUserID,
		&request.Message,
		&request.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *FriendRepository) DeleteRequest(ctx context.Context, requestID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM friend_requests
		WHERE id = $1
	`, requestID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// PendingRequestExists reports whether a request is pending between the two
// users in either direction.
func (r *FriendRepository) PendingRequestExists(ctx context.Context, userID, otherID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM friend_requests
			WHERE (from_user_id = $1 AND to_user_id = $2)
			   OR (from_user_id = $2 AND to_user_id = $1)
		)
	`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, otherID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// CreateFriendship inserts the canonical-pair row. userA must be the lower id;
// the table CHECK rejects anything else.
func (r *FriendRepository) CreateFriendship(ctx context.Context, userA, userB int64) (*models.Friendship, error) {
	query := `
		INSERT INTO friends (user_a, user_b)
		VALUES ($1, $2)
		RETURNING user_a, user_b, created_at
	`

	var friendship models.Friendship
	err := r.db.QueryRow(ctx, query, userA, userB).Scan(
		&friendship.UserA,
		&friendship.UserB,
		&friendship.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &friendship, nil
}

func (r *FriendRepository) FriendshipExists(ctx context.Context, userA, userB int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM friends
			WHERE user_a = $1 AND user_b = $2
		)
	`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userA, userB).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ListFriendsOf returns the other member of every friendship touching userID.
func (r *FriendRepository) ListFriendsOf(ctx context.Context, userID int64) ([]models.PublicUser, error) {
	query := `
		SELECT u.id, u.username, u.display_name, u.avatar_url
		FROM friends f
		JOIN users u
		  ON u.id = CASE WHEN f.user_a = $1 THEN f.user_b ELSE f.user_a END
		WHERE f.user_a = $1 OR f.user_b = $1
		ORDER BY u.display_name, u.id
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	friends := make([]models.PublicUser, 0)
	for rows.Next() {
		var friend models.PublicUser
		if err := rows.Scan(&friend.ID, &friend.Username, &friend.DisplayName, &friend.AvatarURL); err != nil {
			return nil, err
		}
		friends = append(friends, friend)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return friends, nil
}

func (r *FriendRepository) ListSentRequests(ctx context.Context, userID int64) ([]models.SentFriendRequest, error) {
	query := `
		SELECT fr.id, fr.from_user_id, fr.to_user_id, fr.message, fr.created_at,
		       u.id, u.username, u.display_name, u.avatar_url
		FROM friend_requests fr
		JOIN users u ON u.id = fr.to_user_id
		WHERE fr.from_user_id = $1
		ORDER BY fr.created_at DESC, fr.id DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]models.SentFriendRequest, 0)
	for rows.Next() {
		var request models.SentFriendRequest
		if err := rows.Scan(
			&request.ID,
			&request.FromUserID,
			&request.ToUserID,
			&request.Message,
			&request.CreatedAt,
			&request.To.ID,
			&request.To.Username,
			&request.To.DisplayName,
			&request.To.AvatarURL,
		); err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *FriendRepository) ListReceivedRequests(ctx context.Context, userID int64) ([]models.ReceivedFriendRequest, error) {
	query := `
		SELECT fr.id, fr.from_user_id, fr.to_user_id, fr.message, fr.created_at,
		       u.id, u.username, u.display_name, u.avatar_url
		FROM friend_requests fr
		JOIN users u ON u.id = fr.from_user_id
		WHERE fr.to_user_id = $1
		ORDER BY fr.created_at DESC, fr.id DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]models.ReceivedFriendRequest, 0)
	for rows.Next() {
		var request models.ReceivedFriendRequest
		if err := rows.Scan(
			&request.ID,
			&request.FromUserID,
			&request.ToUserID,
			&request.Message,
			&request.CreatedAt,
			&request.From.ID,
			&request.From.Username,
			&request.From.DisplayName,
			&request.From.AvatarURL,
		); err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}
