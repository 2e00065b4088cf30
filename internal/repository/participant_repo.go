package repository

import (
	"context"

	"github.com/for-everyoung12/chat-chit/internal/models"
)

// ParticipantRepository manages the explicit membership rows that carry the
// per-participant unread counters and the seen flag for the current last
// message.
type ParticipantRepository struct {
	db DBTX
}

func NewParticipantRepository(db DBTX) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

// Add is idempotent: re-adding an existing participant keeps the original
// joined_at and counter.
func (r *ParticipantRepository) Add(ctx context.Context, conversationID, userID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO conversation_participants (conversation_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (conversation_id, user_id) DO NOTHING
	`, conversationID, userID)
	return err
}

func (r *ParticipantRepository) IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM conversation_participants
			WHERE conversation_id = $1 AND user_id = $2
		)
	`
	var exists bool
	if err := r.db.QueryRow(ctx, query, conversationID, userID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *ParticipantRepository) ListIDs(ctx context.Context, conversationID int64) ([]int64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT user_id
		FROM conversation_participants
		WHERE conversation_id = $1
		ORDER BY user_id
	`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// ListByConversations resolves participant display data for a batch of
// conversations in one query, keyed by conversation id.
func (r *ParticipantRepository) ListByConversations(
	ctx context.Context,
	conversationIDs []int64,
) (map[int64][]models.Participant, error) {
	byConversation := make(map[int64][]models.Participant, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return byConversation, nil
	}

	query := `
		SELECT p.conversation_id, u.id, u.username, u.display_name, u.avatar_url, p.joined_at, p.seen_last
		FROM conversation_participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.conversation_id = ANY($1)
		ORDER BY p.conversation_id, p.joined_at, u.id
	`

	rows, err := r.db.Query(ctx, query, conversationIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var conversationID int64
		var participant models.Participant
		if err := rows.Scan(
			&conversationID,
			&participant.UserID,
			&participant.Username,
			&participant.DisplayName,
			&participant.AvatarURL,
			&participant.JoinedAt,
			&participant.SeenLast,
		); err != nil {
			return nil, err
		}
		byConversation[conversationID] = append(byConversation[conversationID], participant)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return byConversation, nil
}

// ApplyMessage records one appended message against every participant row in
// a single statement: the sender's counter resets to zero, everyone else's is
// incremented in place, and the seen set for the new last message is cleared.
// Doing this as one UPDATE keeps concurrent sends from losing increments.
func (r *ParticipantRepository) ApplyMessage(ctx context.Context, conversationID, senderID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE conversation_participants
		SET unread_count = CASE WHEN user_id = $2 THEN 0 ELSE unread_count + 1 END,
		    seen_last = FALSE
		WHERE conversation_id = $1
	`, conversationID, senderID)
	return err
}

// MarkSeen acknowledges the current last message for one participant and
// zeroes their unread counter.
func (r *ParticipantRepository) MarkSeen(ctx context.Context, conversationID, userID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE conversation_participants
		SET unread_count = 0,
		    seen_last = TRUE
		WHERE conversation_id = $1 AND user_id = $2
	`, conversationID, userID)
	return err
}
