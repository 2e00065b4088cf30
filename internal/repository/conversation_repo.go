package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/for-everyoung12/chat-chit/internal/models"
)

type ConversationRepository struct {
	db DBTX
}

func NewConversationRepository(db DBTX) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// CreateOrGetDirect is idempotent for a canonical pair: the unique index on
// (direct_user_a, direct_user_b) makes concurrent creators converge on one
// row, and the losing insert returns the winner's row instead of erroring.
// userA must be the lower id of the pair.
func (r *ConversationRepository) CreateOrGetDirect(
	ctx context.Context,
	userA int64,
	userB int64,
) (*models.Conversation, error) {
	query := `
		INSERT INTO conversations (type, direct_user_a, direct_user_b, last_message_at)
		VALUES ('direct', $1, $2, NOW())
		ON CONFLICT (direct_user_a, direct_user_b)
		DO UPDATE SET updated_at = conversations.updated_at
		RETURNING id, type, group_name, created_by,
		          last_message_id, last_message_sender_id, last_message_content, last_message_at,
		          created_at, updated_at
	`

	return r.scanConversation(r.db.QueryRow(ctx, query, userA, userB))
}

func (r *ConversationRepository) CreateGroup(
	ctx context.Context,
	name string,
	createdBy int64,
) (*models.Conversation, error) {
	query := `
		INSERT INTO conversations (type, group_name, created_by, last_message_at)
		VALUES ('group', $1, $2, NOW())
		RETURNING id, type, group_name, created_by,
		          last_message_id, last_message_sender_id, last_message_content, last_message_at,
		          created_at, updated_at
	`

	return r.scanConversation(r.db.QueryRow(ctx, query, name, createdBy))
}

func (r *ConversationRepository) GetByID(ctx context.Context, conversationID int64) (*models.Conversation, error) {
	query := `
		SELECT id, type, group_name, created_by,
		       last_message_id, last_message_sender_id, last_message_content, last_message_at,
		       created_at, updated_at
		FROM conversations
		WHERE id = $1
	`

	return r.scanConversation(r.db.QueryRow(ctx, query, conversationID))
}

// ListForParticipant returns the raw conversation rows for a user, newest
// activity first, each annotated with that user's own unread count.
// Participant display data is joined in afterwards by the service.
func (r *ConversationRepository) ListForParticipant(
	ctx context.Context,
	userID int64,
) ([]models.ConversationSummary, error) {
	query := `
		SELECT c.id, c.type, c.group_name, c.created_by,
		       c.last_message_id, c.last_message_sender_id, c.last_message_content, c.last_message_at,
		       c.created_at, c.updated_at,
		       p.unread_count
		FROM conversations c
		JOIN conversation_participants p ON p.conversation_id = c.id
		WHERE p.user_id = $1
		ORDER BY c.last_message_at DESC, c.id DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]models.ConversationSummary, 0)
	for rows.Next() {
		var summary models.ConversationSummary
		var snapshotID, snapshotSenderID sql.NullInt64
		var snapshotContent sql.NullString

		if err := rows.Scan(
			&summary.ID,
			&summary.Type,
			&summary.GroupName,
			&summary.CreatedBy,
			&snapshotID,
			&snapshotSenderID,
			&snapshotContent,
			&summary.LastMessageAt,
			&summary.CreatedAt,
			&summary.UpdatedAt,
			&summary.UnreadCount,
		); err != nil {
			return nil, err
		}

		if snapshotID.Valid {
			summary.LastMessage = &models.MessageSnapshot{
				ID:        snapshotID.Int64,
				SenderID:  snapshotSenderID.Int64,
				Content:   snapshotContent.String,
				CreatedAt: summary.LastMessageAt,
			}
		}

		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}

// SetLastMessage overwrites the denormalized newest-message snapshot.
func (r *ConversationRepository) SetLastMessage(
	ctx context.Context,
	conversationID int64,
	message *models.ChatMessage,
) error {
	_, err := r.db.Exec(ctx, `
		UPDATE conversations
		SET last_message_id = $2,
		    last_message_sender_id = $3,
		    last_message_content = $4,
		    last_message_at = $5,
		    updated_at = NOW()
		WHERE id = $1
	`, conversationID, message.ID, message.SenderID, message.Content, message.CreatedAt)
	return err
}

func (r *ConversationRepository) scanConversation(row interface{ Scan(dest ...any) error }) (*models.Conversation, error) {
	var conversation models.Conversation
	var snapshotID, snapshotSenderID sql.NullInt64
	var snapshotContent sql.NullString
	var lastMessageAt time.Time

	err := row.Scan(
		&conversation.ID,
		&conversation.Type,
		&conversation.GroupName,
		&conversation.CreatedBy,
		&snapshotID,
		&snapshotSenderID,
		&snapshotContent,
		&lastMessageAt,
		&conversation.CreatedAt,
		&conversation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	conversation.LastMessageAt = lastMessageAt
	if snapshotID.Valid {
		conversation.LastMessage = &models.MessageSnapshot{
			ID:        snapshotID.Int64,
			SenderID:  snapshotSenderID.Int64,
			Content:   snapshotContent.String,
			CreatedAt: lastMessageAt,
		}
	}
	return &conversation, nil
}
