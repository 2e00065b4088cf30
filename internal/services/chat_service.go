package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/for-everyoung12/chat-chit/internal/models"
	"github.com/for-everyoung12/chat-chit/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/for-everyoung12/chat-chit/pkg/utils"
)

var ErrConversationNotFound = errors.New("conversation not found")

type userReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type conversationStore interface {
	GetByID(ctx context.Context, conversationID int64) (*models.Conversation, error)
	ListForParticipant(ctx context.Context, userID int64) ([]models.ConversationSummary, error)
}

type participantStore interface {
	IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error)
	ListIDs(ctx context.Context, conversationID int64) ([]int64, error)
	ListByConversations(ctx context.Context, conversationIDs []int64) (map[int64][]models.Participant, error)
	MarkSeen(ctx context.Context, conversationID, userID int64) error
}

type messageStore interface {
	ListBefore(ctx context.Context, conversationID int64, before *time.Time, limit int) ([]models.ChatMessage, error)
}

type ChatService struct {
	db               *pgxpool.Pool
	conversationRepo conversationStore
	participantRepo  participantStore
	messageRepo      messageStore
	userRepo         userReader
}

// ChatDelivery carries an appended message plus the participant ids the
// realtime layer should fan it out to.
type ChatDelivery struct {
	Conversation *models.Conversation
	Message      *models.ChatMessage
	RecipientIDs []int64
}

func NewChatService(
	db *pgxpool.Pool,
	conversationRepo conversationStore,
	participantRepo participantStore,
	messageRepo messageStore,
	userRepo userReader,
) *ChatService {
	return &ChatService{
		db:               db,
		conversationRepo: conversationRepo,
		participantRepo:  participantRepo,
		messageRepo:      messageRepo,
		userRepo:         userRepo,
	}
}

// CreateDirect is idempotent: both argument orders resolve to the same
// canonical pair, and the storage-level unique index guarantees a single
// conversation per pair even under concurrent creation.
func (s *ChatService) CreateDirect(ctx context.Context, userID, peerID int64) (*models.Conversation, error) {
	if peerID <= 0 || peerID == userID {
		return nil, ErrInvalidInput
	}

	if _, err := s.userRepo.GetByID(ctx, peerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	userA, userB := utils.CanonicalPair(userID, peerID)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txConversationRepo := repository.NewConversationRepository(tx)
	txParticipantRepo := repository.NewParticipantRepository(tx)

	conversation, err := txConversationRepo.CreateOrGetDirect(ctx, userA, userB)
	if err != nil {
		return nil, err
	}

	if err := txParticipantRepo.Add(ctx, conversation.ID, userA); err != nil {
		return nil, err
	}
	if err := txParticipantRepo.Add(ctx, conversation.ID, userB); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return conversation, nil
}

// CreateGroup adds the creator plus every listed member. Duplicate member ids
// collapse onto one participant row each.
func (s *ChatService) CreateGroup(
	ctx context.Context,
	creatorID int64,
	name string,
	memberIDs []int64,
) (*models.Conversation, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(memberIDs) == 0 {
		return nil, ErrInvalidInput
	}
	for _, memberID := range memberIDs {
		if memberID <= 0 {
			return nil, ErrInvalidInput
		}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txConversationRepo := repository.NewConversationRepository(tx)
	txParticipantRepo := repository.NewParticipantRepository(tx)

	conversation, err := txConversationRepo.CreateGroup(ctx, name, creatorID)
	if err != nil {
		return nil, err
	}

	if err := txParticipantRepo.Add(ctx, conversation.ID, creatorID); err != nil {
		return nil, err
	}
	for _, memberID := range memberIDs {
		if err := txParticipantRepo.Add(ctx, conversation.ID, memberID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return conversation, nil
}

// ListConversations returns the caller's conversations newest-activity first,
// each with the caller's own unread count and resolved participant display
// data. The participant join happens after the raw fetch, in one batch.
func (s *ChatService) ListConversations(ctx context.Context, userID int64) ([]models.ConversationSummary, error) {
	summaries, err := s.conversationRepo.ListForParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}

	conversationIDs := make([]int64, 0, len(summaries))
	for _, summary := range summaries {
		conversationIDs = append(conversationIDs, summary.ID)
	}

	participants, err := s.participantRepo.ListByConversations(ctx, conversationIDs)
	if err != nil {
		return nil, err
	}

	for i := range summaries {
		members := participants[summaries[i].ID]
		summaries[i].Participants = members
		seenBy := make([]int64, 0)
		for _, member := range members {
			if member.SeenLast {
				seenBy = append(seenBy, member.UserID)
			}
		}
		summaries[i].SeenBy = seenBy
	}

	return summaries, nil
}

// SendMessage appends to the conversation's message log and, in the same
// transaction, overwrites the last-message snapshot and applies the unread
// bookkeeping: sender to zero, every other participant incremented, seen set
// cleared.
func (s *ChatService) SendMessage(
	ctx context.Context,
	conversationID int64,
	senderID int64,
	content string,
) (*ChatDelivery, error) {
	if conversationID <= 0 {
		return nil, ErrInvalidInput
	}
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, ErrInvalidInput
	}

	conversation, err := s.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}

	isMember, err := s.participantRepo.IsParticipant(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrForbidden
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txMessageRepo := repository.NewMessageRepository(tx)
	txConversationRepo := repository.NewConversationRepository(tx)
	txParticipantRepo := repository.NewParticipantRepository(tx)

	message, err := txMessageRepo.Create(ctx, conversationID, senderID, trimmed)
	if err != nil {
		return nil, err
	}

	if err := txConversationRepo.SetLastMessage(ctx, conversationID, message); err != nil {
		return nil, err
	}

	if err := txParticipantRepo.ApplyMessage(ctx, conversationID, senderID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	participantIDs, err := s.participantRepo.ListIDs(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	recipients := make([]int64, 0, len(participantIDs))
	for _, id := range participantIDs {
		if id != senderID {
			recipients = append(recipients, id)
		}
	}

	conversation.LastMessage = &models.MessageSnapshot{
		ID:        message.ID,
		SenderID:  message.SenderID,
		Content:   message.Content,
		CreatedAt: message.CreatedAt,
	}
	conversation.LastMessageAt = message.CreatedAt

	return &ChatDelivery{
		Conversation: conversation,
		Message:      message,
		RecipientIDs: recipients,
	}, nil
}

// GetMessages pages through the log newest-first with an exclusive created_at
// cursor, then reverses the page to chronological order. It fetches one row
// beyond the limit to learn whether more history exists; when it does, the
// next cursor is the timestamp of the oldest row actually returned, so the
// following call resumes exactly below it with no duplicates or gaps.
func (s *ChatService) GetMessages(
	ctx context.Context,
	conversationID int64,
	actorID int64,
	limit int,
	cursor *time.Time,
) ([]models.ChatMessage, *time.Time, error) {
	if conversationID <= 0 || limit <= 0 {
		return nil, nil, ErrInvalidInput
	}

	if _, err := s.conversationRepo.GetByID(ctx, conversationID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrConversationNotFound
		}
		return nil, nil, err
	}

	isMember, err := s.participantRepo.IsParticipant(ctx, conversationID, actorID)
	if err != nil {
		return nil, nil, err
	}
	if !isMember {
		return nil, nil, ErrForbidden
	}

	messages, err := s.messageRepo.ListBefore(ctx, conversationID, cursor, limit+1)
	if err != nil {
		return nil, nil, err
	}

	var nextCursor *time.Time
	if len(messages) > limit {
		messages = messages[:limit]
		next := messages[limit-1].CreatedAt
		nextCursor = &next
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nextCursor, nil
}

// MarkSeen acknowledges the current last message for the acting participant.
func (s *ChatService) MarkSeen(ctx context.Context, conversationID, actorID int64) error {
	if conversationID <= 0 {
		return ErrInvalidInput
	}

	if _, err := s.conversationRepo.GetByID(ctx, conversationID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrConversationNotFound
		}
		return err
	}

	isMember, err := s.participantRepo.IsParticipant(ctx, conversationID, actorID)
	if err != nil {
		return err
	}
	if !isMember {
		return ErrForbidden
	}

	return s.participantRepo.MarkSeen(ctx, conversationID, actorID)
}

func FormatChatTimestamp(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339Nano)
}
