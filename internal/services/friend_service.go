package services

import (
	"context"
	"errors"

	"github.com/for-everyoung12/chat-chit/internal/models"
	"github.com/for-everyoung12/chat-chit/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/for-everyoung12/chat-chit/pkg/utils"
)

var (
	ErrSelfRequest     = errors.New("cannot send a friend request to yourself")
	ErrAlreadyFriends  = errors.New("already friends")
	ErrRequestPending  = errors.New("friend request already pending")
	ErrRequestNotFound = errors.New("friend request not found")
)

type friendStore interface {
	CreateRequest(ctx context.Context, fromUserID, toUserID int64, message *string) (*models.FriendRequest, error)
	GetRequestByID(ctx context.Context, requestID int64) (*models.FriendRequest, error)
	DeleteRequest(ctx context.Context, requestID int64) (bool, error)
	PendingRequestExists(ctx context.Context, userID, otherID int64) (bool, error)
	FriendshipExists(ctx context.Context, userA, userB int64) (bool, error)
	ListFriendsOf(ctx context.Context, userID int64) ([]models.PublicUser, error)
	ListSentRequests(ctx context.Context, userID int64) ([]models.SentFriendRequest, error)
	ListReceivedRequests(ctx context.Context, userID int64) ([]models.ReceivedFriendRequest, error)
}

// FriendService drives the per-pair state machine:
// no relation -> pending (either direction) -> friends, with friends terminal.
type FriendService struct {
	db         *pgxpool.Pool
	friendRepo friendStore
	userRepo   userReader
}

func NewFriendService(db *pgxpool.Pool, friendRepo friendStore, userRepo userReader) *FriendService {
	return &FriendService{
		db:         db,
		friendRepo: friendRepo,
		userRepo:   userRepo,
	}
}

func (s *FriendService) SendRequest(
	ctx context.Context,
	fromUserID int64,
	toUserID int64,
	message *string,
) (*models.FriendRequest, error) {
	if toUserID <= 0 {
		return nil, ErrInvalidInput
	}
	if fromUserID == toUserID {
		return nil, ErrSelfRequest
	}

	if _, err := s.userRepo.GetByID(ctx, toUserID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	userA, userB := utils.CanonicalPair(fromUserID, toUserID)

	alreadyFriends, err := s.friendRepo.FriendshipExists(ctx, userA, userB)
	if err != nil {
		return nil, err
	}
	if alreadyFriends {
		return nil, ErrAlreadyFriends
	}

	pending, err := s.friendRepo.PendingRequestExists(ctx, fromUserID, toUserID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, ErrRequestPending
	}

	request, err := s.friendRepo.CreateRequest(ctx, fromUserID, toUserID, message)
	if err != nil {
		// A concurrent request for the same pair loses the insert race on the
		// canonical-pair unique index; surface it as the pending conflict.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrRequestPending
		}
		return nil, err
	}
	return request, nil
}

// AcceptRequest converts a pending request into a friendship at the canonical
// pair, atomically with deleting the request, and returns the requester's
// public profile.
func (s *FriendService) AcceptRequest(ctx context.Context, requestID, actorID int64) (*models.PublicUser, error) {
	request, err := s.friendRepo.GetRequestByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if request.ToUserID != actorID {
		return nil, ErrForbidden
	}

	userA, userB := utils.CanonicalPair(request.FromUserID, request.ToUserID)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txFriendRepo := repository.NewFriendRepository(tx)

	if _, err := txFriendRepo.CreateFriendship(ctx, userA, userB); err != nil {
		return nil, err
	}

	deleted, err := txFriendRepo.DeleteRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, ErrRequestNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	requester, err := s.userRepo.GetByID(ctx, request.FromUserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	public := requester.Public()
	return &public, nil
}

func (s *FriendService) DeclineRequest(ctx context.Context, requestID, actorID int64) error {
	request, err := s.friendRepo.GetRequestByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrRequestNotFound
		}
		return err
	}
	if request.ToUserID != actorID {
		return ErrForbidden
	}

	deleted, err := s.friendRepo.DeleteRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrRequestNotFound
	}
	return nil
}

func (s *FriendService) ListFriends(ctx context.Context, userID int64) ([]models.PublicUser, error) {
	return s.friendRepo.ListFriendsOf(ctx, userID)
}

func (s *FriendService) ListRequests(ctx context.Context, userID int64) (*models.FriendRequestList, error) {
	sent, err := s.friendRepo.ListSentRequests(ctx, userID)
	if err != nil {
		return nil, err
	}

	received, err := s.friendRepo.ListReceivedRequests(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &models.FriendRequestList{Sent: sent, Received: received}, nil
}

// IsFriend reports whether the two users share a friendship row, regardless
// of argument order.
func (s *FriendService) IsFriend(ctx context.Context, userID, otherID int64) (bool, error) {
	userA, userB := utils.CanonicalPair(userID, otherID)
	return s.friendRepo.FriendshipExists(ctx, userA, userB)
}
