package repository

import (
	"context"
	"time"

	"github.com/for-everyoung12/chat-chit/internal/models"
)

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(
	ctx context.Context,
	userID int64,
	refreshToken string,
	expiresAt time.Time,
) (*models.Session, error) {
	query := `
		INSERT INTO auth_sessions (user_id, refresh_token, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, refresh_token, expires_at, created_at
	`

	var session models.Session
	err := r.db.QueryRow(ctx, query, userID, refreshToken, expiresAt).Scan(
		&session.ID,
		&session.UserID,
		&session.RefreshToken,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) GetByToken(ctx context.Context, refreshToken string) (*models.Session, error) {
	query := `
		SELECT id, user_id, refresh_token, expires_at, created_at
		FROM auth_sessions
		WHERE refresh_token = $1
	`

	var session models.Session
	err := r.db.QueryRow(ctx, query, refreshToken).Scan(
		&session.ID,
		&session.UserID,
		&session.RefreshToken,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// DeleteByToken is an idempotent no-op when the token is unknown.
func (r *SessionRepository) DeleteByToken(ctx context.Context, refreshToken string) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM auth_sessions
		WHERE refresh_token = $1
	`, refreshToken)
	return err
}

func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM auth_sessions
		WHERE expires_at < NOW()
	`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
