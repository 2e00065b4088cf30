package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/for-everyoung12/chat-chit/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/for-everyoung12/chat-chit/pkg/utils"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
)

// RefreshTokenTTL bounds a session row; the refresh token inside it is reused
// as-is until then. Rotation-on-use is an explicit non-feature of this policy.
const RefreshTokenTTL = 14 * 24 * time.Hour

type userStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type sessionStore interface {
	Create(ctx context.Context, userID int64, refreshToken string, expiresAt time.Time) (*models.Session, error)
	GetByToken(ctx context.Context, refreshToken string) (*models.Session, error)
	DeleteByToken(ctx context.Context, refreshToken string) error
}

type AuthService struct {
	userRepo    userStore
	sessionRepo sessionStore
	jwtSecret   string
}

func NewAuthService(userRepo userStore, sessionRepo sessionStore, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		jwtSecret:   jwtSecret,
	}
}

type SignUpInput struct {
	Username  string
	Password  string
	Email     string
	FirstName string
	LastName  string
}

type SignInResult struct {
	User             *models.User
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

func (s *AuthService) SignUp(ctx context.Context, input SignUpInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	if username == "" || input.Password == "" || email == "" || firstName == "" || lastName == "" {
		return nil, ErrInvalidInput
	}

	existing, err := s.userRepo.GetByUsername(ctx, username)
	if err == nil && existing != nil {
		return nil, ErrConflict
	}
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hashed,
		Email:        email,
		DisplayName:  lastName + " " + firstName,
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrConflict
		}
		return nil, err
	}

	return user, nil
}

// SignIn reports the same error for an unknown username and a wrong password
// so callers cannot probe which usernames exist. Every sign-in creates an
// independent session; none of the user's other sessions are revoked.
func (s *AuthService) SignIn(ctx context.Context, username, password string) (*SignInResult, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !utils.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := utils.GenerateToken(strconv.FormatInt(user.ID, 10), s.jwtSecret)
	if err != nil {
		return nil, err
	}

	refreshToken, err := utils.NewRefreshToken()
	if err != nil {
		return nil, err
	}

	session, err := s.sessionRepo.Create(ctx, user.ID, refreshToken, time.Now().Add(RefreshTokenTTL))
	if err != nil {
		return nil, err
	}

	return &SignInResult{
		User:             user,
		AccessToken:      accessToken,
		RefreshToken:     session.RefreshToken,
		RefreshExpiresAt: session.ExpiresAt,
	}, nil
}

// Refresh exchanges a live session's refresh token for a new access token.
// The refresh token itself is not rotated; the same opaque value stays valid
// until the session's original expiry.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", ErrSessionNotFound
	}

	session, err := s.sessionRepo.GetByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrSessionNotFound
		}
		return "", err
	}

	if session.ExpiresAt.Before(time.Now()) {
		return "", ErrSessionExpired
	}

	return utils.GenerateToken(strconv.FormatInt(session.UserID, 10), s.jwtSecret)
}

func (s *AuthService) SignOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.sessionRepo.DeleteByToken(ctx, refreshToken)
}

func (s *AuthService) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
