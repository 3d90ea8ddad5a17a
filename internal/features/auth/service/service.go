package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"stockai-backend/internal/features/auth/models"
	"stockai-backend/internal/features/auth/repository"
	usermodels "stockai-backend/internal/features/user/models"
	userservice "stockai-backend/internal/features/user/service"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
)

type AuthService interface {
	// Login gets or creates the account for email and issues a session
	// token. Without a database the token is the self-describing
	// "local:<email>" form and nothing is persisted.
	Login(ctx context.Context, email string) (token string, user *usermodels.UserResponse, err error)
	Logout(ctx context.Context, token string) error
	// Resolve maps a session credential to a user id, or ErrUnauthorized.
	Resolve(ctx context.Context, token string) (string, error)
}

type authService struct {
	sessions repository.SessionRepository
	users    userservice.UserService
}

// NewAuthService builds the auth service. sessions may be nil when no
// database is configured; only local tokens resolve then.
func NewAuthService(sessions repository.SessionRepository, users userservice.UserService) AuthService {
	return &authService{
		sessions: sessions,
		users:    users,
	}
}

func (s *authService) Login(ctx context.Context, email string) (string, *usermodels.UserResponse, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", nil, ErrUnauthorized
	}

	userID := LocalUserID(email)

	if s.sessions == nil {
		// No database: hand out a self-describing token and an ephemeral
		// account snapshot.
		return models.LocalTokenPrefix + email, localUser(email), nil
	}

	user, err := s.users.GetOrCreateByEmail(ctx, userID, email)
	if err != nil {
		return "", nil, err
	}

	token := uuid.New().String()
	session := &models.Session{Token: token, UserID: user.ID}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", nil, err
	}

	return token, userservice.ToUserResponse(user), nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" || strings.HasPrefix(token, models.LocalTokenPrefix) || s.sessions == nil {
		return nil
	}
	return s.sessions.Delete(ctx, token)
}

func (s *authService) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthorized
	}

	if s.sessions != nil && !strings.HasPrefix(token, models.LocalTokenPrefix) {
		userID, err := s.sessions.GetUserID(ctx, token)
		if err == nil {
			return userID, nil
		}
		if !errors.Is(err, repository.ErrSessionNotFound) {
			return "", err
		}
		// fall through to local-token parsing
	}

	if email, ok := ParseLocalToken(token); ok {
		return LocalUserID(email), nil
	}

	return "", ErrUnauthorized
}

// ParseLocalToken splits a "local:<email>" token into its email.
func ParseLocalToken(token string) (string, bool) {
	if !strings.HasPrefix(token, models.LocalTokenPrefix) {
		return "", false
	}
	email := token[len(models.LocalTokenPrefix):]
	if email == "" {
		return "", false
	}
	return email, true
}

// LocalUserID derives a user id from an email by replacing every character
// outside [A-Za-z0-9] with an underscore. Every decoder of local tokens must
// use this exact transform or the same person maps to different accounts.
func LocalUserID(email string) string {
	var b strings.Builder
	b.Grow(len(email))
	for i := 0; i < len(email); i++ {
		ch := email[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
			b.WriteByte(ch)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func localUser(email string) *usermodels.UserResponse {
	return &usermodels.UserResponse{
		ID:      LocalUserID(email),
		Email:   email,
		Name:    userservice.DisplayName(email),
		Balance: usermodels.DefaultBalance,
	}
}
