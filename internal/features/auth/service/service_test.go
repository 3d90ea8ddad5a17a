package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockai-backend/internal/features/auth/models"
	"stockai-backend/internal/features/auth/repository"
	usermodels "stockai-backend/internal/features/user/models"
	userrepository "stockai-backend/internal/features/user/repository"
	userservice "stockai-backend/internal/features/user/service"
)

type fakeSessionRepo struct {
	sessions map[string]string

	deletedToken string
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]string)}
}

func (f *fakeSessionRepo) Create(ctx context.Context, session *models.Session) error {
	f.sessions[session.Token] = session.UserID
	return nil
}

func (f *fakeSessionRepo) GetUserID(ctx context.Context, token string) (string, error) {
	if userID, ok := f.sessions[token]; ok {
		return userID, nil
	}
	return "", repository.ErrSessionNotFound
}

func (f *fakeSessionRepo) Delete(ctx context.Context, token string) error {
	f.deletedToken = token
	delete(f.sessions, token)
	return nil
}

type fakeUserRepo struct {
	users map[string]*usermodels.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*usermodels.User)}
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*usermodels.User, error) {
	if user, ok := f.users[id]; ok {
		return user, nil
	}
	return nil, userrepository.ErrUserNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*usermodels.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, userrepository.ErrUserNotFound
}

func (f *fakeUserRepo) Upsert(ctx context.Context, user *usermodels.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) SetEntitlement(ctx context.Context, id string, product string) error {
	user, ok := f.users[id]
	if !ok {
		return userrepository.ErrUserNotFound
	}
	if product == "top_gainers" {
		user.IsTopGainerPaid = true
	} else {
		user.IsPredictionPaid = true
	}
	return nil
}

func (f *fakeUserRepo) ClearEntitlements(ctx context.Context, id string) error {
	user, ok := f.users[id]
	if !ok {
		return userrepository.ErrUserNotFound
	}
	user.IsPredictionPaid = false
	user.IsTopGainerPaid = false
	return nil
}

func TestLocalUserID(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"alice@example.com", "alice_example_com"},
		{"a.b@x.com", "a_b_x_com"},
		{"user+tag@mail.co.uk", "user_tag_mail_co_uk"},
		{"UPPER@Case.IO", "UPPER_Case_IO"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LocalUserID(tt.email), "email %q", tt.email)
	}
}

func TestParseLocalToken(t *testing.T) {
	email, ok := ParseLocalToken("local:alice@example.com")
	require.True(t, ok)
	assert.Equal(t, "alice@example.com", email)

	_, ok = ParseLocalToken("550e8400-e29b-41d4-a716-446655440000")
	assert.False(t, ok)

	_, ok = ParseLocalToken("local:")
	assert.False(t, ok)
}

func TestLogin_WithDatabase_IssuesSession(t *testing.T) {
	sessions := newFakeSessionRepo()
	users := userservice.NewUserService(newFakeUserRepo())
	svc := NewAuthService(sessions, users)

	token, user, err := svc.Login(context.Background(), "  Alice@Example.COM ")

	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.NotContains(t, token, "local:")
	assert.Equal(t, "alice_example_com", user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "alice", user.Name)
	assert.EqualValues(t, usermodels.DefaultBalance, user.Balance)
	assert.Equal(t, "alice_example_com", sessions.sessions[token])
}

func TestLogin_SameEmailSameUser(t *testing.T) {
	sessions := newFakeSessionRepo()
	repo := newFakeUserRepo()
	svc := NewAuthService(sessions, userservice.NewUserService(repo))

	_, first, err := svc.Login(context.Background(), "bob@example.com")
	require.NoError(t, err)
	_, second, err := svc.Login(context.Background(), "BOB@example.com")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.users, 1)
}

func TestLogin_WithoutDatabase_LocalToken(t *testing.T) {
	svc := NewAuthService(nil, userservice.NewUserService(nil))

	token, user, err := svc.Login(context.Background(), "carol@example.com")

	require.NoError(t, err)
	assert.Equal(t, "local:carol@example.com", token)
	assert.Equal(t, "carol_example_com", user.ID)
	assert.Equal(t, "carol", user.Name)
	assert.EqualValues(t, usermodels.DefaultBalance, user.Balance)
}

func TestLogin_InvalidEmail(t *testing.T) {
	svc := NewAuthService(nil, userservice.NewUserService(nil))

	for _, email := range []string{"", "   ", "not-an-email"} {
		_, _, err := svc.Login(context.Background(), email)
		assert.ErrorIs(t, err, ErrUnauthorized, "email %q", email)
	}
}

func TestResolve_DatabaseToken(t *testing.T) {
	sessions := newFakeSessionRepo()
	sessions.sessions["tok-1"] = "alice_example_com"
	svc := NewAuthService(sessions, userservice.NewUserService(nil))

	userID, err := svc.Resolve(context.Background(), "tok-1")

	require.NoError(t, err)
	assert.Equal(t, "alice_example_com", userID)
}

func TestResolve_LocalTokenFallback(t *testing.T) {
	// Even with a session store present, a local token resolves by parsing.
	svc := NewAuthService(newFakeSessionRepo(), userservice.NewUserService(nil))

	userID, err := svc.Resolve(context.Background(), "local:dave@example.com")

	require.NoError(t, err)
	assert.Equal(t, "dave_example_com", userID)
}

func TestResolve_UnknownToken(t *testing.T) {
	svc := NewAuthService(newFakeSessionRepo(), userservice.NewUserService(nil))

	_, err := svc.Resolve(context.Background(), "tok-unknown")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestLogout(t *testing.T) {
	sessions := newFakeSessionRepo()
	sessions.sessions["tok-2"] = "alice_example_com"
	svc := NewAuthService(sessions, userservice.NewUserService(nil))

	require.NoError(t, svc.Logout(context.Background(), "tok-2"))
	assert.NotContains(t, sessions.sessions, "tok-2")

	// Local tokens carry no server state.
	require.NoError(t, svc.Logout(context.Background(), "local:alice@example.com"))
}
