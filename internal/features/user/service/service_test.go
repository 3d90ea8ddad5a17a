package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockai-backend/internal/features/user/models"
	"stockai-backend/internal/features/user/repository"
)

type memRepo struct {
	users map[string]*models.User

	upserted *models.User
}

func newMemRepo(users ...*models.User) *memRepo {
	repo := &memRepo{users: make(map[string]*models.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (m *memRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *memRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memRepo) Upsert(ctx context.Context, user *models.User) error {
	m.upserted = user
	m.users[user.ID] = user
	return nil
}

func (m *memRepo) SetEntitlement(ctx context.Context, id string, product string) error {
	user, ok := m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	if product == "top_gainers" {
		user.IsTopGainerPaid = true
	} else {
		user.IsPredictionPaid = true
	}
	return nil
}

func (m *memRepo) ClearEntitlements(ctx context.Context, id string) error {
	user, ok := m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.IsPredictionPaid = false
	user.IsTopGainerPaid = false
	return nil
}

func TestGetOrCreateByEmail_NewUserDefaults(t *testing.T) {
	repo := newMemRepo()
	svc := NewUserService(repo)

	user, err := svc.GetOrCreateByEmail(context.Background(), "alice_example_com", "alice@example.com")

	require.NoError(t, err)
	assert.Equal(t, "alice_example_com", user.ID)
	assert.Equal(t, "alice", user.Name)
	assert.EqualValues(t, models.DefaultBalance, user.Balance)
	assert.False(t, user.IsPredictionPaid)
	assert.False(t, user.IsTopGainerPaid)
	require.NotNil(t, repo.upserted)
}

func TestGetOrCreateByEmail_ExistingUserKeepsFlags(t *testing.T) {
	repo := newMemRepo(&models.User{
		ID:               "bob_example_com",
		Email:            "bob@example.com",
		Balance:          42000,
		IsPredictionPaid: true,
	})
	svc := NewUserService(repo)

	user, err := svc.GetOrCreateByEmail(context.Background(), "bob_example_com", "bob@example.com")

	require.NoError(t, err)
	assert.True(t, user.IsPredictionPaid)
	assert.EqualValues(t, 42000, user.Balance)
	assert.Nil(t, repo.upserted, "an existing user must not be rewritten on login")
}

func TestGetOrCreateByEmail_FindsExistingByEmail(t *testing.T) {
	// The stored id differs from the derived one; the email match wins and
	// no duplicate account appears.
	repo := newMemRepo(&models.User{
		ID:              "legacy-id-42",
		Email:           "erin@example.com",
		IsTopGainerPaid: true,
	})
	svc := NewUserService(repo)

	user, err := svc.GetOrCreateByEmail(context.Background(), "erin_example_com", "erin@example.com")

	require.NoError(t, err)
	assert.Equal(t, "legacy-id-42", user.ID)
	assert.True(t, user.IsTopGainerPaid)
	assert.Nil(t, repo.upserted)
	assert.Len(t, repo.users, 1)
}

func TestHasAccess_PerProduct(t *testing.T) {
	repo := newMemRepo(&models.User{ID: "carol_example_com", IsTopGainerPaid: true})
	svc := NewUserService(repo)

	hasTop, err := svc.HasAccess(context.Background(), "carol_example_com", "top_gainers")
	require.NoError(t, err)
	assert.True(t, hasTop)

	hasPred, err := svc.HasAccess(context.Background(), "carol_example_com", "predictions")
	require.NoError(t, err)
	assert.False(t, hasPred)
}

func TestGrantAndRevoke(t *testing.T) {
	repo := newMemRepo(&models.User{ID: "dave_example_com"})
	svc := NewUserService(repo)

	require.NoError(t, svc.GrantAccess(context.Background(), "dave_example_com", "predictions"))
	require.NoError(t, svc.GrantAccess(context.Background(), "dave_example_com", "top_gainers"))
	assert.True(t, repo.users["dave_example_com"].IsPredictionPaid)
	assert.True(t, repo.users["dave_example_com"].IsTopGainerPaid)

	require.NoError(t, svc.RevokeAccess(context.Background(), "dave_example_com"))
	assert.False(t, repo.users["dave_example_com"].IsPredictionPaid)
	assert.False(t, repo.users["dave_example_com"].IsTopGainerPaid)
}

func TestNilRepository_NoDatabase(t *testing.T) {
	svc := NewUserService(nil)

	_, err := svc.GetUser(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNoDatabase)

	_, err = svc.HasAccess(context.Background(), "x", "predictions")
	assert.ErrorIs(t, err, ErrNoDatabase)

	assert.ErrorIs(t, svc.GrantAccess(context.Background(), "x", "predictions"), ErrNoDatabase)
	assert.ErrorIs(t, svc.RevokeAccess(context.Background(), "x"), ErrNoDatabase)
}

func TestGetUser_NotFound(t *testing.T) {
	svc := NewUserService(newMemRepo())

	_, err := svc.GetUser(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "alice", DisplayName("alice@example.com"))
	assert.Equal(t, "a.b", DisplayName("a.b@x.com"))
	assert.Equal(t, "plain", DisplayName("plain"))
}
