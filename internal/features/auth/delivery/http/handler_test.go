package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authmw "stockai-backend/internal/features/auth/middleware"
	"stockai-backend/internal/features/auth/models"
	"stockai-backend/internal/features/auth/repository"
	"stockai-backend/internal/features/auth/service"
	usermodels "stockai-backend/internal/features/user/models"
	userrepository "stockai-backend/internal/features/user/repository"
	userservice "stockai-backend/internal/features/user/service"
)

type memSessionRepo struct {
	sessions map[string]string
}

func (m *memSessionRepo) Create(ctx context.Context, session *models.Session) error {
	m.sessions[session.Token] = session.UserID
	return nil
}

func (m *memSessionRepo) GetUserID(ctx context.Context, token string) (string, error) {
	if userID, ok := m.sessions[token]; ok {
		return userID, nil
	}
	return "", repository.ErrSessionNotFound
}

func (m *memSessionRepo) Delete(ctx context.Context, token string) error {
	delete(m.sessions, token)
	return nil
}

type memUserRepo struct {
	users map[string]*usermodels.User
}

func (m *memUserRepo) GetByID(ctx context.Context, id string) (*usermodels.User, error) {
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return nil, userrepository.ErrUserNotFound
}

func (m *memUserRepo) GetByEmail(ctx context.Context, email string) (*usermodels.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, userrepository.ErrUserNotFound
}

func (m *memUserRepo) Upsert(ctx context.Context, user *usermodels.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *memUserRepo) SetEntitlement(ctx context.Context, id string, product string) error {
	user, ok := m.users[id]
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

func (m *memUserRepo) ClearEntitlements(ctx context.Context, id string) error {
	user, ok := m.users[id]
	if !ok {
		return userrepository.ErrUserNotFound
	}
	user.IsPredictionPaid = false
	user.IsTopGainerPaid = false
	return nil
}

func newAuthRouter(withDB bool) *gin.Engine {
	gin.SetMode(gin.TestMode)

	var userSvc userservice.UserService
	var authSvc service.AuthService
	if withDB {
		userSvc = userservice.NewUserService(&memUserRepo{users: make(map[string]*usermodels.User)})
		authSvc = service.NewAuthService(&memSessionRepo{sessions: make(map[string]string)}, userSvc)
	} else {
		userSvc = userservice.NewUserService(nil)
		authSvc = service.NewAuthService(nil, userSvc)
	}

	router := gin.New()
	v1 := router.Group("/api/v1")
	v1.Use(authmw.Session(authSvc))
	NewAuthHandler(authSvc, userSvc).RegisterRoutes(v1)
	return router
}

func request(t *testing.T, router *gin.Engine, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	decoded := map[string]interface{}{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

func TestLogin_CreatesUserAndSession(t *testing.T) {
	router := newAuthRouter(true)

	w, body := request(t, router, http.MethodPost, "/api/v1/auth/login", `{"email":"alice@example.com"}`, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	token, _ := body["session_token"].(string)
	require.NotEmpty(t, token)

	user := body["user"].(map[string]interface{})
	assert.Equal(t, "alice_example_com", user["id"])
	assert.Equal(t, "alice@example.com", user["email"])
	assert.EqualValues(t, usermodels.DefaultBalance, user["balance"])
	assert.Equal(t, false, user["isPredictionPaid"])

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, models.CookieName, cookies[0].Name)
	assert.Equal(t, token, cookies[0].Value)
}

func TestLogin_NoDatabase_LocalToken(t *testing.T) {
	router := newAuthRouter(false)

	w, body := request(t, router, http.MethodPost, "/api/v1/auth/login", `{"email":"bob@example.com"}`, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "local:bob@example.com", body["session_token"])
}

func TestLogin_InvalidBody(t *testing.T) {
	router := newAuthRouter(false)

	w, _ := request(t, router, http.MethodPost, "/api/v1/auth/login", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = request(t, router, http.MethodPost, "/api/v1/auth/login", `{"email":"nope"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMe_WithSession(t *testing.T) {
	router := newAuthRouter(true)

	_, loginBody := request(t, router, http.MethodPost, "/api/v1/auth/login", `{"email":"carol@example.com"}`, nil)
	token := loginBody["session_token"].(string)

	w, body := request(t, router, http.MethodGet, "/api/v1/users/me", "", map[string]string{"X-Session-Token": token})

	assert.Equal(t, http.StatusOK, w.Code)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "carol_example_com", user["id"])
}

func TestMe_LocalToken_RebuildsSnapshot(t *testing.T) {
	router := newAuthRouter(false)

	w, body := request(t, router, http.MethodGet, "/api/v1/users/me", "",
		map[string]string{"Authorization": "Bearer local:dave@example.com"})

	assert.Equal(t, http.StatusOK, w.Code)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "dave_example_com", user["id"])
	assert.Equal(t, "dave", user["name"])
}

func TestMe_NoSession401(t *testing.T) {
	router := newAuthRouter(true)

	w, _ := request(t, router, http.MethodGet, "/api/v1/users/me", "", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout_DeletesSession(t *testing.T) {
	router := newAuthRouter(true)

	_, loginBody := request(t, router, http.MethodPost, "/api/v1/auth/login", `{"email":"erin@example.com"}`, nil)
	token := loginBody["session_token"].(string)

	w, body := request(t, router, http.MethodPost, "/api/v1/auth/logout", "", map[string]string{"X-Session-Token": token})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])

	// The session no longer resolves.
	w, _ = request(t, router, http.MethodGet, "/api/v1/users/me", "", map[string]string{"X-Session-Token": token})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
