package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"emlak-backend/internal/apperr"
	"emlak-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserStore) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserStore) CreateUser(ctx context.Context, u *models.User) error {
	args := m.Called(ctx, u)
	u.ID = 42
	return args.Error(0)
}

func (m *MockUserStore) CountUsersByRole(ctx context.Context, role models.UserRole) (int64, error) {
	args := m.Called(ctx, role)
	return args.Get(0).(int64), args.Error(1)
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	body := decode(t, resp)
	assert.Equal(t, false, body["success"])
	return body["error"].(map[string]any)["code"].(string)
}

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager(testSecret, time.Hour)
	token, err := m.GenerateToken(&models.User{ID: 5, Email: "a@b.c", Role: models.RoleAdvisor})
	require.NoError(t, err)

	id, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(5), id.UserID)
	assert.Equal(t, models.RoleAdvisor, id.Role)
}

func TestJWTManager_Rejects(t *testing.T) {
	m := NewJWTManager(testSecret, time.Hour)

	t.Run("expired", func(t *testing.T) {
		old := NewJWTManager(testSecret, time.Hour)
		old.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, err := old.GenerateToken(&models.User{ID: 1, Role: models.RoleUser})
		require.NoError(t, err)
		_, err = m.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidCredential)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTManager("ffffffffffffffffffffffffffffffff", time.Hour)
		token, err := other.GenerateToken(&models.User{ID: 1, Role: models.RoleUser})
		require.NoError(t, err)
		_, err = m.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidCredential)
	})

	t.Run("unknown role", func(t *testing.T) {
		token, err := m.GenerateToken(&models.User{ID: 1, Role: "consultant"})
		require.NoError(t, err)
		_, err = m.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidCredential)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Verify("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidCredential)
	})
}

func TestResolver_Resolve(t *testing.T) {
	m := NewJWTManager(testSecret, time.Hour)
	r := NewResolver(m)
	token, err := m.GenerateToken(&models.User{ID: 9, Role: models.RoleAdmin})
	require.NoError(t, err)

	id, err := r.Resolve("")
	assert.NoError(t, err)
	assert.Nil(t, id, "absent credential resolves to anonymous")

	id, err = r.Resolve("Bearer " + token)
	require.NoError(t, err)
	assert.True(t, id.IsAdmin())

	_, err = r.Resolve("Bearer broken")
	assert.True(t, apperr.Is(err, apperr.CodeUnauthorized))

	_, err = r.Resolve("Basic " + token)
	assert.True(t, apperr.Is(err, apperr.CodeUnauthorized))
}

func TestIdentityHelpers(t *testing.T) {
	var anon *Identity
	assert.True(t, anon.IsAnonymous())
	assert.False(t, anon.IsAdmin())
	assert.False(t, anon.Is(1))

	adv := &Identity{UserID: 3, Role: models.RoleAdvisor}
	assert.True(t, adv.IsAdvisor())
	assert.True(t, adv.Is(3))
	assert.False(t, adv.Is(0))
}

func newTestApp(m *JWTManager, handlers ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apperr.WriteError})
	app.Use(ResolveIdentity(NewResolver(m)))
	app.Get("/open", func(c *fiber.Ctx) error {
		if id := IdentityFrom(c); id != nil {
			return c.SendString("user")
		}
		return c.SendString("anon")
	})
	app.Get("/closed", append(handlers, func(c *fiber.Ctx) error { return c.SendString("ok") })...)
	return app
}

func TestMiddleware(t *testing.T) {
	m := NewJWTManager(testSecret, time.Hour)
	userToken, _ := m.GenerateToken(&models.User{ID: 1, Role: models.RoleUser})
	adminToken, _ := m.GenerateToken(&models.User{ID: 2, Role: models.RoleAdmin})

	app := newTestApp(m, RequireRole(models.RoleAdmin))

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "anon", string(body))

	req = httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("Authorization", "Bearer expired.or.invalid")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, apperr.CodeUnauthorized, errorCode(t, resp))

	req = httptest.NewRequest(http.MethodGet, "/closed", nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/closed", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, apperr.CodeForbidden, errorCode(t, resp))

	req = httptest.NewRequest(http.MethodGet, "/closed", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLoginHandler(t *testing.T) {
	m := NewJWTManager(testSecret, time.Hour)
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{ID: 11, Name: "Ayşe", Email: "ayse@emlak.test", PasswordHash: string(hash), Role: models.RoleAdvisor}

	store := new(MockUserStore)
	store.On("FindUserByEmail", mock.Anything, "ayse@emlak.test").Return(user, nil)
	store.On("FindUserByEmail", mock.Anything, "nobody@emlak.test").Return(nil, ErrUserNotFound)

	app := fiber.New(fiber.Config{ErrorHandler: apperr.WriteError})
	app.Post("/login", LoginHandler(store, m))

	post := func(body string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	resp := post(`{"email":" Ayse@Emlak.test ","password":"correct-horse"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data := decode(t, resp)["data"].(map[string]any)
	id, err := m.Verify(data["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, uint(11), id.UserID)

	resp = post(`{"email":"ayse@emlak.test","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = post(`{"email":"nobody@emlak.test","password":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	store.AssertExpectations(t)
}

func TestRegisterHandler(t *testing.T) {
	m := NewJWTManager(testSecret, time.Hour)
	store := new(MockUserStore)
	store.On("FindUserByEmail", mock.Anything, "new@emlak.test").Return(nil, ErrUserNotFound)
	store.On("FindUserByEmail", mock.Anything, "taken@emlak.test").Return(&models.User{ID: 1}, nil)
	store.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.Role == models.RoleUser && u.PasswordHash != "secret-pass"
	})).Return(nil)

	app := fiber.New(fiber.Config{ErrorHandler: apperr.WriteError})
	app.Post("/register", RegisterHandler(store, m))

	post := func(body string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	resp := post(`{"name":"Mehmet","email":"new@emlak.test","password":"secret-pass"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = post(`{"name":"Mehmet","email":"taken@emlak.test","password":"secret-pass"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apperr.CodeValidation, errorCode(t, resp))

	resp = post(`{"name":"","email":"x@emlak.test","password":"secret-pass"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBootstrapAdminOnlyOnce(t *testing.T) {
	store := new(MockUserStore)
	store.On("CountUsersByRole", mock.Anything, models.RoleAdmin).Return(int64(1), nil)

	app := fiber.New(fiber.Config{ErrorHandler: apperr.WriteError})
	app.Post("/bootstrap", BootstrapAdminHandler(store))

	req := httptest.NewRequest(http.MethodPost, "/bootstrap", strings.NewReader(`{"name":"a","email":"a@b.c","password":"12345678"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestLoginLimiter(t *testing.T) {
	l := NewLoginLimiter(2)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("1.2.3.4"))
	assert.True(t, l.allow("1.2.3.4"))
	assert.False(t, l.allow("1.2.3.4"))
	assert.True(t, l.allow("5.6.7.8"), "limits are per client")

	now = now.Add(time.Minute)
	assert.True(t, l.allow("1.2.3.4"), "bucket refills over time")
}
