package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fixara/fixara-be/internal/models"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.ProProfile{},
		&models.Job{},
		&models.Bid{},
		&models.Review{},
	))
	return db
}

func authApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db := setupDB(t)
	h := &AuthHandler{DB: db, JWTSecret: "test-secret", Expires: 60}

	app := fiber.New()
	app.Post("/auth/register", h.Register)
	app.Post("/auth/login", h.Login)
	app.Post("/auth/logout", h.Logout)
	return app, db
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}) *http.Response {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == "fx_token" {
			return c
		}
	}
	return nil
}

func TestRegisterClient(t *testing.T) {
	app, db := authApp(t)

	resp := postJSON(t, app, "/auth/register", fiber.Map{
		"name":     "Dana",
		"email":    "Dana@Example.com",
		"password": "secret123",
		"role":     "client",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	cookie := sessionCookie(resp)
	require.NotNil(t, cookie, "register must set the session cookie")
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)

	var u models.User
	require.NoError(t, db.Where("email = ?", "dana@example.com").First(&u).Error)
	assert.Equal(t, models.RoleClient, u.Role)
	assert.NotEqual(t, "secret123", u.Password, "password must be stored hashed")

	// clients do not get a pro profile
	var count int64
	require.NoError(t, db.Model(&models.ProProfile{}).Where("user_id = ?", u.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRegisterProCreatesProfile(t *testing.T) {
	app, db := authApp(t)

	resp := postJSON(t, app, "/auth/register", fiber.Map{
		"name":     "Piotr",
		"email":    "piotr@example.com",
		"password": "secret123",
		"role":     "pro",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var u models.User
	require.NoError(t, db.Where("email = ?", "piotr@example.com").First(&u).Error)

	var profile models.ProProfile
	require.NoError(t, db.Where("user_id = ?", u.ID).First(&profile).Error)
	assert.Zero(t, profile.CompletedJobsCount)
}

func TestRegisterValidation(t *testing.T) {
	app, _ := authApp(t)

	tests := []struct {
		name  string
		body  fiber.Map
		field string
	}{
		{"missing name", fiber.Map{"email": "a@b.com", "password": "secret123", "role": "client"}, "name"},
		{"bad email", fiber.Map{"name": "A", "email": "not-an-email", "password": "secret123", "role": "client"}, "email"},
		{"short password", fiber.Map{"name": "A", "email": "a@b.com", "password": "abc", "role": "client"}, "password"},
		{"bad role", fiber.Map{"name": "A", "email": "a@b.com", "password": "secret123", "role": "admin"}, "role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, app, "/auth/register", tt.body)
			require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

			body := decodeBody(t, resp)
			errs, ok := body["errors"].(map[string]interface{})
			require.True(t, ok, "expected per-field errors")
			assert.Contains(t, errs, tt.field)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	app, _ := authApp(t)

	body := fiber.Map{"name": "Dana", "email": "dana@example.com", "password": "secret123", "role": "client"}
	resp := postJSON(t, app, "/auth/register", body)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = postJSON(t, app, "/auth/register", body)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	out := decodeBody(t, resp)
	errs, ok := out["errors"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, errs, "email")
}

func TestLogin(t *testing.T) {
	app, db := authApp(t)

	resp := postJSON(t, app, "/auth/register", fiber.Map{
		"name": "Dana", "email": "dana@example.com", "password": "secret123", "role": "client",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = postJSON(t, app, "/auth/login", fiber.Map{"email": "dana@example.com", "password": "secret123"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NotNil(t, sessionCookie(resp))

	resp = postJSON(t, app, "/auth/login", fiber.Map{"email": "dana@example.com", "password": "wrong"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = postJSON(t, app, "/auth/login", fiber.Map{"email": "nobody@example.com", "password": "secret123"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// deactivated accounts cannot sign in
	require.NoError(t, db.Model(&models.User{}).
		Where("email = ?", "dana@example.com").
		Update("is_active", false).Error)
	resp = postJSON(t, app, "/auth/login", fiber.Map{"email": "dana@example.com", "password": "secret123"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestLogoutClearsCookie(t *testing.T) {
	app, _ := authApp(t)

	resp := postJSON(t, app, "/auth/logout", fiber.Map{})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	cookie := sessionCookie(resp)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value, "logout must blank the session cookie")
}
