package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/library-be/internal/models"
	"github.com/shelfwise/library-be/internal/models/dto"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	t.Run("creates a student account", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/auth/register", "", map[string]string{
			"name":     "Student User",
			"email":    "Student@Example.com",
			"password": "password123",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var user models.User
		decodeData(t, resp, &user)
		assert.Equal(t, "Student User", user.Name)
		assert.Equal(t, "student@example.com", user.Email, "email is normalized")
		assert.Equal(t, models.RoleStudent, user.Role, "self registration never grants staff roles")
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/auth/register", "", map[string]string{
			"name":     "Other User",
			"email":    "student@example.com",
			"password": "password123",
		})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("rejects short password", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/auth/register", "", map[string]string{
			"name":     "Short Password",
			"email":    "short@example.com",
			"password": "short",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/auth/register", "", map[string]string{
			"name":     "Bad Email",
			"email":    "not-an-email",
			"password": "password123",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.seedUser(t, "Login User", "login@example.com", models.RoleStudent)

	t.Run("valid credentials return a usable token", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
			"email":    "login@example.com",
			"password": "password123",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var out dto.LoginResponse
		decodeData(t, resp, &out)
		require.NotEmpty(t, out.Token)
		assert.Equal(t, user.ID, out.User.ID)

		profile := env.do(t, http.MethodGet, "/api/profile", out.Token, nil)
		assert.Equal(t, http.StatusOK, profile.StatusCode)
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
			"email":    "login@example.com",
			"password": "wrong-password",
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("unknown email is unauthorized, not 404", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
			"email":    "nobody@example.com",
			"password": "password123",
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestProfileRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
