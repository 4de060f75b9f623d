package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"accord/internal/auth"
	"accord/internal/middleware"
	"accord/internal/models"
	"accord/internal/repositories"
	"accord/internal/services/account"
	"accord/internal/services/lockout"
	"accord/internal/services/notification"
	"accord/internal/services/token"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "StrongP@ss123"

type testEnv struct {
	app      *fiber.App
	accounts account.Service
	repo     repositories.UserRepository
	tokens   *auth.TokenIssuer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := repositories.NewMemoryUserRepository()
	accounts := account.NewService(
		repo,
		lockout.NewPolicy(repo, 5, time.Hour),
		token.NewLifecycle(48*time.Hour),
		notification.NewService(),
	)
	tokens := auth.NewTokenIssuer("test-secret", "accord-api", 30*time.Minute)

	authHandler := NewAuthHandler(accounts, tokens)
	userHandler := NewUserHandler(accounts)
	adminHandler := NewAdminHandler(accounts)
	authMiddleware := middleware.NewAuthMiddleware(tokens)

	app := fiber.New()
	app.Post("/register/", userHandler.Register)
	app.Post("/login/", authHandler.Login)
	app.Get("/verify-email/:id/:token", authHandler.VerifyEmail)
	app.Post("/request-verification-email/", authHandler.RequestVerificationEmail)

	profile := app.Group("/profile", authMiddleware.Handler)
	profile.Get("/", middleware.RequireCapability(models.CapabilityProfileRead), userHandler.GetProfile)
	profile.Put("/", middleware.RequireCapability(models.CapabilityProfileWrite), userHandler.UpdateProfile)
	profile.Post("/reset-password", middleware.RequireCapability(models.CapabilityChangePassword), userHandler.ResetPassword)

	users := app.Group("/users", authMiddleware.Handler, middleware.RequireCapability(models.CapabilityUsersManage))
	users.Get("/", adminHandler.ListUsers)
	users.Get("/:id", adminHandler.GetUser)
	users.Put("/:id", adminHandler.UpdateUser)
	users.Delete("/:id", adminHandler.DeleteUser)
	users.Put("/:id/professional-status", adminHandler.UpdateProfessionalStatus)
	users.Put("/:id/unlock", adminHandler.UnlockUser)

	return &testEnv{app: app, accounts: accounts, repo: repo, tokens: tokens}
}

func (e *testEnv) request(t *testing.T, method, path string, body interface{}, bearer string) (*http.Response, map[string]interface{}) {
	t.Helper()

	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := e.app.Test(req, 10000)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var decoded map[string]interface{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp, decoded
}

func (e *testEnv) register(t *testing.T, email, username string) *models.User {
	t.Helper()
	user, err := e.accounts.Register(context.Background(), account.RegisterInput{
		Email:    email,
		Username: username,
		Password: testPassword,
	})
	require.NoError(t, err)
	return user
}

func (e *testEnv) bearerFor(t *testing.T, user *models.User) string {
	t.Helper()
	tok, err := e.tokens.IssueToken(user)
	require.NoError(t, err)
	return tok
}

func TestRegisterEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.request(t, "POST", "/register/", fiber.Map{
		"email":    "first@example.com",
		"username": "first",
		"password": testPassword,
	}, "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "ADMIN", body["role"], "first registrant bootstraps as admin")

	resp, body = env.request(t, "POST", "/register/", fiber.Map{
		"email":    "first@example.com",
		"username": "other",
		"password": testPassword,
	}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Email already exists", body["error"])

	resp, body = env.request(t, "POST", "/register/", fiber.Map{
		"email":    "weak@example.com",
		"username": "weak",
		"password": "password",
	}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Password does not meet strength requirements", body["error"])
}

func TestLoginRejectionsAreUniform(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "admin@example.com", "admin")
	env.register(t, "pending@example.com", "pending") // unverified

	// Wrong password and unverified email produce the identical response.
	resp1, body1 := env.request(t, "POST", "/login/", fiber.Map{
		"email": "admin@example.com", "password": "WrongP@ss123",
	}, "")
	resp2, body2 := env.request(t, "POST", "/login/", fiber.Map{
		"email": "pending@example.com", "password": testPassword,
	}, "")
	resp3, body3 := env.request(t, "POST", "/login/", fiber.Map{
		"email": "ghost@example.com", "password": testPassword,
	}, "")

	assert.Equal(t, http.StatusUnauthorized, resp1.StatusCode)
	assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)
	assert.Equal(t, http.StatusUnauthorized, resp3.StatusCode)
	assert.Equal(t, "Incorrect email or password.", body1["error"])
	assert.Equal(t, body1, body2)
	assert.Equal(t, body1, body3)
}

func TestLoginSuccessReturnsBearerToken(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "admin@example.com", "admin")

	resp, body := env.request(t, "POST", "/login/", fiber.Map{
		"email": "admin@example.com", "password": testPassword,
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "bearer", body["token_type"])

	claims, err := env.tokens.DecodeToken(body["access_token"].(string))
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", claims.Email)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestLoginLockedAccountMessage(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "admin@example.com", "admin")

	for i := 0; i < 5; i++ {
		env.request(t, "POST", "/login/", fiber.Map{
			"email": "admin@example.com", "password": "WrongP@ss123",
		}, "")
	}

	resp, body := env.request(t, "POST", "/login/", fiber.Map{
		"email": "admin@example.com", "password": testPassword,
	}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Account locked due to too many failed login attempts. Try again later or request account unlock.", body["error"])
}

func TestRequestVerificationEmailResponseIsUniform(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "admin@example.com", "admin")   // verified
	env.register(t, "pending@example.com", "pending") // unverified

	emails := []string{"ghost@example.com", "pending@example.com", "admin@example.com"}
	var statuses []int
	var bodies []map[string]interface{}
	for _, email := range emails {
		resp, body := env.request(t, "POST", "/request-verification-email/", fiber.Map{"email": email}, "")
		statuses = append(statuses, resp.StatusCode)
		bodies = append(bodies, body)
	}

	for i := range emails {
		assert.Equal(t, http.StatusOK, statuses[i])
		assert.Equal(t, bodies[0], bodies[i], "response must not reveal account state")
	}
	assert.Equal(t, verificationEmailResponse, bodies[0]["message"])
}

func TestVerifyEmailEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "admin@example.com", "admin")
	user := env.register(t, "pending@example.com", "pending")

	resp, body := env.request(t, "GET",
		fmt.Sprintf("/verify-email/%s/%s", user.ID, "wrong-token"), nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid or expired verification token", body["error"])

	resp, body = env.request(t, "GET",
		fmt.Sprintf("/verify-email/%s/%s", user.ID, *user.VerificationToken), nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Email verified successfully", body["message"])

	// Malformed id is indistinguishable from a bad token.
	resp, body = env.request(t, "GET", "/verify-email/not-a-uuid/whatever", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid or expired verification token", body["error"])
}

func TestProfileRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.request(t, "GET", "/profile/", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.request(t, "GET", "/profile/", nil, "garbage-token")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProfileRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "admin@example.com", "admin")
	bearer := env.bearerFor(t, user)

	resp, body := env.request(t, "GET", "/profile/", nil, bearer)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "admin@example.com", body["email"])

	resp, body = env.request(t, "PUT", "/profile/", fiber.Map{"bio": "hello"}, bearer)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello", body["bio"])

	resp, body = env.request(t, "PUT", "/profile/", fiber.Map{}, bearer)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "At least one profile field is required", body["error"])
}

func TestResetPasswordEndpoint(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "admin@example.com", "admin")
	bearer := env.bearerFor(t, user)

	resp, body := env.request(t, "POST", "/profile/reset-password", fiber.Map{
		"new_password": "weak",
	}, bearer)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Password does not meet strength requirements", body["error"])

	resp, _ = env.request(t, "POST", "/profile/reset-password", fiber.Map{
		"new_password": "NewStr0ng!Pass",
	}, bearer)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.request(t, "POST", "/login/", fiber.Map{
		"email": "admin@example.com", "password": "NewStr0ng!Pass",
	}, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUserManagementRequiresCapability(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "admin@example.com", "admin")
	member := env.register(t, "member@example.com", "member")
	member.Role = models.RoleMember

	resp, _ := env.request(t, "GET", "/users/", nil, env.bearerFor(t, member))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := env.request(t, "GET", "/users/", nil, env.bearerFor(t, admin))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotNil(t, body["pagination"])
}

func TestUnlockEndpoint(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "admin@example.com", "admin")
	victim := env.register(t, "victim@example.com", "victim")
	bearer := env.bearerFor(t, admin)

	// Not locked yet.
	resp, body := env.request(t, "PUT", fmt.Sprintf("/users/%s/unlock", victim.ID), nil, bearer)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Account is not locked", body["error"])

	for i := 0; i < 5; i++ {
		_, err := env.repo.UpdateWithLock(context.Background(), victim.ID, func(u *models.User) (bool, error) {
			u.FailedLoginAttempts++
			if u.FailedLoginAttempts >= 5 {
				now := time.Now().UTC()
				u.LockAccount(now)
			}
			return true, nil
		})
		require.NoError(t, err)
	}

	resp, body = env.request(t, "PUT", fmt.Sprintf("/users/%s/unlock", victim.ID), nil, bearer)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Account unlocked", body["message"])

	stored, err := env.repo.GetByID(context.Background(), victim.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsLocked)
}

func TestProfessionalStatusEndpoint(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "admin@example.com", "admin")
	target := env.register(t, "pro@example.com", "pro")
	bearer := env.bearerFor(t, admin)

	resp, body := env.request(t, "PUT",
		fmt.Sprintf("/users/%s/professional-status", target.ID),
		fiber.Map{"user_id": admin.ID, "is_professional": true}, bearer)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "User ID mismatch", body["error"])

	resp, body = env.request(t, "PUT",
		fmt.Sprintf("/users/%s/professional-status", target.ID),
		fiber.Map{"user_id": target.ID, "is_professional": true}, bearer)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["is_professional"])
}

func TestDeleteUserEndpoint(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "admin@example.com", "admin")
	target := env.register(t, "gone@example.com", "gone")
	bearer := env.bearerFor(t, admin)

	resp, _ := env.request(t, "DELETE", "/users/"+target.ID.String(), nil, bearer)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body := env.request(t, "DELETE", "/users/"+target.ID.String(), nil, bearer)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "User not found", body["error"])
}
