package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/userhub/internal/logging"
	"github.com/dmitrijs2005/userhub/internal/server/auth"
	"github.com/dmitrijs2005/userhub/internal/server/metrics"
	"github.com/dmitrijs2005/userhub/internal/server/models"
	"github.com/dmitrijs2005/userhub/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/userhub/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type stubStore struct{ err error }

func (s stubStore) Ping(context.Context) error { return s.err }
func (s stubStore) Kind() string               { return "memory" }

type testAPI struct {
	t       *testing.T
	handler http.Handler
	repo    *accounts.MemoryRepository
	metrics *metrics.Metrics
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	return newTestAPIWith(t, stubStore{}, false)
}

func newTestAPIWith(t *testing.T, store Pinger, development bool) *testAPI {
	t.Helper()
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	repo := accounts.NewMemoryRepository()
	issuer := auth.NewTokenIssuer(auth.IssuerConfig{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
	})
	hasher, err := auth.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	m := metrics.New()

	srv := NewServer(Options{Environment: "test", Development: development, CORSOrigin: "http://localhost:3000"}, Deps{
		Auth:    services.NewAuthService(repo, issuer, hasher, log),
		Users:   services.NewUsersService(repo, nil, log),
		Store:   store,
		Metrics: m,
		Logger:  log,
	})
	return &testAPI{t: t, handler: srv.Router(), repo: repo, metrics: m}
}

type response struct {
	Code   int
	Header http.Header
	Body   map[string]any
}

func (r response) data() map[string]any {
	d, _ := r.Body["data"].(map[string]any)
	return d
}

func (a *testAPI) do(method, path, token string, body any) response {
	a.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	out := response{Code: rec.Code, Header: rec.Header()}
	if rec.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &out.Body), rec.Body.String())
	}
	return out
}

func registerBody(email string) map[string]any {
	return map[string]any{
		"email":           email,
		"password":        "Abcd1234",
		"confirmPassword": "Abcd1234",
		"firstName":       "Ada",
		"lastName":        "Lovelace",
	}
}

// register returns the new account id and its access token.
func (a *testAPI) register(email string) (string, string) {
	a.t.Helper()
	res := a.do(http.MethodPost, "/api/auth/register", "", registerBody(email))
	require.Equal(a.t, http.StatusCreated, res.Code, res.Body)
	user := res.data()["user"].(map[string]any)
	return user["id"].(string), res.data()["accessToken"].(string)
}

func (a *testAPI) registerAdmin(email string) (string, string) {
	a.t.Helper()
	id, token := a.register(email)
	role := models.RoleAdmin
	_, err := a.repo.UpdateAdmin(context.Background(), id, models.AdminUpdate{Role: &role})
	require.NoError(a.t, err)
	return id, token
}

func TestRegister_Created(t *testing.T) {
	api := newTestAPI(t)

	res := api.do(http.MethodPost, "/api/auth/register", "", registerBody("a@x.com"))

	require.Equal(t, http.StatusCreated, res.Code)
	assert.Equal(t, "success", res.Body["status"])
	assert.Len(t, strings.Split(res.data()["accessToken"].(string), "."), 3)
	assert.NotEmpty(t, res.data()["refreshToken"])

	user := res.data()["user"].(map[string]any)
	assert.Equal(t, "a@x.com", user["email"])
	assert.Equal(t, "Ada Lovelace", user["fullName"])
	assert.Equal(t, "user", user["role"])
	assert.NotContains(t, user, "passwordHash")
	assert.NotContains(t, user, "refreshToken")
}

func TestRegister_ValidationAndConflict(t *testing.T) {
	api := newTestAPI(t)

	body := registerBody("not-an-email")
	body["password"] = "short"
	body["confirmPassword"] = "different"
	res := api.do(http.MethodPost, "/api/auth/register", "", body)
	require.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "fail", res.Body["status"])
	assert.Equal(t, "Validation failed", res.Body["message"])

	fields := map[string]bool{}
	for _, e := range res.Body["errors"].([]any) {
		fe := e.(map[string]any)
		fields[fe["field"].(string)] = true
		assert.Equal(t, "body", fe["location"])
	}
	assert.Equal(t, map[string]bool{"email": true, "password": true, "confirmPassword": true}, fields)

	api.register("a@x.com")
	res = api.do(http.MethodPost, "/api/auth/register", "", registerBody("A@X.com"))
	require.Equal(t, http.StatusConflict, res.Code)
	assert.Equal(t, services.MsgEmailTaken, res.Body["message"])
}

func TestLogin(t *testing.T) {
	api := newTestAPI(t)
	api.register("a@x.com")

	res := api.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@x.com", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, "fail", res.Body["status"])
	assert.Equal(t, services.MsgInvalidCredentials, res.Body["message"])

	res = api.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "A@x.com", "password": "Abcd1234"})
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Login successful", res.Body["message"])
	assert.NotNil(t, res.data()["user"].(map[string]any)["lastLogin"])
}

func TestRefreshRotation(t *testing.T) {
	api := newTestAPI(t)
	res := api.do(http.MethodPost, "/api/auth/register", "", registerBody("a@x.com"))
	old := res.data()["refreshToken"].(string)

	res = api.do(http.MethodPost, "/api/auth/refresh-token", "", map[string]string{"refreshToken": old})
	require.Equal(t, http.StatusOK, res.Code)
	assert.NotEmpty(t, res.data()["accessToken"])

	res = api.do(http.MethodPost, "/api/auth/refresh-token", "", map[string]string{"refreshToken": old})
	require.Equal(t, http.StatusUnauthorized, res.Code)

	res = api.do(http.MethodPost, "/api/auth/refresh-token", "", map[string]string{})
	require.Equal(t, http.StatusBadRequest, res.Code)
}

func TestGuardStates(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.register("a@x.com")

	res := api.do(http.MethodGet, "/api/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, services.MsgNoToken, res.Body["message"])

	res = api.do(http.MethodGet, "/api/auth/me", "garbage", nil)
	require.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, services.MsgInvalidToken, res.Body["message"])

	res = api.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "a@x.com", res.data()["user"].(map[string]any)["email"])

	res = api.do(http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Logout successful", res.Body["message"])
}

func TestUpdatePassword_RevokesOldToken(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.register("a@x.com")

	body := map[string]string{
		"currentPassword":    "wrong",
		"newPassword":        "Wxyz5678",
		"confirmNewPassword": "Wxyz5678",
	}
	res := api.do(http.MethodPatch, "/api/auth/update-password", token, body)
	require.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, services.MsgWrongPassword, res.Body["message"])

	time.Sleep(2100 * time.Millisecond)
	body["currentPassword"] = "Abcd1234"
	res = api.do(http.MethodPatch, "/api/auth/update-password", token, body)
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	fresh := res.data()["accessToken"].(string)

	res = api.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, services.MsgPasswordChanged, res.Body["message"])

	res = api.do(http.MethodGet, "/api/auth/me", fresh, nil)
	require.Equal(t, http.StatusOK, res.Code)
}

func TestUsers_RoleGate(t *testing.T) {
	api := newTestAPI(t)
	_, userToken := api.register("user@x.com")
	_, adminToken := api.registerAdmin("admin@x.com")

	res := api.do(http.MethodGet, "/api/users", userToken, nil)
	require.Equal(t, http.StatusForbidden, res.Code)
	assert.Equal(t, "fail", res.Body["status"])
	assert.Equal(t, services.MsgPermissionDenied, res.Body["message"])

	res = api.do(http.MethodGet, "/api/users?limit=1&sortBy=email&sortOrder=asc", adminToken, nil)
	require.Equal(t, http.StatusOK, res.Code)
	items := res.Body["data"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "admin@x.com", items[0].(map[string]any)["email"])

	p := res.Body["pagination"].(map[string]any)
	assert.EqualValues(t, 2, p["total"])
	assert.EqualValues(t, 2, p["totalPages"])
	assert.Equal(t, true, p["hasNextPage"])
	assert.Equal(t, false, p["hasPrevPage"])
}

func TestUsers_ListQueryValidation(t *testing.T) {
	api := newTestAPI(t)
	_, adminToken := api.registerAdmin("admin@x.com")

	res := api.do(http.MethodGet, "/api/users?page=abc", adminToken, nil)
	require.Equal(t, http.StatusBadRequest, res.Code)

	res = api.do(http.MethodGet, "/api/users?limit=101&sortBy=password", adminToken, nil)
	require.Equal(t, http.StatusBadRequest, res.Code)
	errs := res.Body["errors"].([]any)
	assert.Len(t, errs, 2)
	assert.Equal(t, "query", errs[0].(map[string]any)["location"])

	res = api.do(http.MethodGet, "/api/users?role=admin&isActive=true&search=ADMIN", adminToken, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, res.Body["data"].([]any), 1)

	res = api.do(http.MethodGet, "/api/users?page=92233720368547760&limit=100", adminToken, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	assert.Empty(t, res.Body["data"].([]any))
	assert.Equal(t, false, res.Body["pagination"].(map[string]any)["hasNextPage"])
}

func TestUsers_AdminOperations(t *testing.T) {
	api := newTestAPI(t)
	userID, userToken := api.register("user@x.com")
	adminID, adminToken := api.registerAdmin("admin@x.com")

	res := api.do(http.MethodGet, "/api/users/"+userID, adminToken, nil)
	require.Equal(t, http.StatusOK, res.Code)

	res = api.do(http.MethodGet, "/api/users/00000000-0000-0000-0000-000000000000", adminToken, nil)
	require.Equal(t, http.StatusNotFound, res.Code)

	res = api.do(http.MethodGet, "/api/users/bad-id", adminToken, nil)
	require.Equal(t, http.StatusBadRequest, res.Code)

	res = api.do(http.MethodPatch, "/api/users/"+userID, adminToken, map[string]any{"role": "root"})
	require.Equal(t, http.StatusBadRequest, res.Code)

	res = api.do(http.MethodPatch, "/api/users/"+userID, adminToken, map[string]any{"role": "moderator", "isEmailVerified": true})
	require.Equal(t, http.StatusOK, res.Code)
	user := res.data()["user"].(map[string]any)
	assert.Equal(t, "moderator", user["role"])
	assert.Equal(t, true, user["isEmailVerified"])

	res = api.do(http.MethodPatch, "/api/users/"+userID+"/deactivate", adminToken, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, false, res.data()["user"].(map[string]any)["isActive"])

	res = api.do(http.MethodGet, "/api/auth/me", userToken, nil)
	require.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, services.MsgUserDeactivated, res.Body["message"])

	res = api.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "user@x.com", "password": "Abcd1234"})
	require.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, services.MsgAccountDeactivated, res.Body["message"])

	res = api.do(http.MethodPatch, "/api/users/"+userID+"/activate", adminToken, nil)
	require.Equal(t, http.StatusOK, res.Code)

	res = api.do(http.MethodDelete, "/api/users/"+adminID, adminToken, nil)
	require.Equal(t, http.StatusBadRequest, res.Code)

	res = api.do(http.MethodDelete, "/api/users/"+userID, adminToken, nil)
	require.Equal(t, http.StatusNoContent, res.Code)

	res = api.do(http.MethodGet, "/api/auth/me", userToken, nil)
	require.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, services.MsgUserGone, res.Body["message"])
}

func TestProfile(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.register("a@x.com")

	res := api.do(http.MethodPatch, "/api/users/profile", token, map[string]any{})
	require.Equal(t, http.StatusBadRequest, res.Code)

	res = api.do(http.MethodPatch, "/api/users/profile", token, map[string]any{"avatar": "not a url"})
	require.Equal(t, http.StatusBadRequest, res.Code)

	res = api.do(http.MethodPatch, "/api/users/profile", token, map[string]any{
		"firstName": "  Grace ",
		"avatar":    "https://cdn.example/a.png",
	})
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	user := res.data()["user"].(map[string]any)
	assert.Equal(t, "Grace", user["firstName"])
	assert.Equal(t, "https://cdn.example/a.png", user["avatar"])

	res = api.do(http.MethodPost, "/api/users/profile/avatar", token, map[string]any{"contentType": "image/png"})
	require.Equal(t, http.StatusNotFound, res.Code, "uploads disabled without a store")
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	res := api.do(http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "ok", res.Body["status"])

	res = api.do(http.MethodGet, "/api/health/live", "", nil)
	assert.Equal(t, "alive", res.Body["status"])

	res = api.do(http.MethodGet, "/api/health/ready", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "connected", res.Body["database"])

	res = api.do(http.MethodGet, "/api/health/detailed", "", nil)
	assert.NotContains(t, res.Body, "runtime")

	_, adminToken := api.registerAdmin("admin@x.com")
	res = api.do(http.MethodGet, "/api/health/detailed", adminToken, nil)
	assert.Contains(t, res.Body, "runtime")
	assert.Equal(t, "memory", res.Body["store"])

	down := newTestAPIWith(t, stubStore{err: errors.New("down")}, false)
	res = down.do(http.MethodGet, "/api/health/ready", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, res.Code)
	assert.Equal(t, "not ready", res.Body["status"])
}

func TestNotFoundAndCORS(t *testing.T) {
	api := newTestAPI(t)

	res := api.do(http.MethodGet, "/api/nope", "", nil)
	require.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "Route /api/nope not found", res.Body["message"])
	assert.NotEmpty(t, res.Header.Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec = httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	api := newTestAPI(t)
	api.register("a@x.com")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `userhub_auth_events_total{event="register",outcome="success"} 1`)
	assert.Contains(t, rec.Body.String(), `route="/api/auth/register"`)
}

func TestMalformedJSON(t *testing.T) {
	api := newTestAPI(t)

	for name, body := range map[string]string{
		"syntax":     "{bad",
		"truncated":  `{"email":`,
		"wrong type": `{"email": 42, "password": "x"}`,
		"array":      `[1, 2]`,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			api.handler.ServeHTTP(rec, req)

			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), `"status":"fail"`)
			assert.Contains(t, rec.Body.String(), "Invalid JSON in request body")
		})
	}
}

func TestRegister_PasswordBcryptLimit(t *testing.T) {
	api := newTestAPI(t)

	body := registerBody("long@x.com")
	body["password"] = "Aa1" + strings.Repeat("x", 80)
	body["confirmPassword"] = body["password"]
	res := api.do(http.MethodPost, "/api/auth/register", "", body)
	require.Equal(t, http.StatusBadRequest, res.Code, res.Body)
	errs := res.Body["errors"].([]any)
	require.Len(t, errs, 1)
	assert.Equal(t, "password", errs[0].(map[string]any)["field"])
	assert.Equal(t, "Password cannot exceed 72 bytes", errs[0].(map[string]any)["message"])

	// multi-byte runes count by bytes
	body["password"] = "Aa1" + strings.Repeat("é", 35)
	body["confirmPassword"] = body["password"]
	res = api.do(http.MethodPost, "/api/auth/register", "", body)
	require.Equal(t, http.StatusBadRequest, res.Code, res.Body)

	exact := "Aa1" + strings.Repeat("x", 69)
	body["password"] = exact
	body["confirmPassword"] = exact
	res = api.do(http.MethodPost, "/api/auth/register", "", body)
	require.Equal(t, http.StatusCreated, res.Code, res.Body)
	token := res.data()["accessToken"].(string)

	res = api.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "long@x.com", "password": exact})
	require.Equal(t, http.StatusOK, res.Code, res.Body)

	res = api.do(http.MethodPatch, "/api/auth/update-password", token, map[string]string{
		"currentPassword":    exact,
		"newPassword":        "Wx1" + strings.Repeat("y", 80),
		"confirmNewPassword": "Wx1" + strings.Repeat("y", 80),
	})
	require.Equal(t, http.StatusBadRequest, res.Code, res.Body)
	assert.Equal(t, "New password cannot exceed 72 bytes", res.Body["errors"].([]any)[0].(map[string]any)["message"])
}
