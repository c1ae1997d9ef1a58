package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tokencore/go-token-service/auth"
	"github.com/tokencore/go-token-service/internal/config"
	"github.com/tokencore/go-token-service/server"
	"github.com/tokencore/go-token-service/token"
	"github.com/tokencore/go-token-service/token/refresh"
	fakeuserrepo "github.com/tokencore/go-token-service/users/repofake"
	"golang.org/x/crypto/bcrypt"
)

const (
	secretStr        = "test-secret-key"
	testUserEmail    = "john.doe@example.com"
	testUsername     = "johndoe"
	testUserPassword = "password123"
)

// testFixture holds the server under test and its collaborators
type testFixture struct {
	userRepo *fakeuserrepo.FakeUserRepo
	store    *refresh.MemoryStore
	codec    *token.Codec
	service  *auth.Service
	server   *server.Server
}

// setupTestFixture builds a server backed by in-memory stores
func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	ur := fakeuserrepo.NewFakeUserRepo()
	store := refresh.NewMemoryStore()
	codec := token.NewCodec(token.NewHMACSigner(secretStr))

	service, err := auth.NewService(ur, store, codec, auth.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)

	srv, err := server.New(config.New(), server.Deps{
		Auth:  service,
		Codec: codec,
		Users: ur,
	})
	require.NoError(t, err)

	return &testFixture{
		userRepo: ur,
		store:    store,
		codec:    codec,
		service:  service,
		server:   srv,
	}
}

// doJSON performs a request with a JSON body and optional bearer token
func (f *testFixture) doJSON(t *testing.T, method, path string, body any, bearer string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func (f *testFixture) register(t *testing.T) map[string]any {
	t.Helper()

	rec := f.doJSON(t, http.MethodPost, "/auth/register", map[string]string{
		"email":    testUserEmail,
		"username": testUsername,
		"password": testUserPassword,
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	return decodeBody(t, rec)
}

func (f *testFixture) login(t *testing.T) map[string]any {
	t.Helper()

	rec := f.doJSON(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    testUserEmail,
		"password": testUserPassword,
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	return decodeBody(t, rec)
}

// TestRegisterHandler_Success tests user creation and the response shape
func TestRegisterHandler_Success(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.doJSON(t, http.MethodPost, "/auth/register", map[string]string{
		"email":    testUserEmail,
		"username": testUsername,
		"password": testUserPassword,
	}, "")

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotContains(t, rec.Body.String(), "password", "response must not leak password material")

	body := decodeBody(t, rec)
	require.Equal(t, testUserEmail, body["email"])
	require.Equal(t, testUsername, body["username"])
	require.Equal(t, true, body["is_active"])
	require.NotEmpty(t, body["id"])
	require.Nil(t, body["last_login"])
}

// TestRegisterHandler_DuplicateEmail tests re-registration of a taken email
func TestRegisterHandler_DuplicateEmail(t *testing.T) {
	f := setupTestFixture(t)
	f.register(t)

	rec := f.doJSON(t, http.MethodPost, "/auth/register", map[string]string{
		"email":    testUserEmail,
		"username": "othername",
		"password": "otherpassword",
	}, "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Email already registered", decodeBody(t, rec)["detail"])
}

// TestRegisterHandler_ValidationFailures tests malformed registration input
func TestRegisterHandler_ValidationFailures(t *testing.T) {
	f := setupTestFixture(t)

	tests := []struct {
		name    string
		payload map[string]string
	}{
		{
			name:    "invalid email",
			payload: map[string]string{"email": "not-an-email", "username": testUsername, "password": testUserPassword},
		},
		{
			name:    "short username",
			payload: map[string]string{"email": testUserEmail, "username": "jd", "password": testUserPassword},
		},
		{
			name:    "short password",
			payload: map[string]string{"email": testUserEmail, "username": testUsername, "password": "short"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.doJSON(t, http.MethodPost, "/auth/register", tt.payload, "")
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		})
	}
}

// TestRegisterHandler_InvalidBody tests a non-JSON request body
func TestRegisterHandler_InvalidBody(t *testing.T) {
	f := setupTestFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString("not json"))
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

// TestLoginHandler_Success tests the token pair response
func TestLoginHandler_Success(t *testing.T) {
	f := setupTestFixture(t)
	f.register(t)

	body := f.login(t)

	require.NotEmpty(t, body["access_token"])
	require.NotEmpty(t, body["refresh_token"])
	require.NotEqual(t, body["access_token"], body["refresh_token"])
	require.Equal(t, "bearer", body["token_type"])
	require.Equal(t, float64(1800), body["expires_in"])
}

// TestLoginHandler_WrongPassword tests the credentials failure response
func TestLoginHandler_WrongPassword(t *testing.T) {
	f := setupTestFixture(t)
	f.register(t)

	rec := f.doJSON(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    testUserEmail,
		"password": "wrong-password",
	}, "")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	require.Equal(t, "Incorrect email or password", decodeBody(t, rec)["detail"])
}

// TestLoginHandler_UnknownEmail tests that unknown accounts look like wrong
// passwords
func TestLoginHandler_UnknownEmail(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.doJSON(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    "nobody@example.com",
		"password": testUserPassword,
	}, "")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Incorrect email or password", decodeBody(t, rec)["detail"])
}

// TestMeHandler_Success tests the protected profile route with a valid token
func TestMeHandler_Success(t *testing.T) {
	f := setupTestFixture(t)
	f.register(t)
	pair := f.login(t)

	rec := f.doJSON(t, http.MethodGet, "/auth/me", nil, pair["access_token"].(string))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "password")

	body := decodeBody(t, rec)
	require.Equal(t, testUserEmail, body["email"])
	require.Equal(t, testUsername, body["username"])
	require.Equal(t, true, body["is_active"])
	require.NotNil(t, body["last_login"], "login should have stamped last_login")
}

// TestMeHandler_Unauthorized tests the gate's rejection responses
func TestMeHandler_Unauthorized(t *testing.T) {
	f := setupTestFixture(t)
	f.register(t)
	pair := f.login(t)

	tests := []struct {
		name         string
		authHeader   string
		expectDetail string
	}{
		{
			name:         "missing header",
			authHeader:   "",
			expectDetail: "Authorization header missing",
		},
		{
			name:         "wrong scheme",
			authHeader:   "Basic dXNlcjpwYXNz",
			expectDetail: "Invalid authentication scheme",
		},
		{
			name:         "garbage token",
			authHeader:   "Bearer not-a-token",
			expectDetail: "Could not validate credentials",
		},
		{
			name:         "refresh token as access token",
			authHeader:   "Bearer " + pair["refresh_token"].(string),
			expectDetail: "Could not validate credentials",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			f.server.ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			require.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
			require.Equal(t, tt.expectDetail, decodeBody(t, rec)["detail"])
		})
	}
}

// TestMeHandler_InactiveUser tests that a valid token for a deactivated user
// is rejected
func TestMeHandler_InactiveUser(t *testing.T) {
	f := setupTestFixture(t)
	created := f.register(t)
	pair := f.login(t)

	require.NoError(t, f.userRepo.SetActive(created["id"].(string), false))

	rec := f.doJSON(t, http.MethodGet, "/auth/me", nil, pair["access_token"].(string))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "User not found or inactive", decodeBody(t, rec)["detail"])
}

// TestRefreshHandler_Rotation tests the rotate-on-use contract end to end
func TestRefreshHandler_Rotation(t *testing.T) {
	f := setupTestFixture(t)
	f.register(t)
	pair := f.login(t)
	oldRefresh := pair["refresh_token"].(string)

	rec := f.doJSON(t, http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": oldRefresh}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.NotEmpty(t, body["access_token"])
	require.Equal(t, "bearer", body["token_type"])
	require.NotEqual(t, oldRefresh, body["refresh_token"], "refresh token should rotate")

	rec = f.doJSON(t, http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": oldRefresh}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Invalid refresh token", decodeBody(t, rec)["detail"])
}

// TestRefreshHandler_MissingToken tests a refresh request without a token
func TestRefreshHandler_MissingToken(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.doJSON(t, http.MethodPost, "/auth/refresh", map[string]string{}, "")

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "refresh_token is required", decodeBody(t, rec)["detail"])
}

// TestLogoutHandler tests logout and that the token is dead afterwards
func TestLogoutHandler(t *testing.T) {
	f := setupTestFixture(t)
	f.register(t)
	pair := f.login(t)
	refreshToken := pair["refresh_token"].(string)

	rec := f.doJSON(t, http.MethodPost, "/auth/logout", map[string]string{"refresh_token": refreshToken}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Successfully logged out", decodeBody(t, rec)["message"])

	rec = f.doJSON(t, http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": refreshToken}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

// TestLogoutHandler_UnknownToken tests that logout is idempotent at the
// HTTP boundary
func TestLogoutHandler_UnknownToken(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.doJSON(t, http.MethodPost, "/auth/logout", map[string]string{"refresh_token": "never-issued"}, "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Successfully logged out", decodeBody(t, rec)["message"])
}

// TestHealthHandler tests the public liveness route
func TestHealthHandler(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.doJSON(t, http.MethodGet, "/health", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decodeBody(t, rec)["status"])
}

// TestCorsMiddleware_CrossOriginRequest tests that cross-origin requests get
// the allow-origin header under the default wildcard configuration
func TestCorsMiddleware_CrossOriginRequest(t *testing.T) {
	f := setupTestFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	// Same-origin requests get no CORS headers at all.
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rec = httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
