package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autobahn/internal/credstore"
	"autobahn/internal/models"
)

func TestTraceHonorsInboundID(t *testing.T) {
	var seen string
	h := Trace(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TraceID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Trace-Id", "trace-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "trace-123", seen)
	assert.Equal(t, "trace-123", w.Header().Get("X-Trace-Id"))
	assert.NotEmpty(t, w.Header().Get("X-Response-Time-ms"))
}

func TestTraceGeneratesID(t *testing.T) {
	h := Trace(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.NotEmpty(t, w.Header().Get("X-Trace-Id"))
}

func TestRecovery(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "internal server error", resp.Message)
}

func authFixture(t *testing.T) (*credstore.Store, string) {
	t.Helper()
	store := credstore.New(filepath.Join(t.TempDir(), "credentials.txt"), 7*24*time.Hour)
	u, err := store.AddOrUpdate("tok-abc", "ada", []string{"public"}, "Ada")
	require.NoError(t, err)
	return store, u.Token
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthPublicPath(t *testing.T) {
	store, _ := authFixture(t)
	h := Auth(store)(okHandler())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/account/login", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMissingToken(t *testing.T) {
	store, _ := authFixture(t)
	h := Auth(store)(okHandler())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/domain/list", nil))

	require.Equal(t, http.StatusUnauthorized, w.Code)
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Message, "missing auth token")
}

func TestAuthInvalidToken(t *testing.T) {
	store, _ := authFixture(t)
	h := Auth(store)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/domain/list", nil)
	req.Header.Set("Authorization", "Bearer nope")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Message, "invalid or expired")
}

func TestAuthValidToken(t *testing.T) {
	store, token := authFixture(t)

	var gotToken string
	var gotUser *credstore.User
	h := Auth(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = Token(r.Context())
		gotUser = User(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/domain/list", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, token, gotToken)
	require.NotNil(t, gotUser)
	assert.Equal(t, "ada", gotUser.Username)
}

func TestAuthExpiredLogin(t *testing.T) {
	store, token := authFixture(t)
	stale := time.Now().Add(-8 * 24 * time.Hour).Format(credstore.TimeFormat)
	require.NoError(t, store.UpdateField(token, "last_login", stale))

	h := Auth(store)(okHandler())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/domain/list", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestExtractToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	assert.Empty(t, ExtractToken(req))

	req.Header.Set("Authorization", "Bearer  abc ")
	assert.Equal(t, "abc", ExtractToken(req))

	req.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, ExtractToken(req))
}
