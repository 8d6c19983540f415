package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, claims *Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func validClaims(role, schoolID string) *Claims {
	return &Claims{
		UserID:   "user-1",
		Role:     role,
		SchoolID: schoolID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	t.Run("generates new request ID", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
		assert.Equal(t, w.Header().Get(RequestIDHeader), w.Body.String())
	})

	t.Run("uses existing request ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, "existing-id")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "existing-id", w.Header().Get(RequestIDHeader))
	})
}

func newJWTRouter(cfg *JWTConfig, roles ...string) *gin.Engine {
	router := gin.New()
	router.Use(JWTMiddleware(cfg))
	if len(roles) > 0 {
		router.Use(RequireRole(roles...))
	}
	router.GET("/me", func(c *gin.Context) {
		userID, _ := GetUserID(c)
		role, _ := GetRole(c)
		schoolID, _ := GetSchoolID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "role": role, "school_id": schoolID})
	})
	return router
}

func TestJWTMiddleware(t *testing.T) {
	cfg := &JWTConfig{Secret: testSecret}

	t.Run("missing token", func(t *testing.T) {
		w := httptest.NewRecorder()
		newJWTRouter(cfg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Token abc")
		w := httptest.NewRecorder()
		newJWTRouter(cfg).ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token populates context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, validClaims("school_admin", "school-1")))
		w := httptest.NewRecorder()
		newJWTRouter(cfg).ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"user_id":"user-1"`)
		assert.Contains(t, w.Body.String(), `"role":"SCHOOL_ADMIN"`)
		assert.Contains(t, w.Body.String(), `"school_id":"school-1"`)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims("ADMIN", "")).SignedString([]byte("other"))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		newJWTRouter(cfg).ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		claims := validClaims("ADMIN", "")
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, claims))
		w := httptest.NewRecorder()
		newJWTRouter(cfg).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Token expired")
	})

	t.Run("subject fallback", func(t *testing.T) {
		claims := validClaims("STUDENT", "")
		claims.UserID = ""
		claims.Subject = "user-from-sub"

		parsed, err := ParseToken(signToken(t, claims), cfg)
		require.NoError(t, err)
		assert.Equal(t, "user-from-sub", parsed.UserID)
	})
}

func TestJWTMiddleware_Optional(t *testing.T) {
	cfg := &JWTConfig{Secret: testSecret, Optional: true}

	w := httptest.NewRecorder()
	newJWTRouter(cfg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w = httptest.NewRecorder()
	newJWTRouter(cfg).ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	cfg := &JWTConfig{Secret: testSecret}
	router := newJWTRouter(cfg, "ADMIN", "SCHOOL_ADMIN")

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, validClaims("STUDENT", "")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, validClaims("admin", "")))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

// fakeRedis is an in-memory RedisClient
type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value.(string)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestIdempotencyMiddleware(t *testing.T) {
	store := newFakeRedis()
	calls := 0
	status := http.StatusCreated

	router := gin.New()
	router.Use(IdempotencyMiddleware(DefaultIdempotencyConfig(store)))
	router.POST("/classes/bulk", func(c *gin.Context) {
		calls++
		c.JSON(status, gin.H{"call": calls})
	})

	send := func(key, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/classes/bulk", strings.NewReader(body))
		if key != "" {
			req.Header.Set(IdempotencyKeyHeader, key)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("replays stored response", func(t *testing.T) {
		first := send("key-1", `{"a":1}`)
		second := send("key-1", `{"a":1}`)

		assert.Equal(t, http.StatusCreated, first.Code)
		assert.Equal(t, http.StatusCreated, second.Code)
		assert.Equal(t, first.Body.String(), second.Body.String())
		assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
		assert.Equal(t, 1, calls)
	})

	t.Run("rejects reuse with different body", func(t *testing.T) {
		w := send("key-1", `{"a":2}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("no key passes through", func(t *testing.T) {
		before := calls
		send("", `{}`)
		send("", `{}`)
		assert.Equal(t, before+2, calls)
	})

	t.Run("server errors are not stored", func(t *testing.T) {
		status = http.StatusInternalServerError
		send("key-2", `{}`)
		status = http.StatusCreated
		w := send("key-2", `{}`)
		assert.Equal(t, http.StatusCreated, w.Code)
	})
}

func TestIdempotencyMiddleware_Required(t *testing.T) {
	cfg := DefaultIdempotencyConfig(newFakeRedis())
	cfg.Required = true

	router := gin.New()
	router.Use(IdempotencyMiddleware(cfg))
	router.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
