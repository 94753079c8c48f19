package status

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"promptrelay-backend/internal/database"
	"promptrelay-backend/pkg/logger"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

type namedBackend string

func (b namedBackend) Name() string { return string(b) }

func (b namedBackend) Generate(ctx context.Context, prompt string) (string, error) {
	return "", nil
}

func setupTestDB() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic(fmt.Sprintf("failed to connect database: %v", err))
	}
	database.DB = db
	database.RedisClient = nil
}

func TestIndexShowsUptimeFromInjectedStart(t *testing.T) {
	gin.SetMode(gin.TestMode)
	startedAt := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	h := NewHandler(startedAt, namedBackend("Ollama"), namedBackend("OpenRouter"))
	h.now = func() time.Time { return startedAt.Add(90*time.Minute + 1500*time.Millisecond) }

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/", nil)

	h.Index(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	body := w.Body.String()
	assert.Contains(t, body, ServiceBanner)
	assert.Contains(t, body, "Uptime: 1h30m1s")
	assert.Contains(t, body, "2024-01-01T12:00:00Z")
	assert.Contains(t, body, "<li>Ollama</li>")
	assert.Contains(t, body, "<li>OpenRouter</li>")
}

func TestIndexPlainText(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(time.Now())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/", nil)
	c.Request.Header.Set("Accept", "text/plain")

	h.Index(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ServiceBanner, w.Body.String())
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	setupTestDB()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/healthz", nil)

	NewHandler(time.Now()).Health(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, HealthResponse{Status: "ok", Database: "ok", Cache: "disabled"}, resp)
}

func TestHealthWithCache(t *testing.T) {
	gin.SetMode(gin.TestMode)
	setupTestDB()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	defer mr.Close()
	database.RedisClient = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { database.RedisClient = nil }()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/healthz", nil)

	NewHandler(time.Now()).Health(c)

	var resp HealthResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, "ok", resp.Cache)
}

func TestHealthDatabaseDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.WarnLevel)
	logger.Log = zap.New(core)
	defer func() { logger.Log = zap.NewNop() }()
	database.DB = nil
	database.RedisClient = nil

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/healthz", nil)

	NewHandler(time.Now()).Health(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unavailable","database":"unavailable","cache":"disabled"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "not connected")
	assert.Equal(t, 1, logs.FilterMessage("Database health check failed").Len())
}

func TestHealthCacheDownHidesError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.WarnLevel)
	logger.Log = zap.New(core)
	defer func() { logger.Log = zap.NewNop() }()
	setupTestDB()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	addr := mr.Addr()
	mr.Close()
	database.RedisClient = redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1})
	defer func() { database.RedisClient = nil }()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/healthz", nil)

	NewHandler(time.Now()).Health(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","database":"ok","cache":"unavailable"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), addr)
	assert.Equal(t, 1, logs.FilterMessage("Cache health check failed").Len())
}
