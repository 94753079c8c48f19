package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"promptrelay-backend/config"
	"promptrelay-backend/internal/database"
	"promptrelay-backend/internal/models"
	"promptrelay-backend/pkg/logger"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type upstream struct {
	server *httptest.Server
	calls  int32
}

func newUpstream(t *testing.T, status int, body string) *upstream {
	u := &upstream{}
	u.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&u.calls, 1)
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(u.server.Close)
	return u
}

func setupTestStores(t *testing.T) *miniredis.Miniredis {
	logger.Log = zap.NewNop()

	db, err := gorm.Open(sqlite.Open("file:router?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	db.Migrator().DropTable(&models.PromptRecord{})
	if err := db.AutoMigrate(&models.PromptRecord{}); err != nil {
		t.Fatal(err)
	}
	database.DB = db

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(mr.Close)
	database.RedisClient = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { database.RedisClient = nil })
	return mr
}

func testConfig(ollama, deepInfra, openRouter *upstream) *config.Config {
	return &config.Config{
		CORSAllowOrigins: []string{"http://localhost:5173"},
		OllamaURL:        ollama.server.URL + "/api/generate",
		OllamaModel:      "phi",
		DeepInfraURL:     deepInfra.server.URL,
		DeepInfraAPIKey:  "di-key",
		OpenRouterURL:    openRouter.server.URL,
		OpenRouterModel:  "m",
		OpenRouterAPIKey: "or-key",
		BackendTimeout:   2 * time.Second,
	}
}

func do(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	router.ServeHTTP(w, req)
	return w
}

func TestRouterCreateAndListPrompts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	setupTestStores(t)
	ollama := newUpstream(t, http.StatusOK, `{"response":"an answer"}`)
	cfg := testConfig(ollama, newUpstream(t, 200, `{}`), newUpstream(t, 200, `{}`))
	router := NewEngine(cfg, time.Now())

	for _, q := range []string{"A", "B", "C"} {
		w := do(router, "POST", "/prompts", fmt.Sprintf(`{"question":%q}`, q))
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	}

	// a warm cache must not hide a later create
	w := do(router, "GET", "/prompts?page=1&per_page=2", "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(router, "POST", "/prompts", `{"question":"D"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = do(router, "GET", "/prompts?page=1&per_page=2", "")
	var items []models.PromptRecord
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	assert.Len(t, items, 2)
	assert.Equal(t, "D", items[0].Question)
	assert.Equal(t, "C", items[1].Question)
	assert.Equal(t, "an answer", items[0].Answer)

	w = do(router, "GET", fmt.Sprintf("/prompts/%d", items[1].ID), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"question":"C"`)
}

func TestRouterBackendFailureCreatesNoRecord(t *testing.T) {
	gin.SetMode(gin.TestMode)
	setupTestStores(t)
	ollama := newUpstream(t, http.StatusServiceUnavailable, `{"error":"model loading"}`)
	router := NewEngine(testConfig(ollama, newUpstream(t, 200, `{}`), newUpstream(t, 200, `{}`)), time.Now())

	w := do(router, "POST", "/prompts", `{"question":"hi"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, "Ollama model call failed", resp["error"])

	var count int64
	database.DB.Model(&models.PromptRecord{}).Count(&count)
	assert.Zero(t, count)
}

func TestRouterOpenRouterMissingKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	setupTestStores(t)
	openRouter := newUpstream(t, http.StatusOK, `{"choices":[{"message":{"content":"x"}}]}`)
	cfg := testConfig(newUpstream(t, 200, `{}`), newUpstream(t, 200, `{}`), openRouter)
	cfg.OpenRouterAPIKey = ""
	router := NewEngine(cfg, time.Now())

	w := do(router, "POST", "/openrouter", `{"question":"hi"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Missing OpenRouter API key"}`, w.Body.String())
	assert.Equal(t, int32(0), atomic.LoadInt32(&openRouter.calls))
}

func TestRouterOpenRouterAndHosted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	setupTestStores(t)
	deepInfra := newUpstream(t, http.StatusOK, `{"generated_text":"hosted"}`)
	openRouter := newUpstream(t, http.StatusOK, `{"choices":[{"message":{"content":"aggregated"}}]}`)
	router := NewEngine(testConfig(newUpstream(t, 200, `{}`), deepInfra, openRouter), time.Now())

	w := do(router, "POST", "/prompt", `{"question":"hello"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"question":"hello","answer":"hosted"}`, w.Body.String())

	w = do(router, "POST", "/openrouter", `{"question":"hello"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"question":"hello","answer":"aggregated"}`, w.Body.String())
}

func TestRouterStatusAndHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	setupTestStores(t)
	u := newUpstream(t, 200, `{}`)
	router := NewEngine(testConfig(u, u, u), time.Now().Add(-time.Hour))

	w := do(router, "GET", "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Uptime: 1h0m")

	w = do(router, "GET", "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","database":"ok","cache":"ok"}`, w.Body.String())
}

func TestRouterSwaggerDoc(t *testing.T) {
	gin.SetMode(gin.TestMode)
	setupTestStores(t)
	u := newUpstream(t, 200, `{}`)
	router := NewEngine(testConfig(u, u, u), time.Now())

	w := do(router, "GET", "/swagger/doc.json", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"/openrouter"`)
}

func TestRouterCORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	setupTestStores(t)
	u := newUpstream(t, 200, `{}`)
	router := NewEngine(testConfig(u, u, u), time.Now())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("OPTIONS", "/prompts", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}
