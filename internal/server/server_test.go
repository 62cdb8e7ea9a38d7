package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/config"
	"docchat/internal/pkg/jwt"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 8080, Mode: "test"},
		AI:     config.AIConfig{Provider: "mock", Model: "qwen-max"},
		Storage: config.StorageConfig{
			Type:  "local",
			Local: &config.LocalConfig{BasePath: t.TempDir(), BaseURL: "http://localhost:8080/files", PresignExpiry: 3600},
		},
		Document: config.DocumentConfig{
			MaxFileSize:       1 << 20,
			AllowedExtensions: []string{"txt", "md"},
			ChunkSize:         200,
			ChunkOverlap:      20,
			TopK:              5,
			ScoreThreshold:    0.1,
			ContextTokens:     1000,
		},
		Queue:   config.QueueConfig{Type: "memory", Workers: 1},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	srv, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(srv.closeDeps)
	return srv
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)
	return w
}

func TestServer_MemoryMode(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	w := serve(srv, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var health struct {
		Status       string                       `json:"status"`
		Dependencies map[string]map[string]string `json:"dependencies"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "disabled", health.Dependencies["mongo"]["status"])
	assert.Equal(t, "disabled", health.Dependencies["llm"]["status"])
	assert.Equal(t, "up", health.Dependencies["queue"]["status"])

	w = serve(srv, httptest.NewRequest(http.MethodGet, "/version", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"messages":[{"role":"user","content":"ping"}]}`))
	req.Header.Set("Content-Type", "application/json")
	w = serve(srv, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ping")

	// 未配置 MongoDB 时对话管理不可用
	w = serve(srv, httptest.NewRequest(http.MethodGet, "/api/v1/conversations", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = serve(srv, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"history_count":1`)

	w = serve(srv, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "docchat_http_requests_total")

	w = serve(srv, httptest.NewRequest(http.MethodOptions, "/api/v1/chat", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestServer_Auth(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth = config.AuthConfig{Enabled: true, JWTSecret: "secret"}
	srv := newTestServer(t, cfg)

	w := serve(srv, httptest.NewRequest(http.MethodGet, "/api/v1/roles", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := jwt.NewJWT("secret", 0).GenerateToken("alice")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/roles", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = serve(srv, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// 健康检查不需要认证
	w = serve(srv, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
