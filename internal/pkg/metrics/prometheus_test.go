package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"docchat/internal/model"
)

func TestObserve(t *testing.T) {
	Init()
	Init()

	ObserveChat("stream", "success", &model.TokenUsage{PromptTokens: 5, CompletionTokens: 2, TotalTokens: 7})
	ObserveChat("sync", "error", nil)
	ObserveHTTP("GET", "/health", 200, 10*time.Millisecond)
	ObserveDocument("processed")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	assert.Contains(t, body, `docchat_chat_requests_total{mode="stream",outcome="success"} 1`)
	assert.Contains(t, body, `docchat_chat_requests_total{mode="sync",outcome="error"} 1`)
	assert.Contains(t, body, `docchat_http_requests_total{method="GET",path="/health",status="200"} 1`)
	assert.Contains(t, body, `docchat_documents_processed_total{status="processed"} 1`)
	assert.Contains(t, body, `docchat_chat_tokens_bucket{kind="prompt",le="10"} 1`)
}
