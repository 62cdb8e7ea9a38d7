package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	arkmodel "github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"

	"docchat/internal/stream"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"ark api error", &arkmodel.APIError{HTTPStatusCode: 429, Message: "too many"}, 429},
		{"wrapped ark request error", fmt.Errorf("call: %w", &arkmodel.RequestError{HTTPStatusCode: 403, Err: errors.New("denied")}), 403},
		{"openai style text", errors.New("error, status code: 401, status: 401 Unauthorized, message: invalid key"), 401},
		{"deadline", fmt.Errorf("generate: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusOf(tt.err); got != tt.want {
				t.Errorf("StatusOf() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestUpstreamError(t *testing.T) {
	err := errors.New("error, status code: 404, message: The model `qwen-x` does not exist")
	ue := UpstreamError(err)
	if ue.Status != http.StatusNotFound {
		t.Fatalf("Status = %d, want 404", ue.Status)
	}
	want := "Model not found or access denied. Please check the model name and your API permissions."
	if got := stream.UserMessage(ue); got != want {
		t.Errorf("UserMessage() = %q, want %q", got, want)
	}

	if UpstreamError(nil) != nil {
		t.Error("UpstreamError(nil) should be nil")
	}
}
