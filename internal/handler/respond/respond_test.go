package respond

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	httputil "docchat/internal/pkg/http"
	"docchat/internal/service"
	"docchat/internal/stream"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   int
		msg    string
	}{
		{"validation", &service.ValidationError{Message: "bad"}, http.StatusBadRequest, httputil.CodeBadRequest, "bad"},
		{"not found", service.ErrRoleNotFound, http.StatusNotFound, httputil.CodeNotFound, service.ErrRoleNotFound.Error()},
		{"wrapped not found", fmt.Errorf("x: %w", service.ErrDocumentNotFound), http.StatusNotFound, httputil.CodeNotFound, ""},
		{"last role", service.ErrLastRole, http.StatusConflict, httputil.CodeConflict, ""},
		{"unsupported", fmt.Errorf("%w: .exe", service.ErrUnsupportedFileType), http.StatusUnsupportedMediaType, httputil.CodeUnsupportedType, ""},
		{"too large", service.ErrFileTooLarge, http.StatusRequestEntityTooLarge, httputil.CodeTooLarge, ""},
		{"upstream 429", &stream.UpstreamError{Status: 429, Message: "slow down"}, 429, 42901, "Rate limit exceeded. Please try again later."},
		{"upstream frame", &stream.UpstreamError{Message: "oops"}, http.StatusBadGateway, 50201, "oops"},
		{"unknown", errors.New("db down"), http.StatusInternalServerError, httputil.CodeInternal, "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code, msg := Classify(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, msg)
			}
		})
	}
}
