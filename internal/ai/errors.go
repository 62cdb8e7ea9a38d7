package ai

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strconv"

	arkmodel "github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"

	"docchat/internal/stream"
)

// OpenAI 兼容客户端的错误文本形如 "error, status code: 401, status: ..."
var statusCodeRe = regexp.MustCompile(`status code: (\d{3})`)

// UpstreamError 将模型调用错误转换为带 HTTP 状态码的上游错误
// 无法识别状态码时按 500 处理
func UpstreamError(err error) *stream.UpstreamError {
	if err == nil {
		return nil
	}

	var ue *stream.UpstreamError
	if errors.As(err, &ue) {
		return ue
	}

	return &stream.UpstreamError{
		Status:  StatusOf(err),
		Message: err.Error(),
	}
}

// StatusOf 从模型调用错误中提取 HTTP 状态码
func StatusOf(err error) int {
	var apiErr *arkmodel.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return apiErr.HTTPStatusCode
	}
	var reqErr *arkmodel.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return reqErr.HTTPStatusCode
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}

	if m := statusCodeRe.FindStringSubmatch(err.Error()); m != nil {
		if code, convErr := strconv.Atoi(m[1]); convErr == nil && code >= 400 {
			return code
		}
	}
	return http.StatusInternalServerError
}
