package stream

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrAssemblerUsed 组装器只能使用一次
var ErrAssemblerUsed = errors.New("assembler already started")

// TransportErrorMessage 传输错误面向用户的提示
const TransportErrorMessage = "Network error, please try again."

// TransportError 网络或读取失败
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "transport error: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UpstreamError 上游显式返回的错误
// Status 为 0 表示来自流内 error 帧
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("upstream error (status %d): %s", e.Status, e.Message)
}

// StatusMessage 按 HTTP 状态码映射面向用户的错误信息
// 未知状态保留原始信息
func StatusMessage(status int, raw string) string {
	switch status {
	case http.StatusUnauthorized:
		return "Authentication failed. Please check your API key."
	case http.StatusForbidden:
		return "Access forbidden. Please check your API permissions."
	case http.StatusTooManyRequests:
		return "Rate limit exceeded. Please try again later."
	case http.StatusNotFound:
		if strings.Contains(strings.ToLower(raw), "model") {
			return "Model not found or access denied. Please check the model name and your API permissions."
		}
	}
	if raw == "" {
		return "An error occurred while calling the API"
	}
	return raw
}

// UserMessage 生成展示给用户的错误信息
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var te *TransportError
	if errors.As(err, &te) {
		return TransportErrorMessage
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		if ue.Status == 0 {
			return ue.Message
		}
		return StatusMessage(ue.Status, ue.Message)
	}
	return err.Error()
}
