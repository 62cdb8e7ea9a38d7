// Package respond 处理器共用的响应与错误映射
package respond

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"docchat/internal/pkg/ctxutil"
	httputil "docchat/internal/pkg/http"
	"docchat/internal/service"
	"docchat/internal/stream"
)

// ErrorResponse 错误响应类型别名（使用共用的 http.ErrorResponse）
type ErrorResponse = httputil.ErrorResponse

// UserID 当前请求的用户
func UserID(c *gin.Context) string {
	return ctxutil.UserIDOrAnonymous(c.Request.Context())
}

// Page 解析 page / page_size 查询参数
func Page(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.Query("page_size"))
	return httputil.NormalizePage(page, pageSize)
}

// OK 统一成功响应
func OK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, httputil.NewSuccessResponse(message, data))
}

// BadRequest 请求体或参数无法解析
func BadRequest(c *gin.Context, message string, err error) {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	c.JSON(http.StatusBadRequest, httputil.NewErrorResponse(httputil.CodeBadRequest, message, detail))
}

// Unavailable 依赖未配置
func Unavailable(c *gin.Context, message string) {
	c.JSON(http.StatusServiceUnavailable, httputil.NewErrorResponse(httputil.CodeUnavailable, message))
}

// Error 将服务层错误映射为 HTTP 状态码与业务错误码
func Error(c *gin.Context, err error) {
	status, code, message := Classify(err)
	c.JSON(status, httputil.NewErrorResponse(code, message))
}

// Classify 返回错误对应的 HTTP 状态码、业务错误码与消息
func Classify(err error) (int, int, string) {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, httputil.CodeBadRequest, ve.Message
	}

	var ue *stream.UpstreamError
	if errors.As(err, &ue) {
		status := ue.Status
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		return status, status*100 + 1, stream.UserMessage(ue)
	}

	switch {
	case errors.Is(err, service.ErrRoleNotFound),
		errors.Is(err, service.ErrConversationNotFound),
		errors.Is(err, service.ErrHistoryNotFound),
		errors.Is(err, service.ErrDocumentNotFound):
		return http.StatusNotFound, httputil.CodeNotFound, err.Error()

	case errors.Is(err, service.ErrLastRole),
		errors.Is(err, service.ErrDocumentConflict):
		return http.StatusConflict, httputil.CodeConflict, err.Error()

	case errors.Is(err, service.ErrRoleNameRequired),
		errors.Is(err, service.ErrInvalidRoleParam),
		errors.Is(err, service.ErrQuestionRequired),
		errors.Is(err, service.ErrInvalidTopK),
		errors.Is(err, service.ErrInvalidRating),
		errors.Is(err, service.ErrEmptyFile):
		return http.StatusBadRequest, httputil.CodeBadRequest, err.Error()

	case errors.Is(err, service.ErrUnsupportedFileType):
		return http.StatusUnsupportedMediaType, httputil.CodeUnsupportedType, err.Error()

	case errors.Is(err, service.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, httputil.CodeTooLarge, err.Error()
	}

	return http.StatusInternalServerError, httputil.CodeInternal, "Internal Server Error"
}
