package document

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"docchat/internal/handler/respond"
	"docchat/internal/service"
)

// UploadResponseData 上传响应数据
type UploadResponseData struct {
	DocumentID string `json:"document_id"` // 文档ID
	Filename   string `json:"filename"`    // 文件名
	Status     string `json:"status"`      // 处理状态
	Message    string `json:"message"`     // 提示信息
}

// Upload 上传文档
// @Summary      上传文档
// @Description  通过 multipart/form-data 上传文档，上传后异步抽取文本并向量化
// @Tags         文档管理
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "文档（pdf/txt/docx/doc/html/htm/md）"
// @Success      201   {object}  map[string]interface{}  "成功响应"  "{\"code\": 0, \"message\": \"文档上传成功，正在处理中\", \"data\": {\"document_id\": \"...\", \"filename\": \"...\", \"status\": \"uploaded\", \"message\": \"...\"}}"
// @Success      200   {object}  map[string]interface{}  "文档已存在"
// @Failure      400   {object}  ErrorResponse  "请求参数错误"
// @Failure      413   {object}  ErrorResponse  "文件过大"
// @Failure      415   {object}  ErrorResponse  "不支持的文件类型"
// @Failure      500   {object}  ErrorResponse  "服务器内部错误"
// @Router       /api/v1/documents/upload [post]
func (h *Handler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		respond.BadRequest(c, "Invalid file", err)
		return
	}

	maxSize := h.documentService.MaxFileSize()
	if file.Size > maxSize {
		respond.Error(c, fmt.Errorf("%w: %d > %d", service.ErrFileTooLarge, file.Size, maxSize))
		return
	}

	f, err := file.Open()
	if err != nil {
		respond.BadRequest(c, "Failed to open file", err)
		return
	}
	defer f.Close()

	// 多读一个字节，超限交给 service 判定
	content, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	if err != nil {
		respond.BadRequest(c, "Failed to read file", err)
		return
	}

	result, err := h.documentService.Upload(c.Request.Context(), respond.UserID(c), file.Filename, content)
	if err != nil {
		respond.Error(c, err)
		return
	}

	status := http.StatusCreated
	if result.Existed {
		status = http.StatusOK
	}
	respond.OK(c, status, result.Message, UploadResponseData{
		DocumentID: result.DocumentID,
		Filename:   result.Filename,
		Status:     string(result.Status),
		Message:    result.Message,
	})
}
