package document

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docchat/internal/handler/respond"
)

// GetDownloadURL 获取原件下载地址（预签名，1小时有效）
// @Summary      获取下载URL
// @Tags         文档管理
// @Produce      json
// @Param        document_id  path      string  true  "文档ID"
// @Success      200          {object}  map[string]interface{}
// @Failure      404          {object}  ErrorResponse  "文档不存在"
// @Router       /api/v1/documents/{document_id}/download-url [get]
func (h *Handler) GetDownloadURL(c *gin.Context) {
	docID := c.Param("document_id")
	url, err := h.documentService.DownloadURL(c.Request.Context(), respond.UserID(c), docID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, "success", gin.H{
		"document_id":  docID,
		"download_url": url,
	})
}
