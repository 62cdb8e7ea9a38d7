package document

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docchat/internal/handler/respond"
)

// Stats 文档统计
// @Summary      文档统计
// @Tags         文档管理
// @Produce      json
// @Param        document_id  path      string  true  "文档ID"
// @Success      200          {object}  map[string]interface{}  "{\"code\": 0, \"message\": \"success\", \"data\": {\"document_id\": \"...\", \"chunk_count\": 3, \"status\": \"processed\", \"text_length\": 1200, \"token_count\": 900}}"
// @Failure      404          {object}  ErrorResponse  "文档不存在"
// @Router       /api/v1/documents/{document_id}/stats [get]
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.documentService.Stats(c.Request.Context(), respond.UserID(c), c.Param("document_id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, "success", stats)
}
