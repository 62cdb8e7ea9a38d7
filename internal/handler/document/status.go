package document

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docchat/internal/handler/respond"
)

// Status 处理状态
// @Summary      处理状态
// @Description  优先读取缓存中的处理状态
// @Tags         文档管理
// @Produce      json
// @Param        document_id  path      string  true  "文档ID"
// @Success      200          {object}  map[string]interface{}
// @Failure      404          {object}  ErrorResponse  "文档不存在"
// @Router       /api/v1/documents/{document_id}/status [get]
func (h *Handler) Status(c *gin.Context) {
	st, err := h.documentService.GetStatus(c.Request.Context(), respond.UserID(c), c.Param("document_id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, "success", st)
}
