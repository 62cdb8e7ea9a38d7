package document

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docchat/internal/handler/respond"
)

// Delete 删除文档
// @Summary      删除文档
// @Description  软删除文档，同时删除向量与原件
// @Tags         文档管理
// @Param        document_id  path      string  true  "文档ID"
// @Success      200          {object}  map[string]interface{}
// @Failure      404          {object}  ErrorResponse  "文档不存在"
// @Router       /api/v1/documents/{document_id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	if err := h.documentService.Delete(c.Request.Context(), respond.UserID(c), c.Param("document_id")); err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, "文档删除成功", nil)
}
