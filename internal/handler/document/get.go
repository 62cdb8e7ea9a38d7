package document

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docchat/internal/handler/respond"
)

// Get 文档信息
// @Summary      文档信息
// @Tags         文档管理
// @Produce      json
// @Param        document_id  path      string  true  "文档ID"
// @Success      200          {object}  map[string]interface{}
// @Failure      404          {object}  ErrorResponse  "文档不存在"
// @Router       /api/v1/documents/{document_id} [get]
func (h *Handler) Get(c *gin.Context) {
	doc, err := h.documentService.Get(c.Request.Context(), respond.UserID(c), c.Param("document_id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, "success", toDocumentInfo(doc))
}
