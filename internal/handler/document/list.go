package document

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docchat/internal/handler/respond"
)

// ListResponseData 文档列表响应数据
type ListResponseData struct {
	Documents []DocumentInfo `json:"documents"`
	Total     int64          `json:"total"`
	Page      int            `json:"page"`
	PageSize  int            `json:"page_size"`
}

// List 文档列表
// @Summary      文档列表
// @Tags         文档管理
// @Produce      json
// @Param        page       query     int  false  "页码（默认1）"
// @Param        page_size  query     int  false  "每页数量（默认20，最大100）"
// @Success      200        {object}  map[string]interface{}
// @Router       /api/v1/documents [get]
func (h *Handler) List(c *gin.Context) {
	page, pageSize := respond.Page(c)
	result, err := h.documentService.List(c.Request.Context(), respond.UserID(c), page, pageSize)
	if err != nil {
		respond.Error(c, err)
		return
	}

	respond.OK(c, http.StatusOK, "success", ListResponseData{
		Documents: toDocumentInfoList(result.Documents),
		Total:     result.Total,
		Page:      result.Page,
		PageSize:  result.PageSize,
	})
}
