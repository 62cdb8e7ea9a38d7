package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docchat/internal/handler/respond"
	"docchat/internal/service"
)

// HistoryHandler 对话历史处理器
type HistoryHandler struct {
	historyService *service.HistoryService
}

// NewHistoryHandler 创建对话历史处理器
func NewHistoryHandler(historyService *service.HistoryService) *HistoryHandler {
	return &HistoryHandler{historyService: historyService}
}

// UpdateEvaluationRequest 人工评价
type UpdateEvaluationRequest struct {
	Evaluation string `json:"evaluation"`
}

// List 历史列表
// @Summary      对话历史
// @Tags         历史
// @Produce      json
// @Param        page       query     int  false  "页码"
// @Param        page_size  query     int  false  "每页数量（最大100）"
// @Success      200        {object}  map[string]interface{}
// @Router       /api/v1/history [get]
func (h *HistoryHandler) List(c *gin.Context) {
	page, pageSize := respond.Page(c)
	result, err := h.historyService.List(c.Request.Context(), respond.UserID(c), page, pageSize)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, "success", result)
}

// UpdateEvaluation 更新评价
// @Summary      更新评价
// @Tags         历史
// @Accept       json
// @Param        id       path  string                   true  "记录ID"
// @Param        request  body  UpdateEvaluationRequest  true  "评价"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  respond.ErrorResponse  "记录不存在"
// @Router       /api/v1/history/{id}/evaluation [put]
func (h *HistoryHandler) UpdateEvaluation(c *gin.Context) {
	var req UpdateEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "Invalid request body", err)
		return
	}

	if err := h.historyService.UpdateEvaluation(c.Request.Context(), respond.UserID(c), c.Param("id"), req.Evaluation); err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, "评价已更新", nil)
}

// Clear 清空历史
// @Summary      清空历史
// @Tags         历史
// @Success      200  {object}  map[string]interface{}
// @Router       /api/v1/history [delete]
func (h *HistoryHandler) Clear(c *gin.Context) {
	n, err := h.historyService.Clear(c.Request.Context(), respond.UserID(c))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, "历史已清空", gin.H{"deleted": n})
}
