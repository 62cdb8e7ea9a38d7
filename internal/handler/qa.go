package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"docchat/internal/handler/respond"
	"docchat/internal/model/qa"
	"docchat/internal/service"
)

// QAHandler 文档问答处理器
type QAHandler struct {
	qaService *service.QAService
}

// NewQAHandler 创建文档问答处理器
func NewQAHandler(qaService *service.QAService) *QAHandler {
	return &QAHandler{qaService: qaService}
}

// Query 文档问答
// @Summary      文档问答
// @Description  检索用户文档中的相关片段并生成回答
// @Tags         问答
// @Accept       json
// @Produce      json
// @Param        request  body      qa.QueryRequest  true  "问题"
// @Success      200      {object}  map[string]interface{}  "{\"code\": 0, \"message\": \"success\", \"data\": {\"answer\": \"...\", \"sources\": [], \"confidence\": 0.8}}"
// @Failure      400      {object}  respond.ErrorResponse  "请求参数错误"
// @Router       /api/v1/qa/query [post]
func (h *QAHandler) Query(c *gin.Context) {
	var req qa.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "Invalid request body", err)
		return
	}

	resp, err := h.qaService.Query(c.Request.Context(), respond.UserID(c), &req)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, "success", resp)
}

// Search 文档检索
// @Summary      文档检索
// @Tags         问答
// @Accept       json
// @Produce      json
// @Param        request  body      qa.SearchRequest  true  "检索条件"
// @Success      200      {object}  map[string]interface{}
// @Failure      400      {object}  respond.ErrorResponse  "请求参数错误"
// @Router       /api/v1/qa/search [post]
func (h *QAHandler) Search(c *gin.Context) {
	var req qa.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "Invalid request body", err)
		return
	}

	results, err := h.qaService.Search(c.Request.Context(), respond.UserID(c), &req)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, "success", gin.H{"results": results, "total": len(results)})
}

// Suggestions 问题建议
// @Summary      问题建议
// @Tags         问答
// @Produce      json
// @Param        prefix  query  string  false  "输入前缀"
// @Param        limit   query  int     false  "数量上限（默认5）"
// @Success      200     {object}  map[string]interface{}
// @Router       /api/v1/qa/suggestions [get]
func (h *QAHandler) Suggestions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	respond.OK(c, http.StatusOK, "success", gin.H{
		"suggestions": h.qaService.Suggestions(c.Query("prefix"), limit),
	})
}

// Feedback 问答反馈
// @Summary      问答反馈
// @Tags         问答
// @Accept       json
// @Produce      json
// @Param        request  body      qa.FeedbackRequest  true  "反馈"
// @Success      201      {object}  map[string]interface{}
// @Failure      400      {object}  respond.ErrorResponse  "请求参数错误"
// @Router       /api/v1/qa/feedback [post]
func (h *QAHandler) Feedback(c *gin.Context) {
	var req qa.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "Invalid request body", err)
		return
	}

	fb, err := h.qaService.Feedback(c.Request.Context(), respond.UserID(c), &req)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusCreated, "感谢您的反馈", gin.H{"feedback_id": fb.ID})
}
