package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docchat/internal/handler/respond"
	"docchat/internal/model"
	"docchat/internal/service"
)

// ConversationHandler 对话管理处理器
type ConversationHandler struct {
	svc *service.ConversationService // 未配置 MongoDB 时为空
}

// NewConversationHandler 创建对话管理处理器
func NewConversationHandler(svc *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{svc: svc}
}

func (h *ConversationHandler) available(c *gin.Context) bool {
	if h.svc == nil {
		respond.Unavailable(c, "Database not available")
		return false
	}
	return true
}

// Create 创建对话
// @Summary      创建对话
// @Tags         对话管理
// @Accept       json
// @Produce      json
// @Param        request  body      model.CreateConversationRequest  true  "对话信息"
// @Success      201      {object}  model.Conversation
// @Failure      503      {object}  respond.ErrorResponse  "数据库不可用"
// @Router       /api/v1/conversations [post]
func (h *ConversationHandler) Create(c *gin.Context) {
	if !h.available(c) {
		return
	}

	var req model.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "Invalid request body", err)
		return
	}

	conv, err := h.svc.Create(c.Request.Context(), respond.UserID(c), &req)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, conv)
}

// List 获取对话列表
// @Summary      对话列表
// @Tags         对话管理
// @Produce      json
// @Param        page       query     int  false  "页码"
// @Param        page_size  query     int  false  "每页数量"
// @Success      200        {object}  service.ConversationListResult
// @Router       /api/v1/conversations [get]
func (h *ConversationHandler) List(c *gin.Context) {
	if !h.available(c) {
		return
	}

	page, pageSize := respond.Page(c)
	result, err := h.svc.List(c.Request.Context(), respond.UserID(c), page, pageSize)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Get 获取对话详情
// @Summary      对话详情
// @Tags         对话管理
// @Produce      json
// @Param        id   path      string  true  "对话ID"
// @Success      200  {object}  model.Conversation
// @Failure      404  {object}  respond.ErrorResponse  "对话不存在"
// @Router       /api/v1/conversations/{id} [get]
func (h *ConversationHandler) Get(c *gin.Context) {
	if !h.available(c) {
		return
	}

	conv, err := h.svc.Get(c.Request.Context(), respond.UserID(c), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// Delete 删除对话
// @Summary      删除对话
// @Tags         对话管理
// @Param        id   path  string  true  "对话ID"
// @Success      204
// @Failure      404  {object}  respond.ErrorResponse  "对话不存在"
// @Router       /api/v1/conversations/{id} [delete]
func (h *ConversationHandler) Delete(c *gin.Context) {
	if !h.available(c) {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), respond.UserID(c), c.Param("id")); err != nil {
		respond.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
