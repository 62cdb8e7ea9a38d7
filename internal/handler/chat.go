package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docchat/internal/handler/respond"
	"docchat/internal/model"
	"docchat/internal/service"
	"docchat/internal/stream"
)

// ChatHandler 对话处理器
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler 创建对话处理器
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Chat 对话接口
// @Summary      对话
// @Description  stream 为 true 时以 SSE 返回内容帧、用量帧与 [DONE]，否则返回完整回复
// @Tags         对话
// @Accept       json
// @Produce      json,text/event-stream
// @Param        request  body      model.ChatRequest   true  "对话请求"
// @Success      200      {object}  model.ChatResponse  "非流式响应"
// @Failure      400      {object}  respond.ErrorResponse  "请求参数错误"
// @Failure      404      {object}  respond.ErrorResponse  "角色或对话不存在"
// @Failure      502      {object}  respond.ErrorResponse  "模型服务错误"
// @Router       /api/v1/chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "Invalid request body", err)
		return
	}

	if req.Stream {
		h.stream(c, &req)
		return
	}

	resp, err := h.chatService.Chat(c.Request.Context(), respond.UserID(c), &req)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ChatStream 流式对话接口，等价于 stream=true 的 Chat
// @Summary      流式对话
// @Tags         对话
// @Accept       json
// @Produce      text/event-stream
// @Param        request  body  model.ChatRequest  true  "对话请求"
// @Success      200  {string}  string  "SSE 帧"
// @Failure      400  {object}  respond.ErrorResponse  "请求参数错误"
// @Router       /api/v1/chat/stream [post]
func (h *ChatHandler) ChatStream(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "Invalid request body", err)
		return
	}
	req.Stream = true
	h.stream(c, &req)
}

func (h *ChatHandler) stream(c *gin.Context, req *model.ChatRequest) {
	ctx := c.Request.Context()

	// 上游在写出第一个字节前失败时仍返回 JSON 错误
	cs, err := h.chatService.OpenStream(ctx, respond.UserID(c), req)
	if err != nil {
		respond.Error(c, err)
		return
	}

	stream.SetHeaders(c.Writer.Header())
	c.Status(http.StatusOK)
	_ = cs.Pump(ctx, stream.NewWriter(c.Writer))
}
