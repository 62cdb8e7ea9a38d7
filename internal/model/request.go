package model

// ChatRequest 对话请求
// 生成参数为空时依次回退到角色配置、全局配置
type ChatRequest struct {
	Messages       []ChatMessage `json:"messages"`
	Model          string        `json:"model,omitempty"`
	Temperature    *float64      `json:"temperature,omitempty"`
	TopP           *float64      `json:"top_p,omitempty"`
	MaxTokens      *int          `json:"max_tokens,omitempty"`
	Stream         bool          `json:"stream,omitempty"`
	RoleID         string        `json:"role_id,omitempty"`
	ConversationID string        `json:"conversation_id,omitempty"`
}

// ChatMessage 请求中的一条角色消息
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LastUserMessage 返回最后一条用户消息内容
func (r *ChatRequest) LastUserMessage() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleUser {
			return r.Messages[i].Content
		}
	}
	return ""
}

// GenerationParams 最终生效的生成参数
type GenerationParams struct {
	Model       string  `json:"model" bson:"model"`
	Temperature float64 `json:"temperature" bson:"temperature"`
	TopP        float64 `json:"top_p" bson:"top_p"`
	MaxTokens   int     `json:"max_tokens" bson:"max_tokens"`
}

// CreateConversationRequest 创建对话请求
type CreateConversationRequest struct {
	Title  string `json:"title,omitempty"`
	Model  string `json:"model,omitempty"`
	RoleID string `json:"role_id,omitempty"`
}
