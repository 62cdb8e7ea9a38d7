package role

import "time"

// Role 聊天角色，决定系统提示词和默认生成参数
// 按用户整体序列化为 JSON 存入 kvstore
type Role struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	SystemPrompt string      `json:"system_prompt"`
	ModelConfig  ModelConfig `json:"model_config"`
	IsDefault    bool        `json:"is_default"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// ModelConfig 角色的模型参数，字段为空表示未设置
type ModelConfig struct {
	Model       string   `json:"model,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
}

// CreateRoleRequest 创建角色请求
type CreateRoleRequest struct {
	Name         string      `json:"name" binding:"required"`
	Description  string      `json:"description"`
	SystemPrompt string      `json:"system_prompt"`
	ModelConfig  ModelConfig `json:"model_config"`
	IsDefault    bool        `json:"is_default"`
}

// UpdateRoleRequest 部分更新，nil 字段保持不变
type UpdateRoleRequest struct {
	Name         *string      `json:"name,omitempty"`
	Description  *string      `json:"description,omitempty"`
	SystemPrompt *string      `json:"system_prompt,omitempty"`
	ModelConfig  *ModelConfig `json:"model_config,omitempty"`
	IsDefault    *bool        `json:"is_default,omitempty"`
}
