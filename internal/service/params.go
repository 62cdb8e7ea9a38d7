package service

import (
	"docchat/internal/ai/component"
	"docchat/internal/config"
	"docchat/internal/model"
	"docchat/internal/model/role"
)

// 生成参数的兜底值
const (
	DefaultTemperature = 0.7
	DefaultTopP        = 0.9
	DefaultMaxTokens   = 2048
)

// DefaultParams 全局默认生成参数，配置中的零值视为未配置
func DefaultParams(cfg *config.AIConfig) model.GenerationParams {
	p := model.GenerationParams{
		Model:       component.DefaultChatModel,
		Temperature: DefaultTemperature,
		TopP:        DefaultTopP,
		MaxTokens:   DefaultMaxTokens,
	}
	if cfg == nil {
		return p
	}
	if cfg.Model != "" {
		p.Model = cfg.Model
	}
	if cfg.Options.Temperature > 0 {
		p.Temperature = cfg.Options.Temperature
	}
	if cfg.Options.TopP > 0 {
		p.TopP = cfg.Options.TopP
	}
	if cfg.Options.MaxTokens > 0 {
		p.MaxTokens = cfg.Options.MaxTokens
	}
	return p
}

// ResolveParams 按 请求 -> 角色 -> 默认 的顺序确定生成参数
func ResolveParams(req *model.ChatRequest, r *role.Role, defaults model.GenerationParams) model.GenerationParams {
	p := defaults
	if r != nil {
		applyModelConfig(&p, r.ModelConfig)
	}

	if req.Model != "" {
		p.Model = req.Model
	}
	if req.Temperature != nil {
		p.Temperature = *req.Temperature
	}
	if req.TopP != nil {
		p.TopP = *req.TopP
	}
	if req.MaxTokens != nil {
		p.MaxTokens = *req.MaxTokens
	}
	return p
}

func applyModelConfig(p *model.GenerationParams, mc role.ModelConfig) {
	if mc.Model != "" {
		p.Model = mc.Model
	}
	if mc.Temperature != nil {
		p.Temperature = *mc.Temperature
	}
	if mc.TopP != nil {
		p.TopP = *mc.TopP
	}
	if mc.MaxTokens != nil {
		p.MaxTokens = *mc.MaxTokens
	}
}
