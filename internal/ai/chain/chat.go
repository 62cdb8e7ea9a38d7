package chain

import (
	"context"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"docchat/internal/model"
	"docchat/internal/pkg/textsplit"
)

// ChatChain 对话链
// 工作流: 请求消息 (+角色提示词) -> ChatModel -> 回复
type ChatChain struct {
	chatModel einomodel.BaseChatModel
}

// ChatRequest 对话链输入
type ChatRequest struct {
	Messages     []model.ChatMessage
	SystemPrompt string // 请求中没有 system 消息时插入到最前
	Params       model.GenerationParams
}

// ChatResponse 对话链输出
type ChatResponse struct {
	Content   string
	Usage     model.TokenUsage
	Estimated bool // 模型未上报用量，Usage 为估算值
}

// NewChatChain 创建对话链
func NewChatChain(chatModel einomodel.BaseChatModel) *ChatChain {
	return &ChatChain{chatModel: chatModel}
}

// Run 同步执行对话
func (c *ChatChain) Run(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	messages := BuildMessages(req.Messages, req.SystemPrompt)

	resp, err := c.chatModel.Generate(ctx, messages, Options(req.Params)...)
	if err != nil {
		return nil, err
	}

	out := &ChatResponse{Content: resp.Content}
	if usage := UsageFromMeta(resp); usage != nil {
		out.Usage = *usage
	} else {
		out.Usage = EstimateUsage(messages, resp.Content)
		out.Estimated = true
	}
	return out, nil
}

// Stream 流式执行对话
func (c *ChatChain) Stream(ctx context.Context, req *ChatRequest) (*schema.StreamReader[*schema.Message], []*schema.Message, error) {
	messages := BuildMessages(req.Messages, req.SystemPrompt)
	sr, err := c.chatModel.Stream(ctx, messages, Options(req.Params)...)
	if err != nil {
		return nil, nil, err
	}
	return sr, messages, nil
}

// BuildMessages 转换为 eino 消息
// systemPrompt 非空且请求中没有 system 消息时插入到最前
func BuildMessages(msgs []model.ChatMessage, systemPrompt string) []*schema.Message {
	out := make([]*schema.Message, 0, len(msgs)+1)

	hasSystem := false
	for _, m := range msgs {
		if m.Role == model.RoleSystem {
			hasSystem = true
			break
		}
	}
	if systemPrompt != "" && !hasSystem {
		out = append(out, schema.SystemMessage(systemPrompt))
	}

	for _, m := range msgs {
		switch m.Role {
		case model.RoleSystem:
			out = append(out, schema.SystemMessage(m.Content))
		case model.RoleAssistant:
			out = append(out, schema.AssistantMessage(m.Content, nil))
		default:
			out = append(out, schema.UserMessage(m.Content))
		}
	}
	return out
}

// Options 生成参数转为模型调用选项
// 参数已解析完毕，temperature 与 top_p 的 0 值也照常下发
func Options(p model.GenerationParams) []einomodel.Option {
	opts := []einomodel.Option{
		einomodel.WithTemperature(float32(p.Temperature)),
		einomodel.WithTopP(float32(p.TopP)),
	}
	if p.Model != "" {
		opts = append(opts, einomodel.WithModel(p.Model))
	}
	if p.MaxTokens > 0 {
		opts = append(opts, einomodel.WithMaxTokens(p.MaxTokens))
	}
	return opts
}

// UsageFromMeta 提取模型上报的 token 用量
func UsageFromMeta(msg *schema.Message) *model.TokenUsage {
	if msg == nil || msg.ResponseMeta == nil || msg.ResponseMeta.Usage == nil {
		return nil
	}
	u := msg.ResponseMeta.Usage
	usage := &model.TokenUsage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}
	if usage.TotalTokens == 0 {
		return nil
	}
	return usage
}

// EstimateUsage 模型未上报时估算用量
func EstimateUsage(input []*schema.Message, output string) model.TokenUsage {
	var prompt int
	for _, m := range input {
		prompt += textsplit.EstimateTokens(m.Content)
	}
	completion := textsplit.EstimateTokens(output)
	return model.TokenUsage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
	}
}
