package chain

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"docchat/internal/model"
	"docchat/internal/pkg/textsplit"
)

const (
	qaMaxTokens   = 1000
	qaTemperature = 0.7

	// DefaultContextTokens 上下文 token 预算
	DefaultContextTokens = 2000
	// 预算不足时，剩余超过该值才截断保留最后一段
	minRemainingTokens = 50
	maxHistoryTurns    = 5
)

const qaPromptTemplate = `
你是一个专业的文档问答助手。请根据提供的文档内容回答用户的问题。

文档内容：
%s

用户问题：%s

请根据以上文档内容回答问题。如果文档中没有相关信息，请明确说明。
回答要求：
1. 准确、简洁地回答问题
2. 引用相关的文档内容作为依据
3. 如果不确定答案，请如实说明
`

// Passage 参与构建上下文的文档片段
type Passage struct {
	Filename string
	Text     string
}

// QAChain 文档问答链
// 工作流: 检索片段 -> 上下文 + 历史 + 问题 -> ChatModel -> 回答
type QAChain struct {
	chatModel     einomodel.BaseChatModel
	model         string
	contextTokens int
}

// NewQAChain 创建问答链，modelName 为空时使用模型默认值
func NewQAChain(chatModel einomodel.BaseChatModel, modelName string, contextTokens int) *QAChain {
	if contextTokens <= 0 {
		contextTokens = DefaultContextTokens
	}
	return &QAChain{
		chatModel:     chatModel,
		model:         modelName,
		contextTokens: contextTokens,
	}
}

// Run 生成回答
func (c *QAChain) Run(ctx context.Context, question string, passages []Passage, history []model.ChatMessage) (string, error) {
	prompt := BuildQAPrompt(question, BuildContext(passages, c.contextTokens), history)

	opts := []einomodel.Option{
		einomodel.WithMaxTokens(qaMaxTokens),
		einomodel.WithTemperature(qaTemperature),
	}
	if c.model != "" {
		opts = append(opts, einomodel.WithModel(c.model))
	}

	resp, err := c.chatModel.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)}, opts...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}

// BuildQAPrompt 填充问答模板，有历史时加在最前
func BuildQAPrompt(question, docContext string, history []model.ChatMessage) string {
	prompt := fmt.Sprintf(qaPromptTemplate, docContext, question)
	if len(history) > 0 {
		prompt = FormatHistory(history) + prompt
	}
	return prompt
}

// BuildContext 拼接检索片段，总量不超过 maxTokens
// 按字符数/4 粗略估算 token
func BuildContext(passages []Passage, maxTokens int) string {
	var parts []string
	total := 0
	for _, p := range passages {
		tokens := utf8.RuneCountInString(p.Text) / 4
		if total+tokens > maxTokens {
			remaining := maxTokens - total
			if remaining > minRemainingTokens {
				parts = append(parts, fmt.Sprintf("[来自 %s]: %s", p.Filename, textsplit.Truncate(p.Text, remaining*4)))
			}
			break
		}
		parts = append(parts, fmt.Sprintf("[来自 %s]: %s", p.Filename, p.Text))
		total += tokens
	}
	return strings.Join(parts, "\n\n")
}

// FormatHistory 格式化最近几轮对话
func FormatHistory(history []model.ChatMessage) string {
	if len(history) == 0 {
		return ""
	}
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}

	var b strings.Builder
	b.WriteString("对话历史：\n")
	for _, m := range history {
		role := "助手"
		if m.Role == model.RoleUser {
			role = "用户"
		}
		b.WriteString(role + ": " + m.Content + "\n")
	}
	b.WriteString("\n")
	return b.String()
}
