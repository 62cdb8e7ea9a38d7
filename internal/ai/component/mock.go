package component

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// MockChatModel 未配置 API Key 时使用的本地模型
// 回显最后一条用户消息，不上报 token 用量
type MockChatModel struct{}

// NewMockChatModel 创建 mock 模型
func NewMockChatModel() *MockChatModel {
	return &MockChatModel{}
}

// Generate 同步生成
func (m *MockChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return schema.AssistantMessage(mockReply(input), nil), nil
}

// Stream 按空白切分后逐段返回
func (m *MockChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	reply := mockReply(input)
	words := strings.SplitAfter(reply, " ")
	chunks := make([]*schema.Message, 0, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		chunks = append(chunks, schema.AssistantMessage(w, nil))
	}
	return schema.StreamReaderFromArray(chunks), nil
}

func mockReply(input []*schema.Message) string {
	for i := len(input) - 1; i >= 0; i-- {
		if input[i].Role == schema.User {
			return "This is a mock response to: " + input[i].Content
		}
	}
	return "This is a mock response."
}
