package stream

import "docchat/internal/model"

// SSE 帧常量
const (
	DataPrefix   = "data: "
	DoneSentinel = "[DONE]"
)

// EventType 流事件类型
type EventType int

const (
	EventContentDelta EventType = iota + 1 // 文本增量
	EventUsageReport                       // token 使用量
	EventStreamEnd                         // 显式结束
	EventStreamError                       // 上游错误帧
)

func (t EventType) String() string {
	switch t {
	case EventContentDelta:
		return "content_delta"
	case EventUsageReport:
		return "usage_report"
	case EventStreamEnd:
		return "stream_end"
	case EventStreamError:
		return "stream_error"
	default:
		return "unknown"
	}
}

// Event 一条 data 行解析出的事件
type Event struct {
	Type    EventType
	Content string
	Usage   *model.TokenUsage
	Error   string
}

// Terminal 该事件之后不再处理任何帧
func (e Event) Terminal() bool {
	return e.Type == EventStreamEnd || e.Type == EventStreamError
}

// Frame data 帧的 JSON 载荷（服务端编码用）
type Frame struct {
	Content string            `json:"content,omitempty"`
	Usage   *model.TokenUsage `json:"usage,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// wireUsage 解码时区分字段缺失和零值
type wireUsage struct {
	PromptTokens     *int `json:"prompt_tokens"`
	CompletionTokens *int `json:"completion_tokens"`
	TotalTokens      *int `json:"total_tokens"`
}

type wireFrame struct {
	Content *string    `json:"content"`
	Usage   *wireUsage `json:"usage"`
	Error   *string    `json:"error"`
}

func (u *wireUsage) toModel() (*model.TokenUsage, bool) {
	if u == nil || u.PromptTokens == nil || u.CompletionTokens == nil || u.TotalTokens == nil {
		return nil, false
	}
	usage := &model.TokenUsage{
		PromptTokens:     *u.PromptTokens,
		CompletionTokens: *u.CompletionTokens,
		TotalTokens:      *u.TotalTokens,
	}
	if !usage.Valid() {
		return nil, false
	}
	return usage, true
}
