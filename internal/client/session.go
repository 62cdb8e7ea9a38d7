package client

import (
	"context"
	"errors"
	"sync"

	"docchat/internal/model"
	"docchat/internal/stream"
)

// ErrBusy 上一次提交尚未结束
var ErrBusy = errors.New("a response is still streaming")

// ErrEmptyInput 输入为空
var ErrEmptyInput = errors.New("message is empty")

// Outcome 一次提交的结果，用于记录历史
type Outcome struct {
	Input  string
	Output string
	Usage  *model.TokenUsage
	Err    error // 传输或上游错误，取消时为 nil
}

// Session 客户端会话，持有消息列表与进行中标记
type Session struct {
	client *Client

	mu       sync.Mutex
	messages []*stream.Message
	busy     bool

	// Params 每次提交附带的生成参数
	Params Params
}

// Params 提交参数
type Params struct {
	RoleID      string
	Model       string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// NewSession 创建会话
func NewSession(c *Client) *Session {
	return &Session{client: c}
}

// Messages 当前消息列表的快照
func (s *Session) Messages() []*stream.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*stream.Message(nil), s.messages...)
}

// Busy 是否有进行中的提交
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Clear 清空会话，进行中时返回 ErrBusy
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	s.messages = nil
	return nil
}

// Submit 追加用户消息与空的助手消息，并把流式响应组装到助手消息上
func (s *Session) Submit(ctx context.Context, input string, onUpdate func(*stream.Message)) (*Outcome, error) {
	if input == "" {
		return nil, ErrEmptyInput
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.busy = true

	history := chatHistory(s.messages)
	history = append(history, model.ChatMessage{Role: model.RoleUser, Content: input})

	reply := stream.NewMessage(model.RoleAssistant, "")
	s.messages = append(s.messages, stream.NewMessage(model.RoleUser, input), reply)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	req := &model.ChatRequest{
		Messages:    history,
		Model:       s.Params.Model,
		Temperature: s.Params.Temperature,
		TopP:        s.Params.TopP,
		MaxTokens:   s.Params.MaxTokens,
		RoleID:      s.Params.RoleID,
	}
	err := s.client.ChatStream(ctx, req, reply, onUpdate)

	return &Outcome{
		Input:  input,
		Output: reply.Content(),
		Usage:  reply.Usage(),
		Err:    err,
	}, nil
}

// chatHistory 按 用户/助手 成对展开会话
// 回复失败或为空的一轮整体跳过，发给模型的消息保持角色交替
func chatHistory(messages []*stream.Message) []model.ChatMessage {
	history := make([]model.ChatMessage, 0, len(messages)+1)
	for i := 0; i+1 < len(messages); i += 2 {
		user, reply := messages[i], messages[i+1]
		if reply.Err() != "" || reply.Content() == "" {
			continue
		}
		history = append(history, user.ToChat(), reply.ToChat())
	}
	return history
}
