package stream

import (
	"strings"
	"sync"

	"docchat/internal/model"
)

// Message 对话中的一条消息
// 助手消息以空内容创建，流式过程中通过指针原地追加，终止后不再变化
type Message struct {
	Role string

	mu      sync.RWMutex
	content strings.Builder
	usage   *model.TokenUsage
	errMsg  string
	final   bool
}

// NewMessage 创建消息
func NewMessage(role, content string) *Message {
	m := &Message{Role: role}
	m.content.WriteString(content)
	return m
}

// Content 当前内容
func (m *Message) Content() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.content.String()
}

// Usage 当前 token 使用量的副本
func (m *Message) Usage() *model.TokenUsage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.usage == nil {
		return nil
	}
	u := *m.usage
	return &u
}

// Err 以错误结束时的原始错误信息
func (m *Message) Err() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.errMsg
}

// Final 是否已终止
func (m *Message) Final() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.final
}

// ToChat 转为请求消息
func (m *Message) ToChat() model.ChatMessage {
	return model.ChatMessage{Role: m.Role, Content: m.Content()}
}

func (m *Message) appendContent(s string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.final {
		return false
	}
	m.content.WriteString(s)
	return true
}

func (m *Message) setUsage(u *model.TokenUsage) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.final {
		return false
	}
	copied := *u
	m.usage = &copied
	return true
}

func (m *Message) finalize() {
	m.mu.Lock()
	m.final = true
	m.mu.Unlock()
}

// fail 以错误结束，内容追加 "Error: <display>"
func (m *Message) fail(raw, display string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.final {
		return
	}
	if m.content.Len() > 0 {
		m.content.WriteString("\n\n")
	}
	m.content.WriteString("Error: ")
	m.content.WriteString(display)
	m.errMsg = raw
	m.final = true
}
