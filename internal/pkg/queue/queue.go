package queue

import (
	"context"
	"errors"
)

// 任务主题
const (
	SubjectDocumentProcess = "docchat.documents.process"
)

// ErrClosed 队列已关闭
var ErrClosed = errors.New("queue closed")

// Handler 任务处理函数，返回错误时按后端策略重试或丢弃
type Handler func(ctx context.Context, data []byte) error

// Queue 后台任务队列
type Queue interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Subscribe(subject string, handler Handler) error
	Close() error
}
