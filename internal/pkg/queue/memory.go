package queue

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

const defaultMemoryBuffer = 256

type job struct {
	subject string
	data    []byte
}

// MemoryQueue 进程内队列：带缓冲的 channel + 固定数量 worker
// 处理失败只记录日志，不重试
type MemoryQueue struct {
	jobs   chan job
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	hmu      sync.RWMutex
	handlers map[string]Handler
}

// NewMemoryQueue 创建内存队列并启动 worker
func NewMemoryQueue(workers int) *MemoryQueue {
	if workers <= 0 {
		workers = 2
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &MemoryQueue{
		jobs:     make(chan job, defaultMemoryBuffer),
		ctx:      ctx,
		cancel:   cancel,
		handlers: make(map[string]Handler),
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	return q
}

// Publish 投递任务，缓冲区满时阻塞直到 ctx 结束
func (q *MemoryQueue) Publish(ctx context.Context, subject string, data []byte) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}

	select {
	case q.jobs <- job{subject: subject, data: append([]byte(nil), data...)}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe 注册主题处理函数，同一主题后注册的覆盖先注册的
func (q *MemoryQueue) Subscribe(subject string, handler Handler) error {
	q.mu.RLock()
	closed := q.closed
	q.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	q.hmu.Lock()
	q.handlers[subject] = handler
	q.hmu.Unlock()
	return nil
}

// Close 停止接收新任务，等待已入队任务处理完
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
	q.cancel()
	return nil
}

func (q *MemoryQueue) worker(n int) {
	defer q.wg.Done()
	for j := range q.jobs {
		q.hmu.RLock()
		h := q.handlers[j.subject]
		q.hmu.RUnlock()

		if h == nil {
			log.Warn().Str("subject", j.subject).Msg("no handler for job, dropped")
			continue
		}
		if err := h(q.ctx, j.data); err != nil {
			log.Error().Err(err).Str("subject", j.subject).Int("worker", n).Msg("job failed")
		}
	}
}
