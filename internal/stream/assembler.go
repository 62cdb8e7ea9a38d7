package stream

import (
	"context"
	"errors"
	"io"
	"net"
)

const defaultReadSize = 4 * 1024

// State 组装器状态
// Idle -> Streaming -> {Finalized, Errored}，终止状态不可离开
type State int

const (
	StateIdle State = iota
	StateStreaming
	StateFinalized
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateFinalized:
		return "finalized"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Terminal 是否为终止状态
func (s State) Terminal() bool {
	return s == StateFinalized || s == StateErrored
}

// Assembler 将 SSE 字节流组装到一条进行中的消息上
// 每个请求一个实例，只修改构造时传入的消息
type Assembler struct {
	msg      *Message
	parser   Parser
	state    State
	failure  error
	readSize int
	onUpdate func(*Message)
	onEvent  func(Event)
}

// Option 组装器选项
type Option func(*Assembler)

// WithUpdateHook 消息内容或用量变化时回调
func WithUpdateHook(fn func(*Message)) Option {
	return func(a *Assembler) {
		a.onUpdate = fn
	}
}

// WithEventHook 每个被应用的事件回调一次
func WithEventHook(fn func(Event)) Option {
	return func(a *Assembler) {
		a.onEvent = fn
	}
}

// WithReadSize 单次读取的缓冲大小
func WithReadSize(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.readSize = n
		}
	}
}

// NewAssembler 创建组装器
func NewAssembler(msg *Message, opts ...Option) *Assembler {
	a := &Assembler{
		msg:      msg,
		readSize: defaultReadSize,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Message 被组装的消息
func (a *Assembler) Message() *Message {
	return a.msg
}

// State 当前状态
func (a *Assembler) State() State {
	return a.state
}

// Err 以 Errored 结束时的错误（*UpstreamError 或 *TransportError）
func (a *Assembler) Err() error {
	return a.failure
}

// Skipped 被静默丢弃的无法解析帧数量
func (a *Assembler) Skipped() int {
	return a.parser.Skipped()
}

// Run 从 r 读取直到终止
// ctx 取消或读取端被关闭视为正常结束，返回 nil；传输失败与错误帧返回对应错误
func (a *Assembler) Run(ctx context.Context, r io.Reader) error {
	if a.state != StateIdle {
		return ErrAssemblerUsed
	}
	a.state = StateStreaming

	buf := make([]byte, a.readSize)
	for {
		if ctx.Err() != nil {
			a.Close()
			return nil
		}

		n, err := r.Read(buf)
		if n > 0 && a.Feed(buf[:n]) {
			return a.failure
		}
		if err == nil {
			continue
		}

		if errors.Is(err, io.EOF) || isCancellation(ctx, err) {
			a.Close()
			return nil
		}
		a.Fail(&TransportError{Err: err})
		return a.failure
	}
}

// Feed 处理一个字节块，返回是否已进入终止状态
func (a *Assembler) Feed(chunk []byte) bool {
	if a.state.Terminal() {
		return true
	}
	a.state = StateStreaming

	a.parser.Feed(chunk, a.apply)
	return a.state.Terminal()
}

// Close 流关闭，未收到 [DONE] 时按隐式结束处理
func (a *Assembler) Close() {
	if a.state.Terminal() {
		return
	}
	a.parser.Flush(a.apply)
	if !a.state.Terminal() {
		a.finalize()
	}
}

// Fail 以传输错误结束
func (a *Assembler) Fail(err error) {
	if a.state.Terminal() {
		return
	}
	a.failure = err
	a.state = StateErrored
	a.msg.fail(err.Error(), UserMessage(err))
	a.notify()
}

func (a *Assembler) apply(ev Event) bool {
	if a.state.Terminal() {
		return false
	}
	if a.onEvent != nil {
		a.onEvent(ev)
	}

	switch ev.Type {
	case EventContentDelta:
		if a.msg.appendContent(ev.Content) {
			a.notify()
		}
	case EventUsageReport:
		if a.msg.setUsage(ev.Usage) {
			a.notify()
		}
	case EventStreamEnd:
		a.finalize()
		return false
	case EventStreamError:
		a.failure = &UpstreamError{Message: ev.Error}
		a.state = StateErrored
		a.msg.fail(ev.Error, ev.Error)
		a.notify()
		return false
	}
	return true
}

func (a *Assembler) finalize() {
	a.state = StateFinalized
	a.msg.finalize()
	a.notify()
}

func (a *Assembler) notify() {
	if a.onUpdate != nil {
		a.onUpdate(a.msg)
	}
}

func isCancellation(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed)
}
