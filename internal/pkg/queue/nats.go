package queue

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	server "github.com/nats-io/nats-server/v2/server"
	nats "github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"docchat/internal/config"
)

const (
	StreamName   = "DOCCHAT"
	MaxDeliver   = 3
	ackWait      = 5 * time.Minute
	readyWait    = 5 * time.Second
	streamMaxAge = 24 * time.Hour
)

// EmbeddedServer 进程内 nats-server，开启 JetStream，不监听端口
type EmbeddedServer struct {
	ns *server.Server
}

// NewEmbeddedServer 启动内嵌服务
func NewEmbeddedServer(storeDir string) (*EmbeddedServer, error) {
	ns, err := server.NewServer(&server.Options{
		DontListen: true,
		JetStream:  true,
		StoreDir:   storeDir,
	})
	if err != nil {
		return nil, err
	}
	go ns.Start()
	if !ns.ReadyForConnections(readyWait) {
		ns.Shutdown()
		return nil, fmt.Errorf("NATS server not ready")
	}
	return &EmbeddedServer{ns: ns}, nil
}

// Connect 建立进程内连接
func (s *EmbeddedServer) Connect() (*nats.Conn, error) {
	return nats.Connect(s.ns.ClientURL(), nats.InProcessServer(s.ns))
}

// Shutdown 关闭服务
func (s *EmbeddedServer) Shutdown() {
	s.ns.Shutdown()
	s.ns.WaitForShutdown()
}

// NATSQueue 基于 JetStream 工作队列的实现
// 处理失败的消息会被 Nak，最多投递 MaxDeliver 次
type NATSQueue struct {
	nc       *nats.Conn
	js       nats.JetStreamContext
	embedded *EmbeddedServer

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	subs []*nats.Subscription
}

// NewNATSQueue 连接外部 NATS，未配置 URL 时启动内嵌服务
func NewNATSQueue(cfg *config.NATSConfig) (*NATSQueue, error) {
	var (
		nc       *nats.Conn
		embedded *EmbeddedServer
		err      error
	)

	if cfg.URL != "" && !cfg.Embedded {
		nc, err = nats.Connect(cfg.URL, nats.Name("docchat"))
		if err != nil {
			return nil, fmt.Errorf("failed to connect NATS: %w", err)
		}
	} else {
		storeDir := cfg.StoreDir
		if storeDir == "" {
			storeDir = filepath.Join(os.TempDir(), "docchat-nats")
		}
		embedded, err = NewEmbeddedServer(storeDir)
		if err != nil {
			return nil, fmt.Errorf("failed to start embedded NATS: %w", err)
		}
		nc, err = embedded.Connect()
		if err != nil {
			embedded.Shutdown()
			return nil, fmt.Errorf("failed to connect embedded NATS: %w", err)
		}
		log.Info().Str("store_dir", storeDir).Msg("embedded NATS JetStream started")
	}

	js, err := nc.JetStream()
	if err == nil {
		err = EnsureStream(js)
	}
	if err != nil {
		nc.Close()
		if embedded != nil {
			embedded.Shutdown()
		}
		return nil, fmt.Errorf("failed to init JetStream: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &NATSQueue{
		nc:       nc,
		js:       js,
		embedded: embedded,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// EnsureStream 创建工作队列 stream，已存在时忽略
func EnsureStream(js nats.JetStreamContext) error {
	_, err := js.AddStream(&nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{"docchat.>"},
		Storage:   nats.FileStorage,
		MaxAge:    streamMaxAge,
		Retention: nats.WorkQueuePolicy,
	})
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return err
	}
	return nil
}

// Publish 发布任务，等待 JetStream 确认
func (q *NATSQueue) Publish(ctx context.Context, subject string, data []byte) error {
	_, err := q.js.Publish(subject, data, nats.Context(ctx))
	return err
}

// Subscribe 以持久化队列消费者订阅，手动 ack
func (q *NATSQueue) Subscribe(subject string, handler Handler) error {
	group := strings.ReplaceAll(subject, ".", "_")
	sub, err := q.js.QueueSubscribe(subject, group, func(msg *nats.Msg) {
		q.handle(subject, msg, handler)
	}, nats.ManualAck(), nats.MaxDeliver(MaxDeliver), nats.AckWait(ackWait))
	if err != nil {
		return err
	}

	q.mu.Lock()
	q.subs = append(q.subs, sub)
	q.mu.Unlock()
	return nil
}

func (q *NATSQueue) handle(subject string, msg *nats.Msg, handler Handler) {
	err := handler(q.ctx, msg.Data)
	if err == nil {
		_ = msg.Ack()
		return
	}

	delivered := uint64(1)
	if meta, metaErr := msg.Metadata(); metaErr == nil {
		delivered = meta.NumDelivered
	}
	logEvt := log.Error().Err(err).Str("subject", subject).Uint64("delivered", delivered)
	if delivered >= MaxDeliver {
		logEvt.Msg("job failed, giving up")
		_ = msg.Term()
		return
	}
	logEvt.Msg("job failed, will retry")
	_ = msg.Nak()
}

// Ping 检查连接状态
func (q *NATSQueue) Ping() error {
	if !q.nc.IsConnected() {
		return fmt.Errorf("NATS connection status: %s", q.nc.Status())
	}
	return nil
}

// Close 退订并断开连接，内嵌服务一并关闭
func (q *NATSQueue) Close() error {
	q.mu.Lock()
	for _, sub := range q.subs {
		_ = sub.Drain()
	}
	q.subs = nil
	q.mu.Unlock()

	_ = q.nc.Drain()
	q.cancel()
	if q.embedded != nil {
		q.embedded.Shutdown()
	}
	return nil
}
