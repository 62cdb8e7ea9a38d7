package service

import (
	"context"
	"errors"
	"sync"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.mongodb.org/mongo-driver/mongo"

	"docchat/internal/model"
)

// scriptedModel 按预设分块输出，可在指定位置注入错误
type scriptedModel struct {
	chunks    []string
	usage     *schema.TokenUsage
	streamErr error // 输出全部分块后返回
	openErr   error // Stream/Generate 直接失败
}

func (m *scriptedModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	if m.openErr != nil {
		return nil, m.openErr
	}
	msg := schema.AssistantMessage(joinChunks(m.chunks), nil)
	if m.usage != nil {
		msg.ResponseMeta = &schema.ResponseMeta{Usage: m.usage}
	}
	return msg, nil
}

func (m *scriptedModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	if m.openErr != nil {
		return nil, m.openErr
	}
	sr, sw := schema.Pipe[*schema.Message](len(m.chunks) + 2)
	go func() {
		defer sw.Close()
		for _, c := range m.chunks {
			sw.Send(schema.AssistantMessage(c, nil), nil)
		}
		if m.usage != nil {
			meta := schema.AssistantMessage("", nil)
			meta.ResponseMeta = &schema.ResponseMeta{Usage: m.usage}
			sw.Send(meta, nil)
		}
		if m.streamErr != nil {
			sw.Send(nil, m.streamErr)
		}
	}()
	return sr, nil
}

func joinChunks(chunks []string) string {
	out := ""
	for _, c := range chunks {
		out += c
	}
	return out
}

// fakeConversationRepo 内存对话存储
type fakeConversationRepo struct {
	mu    sync.Mutex
	convs map[string]*model.Conversation
}

func newFakeConversationRepo(convs ...*model.Conversation) *fakeConversationRepo {
	r := &fakeConversationRepo{convs: make(map[string]*model.Conversation)}
	for _, c := range convs {
		r.convs[c.ID.Hex()] = c
	}
	return r
}

func (r *fakeConversationRepo) Create(ctx context.Context, conv *model.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.convs[conv.ID.Hex()] = conv
	return nil
}

func (r *fakeConversationRepo) FindByID(ctx context.Context, id, userID string) (*model.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.convs[id]
	if !ok || c.UserID != userID {
		return nil, mongo.ErrNoDocuments
	}
	return c, nil
}

func (r *fakeConversationRepo) AppendMessages(ctx context.Context, id string, msgs ...model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.convs[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	c.Messages = append(c.Messages, msgs...)
	return nil
}

func (r *fakeConversationRepo) ListByUserID(ctx context.Context, userID string, limit, offset int64) ([]*model.Conversation, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Conversation
	for _, c := range r.convs {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeConversationRepo) Delete(ctx context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.convs[id]
	if !ok || c.UserID != userID {
		return mongo.ErrNoDocuments
	}
	delete(r.convs, id)
	return nil
}

// failingWriter 模拟客户端断开
type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("broken pipe")
}
