package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"go.mongodb.org/mongo-driver/mongo"

	"docchat/internal/ai"
	"docchat/internal/ai/chain"
	"docchat/internal/model"
	"docchat/internal/model/history"
	"docchat/internal/model/role"
	"docchat/internal/pkg/logger"
	"docchat/internal/pkg/metrics"
	"docchat/internal/stream"
)

// 对话结果，用于指标
const (
	outcomeSuccess  = "success"
	outcomeError    = "error"
	outcomeCanceled = "canceled"

	modeSync   = "sync"
	modeStream = "stream"
)

var ErrConversationNotFound = errors.New("对话不存在")

// ValidationError 请求参数不合法，Message 直接返回给调用方
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// RoleResolver 解析对话使用的角色
type RoleResolver interface {
	ResolveForChat(ctx context.Context, userID, roleID string) (*role.Role, error)
}

// HistoryRecorder 记录对话历史
type HistoryRecorder interface {
	Add(ctx context.Context, entry *history.Entry) error
}

// ConversationRepository 对话存储
type ConversationRepository interface {
	Create(ctx context.Context, conv *model.Conversation) error
	FindByID(ctx context.Context, id, userID string) (*model.Conversation, error)
	AppendMessages(ctx context.Context, id string, msgs ...model.Message) error
	ListByUserID(ctx context.Context, userID string, limit, offset int64) ([]*model.Conversation, int64, error)
	Delete(ctx context.Context, id, userID string) error
}

// ChatService 对话服务 - 业务逻辑层
// 职责: 校验请求、解析角色与参数、调用 AI 层，并在结束后写历史、追加对话、记指标
type ChatService struct {
	chain    *chain.ChatChain
	roles    RoleResolver
	history  HistoryRecorder        // 可为空
	convRepo ConversationRepository // 可为空
	defaults model.GenerationParams
}

// NewChatService 创建对话服务
func NewChatService(chatChain *chain.ChatChain, roles RoleResolver, history HistoryRecorder, convRepo ConversationRepository, defaults model.GenerationParams) *ChatService {
	return &ChatService{
		chain:    chatChain,
		roles:    roles,
		history:  history,
		convRepo: convRepo,
		defaults: defaults,
	}
}

// chatCall 一次已准备好的对话调用
type chatCall struct {
	userID string
	req    *model.ChatRequest
	role   *role.Role
	params model.GenerationParams
	input  *chain.ChatRequest
	start  time.Time
}

// ValidateChatRequest 校验消息与参数范围
func ValidateChatRequest(req *model.ChatRequest) error {
	if len(req.Messages) == 0 {
		return &ValidationError{Message: "Messages are required and must be an array"}
	}
	for i, m := range req.Messages {
		if !model.IsValidRole(m.Role) {
			return &ValidationError{Message: fmt.Sprintf("Invalid role %q at messages[%d]", m.Role, i)}
		}
	}
	if req.Temperature != nil && (*req.Temperature < 0 || *req.Temperature > 2) {
		return &ValidationError{Message: "temperature must be between 0 and 2"}
	}
	if req.TopP != nil && (*req.TopP < 0 || *req.TopP > 1) {
		return &ValidationError{Message: "top_p must be between 0 and 1"}
	}
	if req.MaxTokens != nil && (*req.MaxTokens < 1 || *req.MaxTokens > 8192) {
		return &ValidationError{Message: "max_tokens must be between 1 and 8192"}
	}
	return nil
}

func (s *ChatService) prepare(ctx context.Context, userID string, req *model.ChatRequest) (*chatCall, error) {
	if err := ValidateChatRequest(req); err != nil {
		return nil, err
	}

	if req.ConversationID != "" && s.convRepo != nil {
		if _, err := s.convRepo.FindByID(ctx, req.ConversationID, userID); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, ErrConversationNotFound
			}
			return nil, err
		}
	}

	var r *role.Role
	if s.roles != nil {
		resolved, err := s.roles.ResolveForChat(ctx, userID, req.RoleID)
		switch {
		case err == nil:
			r = resolved
		case req.RoleID != "":
			return nil, err
		default:
			// 默认角色不可用时不带角色继续
			logger.Ctx(ctx).Warn().Err(err).Msg("default role unavailable")
		}
	}

	call := &chatCall{
		userID: userID,
		req:    req,
		role:   r,
		params: ResolveParams(req, r, s.defaults),
		start:  time.Now(),
	}
	call.input = &chain.ChatRequest{
		Messages: req.Messages,
		Params:   call.params,
	}
	if r != nil {
		call.input.SystemPrompt = r.SystemPrompt
	}
	return call, nil
}

// Chat 非流式对话
func (s *ChatService) Chat(ctx context.Context, userID string, req *model.ChatRequest) (*model.ChatResponse, error) {
	call, err := s.prepare(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	resp, err := s.chain.Run(ctx, call.input)
	if err != nil {
		ue := ai.UpstreamError(err)
		s.finish(ctx, call, modeSync, "", nil, ue)
		return nil, ue
	}

	usage := resp.Usage
	s.finish(ctx, call, modeSync, resp.Content, &usage, nil)
	return &model.ChatResponse{Content: resp.Content, Usage: &usage}, nil
}

// ChatStream 一次进行中的流式对话
type ChatStream struct {
	svc      *ChatService
	call     *chatCall
	reader   *schema.StreamReader[*schema.Message]
	messages []*schema.Message
}

// OpenStream 发起流式调用
// 返回错误时尚未写出任何字节，调用方可以返回普通 JSON 错误
func (s *ChatService) OpenStream(ctx context.Context, userID string, req *model.ChatRequest) (*ChatStream, error) {
	call, err := s.prepare(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	sr, messages, err := s.chain.Stream(ctx, call.input)
	if err != nil {
		ue := ai.UpstreamError(err)
		s.finish(ctx, call, modeStream, "", nil, ue)
		return nil, ue
	}

	return &ChatStream{svc: s, call: call, reader: sr, messages: messages}, nil
}

// Pump 把模型输出编码为 SSE 帧
// 正常结束写用量帧和 [DONE]；中途失败写错误帧后结束，不写 [DONE]；客户端断开时静默停止
func (cs *ChatStream) Pump(ctx context.Context, w *stream.Writer) error {
	defer cs.reader.Close()

	var (
		content strings.Builder
		usage   *model.TokenUsage
	)
	for {
		chunk, err := cs.reader.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				cs.svc.finishCanceled(ctx, cs.call, content.String())
				return nil
			}
			ue := ai.UpstreamError(err)
			_ = w.WriteError(stream.UserMessage(ue))
			cs.svc.finish(ctx, cs.call, modeStream, content.String(), nil, ue)
			return ue
		}

		if u := chain.UsageFromMeta(chunk); u != nil {
			usage = u
		}
		if chunk.Content == "" {
			continue
		}
		content.WriteString(chunk.Content)
		if err := w.WriteContent(chunk.Content); err != nil {
			cs.svc.finishCanceled(ctx, cs.call, content.String())
			return nil
		}
	}

	if usage == nil {
		est := chain.EstimateUsage(cs.messages, content.String())
		usage = &est
	}
	if err := w.WriteUsage(*usage); err == nil {
		_ = w.WriteDone()
	}
	cs.svc.finish(ctx, cs.call, modeStream, content.String(), usage, nil)
	return nil
}

// Close 未调用 Pump 时释放上游连接
func (cs *ChatStream) Close() {
	cs.reader.Close()
}

func (s *ChatService) finishCanceled(ctx context.Context, call *chatCall, partial string) {
	logger.Ctx(ctx).Info().Int("partial_len", len(partial)).Msg("chat stream canceled by client")
	metrics.ObserveChat(modeStream, outcomeCanceled, nil)
	s.recordHistory(context.WithoutCancel(ctx), call, partial, nil, "")
}

// finish 写历史、追加对话、记指标
// 请求可能已被取消，持久化使用不随请求取消的 context
func (s *ChatService) finish(ctx context.Context, call *chatCall, mode, output string, usage *model.TokenUsage, callErr error) {
	bg := context.WithoutCancel(ctx)
	l := logger.Ctx(ctx)

	if callErr != nil {
		l.Error().Err(callErr).Str("mode", mode).Str("model", call.params.Model).Msg("chat failed")
		metrics.ObserveChat(mode, outcomeError, nil)

		display := "Error: " + stream.UserMessage(callErr)
		if output != "" {
			display = output + "\n\n" + display
		}
		s.recordHistory(bg, call, display, nil, history.EvaluationError)
		return
	}

	metrics.ObserveChat(mode, outcomeSuccess, usage)
	s.recordHistory(bg, call, output, usage, "")

	if call.req.ConversationID != "" && s.convRepo != nil {
		now := time.Now()
		msgs := []model.Message{
			{Role: model.RoleUser, Content: call.req.LastUserMessage(), Timestamp: now},
			{Role: model.RoleAssistant, Content: output, Timestamp: now, TokenUsage: usage},
		}
		if err := s.convRepo.AppendMessages(bg, call.req.ConversationID, msgs...); err != nil {
			l.Warn().Err(err).Str("conversation_id", call.req.ConversationID).Msg("failed to append conversation messages")
		}
	}

	ev := l.Info().
		Str("mode", mode).
		Str("model", call.params.Model).
		Dur("latency", time.Since(call.start))
	if usage != nil {
		ev = ev.Int("prompt_tokens", usage.PromptTokens).Int("completion_tokens", usage.CompletionTokens)
	}
	ev.Msg("chat completed")
}

func (s *ChatService) recordHistory(ctx context.Context, call *chatCall, output string, usage *model.TokenUsage, evaluation string) {
	if s.history == nil {
		return
	}

	entry := &history.Entry{
		UserID: call.userID,
		Input:  call.req.LastUserMessage(),
		Output: output,
		Model:  call.params.Model,
		Params: history.Params{
			Temperature: call.params.Temperature,
			TopP:        call.params.TopP,
			MaxTokens:   call.params.MaxTokens,
		},
		TokenUsage: usage,
		Evaluation: evaluation,
	}
	if call.role != nil {
		entry.RoleID = call.role.ID
	}
	if err := s.history.Add(ctx, entry); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("failed to record chat history")
	}
}
