package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	. "github.com/smartystreets/goconvey/convey"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"docchat/internal/ai/chain"
	"docchat/internal/ai/component"
	"docchat/internal/model"
	"docchat/internal/model/history"
	"docchat/internal/pkg/kvstore"
	"docchat/internal/repository/memory"
	"docchat/internal/stream"
)

const chatUser = "u1"

type chatFixture struct {
	svc     *ChatService
	history *HistoryService
	convs   *fakeConversationRepo
	convID  string
}

func newChatFixture(chatModel einomodel.BaseChatModel) *chatFixture {
	defaults := DefaultParams(nil)
	roles := NewRoleService(kvstore.NewMemoryStore(), defaults)
	hist := NewHistoryService(memory.NewHistoryRepo())

	conv := &model.Conversation{ID: primitive.NewObjectID(), UserID: chatUser}
	convs := newFakeConversationRepo(conv)

	return &chatFixture{
		svc:     NewChatService(chain.NewChatChain(chatModel), roles, hist, convs, defaults),
		history: hist,
		convs:   convs,
		convID:  conv.ID.Hex(),
	}
}

func (f *chatFixture) lastEntry() *HistoryItem {
	res, err := f.history.List(context.Background(), chatUser, 1, 1)
	So(err, ShouldBeNil)
	So(len(res.Items), ShouldEqual, 1)
	return &res.Items[0]
}

func userRequest(content string) *model.ChatRequest {
	return &model.ChatRequest{Messages: []model.ChatMessage{{Role: model.RoleUser, Content: content}}}
}

// replay 用客户端组装器解析服务端输出
func replay(out string) (*stream.Assembler, error) {
	a := stream.NewAssembler(stream.NewMessage(model.RoleAssistant, ""))
	err := a.Run(context.Background(), strings.NewReader(out))
	return a, err
}

func TestChatService_Validate(t *testing.T) {
	Convey("请求校验", t, func() {
		f := newChatFixture(component.NewMockChatModel())
		ctx := context.Background()

		_, err := f.svc.Chat(ctx, chatUser, &model.ChatRequest{})
		var ve *ValidationError
		So(errors.As(err, &ve), ShouldBeTrue)
		So(ve.Message, ShouldEqual, "Messages are required and must be an array")

		req := userRequest("hi")
		req.Messages[0].Role = "robot"
		_, err = f.svc.Chat(ctx, chatUser, req)
		So(errors.As(err, &ve), ShouldBeTrue)

		req = userRequest("hi")
		req.TopP = float64Ptr(1.5)
		_, err = f.svc.Chat(ctx, chatUser, req)
		So(errors.As(err, &ve), ShouldBeTrue)

		req = userRequest("hi")
		req.RoleID = "missing"
		_, err = f.svc.Chat(ctx, chatUser, req)
		So(err, ShouldEqual, ErrRoleNotFound)

		req = userRequest("hi")
		req.ConversationID = primitive.NewObjectID().Hex()
		_, err = f.svc.Chat(ctx, chatUser, req)
		So(err, ShouldEqual, ErrConversationNotFound)
	})
}

func TestChatService_Chat(t *testing.T) {
	Convey("非流式对话", t, func() {
		ctx := context.Background()

		Convey("使用默认角色参数并记录历史", func() {
			f := newChatFixture(component.NewMockChatModel())
			resp, err := f.svc.Chat(ctx, chatUser, userRequest("hello"))
			So(err, ShouldBeNil)
			So(resp.Content, ShouldEqual, "This is a mock response to: hello")
			So(resp.Usage, ShouldNotBeNil)
			So(resp.Usage.TotalTokens, ShouldBeGreaterThan, 0)

			entry := f.lastEntry()
			So(entry.Input, ShouldEqual, "hello")
			So(entry.Output, ShouldEqual, resp.Content)
			So(entry.RoleID, ShouldEqual, RoleCustomerService)
			So(entry.Model, ShouldEqual, "qwen-turbo")
			So(entry.Params.Temperature, ShouldEqual, 0.5)
			So(entry.Evaluation, ShouldBeEmpty)
		})

		Convey("模型上报的用量原样返回", func() {
			f := newChatFixture(&scriptedModel{
				chunks: []string{"ok"},
				usage:  &schema.TokenUsage{PromptTokens: 3, CompletionTokens: 1, TotalTokens: 4},
			})
			resp, err := f.svc.Chat(ctx, chatUser, userRequest("hi"))
			So(err, ShouldBeNil)
			So(*resp.Usage, ShouldResemble, model.TokenUsage{PromptTokens: 3, CompletionTokens: 1, TotalTokens: 4})
		})

		Convey("追加到对话", func() {
			f := newChatFixture(component.NewMockChatModel())
			req := userRequest("hello")
			req.ConversationID = f.convID
			_, err := f.svc.Chat(ctx, chatUser, req)
			So(err, ShouldBeNil)

			conv, _ := f.convs.FindByID(ctx, f.convID, chatUser)
			So(len(conv.Messages), ShouldEqual, 2)
			So(conv.Messages[0].Role, ShouldEqual, model.RoleUser)
			So(conv.Messages[1].Content, ShouldEqual, "This is a mock response to: hello")
		})

		Convey("上游失败映射状态码并记录错误历史", func() {
			f := newChatFixture(&scriptedModel{openErr: errors.New("error, status code: 429, message: too many")})
			_, err := f.svc.Chat(ctx, chatUser, userRequest("hi"))
			var ue *stream.UpstreamError
			So(errors.As(err, &ue), ShouldBeTrue)
			So(ue.Status, ShouldEqual, 429)

			entry := f.lastEntry()
			So(entry.Output, ShouldEqual, "Error: Rate limit exceeded. Please try again later.")
			So(entry.Evaluation, ShouldEqual, history.EvaluationError)
		})
	})
}

func TestChatService_Stream(t *testing.T) {
	Convey("流式对话", t, func() {
		ctx := context.Background()

		Convey("内容帧、用量帧与结束标记", func() {
			f := newChatFixture(&scriptedModel{
				chunks: []string{"Hel", "lo"},
				usage:  &schema.TokenUsage{PromptTokens: 5, CompletionTokens: 2, TotalTokens: 7},
			})
			cs, err := f.svc.OpenStream(ctx, chatUser, userRequest("hi"))
			So(err, ShouldBeNil)

			var buf bytes.Buffer
			So(cs.Pump(ctx, stream.NewWriter(&buf)), ShouldBeNil)
			So(buf.String(), ShouldEndWith, "data: [DONE]\n\n")

			a, err := replay(buf.String())
			So(err, ShouldBeNil)
			So(a.Message().Content(), ShouldEqual, "Hello")
			So(a.Message().Usage().TotalTokens, ShouldEqual, 7)

			So(f.lastEntry().Output, ShouldEqual, "Hello")
		})

		Convey("模型不上报用量时写估算值", func() {
			f := newChatFixture(component.NewMockChatModel())
			cs, err := f.svc.OpenStream(ctx, chatUser, userRequest("a b"))
			So(err, ShouldBeNil)

			var buf bytes.Buffer
			So(cs.Pump(ctx, stream.NewWriter(&buf)), ShouldBeNil)
			So(buf.String(), ShouldContainSubstring, `"usage":`)

			a, _ := replay(buf.String())
			So(a.Message().Content(), ShouldEqual, "This is a mock response to: a b")
		})

		Convey("中途失败写错误帧且不写结束标记", func() {
			f := newChatFixture(&scriptedModel{
				chunks:    []string{"par", "tial"},
				streamErr: errors.New("upstream reset"),
			})
			cs, err := f.svc.OpenStream(ctx, chatUser, userRequest("hi"))
			So(err, ShouldBeNil)

			var buf bytes.Buffer
			So(cs.Pump(ctx, stream.NewWriter(&buf)), ShouldNotBeNil)
			So(buf.String(), ShouldNotContainSubstring, "[DONE]")
			So(buf.String(), ShouldContainSubstring, `"error":"upstream reset"`)

			a, err := replay(buf.String())
			So(err, ShouldNotBeNil)
			So(a.State(), ShouldEqual, stream.StateErrored)

			entry := f.lastEntry()
			So(entry.Output, ShouldStartWith, "partial")
			So(entry.Output, ShouldEndWith, "Error: upstream reset")
			So(entry.Evaluation, ShouldEqual, history.EvaluationError)
		})

		Convey("打开失败时不写任何字节", func() {
			f := newChatFixture(&scriptedModel{openErr: errors.New("error, status code: 401, message: bad key")})
			_, err := f.svc.OpenStream(ctx, chatUser, userRequest("hi"))
			var ue *stream.UpstreamError
			So(errors.As(err, &ue), ShouldBeTrue)
			So(stream.UserMessage(ue), ShouldEqual, "Authentication failed. Please check your API key.")
		})

		Convey("客户端断开时静默停止", func() {
			f := newChatFixture(&scriptedModel{chunks: []string{"a", "b"}})
			cs, err := f.svc.OpenStream(ctx, chatUser, userRequest("hi"))
			So(err, ShouldBeNil)
			So(cs.Pump(ctx, stream.NewWriter(failingWriter{})), ShouldBeNil)

			entry := f.lastEntry()
			So(entry.Evaluation, ShouldBeEmpty)
		})
	})
}
