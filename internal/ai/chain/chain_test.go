package chain

import (
	"context"
	"strings"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	. "github.com/smartystreets/goconvey/convey"

	"docchat/internal/model"
)

// recordingModel 记录调用参数的假模型
type recordingModel struct {
	input []*schema.Message
	opts  *einomodel.Options
	reply *schema.Message
}

func (m *recordingModel) Generate(_ context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	m.input = input
	m.opts = einomodel.GetCommonOptions(&einomodel.Options{}, opts...)
	return m.reply, nil
}

func (m *recordingModel) Stream(_ context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	m.input = input
	m.opts = einomodel.GetCommonOptions(&einomodel.Options{}, opts...)
	return schema.StreamReaderFromArray([]*schema.Message{m.reply}), nil
}

func TestBuildMessages(t *testing.T) {
	Convey("BuildMessages", t, func() {
		Convey("没有 system 消息时插入角色提示词", func() {
			out := BuildMessages([]model.ChatMessage{{Role: "user", Content: "hi"}}, "你是客服")
			So(len(out), ShouldEqual, 2)
			So(out[0].Role, ShouldEqual, schema.System)
			So(out[0].Content, ShouldEqual, "你是客服")
			So(out[1].Role, ShouldEqual, schema.User)
		})

		Convey("已有 system 消息时不插入", func() {
			out := BuildMessages([]model.ChatMessage{
				{Role: "system", Content: "custom"},
				{Role: "user", Content: "hi"},
				{Role: "assistant", Content: "hello"},
			}, "你是客服")
			So(len(out), ShouldEqual, 3)
			So(out[0].Content, ShouldEqual, "custom")
			So(out[2].Role, ShouldEqual, schema.Assistant)
		})
	})
}

func TestChatChain_Run(t *testing.T) {
	Convey("ChatChain.Run", t, func() {
		Convey("使用模型上报的用量", func() {
			m := &recordingModel{reply: &schema.Message{
				Role:    schema.Assistant,
				Content: "ok",
				ResponseMeta: &schema.ResponseMeta{
					Usage: &schema.TokenUsage{PromptTokens: 4, CompletionTokens: 1, TotalTokens: 5},
				},
			}}
			resp, err := NewChatChain(m).Run(context.Background(), &ChatRequest{
				Messages: []model.ChatMessage{{Role: "user", Content: "hi"}},
				Params:   model.GenerationParams{Model: "qwen-turbo", Temperature: 0, TopP: 0.8, MaxTokens: 100},
			})
			So(err, ShouldBeNil)
			So(resp.Content, ShouldEqual, "ok")
			So(resp.Estimated, ShouldBeFalse)
			So(resp.Usage.TotalTokens, ShouldEqual, 5)
			So(*m.opts.Model, ShouldEqual, "qwen-turbo")
			So(*m.opts.Temperature, ShouldEqual, float32(0))
			So(*m.opts.MaxTokens, ShouldEqual, 100)
		})

		Convey("未上报用量时估算", func() {
			m := &recordingModel{reply: schema.AssistantMessage("你好", nil)}
			resp, err := NewChatChain(m).Run(context.Background(), &ChatRequest{
				Messages: []model.ChatMessage{{Role: "user", Content: "abcdef"}},
			})
			So(err, ShouldBeNil)
			So(resp.Estimated, ShouldBeTrue)
			So(resp.Usage.PromptTokens, ShouldEqual, 2)
			So(resp.Usage.CompletionTokens, ShouldEqual, 3)
			So(resp.Usage.TotalTokens, ShouldEqual, 5)
		})
	})
}

func TestBuildContext(t *testing.T) {
	Convey("BuildContext", t, func() {
		Convey("在预算内全部保留", func() {
			ctx := BuildContext([]Passage{{"a.txt", "alpha"}, {"b.txt", "beta"}}, 2000)
			So(ctx, ShouldEqual, "[来自 a.txt]: alpha\n\n[来自 b.txt]: beta")
		})

		Convey("超出预算时截断最后一段", func() {
			long := strings.Repeat("x", 800) // 200 tokens
			ctx := BuildContext([]Passage{{"a.txt", strings.Repeat("y", 400)}, {"b.txt", long}}, 200)
			// 剩余 100 tokens，截断到 400 字符
			So(ctx, ShouldContainSubstring, "[来自 b.txt]: "+strings.Repeat("x", 400)+"...")
		})

		Convey("剩余不足 50 tokens 时丢弃", func() {
			ctx := BuildContext([]Passage{{"a.txt", strings.Repeat("y", 720)}, {"b.txt", strings.Repeat("x", 800)}}, 200)
			So(ctx, ShouldNotContainSubstring, "b.txt")
		})
	})
}

func TestQAChain_Run(t *testing.T) {
	Convey("QAChain 组装提示词并固定生成参数", t, func() {
		m := &recordingModel{reply: schema.AssistantMessage("  答案  ", nil)}
		answer, err := NewQAChain(m, "", 0).Run(context.Background(), "什么是向量？",
			[]Passage{{"intro.md", "向量是一组数。"}},
			[]model.ChatMessage{
				{Role: "user", Content: "q1"}, {Role: "assistant", Content: "a1"},
				{Role: "user", Content: "q2"}, {Role: "assistant", Content: "a2"},
				{Role: "user", Content: "q3"}, {Role: "assistant", Content: "a3"},
			})
		So(err, ShouldBeNil)
		So(answer, ShouldEqual, "答案")

		prompt := m.input[0].Content
		So(prompt, ShouldStartWith, "对话历史：\n助手: a1\n")
		So(prompt, ShouldNotContainSubstring, "q1")
		So(prompt, ShouldContainSubstring, "[来自 intro.md]: 向量是一组数。")
		So(prompt, ShouldContainSubstring, "用户问题：什么是向量？")
		So(*m.opts.MaxTokens, ShouldEqual, 1000)
		So(*m.opts.Temperature, ShouldAlmostEqual, float32(0.7), 1e-6)
		So(m.opts.Model, ShouldBeNil)
	})
}
