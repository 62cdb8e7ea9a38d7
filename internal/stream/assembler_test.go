package stream

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

// chunkReader 每次 Read 返回一个预设块
type chunkReader struct {
	chunks []string
	err    error
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	if n < len(r.chunks[0]) {
		r.chunks[0] = r.chunks[0][n:]
	} else {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

const helloStream = "data: {\"content\":\"Hel\"}\n\n" +
	"data: {\"content\":\"lo\"}\n\n" +
	"data: {\"usage\":{\"prompt_tokens\":5,\"completion_tokens\":2,\"total_tokens\":7}}\n\n" +
	"data: [DONE]\n\n"

func assemble(chunks ...string) (*Assembler, error) {
	a := NewAssembler(NewMessage("assistant", ""))
	err := a.Run(context.Background(), &chunkReader{chunks: chunks})
	return a, err
}

func TestAssembler(t *testing.T) {
	Convey("Assembler", t, func() {
		Convey("按顺序拼接内容并保留用量", func() {
			a, err := assemble(helloStream)
			So(err, ShouldBeNil)
			So(a.State(), ShouldEqual, StateFinalized)
			msg := a.Message()
			So(msg.Content(), ShouldEqual, "Hello")
			So(msg.Final(), ShouldBeTrue)
			So(msg.Usage().PromptTokens, ShouldEqual, 5)
			So(msg.Usage().CompletionTokens, ShouldEqual, 2)
			So(msg.Usage().TotalTokens, ShouldEqual, 7)
		})

		Convey("任意字节位置切分结果一致", func() {
			for cut := 1; cut < len(helloStream); cut++ {
				a, err := assemble(helloStream[:cut], helloStream[cut:])
				So(err, ShouldBeNil)
				So(a.Message().Content(), ShouldEqual, "Hello")
				So(a.Message().Usage().TotalTokens, ShouldEqual, 7)
				So(a.State(), ShouldEqual, StateFinalized)
			}
		})

		Convey("逐字节投递", func() {
			chunks := make([]string, 0, len(helloStream))
			for i := 0; i < len(helloStream); i++ {
				chunks = append(chunks, helloStream[i:i+1])
			}
			a, err := assemble(chunks...)
			So(err, ShouldBeNil)
			So(a.Message().Content(), ShouldEqual, "Hello")
		})

		Convey("后到的用量覆盖先到的", func() {
			a, _ := assemble(
				"data: {\"usage\":{\"prompt_tokens\":1,\"completion_tokens\":1,\"total_tokens\":2}}\n",
				"data: {\"content\":\"x\"}\n",
				"data: {\"usage\":{\"prompt_tokens\":3,\"completion_tokens\":4,\"total_tokens\":7}}\n",
				"data: [DONE]\n",
			)
			u := a.Message().Usage()
			So(u.PromptTokens, ShouldEqual, 3)
			So(u.CompletionTokens, ShouldEqual, 4)
			So(u.TotalTokens, ShouldEqual, 7)
		})

		Convey("畸形行不影响后续帧", func() {
			a, err := assemble(
				"data: {\"content\":\"a\"}\n",
				"data: {broken json\n",
				"data: {\"content\":\"b\"}\n",
				"data: [DONE]\n",
			)
			So(err, ShouldBeNil)
			So(a.Message().Content(), ShouldEqual, "ab")
			So(a.Skipped(), ShouldEqual, 1)
		})

		Convey("没有 [DONE] 时关闭即结束", func() {
			a, err := assemble(
				"data: {\"content\":\"partial\"}\n\n",
				"data: {\"usage\":{\"prompt_tokens\":1,\"completion_tokens\":1,\"total_tokens\":2}}",
			)
			So(err, ShouldBeNil)
			So(a.State(), ShouldEqual, StateFinalized)
			So(a.Message().Content(), ShouldEqual, "partial")
			So(a.Message().Usage().TotalTokens, ShouldEqual, 2)
		})

		Convey("错误帧终止并记录", func() {
			a, err := assemble(
				"data: {\"error\":\"rate limited\"}\n\n",
				"data: {\"content\":\"ignored\"}\n\n",
			)
			So(a.State(), ShouldEqual, StateErrored)
			var ue *UpstreamError
			So(errors.As(err, &ue), ShouldBeTrue)
			So(ue.Message, ShouldEqual, "rate limited")
			So(a.Message().Content(), ShouldEqual, "Error: rate limited")
			So(a.Message().Err(), ShouldEqual, "rate limited")
			So(a.Message().Final(), ShouldBeTrue)
		})

		Convey("[DONE] 之后的帧不再处理", func() {
			a, _ := assemble("data: {\"content\":\"a\"}\ndata: [DONE]\ndata: {\"content\":\"b\"}\n")
			So(a.Message().Content(), ShouldEqual, "a")
		})

		Convey("读取失败转为传输错误", func() {
			a := NewAssembler(NewMessage("assistant", ""))
			err := a.Run(context.Background(), &chunkReader{
				chunks: []string{"data: {\"content\":\"half\"}\n"},
				err:    errors.New("connection reset by peer"),
			})
			var te *TransportError
			So(errors.As(err, &te), ShouldBeTrue)
			So(a.State(), ShouldEqual, StateErrored)
			So(a.Message().Content(), ShouldEqual, "half\n\nError: "+TransportErrorMessage)
			So(a.Message().Err(), ShouldContainSubstring, "connection reset by peer")
		})

		Convey("取消视为正常结束", func() {
			ctx, cancel := context.WithCancel(context.Background())
			a := NewAssembler(NewMessage("assistant", ""))
			r := &chunkReader{chunks: []string{"data: {\"content\":\"a\"}\n"}, err: context.Canceled}
			cancel()
			err := a.Run(ctx, r)
			So(err, ShouldBeNil)
			So(a.State(), ShouldEqual, StateFinalized)
		})

		Convey("读取端被关闭视为正常结束", func() {
			a := NewAssembler(NewMessage("assistant", ""))
			err := a.Run(context.Background(), &chunkReader{
				chunks: []string{"data: {\"content\":\"a\"}\n"},
				err:    io.ErrClosedPipe,
			})
			So(err, ShouldBeNil)
			So(a.State(), ShouldEqual, StateFinalized)
			So(a.Message().Content(), ShouldEqual, "a")
		})

		Convey("实例只能使用一次", func() {
			a, _ := assemble(helloStream)
			err := a.Run(context.Background(), strings.NewReader(helloStream))
			So(err, ShouldEqual, ErrAssemblerUsed)
			So(a.Message().Content(), ShouldEqual, "Hello")
		})

		Convey("终止后 Feed 与 Fail 无效", func() {
			a, _ := assemble(helloStream)
			So(a.Feed([]byte("data: {\"content\":\"more\"}\n")), ShouldBeTrue)
			a.Fail(errors.New("late"))
			So(a.State(), ShouldEqual, StateFinalized)
			So(a.Message().Content(), ShouldEqual, "Hello")
		})

		Convey("更新回调针对同一条消息", func() {
			msg := NewMessage("assistant", "")
			var seen []string
			a := NewAssembler(msg, WithUpdateHook(func(m *Message) {
				So(m, ShouldPointTo, msg)
				seen = append(seen, m.Content())
			}))
			So(a.Run(context.Background(), strings.NewReader(helloStream)), ShouldBeNil)
			So(seen, ShouldResemble, []string{"Hel", "Hello", "Hello", "Hello"})
		})

		Convey("事件回调按顺序", func() {
			var types []EventType
			a := NewAssembler(NewMessage("assistant", ""), WithEventHook(func(ev Event) {
				types = append(types, ev.Type)
			}), WithReadSize(3))
			So(a.Run(context.Background(), strings.NewReader(helloStream)), ShouldBeNil)
			So(types, ShouldResemble, []EventType{EventContentDelta, EventContentDelta, EventUsageReport, EventStreamEnd})
		})
	})
}
