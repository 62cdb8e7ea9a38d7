package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"docchat/internal/ai/chain"
	"docchat/internal/ai/component"
	"docchat/internal/model"
	"docchat/internal/model/qa"
	"docchat/internal/pkg/segment"
	"docchat/internal/pkg/vector"
	"docchat/internal/repository/memory"
)

func TestSourcesAndConfidence(t *testing.T) {
	Convey("引用与置信度", t, func() {
		long := strings.Repeat("长", 250)
		hits := []vector.Hit{
			{Record: vector.Record{DocumentID: "d1", Filename: "a.txt", Text: long}, Score: 0.9},
			{Record: vector.Record{DocumentID: "d1", Filename: "a.txt", Text: "short"}, Score: 0.7},
			{Record: vector.Record{DocumentID: "d2", Filename: "b.txt", Text: "x"}, Score: 0.5},
			{Record: vector.Record{DocumentID: "d3", Filename: "c.txt", Text: "y"}, Score: 0.3},
		}

		sources := Sources(hits)
		So(len(sources), ShouldEqual, 3)
		So(sources[0].Content, ShouldEqual, strings.Repeat("长", 200)+"...")
		So(sources[1].Content, ShouldEqual, "short")

		So(Confidence(hits), ShouldAlmostEqual, 0.72, 1e-9)
		So(Confidence(hits[:1]), ShouldEqual, 1)
		So(Confidence(nil), ShouldEqual, 0)
	})
}

type qaFixture struct {
	svc      *QAService
	feedback *memory.FeedbackRepo
}

func newQAFixture(threshold float64) *qaFixture {
	ctx := context.Background()
	seg := segment.Default()
	embedder := component.NewHashEmbedder(256, seg)
	store := vector.NewMemoryStore()

	texts := []struct{ user, doc, text string }{
		{"u1", "doc_go", "Go 语言通过 goroutine 实现并发"},
		{"u1", "doc_py", "Python 使用缩进表示代码块"},
		{"u2", "doc_other", "Go 语言通过 goroutine 实现并发"},
	}
	for i, tt := range texts {
		vecs, _ := embedder.EmbedStrings(ctx, []string{tt.text})
		_ = store.Upsert(ctx, []vector.Record{{
			ID:          tt.doc + "_chunk_0",
			UserID:      tt.user,
			DocumentID:  tt.doc,
			Filename:    tt.doc + ".txt",
			ChunkIndex:  0,
			TotalChunks: 1,
			Text:        tt.text,
			Tokens:      i + 1,
			Vector:      vecs[0],
		}})
	}

	fb := memory.NewFeedbackRepo()
	qaChain := chain.NewQAChain(component.NewMockChatModel(), "", 0)
	return &qaFixture{
		svc:      NewQAService(qaChain, embedder, store, fb, seg, threshold),
		feedback: fb,
	}
}

func TestQAService(t *testing.T) {
	Convey("QAService", t, func() {
		ctx := context.Background()
		f := newQAFixture(0.1)

		Convey("问题为空", func() {
			_, err := f.svc.Query(ctx, "u1", &qa.QueryRequest{Question: "  "})
			So(err, ShouldEqual, ErrQuestionRequired)
		})

		Convey("基于命中片段回答", func() {
			resp, err := f.svc.Query(ctx, "u1", &qa.QueryRequest{
				Question: "goroutine 并发",
				History:  []model.ChatMessage{{Role: model.RoleUser, Content: "你好"}},
			})
			So(err, ShouldBeNil)
			So(resp.Answer, ShouldStartWith, "This is a mock response to:")
			So(resp.Answer, ShouldContainSubstring, "[来自 doc_go.txt]")
			So(resp.Answer, ShouldContainSubstring, "对话历史：")
			So(len(resp.Sources), ShouldBeGreaterThan, 0)
			So(resp.Sources[0].DocumentID, ShouldEqual, "doc_go")
			So(resp.Confidence, ShouldBeGreaterThan, 0)
			So(resp.Confidence, ShouldBeLessThanOrEqualTo, 1)
		})

		Convey("没有命中时返回固定回答", func() {
			resp, err := f.svc.Query(ctx, "nobody", &qa.QueryRequest{Question: "goroutine"})
			So(err, ShouldBeNil)
			So(resp.Answer, ShouldEqual, NoAnswerMessage)
			So(resp.Sources, ShouldBeEmpty)
			So(resp.Confidence, ShouldEqual, 0)
		})

		Convey("按文档过滤", func() {
			resp, err := f.svc.Query(ctx, "u1", &qa.QueryRequest{Question: "goroutine 并发", DocumentIDs: []string{"doc_py"}})
			So(err, ShouldBeNil)
			for _, s := range resp.Sources {
				So(s.DocumentID, ShouldEqual, "doc_py")
			}
		})

		Convey("检索带关键词", func() {
			results, err := f.svc.Search(ctx, "u1", &qa.SearchRequest{Query: "goroutine 并发"})
			So(err, ShouldBeNil)
			So(len(results), ShouldBeGreaterThan, 0)
			So(results[0].DocumentID, ShouldEqual, "doc_go")
			So(results[0].Keywords, ShouldContain, "goroutine")

			_, err = f.svc.Search(ctx, "u1", &qa.SearchRequest{Query: "go", TopK: 21})
			So(err, ShouldEqual, ErrInvalidTopK)
			_, err = f.svc.Search(ctx, "u1", &qa.SearchRequest{Query: "go", TopK: -1})
			So(err, ShouldEqual, ErrInvalidTopK)
		})

		Convey("问题建议", func() {
			So(f.svc.Suggestions("", 5), ShouldBeEmpty)
			So(f.svc.Suggestions("Go", 0), ShouldResemble, []string{"Go是什么意思？", "Go如何使用？", "Go的相关概念"})
			So(f.svc.Suggestions("Go", 2), ShouldHaveLength, 2)
		})

		Convey("反馈", func() {
			_, err := f.svc.Feedback(ctx, "u1", &qa.FeedbackRequest{Question: "q", Answer: "a", Rating: 6})
			So(errors.Is(err, ErrInvalidRating), ShouldBeTrue)

			fb, err := f.svc.Feedback(ctx, "u1", &qa.FeedbackRequest{Question: "q", Answer: "a", Rating: 5, Comment: "好"})
			So(err, ShouldBeNil)
			So(fb.ID, ShouldNotBeEmpty)
			So(f.feedback.Len(), ShouldEqual, 1)
		})
	})
}
