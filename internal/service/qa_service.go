package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/embedding"

	"docchat/internal/ai"
	"docchat/internal/ai/chain"
	"docchat/internal/model/qa"
	"docchat/internal/pkg/id"
	"docchat/internal/pkg/logger"
	"docchat/internal/pkg/segment"
	"docchat/internal/pkg/textsplit"
	"docchat/internal/pkg/vector"
)

const (
	qaTopK             = 10
	maxSources         = 3
	sourcePreviewRunes = 200
	defaultSearchTopK  = 5
	maxSearchTopK      = 20
	defaultSuggestions = 5

	// NoAnswerMessage 没有检索到相关片段时的固定回答
	NoAnswerMessage = "抱歉，在文档中没有找到相关信息来回答您的问题。"
)

var (
	ErrQuestionRequired = errors.New("问题不能为空")
	ErrInvalidTopK      = errors.New("top_k 必须在 1 到 20 之间")
	ErrInvalidRating    = errors.New("评分必须在 1 到 5 之间")
)

// FeedbackRepository 问答反馈存储
type FeedbackRepository interface {
	Create(ctx context.Context, fb *qa.Feedback) error
}

// QAService 文档问答服务
type QAService struct {
	chain     *chain.QAChain
	embedder  embedding.Embedder
	vectors   vector.Store
	feedback  FeedbackRepository
	seg       *segment.Segmenter
	threshold float64
}

// NewQAService 创建问答服务
func NewQAService(qaChain *chain.QAChain, embedder embedding.Embedder, vectors vector.Store, feedback FeedbackRepository, seg *segment.Segmenter, threshold float64) *QAService {
	return &QAService{
		chain:     qaChain,
		embedder:  embedder,
		vectors:   vectors,
		feedback:  feedback,
		seg:       seg,
		threshold: threshold,
	}
}

// Query 基于用户文档回答问题
func (s *QAService) Query(ctx context.Context, userID string, req *qa.QueryRequest) (*qa.QueryResponse, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, ErrQuestionRequired
	}
	start := time.Now()

	hits, err := s.retrieve(ctx, userID, question, qaTopK, req.DocumentIDs)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return &qa.QueryResponse{Answer: NoAnswerMessage, Sources: []qa.Source{}, Confidence: 0}, nil
	}

	passages := make([]chain.Passage, len(hits))
	for i, h := range hits {
		passages[i] = chain.Passage{Filename: h.Filename, Text: h.Text}
	}
	answer, err := s.chain.Run(ctx, question, passages, req.History)
	if err != nil {
		return nil, ai.UpstreamError(err)
	}

	resp := &qa.QueryResponse{
		Answer:     answer,
		Sources:    Sources(hits),
		Confidence: Confidence(hits),
	}
	logger.Ctx(ctx).Info().
		Int("hits", len(hits)).
		Float64("confidence", resp.Confidence).
		Dur("latency", time.Since(start)).
		Msg("qa answered")
	return resp, nil
}

// Search 只检索不生成
func (s *QAService) Search(ctx context.Context, userID string, req *qa.SearchRequest) ([]qa.SearchResult, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrQuestionRequired
	}
	topK := req.TopK
	if topK == 0 {
		topK = defaultSearchTopK
	}
	if topK < 1 || topK > maxSearchTopK {
		return nil, ErrInvalidTopK
	}

	hits, err := s.retrieve(ctx, userID, query, topK, req.DocumentIDs)
	if err != nil {
		return nil, err
	}

	keywords := s.seg.Keywords(query)
	results := make([]qa.SearchResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, qa.SearchResult{
			DocumentID: h.DocumentID,
			Filename:   h.Filename,
			ChunkIndex: h.ChunkIndex,
			Content:    h.Text,
			Score:      h.Score,
			Keywords:   matchedKeywords(keywords, h.Text),
		})
	}
	return results, nil
}

// Suggestions 根据输入前缀生成问题建议
func (s *QAService) Suggestions(prefix string, limit int) []string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return []string{}
	}
	if limit <= 0 {
		limit = defaultSuggestions
	}
	suggestions := []string{
		prefix + "是什么意思？",
		prefix + "如何使用？",
		prefix + "的相关概念",
	}
	if limit < len(suggestions) {
		suggestions = suggestions[:limit]
	}
	return suggestions
}

// Feedback 保存问答反馈
func (s *QAService) Feedback(ctx context.Context, userID string, req *qa.FeedbackRequest) (*qa.Feedback, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, ErrInvalidRating
	}
	fb := &qa.Feedback{
		ID:        id.New(),
		UserID:    userID,
		Question:  req.Question,
		Answer:    req.Answer,
		Rating:    req.Rating,
		Comment:   req.Comment,
		CreatedAt: time.Now(),
	}
	if err := s.feedback.Create(ctx, fb); err != nil {
		return nil, err
	}
	logger.Ctx(ctx).Info().Int("rating", fb.Rating).Msg("qa feedback recorded")
	return fb, nil
}

func (s *QAService) retrieve(ctx context.Context, userID, text string, topK int, docIDs []string) ([]vector.Hit, error) {
	vectors, err := s.embedder.EmbedStrings(ctx, []string{text})
	if err != nil {
		return nil, ai.UpstreamError(err)
	}
	if len(vectors) == 0 {
		return nil, errors.New("embedder returned no vector")
	}

	return s.vectors.Query(ctx, vector.Query{
		UserID:      userID,
		Vector:      vectors[0],
		TopK:        topK,
		DocumentIDs: docIDs,
		Threshold:   s.threshold,
	})
}

// Sources 取前三个命中作为引用，内容截断到 200 字
func Sources(hits []vector.Hit) []qa.Source {
	n := min(len(hits), maxSources)
	sources := make([]qa.Source, 0, n)
	for _, h := range hits[:n] {
		sources = append(sources, qa.Source{
			DocumentID: h.DocumentID,
			Filename:   h.Filename,
			Content:    textsplit.Truncate(h.Text, sourcePreviewRunes),
			Score:      h.Score,
		})
	}
	return sources
}

// Confidence 全部命中的平均分乘 1.2，上限 1
func Confidence(hits []vector.Hit) float64 {
	if len(hits) == 0 {
		return 0
	}
	var sum float64
	for _, h := range hits {
		sum += h.Score
	}
	return math.Min(sum/float64(len(hits))*1.2, 1)
}

func matchedKeywords(keywords []string, text string) []string {
	lower := strings.ToLower(text)
	var matched []string
	for _, k := range keywords {
		if strings.Contains(lower, strings.ToLower(k)) {
			matched = append(matched, k)
		}
	}
	return matched
}
