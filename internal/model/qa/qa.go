package qa

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"docchat/internal/model"
)

// QueryRequest 问答请求
type QueryRequest struct {
	Question    string              `json:"question" binding:"required"`
	DocumentIDs []string            `json:"document_ids,omitempty"`
	History     []model.ChatMessage `json:"history,omitempty"` // 只取最近 5 条
}

// Source 答案引用的文档片段
type Source struct {
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
}

// QueryResponse 问答响应
type QueryResponse struct {
	Answer     string   `json:"answer"`
	Sources    []Source `json:"sources"`
	Confidence float64  `json:"confidence"`
}

// SearchRequest 检索请求（不生成答案）
type SearchRequest struct {
	Query       string   `json:"query" binding:"required"`
	TopK        int      `json:"top_k,omitempty"`
	DocumentIDs []string `json:"document_ids,omitempty"`
}

// SearchResult 单条检索结果
type SearchResult struct {
	DocumentID string   `json:"document_id"`
	Filename   string   `json:"filename"`
	ChunkIndex int      `json:"chunk_index"`
	Content    string   `json:"content"`
	Score      float64  `json:"score"`
	Keywords   []string `json:"keywords,omitempty"` // 命中的查询关键词
}

// FeedbackRequest 问答反馈
type FeedbackRequest struct {
	Question string `json:"question" binding:"required"`
	Answer   string `json:"answer" binding:"required"`
	Rating   int    `json:"rating" binding:"required,min=1,max=5"`
	Comment  string `json:"comment,omitempty"`
}

// Feedback 持久化的反馈
type Feedback struct {
	ID        string    `bson:"id" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Question  string    `bson:"question" json:"question"`
	Answer    string    `bson:"answer" json:"answer"`
	Rating    int       `bson:"rating" json:"rating"`
	Comment   string    `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Collection 返回集合名称
func (f *Feedback) Collection() string {
	return "qa_feedback"
}

// EnsureIndexes 创建和维护索引
func (f *Feedback) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(f.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{bson.E{Key: "user_id", Value: 1}, bson.E{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_user_created"),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}
