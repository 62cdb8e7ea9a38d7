package history

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"docchat/internal/model"
)

// 自动评价结果
const (
	EvaluationError  = "Error occurred"
	AutoEvalError    = "响应错误"
	AutoEvalTooShort = "响应过短"
	AutoEvalDetailed = "响应详细"
	AutoEvalAdequate = "响应适中"
)

// Entry 一次对话请求的历史记录
type Entry struct {
	ID         string            `bson:"id" json:"id"`
	UserID     string            `bson:"user_id" json:"user_id"`
	Timestamp  time.Time         `bson:"timestamp" json:"timestamp"`
	Input      string            `bson:"input" json:"input"`
	Output     string            `bson:"output" json:"output"`
	Model      string            `bson:"model" json:"model"`
	RoleID     string            `bson:"role_id,omitempty" json:"role_id,omitempty"`
	Params     Params            `bson:"params" json:"params"`
	TokenUsage *model.TokenUsage `bson:"token_usage,omitempty" json:"token_usage,omitempty"`
	Evaluation string            `bson:"evaluation" json:"evaluation"`
}

// Params 请求生效的生成参数
type Params struct {
	Temperature float64 `bson:"temperature" json:"temperature"`
	TopP        float64 `bson:"top_p" json:"top_p"`
	MaxTokens   int     `bson:"max_tokens" json:"max_tokens"`
}

// Collection 返回集合名称
func (e *Entry) Collection() string {
	return "chat_history"
}

// EnsureIndexes 创建和维护索引
func (e *Entry) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(e.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{bson.E{Key: "id", Value: 1}},
			Options: options.Index().SetName("idx_id").SetUnique(true),
		},
		{
			Keys:    bson.D{bson.E{Key: "user_id", Value: 1}, bson.E{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_user_timestamp"),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}
