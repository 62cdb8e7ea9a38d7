package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"docchat/internal/model"
	"docchat/internal/model/document"
	"docchat/internal/model/history"
	"docchat/internal/model/qa"
)

// EnsureIndexes 创建所有模型的索引，应用启动时调用
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	models := []Model{
		&model.Conversation{},
		&history.Entry{},
		&document.Document{},
		&document.Chunk{},
		&qa.Feedback{},
	}
	return EnsureAllIndexes(ctx, db, models...)
}
