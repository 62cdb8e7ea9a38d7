package qa

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"docchat/internal/model/qa"
)

// FeedbackRepo 问答反馈仓库
type FeedbackRepo struct {
	collection *mongo.Collection
}

// NewFeedbackRepo 创建反馈仓库
func NewFeedbackRepo(db *mongo.Database) *FeedbackRepo {
	var fb qa.Feedback
	return &FeedbackRepo{
		collection: db.Collection(fb.Collection()),
	}
}

// Create 保存反馈
func (r *FeedbackRepo) Create(ctx context.Context, fb *qa.Feedback) error {
	_, err := r.collection.InsertOne(ctx, fb)
	return err
}
