package history

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"docchat/internal/model/history"
)

// HistoryRepo 对话历史仓库
type HistoryRepo struct {
	collection *mongo.Collection
}

// NewHistoryRepo 创建对话历史仓库
func NewHistoryRepo(db *mongo.Database) *HistoryRepo {
	var entry history.Entry
	return &HistoryRepo{
		collection: db.Collection(entry.Collection()),
	}
}

// Create 写入一条历史
func (r *HistoryRepo) Create(ctx context.Context, entry *history.Entry) error {
	_, err := r.collection.InsertOne(ctx, entry)
	return err
}

// FindByUserID 分页查询，按时间倒序
func (r *HistoryRepo) FindByUserID(ctx context.Context, userID string, limit, offset int) ([]*history.Entry, int64, error) {
	filter := bson.M{"user_id": userID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{bson.E{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	entries := make([]*history.Entry, 0)
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// UpdateEvaluation 更新评价
func (r *HistoryRepo) UpdateEvaluation(ctx context.Context, id, userID, evaluation string) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"id": id, "user_id": userID},
		bson.M{"$set": bson.M{"evaluation": evaluation}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// DeleteByUserID 清空用户历史，返回删除条数
func (r *HistoryRepo) DeleteByUserID(ctx context.Context, userID string) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// CountByUserID 统计用户历史条数
func (r *HistoryRepo) CountByUserID(ctx context.Context, userID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"user_id": userID})
}
