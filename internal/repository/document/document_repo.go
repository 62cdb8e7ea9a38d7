package document

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"docchat/internal/model/document"
)

// DocumentRepo 文档仓库
type DocumentRepo struct {
	collection *mongo.Collection
}

// NewDocumentRepo 创建文档仓库
func NewDocumentRepo(db *mongo.Database) *DocumentRepo {
	var doc document.Document
	return &DocumentRepo{
		collection: db.Collection(doc.Collection()),
	}
}

// Create 创建文档记录
// 软删除过的同 ID 文档会被新记录替换
func (r *DocumentRepo) Create(ctx context.Context, doc *document.Document) error {
	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	_, err := r.collection.ReplaceOne(
		ctx,
		bson.M{"id": doc.ID},
		doc,
		options.Replace().SetUpsert(true),
	)
	return err
}

// FindByID 根据ID查询未删除的文档
func (r *DocumentRepo) FindByID(ctx context.Context, id string) (*document.Document, error) {
	var doc document.Document
	err := r.collection.FindOne(ctx, bson.M{"id": id, "deleted_at": nil}).Decode(&doc)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindByUserID 根据用户ID查询文档列表
func (r *DocumentRepo) FindByUserID(ctx context.Context, userID string, limit, offset int) ([]*document.Document, int64, error) {
	filter := bson.M{
		"user_id":    userID,
		"deleted_at": nil,
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{bson.E{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	docs := make([]*document.Document, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, err
	}

	return docs, total, nil
}

// CountByStatus 按状态统计用户文档数量
func (r *DocumentRepo) CountByStatus(ctx context.Context, userID string) (map[document.Status]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID, "deleted_at": nil}}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status document.Status `bson:"_id"`
		Count  int64           `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	counts := make(map[document.Status]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// Update 更新文档
func (r *DocumentRepo) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"id": id, "deleted_at": nil},
		bson.M{"$set": updates},
	)
	return err
}

// Delete 删除文档（软删除）
func (r *DocumentRepo) Delete(ctx context.Context, id string) error {
	now := time.Now()
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"id": id},
		bson.M{
			"$set": bson.M{
				"deleted_at": now,
				"status":     document.StatusDeleted,
				"updated_at": now,
			},
		},
	)
	return err
}
