package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"docchat/internal/model"
)

// ConversationRepo 对话仓库
type ConversationRepo struct {
	collection *mongo.Collection
}

// NewConversationRepo 创建对话仓库
func NewConversationRepo(db *mongo.Database) *ConversationRepo {
	var conv model.Conversation
	return &ConversationRepo{
		collection: db.Collection(conv.Collection()),
	}
}

// ownedBy 按 ID 和所属用户过滤，userID 为空时不限制用户
func ownedBy(id, userID string) (bson.M, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, mongo.ErrNoDocuments
	}
	filter := bson.M{"_id": objectID}
	if userID != "" {
		filter["user_id"] = userID
	}
	return filter, nil
}

// Create 创建对话
func (r *ConversationRepo) Create(ctx context.Context, conv *model.Conversation) error {
	now := time.Now()
	conv.CreatedAt = now
	conv.UpdatedAt = now
	if conv.Messages == nil {
		conv.Messages = []model.Message{}
	}

	result, err := r.collection.InsertOne(ctx, conv)
	if err != nil {
		return err
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		conv.ID = oid
	}
	return nil
}

// FindByID 根据 ID 查询，非法 ID 视为不存在
func (r *ConversationRepo) FindByID(ctx context.Context, id, userID string) (*model.Conversation, error) {
	filter, err := ownedBy(id, userID)
	if err != nil {
		return nil, err
	}

	var conv model.Conversation
	if err := r.collection.FindOne(ctx, filter).Decode(&conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// AppendMessages 追加消息
func (r *ConversationRepo) AppendMessages(ctx context.Context, id string, msgs ...model.Message) error {
	filter, err := ownedBy(id, "")
	if err != nil {
		return err
	}

	update := bson.M{
		"$push": bson.M{"messages": bson.M{"$each": msgs}},
		"$set":  bson.M{"updated_at": time.Now()},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListByUserID 查询用户对话列表，不返回消息内容
func (r *ConversationRepo) ListByUserID(ctx context.Context, userID string, limit, offset int64) ([]*model.Conversation, int64, error) {
	filter := bson.M{"user_id": userID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{bson.E{Key: "updated_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset).
		SetProjection(bson.M{"messages": 0})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	convs := make([]*model.Conversation, 0)
	if err := cursor.All(ctx, &convs); err != nil {
		return nil, 0, err
	}

	return convs, total, nil
}

// Delete 删除对话
func (r *ConversationRepo) Delete(ctx context.Context, id, userID string) error {
	filter, err := ownedBy(id, userID)
	if err != nil {
		return err
	}

	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
