package document

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Chunk 文档分块及其向量
type Chunk struct {
	ID          string    `bson:"id" json:"id"` // <document_id>_<chunk_index>
	UserID      string    `bson:"user_id" json:"user_id"`
	DocumentID  string    `bson:"document_id" json:"document_id"`
	Filename    string    `bson:"filename" json:"filename"`
	ChunkIndex  int       `bson:"chunk_index" json:"chunk_index"`
	TotalChunks int       `bson:"total_chunks" json:"total_chunks"`
	Text        string    `bson:"text" json:"text"`
	Tokens      int       `bson:"tokens" json:"tokens"`
	Vector      []float64 `bson:"vector" json:"-"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

// Collection 返回集合名称
func (c *Chunk) Collection() string {
	return "document_chunks"
}

// EnsureIndexes 创建和维护索引
func (c *Chunk) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(c.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{bson.E{Key: "id", Value: 1}},
			Options: options.Index().SetName("idx_id").SetUnique(true),
		},
		{
			Keys:    bson.D{bson.E{Key: "document_id", Value: 1}, bson.E{Key: "chunk_index", Value: 1}},
			Options: options.Index().SetName("idx_document_chunk"),
		},
		{
			Keys:    bson.D{bson.E{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_user"),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}
