package document

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"docchat/internal/model/document"
	"docchat/internal/pkg/vector"
)

// ChunkRepo 分块向量仓库，实现 vector.Store
// 相似度在应用侧计算，Mongo 只负责持久化和过滤
type ChunkRepo struct {
	collection *mongo.Collection
}

var _ vector.Store = (*ChunkRepo)(nil)

// NewChunkRepo 创建分块仓库
func NewChunkRepo(db *mongo.Database) *ChunkRepo {
	var chunk document.Chunk
	return &ChunkRepo{
		collection: db.Collection(chunk.Collection()),
	}
}

// Upsert 批量写入，按 id 覆盖
func (r *ChunkRepo) Upsert(ctx context.Context, records []vector.Record) error {
	if len(records) == 0 {
		return nil
	}

	now := time.Now()
	writes := make([]mongo.WriteModel, 0, len(records))
	for _, rec := range records {
		chunk := toChunk(rec)
		chunk.CreatedAt = now
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"id": chunk.ID}).
			SetReplacement(chunk).
			SetUpsert(true))
	}

	_, err := r.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	return err
}

// Query 加载候选分块后按余弦相似度排序
func (r *ChunkRepo) Query(ctx context.Context, q vector.Query) ([]vector.Hit, error) {
	filter := bson.M{}
	if q.UserID != "" {
		filter["user_id"] = q.UserID
	}
	if len(q.DocumentIDs) > 0 {
		filter["document_id"] = bson.M{"$in": q.DocumentIDs}
	}

	opts := options.Find().SetSort(bson.D{
		bson.E{Key: "document_id", Value: 1},
		bson.E{Key: "chunk_index", Value: 1},
	})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []vector.Record
	for cursor.Next(ctx) {
		var chunk document.Chunk
		if err := cursor.Decode(&chunk); err != nil {
			return nil, err
		}
		records = append(records, toRecord(&chunk))
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return vector.Rank(records, q.Vector, q.TopK, q.Threshold), nil
}

// DeleteByDocument 删除文档的全部分块
func (r *ChunkRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"document_id": documentID})
	return err
}

// CountByDocument 统计文档分块数
func (r *ChunkRepo) CountByDocument(ctx context.Context, documentID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"document_id": documentID})
}

func toChunk(rec vector.Record) *document.Chunk {
	return &document.Chunk{
		ID:          rec.ID,
		UserID:      rec.UserID,
		DocumentID:  rec.DocumentID,
		Filename:    rec.Filename,
		ChunkIndex:  rec.ChunkIndex,
		TotalChunks: rec.TotalChunks,
		Text:        rec.Text,
		Tokens:      rec.Tokens,
		Vector:      rec.Vector,
	}
}

func toRecord(chunk *document.Chunk) vector.Record {
	return vector.Record{
		ID:          chunk.ID,
		UserID:      chunk.UserID,
		DocumentID:  chunk.DocumentID,
		Filename:    chunk.Filename,
		ChunkIndex:  chunk.ChunkIndex,
		TotalChunks: chunk.TotalChunks,
		Text:        chunk.Text,
		Tokens:      chunk.Tokens,
		Vector:      chunk.Vector,
	}
}
