package document

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Status 文档处理状态
// uploaded -> processing -> {processed, failed}
type Status string

const (
	StatusUploaded   Status = "uploaded"   // 已上传，等待处理
	StatusProcessing Status = "processing" // 处理中
	StatusProcessed  Status = "processed"  // 已完成向量化
	StatusFailed     Status = "failed"     // 处理失败
	StatusDeleted    Status = "deleted"    // 已删除
)

// Document 上传的文档
type Document struct {
	ID          string `bson:"id" json:"id"`                   // doc_<文件名哈希>_<内容哈希>
	UserID      string `bson:"user_id" json:"user_id"`         // 所属用户ID
	Filename    string `bson:"filename" json:"filename"`       // 原始文件名
	Ext         string `bson:"ext" json:"ext"`                 // 文件扩展名（不含点号）
	ContentType string `bson:"content_type" json:"content_type"`
	FileSize    int64  `bson:"file_size" json:"file_size"`
	SHA256      string `bson:"sha256" json:"sha256"`

	// 存储信息
	StorageKey  string `bson:"storage_key" json:"storage_key"`
	StorageType string `bson:"storage_type" json:"storage_type"`

	// 处理结果
	Status       Status `bson:"status" json:"status"`
	ErrorMessage string `bson:"error_message,omitempty" json:"error_message,omitempty"`
	ChunkCount   int    `bson:"chunk_count" json:"chunk_count"`
	TextLength   int    `bson:"text_length" json:"text_length"`
	TokenCount   int    `bson:"token_count" json:"token_count"`

	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
	ProcessedAt *time.Time `bson:"processed_at,omitempty" json:"processed_at,omitempty"`
	DeletedAt   *time.Time `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"` // 软删除时间
}

// Collection 返回集合名称
func (d *Document) Collection() string {
	return "documents"
}

// EnsureIndexes 创建和维护索引
func (d *Document) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(d.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{bson.E{Key: "id", Value: 1}},
			Options: options.Index().SetName("idx_id").SetUnique(true),
		},
		{
			Keys:    bson.D{bson.E{Key: "user_id", Value: 1}, bson.E{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_user_created"),
		},
		{
			Keys:    bson.D{bson.E{Key: "user_id", Value: 1}, bson.E{Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_user_status"),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}
