package document

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"docchat/internal/model/document"
	"docchat/internal/pkg/mongodb"
	"docchat/internal/pkg/vector"
)

// 集成测试：
//
//	DOCCHAT_TEST_MONGO_URI=mongodb://localhost:27017 go test ./internal/repository/document -v
func testDatabase(t *testing.T) *mongo.Database {
	uri := os.Getenv("DOCCHAT_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("DOCCHAT_TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect mongo: %v", err)
	}

	db := client.Database(fmt.Sprintf("docchat_test_%d", time.Now().UnixNano()))
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return db
}

func TestChunkRepo(t *testing.T) {
	db := testDatabase(t)
	repo := NewChunkRepo(db)
	ctx := context.Background()

	records := []vector.Record{
		{ID: "doc_a_0", UserID: "u1", DocumentID: "doc_a", Filename: "a.txt", ChunkIndex: 0, TotalChunks: 2, Text: "东", Vector: []float64{1, 0}},
		{ID: "doc_a_1", UserID: "u1", DocumentID: "doc_a", Filename: "a.txt", ChunkIndex: 1, TotalChunks: 2, Text: "东北", Vector: []float64{0.8, 0.6}},
		{ID: "doc_b_0", UserID: "u1", DocumentID: "doc_b", Filename: "b.txt", ChunkIndex: 0, TotalChunks: 1, Text: "北", Vector: []float64{0, 1}},
		{ID: "doc_c_0", UserID: "u2", DocumentID: "doc_c", Filename: "c.txt", ChunkIndex: 0, TotalChunks: 1, Text: "他人", Vector: []float64{1, 0}},
	}

	Convey("ChunkRepo", t, func() {
		So(repo.Upsert(ctx, records), ShouldBeNil)

		Convey("按相似度排序并过滤阈值与用户", func() {
			hits, err := repo.Query(ctx, vector.Query{UserID: "u1", Vector: []float64{1, 0}, TopK: 5, Threshold: 0.5})
			So(err, ShouldBeNil)
			So(len(hits), ShouldEqual, 2)
			So(hits[0].ID, ShouldEqual, "doc_a_0")
			So(hits[1].ID, ShouldEqual, "doc_a_1")
			So(hits[1].Score, ShouldAlmostEqual, 0.8, 1e-9)
			So(hits[0].Filename, ShouldEqual, "a.txt")
		})

		Convey("按文档过滤", func() {
			hits, err := repo.Query(ctx, vector.Query{UserID: "u1", Vector: []float64{0, 1}, TopK: 5, DocumentIDs: []string{"doc_b"}})
			So(err, ShouldBeNil)
			So(len(hits), ShouldEqual, 1)
			So(hits[0].DocumentID, ShouldEqual, "doc_b")
		})

		Convey("重复写入覆盖同一分块", func() {
			again := records[0]
			again.Text = "东（更新）"
			So(repo.Upsert(ctx, []vector.Record{again}), ShouldBeNil)
			n, err := repo.CountByDocument(ctx, "doc_a")
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 2)
		})

		Convey("按文档删除", func() {
			So(repo.DeleteByDocument(ctx, "doc_a"), ShouldBeNil)
			n, err := repo.CountByDocument(ctx, "doc_a")
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 0)
		})
	})
}

func TestDocumentRepo(t *testing.T) {
	db := testDatabase(t)
	repo := NewDocumentRepo(db)
	ctx := context.Background()

	// Create 使用当前时间作为创建时间，间隔写入保证排序稳定
	for i, status := range []document.Status{document.StatusProcessed, document.StatusFailed, document.StatusProcessed} {
		if err := repo.Create(ctx, &document.Document{
			ID:       fmt.Sprintf("doc_%d", i),
			UserID:   "u1",
			Filename: fmt.Sprintf("%d.txt", i),
			Status:   status,
		}); err != nil {
			t.Fatalf("create: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	Convey("DocumentRepo", t, func() {
		Convey("列表按创建时间倒序分页", func() {
			docs, total, err := repo.FindByUserID(ctx, "u1", 2, 0)
			So(err, ShouldBeNil)
			So(total, ShouldEqual, 3)
			So(len(docs), ShouldEqual, 2)
			So(docs[0].ID, ShouldEqual, "doc_2")
		})

		Convey("按状态统计", func() {
			counts, err := repo.CountByStatus(ctx, "u1")
			So(err, ShouldBeNil)
			So(counts[document.StatusProcessed], ShouldEqual, 2)
			So(counts[document.StatusFailed], ShouldEqual, 1)
		})

		Convey("软删除后不可见", func() {
			So(repo.Delete(ctx, "doc_1"), ShouldBeNil)
			_, err := repo.FindByID(ctx, "doc_1")
			So(mongodb.IsNotFound(err), ShouldBeTrue)
		})
	})
}
