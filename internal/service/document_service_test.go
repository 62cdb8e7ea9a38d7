package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"docchat/internal/ai/component"
	"docchat/internal/config"
	"docchat/internal/model/document"
	"docchat/internal/pkg/queue"
	"docchat/internal/pkg/segment"
	"docchat/internal/pkg/storage"
	"docchat/internal/pkg/storage/local"
	"docchat/internal/pkg/vector"
	"docchat/internal/repository/memory"
)

// recordingQueue 只记录投递的任务，由测试手动执行
type recordingQueue struct {
	published [][]byte
	failWith  error
}

func (q *recordingQueue) Publish(ctx context.Context, subject string, data []byte) error {
	if q.failWith != nil {
		return q.failWith
	}
	q.published = append(q.published, data)
	return nil
}

func (q *recordingQueue) Subscribe(subject string, handler queue.Handler) error { return nil }
func (q *recordingQueue) Close() error                                          { return nil }

// memoryStatusCache map 实现的状态缓存
type memoryStatusCache struct {
	data map[string][]byte
}

func (c *memoryStatusCache) GetBytes(ctx context.Context, key string) ([]byte, error) {
	v, ok := c.data[key]
	if !ok {
		return nil, errCacheMiss
	}
	return v, nil
}

func (c *memoryStatusCache) SetBytes(ctx context.Context, key string, data []byte, _ time.Duration) error {
	c.data[key] = data
	return nil
}

func (c *memoryStatusCache) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

var errCacheMiss = errors.New("miss")

// flakyStorage 可注入下载错误的存储
type flakyStorage struct {
	storage.Storage
	downloadErr error
}

func (s *flakyStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if s.downloadErr != nil {
		return nil, s.downloadErr
	}
	return s.Storage.Download(ctx, key)
}

type docFixture struct {
	svc     *DocumentService
	storage *flakyStorage
	repo    *memory.DocumentRepo
	vectors *vector.MemoryStore
	queue   *recordingQueue
	cache   *memoryStatusCache
}

func testDocumentConfig() config.DocumentConfig {
	return config.DocumentConfig{
		MaxFileSize:       1024,
		AllowedExtensions: []string{"pdf", "txt", "docx", "doc", "html", "htm", "md"},
		ChunkSize:         100,
		ChunkOverlap:      10,
		TopK:              5,
	}
}

func newDocFixture(t *testing.T) *docFixture {
	store, err := local.NewLocalStorage(t.TempDir(), "http://localhost:8080/files", 3600)
	if err != nil {
		t.Fatal(err)
	}
	f := &docFixture{
		storage: &flakyStorage{Storage: store},
		repo:    memory.NewDocumentRepo(),
		vectors: vector.NewMemoryStore(),
		queue:   &recordingQueue{},
		cache:   &memoryStatusCache{data: make(map[string][]byte)},
	}
	embedder := component.NewHashEmbedder(64, segment.Default())
	f.svc = NewDocumentService(f.repo, f.vectors, f.storage, embedder, f.queue, f.cache, testDocumentConfig())
	return f
}

// drain 执行已投递的处理任务
func (f *docFixture) drain(ctx context.Context) {
	jobs := f.queue.published
	f.queue.published = nil
	for _, job := range jobs {
		So(f.svc.HandleJob(ctx, job), ShouldBeNil)
	}
}

func TestDocumentService_Upload(t *testing.T) {
	Convey("上传校验", t, func() {
		ctx := context.Background()
		f := newDocFixture(t)

		_, err := f.svc.Upload(ctx, "u1", "a.exe", []byte("x"))
		So(errors.Is(err, ErrUnsupportedFileType), ShouldBeTrue)

		_, err = f.svc.Upload(ctx, "u1", "noext", []byte("x"))
		So(errors.Is(err, ErrUnsupportedFileType), ShouldBeTrue)

		_, err = f.svc.Upload(ctx, "u1", "big.txt", make([]byte, 2048))
		So(errors.Is(err, ErrFileTooLarge), ShouldBeTrue)

		_, err = f.svc.Upload(ctx, "u1", "empty.txt", nil)
		So(err, ShouldEqual, ErrEmptyFile)

		So(f.queue.published, ShouldBeEmpty)
	})

	Convey("上传并处理", t, func() {
		ctx := context.Background()
		f := newDocFixture(t)
		content := []byte(strings.Repeat("Go 语言的并发模型基于 goroutine 和 channel。", 8))

		res, err := f.svc.Upload(ctx, "u1", "../notes.txt", content)
		So(err, ShouldBeNil)
		So(res.Filename, ShouldEqual, "notes.txt")
		So(res.Status, ShouldEqual, document.StatusUploaded)
		So(res.DocumentID, ShouldStartWith, "doc_")
		So(len(f.queue.published), ShouldEqual, 1)

		st, err := f.svc.GetStatus(ctx, "u1", res.DocumentID)
		So(err, ShouldBeNil)
		So(st.Status, ShouldEqual, document.StatusUploaded)

		f.drain(ctx)

		doc, err := f.svc.Get(ctx, "u1", res.DocumentID)
		So(err, ShouldBeNil)
		So(doc.Status, ShouldEqual, document.StatusProcessed)
		So(doc.ChunkCount, ShouldBeGreaterThan, 1)
		So(doc.TokenCount, ShouldBeGreaterThan, 0)
		So(doc.ProcessedAt, ShouldNotBeNil)

		n, _ := f.vectors.CountByDocument(ctx, res.DocumentID)
		So(int(n), ShouldEqual, doc.ChunkCount)

		st, _ = f.svc.GetStatus(ctx, "u1", res.DocumentID)
		So(st.Status, ShouldEqual, document.StatusProcessed)

		stats, err := f.svc.Stats(ctx, "u1", res.DocumentID)
		So(err, ShouldBeNil)
		So(stats.ChunkCount, ShouldEqual, doc.ChunkCount)
		So(stats.TextLength, ShouldEqual, doc.TextLength)

		Convey("重复上传返回已存在的文档", func() {
			again, err := f.svc.Upload(ctx, "u1", "notes.txt", content)
			So(err, ShouldBeNil)
			So(again.Existed, ShouldBeTrue)
			So(again.Message, ShouldEqual, "文档已存在")
			So(again.Status, ShouldEqual, document.StatusProcessed)
			So(f.queue.published, ShouldBeEmpty)
		})

		Convey("其他用户上传同一文件冲突", func() {
			_, err := f.svc.Upload(ctx, "u2", "notes.txt", content)
			So(err, ShouldEqual, ErrDocumentConflict)
		})

		Convey("其他用户不可见", func() {
			_, err := f.svc.Get(ctx, "u2", res.DocumentID)
			So(err, ShouldEqual, ErrDocumentNotFound)
			_, err = f.svc.GetStatus(ctx, "u2", res.DocumentID)
			So(err, ShouldEqual, ErrDocumentNotFound)
		})

		Convey("下载地址", func() {
			url, err := f.svc.DownloadURL(ctx, "u1", res.DocumentID)
			So(err, ShouldBeNil)
			So(url, ShouldContainSubstring, "documents/u1/"+res.DocumentID+".txt")
		})

		Convey("列表与状态统计", func() {
			list, err := f.svc.List(ctx, "u1", 1, 10)
			So(err, ShouldBeNil)
			So(list.Total, ShouldEqual, 1)

			counts, err := f.svc.CountByStatus(ctx, "u1")
			So(err, ShouldBeNil)
			So(counts[document.StatusProcessed], ShouldEqual, 1)
		})

		Convey("删除清理向量与缓存", func() {
			So(f.svc.Delete(ctx, "u1", res.DocumentID), ShouldBeNil)

			_, err := f.svc.Get(ctx, "u1", res.DocumentID)
			So(err, ShouldEqual, ErrDocumentNotFound)
			n, _ := f.vectors.CountByDocument(ctx, res.DocumentID)
			So(n, ShouldEqual, 0)
			So(f.cache.data, ShouldBeEmpty)

			So(f.svc.Delete(ctx, "u1", res.DocumentID), ShouldEqual, ErrDocumentNotFound)

			Convey("删除后可重新上传", func() {
				again, err := f.svc.Upload(ctx, "u1", "notes.txt", content)
				So(err, ShouldBeNil)
				So(again.Existed, ShouldBeFalse)
			})
		})
	})
}

func TestDocumentService_ProcessFailures(t *testing.T) {
	Convey("处理失败", t, func() {
		ctx := context.Background()
		f := newDocFixture(t)

		Convey("doc 格式标记为失败且不重试", func() {
			res, err := f.svc.Upload(ctx, "u1", "old.doc", []byte("binary"))
			So(err, ShouldBeNil)
			f.drain(ctx)

			doc, _ := f.svc.Get(ctx, "u1", res.DocumentID)
			So(doc.Status, ShouldEqual, document.StatusFailed)
			So(doc.ErrorMessage, ShouldContainSubstring, "不支持的文件类型")
		})

		Convey("清洗后为空", func() {
			res, err := f.svc.Upload(ctx, "u1", "symbols.txt", []byte("@@@ ### $$$"))
			So(err, ShouldBeNil)
			f.drain(ctx)

			st, _ := f.svc.GetStatus(ctx, "u1", res.DocumentID)
			So(st.Status, ShouldEqual, document.StatusFailed)
			So(st.ErrorMessage, ShouldEqual, "文档内容为空")
		})

		Convey("下载原始文件出错时标记失败并交给队列重试", func() {
			res, err := f.svc.Upload(ctx, "u1", "a.txt", []byte("hello world"))
			So(err, ShouldBeNil)

			f.storage.downloadErr = errors.New("connection reset")
			jobs := f.queue.published
			f.queue.published = nil
			So(len(jobs), ShouldEqual, 1)
			err = f.svc.HandleJob(ctx, jobs[0])
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "connection reset")

			st, _ := f.svc.GetStatus(ctx, "u1", res.DocumentID)
			So(st.Status, ShouldEqual, document.StatusFailed)
			So(st.ErrorMessage, ShouldContainSubstring, "download original")

			f.storage.downloadErr = nil
			So(f.svc.HandleJob(ctx, jobs[0]), ShouldBeNil)
			st, _ = f.svc.GetStatus(ctx, "u1", res.DocumentID)
			So(st.Status, ShouldEqual, document.StatusProcessed)
		})

		Convey("投递失败时标记失败并返回错误", func() {
			f.queue.failWith = errors.New("nats down")
			_, err := f.svc.Upload(ctx, "u1", "a.txt", []byte("hello world"))
			So(err, ShouldNotBeNil)

			list, _ := f.svc.List(ctx, "u1", 1, 10)
			So(list.Documents[0].Status, ShouldEqual, document.StatusFailed)
		})

		Convey("无效任务直接确认", func() {
			So(f.svc.HandleJob(ctx, []byte("{bad")), ShouldBeNil)
			So(f.svc.HandleJob(ctx, []byte(`{"document_id":"doc_missing"}`)), ShouldBeNil)
		})
	})
}
