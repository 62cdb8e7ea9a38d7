package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"go.mongodb.org/mongo-driver/mongo"

	"docchat/internal/config"
	"docchat/internal/model/document"
	"docchat/internal/pkg/cache"
	"docchat/internal/pkg/extract"
	httputil "docchat/internal/pkg/http"
	"docchat/internal/pkg/id"
	"docchat/internal/pkg/logger"
	"docchat/internal/pkg/metrics"
	"docchat/internal/pkg/queue"
	"docchat/internal/pkg/storage"
	"docchat/internal/pkg/textsplit"
	"docchat/internal/pkg/vector"
)

const (
	embedBatchSize      = 16
	downloadURLExpiry   = time.Hour
	uploadedMessage     = "文档上传成功，正在处理中"
	alreadyExistMessage = "文档已存在"
)

var (
	ErrDocumentNotFound    = errors.New("文档不存在")
	ErrDocumentConflict    = errors.New("文档ID冲突")
	ErrUnsupportedFileType = errors.New("不支持的文件类型")
	ErrFileTooLarge        = errors.New("文件大小超出限制")
	ErrEmptyFile           = errors.New("文件为空")
)

// DocumentRepository 文档元数据存储
type DocumentRepository interface {
	Create(ctx context.Context, doc *document.Document) error
	FindByID(ctx context.Context, id string) (*document.Document, error)
	FindByUserID(ctx context.Context, userID string, limit, offset int) ([]*document.Document, int64, error)
	CountByStatus(ctx context.Context, userID string) (map[document.Status]int64, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	Delete(ctx context.Context, id string) error
}

// StatusCache 文档状态缓存
type StatusCache interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	SetBytes(ctx context.Context, key string, data []byte, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// ProcessJob 文档处理任务
type ProcessJob struct {
	DocumentID string `json:"document_id"`
	UserID     string `json:"user_id"`
}

// UploadResult 上传结果
type UploadResult struct {
	DocumentID string          `json:"document_id"`
	Filename   string          `json:"filename"`
	Status     document.Status `json:"status"`
	Message    string          `json:"message"`
	Existed    bool            `json:"-"`
}

// DocumentListResult 文档列表
type DocumentListResult struct {
	Documents []*document.Document `json:"documents"`
	Total     int64                `json:"total"`
	Page      int                  `json:"page"`
	PageSize  int                  `json:"page_size"`
}

// DocumentStatus 文档状态
type DocumentStatus struct {
	DocumentID   string          `json:"document_id"`
	Status       document.Status `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	ChunkCount   int             `json:"chunk_count"`
}

// DocumentStats 文档统计
type DocumentStats struct {
	DocumentID string          `json:"document_id"`
	ChunkCount int             `json:"chunk_count"`
	Status     document.Status `json:"status"`
	TextLength int             `json:"text_length"`
	TokenCount int             `json:"token_count"`
}

// DocumentService 文档服务
// 上传写入存储与元数据后投递处理任务，由队列消费者完成抽取、分块、向量化
type DocumentService struct {
	repo     DocumentRepository
	vectors  vector.Store
	storage  storage.Storage
	embedder embedding.Embedder
	queue    queue.Queue
	cache    StatusCache // 可为空
	cfg      config.DocumentConfig
	splitter *textsplit.Splitter
}

// NewDocumentService 创建文档服务
func NewDocumentService(
	repo DocumentRepository,
	vectors vector.Store,
	store storage.Storage,
	embedder embedding.Embedder,
	q queue.Queue,
	statusCache StatusCache,
	cfg config.DocumentConfig,
) *DocumentService {
	return &DocumentService{
		repo:     repo,
		vectors:  vectors,
		storage:  store,
		embedder: embedder,
		queue:    q,
		cache:    statusCache,
		cfg:      cfg,
		splitter: textsplit.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
	}
}

// Start 订阅文档处理任务
func (s *DocumentService) Start() error {
	return s.queue.Subscribe(queue.SubjectDocumentProcess, s.HandleJob)
}

// Upload 上传文档
func (s *DocumentService) Upload(ctx context.Context, userID, filename string, content []byte) (*UploadResult, error) {
	filename = filepath.Base(filename)
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" || !s.cfg.IsAllowed(ext) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, filepath.Ext(filename))
	}
	if int64(len(content)) > s.cfg.MaxFileSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrFileTooLarge, len(content), s.cfg.MaxFileSize)
	}
	if len(content) == 0 {
		return nil, ErrEmptyFile
	}

	docID := id.DocumentID(filename, content)
	existing, err := s.repo.FindByID(ctx, docID)
	switch {
	case err == nil:
		if existing.UserID != userID {
			return nil, ErrDocumentConflict
		}
		return &UploadResult{
			DocumentID: existing.ID,
			Filename:   existing.Filename,
			Status:     existing.Status,
			Message:    alreadyExistMessage,
			Existed:    true,
		}, nil
	case !errors.Is(err, mongo.ErrNoDocuments):
		return nil, fmt.Errorf("find document: %w", err)
	}

	contentType := mime.TypeByExtension("." + ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := storage.DocumentKey(userID, docID, ext)
	if _, err := s.storage.Upload(ctx, key, bytes.NewReader(content), contentType); err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	sum := sha256.Sum256(content)
	doc := &document.Document{
		ID:          docID,
		UserID:      userID,
		Filename:    filename,
		Ext:         ext,
		ContentType: contentType,
		FileSize:    int64(len(content)),
		SHA256:      hex.EncodeToString(sum[:]),
		StorageKey:  key,
		StorageType: s.storage.GetStorageType(),
		Status:      document.StatusUploaded,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	s.cacheStatus(ctx, doc)

	payload, err := json.Marshal(ProcessJob{DocumentID: docID, UserID: userID})
	if err != nil {
		return nil, err
	}
	if err := s.queue.Publish(ctx, queue.SubjectDocumentProcess, payload); err != nil {
		s.markFailed(ctx, doc, "投递处理任务失败: "+err.Error())
		return nil, fmt.Errorf("publish process job: %w", err)
	}

	logger.Ctx(ctx).Info().
		Str("document_id", docID).
		Str("filename", filename).
		Int("size", len(content)).
		Msg("document uploaded")

	return &UploadResult{
		DocumentID: docID,
		Filename:   filename,
		Status:     document.StatusUploaded,
		Message:    uploadedMessage,
	}, nil
}

// MaxFileSize 单文件大小上限（字节）
func (s *DocumentService) MaxFileSize() int64 {
	return s.cfg.MaxFileSize
}

// HandleJob 队列消费者入口
// 文档本身的问题（格式、内容）标记为失败后确认消息；存储与模型等临时错误返回 err 交给队列重投
func (s *DocumentService) HandleJob(ctx context.Context, data []byte) error {
	var job ProcessJob
	if err := json.Unmarshal(data, &job); err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("invalid document job payload")
		return nil
	}
	return s.Process(ctx, job.DocumentID)
}

// Process 抽取、清洗、分块、向量化并写入向量库
func (s *DocumentService) Process(ctx context.Context, docID string) error {
	l := logger.Ctx(ctx).With().Str("document_id", docID).Logger()

	doc, err := s.repo.FindByID(ctx, docID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		l.Warn().Msg("document gone before processing")
		return nil
	}
	if err != nil {
		return err
	}
	if doc.Status == document.StatusProcessed {
		return nil
	}

	if err := s.setStatus(ctx, doc, document.StatusProcessing, nil); err != nil {
		return err
	}
	start := time.Now()

	text, err := s.loadText(ctx, doc)
	if err != nil {
		if isPermanent(err) {
			s.markFailed(ctx, doc, err.Error())
			return nil
		}
		return s.retryOrFail(ctx, doc, err)
	}

	chunks := s.splitter.Split(text)
	if len(chunks) == 0 {
		s.markFailed(ctx, doc, extract.ErrEmptyContent.Error())
		return nil
	}

	records := make([]vector.Record, len(chunks))
	tokenCount := 0
	for i, c := range chunks {
		tokens := textsplit.EstimateTokens(c)
		tokenCount += tokens
		records[i] = vector.Record{
			ID:          fmt.Sprintf("%s_chunk_%d", doc.ID, i),
			UserID:      doc.UserID,
			DocumentID:  doc.ID,
			Filename:    doc.Filename,
			ChunkIndex:  i,
			TotalChunks: len(chunks),
			Text:        c,
			Tokens:      tokens,
		}
	}

	if err := s.embed(ctx, records); err != nil {
		return s.retryOrFail(ctx, doc, fmt.Errorf("embed chunks: %w", err))
	}

	if err := s.vectors.DeleteByDocument(ctx, doc.ID); err != nil {
		return s.retryOrFail(ctx, doc, fmt.Errorf("clear vectors: %w", err))
	}
	if err := s.vectors.Upsert(ctx, records); err != nil {
		return s.retryOrFail(ctx, doc, fmt.Errorf("upsert vectors: %w", err))
	}

	now := time.Now()
	doc.ChunkCount = len(chunks)
	doc.TextLength = len([]rune(text))
	doc.TokenCount = tokenCount
	doc.ProcessedAt = &now
	doc.ErrorMessage = ""
	if err := s.setStatus(ctx, doc, document.StatusProcessed, map[string]interface{}{
		"chunk_count":   doc.ChunkCount,
		"text_length":   doc.TextLength,
		"token_count":   doc.TokenCount,
		"processed_at":  now,
		"error_message": "",
	}); err != nil {
		return err
	}
	metrics.ObserveDocument(string(document.StatusProcessed))

	l.Info().
		Int("chunks", doc.ChunkCount).
		Int("tokens", doc.TokenCount).
		Dur("latency", time.Since(start)).
		Msg("document processed")
	return nil
}

func (s *DocumentService) loadText(ctx context.Context, doc *document.Document) (string, error) {
	rc, err := s.storage.Download(ctx, doc.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", &permanentError{err: fmt.Errorf("原始文件不存在: %w", err)}
		}
		return "", fmt.Errorf("download original: %w", err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read original: %w", err)
	}

	raw, err := extract.Text(doc.Ext, content)
	if err != nil {
		return "", &permanentError{err: err}
	}
	text := textsplit.Clean(raw)
	if text == "" {
		return "", &permanentError{err: extract.ErrEmptyContent}
	}
	return text, nil
}

func (s *DocumentService) embed(ctx context.Context, records []vector.Record) error {
	for start := 0; start < len(records); start += embedBatchSize {
		end := min(start+embedBatchSize, len(records))
		texts := make([]string, 0, end-start)
		for _, r := range records[start:end] {
			texts = append(texts, r.Text)
		}

		vectors, err := s.embedder.EmbedStrings(ctx, texts)
		if err != nil {
			return err
		}
		if len(vectors) != len(texts) {
			return fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
		}
		for i, v := range vectors {
			records[start+i].Vector = v
		}
	}
	return nil
}

// retryOrFail 临时错误先把状态写为失败，队列重投成功后会覆盖
func (s *DocumentService) retryOrFail(ctx context.Context, doc *document.Document, err error) error {
	s.markFailed(ctx, doc, err.Error())
	return err
}

func (s *DocumentService) markFailed(ctx context.Context, doc *document.Document, msg string) {
	doc.ErrorMessage = msg
	if err := s.setStatus(ctx, doc, document.StatusFailed, map[string]interface{}{"error_message": msg}); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("document_id", doc.ID).Msg("failed to mark document failed")
	}
	metrics.ObserveDocument(string(document.StatusFailed))
	logger.Ctx(ctx).Warn().Str("document_id", doc.ID).Str("reason", msg).Msg("document processing failed")
}

func (s *DocumentService) setStatus(ctx context.Context, doc *document.Document, status document.Status, extra map[string]interface{}) error {
	updates := map[string]interface{}{"status": status}
	for k, v := range extra {
		updates[k] = v
	}
	if err := s.repo.Update(ctx, doc.ID, updates); err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	doc.Status = status
	s.cacheStatus(ctx, doc)
	return nil
}

// List 分页列出文档
func (s *DocumentService) List(ctx context.Context, userID string, page, pageSize int) (*DocumentListResult, error) {
	page, pageSize = httputil.NormalizePage(page, pageSize)
	docs, total, err := s.repo.FindByUserID(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Documents: docs, Total: total, Page: page, PageSize: pageSize}, nil
}

// Get 获取文档信息，只能访问自己的文档
func (s *DocumentService) Get(ctx context.Context, userID, docID string) (*document.Document, error) {
	doc, err := s.repo.FindByID(ctx, docID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	if doc.UserID != userID {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

// GetStatus 获取处理状态，优先读缓存
func (s *DocumentService) GetStatus(ctx context.Context, userID, docID string) (*DocumentStatus, error) {
	if s.cache != nil {
		data, err := s.cache.GetBytes(ctx, cache.DocumentStatusKey(docID))
		if err == nil {
			var st cachedStatus
			if json.Unmarshal(data, &st) == nil && st.UserID == userID {
				return &st.DocumentStatus, nil
			}
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			logger.Ctx(ctx).Warn().Err(err).Msg("status cache read failed")
		}
	}

	doc, err := s.Get(ctx, userID, docID)
	if err != nil {
		return nil, err
	}
	s.cacheStatus(ctx, doc)
	return statusOf(doc), nil
}

// Stats 获取文档统计
func (s *DocumentService) Stats(ctx context.Context, userID, docID string) (*DocumentStats, error) {
	doc, err := s.Get(ctx, userID, docID)
	if err != nil {
		return nil, err
	}

	chunkCount := doc.ChunkCount
	if doc.Status == document.StatusProcessed {
		if n, err := s.vectors.CountByDocument(ctx, docID); err == nil {
			chunkCount = int(n)
		}
	}
	return &DocumentStats{
		DocumentID: doc.ID,
		ChunkCount: chunkCount,
		Status:     doc.Status,
		TextLength: doc.TextLength,
		TokenCount: doc.TokenCount,
	}, nil
}

// DownloadURL 获取原件的预签名下载地址
func (s *DocumentService) DownloadURL(ctx context.Context, userID, docID string) (string, error) {
	doc, err := s.Get(ctx, userID, docID)
	if err != nil {
		return "", err
	}
	return s.storage.GetPresignedDownloadURL(ctx, doc.StorageKey, downloadURLExpiry)
}

// Delete 软删除文档，并清理向量、原件与状态缓存
func (s *DocumentService) Delete(ctx context.Context, userID, docID string) error {
	doc, err := s.Get(ctx, userID, docID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, docID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrDocumentNotFound
		}
		return err
	}

	l := logger.Ctx(ctx)
	if err := s.vectors.DeleteByDocument(ctx, docID); err != nil {
		l.Warn().Err(err).Str("document_id", docID).Msg("failed to delete vectors")
	}
	if err := s.storage.Delete(ctx, doc.StorageKey); err != nil {
		l.Warn().Err(err).Str("document_id", docID).Msg("failed to delete original")
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, cache.DocumentStatusKey(docID)); err != nil {
			l.Warn().Err(err).Msg("failed to clear status cache")
		}
	}
	metrics.ObserveDocument(string(document.StatusDeleted))
	l.Info().Str("document_id", docID).Msg("document deleted")
	return nil
}

// CountByStatus 按状态统计文档数
func (s *DocumentService) CountByStatus(ctx context.Context, userID string) (map[document.Status]int64, error) {
	return s.repo.CountByStatus(ctx, userID)
}

type cachedStatus struct {
	DocumentStatus
	UserID string `json:"user_id"`
}

func (s *DocumentService) cacheStatus(ctx context.Context, doc *document.Document) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(cachedStatus{DocumentStatus: *statusOf(doc), UserID: doc.UserID})
	if err != nil {
		return
	}
	if err := s.cache.SetBytes(ctx, cache.DocumentStatusKey(doc.ID), data, cache.DocumentStatusTTL); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("status cache write failed")
	}
}

func statusOf(doc *document.Document) *DocumentStatus {
	return &DocumentStatus{
		DocumentID:   doc.ID,
		Status:       doc.Status,
		ErrorMessage: doc.ErrorMessage,
		ChunkCount:   doc.ChunkCount,
	}
}

// permanentError 重试也无法成功的处理错误
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func isPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}
