package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"docchat/internal/model/history"
	"docchat/internal/pkg/id"
	httputil "docchat/internal/pkg/http"
)

var ErrHistoryNotFound = errors.New("历史记录不存在")

// HistoryRepository 对话历史存储
type HistoryRepository interface {
	Create(ctx context.Context, entry *history.Entry) error
	FindByUserID(ctx context.Context, userID string, limit, offset int) ([]*history.Entry, int64, error)
	UpdateEvaluation(ctx context.Context, id, userID, evaluation string) error
	DeleteByUserID(ctx context.Context, userID string) (int64, error)
	CountByUserID(ctx context.Context, userID string) (int64, error)
}

// HistoryService 对话历史服务
type HistoryService struct {
	repo HistoryRepository
}

// NewHistoryService 创建对话历史服务
func NewHistoryService(repo HistoryRepository) *HistoryService {
	return &HistoryService{repo: repo}
}

// HistoryItem 列表项，附带自动评价
type HistoryItem struct {
	*history.Entry
	AutoEvaluation string `json:"auto_evaluation"`
}

// HistoryListResult 历史列表
type HistoryListResult struct {
	Items    []HistoryItem `json:"items"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

// Add 写入历史，缺省字段自动填充
func (s *HistoryService) Add(ctx context.Context, entry *history.Entry) error {
	if entry.ID == "" {
		entry.ID = id.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	return s.repo.Create(ctx, entry)
}

// List 分页查询，最新的在前
func (s *HistoryService) List(ctx context.Context, userID string, page, pageSize int) (*HistoryListResult, error) {
	page, pageSize = httputil.NormalizePage(page, pageSize)

	entries, total, err := s.repo.FindByUserID(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}

	items := make([]HistoryItem, len(entries))
	for i, e := range entries {
		items[i] = HistoryItem{Entry: e, AutoEvaluation: e.Evaluation}
		if e.Evaluation == "" {
			items[i].AutoEvaluation = AutoEvaluate(e.Output)
		}
	}

	return &HistoryListResult{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// UpdateEvaluation 更新人工评价
func (s *HistoryService) UpdateEvaluation(ctx context.Context, userID, entryID, evaluation string) error {
	err := s.repo.UpdateEvaluation(ctx, entryID, userID, strings.TrimSpace(evaluation))
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrHistoryNotFound
	}
	return err
}

// Clear 清空用户历史
func (s *HistoryService) Clear(ctx context.Context, userID string) (int64, error) {
	return s.repo.DeleteByUserID(ctx, userID)
}

// Count 历史条数
func (s *HistoryService) Count(ctx context.Context, userID string) (int64, error) {
	return s.repo.CountByUserID(ctx, userID)
}

// AutoEvaluate 按输出内容粗略评价回复
func AutoEvaluate(output string) string {
	if strings.Contains(output, "Error:") || strings.Contains(output, "error") || strings.Contains(output, "失败") {
		return history.AutoEvalError
	}

	words := len(strings.Fields(output))
	switch {
	case words < 5:
		return history.AutoEvalTooShort
	case words > 100:
		return history.AutoEvalDetailed
	default:
		return history.AutoEvalAdequate
	}
}
