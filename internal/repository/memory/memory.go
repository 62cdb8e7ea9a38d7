// Package memory 提供仓库接口的进程内实现，未配置 MongoDB 时使用，数据不落盘
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"docchat/internal/model/document"
	"docchat/internal/model/history"
	"docchat/internal/model/qa"
)

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

// HistoryRepo 对话历史
type HistoryRepo struct {
	mu      sync.RWMutex
	entries []*history.Entry
}

func NewHistoryRepo() *HistoryRepo {
	return &HistoryRepo{}
}

func (r *HistoryRepo) Create(ctx context.Context, entry *history.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *entry
	r.entries = append(r.entries, &copied)
	return nil
}

func (r *HistoryRepo) FindByUserID(ctx context.Context, userID string, limit, offset int) ([]*history.Entry, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var owned []*history.Entry
	for _, e := range r.entries {
		if e.UserID == userID {
			copied := *e
			owned = append(owned, &copied)
		}
	}
	sort.SliceStable(owned, func(i, j int) bool {
		return owned[i].Timestamp.After(owned[j].Timestamp)
	})
	return paginate(owned, limit, offset), int64(len(owned)), nil
}

func (r *HistoryRepo) UpdateEvaluation(ctx context.Context, id, userID, evaluation string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.ID == id && e.UserID == userID {
			e.Evaluation = evaluation
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (r *HistoryRepo) DeleteByUserID(ctx context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.entries[:0]
	var deleted int64
	for _, e := range r.entries {
		if e.UserID == userID {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	r.entries = kept
	return deleted, nil
}

func (r *HistoryRepo) CountByUserID(ctx context.Context, userID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, e := range r.entries {
		if e.UserID == userID {
			n++
		}
	}
	return n, nil
}

// DocumentRepo 文档记录，删除为软删除
type DocumentRepo struct {
	mu   sync.RWMutex
	docs map[string]*document.Document
}

func NewDocumentRepo() *DocumentRepo {
	return &DocumentRepo{docs: make(map[string]*document.Document)}
}

func (r *DocumentRepo) Create(ctx context.Context, doc *document.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	copied := *doc
	r.docs[doc.ID] = &copied
	return nil
}

func (r *DocumentRepo) FindByID(ctx context.Context, id string) (*document.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[id]
	if !ok || doc.DeletedAt != nil {
		return nil, mongo.ErrNoDocuments
	}
	copied := *doc
	return &copied, nil
}

func (r *DocumentRepo) FindByUserID(ctx context.Context, userID string, limit, offset int) ([]*document.Document, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var owned []*document.Document
	for _, doc := range r.docs {
		if doc.UserID == userID && doc.DeletedAt == nil {
			copied := *doc
			owned = append(owned, &copied)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		if owned[i].CreatedAt.Equal(owned[j].CreatedAt) {
			return owned[i].ID < owned[j].ID
		}
		return owned[i].CreatedAt.After(owned[j].CreatedAt)
	})
	return paginate(owned, limit, offset), int64(len(owned)), nil
}

func (r *DocumentRepo) CountByStatus(ctx context.Context, userID string) (map[document.Status]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[document.Status]int64)
	for _, doc := range r.docs {
		if doc.UserID == userID && doc.DeletedAt == nil {
			counts[doc.Status]++
		}
	}
	return counts, nil
}

// Update 按 bson 字段名更新，语义与 Mongo 的 $set 一致
func (r *DocumentRepo) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok || doc.DeletedAt != nil {
		return nil
	}

	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	var fields bson.M
	if err := bson.Unmarshal(raw, &fields); err != nil {
		return err
	}
	for k, v := range updates {
		fields[k] = v
	}
	fields["updated_at"] = time.Now()

	raw, err = bson.Marshal(fields)
	if err != nil {
		return err
	}
	var updated document.Document
	if err := bson.Unmarshal(raw, &updated); err != nil {
		return err
	}
	r.docs[id] = &updated
	return nil
}

func (r *DocumentRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if doc, ok := r.docs[id]; ok {
		now := time.Now()
		doc.DeletedAt = &now
		doc.Status = document.StatusDeleted
		doc.UpdatedAt = now
	}
	return nil
}

// FeedbackRepo 问答反馈
type FeedbackRepo struct {
	mu    sync.Mutex
	items []*qa.Feedback
}

func NewFeedbackRepo() *FeedbackRepo {
	return &FeedbackRepo{}
}

func (r *FeedbackRepo) Create(ctx context.Context, fb *qa.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *fb
	r.items = append(r.items, &copied)
	return nil
}

// Len 反馈条数
func (r *FeedbackRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
