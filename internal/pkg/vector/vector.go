package vector

import (
	"context"
	"math"
	"sort"
	"sync"
)

// Record 向量记录，Text 与元数据随向量一同保存
type Record struct {
	ID          string
	UserID      string
	DocumentID  string
	Filename    string
	ChunkIndex  int
	TotalChunks int
	Text        string
	Tokens      int
	Vector      []float64
}

// Hit 检索结果
type Hit struct {
	Record
	Score float64
}

// Query 检索条件
type Query struct {
	UserID      string
	Vector      []float64
	TopK        int
	DocumentIDs []string
	Threshold   float64
}

// Store 向量存储
type Store interface {
	Upsert(ctx context.Context, records []Record) error
	Query(ctx context.Context, q Query) ([]Hit, error)
	DeleteByDocument(ctx context.Context, documentID string) error
	CountByDocument(ctx context.Context, documentID string) (int64, error)
}

// Cosine 余弦相似度，长度不同或零向量返回 0
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Rank 计算得分、按阈值过滤并取前 topK
// topK <= 0 时返回全部
func Rank(records []Record, vec []float64, topK int, threshold float64) []Hit {
	hits := make([]Hit, 0, len(records))
	for _, r := range records {
		score := Cosine(r.Vector, vec)
		if score < threshold {
			continue
		}
		hits = append(hits, Hit{Record: r, Score: score})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}

// Matches 判断记录是否满足用户与文档过滤条件
func (q Query) Matches(r *Record) bool {
	if q.UserID != "" && r.UserID != q.UserID {
		return false
	}
	if len(q.DocumentIDs) == 0 {
		return true
	}
	for _, id := range q.DocumentIDs {
		if id == r.DocumentID {
			return true
		}
	}
	return false
}

// MemoryStore 内存实现，未配置 MongoDB 时使用
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore 创建内存向量存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Upsert(ctx context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		r.Vector = append([]float64(nil), r.Vector...)
		s.records[r.ID] = r
	}
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, q Query) ([]Hit, error) {
	s.mu.RLock()
	candidates := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		if q.Matches(&r) {
			candidates = append(candidates, r)
		}
	}
	s.mu.RUnlock()

	// map 遍历无序，先按 ID 排序保证同分结果稳定
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].ID < candidates[j].ID
	})
	return Rank(candidates, q.Vector, q.TopK, q.Threshold), nil
}

func (s *MemoryStore) DeleteByDocument(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.records {
		if r.DocumentID == documentID {
			delete(s.records, id)
		}
	}
	return nil
}

func (s *MemoryStore) CountByDocument(ctx context.Context, documentID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, r := range s.records {
		if r.DocumentID == documentID {
			n++
		}
	}
	return n, nil
}
