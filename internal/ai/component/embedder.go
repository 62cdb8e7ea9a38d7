package component

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/rs/zerolog/log"
	"github.com/volcengine/volcengine-go-sdk/service/arkruntime"
	arkmodel "github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"

	"docchat/internal/config"
	"docchat/internal/pkg/segment"
)

const (
	openAIBaseURL = "https://api.openai.com/v1"

	defaultHashDimension = 512
)

var defaultEmbeddingModels = map[string]string{
	"ark":       "doubao-embedding-text-240715",
	"openai":    "text-embedding-3-small",
	"dashscope": "text-embedding-v3",
}

// NewEmbedder 创建向量化组件
// ark / openai / dashscope 都走 OpenAI 兼容的 /embeddings 接口
// hash 为本地特征哈希，不依赖外部服务
func NewEmbedder(cfg *config.EmbeddingConfig) (embedding.Embedder, error) {
	switch cfg.Provider {
	case "hash", "":
		return NewHashEmbedder(cfg.Dimension, segment.Default()), nil
	case "ark", "openai", "dashscope":
		if cfg.APIKey == "" {
			log.Warn().Str("provider", cfg.Provider).Msg("embedding API key not configured, using hash embedder")
			return NewHashEmbedder(cfg.Dimension, segment.Default()), nil
		}
		return newAPIEmbedder(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}

// APIEmbedder 远程向量化接口
type APIEmbedder struct {
	client *arkruntime.Client
	model  string
}

func newAPIEmbedder(cfg *config.EmbeddingConfig) *APIEmbedder {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		switch cfg.Provider {
		case "ark":
			baseURL = arkBaseURL
		case "openai":
			baseURL = openAIBaseURL
		case "dashscope":
			baseURL = DashScopeBaseURL
		}
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultEmbeddingModels[cfg.Provider]
	}

	return &APIEmbedder{
		client: arkruntime.NewClientWithApiKey(cfg.APIKey, arkruntime.WithBaseUrl(baseURL)),
		model:  modelName,
	}
}

// EmbedStrings 实现 embedding.Embedder
func (e *APIEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	modelName := e.model
	if o := embedding.GetCommonOptions(&embedding.Options{}, opts...); o.Model != nil && *o.Model != "" {
		modelName = *o.Model
	}

	resp, err := e.client.CreateEmbeddings(ctx, arkmodel.EmbeddingRequestStrings{
		Input: texts,
		Model: modelName,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding API call failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding API returned %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	data := resp.Data
	sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	vectors := make([][]float64, len(data))
	for i, d := range data {
		vec := make([]float64, len(d.Embedding))
		for j, v := range d.Embedding {
			vec[j] = float64(v)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// HashEmbedder 基于分词的特征哈希向量
// 相同词汇的文本向量相近，适合无外部模型时的本地检索
type HashEmbedder struct {
	dim int
	seg *segment.Segmenter
}

// NewHashEmbedder 创建特征哈希向量化组件
func NewHashEmbedder(dim int, seg *segment.Segmenter) *HashEmbedder {
	if dim <= 0 {
		dim = defaultHashDimension
	}
	return &HashEmbedder{dim: dim, seg: seg}
}

// Dimension 向量维度
func (e *HashEmbedder) Dimension() int {
	return e.dim
}

// EmbedStrings 实现 embedding.Embedder
func (e *HashEmbedder) EmbedStrings(ctx context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vectors[i] = e.embed(text)
	}
	return vectors, nil
}

func (e *HashEmbedder) embed(text string) []float64 {
	vec := make([]float64, e.dim)
	for _, w := range e.seg.Words(text) {
		h := xxhash.Sum64String(w)
		idx := int(h % uint64(e.dim))
		// 高位决定符号
		if h>>63 == 1 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}
