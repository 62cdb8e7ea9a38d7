package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config 应用配置根结构
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	AI        AIConfig        `mapstructure:"ai"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Log       LogConfig       `mapstructure:"log"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Document  DocumentConfig  `mapstructure:"document"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// AIConfig 对话模型配置
type AIConfig struct {
	Provider string          `mapstructure:"provider"` // openai, azure, ark, dashscope, mock
	APIKey   string          `mapstructure:"api_key"`
	Model    string          `mapstructure:"model"`
	BaseURL  string          `mapstructure:"base_url"`
	Options  AIOptionsConfig `mapstructure:"options"`
}

// AIOptionsConfig 默认生成参数，请求和角色未指定时使用
type AIOptionsConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	TopP        float64 `mapstructure:"top_p"`
}

// EmbeddingConfig 向量化模型配置
type EmbeddingConfig struct {
	Provider  string `mapstructure:"provider"` // ark, openai, dashscope, hash
	APIKey    string `mapstructure:"api_key"`
	BaseURL   string `mapstructure:"base_url"`
	Model     string `mapstructure:"model"`
	Dimension int    `mapstructure:"dimension"`
}

// LogConfig 日志配置 (Zerolog)
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	TimeFormat string `mapstructure:"time_format"`
}

// MongoConfig MongoDB 配置
type MongoConfig struct {
	URI         string `mapstructure:"uri"`
	Database    string `mapstructure:"database"`
	MaxPoolSize uint64 `mapstructure:"max_pool_size"`
	MinPoolSize uint64 `mapstructure:"min_pool_size"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig 认证配置
type AuthConfig struct {
	Enabled           bool          `mapstructure:"enabled"`             // 是否启用 JWT 认证
	JWTSecret         string        `mapstructure:"jwt_secret"`          // JWT密钥
	AccessTokenExpiry time.Duration `mapstructure:"access_token_expiry"` // Token过期时间
}

// StorageConfig 存储配置
type StorageConfig struct {
	Type  string       `mapstructure:"type"` // local, oss
	Local *LocalConfig `mapstructure:"local,omitempty"`
	OSS   *OSSConfig   `mapstructure:"oss,omitempty"`
}

// LocalConfig 本地文件系统配置
type LocalConfig struct {
	BasePath      string `mapstructure:"base_path"`      // 基础路径
	BaseURL       string `mapstructure:"base_url"`       // 基础URL（用于生成访问URL）
	PresignExpiry int    `mapstructure:"presign_expiry"` // 预签名URL过期时间（秒）
}

// OSSConfig 阿里云OSS配置
type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`          // OSS端点
	Bucket          string `mapstructure:"bucket"`            // Bucket名称
	AccessKeyID     string `mapstructure:"access_key_id"`     // AccessKey ID
	AccessKeySecret string `mapstructure:"access_key_secret"` // AccessKey Secret
	PresignExpiry   int    `mapstructure:"presign_expiry"`    // 预签名URL过期时间（秒）
}

// DocumentConfig 文档处理与检索配置
type DocumentConfig struct {
	MaxFileSize       int64    `mapstructure:"max_file_size"`      // 单文件上限（字节）
	AllowedExtensions []string `mapstructure:"allowed_extensions"` // 不含点号
	ChunkSize         int      `mapstructure:"chunk_size"`         // 分块长度（字符）
	ChunkOverlap      int      `mapstructure:"chunk_overlap"`      // 相邻块重叠（字符）
	TopK              int      `mapstructure:"top_k"`
	ScoreThreshold    float64  `mapstructure:"score_threshold"`
	ContextTokens     int      `mapstructure:"context_tokens"` // 问答上下文预算
}

// IsAllowed 判断扩展名是否允许上传
func (c *DocumentConfig) IsAllowed(ext string) bool {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	for _, allowed := range c.AllowedExtensions {
		if strings.TrimPrefix(strings.ToLower(allowed), ".") == ext {
			return true
		}
	}
	return false
}

// QueueConfig 后台任务队列配置
type QueueConfig struct {
	Type    string     `mapstructure:"type"`    // memory, nats
	Workers int        `mapstructure:"workers"` // memory 模式的并发 worker 数
	NATS    NATSConfig `mapstructure:"nats"`
}

// NATSConfig NATS 连接配置
type NATSConfig struct {
	URL      string `mapstructure:"url"`       // 外部 NATS 地址，为空时使用内嵌服务
	Embedded bool   `mapstructure:"embedded"`  // 是否启动内嵌 nats-server
	StoreDir string `mapstructure:"store_dir"` // 内嵌 JetStream 存储目录
}

// MetricsConfig Prometheus 指标配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Validate 验证配置有效性
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid server port")
	}

	validModes := map[string]bool{"debug": true, "release": true, "test": true}
	if !validModes[c.Server.Mode] {
		return errors.New("invalid server mode, must be debug/release/test")
	}

	opts := c.AI.Options
	if opts.Temperature < 0 || opts.Temperature > 2 {
		return fmt.Errorf("ai.options.temperature out of range [0,2]: %v", opts.Temperature)
	}
	if opts.TopP < 0 || opts.TopP > 1 {
		return fmt.Errorf("ai.options.top_p out of range [0,1]: %v", opts.TopP)
	}
	if opts.MaxTokens < 0 || opts.MaxTokens > 8192 {
		return fmt.Errorf("ai.options.max_tokens out of range [1,8192]: %d", opts.MaxTokens)
	}

	doc := c.Document
	if doc.MaxFileSize <= 0 {
		return errors.New("document.max_file_size must be positive")
	}
	if doc.ChunkSize <= 0 {
		return errors.New("document.chunk_size must be positive")
	}
	if doc.ChunkOverlap < 0 || doc.ChunkOverlap >= doc.ChunkSize {
		return errors.New("document.chunk_overlap must be in [0, chunk_size)")
	}
	if doc.ScoreThreshold < 0 || doc.ScoreThreshold > 1 {
		return errors.New("document.score_threshold must be in [0,1]")
	}

	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required when auth is enabled")
	}

	switch c.Queue.Type {
	case "", "memory", "nats":
	default:
		return fmt.Errorf("unsupported queue type: %s", c.Queue.Type)
	}

	switch c.Storage.Type {
	case "", "local", "oss":
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}

	return nil
}
