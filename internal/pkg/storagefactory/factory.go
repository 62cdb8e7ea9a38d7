package storagefactory

import (
	"context"
	"errors"
	"fmt"

	"docchat/internal/config"
	"docchat/internal/pkg/logger"
	"docchat/internal/pkg/storage"
	"docchat/internal/pkg/storage/local"
	"docchat/internal/pkg/storage/oss"
)

const (
	// DefaultDownloadPath 本地存储的下载路由前缀，与 GET /files/*key 对应
	DefaultDownloadPath = "/files"
	// DefaultPresignExpiry 下载链接默认有效期（秒）
	DefaultPresignExpiry = 3600
)

// NewStorage 根据配置创建原始文档存储，未指定类型时使用本地文件系统
func NewStorage(ctx context.Context, cfg *config.StorageConfig) (storage.Storage, error) {
	var (
		s   storage.Storage
		err error
	)
	switch cfg.Type {
	case "local", "":
		s, err = newLocal(cfg.Local)
	case "oss":
		s, err = newOSS(cfg.OSS)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	logger.Ctx(ctx).Info().Str("type", s.GetStorageType()).Msg("document storage initialized")
	return s, nil
}

func newLocal(cfg *config.LocalConfig) (storage.Storage, error) {
	if cfg == nil || cfg.BasePath == "" {
		return nil, errors.New("storage.local.base_path is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultDownloadPath
	}
	return local.NewLocalStorage(cfg.BasePath, baseURL, presignExpiry(cfg.PresignExpiry))
}

func newOSS(cfg *config.OSSConfig) (storage.Storage, error) {
	if cfg == nil {
		return nil, errors.New("storage.oss config is required")
	}
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("storage.oss endpoint and bucket are required")
	}
	return oss.NewOSSStorage(
		cfg.Endpoint,
		cfg.Bucket,
		cfg.AccessKeyID,
		cfg.AccessKeySecret,
		presignExpiry(cfg.PresignExpiry),
	)
}

func presignExpiry(seconds int) int {
	if seconds <= 0 {
		return DefaultPresignExpiry
	}
	return seconds
}
