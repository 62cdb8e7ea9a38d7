package document

import (
	"context"
	"io"

	"docchat/internal/service"
)

// SignedStorage 本地存储的签名下载能力
type SignedStorage interface {
	VerifySignature(key, expires, signature string) bool
	Download(ctx context.Context, key string) (io.ReadCloser, error)
}

// Handler 文档模块处理器
// 所有文档相关的Handler方法都通过这个结构体访问Service
type Handler struct {
	documentService *service.DocumentService
	files           SignedStorage // 仅本地存储时非空
}

// NewHandler 创建文档模块处理器
func NewHandler(documentService *service.DocumentService, files SignedStorage) *Handler {
	return &Handler{
		documentService: documentService,
		files:           files,
	}
}
