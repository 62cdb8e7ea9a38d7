package document

import (
	"time"

	"docchat/internal/handler/respond"
	"docchat/internal/model/document"
)

// ErrorResponse 错误响应类型别名
type ErrorResponse = respond.ErrorResponse

// DocumentInfo 文档信息 DTO
type DocumentInfo struct {
	ID           string `json:"id"`                      // 文档ID
	Filename     string `json:"filename"`                // 原始文件名
	Ext          string `json:"ext"`                     // 文件扩展名
	ContentType  string `json:"content_type"`            // MIME类型
	FileSize     int64  `json:"file_size"`               // 文件大小
	StorageType  string `json:"storage_type"`            // 存储类型
	Status       string `json:"status"`                  // 处理状态
	ErrorMessage string `json:"error_message,omitempty"` // 失败原因
	ChunkCount   int    `json:"chunk_count"`             // 分块数
	TextLength   int    `json:"text_length"`             // 文本长度（字符）
	TokenCount   int    `json:"token_count"`             // 估算 token 数
	CreatedAt    string `json:"created_at"`              // 上传时间
	UpdatedAt    string `json:"updated_at"`              // 更新时间
	ProcessedAt  string `json:"processed_at,omitempty"`  // 处理完成时间
}

// toDocumentInfo 将 Document 实体转换为 DocumentInfo DTO
func toDocumentInfo(doc *document.Document) DocumentInfo {
	info := DocumentInfo{
		ID:           doc.ID,
		Filename:     doc.Filename,
		Ext:          doc.Ext,
		ContentType:  doc.ContentType,
		FileSize:     doc.FileSize,
		StorageType:  doc.StorageType,
		Status:       string(doc.Status),
		ErrorMessage: doc.ErrorMessage,
		ChunkCount:   doc.ChunkCount,
		TextLength:   doc.TextLength,
		TokenCount:   doc.TokenCount,
		CreatedAt:    doc.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    doc.UpdatedAt.Format(time.RFC3339),
	}
	if doc.ProcessedAt != nil {
		info.ProcessedAt = doc.ProcessedAt.Format(time.RFC3339)
	}
	return info
}

// toDocumentInfoList 将 Document 实体列表转换为 DTO 列表
func toDocumentInfoList(docs []*document.Document) []DocumentInfo {
	list := make([]DocumentInfo, len(docs))
	for i, doc := range docs {
		list[i] = toDocumentInfo(doc)
	}
	return list
}
