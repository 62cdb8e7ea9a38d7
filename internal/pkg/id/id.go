package id

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// New 生成新的UUID（string格式）
func New() string {
	return uuid.New().String()
}

// IsValid 验证UUID格式是否有效
func IsValid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// NewRoleID 生成自定义角色 ID: role_<毫秒时间戳>_<随机串>
func NewRoleID() string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:9]
	return fmt.Sprintf("role_%d_%s", time.Now().UnixMilli(), suffix)
}

// DocumentID 由文件名和内容生成稳定的文档 ID
// 同名同内容的文件得到相同 ID，用于上传去重
func DocumentID(filename string, content []byte) string {
	contentHash := sha256.Sum256(content)
	nameHash := sha256.Sum256([]byte(filename))
	return "doc_" + hex.EncodeToString(nameHash[:])[:8] + "_" + hex.EncodeToString(contentHash[:])[:16]
}
