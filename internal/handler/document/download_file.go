package document

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	httputil "docchat/internal/pkg/http"
	"docchat/internal/pkg/storage"
)

// DownloadFile 下载本地存储中的文件，需携带预签名参数
// @Summary      下载文件
// @Tags         文档管理
// @Produce      application/octet-stream
// @Param        key        path   string  true  "存储路径"
// @Param        expires    query  string  true  "过期时间戳"
// @Param        signature  query  string  true  "签名"
// @Success      200  {file}    binary  "文件流"
// @Failure      403  {object}  ErrorResponse  "签名无效或已过期"
// @Failure      404  {object}  ErrorResponse  "文件不存在"
// @Router       /files/{key} [get]
func (h *Handler) DownloadFile(c *gin.Context) {
	if h.files == nil {
		c.JSON(http.StatusNotFound, httputil.NewErrorResponse(httputil.CodeNotFound, "Not Found"))
		return
	}

	key := strings.TrimPrefix(c.Param("key"), "/")
	if !h.files.VerifySignature(key, c.Query("expires"), c.Query("signature")) {
		c.JSON(http.StatusForbidden, httputil.NewErrorResponse(40301, "签名无效或已过期"))
		return
	}

	rc, err := h.files.Download(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, httputil.NewErrorResponse(httputil.CodeNotFound, "文件不存在"))
			return
		}
		c.JSON(http.StatusInternalServerError, httputil.NewErrorResponse(httputil.CodeInternal, "Failed to read file"))
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", `attachment; filename="`+filepath.Base(key)+`"`)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, rc)
}
