package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"docchat/internal/handler/respond"
	"docchat/internal/service"
)

const checkTimeout = 2 * time.Second

// 依赖状态
const (
	StatusUp       = "up"
	StatusDown     = "down"
	StatusDisabled = "disabled"
)

// Dependency 健康检查项
// Ping 为空表示未配置；Required 的依赖不可用时服务不可用
type Dependency struct {
	Name     string
	Required bool
	Ping     func(ctx context.Context) error
}

// BuildInfo 版本信息
type BuildInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

// HealthHandler 健康检查处理器
type HealthHandler struct {
	deps  []Dependency
	build BuildInfo
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(build BuildInfo, deps ...Dependency) *HealthHandler {
	return &HealthHandler{deps: deps, build: build}
}

// DependencyStatus 单个依赖的检查结果
type DependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthResponse 健康检查结果
type HealthResponse struct {
	Status       string                      `json:"status"` // healthy, degraded, unhealthy
	Dependencies map[string]DependencyStatus `json:"dependencies"`
	Timestamp    time.Time                   `json:"timestamp"`
}

// Check 检查全部依赖
func (h *HealthHandler) Check(ctx context.Context) HealthResponse {
	resp := HealthResponse{
		Status:       "healthy",
		Dependencies: make(map[string]DependencyStatus, len(h.deps)),
		Timestamp:    time.Now(),
	}

	for _, d := range h.deps {
		if d.Ping == nil {
			resp.Dependencies[d.Name] = DependencyStatus{Status: StatusDisabled}
			continue
		}

		pctx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := d.Ping(pctx)
		cancel()

		if err == nil {
			resp.Dependencies[d.Name] = DependencyStatus{Status: StatusUp}
			continue
		}
		resp.Dependencies[d.Name] = DependencyStatus{Status: StatusDown, Error: err.Error()}
		if d.Required {
			resp.Status = "unhealthy"
		} else if resp.Status == "healthy" {
			resp.Status = "degraded"
		}
	}
	return resp
}

// Health 健康检查
// @Summary      健康检查
// @Tags         系统
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Failure      503  {object}  HealthResponse
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	resp := h.Check(c.Request.Context())
	status := http.StatusOK
	if resp.Status == "unhealthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

// Ready 就绪检查，只看必需依赖
// @Summary      就绪检查
// @Tags         系统
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]interface{}
// @Router       /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.Check(c.Request.Context()).Status == "unhealthy" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Version 版本信息
// @Summary      版本信息
// @Tags         系统
// @Produce      json
// @Success      200  {object}  BuildInfo
// @Router       /version [get]
func (h *HealthHandler) Version(c *gin.Context) {
	c.JSON(http.StatusOK, h.build)
}

// StatsHandler 用户维度的统计
type StatsHandler struct {
	documents *service.DocumentService
	history   *service.HistoryService
	roles     *service.RoleService
}

// NewStatsHandler 创建统计处理器
func NewStatsHandler(documents *service.DocumentService, history *service.HistoryService, roles *service.RoleService) *StatsHandler {
	return &StatsHandler{documents: documents, history: history, roles: roles}
}

// Stats 文档、历史、角色统计
// @Summary      统计
// @Tags         系统
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/v1/stats [get]
func (h *StatsHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()
	userID := respond.UserID(c)

	docs, err := h.documents.CountByStatus(ctx, userID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	var totalDocs int64
	for _, n := range docs {
		totalDocs += n
	}

	historyCount, err := h.history.Count(ctx, userID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	roleCount, err := h.roles.Count(ctx, userID)
	if err != nil {
		respond.Error(c, err)
		return
	}

	respond.OK(c, http.StatusOK, "success", gin.H{
		"documents": gin.H{
			"total":     totalDocs,
			"by_status": docs,
		},
		"history_count": historyCount,
		"role_count":    roleCount,
	})
}
