package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docchat/internal/handler/respond"
	"docchat/internal/model/role"
	"docchat/internal/service"
)

// RoleHandler 角色处理器
type RoleHandler struct {
	roleService *service.RoleService
}

// NewRoleHandler 创建角色处理器
func NewRoleHandler(roleService *service.RoleService) *RoleHandler {
	return &RoleHandler{roleService: roleService}
}

// List 角色列表
// @Summary      角色列表
// @Tags         角色
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "{\"code\": 0, \"message\": \"success\", \"data\": [...]}"
// @Router       /api/v1/roles [get]
func (h *RoleHandler) List(c *gin.Context) {
	roles, err := h.roleService.List(c.Request.Context(), respond.UserID(c))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, "success", roles)
}

// Get 角色详情
// @Summary      角色详情
// @Tags         角色
// @Produce      json
// @Param        id   path      string  true  "角色ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  respond.ErrorResponse  "角色不存在"
// @Router       /api/v1/roles/{id} [get]
func (h *RoleHandler) Get(c *gin.Context) {
	r, err := h.roleService.Get(c.Request.Context(), respond.UserID(c), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, "success", r)
}

// GetDefault 默认角色
// @Summary      默认角色
// @Tags         角色
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/v1/roles/default [get]
func (h *RoleHandler) GetDefault(c *gin.Context) {
	r, err := h.roleService.GetDefault(c.Request.Context(), respond.UserID(c))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, "success", r)
}

// Create 创建角色
// @Summary      创建角色
// @Tags         角色
// @Accept       json
// @Produce      json
// @Param        request  body      role.CreateRoleRequest  true  "角色信息"
// @Success      201      {object}  map[string]interface{}
// @Failure      400      {object}  respond.ErrorResponse  "请求参数错误"
// @Router       /api/v1/roles [post]
func (h *RoleHandler) Create(c *gin.Context) {
	var req role.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "Invalid request body", err)
		return
	}

	r, err := h.roleService.Create(c.Request.Context(), respond.UserID(c), &req)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusCreated, "角色创建成功", r)
}

// Update 更新角色
// @Summary      更新角色
// @Tags         角色
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "角色ID"
// @Param        request  body      role.UpdateRoleRequest  true  "要修改的字段"
// @Success      200      {object}  map[string]interface{}
// @Failure      404      {object}  respond.ErrorResponse  "角色不存在"
// @Router       /api/v1/roles/{id} [put]
func (h *RoleHandler) Update(c *gin.Context) {
	var req role.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "Invalid request body", err)
		return
	}

	r, err := h.roleService.Update(c.Request.Context(), respond.UserID(c), c.Param("id"), &req)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, "角色更新成功", r)
}

// Delete 删除角色
// @Summary      删除角色
// @Tags         角色
// @Param        id   path  string  true  "角色ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      409  {object}  respond.ErrorResponse  "不能删除最后一个角色"
// @Router       /api/v1/roles/{id} [delete]
func (h *RoleHandler) Delete(c *gin.Context) {
	if err := h.roleService.Delete(c.Request.Context(), respond.UserID(c), c.Param("id")); err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, "角色删除成功", nil)
}

// SetDefault 设为默认角色
// @Summary      设为默认角色
// @Tags         角色
// @Param        id   path  string  true  "角色ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  respond.ErrorResponse  "角色不存在"
// @Router       /api/v1/roles/{id}/default [post]
func (h *RoleHandler) SetDefault(c *gin.Context) {
	r, err := h.roleService.SetDefault(c.Request.Context(), respond.UserID(c), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, "默认角色已更新", r)
}
