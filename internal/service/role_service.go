package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"docchat/internal/model"
	"docchat/internal/model/role"
	"docchat/internal/pkg/id"
	"docchat/internal/pkg/kvstore"
	"docchat/internal/pkg/logger"
)

var (
	ErrRoleNotFound     = errors.New("角色不存在")
	ErrLastRole         = errors.New("至少需要保留一个角色")
	ErrRoleNameRequired = errors.New("角色名称不能为空")
	ErrInvalidRoleParam = errors.New("角色模型参数超出范围")
)

const (
	rolesKeyPrefix       = "roles:"
	defaultRoleKeyPrefix = "default_role:"
)

// RoleService 角色服务
// 角色按用户保存为一个 JSON 值，读改写由互斥锁串行化
type RoleService struct {
	store    kvstore.Store
	defaults model.GenerationParams
	now      func() time.Time
	mu       sync.Mutex
}

// NewRoleService 创建角色服务
func NewRoleService(store kvstore.Store, defaults model.GenerationParams) *RoleService {
	return &RoleService{
		store:    store,
		defaults: defaults,
		now:      time.Now,
	}
}

// List 列出用户的全部角色
func (s *RoleService) List(ctx context.Context, userID string) ([]*role.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, userID)
}

// Count 角色数量
func (s *RoleService) Count(ctx context.Context, userID string) (int, error) {
	roles, err := s.List(ctx, userID)
	if err != nil {
		return 0, err
	}
	return len(roles), nil
}

// Get 获取角色
func (s *RoleService) Get(ctx context.Context, userID, roleID string) (*role.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roles, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	r := findRole(roles, roleID)
	if r == nil {
		return nil, ErrRoleNotFound
	}
	return r, nil
}

// Create 创建角色，设为默认时取消其他角色的默认标记
func (s *RoleService) Create(ctx context.Context, userID string, req *role.CreateRoleRequest) (*role.Role, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrRoleNameRequired
	}
	if err := validateModelConfig(req.ModelConfig); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	roles, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	r := &role.Role{
		ID:           id.NewRoleID(),
		Name:         name,
		Description:  req.Description,
		SystemPrompt: req.SystemPrompt,
		ModelConfig:  req.ModelConfig,
		IsDefault:    req.IsDefault,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.backfill(&r.ModelConfig)

	if r.IsDefault {
		clearDefault(roles)
	}
	roles = append(roles, r)

	if err := s.save(ctx, userID, roles); err != nil {
		return nil, err
	}
	if r.IsDefault {
		if err := s.saveDefaultID(ctx, userID, r.ID); err != nil {
			return nil, err
		}
	}

	logger.Ctx(ctx).Info().Str("role_id", r.ID).Msg("role created")
	return r, nil
}

// Update 部分更新角色
func (s *RoleService) Update(ctx context.Context, userID, roleID string, req *role.UpdateRoleRequest) (*role.Role, error) {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, ErrRoleNameRequired
	}
	if req.ModelConfig != nil {
		if err := validateModelConfig(*req.ModelConfig); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	roles, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	r := findRole(roles, roleID)
	if r == nil {
		return nil, ErrRoleNotFound
	}

	if req.Name != nil {
		r.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		r.Description = *req.Description
	}
	if req.SystemPrompt != nil {
		r.SystemPrompt = *req.SystemPrompt
	}
	if req.ModelConfig != nil {
		mergeModelConfig(&r.ModelConfig, *req.ModelConfig)
	}

	setDefault := false
	if req.IsDefault != nil {
		if *req.IsDefault && !r.IsDefault {
			clearDefault(roles)
			r.IsDefault = true
			setDefault = true
		} else if !*req.IsDefault {
			r.IsDefault = false
		}
	}
	r.UpdatedAt = s.now()

	if err := s.save(ctx, userID, roles); err != nil {
		return nil, err
	}
	if setDefault {
		if err := s.saveDefaultID(ctx, userID, r.ID); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Delete 删除角色
// 不能删除最后一个角色；删除默认角色时第一个剩余角色成为默认
func (s *RoleService) Delete(ctx context.Context, userID, roleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	roles, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	target := findRole(roles, roleID)
	if target == nil {
		return ErrRoleNotFound
	}
	if len(roles) <= 1 {
		return ErrLastRole
	}

	remaining := make([]*role.Role, 0, len(roles)-1)
	for _, r := range roles {
		if r.ID != roleID {
			remaining = append(remaining, r)
		}
	}

	promote := target.IsDefault || !hasDefault(remaining)
	if promote {
		clearDefault(remaining)
		remaining[0].IsDefault = true
	}

	if err := s.save(ctx, userID, remaining); err != nil {
		return err
	}
	if promote {
		return s.saveDefaultID(ctx, userID, remaining[0].ID)
	}
	return nil
}

// SetDefault 设置默认角色
func (s *RoleService) SetDefault(ctx context.Context, userID, roleID string) (*role.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roles, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	r := findRole(roles, roleID)
	if r == nil {
		return nil, ErrRoleNotFound
	}

	clearDefault(roles)
	r.IsDefault = true
	r.UpdatedAt = s.now()

	if err := s.save(ctx, userID, roles); err != nil {
		return nil, err
	}
	if err := s.saveDefaultID(ctx, userID, r.ID); err != nil {
		return nil, err
	}
	return r, nil
}

// GetDefault 默认角色
// 依次取：记录的默认 ID、带默认标记的角色、第一个角色
func (s *RoleService) GetDefault(ctx context.Context, userID string) (*role.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roles, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.defaultOf(ctx, userID, roles)
}

// ResolveForChat 确定对话使用的角色，roleID 为空时使用默认角色
func (s *RoleService) ResolveForChat(ctx context.Context, userID, roleID string) (*role.Role, error) {
	if roleID != "" {
		return s.Get(ctx, userID, roleID)
	}
	return s.GetDefault(ctx, userID)
}

func (s *RoleService) defaultOf(ctx context.Context, userID string, roles []*role.Role) (*role.Role, error) {
	if len(roles) == 0 {
		return nil, ErrRoleNotFound
	}

	raw, err := s.store.Load(ctx, defaultRoleKeyPrefix+userID)
	switch {
	case err == nil:
		if r := findRole(roles, string(raw)); r != nil {
			return r, nil
		}
	case !errors.Is(err, kvstore.ErrNotFound):
		return nil, fmt.Errorf("读取默认角色失败: %w", err)
	}

	for _, r := range roles {
		if r.IsDefault {
			return r, nil
		}
	}
	return roles[0], nil
}

// load 读取角色，首次访问写入内置角色，并补全参数、同步内置提示词
func (s *RoleService) load(ctx context.Context, userID string) ([]*role.Role, error) {
	raw, err := s.store.Load(ctx, rolesKeyPrefix+userID)
	if errors.Is(err, kvstore.ErrNotFound) {
		return s.seed(ctx, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("读取角色失败: %w", err)
	}

	var roles []*role.Role
	if err := json.Unmarshal(raw, &roles); err != nil {
		return nil, fmt.Errorf("角色数据损坏: %w", err)
	}
	if len(roles) == 0 {
		return s.seed(ctx, userID)
	}

	changed := false
	for _, r := range roles {
		if s.backfill(&r.ModelConfig) {
			changed = true
		}
		if prompt, ok := builtinPrompt(r.ID); ok && r.SystemPrompt != prompt {
			r.SystemPrompt = prompt
			changed = true
		}
	}
	if changed {
		if err := s.save(ctx, userID, roles); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("failed to persist normalized roles")
		}
	}
	return roles, nil
}

func (s *RoleService) seed(ctx context.Context, userID string) ([]*role.Role, error) {
	now := s.now()
	roles := builtinRoles()
	for _, r := range roles {
		r.CreatedAt = now
		r.UpdatedAt = now
	}

	if err := s.save(ctx, userID, roles); err != nil {
		return nil, err
	}
	if err := s.saveDefaultID(ctx, userID, roles[0].ID); err != nil {
		return nil, err
	}
	logger.Ctx(ctx).Info().Int("count", len(roles)).Msg("seeded builtin roles")
	return roles, nil
}

// backfill 用全局默认值补全缺失的模型参数，返回是否有修改
func (s *RoleService) backfill(mc *role.ModelConfig) bool {
	changed := false
	if mc.Model == "" {
		mc.Model = s.defaults.Model
		changed = true
	}
	if mc.Temperature == nil {
		mc.Temperature = float64Ptr(s.defaults.Temperature)
		changed = true
	}
	if mc.TopP == nil {
		mc.TopP = float64Ptr(s.defaults.TopP)
		changed = true
	}
	if mc.MaxTokens == nil {
		mc.MaxTokens = intPtr(s.defaults.MaxTokens)
		changed = true
	}
	return changed
}

func (s *RoleService) save(ctx context.Context, userID string, roles []*role.Role) error {
	data, err := json.Marshal(roles)
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx, rolesKeyPrefix+userID, data); err != nil {
		return fmt.Errorf("保存角色失败: %w", err)
	}
	return nil
}

func (s *RoleService) saveDefaultID(ctx context.Context, userID, roleID string) error {
	if err := s.store.Save(ctx, defaultRoleKeyPrefix+userID, []byte(roleID)); err != nil {
		return fmt.Errorf("保存默认角色失败: %w", err)
	}
	return nil
}

func findRole(roles []*role.Role, roleID string) *role.Role {
	for _, r := range roles {
		if r.ID == roleID {
			return r
		}
	}
	return nil
}

func clearDefault(roles []*role.Role) {
	for _, r := range roles {
		r.IsDefault = false
	}
}

func hasDefault(roles []*role.Role) bool {
	for _, r := range roles {
		if r.IsDefault {
			return true
		}
	}
	return false
}

func mergeModelConfig(dst *role.ModelConfig, src role.ModelConfig) {
	if src.Model != "" {
		dst.Model = src.Model
	}
	if src.Temperature != nil {
		dst.Temperature = src.Temperature
	}
	if src.TopP != nil {
		dst.TopP = src.TopP
	}
	if src.MaxTokens != nil {
		dst.MaxTokens = src.MaxTokens
	}
}

func validateModelConfig(mc role.ModelConfig) error {
	if mc.Temperature != nil && (*mc.Temperature < 0 || *mc.Temperature > 2) {
		return fmt.Errorf("%w: temperature 应在 [0,2]", ErrInvalidRoleParam)
	}
	if mc.TopP != nil && (*mc.TopP < 0 || *mc.TopP > 1) {
		return fmt.Errorf("%w: top_p 应在 [0,1]", ErrInvalidRoleParam)
	}
	if mc.MaxTokens != nil && (*mc.MaxTokens < 1 || *mc.MaxTokens > 8192) {
		return fmt.Errorf("%w: max_tokens 应在 [1,8192]", ErrInvalidRoleParam)
	}
	return nil
}
