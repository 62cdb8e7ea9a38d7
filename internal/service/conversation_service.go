package service

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"

	"docchat/internal/model"
	httputil "docchat/internal/pkg/http"
)

// ConversationService 对话管理服务
type ConversationService struct {
	repo ConversationRepository
}

// NewConversationService 创建对话管理服务
func NewConversationService(repo ConversationRepository) *ConversationService {
	return &ConversationService{repo: repo}
}

// ConversationListResult 对话列表
type ConversationListResult struct {
	Conversations []*model.Conversation `json:"conversations"`
	Total         int64                 `json:"total"`
	Page          int                   `json:"page"`
	PageSize      int                   `json:"page_size"`
}

// Create 创建对话
func (s *ConversationService) Create(ctx context.Context, userID string, req *model.CreateConversationRequest) (*model.Conversation, error) {
	conv := &model.Conversation{
		UserID: userID,
		Title:  req.Title,
		Model:  req.Model,
		RoleID: req.RoleID,
	}
	if conv.Title == "" {
		conv.Title = "新对话"
	}
	if err := s.repo.Create(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// List 分页列出用户的对话
func (s *ConversationService) List(ctx context.Context, userID string, page, pageSize int) (*ConversationListResult, error) {
	page, pageSize = httputil.NormalizePage(page, pageSize)
	convs, total, err := s.repo.ListByUserID(ctx, userID, int64(pageSize), int64((page-1)*pageSize))
	if err != nil {
		return nil, err
	}
	return &ConversationListResult{
		Conversations: convs,
		Total:         total,
		Page:          page,
		PageSize:      pageSize,
	}, nil
}

// Get 获取对话详情
func (s *ConversationService) Get(ctx context.Context, userID, convID string) (*model.Conversation, error) {
	conv, err := s.repo.FindByID(ctx, convID, userID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrConversationNotFound
	}
	return conv, err
}

// Delete 删除对话
func (s *ConversationService) Delete(ctx context.Context, userID, convID string) error {
	err := s.repo.Delete(ctx, convID, userID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrConversationNotFound
	}
	return err
}
