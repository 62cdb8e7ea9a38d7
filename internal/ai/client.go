package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/embedding"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/rs/zerolog/log"

	"docchat/internal/ai/chain"
	"docchat/internal/ai/component"
	"docchat/internal/config"
)

var errNotInitialized = errors.New("not initialized")

// Client AI 能力层客户端
// 职责: 封装对话模型与向量化模型，为服务层提供对话链和问答链
type Client struct {
	provider  string
	chatModel einomodel.BaseChatModel
	embedder  embedding.Embedder
	chatChain *chain.ChatChain
	qaChain   *chain.QAChain
}

// NewClient 创建 AI 客户端
func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	chatModel, err := component.NewChatModel(ctx, &cfg.AI)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	embedder, err := component.NewEmbedder(&cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	provider := cfg.AI.Provider
	if _, ok := chatModel.(*component.MockChatModel); ok {
		provider = "mock"
	}
	log.Info().
		Str("provider", provider).
		Str("model", cfg.AI.Model).
		Str("embedding_provider", cfg.Embedding.Provider).
		Msg("AI client initialized")

	return NewClientWith(provider, chatModel, embedder, cfg.AI.Model, cfg.Document.ContextTokens), nil
}

// NewClientWith 使用现成的模型组件创建客户端
func NewClientWith(provider string, chatModel einomodel.BaseChatModel, embedder embedding.Embedder, qaModel string, contextTokens int) *Client {
	return &Client{
		provider:  provider,
		chatModel: chatModel,
		embedder:  embedder,
		chatChain: chain.NewChatChain(chatModel),
		qaChain:   chain.NewQAChain(chatModel, qaModel, contextTokens),
	}
}

// Provider 实际使用的模型提供方
func (c *Client) Provider() string {
	return c.provider
}

// ChatChain 对话链
func (c *Client) ChatChain() *chain.ChatChain {
	return c.chatChain
}

// QAChain 问答链
func (c *Client) QAChain() *chain.QAChain {
	return c.qaChain
}

// Embedder 向量化组件
func (c *Client) Embedder() embedding.Embedder {
	return c.embedder
}

// PingChat 检查对话模型是否就绪，不发起远程调用
func (c *Client) PingChat(ctx context.Context) error {
	if c.chatModel == nil {
		return errNotInitialized
	}
	return ctx.Err()
}

// PingEmbedding 检查向量化组件是否就绪，不发起远程调用
func (c *Client) PingEmbedding(ctx context.Context) error {
	if c.embedder == nil {
		return errNotInitialized
	}
	return ctx.Err()
}

// Close 关闭客户端
func (c *Client) Close() error {
	return nil
}
