// Package client docchat HTTP API 的流式对话客户端
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"docchat/internal/model"
	"docchat/internal/pkg/metrics"
	"docchat/internal/stream"
)

const (
	chatStreamPath = "/api/v1/chat/stream"
	maxErrorBody   = 64 * 1024
)

// Client 对话 API 客户端
type Client struct {
	baseURL    string
	token      string
	userID     string
	httpClient *http.Client
}

// Option 客户端选项
type Option func(*Client)

// WithToken 使用 JWT 认证
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithUserID 未启用认证时通过 X-User-ID 标识用户
func WithUserID(userID string) Option {
	return func(c *Client) {
		c.userID = userID
	}
}

// WithHTTPClient 自定义 http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New 创建客户端
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		// 流式响应不设置整体超时，由 ctx 控制
		httpClient: &http.Client{Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			ResponseHeaderTimeout: 60 * time.Second,
		}},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ChatStream 发起流式对话，将响应组装到 msg 上
// 非 2xx 响应解析为 *stream.UpstreamError，读取失败为 *stream.TransportError
func (c *Client) ChatStream(ctx context.Context, req *model.ChatRequest, msg *stream.Message, onUpdate func(*stream.Message)) error {
	body := *req
	body.Stream = true
	payload, err := json.Marshal(&body)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatStreamPath, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.userID != "" {
		httpReq.Header.Set("X-User-ID", c.userID)
	}

	a := stream.NewAssembler(msg, stream.WithUpdateHook(onUpdate))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			a.Close()
			return nil
		}
		te := &stream.TransportError{Err: err}
		a.Fail(te)
		return te
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ue := decodeError(resp)
		a.Fail(ue)
		return ue
	}

	err = a.Run(ctx, resp.Body)
	if n := a.Skipped(); n > 0 {
		metrics.StreamFramesSkipped.Add(float64(n))
		log.Debug().Int("skipped", n).Msg("malformed stream frames skipped")
	}
	return err
}

// decodeError 解析错误响应体，兼容 {message} 与 {error} 两种格式
func decodeError(resp *http.Response) *stream.UpstreamError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := ""
	if json.Unmarshal(raw, &body) == nil {
		msg = body.Message
		if msg == "" {
			msg = body.Error
		}
	} else {
		msg = strings.TrimSpace(string(raw))
	}
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}
	return &stream.UpstreamError{Status: resp.StatusCode, Message: msg}
}
