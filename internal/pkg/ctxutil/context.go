package ctxutil

import "context"

// 使用私有类型避免与其他 context key 冲突
type (
	userIDKeyType    struct{}
	requestIDKeyType struct{}
)

var (
	userIDKey    = userIDKeyType{}
	requestIDKey = requestIDKeyType{}
)

// AnonymousUserID 未认证且未携带 X-User-ID 时使用
const AnonymousUserID = "anonymous"

// WithUserID 将 userID 注入到 context 中
// 由身份中间件在解析 JWT 或 X-User-ID 后调用
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID 从 context 中解析 userID
// 返回值：
//   - string: 解析到的 userID
//   - bool  : 是否存在有效的 userID
func GetUserID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(userIDKey).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// UserIDOrAnonymous 获取 userID，不存在时返回 anonymous
func UserIDOrAnonymous(ctx context.Context) string {
	if id, ok := GetUserID(ctx); ok {
		return id
	}
	return AnonymousUserID
}

// WithRequestID 注入请求 ID
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID 获取请求 ID，不存在时返回空串
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
