package ctxutil

import "context"

// subjectKeyType 使用私有类型避免与其他 context key 冲突
type subjectKeyType struct{}

var subjectKey = subjectKeyType{}

// WithSubject 将调用方标识注入到 context 中，由认证中间件在解析 JWT 后调用
func WithSubject(ctx context.Context, subject string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, subjectKey, subject)
}

// GetSubject 从 context 中读取调用方标识
func GetSubject(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	s, ok := ctx.Value(subjectKey).(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
