package reeltools

import (
	"context"
)

// LLMProvider 定义了调用大模型的接口
// 具体的「如何调用大模型」由调用方通过实现此接口注入，方便单测和替换实现
type LLMProvider interface {
	// Generate 根据提示词生成文本
	//
	// Args:
	//   - ctx: 上下文
	//   - prompt: 提示词
	//
	// Returns:
	//   - text: 生成的文本
	//   - err: 错误信息
	Generate(ctx context.Context, prompt string) (string, error)
}

// PromptCache 分段提示词改写结果缓存
// 缓存读写失败不影响改写流程
type PromptCache interface {
	// Get 读取缓存，未命中时 ok 为 false
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set 写入缓存
	Set(ctx context.Context, key string, value string) error
}
