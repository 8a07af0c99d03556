package providers

import (
	"context"
	"fmt"

	"reelforge/internal/pkg/ark"
)

// ArkProvider 直接使用 volcengine-go-sdk 的 LLM 提供者
// 实现了 reeltools.LLMProvider 接口
type ArkProvider struct {
	client *ark.Client
	system string
}

// NewArkProvider 创建基于 Ark SDK 的 LLM 提供者
func NewArkProvider(client *ark.Client, system string) *ArkProvider {
	return &ArkProvider{
		client: client,
		system: system,
	}
}

// Generate 根据提示词生成文本
func (p *ArkProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if p.client == nil {
		return "", fmt.Errorf("ark client is required")
	}
	return p.client.Complete(ctx, p.system, prompt)
}
