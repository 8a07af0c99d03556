package providers

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"reelforge/internal/ai/component"
	"reelforge/internal/config"
	"reelforge/internal/pkg/ark"
	"reelforge/internal/pkg/reeltools"
)

// 提供者名称
const (
	ProviderOpenAI = "openai"
	ProviderAzure  = "azure"
	ProviderArk    = "ark"     // eino-ext ark ChatModel
	ProviderArkSDK = "ark_sdk" // volcengine-go-sdk 直连
	ProviderGemini = "gemini"
)

// SystemPrompt 分段改写使用的 system 消息
const SystemPrompt = "You write prompts for AI video generators. Respond with valid JSON only."

// New 根据配置创建分段提示词改写使用的 LLM 提供者
// system 作为 system 消息随每次调用发送
func New(ctx context.Context, cfg *config.AIConfig, system string) (reeltools.LLMProvider, error) {
	switch cfg.Provider {
	case ProviderArkSDK:
		client, err := ark.NewClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create ark client: %w", err)
		}
		log.Debug().Str("model", client.Model()).Msg("使用 Ark SDK 改写分段提示词")
		return NewArkProvider(client, system), nil
	case ProviderGemini:
		return NewGenaiProvider(ctx, cfg, system)
	case ProviderOpenAI, ProviderAzure, ProviderArk, "":
		chatModel, err := component.NewChatModel(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create chat model: %w", err)
		}
		return NewEinoProvider(chatModel, system), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}
