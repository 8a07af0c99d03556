package providers

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"reelforge/internal/config"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GenaiProvider Google Gemini 提供者（google.golang.org/genai）
// 实现了 reeltools.LLMProvider 接口
type GenaiProvider struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

// NewGenaiProvider 创建 Gemini 提供者
func NewGenaiProvider(ctx context.Context, cfg *config.AIConfig, system string) (*GenaiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultGeminiModel
	}

	genCfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
	if system != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if cfg.Options.Temperature > 0 {
		genCfg.Temperature = genai.Ptr(float32(cfg.Options.Temperature))
	}
	if cfg.Options.TopP > 0 {
		genCfg.TopP = genai.Ptr(float32(cfg.Options.TopP))
	}
	if cfg.Options.MaxTokens > 0 {
		genCfg.MaxOutputTokens = int32(cfg.Options.MaxTokens)
	}

	return &GenaiProvider{
		client: client,
		model:  modelName,
		config: genCfg,
	}, nil
}

// Generate 根据提示词生成文本
func (p *GenaiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), p.config)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("empty response from gemini")
	}
	return text, nil
}
