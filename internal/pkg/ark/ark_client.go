package ark

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/volcengine/volcengine-go-sdk/service/arkruntime"
	"github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"

	"reelforge/internal/config"
)

const (
	defaultBaseURL = "https://ark.cn-beijing.volces.com/api/v3"
	defaultModel   = "doubao-seed-1-6-flash-250615"
)

// Client 火山引擎 Ark 文本生成客户端（官方 volcengine-go-sdk）
type Client struct {
	client      *arkruntime.Client
	model       string
	maxTokens   int
	temperature float32
	topP        float32
}

// NewClient 创建 Ark 客户端
func NewClient(cfg *config.AIConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Ark API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultModel
	}

	c := &Client{
		client:      arkruntime.NewClientWithApiKey(cfg.APIKey, arkruntime.WithBaseUrl(baseURL)),
		model:       modelName,
		maxTokens:   8 * 1024,
		temperature: 0.7,
	}
	if cfg.Options.MaxTokens > 0 {
		c.maxTokens = cfg.Options.MaxTokens
	}
	if cfg.Options.Temperature > 0 {
		c.temperature = float32(cfg.Options.Temperature)
	}
	if cfg.Options.TopP > 0 {
		c.topP = float32(cfg.Options.TopP)
	}
	return c, nil
}

// Model 返回使用的模型名
func (c *Client) Model() string {
	return c.model
}

// Complete 发送 system + user 消息并返回第一条回复
// system 为空时只发送 user 消息
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	messages := make([]*model.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, textMessage("system", system))
	}
	messages = append(messages, textMessage("user", user))

	req := &model.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}
	if c.topP > 0 {
		req.TopP = c.topP
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("model", c.model).Msg("failed to call Ark ChatCompletion API")
		return "", fmt.Errorf("Ark API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	msg := resp.Choices[0].Message
	if msg.Content == nil || msg.Content.StringValue == nil || *msg.Content.StringValue == "" {
		return "", fmt.Errorf("empty response from Ark")
	}

	log.Debug().
		Str("model", c.model).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Msg("Ark 调用完成")
	return *msg.Content.StringValue, nil
}

func textMessage(role, content string) *model.ChatCompletionMessage {
	return &model.ChatCompletionMessage{
		Role:    role,
		Content: &model.ChatCompletionMessageContent{StringValue: &content},
	}
}
