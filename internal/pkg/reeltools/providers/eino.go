package providers

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// EinoProvider Eino 封装的 LLM 提供者（默认使用）
// 使用 ai/component 创建的 ChatModel，实现了 reeltools.LLMProvider 接口
type EinoProvider struct {
	chatModel model.BaseChatModel
	system    string
}

// NewEinoProvider 创建基于 Eino 的 LLM 提供者
//
// Args:
//   - chatModel: 通过 ai/component.NewChatModel 创建的 ChatModel 实例
//   - system: 可选的 system 消息，为空时只发送 user 消息
func NewEinoProvider(chatModel model.BaseChatModel, system string) *EinoProvider {
	return &EinoProvider{
		chatModel: chatModel,
		system:    system,
	}
}

// Generate 根据提示词生成文本
func (p *EinoProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if p.chatModel == nil {
		return "", fmt.Errorf("chatModel is required")
	}

	messages := make([]*schema.Message, 0, 2)
	if p.system != "" {
		messages = append(messages, schema.SystemMessage(p.system))
	}
	messages = append(messages, schema.UserMessage(prompt))

	response, err := p.chatModel.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}
	if response == nil || response.Content == "" {
		return "", fmt.Errorf("empty response from chat model")
	}

	return response.Content, nil
}
