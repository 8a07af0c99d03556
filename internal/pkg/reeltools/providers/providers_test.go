package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	. "github.com/smartystreets/goconvey/convey"

	"reelforge/internal/config"
)

// fakeChatModel 记录收到的消息并返回固定回复
type fakeChatModel struct {
	received []*schema.Message
	reply    *schema.Message
	err      error
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.received = input
	return f.reply, f.err
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

func TestEinoProvider_Generate(t *testing.T) {
	Convey("EinoProvider.Generate", t, func() {
		ctx := context.Background()

		Convey("带 system 消息时先发送 system 再发送 user", func() {
			fake := &fakeChatModel{reply: schema.AssistantMessage(`{"segments":[]}`, nil)}
			out, err := NewEinoProvider(fake, "you adapt prompts").Generate(ctx, "hello")
			So(err, ShouldBeNil)
			So(out, ShouldEqual, `{"segments":[]}`)
			So(fake.received, ShouldHaveLength, 2)
			So(fake.received[0].Role, ShouldEqual, schema.System)
			So(fake.received[1].Role, ShouldEqual, schema.User)
			So(fake.received[1].Content, ShouldEqual, "hello")
		})

		Convey("没有 system 时只发送 user", func() {
			fake := &fakeChatModel{reply: schema.AssistantMessage("ok", nil)}
			_, err := NewEinoProvider(fake, "").Generate(ctx, "hello")
			So(err, ShouldBeNil)
			So(fake.received, ShouldHaveLength, 1)
		})

		Convey("模型返回错误时包装错误", func() {
			fake := &fakeChatModel{err: errors.New("quota exceeded")}
			_, err := NewEinoProvider(fake, "").Generate(ctx, "hello")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "quota exceeded")
		})

		Convey("空回复视为错误", func() {
			fake := &fakeChatModel{reply: schema.AssistantMessage("", nil)}
			_, err := NewEinoProvider(fake, "").Generate(ctx, "hello")
			So(err, ShouldNotBeNil)
		})

		Convey("chatModel 为 nil 时返回错误", func() {
			_, err := NewEinoProvider(nil, "").Generate(ctx, "hello")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestNew(t *testing.T) {
	Convey("New 根据配置选择提供者", t, func() {
		ctx := context.Background()

		Convey("不支持的提供者返回错误", func() {
			_, err := New(ctx, &config.AIConfig{Provider: "llama"}, "")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "unsupported llm provider")
		})

		Convey("ark_sdk 缺少 API key 时返回错误", func() {
			_, err := New(ctx, &config.AIConfig{Provider: ProviderArkSDK}, "")
			So(err, ShouldNotBeNil)
		})

		Convey("gemini 缺少 API key 时返回错误", func() {
			_, err := New(ctx, &config.AIConfig{Provider: ProviderGemini}, "")
			So(err, ShouldNotBeNil)
		})

		Convey("ark_sdk 配置完整时返回 ArkProvider", func() {
			p, err := New(ctx, &config.AIConfig{Provider: ProviderArkSDK, APIKey: "k"}, "sys")
			So(err, ShouldBeNil)
			_, ok := p.(*ArkProvider)
			So(ok, ShouldBeTrue)
		})
	})
}
