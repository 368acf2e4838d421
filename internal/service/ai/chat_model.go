package ai

import (
	"context"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/hearthly/backend/internal/config"
	"github.com/zhouzirui/hearthly/backend/internal/model/voice"
)

// NewChatModel 按 LLM_PROVIDER 选择对话模型后端。
// Ark 凭证不完整时返回一个每次调用都报 MissingCredential 的模型，服务仍可启动。
func NewChatModel(ctx context.Context, aiCfg config.AIConfig, openAICfg config.OpenAIConfig) (model.BaseChatModel, error) {
	switch aiCfg.Provider {
	case config.ProviderArk:
		if !aiCfg.Ark.Enabled() {
			return unavailableModel{reason: "ARK_API_KEY + ARK_MODEL or ARK_ACCESS_KEY/ARK_SECRET_KEY are not set"}, nil
		}
		return aiCfg.Ark.NewChatModel(ctx, aiCfg.Temperature)
	default:
		return NewOpenAIChatModel(openAICfg.Client(), openAICfg.ChatModel), nil
	}
}

type unavailableModel struct {
	reason string
}

func (m unavailableModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	return nil, voice.NewError(voice.KindMissingCredential, "ai.generate", nil, "%s", m.reason)
}

func (m unavailableModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, voice.NewError(voice.KindMissingCredential, "ai.generate", nil, "%s", m.reason)
}
