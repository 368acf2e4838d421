package ai

import (
	"context"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/hearthly/backend/internal/model/voice"
	"github.com/zhouzirui/hearthly/backend/internal/service/provider"
)

// DefaultTemperature 回复生成的固定采样温度
const DefaultTemperature float32 = 0.7

// Service encapsulates persona-conditioned reply generation.
type Service struct {
	chatModel   model.BaseChatModel
	template    prompt.ChatTemplate
	temperature float32
	logger      zerolog.Logger
}

// NewService creates a new AI service instance.
func NewService(chatModel model.BaseChatModel, temperature float32, logger zerolog.Logger) *Service {
	if temperature <= 0 {
		temperature = DefaultTemperature
	}

	return &Service{
		chatModel: chatModel,
		template: prompt.FromMessages(
			schema.FString,
			schema.SystemMessage("{system}"),
			schema.UserMessage("{query}"),
		),
		temperature: temperature,
		logger:      logger.With().Str("component", "ai").Logger(),
	}
}

// Generate 以人设指令为 system、转写文本为 user 生成一条回复。
func (s *Service) Generate(ctx context.Context, transcript, instructions string) (string, error) {
	const op = "ai.generate"

	messages, err := s.template.Format(ctx, map[string]any{
		"system": instructions,
		"query":  transcript,
	})
	if err != nil {
		return "", voice.NewError(voice.KindUnknown, op, err, "format chat template: %v", err)
	}

	resp, err := s.chatModel.Generate(ctx, messages, model.WithTemperature(s.temperature))
	if err != nil {
		return "", provider.Classify(op, err, voice.KindProvider)
	}
	if resp == nil {
		return "", voice.NewError(voice.KindMalformedResponse, op, nil, "chat model returned no message")
	}

	s.logger.Debug().
		Int("transcript_chars", len(transcript)).
		Int("reply_chars", len(resp.Content)).
		Msg("reply generated")

	return resp.Content, nil
}
