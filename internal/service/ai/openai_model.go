package ai

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/sashabaranov/go-openai"

	"github.com/zhouzirui/hearthly/backend/internal/model/voice"
	"github.com/zhouzirui/hearthly/backend/internal/service/provider"
)

// DefaultOpenAIChatModel 默认的对话模型
const DefaultOpenAIChatModel = openai.GPT4oMini

// OpenAIChatModel adapts the go-openai chat completions API to eino's BaseChatModel.
type OpenAIChatModel struct {
	client *openai.Client
	apiKey string
	model  string
}

var _ model.BaseChatModel = (*OpenAIChatModel)(nil)

// NewOpenAIChatModel 创建 OpenAI 对话模型适配器。API Key 缺失时在调用时报错。
func NewOpenAIChatModel(cfg provider.OpenAIConfig, modelName string) *OpenAIChatModel {
	if strings.TrimSpace(modelName) == "" {
		modelName = DefaultOpenAIChatModel
	}
	cfg.Checks = append(cfg.Checks, provider.FieldCheck{
		Endpoint: "/chat/completions",
		Op:       "ai.generate",
		Field:    []any{"choices", 0, "message", "content"},
		Message:  "chat completion has no content",
	})
	return &OpenAIChatModel{
		client: provider.NewOpenAIClient(cfg),
		apiKey: cfg.APIKey,
		model:  modelName,
	}
}

// Generate 发送一次非流式对话请求并返回第一条候选。
func (m *OpenAIChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	const op = "ai.generate"

	if err := provider.RequireKey(op, m.apiKey); err != nil {
		return nil, err
	}

	options := model.GetCommonOptions(&model.Options{Model: &m.model}, opts...)

	req := openai.ChatCompletionRequest{
		Model:    m.model,
		Messages: toOpenAIMessages(input),
	}
	if options.Model != nil && *options.Model != "" {
		req.Model = *options.Model
	}
	if options.Temperature != nil {
		req.Temperature = *options.Temperature
	}
	if options.TopP != nil {
		req.TopP = *options.TopP
	}
	if options.MaxTokens != nil {
		req.MaxTokens = *options.MaxTokens
	}
	if len(options.Stop) > 0 {
		req.Stop = options.Stop
	}

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, provider.Classify(op, err, voice.KindMalformedResponse)
	}
	if len(resp.Choices) == 0 {
		return nil, voice.NewError(voice.KindMalformedResponse, op, nil, "chat completion has no choices")
	}

	choice := resp.Choices[0]
	return &schema.Message{
		Role:    schema.Assistant,
		Content: choice.Message.Content,
		ResponseMeta: &schema.ResponseMeta{
			FinishReason: string(choice.FinishReason),
			Usage: &schema.TokenUsage{
				PromptTokens:     resp.Usage.PromptTokens,
				CompletionTokens: resp.Usage.CompletionTokens,
				TotalTokens:      resp.Usage.TotalTokens,
			},
		},
	}, nil
}

// Stream 管线只需要完整回复，这里把 Generate 的结果包装成单帧流。
func (m *OpenAIChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func toOpenAIMessages(input []*schema.Message) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(input))
	for _, msg := range input {
		if msg == nil {
			continue
		}
		role := openai.ChatMessageRoleUser
		switch msg.Role {
		case schema.System:
			role = openai.ChatMessageRoleSystem
		case schema.Assistant:
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		})
	}
	return messages
}
