package speech

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	speechmodel "github.com/zhouzirui/hearthly/backend/internal/model/speech"
	"github.com/zhouzirui/hearthly/backend/internal/model/voice"
	"github.com/zhouzirui/hearthly/backend/internal/service/provider"
)

// 上传给 Whisper 的文件名，服务端依据扩展名判断容器格式
const uploadFileName = "audio.wav"

// Service 语音服务：Whisper 转写 + TTS 合成
type Service struct {
	config speechmodel.SpeechConfig
	client *openai.Client
	logger zerolog.Logger
}

// NewService 创建语音服务实例
func NewService(config speechmodel.SpeechConfig, logger zerolog.Logger) *Service {
	defaults := speechmodel.DefaultSpeechConfig()
	if strings.TrimSpace(config.TranscribeModel) == "" {
		config.TranscribeModel = defaults.TranscribeModel
	}
	if strings.TrimSpace(config.TTSModel) == "" {
		config.TTSModel = defaults.TTSModel
	}
	if strings.TrimSpace(config.TTSFormat) == "" {
		config.TTSFormat = defaults.TTSFormat
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}

	return &Service{
		config: config,
		client: provider.NewOpenAIClient(provider.OpenAIConfig{
			APIKey:  config.APIKey,
			BaseURL: config.BaseURL,
			Timeout: config.Timeout,
			Checks:  []provider.FieldCheck{{
				Endpoint: "/audio/transcriptions",
				Op:       "speech.transcribe",
				Field:    []any{"text"},
				Message:  "transcription response has no text",
			}},
		}),
		logger: logger.With().Str("component", "speech").Logger(),
	}
}

// Transcribe 语音转文字。wav 必须是已经规范化的 PCM WAV。
func (s *Service) Transcribe(ctx context.Context, wav []byte, lang voice.Language) (string, error) {
	const op = "speech.transcribe"

	if err := voice.ValidateLanguage(op, lang); err != nil {
		return "", err
	}
	if _, err := resolveCredentials(op, s.config); err != nil {
		return "", err
	}

	resp, err := s.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    s.config.TranscribeModel,
		FilePath: uploadFileName,
		Reader:   bytes.NewReader(wav),
		Language: string(lang),
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", provider.Classify(op, err, voice.KindMalformedResponse)
	}

	// 静音录音会得到 {"text":""}，原样返回
	text := resp.Text

	s.logger.Debug().
		Str("language", string(lang)).
		Int("audio_bytes", len(wav)).
		Int("transcript_chars", len(text)).
		Msg("transcription finished")

	return text, nil
}

// Synthesize 文字转语音，返回 MP3 字节。
func (s *Service) Synthesize(ctx context.Context, text string, lang voice.Language) ([]byte, error) {
	const op = "speech.synthesize"

	if err := voice.ValidateLanguage(op, lang); err != nil {
		return nil, err
	}
	selected := languageVoices[lang]
	if _, err := resolveCredentials(op, s.config); err != nil {
		return nil, err
	}

	raw, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.config.TTSModel),
		Input:          text,
		Voice:          selected,
		ResponseFormat: openai.SpeechResponseFormat(s.config.TTSFormat),
	})
	if err != nil {
		return nil, provider.Classify(op, err, voice.KindTransport)
	}
	defer raw.Close()

	audio, err := io.ReadAll(raw)
	if err != nil {
		return nil, voice.NewError(voice.KindTransport, op, err, "read synthesized audio: %v", err)
	}

	s.logger.Debug().
		Str("language", string(lang)).
		Str("voice", string(selected)).
		Int("audio_bytes", len(audio)).
		Msg("synthesis finished")

	return audio, nil
}
