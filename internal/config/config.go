package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/kelseyhightower/envconfig"

	speechmodel "github.com/zhouzirui/hearthly/backend/internal/model/speech"
	"github.com/zhouzirui/hearthly/backend/internal/service/audio"
	"github.com/zhouzirui/hearthly/backend/internal/service/provider"
)

// 支持的对话模型后端
const (
	ProviderOpenAI = "openai"
	ProviderArk    = "ark"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server ServerConfig
	OpenAI OpenAIConfig
	AI     AIConfig
	Audio  AudioConfig
	Log    LogConfig
}

// Load 从环境变量加载配置。.env 由调用方负责加载。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	var openAI OpenAIConfig
	if err := envconfig.Process("", &openAI); err != nil {
		return nil, fmt.Errorf("failed to load openai config: %w", err)
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	var audioCfg AudioConfig
	if err := envconfig.Process("", &audioCfg); err != nil {
		return nil, fmt.Errorf("failed to load audio config: %w", err)
	}
	if audioCfg.MaxConcurrent < 1 {
		return nil, fmt.Errorf("invalid FFMPEG_MAX_CONCURRENT value %d: must be at least 1", audioCfg.MaxConcurrent)
	}

	var logCfg LogConfig
	if err := envconfig.Process("", &logCfg); err != nil {
		return nil, fmt.Errorf("failed to load log config: %w", err)
	}

	return &Config{
		Server: server,
		OpenAI: openAI,
		AI:     ai,
		Audio:  audioCfg,
		Log:    logCfg,
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Port           string        `envconfig:"PORT" default:"8080"`
	MaxBodyBytes   int64         `envconfig:"SERVER_MAX_BODY_BYTES" default:"26214400"` // 25 MiB
	RequestTimeout time.Duration `envconfig:"SERVER_REQUEST_TIMEOUT" default:"5m"`

	Addr string `ignored:"true"`
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	var cfg ServerConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("failed to load server config: %w", err)
	}
	if cfg.MaxBodyBytes <= 0 {
		return ServerConfig{}, fmt.Errorf("invalid SERVER_MAX_BODY_BYTES value %d", cfg.MaxBodyBytes)
	}

	port := strings.TrimSpace(cfg.Port)
	if port == "" {
		port = "8080"
	}

	switch {
	case strings.Contains(port, ":"):
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		cfg.Addr = port
	case strings.Contains(port, " "):
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	default:
		cfg.Addr = ":" + port
	}

	return cfg, nil
}

// OpenAIConfig 描述 OpenAI 兼容接口配置。API Key 允许为空，缺失时每次调用返回 MissingCredential。
type OpenAIConfig struct {
	APIKey          string        `envconfig:"OPENAI_API_KEY"`
	BaseURL         string        `envconfig:"OPENAI_BASE_URL"`
	Timeout         time.Duration `envconfig:"OPENAI_TIMEOUT" default:"60s"`
	TranscribeModel string        `envconfig:"OPENAI_TRANSCRIBE_MODEL" default:"whisper-1"`
	ChatModel       string        `envconfig:"OPENAI_CHAT_MODEL" default:"gpt-4o-mini"`
	TTSModel        string        `envconfig:"OPENAI_TTS_MODEL" default:"tts-1"`
}

// Client returns the connection settings shared by every OpenAI client.
func (c OpenAIConfig) Client() provider.OpenAIConfig {
	return provider.OpenAIConfig{
		APIKey:  c.APIKey,
		BaseURL: c.BaseURL,
		Timeout: c.Timeout,
	}
}

// Speech returns the speech service configuration.
func (c OpenAIConfig) Speech() speechmodel.SpeechConfig {
	cfg := speechmodel.DefaultSpeechConfig()
	cfg.APIKey = c.APIKey
	cfg.BaseURL = c.BaseURL
	if c.TranscribeModel != "" {
		cfg.TranscribeModel = c.TranscribeModel
	}
	if c.TTSModel != "" {
		cfg.TTSModel = c.TTSModel
	}
	if c.Timeout > 0 {
		cfg.Timeout = c.Timeout
	}
	return cfg
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider    string  `envconfig:"LLM_PROVIDER" default:"openai"`
	Temperature float32 `envconfig:"LLM_TEMPERATURE" default:"0.7"`

	Ark ArkConfig `ignored:"true"`
}

// ArkConfig 火山方舟模型配置，仅在 LLM_PROVIDER=ark 时使用。
type ArkConfig struct {
	APIKey    string   `envconfig:"ARK_API_KEY"`
	AccessKey string   `envconfig:"ARK_ACCESS_KEY"`
	SecretKey string   `envconfig:"ARK_SECRET_KEY"`
	Model     string   `envconfig:"ARK_MODEL"`
	BaseURL   string   `envconfig:"ARK_BASE_URL" default:"https://ark.cn-beijing.volces.com/api/v3"`
	Region    string   `envconfig:"ARK_REGION" default:"cn-beijing"`
	TopP      *float32 `envconfig:"ARK_TOP_P"`
	MaxTokens *int     `envconfig:"ARK_MAX_TOKENS"`
}

func loadAIConfig() (AIConfig, error) {
	var cfg AIConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return AIConfig{}, fmt.Errorf("failed to load ai config: %w", err)
	}
	if err := envconfig.Process("", &cfg.Ark); err != nil {
		return AIConfig{}, fmt.Errorf("failed to load ark config: %w", err)
	}

	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch cfg.Provider {
	case ProviderOpenAI, ProviderArk:
	default:
		return AIConfig{}, fmt.Errorf("invalid LLM_PROVIDER value %q: want %s or %s", cfg.Provider, ProviderOpenAI, ProviderArk)
	}

	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		return AIConfig{}, fmt.Errorf("invalid LLM_TEMPERATURE value %v: must be within [0, 2]", cfg.Temperature)
	}

	return cfg, nil
}

// Enabled 表示是否提供了必需的密钥。
func (c ArkConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个方舟模型实例。
func (c ArkConfig) NewChatModel(ctx context.Context, temperature float32) (model.BaseChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + ARK_MODEL 或 AK/SK 组合")
	}

	cm, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: &temperature,
		TopP:        c.TopP,
	})
	if err != nil {
		return nil, err
	}
	return cm, nil
}

// AudioConfig 描述 ffmpeg 调用方式。
type AudioConfig struct {
	FFmpegPath    string        `envconfig:"FFMPEG_PATH" default:"ffmpeg"`
	Timeout       time.Duration `envconfig:"FFMPEG_TIMEOUT" default:"60s"`
	MaxConcurrent int           `envconfig:"FFMPEG_MAX_CONCURRENT" default:"4"`
	ScratchDir    string        `envconfig:"SCRATCH_DIR"` // 为空时使用系统临时目录
}

// Transcoder returns the transcoder configuration.
func (c AudioConfig) Transcoder() audio.Config {
	cfg := audio.DefaultConfig()
	cfg.FFmpegPath = c.FFmpegPath
	cfg.ScratchDir = c.ScratchDir
	cfg.Timeout = c.Timeout
	cfg.MaxConcurrent = c.MaxConcurrent
	return cfg
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Pretty bool   `envconfig:"LOG_PRETTY" default:"false"`
}
