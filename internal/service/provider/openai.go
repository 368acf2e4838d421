// Package provider holds the plumbing shared by every OpenAI-compatible client:
// client construction with a bounded timeout, credential checks and error classification.
package provider

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/zhouzirui/hearthly/backend/internal/model/voice"
)

const defaultTimeout = 60 * time.Second

// OpenAIConfig 描述访问 OpenAI 兼容接口所需的参数。
type OpenAIConfig struct {
	APIKey  string
	BaseURL string // 为空时使用官方地址，测试中指向 httptest 服务
	Timeout time.Duration
	Checks  []FieldCheck
}

// NewOpenAIClient builds a go-openai client whose HTTP calls never outlive cfg.Timeout.
func NewOpenAIClient(cfg OpenAIConfig) *openai.Client {
	clientCfg := openai.DefaultConfig(strings.TrimSpace(cfg.APIKey))
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		clientCfg.BaseURL = base
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}
	if len(cfg.Checks) > 0 {
		clientCfg.HTTPClient = checkedDoer{next: clientCfg.HTTPClient, checks: cfg.Checks}
	}

	return openai.NewClientWithConfig(clientCfg)
}

// RequireKey fails with MissingCredential when key is blank.
func RequireKey(op, key string) error {
	if strings.TrimSpace(key) != "" {
		return nil
	}
	return voice.NewError(voice.KindMissingCredential, op, nil, "OPENAI_API_KEY is not set")
}

// Classify maps a provider call error onto the pipeline taxonomy.
// Errors that are already classified pass through untouched; errors that are neither
// HTTP status failures nor network failures get the fallback kind.
func Classify(op string, err error, fallback voice.Kind) error {
	if err == nil {
		return nil
	}

	var classified *voice.Error
	if errors.As(err, &classified) {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return voice.NewError(voice.KindProvider, op, err, "%v", err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return voice.NewError(voice.KindProvider, op, err, "%v", err)
	}

	if IsTransport(err) {
		return voice.NewError(voice.KindTransport, op, err, "%v", err)
	}

	return voice.NewError(fallback, op, err, "%v", err)
}

// IsTransport reports whether err happened while reaching the provider.
func IsTransport(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
