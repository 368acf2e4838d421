package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/hearthly/backend/internal/config"
	"github.com/zhouzirui/hearthly/backend/internal/model/voice"
	"github.com/zhouzirui/hearthly/backend/internal/service/provider"
)

type recordingModel struct {
	reply    *schema.Message
	err      error
	messages []*schema.Message
	options  *model.Options
}

func (m *recordingModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.messages = input
	m.options = model.GetCommonOptions(&model.Options{}, opts...)
	return m.reply, m.err
}

func (m *recordingModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not used")
}

func TestGenerateBuildsSystemAndUserTurns(t *testing.T) {
	fake := &recordingModel{reply: schema.AssistantMessage("I hear you.", nil)}
	svc := NewService(fake, 0, zerolog.Nop())

	reply, err := svc.Generate(context.Background(), "I feel {stuck}", "be kind")
	require.NoError(t, err)
	assert.Equal(t, "I hear you.", reply)

	require.Len(t, fake.messages, 2)
	assert.Equal(t, schema.System, fake.messages[0].Role)
	assert.Equal(t, "be kind", fake.messages[0].Content)
	assert.Equal(t, schema.User, fake.messages[1].Role)
	assert.Equal(t, "I feel {stuck}", fake.messages[1].Content)

	require.NotNil(t, fake.options.Temperature)
	assert.InDelta(t, 0.7, *fake.options.Temperature, 1e-6)
}

func TestGenerateKeepsEmptyReply(t *testing.T) {
	svc := NewService(&recordingModel{reply: schema.AssistantMessage("", nil)}, 0.7, zerolog.Nop())

	reply, err := svc.Generate(context.Background(), "", "sys")
	require.NoError(t, err)
	assert.Equal(t, "", reply)
}

func TestGenerateClassifiesFailures(t *testing.T) {
	svc := NewService(&recordingModel{}, 0.7, zerolog.Nop())
	_, err := svc.Generate(context.Background(), "hi", "sys")
	assert.Equal(t, voice.KindMalformedResponse, voice.KindOf(err))

	svc = NewService(&recordingModel{err: errors.New("ark: quota exceeded")}, 0.7, zerolog.Nop())
	_, err = svc.Generate(context.Background(), "hi", "sys")
	assert.Equal(t, voice.KindProvider, voice.KindOf(err))

	svc = NewService(&recordingModel{err: context.DeadlineExceeded}, 0.7, zerolog.Nop())
	_, err = svc.Generate(context.Background(), "hi", "sys")
	assert.Equal(t, voice.KindTransport, voice.KindOf(err))
}

type chatServer struct {
	hits   atomic.Int32
	status int
	body   string

	mu      sync.Mutex
	auth    string
	request map[string]any
}

func (s *chatServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.hits.Add(1)
	raw, _ := io.ReadAll(r.Body)
	var req map[string]any
	_ = json.Unmarshal(raw, &req)

	s.mu.Lock()
	s.auth = r.Header.Get("Authorization")
	s.request = req
	s.mu.Unlock()

	if r.URL.Path != "/v1/chat/completions" {
		http.NotFound(w, r)
		return
	}
	if s.status != 0 {
		w.WriteHeader(s.status)
		_, _ = io.WriteString(w, `{"error":{"message":"rate limited","type":"requests"}}`)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, s.body)
}

func (s *chatServer) lastRequest() (string, map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auth, s.request
}

func newAdapter(url, key string) *OpenAIChatModel {
	return NewOpenAIChatModel(provider.OpenAIConfig{APIKey: key, BaseURL: url + "/v1"}, "")
}

func TestOpenAIChatModelRoundTrip(t *testing.T) {
	fake := &chatServer{body: `{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"You're not alone."},"finish_reason":"stop"}],"usage":{"prompt_tokens":12,"completion_tokens":4,"total_tokens":16}}`}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	svc := NewService(newAdapter(srv.URL, "sk-test"), 0.7, zerolog.Nop())
	reply, err := svc.Generate(context.Background(), "I'm lonely", "instructions")
	require.NoError(t, err)
	assert.Equal(t, "You're not alone.", reply)

	auth, req := fake.lastRequest()
	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, "gpt-4o-mini", req["model"])
	assert.InDelta(t, 0.7, req["temperature"], 1e-6)

	messages, ok := req["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "instructions", messages[0].(map[string]any)["content"])
	assert.Equal(t, "user", messages[1].(map[string]any)["role"])
	assert.Equal(t, "I'm lonely", messages[1].(map[string]any)["content"])
}

func TestOpenAIChatModelErrors(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		fake := &chatServer{}
		srv := httptest.NewServer(fake)
		defer srv.Close()

		_, err := newAdapter(srv.URL, "").Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
		assert.Equal(t, voice.KindMissingCredential, voice.KindOf(err))
		assert.Equal(t, int32(0), fake.hits.Load())
	})

	t.Run("provider status", func(t *testing.T) {
		srv := httptest.NewServer(&chatServer{status: http.StatusTooManyRequests})
		defer srv.Close()

		_, err := newAdapter(srv.URL, "sk").Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
		assert.Equal(t, voice.KindProvider, voice.KindOf(err))
	})

	t.Run("no choices", func(t *testing.T) {
		srv := httptest.NewServer(&chatServer{body: `{"id":"c1","choices":[]}`})
		defer srv.Close()

		_, err := newAdapter(srv.URL, "sk").Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
		assert.Equal(t, voice.KindMalformedResponse, voice.KindOf(err))
	})

	t.Run("missing content", func(t *testing.T) {
		srv := httptest.NewServer(&chatServer{body: `{"id":"c1","choices":[{"index":0,"message":{"role":"assistant"},"finish_reason":"stop"}]}`})
		defer srv.Close()

		_, err := newAdapter(srv.URL, "sk").Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
		assert.Equal(t, voice.KindMalformedResponse, voice.KindOf(err))
	})

	t.Run("garbage body", func(t *testing.T) {
		srv := httptest.NewServer(&chatServer{body: `not json`})
		defer srv.Close()

		_, err := newAdapter(srv.URL, "sk").Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
		assert.Equal(t, voice.KindMalformedResponse, voice.KindOf(err))
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := newAdapter(url, "sk").Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
		assert.Equal(t, voice.KindTransport, voice.KindOf(err))
	})
}

func TestOpenAIChatModelAcceptsEmptyContent(t *testing.T) {
	srv := httptest.NewServer(&chatServer{body: `{"id":"c1","choices":[{"index":0,"message":{"role":"assistant","content":""},"finish_reason":"stop"}]}`})
	defer srv.Close()

	msg, err := newAdapter(srv.URL, "sk").Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, "", msg.Content)
	assert.Equal(t, "stop", msg.ResponseMeta.FinishReason)
}

func TestOpenAIChatModelStreamWrapsGenerate(t *testing.T) {
	srv := httptest.NewServer(&chatServer{body: `{"choices":[{"index":0,"message":{"role":"assistant","content":"ok"}}]}`})
	defer srv.Close()

	stream, err := newAdapter(srv.URL, "sk").Stream(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	require.NoError(t, err)
	defer stream.Close()

	msg, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "ok", msg.Content)

	_, err = stream.Recv()
	assert.ErrorIs(t, err, io.EOF)
}

func TestNewChatModelSelectsBackend(t *testing.T) {
	cm, err := NewChatModel(context.Background(), config.AIConfig{Provider: config.ProviderOpenAI}, config.OpenAIConfig{ChatModel: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIChatModel{}, cm)

	cm, err = NewChatModel(context.Background(), config.AIConfig{Provider: config.ProviderArk}, config.OpenAIConfig{})
	require.NoError(t, err)
	_, err = cm.Generate(context.Background(), nil)
	assert.Equal(t, voice.KindMissingCredential, voice.KindOf(err))
}
