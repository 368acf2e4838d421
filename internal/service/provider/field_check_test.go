package provider

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/hearthly/backend/internal/model/voice"
)

func TestHasString(t *testing.T) {
	cases := []struct {
		name string
		body string
		path []any
		want bool
	}{
		{name: "empty string counts", body: `{"text":""}`, path: []any{"text"}, want: true},
		{name: "missing key", body: `{}`, path: []any{"text"}, want: false},
		{name: "null", body: `{"text":null}`, path: []any{"text"}, want: false},
		{name: "number", body: `{"text":3}`, path: []any{"text"}, want: false},
		{name: "not json", body: `oops`, path: []any{"text"}, want: false},
		{name: "nested", body: `{"choices":[{"message":{"content":""}}]}`, path: []any{"choices", 0, "message", "content"}, want: true},
		{name: "no choices", body: `{"choices":[]}`, path: []any{"choices", 0, "message", "content"}, want: false},
		{name: "choices not array", body: `{"choices":{}}`, path: []any{"choices", 0}, want: false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, HasString([]byte(tc.body), tc.path...), tc.name)
	}
}

func newCheckedServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckedClientKeepsEmptyField(t *testing.T) {
	srv := newCheckedServer(t, `{"choices":[{"index":0,"message":{"role":"assistant","content":""}}]}`)
	client := NewOpenAIClient(OpenAIConfig{
		APIKey:  "sk",
		BaseURL: srv.URL + "/v1",
		Checks:  []FieldCheck{{
			Endpoint: "/chat/completions",
			Op:       "ai.generate",
			Field:    []any{"choices", 0, "message", "content"},
			Message:  "no content",
		}},
	})

	resp, err := client.CreateChatCompletion(context.Background(), openai.ChatCompletionRequest{Model: "m"})
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "", resp.Choices[0].Message.Content)
}

func TestCheckedClientRejectsMissingField(t *testing.T) {
	srv := newCheckedServer(t, `{"choices":[{"index":0,"message":{"role":"assistant"}}]}`)
	client := NewOpenAIClient(OpenAIConfig{
		APIKey:  "sk",
		BaseURL: srv.URL + "/v1",
		Checks:  []FieldCheck{{
			Endpoint: "/chat/completions",
			Op:       "ai.generate",
			Field:    []any{"choices", 0, "message", "content"},
			Message:  "no content",
		}},
	})

	_, err := client.CreateChatCompletion(context.Background(), openai.ChatCompletionRequest{Model: "m"})
	require.Error(t, err)
	classified := Classify("ai.generate", err, voice.KindProvider)
	assert.Equal(t, voice.KindMalformedResponse, voice.KindOf(classified))
	assert.Contains(t, classified.Error(), "no content")
}

func TestCheckedClientIgnoresOtherEndpoints(t *testing.T) {
	srv := newCheckedServer(t, `{"object":"list","data":[]}`)
	client := NewOpenAIClient(OpenAIConfig{
		APIKey:  "sk",
		BaseURL: srv.URL + "/v1",
		Checks:  []FieldCheck{{Endpoint: "/audio/transcriptions", Op: "x", Field: []any{"text"}, Message: "no text"}},
	})

	_, err := client.ListModels(context.Background())
	assert.NoError(t, err)
}
