package provider

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/zhouzirui/hearthly/backend/internal/model/voice"
)

// FieldCheck 要求某个接口的成功响应体在 Field 路径上带有字符串值。
// go-openai 会把缺失字段解码成空字符串，只有原始 JSON 能区分"缺失"和"为空"。
type FieldCheck struct {
	Endpoint string // URL path 后缀，如 "/audio/transcriptions"
	Op       string
	Field    []any // 对象键用 string，数组下标用 int
	Message  string
}

type checkedDoer struct {
	next   openai.HTTPDoer
	checks []FieldCheck
}

func (d checkedDoer) Do(req *http.Request) (*http.Response, error) {
	resp, err := d.next.Do(req)
	if err != nil || resp.StatusCode >= http.StatusBadRequest {
		return resp, err
	}

	check, ok := d.match(req)
	if !ok {
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, voice.NewError(voice.KindTransport, check.Op, err, "read response body: %v", err)
	}
	if !HasString(body, check.Field...) {
		return nil, voice.NewError(voice.KindMalformedResponse, check.Op, nil, "%s", check.Message)
	}

	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

func (d checkedDoer) match(req *http.Request) (FieldCheck, bool) {
	if req == nil || req.URL == nil {
		return FieldCheck{}, false
	}
	for _, check := range d.checks {
		if strings.HasSuffix(req.URL.Path, check.Endpoint) {
			return check, true
		}
	}
	return FieldCheck{}, false
}

// HasString reports whether body is JSON holding a string (possibly empty) at path.
func HasString(body []byte, path ...any) bool {
	var node any
	if err := json.Unmarshal(body, &node); err != nil {
		return false
	}

	for _, step := range path {
		switch key := step.(type) {
		case string:
			obj, ok := node.(map[string]any)
			if !ok {
				return false
			}
			if node, ok = obj[key]; !ok {
				return false
			}
		case int:
			arr, ok := node.([]any)
			if !ok || key < 0 || key >= len(arr) {
				return false
			}
			node = arr[key]
		default:
			return false
		}
	}

	_, ok := node.(string)
	return ok
}
