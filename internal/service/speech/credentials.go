package speech

import (
	"strings"

	speechmodel "github.com/zhouzirui/hearthly/backend/internal/model/speech"
	"github.com/zhouzirui/hearthly/backend/internal/service/provider"
)

// resolveCredentials 返回规范化后的 API Key，缺失时给出 MissingCredential。
func resolveCredentials(op string, cfg speechmodel.SpeechConfig) (string, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if err := provider.RequireKey(op, key); err != nil {
		return "", err
	}
	return key, nil
}
