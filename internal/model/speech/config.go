package speech

import "time"

// SpeechConfig 语音服务配置 (OpenAI Whisper + TTS)
type SpeechConfig struct {
	APIKey  string `json:"-"`       // OPENAI_API_KEY，缺失时每次调用返回 MissingCredential
	BaseURL string `json:"baseUrl"` // OpenAI 兼容接口地址

	// ASR 配置
	TranscribeModel string `json:"transcribeModel"`

	// TTS 配置
	TTSModel  string `json:"ttsModel"`
	TTSFormat string `json:"ttsFormat"` // mp3

	// 通用配置
	Timeout time.Duration `json:"timeout"`
}

// DefaultSpeechConfig returns the models the service was built around.
func DefaultSpeechConfig() SpeechConfig {
	return SpeechConfig{
		TranscribeModel: "whisper-1",
		TTSModel:        "tts-1",
		TTSFormat:       "mp3",
		Timeout:         60 * time.Second,
	}
}
