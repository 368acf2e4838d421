package speech

import (
	"github.com/sashabaranov/go-openai"

	"github.com/zhouzirui/hearthly/backend/internal/model/voice"
)

// languageVoices 每种语言固定一个 TTS 音色。
var languageVoices = map[voice.Language]openai.SpeechVoice{
	voice.English: openai.VoiceAlloy,
	voice.Hindi:   openai.VoiceNova,
	voice.Punjabi: openai.VoiceNova,
}

// VoiceFor returns the synthesis voice for lang.
func VoiceFor(lang voice.Language) (openai.SpeechVoice, error) {
	if err := voice.ValidateLanguage("speech.voice", lang); err != nil {
		return "", err
	}
	return languageVoices[lang], nil
}
