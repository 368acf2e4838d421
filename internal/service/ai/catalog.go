package ai

import (
	"github.com/zhouzirui/hearthly/backend/internal/model/persona"
	"github.com/zhouzirui/hearthly/backend/internal/model/voice"
)

var languageNames = map[voice.Language]string{
	voice.English: "English",
	voice.Hindi:   "हिन्दी",
	voice.Punjabi: "ਪੰਜਾਬੀ",
}

// VoiceLookup resolves the synthesis voice used for a language.
type VoiceLookup func(lang voice.Language) string

// Catalog 汇总支持的语言、语气以及每种语言的音色，供前端展示。
// voices 为 nil 时不填写音色。
func Catalog(voices VoiceLookup) persona.Catalog {
	languages := make([]persona.LanguageOption, 0, len(languagePhrasing))
	for _, lang := range voice.SupportedLanguages() {
		option := persona.LanguageOption{
			Code: string(lang),
			Name: languageNames[lang],
		}
		if voices != nil {
			option.Voice = voices(lang)
		}
		languages = append(languages, option)
	}

	return persona.Catalog{
		Languages: languages,
		Personas:  persona.Seed(),
	}
}
