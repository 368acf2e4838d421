package persona

// Persona 描述一种可选的回复语气，供前端渲染开关。
type Persona struct {
	ID    string `json:"id"` // calm, sarcastic, shenanigan, seductive, genz
	Name  string `json:"name"`
	Title string `json:"title"`

	// Flag 请求体中对应的开关字段，基线语气为空
	Flag string `json:"flag,omitempty"`
	// Precedence 数值越大越优先，overlay 为 0
	Precedence int `json:"precedence"`
	// Overlay 可叠加在任意语气之上
	Overlay bool `json:"overlay"`

	Description string `json:"description,omitempty"`
}

// LanguageOption 一种支持的对话语言及其合成音色。
type LanguageOption struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Voice string `json:"voice,omitempty"`
}

// Catalog is the payload of the persona catalog endpoint.
type Catalog struct {
	Languages []LanguageOption `json:"languages"`
	Personas  []Persona        `json:"personas"`
}

// Seed provides the tones Hearthly ships with, highest precedence first.
func Seed() []Persona {
	return []Persona{
		{
			ID:          "seductive",
			Name:        "Velvet",
			Title:       "撩人低语",
			Flag:        "seductive_mode",
			Precedence:  4,
			Description: "Playful, flirtatious and sultry. Wins over every other tone.",
		},
		{
			ID:          "shenanigan",
			Name:        "Sigh",
			Title:       "厌世毒舌",
			Flag:        "shenanigan_mode",
			Precedence:  3,
			Description: "Apathetic, melancholic and passive-aggressive.",
		},
		{
			ID:          "sarcastic",
			Name:        "Roast",
			Title:       "尖酸吐槽",
			Flag:        "sarcastic_mode",
			Precedence:  2,
			Description: "Savage sarcasm and brutal wit.",
		},
		{
			ID:          "calm",
			Name:        "Hearthly",
			Title:       "温暖倾听",
			Precedence:  1,
			Description: "Calm, warm and grounding. Used when no tone switch is on.",
		},
		{
			ID:          "genz",
			Name:        "No Cap",
			Title:       "Z 世代俚语",
			Flag:        "genz_mode",
			Overlay:     true,
			Description: "Gen Z slang layered on top of the selected tone.",
		},
	}
}
