package voice

// AudioRequest 是 /process-audio 的请求体，一次管线调用的不可变输入。
type AudioRequest struct {
	Audio          string   `json:"audio"`    // base64 编码的容器音频 (WebM/Opus 等)
	Language       Language `json:"language"` // en, hi, pa
	GenZMode       bool     `json:"genz_mode"`
	SarcasticMode  bool     `json:"sarcastic_mode"`
	ShenaniganMode bool     `json:"shenanigan_mode"`
	SeductiveMode  bool     `json:"seductive_mode"`
}

// Flags returns the persona switches carried by the request.
func (r *AudioRequest) Flags() Flags {
	return Flags{
		GenZ:       r.GenZMode,
		Sarcastic:  r.SarcasticMode,
		Shenanigan: r.ShenaniganMode,
		Seductive:  r.SeductiveMode,
	}
}

// Flags are the four independent persona switches of a request.
type Flags struct {
	GenZ       bool
	Sarcastic  bool
	Shenanigan bool
	Seductive  bool
}

// Tone is the single tone block applied to a reply.
type Tone string

const (
	ToneCalm       Tone = "calm"
	ToneSarcastic  Tone = "sarcastic"
	ToneShenanigan Tone = "shenanigan"
	ToneSeductive  Tone = "seductive"
)

// Tones lists every tone in descending precedence, baseline last.
func Tones() []Tone {
	return []Tone{ToneSeductive, ToneShenanigan, ToneSarcastic, ToneCalm}
}

// Tone picks exactly one tone: seductive > shenanigan > sarcastic > calm.
// GenZ is an overlay and never influences the choice.
func (f Flags) Tone() Tone {
	switch {
	case f.Seductive:
		return ToneSeductive
	case f.Shenanigan:
		return ToneShenanigan
	case f.Sarcastic:
		return ToneSarcastic
	default:
		return ToneCalm
	}
}
