package voice

// AudioResponse 是管线唯一的对外产物。
type AudioResponse struct {
	Audio      string `json:"audio"`      // base64 编码的 MP3
	Transcript string `json:"transcript"` // 用户语音的识别文本，不是回复文本
}
