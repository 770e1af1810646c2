package speech

// TTSRequest 语音合成请求
type TTSRequest struct {
	SessionID    string  `json:"sessionId"`
	Text         string  `json:"text"`
	Voice        string  `json:"voice"`
	Speed        float32 `json:"speed"`  // 0.5-2.0
	Volume       float32 `json:"volume"` // 0.0-1.0
	Format       string  `json:"format"` // mp3, ogg_opus, pcm
	Language     string  `json:"language"`
	Emotion      string  `json:"emotion,omitempty"`
	EmotionScale float32 `json:"emotionScale,omitempty"` // 1-5
}
