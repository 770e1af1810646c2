package speech

// SpeechConfig 语音合成服务配置
type SpeechConfig struct {
	// Volcengine 鉴权
	AppID       string `json:"appId"`
	AccessToken string `json:"accessToken"`
	APIKey      string `json:"apiKey,omitempty"` // 兼容旧配置
	Region      string `json:"region"`
	BaseURL     string `json:"baseUrl"` // TTS websocket 地址

	// TTS 配置
	TTSVoice    string  `json:"ttsVoice"`
	TTSSpeed    float32 `json:"ttsSpeed"`
	TTSVolume   float32 `json:"ttsVolume"`
	TTSLanguage string  `json:"ttsLanguage"`

	Timeout int `json:"timeout"` // seconds
}
