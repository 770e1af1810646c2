package speech

import "time"

// TTSResponse 语音合成结果，同时作为会话最新一段回复语音保存。
type TTSResponse struct {
	SessionID string    `json:"sessionId"`
	AudioData []byte    `json:"-"`
	Duration  int64     `json:"duration"` // milliseconds
	Format    string    `json:"format"`
	Emotion   string    `json:"emotion,omitempty"`
	RequestID string    `json:"requestId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ContentType returns the MIME type of the audio payload.
func (r TTSResponse) ContentType() string {
	switch r.Format {
	case "ogg_opus":
		return "audio/ogg"
	case "pcm":
		return "audio/L16"
	default:
		return "audio/mpeg"
	}
}
