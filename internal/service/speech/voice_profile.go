package speech

import (
	"strings"

	"github.com/zhouzirui/aura/backend/internal/analysis/mood"
)

// 回复语音的情绪：安抚低落与焦虑，分享喜悦，冷静回应愤怒。
var replyEmotion = map[mood.Label]string{
	mood.Happy:   "happy",
	mood.Hopeful: "happy",
	mood.Sad:     "comfort",
	mood.Lonely:  "comfort",
	mood.Anxious: "comfort",
	mood.Crisis:  "comfort",
	mood.Angry:   "magnetic",
}

// EmotionParameters 根据音色与情绪识别结果给出 TTS 情绪参数。
func EmotionParameters(voice string, decision mood.Decision) (label string, scale float32, ok bool) {
	if decision.Label == mood.Neutral || decision.Score <= 0 {
		return "", 0, false
	}
	if !supportsEmotion(voice) {
		return "", 0, false
	}

	label, ok = replyEmotion[decision.Label]
	if !ok {
		return "", 0, false
	}

	scale = decision.Scale
	switch {
	case scale <= 0:
		scale = 3
	case scale < 1:
		scale = 1
	case scale > 5:
		scale = 5
	}
	return label, scale, true
}

func supportsEmotion(voice string) bool {
	normalized := strings.ToLower(strings.TrimSpace(voice))
	return normalized != "" && strings.Contains(normalized, "_emo")
}
