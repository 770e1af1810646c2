package mood

import (
	"math"
	"strings"
)

// Label 表示从用户话语中识别出的情绪状态。
type Label string

const (
	Neutral Label = "neutral"
	Happy   Label = "happy"
	Hopeful Label = "hopeful"
	Anxious Label = "anxious"
	Sad     Label = "sad"
	Angry   Label = "angry"
	Lonely  Label = "lonely"
	Crisis  Label = "crisis"
)

// Decision 给出情绪识别结果以及推荐强度（1~5）。
type Decision struct {
	Label Label   `json:"label"`
	Scale float32 `json:"scale"`
	Score int     `json:"score"`
}

// Crisis 表示话语中出现了需要优先提供求助资源的表达。
func (d Decision) Crisis() bool {
	return d.Label == Crisis
}

var keywordBuckets = map[Label][]string{
	Happy: {
		"happy", "glad", "great", "awesome", "amazing", "excited", "love", "fun", "thanks", "thank you",
		"grateful", "proud", "good day", "wonderful", "lol", "haha", "开心", "高兴", "快乐",
	},
	Hopeful: {
		"hope", "hopeful", "better", "improving", "progress", "looking forward", "trying", "getting there",
		"optimistic", "small win", "step by step", "希望", "好转",
	},
	Anxious: {
		"anxious", "anxiety", "nervous", "worried", "worry", "panic", "stressed", "stress", "overwhelmed",
		"scared", "afraid", "can't sleep", "cannot sleep", "exam", "deadline", "tense", "焦虑", "紧张", "害怕",
	},
	Sad: {
		"sad", "down", "depressed", "cry", "crying", "hurt", "upset", "empty", "hopeless", "tired of",
		"heartbroken", "miss", "grief", "lost", "难过", "伤心", "沮丧",
	},
	Angry: {
		"angry", "mad", "furious", "annoyed", "hate", "frustrated", "pissed", "unfair", "rage", "irritated",
		"生气", "愤怒", "烦",
	},
	Lonely: {
		"lonely", "alone", "no friends", "nobody", "no one understands", "isolated", "left out", "ignored",
		"孤单", "寂寞", "孤独",
	},
}

// crisisPhrases 命中任意一条即判定为危机，不参与打分比较。
var crisisPhrases = []string{
	"kill myself", "suicide", "suicidal", "end my life", "want to die", "hurt myself", "self harm",
	"self-harm", "no reason to live", "better off dead", "cut myself", "不想活", "自杀", "轻生",
}

// Detect 根据话语推断情绪标签与强度。
func Detect(text string) Decision {
	normalized := strings.TrimSpace(strings.ToLower(text))
	if normalized == "" {
		return Decision{Label: Neutral, Scale: 3}
	}

	for _, phrase := range crisisPhrases {
		if strings.Contains(normalized, phrase) {
			return Decision{Label: Crisis, Scale: 5, Score: 10}
		}
	}

	scores := make(map[Label]int)
	for label, keywords := range keywordBuckets {
		for _, word := range keywords {
			if strings.Contains(normalized, word) {
				scores[label] += 3
			}
		}
	}

	if exclamations := strings.Count(text, "!"); exclamations > 0 && scores[Happy] > 0 {
		scores[Happy] += exclamations
	}

	best, bestScore := Neutral, 0
	for _, label := range []Label{Anxious, Sad, Lonely, Angry, Hopeful, Happy} {
		if scores[label] > bestScore {
			best, bestScore = label, scores[label]
		}
	}

	if bestScore == 0 {
		return Decision{Label: Neutral, Scale: 3}
	}

	// 基础为2，强度随得分提升
	scale := 2 + float32(bestScore)/4
	if best == Hopeful {
		scale = float32(math.Min(3.5, float64(scale)))
	}
	if scale > 5 {
		scale = 5
	}

	return Decision{Label: best, Scale: scale, Score: bestScore}
}
