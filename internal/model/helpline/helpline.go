package helpline

// Helpline is an emergency resource shown to the user and offered by the companion in a crisis.
type Helpline struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Contact     string `json:"contact"`
	Description string `json:"description,omitempty"`
	Region      string `json:"region,omitempty"`
}

// Seed provides the default helplines.
func Seed() []Helpline {
	return []Helpline{
		{
			ID:          "988-lifeline",
			Name:        "National Suicide Prevention Lifeline",
			Contact:     "988",
			Description: "Free, confidential support 24/7 for people in distress.",
			Region:      "US",
		},
		{
			ID:          "crisis-text-line",
			Name:        "Crisis Text Line",
			Contact:     "Text HOME to 741741",
			Description: "Text with a trained crisis counselor.",
			Region:      "US",
		},
		{
			ID:          "trevor-project",
			Name:        "The Trevor Project (for LGBTQ youth)",
			Contact:     "1-866-488-7386",
			Description: "Crisis intervention and suicide prevention for LGBTQ young people.",
			Region:      "US",
		},
		{
			ID:          "emergency",
			Name:        "General Emergency",
			Contact:     "911",
			Description: "Call if you are in immediate danger.",
			Region:      "US",
		},
	}
}
