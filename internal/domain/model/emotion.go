package model

// Sentiment summarizes the polarity of the recent conversation.
type Sentiment struct {
	Score       float64
	Comparative float64
	Type        string // "positive", "negative" or "neutral"
}

// EmotionalSnapshot is the data handed to the emotional intelligence slot.
type EmotionalSnapshot struct {
	Emotions  map[string]float64
	Sentiment Sentiment
}

// SampleEmotionalSnapshot returns the static sample data the panel shows
// until a real scorer is wired in.
func SampleEmotionalSnapshot() EmotionalSnapshot {
	return EmotionalSnapshot{
		Emotions: map[string]float64{
			"joy":      0.2,
			"surprise": 0.1,
			"anger":    0.05,
			"sadness":  0.05,
		},
		Sentiment: Sentiment{Score: 0.3, Comparative: 0.4, Type: "positive"},
	}
}

// CoreIntelligence holds the fixed capacity gauges of the core card.
type CoreIntelligence struct {
	IntelligenceCapacity int
	LearningModule       int
}

// DefaultCoreIntelligence returns the gauge values the panel displays.
func DefaultCoreIntelligence() CoreIntelligence {
	return CoreIntelligence{IntelligenceCapacity: 87, LearningModule: 64}
}
