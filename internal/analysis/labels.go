package analysis

// EmotionLabels is the canonical 5-class label order. External probability
// vectors must be ordered to match it.
var EmotionLabels = []string{"happy", "neutral", "sad", "surprise", "yawning"}

const (
	idxHappy = iota
	idxNeutral
	idxSad
	idxSurprise
	idxYawning
)

func labelIndex(label string) int {
	for i, l := range EmotionLabels {
		if l == label {
			return i
		}
	}
	return -1
}
