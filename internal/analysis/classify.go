package analysis

import "math"

// Scorer turns one frame of blendshapes into an unnormalized score per
// emotion class, in EmotionLabels order. It is a strategy so a learned
// classifier can replace the heuristic without touching callers.
type Scorer interface {
	Score(f *LandmarkFrame) []float64
}

// BlendshapeScorer is the hand-tuned heuristic classifier: weighted linear
// combinations of action units, a fixed neutral baseline, and multiplicative
// suppression of the expressive classes while yawning.
type BlendshapeScorer struct{}

const (
	yawnJawOpenThreshold = 0.7
	neutralBaseline      = 0.15
	yawnSuppression      = 0.1
)

func (BlendshapeScorer) Score(f *LandmarkFrame) []float64 {
	smile := f.shapeAvg("mouthSmileLeft", "mouthSmileRight")
	browDown := f.shapeAvg("browDownLeft", "browDownRight")
	browUp := f.shapeAvg("browOuterUpLeft", "browOuterUpRight")
	jawOpen := f.shape("jawOpen")
	frown := f.shapeAvg("mouthFrownLeft", "mouthFrownRight")

	happy := smile*0.8 + browUp*0.1
	sad := frown*0.6 + browDown*0.2
	surprise := browUp*0.5 + jawOpen*0.4

	yawn := 0.0
	if jawOpen > yawnJawOpenThreshold {
		yawn = jawOpen
	}

	scores := []float64{happy, neutralBaseline, sad, surprise, yawn}

	// A wide-open jaw swamps the other action units; make yawning dominant.
	if yawn > yawnJawOpenThreshold {
		scores[idxHappy] *= yawnSuppression
		scores[idxSad] *= yawnSuppression
		scores[idxSurprise] *= yawnSuppression
	}
	return scores
}

// softmax converts raw scores to probabilities, subtracting the max before
// exponentiating for numerical stability.
func softmax(scores []float64) []float64 {
	max := scores[0]
	for _, s := range scores[1:] {
		if s > max {
			max = s
		}
	}
	exps := make([]float64, len(scores))
	sum := 0.0
	for i, s := range scores {
		exps[i] = math.Exp(s - max)
		sum += exps[i]
	}
	for i := range exps {
		exps[i] /= sum
	}
	return exps
}

func argmax(probs []float64) int {
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return best
}

func maxProb(probs []float64) float64 {
	if len(probs) == 0 {
		return 0
	}
	return probs[argmax(probs)]
}
