package analysis

import (
	"fmt"
	"math"
	"strings"
	"time"
)

type scenarioWeights struct {
	positivity     float64
	steadiness     float64
	expressiveness float64
}

// Per-scenario weighting of the three composite scores; each triple sums
// to 1.0. Unrecognized scenario ids use the general weighting.
var unifiedWeights = map[string]scenarioWeights{
	"interview": {positivity: 0.3, steadiness: 0.5, expressiveness: 0.2},
	"pitch":     {positivity: 0.5, steadiness: 0.2, expressiveness: 0.3},
	"academic":  {positivity: 0.1, steadiness: 0.6, expressiveness: 0.3},
	"general":   {positivity: 0.4, steadiness: 0.4, expressiveness: 0.2},
}

// GenerateUnifiedReport combines the backend and detailed reports into the
// consumer-facing feedback record: one weighted overall score, fixed-order
// key insights, and at most three prioritized action items.
func GenerateUnifiedReport(backend *BackendReport, detailed DetailedReport, selectedGoals []string, scenarioID string) UnifiedFeedbackData {
	positivity := backend.Scores.Positivity
	steadiness := backend.Scores.Steadiness
	expressiveness := backend.Scores.Expressiveness

	w, ok := unifiedWeights[scenarioID]
	if !ok {
		w = unifiedWeights["general"]
	}
	overall := int(math.Round(
		float64(positivity)*w.positivity +
			float64(steadiness)*w.steadiness +
			float64(expressiveness)*w.expressiveness))

	keyInsights := []string{
		fmt.Sprintf("Your scenario-weighted performance score was %d%%.", overall),
		fmt.Sprintf("Your primary detected emotion was '%s' with %d%% classifier confidence.",
			backend.Insights.DominantEmotion, int(math.Round(backend.Aggregates.MeanConfidence*100))),
		fmt.Sprintf("You used %d affirmative head nods during the session.", detailed.NodCount),
		fmt.Sprintf("Your positivity score was %d%%, reflecting your use of positive expressions like smiling.", positivity),
	}
	if detailed.YawnCount > 0 {
		yawnText := fmt.Sprintf("%d yawns", detailed.YawnCount)
		if detailed.YawnCount == 1 {
			yawnText = "1 yawn"
		}
		keyInsights = append(keyInsights, fmt.Sprintf("The session recorded %s, which can signal fatigue.", yawnText))
	}

	var triggered []ActionItem
	if steadiness < 60 {
		triggered = append(triggered, ActionItem{
			Priority: "high",
			Task:     "Practice maintaining a composed expression under pressure. Try recording just your opening statement while focusing on relaxing your brow and jaw.",
		})
	}
	if gapsMention(backend.Insights.Gaps, "anger") {
		triggered = append(triggered, ActionItem{
			Priority: "high",
			Task:     "Identify moments of tension. Watch the key moments where tense expressions were detected and practice delivering those lines with a more neutral tone.",
		})
	}
	if positivity < 50 {
		triggered = append(triggered, ActionItem{
			Priority: "medium",
			Task:     "Incorporate more positive expressions. Practice smiling briefly at the beginning and end of your talk to build better rapport.",
		})
	}
	if expressiveness < 65 {
		triggered = append(triggered, ActionItem{
			Priority: "medium",
			Task:     "Increase your facial expressiveness. Try practicing in front of a mirror and exaggerating your expressions to match your key points.",
		})
	}
	if detailed.GazePercent > 0 && detailed.GazePercent < 70 {
		triggered = append(triggered, ActionItem{
			Priority: "medium",
			Task:     "Improve your camera eye contact. Place a sticky note next to your webcam as a reminder to look at the lens, not the screen.",
		})
	}

	actionItems := triggered
	if len(triggered) == 0 {
		actionItems = []ActionItem{{
			Priority: "medium",
			Task:     "Excellent session! For your next practice, try a different scenario to challenge yourself in a new context.",
		}}
	}
	actionItems = append(actionItems, ActionItem{
		Priority: "low",
		Task:     "Review your key moments to see which expressions were most impactful and memorable.",
	})
	if len(actionItems) > 3 {
		actionItems = actionItems[:3]
	}

	return UnifiedFeedbackData{
		OverallScore:        overall,
		PositivityScore:     positivity,
		SteadinessScore:     steadiness,
		ExpressivenessScore: expressiveness,
		Date:                time.Now().Format("January 2, 2006"),
		Session:             "Your Latest Practice Session",
		Duration:            formatDuration(backend.DurationSec),
		KeyInsights:         keyInsights,
		ActionItems:         actionItems,
	}
}

func gapsMention(gaps []string, word string) bool {
	for _, g := range gaps {
		if strings.Contains(g, word) {
			return true
		}
	}
	return false
}

func formatDuration(sec float64) string {
	minutes := int(sec) / 60
	seconds := int(math.Round(math.Mod(sec, 60)))
	if seconds == 60 {
		minutes++
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
