package analysis

import (
	"fmt"
	"math"
	"sort"
)

const reportVersion = "1.4.0"

// GetDetailedReport summarises the raw signal accumulators. It reads the
// session-long unbounded histories, not the rolling windows.
func (e *Engine) GetDetailedReport() DetailedReport {
	dur := e.elapsedSeconds()
	bpm := 0.0
	if dur > 0 {
		bpm = float64(len(e.blinkTimestamps)) / dur * 60
	}

	totalDen := e.totalFrames
	if totalDen < 1 {
		totalDen = 1
	}

	return DetailedReport{
		SessionDuration:       round1(dur),
		BlinksPerMinute:       int(math.Round(bpm)),
		AverageSmileIntensity: mean(e.smileScores),
		AverageBrowFurrow:     mean(e.browFurrowScores),
		AverageJawOpen:        mean(e.jawOpenScores),
		NodCount:              e.nodCount,
		GazePercent:           float64(e.eyeContactFrames) / float64(totalDen) * 100,
		OpeningSmileIntensity: mean(e.openingSmileScores),
		YawnCount:             e.yawnCount,
	}
}

// GetBackendReport reduces the emotion timeline to per-class durations,
// composite scores, key moments, and improvement gaps. An empty timeline is
// a structured error, not a panic; callers render a no-data state.
func (e *Engine) GetBackendReport() (*BackendReport, error) {
	if len(e.timeline) == 0 {
		return nil, ErrEmptyTimeline
	}

	durationSec := e.elapsedSeconds()
	fps := framesPerSecond * 1.0
	if durationSec > 0 {
		fps = float64(e.totalFrames) / durationSec
	}

	counts := map[string]int{}
	for _, ev := range e.timeline {
		counts[ev.Label]++
	}
	durations := map[string]float64{}
	for label, n := range counts {
		durations[label] = float64(n) / fps
	}

	positivity := 0.0
	steadiness := 0.0
	if durationSec > 0 {
		positivity = durations["happy"] / durationSec * 100
		negative := durations["fear"] + durations["sad"]
		steadiness = math.Max(0, (1-negative/durationSec)*100)
	}
	expressiveness := math.Min(100, (stdDev(e.smileScores)+stdDev(e.browFurrowScores))*500)

	confSum := 0.0
	for _, ev := range e.timeline {
		confSum += maxProb(ev.Probs)
	}
	meanConfidence := confSum / float64(len(e.timeline))

	keyMoments := e.buildKeyMoments()

	return &BackendReport{
		Classes:  EmotionLabels,
		Timeline: e.timeline,
		Aggregates: ReportAggregates{
			Counts:         counts,
			DurationsSec:   durations,
			MeanConfidence: round4(meanConfidence),
		},
		Scores: ReportScores{
			Expressiveness: int(math.Round(expressiveness)),
			Steadiness:     int(math.Round(steadiness)),
			Positivity:     int(math.Round(positivity)),
		},
		Insights: ReportInsights{
			DominantEmotion: dominantLabel(counts),
			KeyMoments:      keyMoments,
			Gaps:            buildGaps(positivity, durations["angry"], len(keyMoments)),
		},
		Version:     reportVersion,
		FPS:         round2(fps),
		DurationSec: round2(durationSec),
	}, nil
}

// buildKeyMoments picks the three highest-confidence non-neutral events once
// the timeline is long enough to make them meaningful, attaching a captured
// snapshot when one exists close to the event.
func (e *Engine) buildKeyMoments() []KeyMoment {
	if len(e.timeline) <= 50 {
		return nil
	}

	var significant []TimelineEvent
	for _, ev := range e.timeline {
		if ev.Label != "neutral" && maxProb(ev.Probs) > 0.65 {
			significant = append(significant, ev)
		}
	}
	sort.SliceStable(significant, func(i, j int) bool {
		return maxProb(significant[i].Probs) > maxProb(significant[j].Probs)
	})
	if len(significant) > 3 {
		significant = significant[:3]
	}

	moments := make([]KeyMoment, 0, len(significant))
	for _, ev := range significant {
		conf := int(math.Round(maxProb(ev.Probs) * 100))
		moments = append(moments, KeyMoment{
			TStart:   ev.T,
			TEnd:     ev.T + 1.0,
			Label:    ev.Label,
			Note:     fmt.Sprintf("A strong '%s' expression was detected with %d%% confidence.", ev.Label, conf),
			ThumbB64: e.snapshotNear(ev.T),
		})
	}
	return moments
}

// snapshotNear returns a captured thumbnail taken within half a second of t,
// or empty when none exists.
func (e *Engine) snapshotNear(t float64) string {
	for _, s := range e.snapshots {
		if math.Abs(s.t-t) <= 0.5 {
			return s.b64
		}
	}
	return ""
}

func buildGaps(positivity, angrySeconds float64, keyMomentCount int) []string {
	var gaps []string
	if positivity < 20 {
		gaps = append(gaps, "Your use of positive expressions like smiling was limited. Try a warm opening smile to build rapport.")
	}
	if angrySeconds > 3.0 {
		gaps = append(gaps, "Expressions of anger or tension were detected for over 3 seconds. Practice relaxing your brow after key points.")
	}
	if keyMomentCount == 0 {
		gaps = append(gaps, "Your expressions were generally neutral. Try using more varied facial expressions to emphasize your key points.")
	}
	if len(gaps) == 0 {
		gaps = append(gaps, "Excellent emotional control! Your expressions were generally well-matched and composed.")
	}
	return gaps
}

// dominantLabel returns the most frequent timeline label; ties break toward
// the lexicographically smaller label so the result is deterministic.
func dominantLabel(counts map[string]int) string {
	best := ""
	bestN := -1
	for label, n := range counts {
		if n > bestN || (n == bestN && label < best) {
			best = label
			bestN = n
		}
	}
	return best
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
