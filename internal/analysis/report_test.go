package analysis

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func happyProbs() []float64   { return []float64{0.8, 0.05, 0.05, 0.05, 0.05} }
func sadProbs() []float64     { return []float64{0.05, 0.05, 0.8, 0.05, 0.05} }
func neutralProbs() []float64 { return []float64{0.05, 0.8, 0.05, 0.05, 0.05} }

func TestBackendReportEmptyTimeline(t *testing.T) {
	e, _ := newTestEngine()
	e.StartSession("default")

	_, err := e.GetBackendReport()
	if !errors.Is(err, ErrEmptyTimeline) {
		t.Fatalf("err = %v, want ErrEmptyTimeline", err)
	}
}

func TestBackendReportFPSFallback(t *testing.T) {
	e, _ := newTestEngine()
	// No session open: zero duration, so the fps fallback applies.
	if err := e.AddTimelineEvent(0, happyProbs()); err != nil {
		t.Fatalf("AddTimelineEvent: %v", err)
	}

	rep, err := e.GetBackendReport()
	if err != nil {
		t.Fatalf("GetBackendReport: %v", err)
	}
	if rep.FPS != 30 {
		t.Errorf("fps = %v, want fallback 30", rep.FPS)
	}
	if rep.DurationSec != 0 {
		t.Errorf("duration = %v, want 0", rep.DurationSec)
	}
	if rep.Scores.Positivity != 0 || rep.Scores.Steadiness != 0 {
		t.Errorf("scores = %+v, want zero positivity and steadiness", rep.Scores)
	}
}

func TestBackendReportScoresAndKeyMoments(t *testing.T) {
	e, clk := newTestEngine()
	e.StartSession("default")

	for i := 0; i < 100; i++ {
		var probs []float64
		switch {
		case i < 60:
			probs = happyProbs()
		case i < 80:
			probs = sadProbs()
		default:
			probs = neutralProbs()
		}
		if err := e.AddTimelineEvent(float64(i)*0.1, probs); err != nil {
			t.Fatalf("AddTimelineEvent(%d): %v", i, err)
		}
	}
	clk.Advance(10 * time.Second)

	rep, err := e.GetBackendReport()
	if err != nil {
		t.Fatalf("GetBackendReport: %v", err)
	}

	if rep.FPS != 10 {
		t.Errorf("fps = %v, want 10", rep.FPS)
	}
	if rep.DurationSec != 10 {
		t.Errorf("duration = %v, want 10", rep.DurationSec)
	}
	if rep.Scores.Positivity != 60 {
		t.Errorf("positivity = %d, want 60", rep.Scores.Positivity)
	}
	if rep.Scores.Steadiness != 80 {
		t.Errorf("steadiness = %d, want 80", rep.Scores.Steadiness)
	}
	if rep.Scores.Expressiveness != 100 {
		t.Errorf("expressiveness = %d, want 100", rep.Scores.Expressiveness)
	}
	if rep.Aggregates.MeanConfidence != 0.8 {
		t.Errorf("mean confidence = %v, want 0.8", rep.Aggregates.MeanConfidence)
	}
	if rep.Insights.DominantEmotion != "happy" {
		t.Errorf("dominant = %q, want %q", rep.Insights.DominantEmotion, "happy")
	}
	if rep.Aggregates.Counts["happy"] != 60 || rep.Aggregates.Counts["sad"] != 20 {
		t.Errorf("counts = %v", rep.Aggregates.Counts)
	}

	moments := rep.Insights.KeyMoments
	if len(moments) != 3 {
		t.Fatalf("key moments = %d, want 3", len(moments))
	}
	for _, m := range moments {
		if m.Label == "neutral" {
			t.Errorf("neutral label surfaced as key moment: %+v", m)
		}
		if !strings.Contains(m.Note, "80% confidence") {
			t.Errorf("note = %q, want 80%% confidence mention", m.Note)
		}
		if m.TEnd != m.TStart+1.0 {
			t.Errorf("moment span = [%v, %v], want 1s window", m.TStart, m.TEnd)
		}
	}

	if len(rep.Insights.Gaps) != 1 || !strings.Contains(rep.Insights.Gaps[0], "Excellent") {
		t.Errorf("gaps = %v, want single positive gap", rep.Insights.Gaps)
	}
}

func TestKeyMomentsRequireLongTimeline(t *testing.T) {
	e, clk := newTestEngine()
	e.StartSession("default")

	for i := 0; i < 40; i++ {
		if err := e.AddTimelineEvent(float64(i)*0.1, happyProbs()); err != nil {
			t.Fatalf("AddTimelineEvent: %v", err)
		}
	}
	clk.Advance(4 * time.Second)

	rep, err := e.GetBackendReport()
	if err != nil {
		t.Fatalf("GetBackendReport: %v", err)
	}
	if len(rep.Insights.KeyMoments) != 0 {
		t.Fatalf("key moments = %d, want 0 for short timeline", len(rep.Insights.KeyMoments))
	}
}

func TestBuildGaps(t *testing.T) {
	gaps := buildGaps(10, 4.0, 0)
	if len(gaps) != 3 {
		t.Fatalf("gaps = %v, want 3 entries", gaps)
	}

	gaps = buildGaps(50, 0, 2)
	if len(gaps) != 1 || !strings.Contains(gaps[0], "Excellent") {
		t.Fatalf("gaps = %v, want single positive entry", gaps)
	}

	gaps = buildGaps(50, 0, 0)
	if len(gaps) != 1 || !strings.Contains(gaps[0], "neutral") {
		t.Fatalf("gaps = %v, want neutral-expressions entry", gaps)
	}
}

func TestDominantLabelTieBreak(t *testing.T) {
	got := dominantLabel(map[string]int{"sad": 2, "happy": 2})
	if got != "happy" {
		t.Errorf("dominantLabel = %q, want %q", got, "happy")
	}
}

func TestDetailedReport(t *testing.T) {
	e, clk := newTestEngine()
	e.StartSession("default")

	blink := map[string]float64{"eyeBlinkLeft": 0.9}
	for i := 0; i < 4; i++ {
		clk.Advance(33 * time.Millisecond)
		e.ProcessFrame(frameWith(blink))
	}
	clk.Advance(60*time.Second - 4*33*time.Millisecond)

	rep := e.GetDetailedReport()
	if rep.SessionDuration != 60 {
		t.Errorf("duration = %v, want 60", rep.SessionDuration)
	}
	if rep.BlinksPerMinute != 2 {
		t.Errorf("blinks per minute = %d, want 2", rep.BlinksPerMinute)
	}
	if rep.GazePercent != 100 {
		t.Errorf("gaze percent = %v, want 100", rep.GazePercent)
	}
	if rep.YawnCount != 0 {
		t.Errorf("yawn count = %d, want 0", rep.YawnCount)
	}
}

func TestSnapshotNear(t *testing.T) {
	e, _ := newTestEngine()
	e.snapshots = []snapshot{{t: 5.0, b64: "abc"}}

	if got := e.snapshotNear(5.4); got != "abc" {
		t.Errorf("snapshotNear(5.4) = %q, want %q", got, "abc")
	}
	if got := e.snapshotNear(6.0); got != "" {
		t.Errorf("snapshotNear(6.0) = %q, want empty", got)
	}
}
