package analysis

import (
	"strings"
	"testing"
)

func reportFixture() (*BackendReport, DetailedReport) {
	backend := &BackendReport{
		Scores: ReportScores{Positivity: 80, Steadiness: 50, Expressiveness: 60},
		Aggregates: ReportAggregates{
			MeanConfidence: 0.8,
		},
		Insights: ReportInsights{
			DominantEmotion: "happy",
			Gaps:            []string{"Excellent emotional control! Your expressions were generally well-matched and composed."},
		},
		DurationSec: 65,
	}
	detailed := DetailedReport{NodCount: 2, GazePercent: 90}
	return backend, detailed
}

func TestUnifiedReportAcademicWeighting(t *testing.T) {
	backend, detailed := reportFixture()

	got := GenerateUnifiedReport(backend, detailed, nil, "academic")
	// 0.1*80 + 0.6*50 + 0.3*60
	if got.OverallScore != 56 {
		t.Errorf("overall = %d, want 56", got.OverallScore)
	}
	if got.Duration != "01:05" {
		t.Errorf("duration = %q, want %q", got.Duration, "01:05")
	}
}

func TestUnifiedReportUnknownScenarioUsesGeneralWeights(t *testing.T) {
	backend, detailed := reportFixture()

	unknown := GenerateUnifiedReport(backend, detailed, nil, "improv-battle")
	general := GenerateUnifiedReport(backend, detailed, nil, "general")
	if unknown.OverallScore != general.OverallScore {
		t.Errorf("unknown scenario overall = %d, general = %d, want equal",
			unknown.OverallScore, general.OverallScore)
	}
}

func TestUnifiedReportActionItemsAllClear(t *testing.T) {
	backend, detailed := reportFixture()
	backend.Scores = ReportScores{Positivity: 80, Steadiness: 90, Expressiveness: 80}

	got := GenerateUnifiedReport(backend, detailed, nil, "general")
	if len(got.ActionItems) != 2 {
		t.Fatalf("action items = %d, want 2", len(got.ActionItems))
	}
	if !strings.HasPrefix(got.ActionItems[0].Task, "Excellent session!") {
		t.Errorf("first item = %q, want congratulatory substitute", got.ActionItems[0].Task)
	}
	if got.ActionItems[0].Priority != "medium" {
		t.Errorf("first item priority = %q, want medium", got.ActionItems[0].Priority)
	}
	if got.ActionItems[1].Priority != "low" {
		t.Errorf("second item priority = %q, want low", got.ActionItems[1].Priority)
	}
}

func TestUnifiedReportActionItemsCappedAtThree(t *testing.T) {
	backend, detailed := reportFixture()
	backend.Scores = ReportScores{Positivity: 30, Steadiness: 40, Expressiveness: 50}
	backend.Insights.Gaps = []string{"Expressions of anger or tension were detected for over 3 seconds."}
	detailed.GazePercent = 50

	got := GenerateUnifiedReport(backend, detailed, nil, "interview")
	if len(got.ActionItems) != 3 {
		t.Fatalf("action items = %d, want 3", len(got.ActionItems))
	}
	if got.ActionItems[0].Priority != "high" || got.ActionItems[1].Priority != "high" {
		t.Errorf("items = %+v, want high-priority items first", got.ActionItems)
	}
	for _, item := range got.ActionItems {
		if item.Priority == "low" {
			t.Errorf("low-priority filler survived the cap: %+v", got.ActionItems)
		}
	}
}

func TestUnifiedReportYawnInsight(t *testing.T) {
	backend, detailed := reportFixture()

	got := GenerateUnifiedReport(backend, detailed, nil, "general")
	if len(got.KeyInsights) != 4 {
		t.Fatalf("key insights = %d, want 4 without yawns", len(got.KeyInsights))
	}

	detailed.YawnCount = 1
	got = GenerateUnifiedReport(backend, detailed, nil, "general")
	if len(got.KeyInsights) != 5 {
		t.Fatalf("key insights = %d, want 5 with a yawn", len(got.KeyInsights))
	}
	last := got.KeyInsights[len(got.KeyInsights)-1]
	if !strings.Contains(last, "1 yawn,") {
		t.Errorf("yawn insight = %q, want singular phrasing", last)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		sec  float64
		want string
	}{
		{0, "00:00"},
		{65, "01:05"},
		{119.7, "02:00"}, // rounding must carry into the minute
		{3600, "60:00"},
	}
	for _, tc := range cases {
		if got := formatDuration(tc.sec); got != tc.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tc.sec, got, tc.want)
		}
	}
}

func TestGapsMention(t *testing.T) {
	gaps := []string{"Expressions of anger or tension were detected."}
	if !gapsMention(gaps, "anger") {
		t.Error("expected anger mention")
	}
	if gapsMention(gaps, "fatigue") {
		t.Error("unexpected fatigue mention")
	}
}
